package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BenWassa/hearth/internal/provider"
	"github.com/BenWassa/hearth/internal/ratelimit"
)

// Rate limit scopes, one per route family.
const (
	ScopeSearch        = "search"
	ScopeMediaDetails  = "media-details"
	ScopeMediaSeasons  = "media-seasons"
	ScopeMediaEpisodes = "media-episodes"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.limited(ScopeSearch, s.handleSearch))
	mux.HandleFunc("GET /api/media/{id}", s.limited(ScopeMediaDetails, s.handleDetails))
	mux.HandleFunc("GET /api/media/{id}/seasons", s.limited(ScopeMediaSeasons, s.handleSeasons))
	mux.HandleFunc("GET /api/media/{id}/seasons/{season}", s.limited(ScopeMediaEpisodes, s.handleEpisodes))
	mux.HandleFunc("GET /api/media/{id}/structure", s.limited(ScopeMediaSeasons, s.handleStructure))
}

// limited admits the request through the limiter before calling next. A
// denied request never reaches the provider.
func (s *Server) limited(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := s.cfg.Limiter.Check(r, scope)
		ratelimit.ApplyHeaders(w, scope, d)
		if !d.Allowed {
			writeError(w, provider.NewError(provider.CodeRateLimited, "Too many requests"))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, provider.NewError(provider.CodeBadRequest, "page must be an integer"))
			return
		}
		page = n
	}

	results, err := s.cfg.Client.Search(r.Context(), q.Get("q"), q.Get("type"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, results)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.cfg.Client.GetMediaDetails(r.Context(), r.PathValue("id"), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, details)
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.cfg.Client.GetShowSeasons(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, seasons)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	season, err := strconv.Atoi(r.PathValue("season"))
	if err != nil {
		writeError(w, provider.NewError(provider.CodeBadRequest, "season must be an integer"))
		return
	}

	episodes, err := s.cfg.Client.GetSeasonEpisodes(r.Context(), r.PathValue("id"), season)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, episodes)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	show, err := s.cfg.Hydrator.HydrateShowData(r.Context(), s.cfg.Client.Name(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, show)
}
