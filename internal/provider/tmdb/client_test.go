package tmdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BenWassa/hearth/internal/provider"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func jsonResponse(status int, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

// recorder captures every request that reaches the transport.
type recorder struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.reqs))
	for _, req := range r.reqs {
		out = append(out, req.URL.Path)
	}
	return out
}

func newClient(fn roundTripFunc, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(newTestClient(fn)),
		WithAPIKey("test-key"),
		WithPacing(0, 0),
	}
	return New(append(base, opts...)...)
}

func wantUpstreamError(t *testing.T, err error, status int, code provider.Code, message string) {
	t.Helper()
	var ue *provider.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v (%T), want *provider.UpstreamError", err, err)
	}
	if ue.Status != status || ue.Code != code {
		t.Errorf("error = {%d %s}, want {%d %s}", ue.Status, ue.Code, status, code)
	}
	if message != "" && ue.Message != message {
		t.Errorf("error message = %q, want %q", ue.Message, message)
	}
}

func TestCallUpstream_MissingCredentials(t *testing.T) {
	called := false
	c := New(
		WithHTTPClient(newTestClient(func(req *http.Request) (*http.Response, error) {
			called = true
			return jsonResponse(200, `{}`), nil
		})),
		WithPacing(0, 0),
	)

	_, err := c.callUpstream(context.Background(), "/movie/1", nil)
	wantUpstreamError(t, err, 500, provider.CodeInternalError, "")
	if called {
		t.Error("transport was called without credentials")
	}
}

func TestCallUpstream_Credentials(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantAuth   string
		wantAPIKey string
	}{
		{
			name:     "bearer preferred over api key",
			opts:     []Option{WithBearerToken("tok"), WithAPIKey("key")},
			wantAuth: "Bearer tok",
		},
		{
			name:     "bearer only",
			opts:     []Option{WithBearerToken("tok")},
			wantAuth: "Bearer tok",
		},
		{
			name:       "api key only",
			opts:       []Option{WithAPIKey("key")},
			wantAPIKey: "key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *http.Request
			opts := append([]Option{
				WithHTTPClient(newTestClient(func(req *http.Request) (*http.Response, error) {
					got = req
					return jsonResponse(200, `{}`), nil
				})),
				WithPacing(0, 0),
			}, tt.opts...)
			c := New(opts...)

			if _, err := c.callUpstream(context.Background(), "/movie/1", nil); err != nil {
				t.Fatalf("callUpstream() error = %v", err)
			}
			if auth := got.Header.Get("Authorization"); auth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", auth, tt.wantAuth)
			}
			if key := got.URL.Query().Get("api_key"); key != tt.wantAPIKey {
				t.Errorf("api_key = %q, want %q", key, tt.wantAPIKey)
			}
		})
	}
}

func TestCallUpstream_URL(t *testing.T) {
	var got *http.Request
	c := newClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(200, `{"id": 1}`), nil
	}, WithBaseURL("https://example.test/3"))

	body, err := c.callUpstream(context.Background(), "/search/movie", map[string]string{
		"query": "alien",
		"page":  "",
		"year":  "",
	})
	if err != nil {
		t.Fatalf("callUpstream() error = %v", err)
	}
	if string(body) != `{"id": 1}` {
		t.Errorf("body = %s, want {\"id\": 1}", body)
	}

	if got.URL.Host != "example.test" || got.URL.Path != "/3/search/movie" {
		t.Errorf("URL = %s, want https://example.test/3/search/movie", got.URL)
	}
	want := map[string][]string{
		"query":   {"alien"},
		"api_key": {"test-key"},
	}
	if diff := cmp.Diff(want, map[string][]string(got.URL.Query())); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if got.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", got.Method)
	}
}

func TestCallUpstream_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		wantCode   provider.Code
	}{
		{name: "not found", status: 404, wantStatus: 404, wantCode: provider.CodeNotFound},
		{name: "rate limited", status: 429, wantStatus: 429, wantCode: provider.CodeRateLimited},
		{name: "unauthorized", status: 401, wantStatus: 400, wantCode: provider.CodeBadRequest},
		{name: "bad request", status: 400, wantStatus: 400, wantCode: provider.CodeBadRequest},
		{name: "server error", status: 500, wantStatus: 503, wantCode: provider.CodeUpstreamUnavailable},
		{name: "bad gateway", status: 502, wantStatus: 503, wantCode: provider.CodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, `{"status_message": "nope"}`), nil
			})

			_, err := c.callUpstream(context.Background(), "/movie/1", nil)
			wantUpstreamError(t, err, tt.wantStatus, tt.wantCode, "")

			ue := provider.AsUpstream(err)
			if ue.UpstreamStatus != tt.status {
				t.Errorf("UpstreamStatus = %d, want %d", ue.UpstreamStatus, tt.status)
			}
			if ue.UpstreamBody != `{"status_message": "nope"}` {
				t.Errorf("UpstreamBody = %q", ue.UpstreamBody)
			}
		})
	}
}

func TestCallUpstream_InvalidJSONBody(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `<html>oops</html>`), nil
	})

	body, err := c.callUpstream(context.Background(), "/movie/1", nil)
	if err != nil {
		t.Fatalf("callUpstream() error = %v", err)
	}
	if string(body) != "{}" {
		t.Errorf("body = %s, want {}", body)
	}
}

func TestCallUpstream_ErrorKeepsRawBody(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(502, `<html>Bad Gateway</html>`), nil
	})

	_, err := c.callUpstream(context.Background(), "/movie/1", nil)
	wantUpstreamError(t, err, 503, provider.CodeUpstreamUnavailable, "")
	if ue := provider.AsUpstream(err); ue.UpstreamBody != `<html>Bad Gateway</html>` {
		t.Errorf("UpstreamBody = %q, want the raw upstream payload", ue.UpstreamBody)
	}
}

func TestCallUpstream_TransportFailure(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.callUpstream(context.Background(), "/movie/1", nil)
	wantUpstreamError(t, err, 503, provider.CodeUpstreamUnavailable, "Upstream request failed")
}

func TestCallUpstream_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(
		WithBaseURL(srv.URL),
		WithAPIKey("key"),
		WithTimeout(50*time.Millisecond),
		WithPacing(0, 0),
	)

	start := time.Now()
	_, err := c.callUpstream(context.Background(), "/movie/1", nil)
	wantUpstreamError(t, err, 503, provider.CodeUpstreamUnavailable, "Upstream request timeout")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("callUpstream() took %v, want it bounded by the timeout", elapsed)
	}
}

func TestCallUpstream_CallerCancel(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.callUpstream(ctx, "/movie/1", nil)
	wantUpstreamError(t, err, 503, provider.CodeUpstreamUnavailable, "Upstream request timeout")
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		page      int
		wantPath  string
		wantPage  string
	}{
		{name: "movie", mediaType: "movie", page: 2, wantPath: "/3/search/movie", wantPage: "2"},
		{name: "show", mediaType: "show", page: 1, wantPath: "/3/search/tv", wantPage: "1"},
		{name: "tv alias", mediaType: "tv", page: 1, wantPath: "/3/search/tv", wantPage: "1"},
		{name: "auto", mediaType: "", page: 0, wantPath: "/3/search/multi", wantPage: "1"},
		{name: "unknown type", mediaType: "person", page: -3, wantPath: "/3/search/multi", wantPage: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *http.Request
			c := newClient(func(req *http.Request) (*http.Response, error) {
				got = req
				return jsonResponse(200, `{"page": 1, "results": []}`), nil
			})

			if _, err := c.Search(context.Background(), "  alien ", tt.mediaType, tt.page); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got.URL.Path != tt.wantPath {
				t.Errorf("path = %s, want %s", got.URL.Path, tt.wantPath)
			}
			q := got.URL.Query()
			if q.Get("query") != "alien" || q.Get("page") != tt.wantPage || q.Get("include_adult") != "false" {
				t.Errorf("query = %v", q)
			}
		})
	}
}

func TestSearch_MultiDropsPeople(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{
			"page": 1,
			"total_pages": 3,
			"total_results": 42,
			"results": [
				{"id": 603, "media_type": "movie", "title": "The Matrix", "release_date": "1999-03-30", "poster_path": "/m.jpg", "vote_average": 8.2},
				{"id": 287, "media_type": "person", "name": "Keanu Reeves"},
				{"id": 1399, "media_type": "tv", "name": "Game of Thrones", "first_air_date": "2011-04-17"}
			]
		}`), nil
	})

	page, err := c.Search(context.Background(), "matrix", "", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	rating := 8.2
	y1999, y2011 := 1999, 2011
	want := &provider.SearchPage{
		Page:         1,
		TotalPages:   3,
		TotalResults: 42,
		Results: []provider.SearchResult{
			{
				Provider:    "tmdb",
				ProviderID:  "603",
				Type:        provider.MediaTypeMovie,
				Title:       "The Matrix",
				ReleaseDate: "1999-03-30",
				Year:        &y1999,
				PosterURL:   "https://image.tmdb.org/t/p/w500/m.jpg",
				Rating:      &rating,
			},
			{
				Provider:    "tmdb",
				ProviderID:  "1399",
				Type:        provider.MediaTypeShow,
				Title:       "Game of Thrones",
				ReleaseDate: "2011-04-17",
				Year:        &y2011,
			},
		},
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	called := false
	c := newClient(func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(200, `{}`), nil
	})

	_, err := c.Search(context.Background(), "   ", "movie", 1)
	wantUpstreamError(t, err, 400, provider.CodeBadRequest, "")
	if called {
		t.Error("transport was called for an empty query")
	}
}

func TestGetMediaDetails_Resolver(t *testing.T) {
	tests := []struct {
		name       string
		preferred  string
		responses  map[string]int // path to status
		wantPaths  []string
		wantType   provider.MediaType
		wantStatus int
		wantCode   provider.Code
		wantMsg    string
	}{
		{
			name:      "movie preferred found first",
			preferred: "movie",
			responses: map[string]int{"/3/movie/42": 200, "/3/tv/42": 200},
			wantPaths: []string{"/3/movie/42"},
			wantType:  provider.MediaTypeMovie,
		},
		{
			name:      "movie preferred falls back to show",
			preferred: "movie",
			responses: map[string]int{"/3/movie/42": 404, "/3/tv/42": 200},
			wantPaths: []string{"/3/movie/42", "/3/tv/42"},
			wantType:  provider.MediaTypeShow,
		},
		{
			name:      "show preferred found first",
			preferred: "show",
			responses: map[string]int{"/3/movie/42": 200, "/3/tv/42": 200},
			wantPaths: []string{"/3/tv/42"},
			wantType:  provider.MediaTypeShow,
		},
		{
			name:      "auto tries show then movie",
			preferred: "",
			responses: map[string]int{"/3/movie/42": 200, "/3/tv/42": 404},
			wantPaths: []string{"/3/tv/42", "/3/movie/42"},
			wantType:  provider.MediaTypeMovie,
		},
		{
			name:       "non not-found failure stops resolution",
			preferred:  "movie",
			responses:  map[string]int{"/3/movie/42": 429, "/3/tv/42": 200},
			wantPaths:  []string{"/3/movie/42"},
			wantStatus: 429,
			wantCode:   provider.CodeRateLimited,
		},
		{
			name:       "server failure stops resolution",
			preferred:  "show",
			responses:  map[string]int{"/3/movie/42": 200, "/3/tv/42": 500},
			wantPaths:  []string{"/3/tv/42"},
			wantStatus: 503,
			wantCode:   provider.CodeUpstreamUnavailable,
		},
		{
			name:       "exhausted",
			preferred:  "movie",
			responses:  map[string]int{"/3/movie/42": 404, "/3/tv/42": 404},
			wantPaths:  []string{"/3/movie/42", "/3/tv/42"},
			wantStatus: 404,
			wantCode:   provider.CodeNotFound,
			wantMsg:    "Media not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			c := newClient(func(req *http.Request) (*http.Response, error) {
				rec.add(req)
				status := tt.responses[req.URL.Path]
				if status != 200 {
					return jsonResponse(status, `{}`), nil
				}
				return jsonResponse(200, `{"id": 42, "title": "Movie", "name": "Show"}`), nil
			}, WithBaseURL("https://api.example/3"))

			details, err := c.GetMediaDetails(context.Background(), "42", tt.preferred)

			if diff := cmp.Diff(tt.wantPaths, rec.paths()); diff != "" {
				t.Errorf("upstream calls mismatch (-want +got):\n%s", diff)
			}
			if tt.wantCode != "" {
				wantUpstreamError(t, err, tt.wantStatus, tt.wantCode, tt.wantMsg)
				return
			}
			if err != nil {
				t.Fatalf("GetMediaDetails() error = %v", err)
			}
			if details.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", details.Type, tt.wantType)
			}
		})
	}
}

func TestGetMediaDetails_AppendsCredits(t *testing.T) {
	var got *http.Request
	c := newClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(200, `{"id": 1}`), nil
	})

	if _, err := c.GetMediaDetails(context.Background(), "1", "movie"); err != nil {
		t.Fatalf("GetMediaDetails() error = %v", err)
	}
	if v := got.URL.Query().Get("append_to_response"); v != "credits" {
		t.Errorf("append_to_response = %q, want credits", v)
	}
}

func TestGetMediaDetails_EmptyID(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		t.Error("transport called for empty id")
		return jsonResponse(200, `{}`), nil
	})

	_, err := c.GetMediaDetails(context.Background(), " ", "movie")
	wantUpstreamError(t, err, 400, provider.CodeBadRequest, "")
}

func TestGetShowSeasons(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/tv/1399" {
			t.Errorf("path = %s, want /3/tv/1399", req.URL.Path)
		}
		return jsonResponse(200, `{
			"id": 1399,
			"number_of_seasons": 2,
			"seasons": [
				{"season_number": 0, "name": "Specials", "episode_count": 5},
				{"season_number": 1, "name": "Season 1", "episode_count": 10, "air_date": "2011-04-17", "poster_path": "/s1.jpg"},
				{"season_number": 2, "name": "Season 2", "episode_count": "10"}
			]
		}`), nil
	})

	got, err := c.GetShowSeasons(context.Background(), "1399")
	if err != nil {
		t.Fatalf("GetShowSeasons() error = %v", err)
	}

	ten := 10
	want := &provider.ShowSeasons{
		SeasonCount: 2,
		Seasons: []provider.SeasonSummary{
			{SeasonNumber: 1, Name: "Season 1", AirDate: "2011-04-17", EpisodeCount: &ten, PosterURL: "https://image.tmdb.org/t/p/w500/s1.jpg"},
			{SeasonNumber: 2, Name: "Season 2", EpisodeCount: &ten},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetShowSeasons() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSeasonEpisodes(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/tv/1399/season/1" {
			t.Errorf("path = %s, want /3/tv/1399/season/1", req.URL.Path)
		}
		return jsonResponse(200, `{
			"name": "Season 1",
			"episodes": [
				{"episode_number": 1, "name": "Winter Is Coming", "air_date": "2011-04-17", "runtime": 62, "still_path": "/e1.jpg", "vote_average": 8.1},
				{"episode_number": 2, "name": "The Kingsroad", "runtime": 0}
			]
		}`), nil
	})

	got, err := c.GetSeasonEpisodes(context.Background(), "1399", 1)
	if err != nil {
		t.Fatalf("GetSeasonEpisodes() error = %v", err)
	}

	runtime, rating := 62, 8.1
	want := &provider.SeasonEpisodes{
		SeasonNumber: 1,
		Name:         "Season 1",
		Episodes: []provider.EpisodeRecord{
			{
				EpisodeNumber:  1,
				SeasonNumber:   1,
				Name:           "Winter Is Coming",
				AirDate:        "2011-04-17",
				RuntimeMinutes: &runtime,
				StillURL:       "https://image.tmdb.org/t/p/w300/e1.jpg",
				Rating:         &rating,
			},
			{EpisodeNumber: 2, SeasonNumber: 1, Name: "The Kingsroad"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetSeasonEpisodes() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSeasonEpisodes_NegativeSeason(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		t.Error("transport called for negative season")
		return jsonResponse(200, `{}`), nil
	})

	_, err := c.GetSeasonEpisodes(context.Background(), "1399", -1)
	wantUpstreamError(t, err, 400, provider.CodeBadRequest, "")
}

func TestClient_Name(t *testing.T) {
	if got := New().Name(); got != "tmdb" {
		t.Errorf("Name() = %q, want tmdb", got)
	}
}
