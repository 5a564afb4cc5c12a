package tmdb

import (
	"strconv"
	"strings"

	"github.com/BenWassa/hearth/internal/provider"
)

// Image size tokens
const (
	posterSize   = "w500"
	backdropSize = "w780"
	stillSize    = "w300"
	profileSize  = "w185"
)

const maxCastMembers = 10

type namedJSON struct {
	Name optString `json:"name"`
}

type castJSON struct {
	Name        optString `json:"name"`
	Character   optString `json:"character"`
	ProfilePath optString `json:"profile_path"`
}

type crewJSON struct {
	Name optString `json:"name"`
	Job  optString `json:"job"`
}

type creditsJSON struct {
	Cast optList[castJSON] `json:"cast"`
	Crew optList[crewJSON] `json:"crew"`
}

func (c *creditsJSON) UnmarshalJSON(data []byte) error {
	type plain creditsJSON
	var p plain
	decodeObject(data, &p)
	*c = creditsJSON(p)
	return nil
}

type externalIDsJSON struct {
	IMDbID optString `json:"imdb_id"`
}

func (e *externalIDsJSON) UnmarshalJSON(data []byte) error {
	type plain externalIDsJSON
	var p plain
	decodeObject(data, &p)
	*e = externalIDsJSON(p)
	return nil
}

// mediaJSON covers movie, show and search result payloads.
type mediaJSON struct {
	ID               optInt              `json:"id"`
	MediaType        optString           `json:"media_type"`
	Title            optString           `json:"title"`
	OriginalTitle    optString           `json:"original_title"`
	Name             optString           `json:"name"`
	OriginalName     optString           `json:"original_name"`
	Overview         optString           `json:"overview"`
	Tagline          optString           `json:"tagline"`
	Status           optString           `json:"status"`
	ReleaseDate      optString           `json:"release_date"`
	FirstAirDate     optString           `json:"first_air_date"`
	Runtime          optInt              `json:"runtime"`
	EpisodeRunTime   optList[optInt]     `json:"episode_run_time"`
	Genres           optList[namedJSON]  `json:"genres"`
	Networks         optList[namedJSON]  `json:"networks"`
	PosterPath       optString           `json:"poster_path"`
	BackdropPath     optString           `json:"backdrop_path"`
	VoteAverage      optFloat            `json:"vote_average"`
	VoteCount        optInt              `json:"vote_count"`
	NumberOfSeasons  optInt              `json:"number_of_seasons"`
	NumberOfEpisodes optInt              `json:"number_of_episodes"`
	Seasons          optList[seasonJSON] `json:"seasons"`
	Credits          creditsJSON         `json:"credits"`
	IMDbID           optString           `json:"imdb_id"`
	ExternalIDs      externalIDsJSON     `json:"external_ids"`
	Homepage         optString           `json:"homepage"`
}

type searchJSON struct {
	Page         optInt             `json:"page"`
	TotalPages   optInt             `json:"total_pages"`
	TotalResults optInt             `json:"total_results"`
	Results      optList[mediaJSON] `json:"results"`
}

type seasonJSON struct {
	SeasonNumber optInt               `json:"season_number"`
	Name         optString            `json:"name"`
	Overview     optString            `json:"overview"`
	AirDate      optString            `json:"air_date"`
	EpisodeCount optInt               `json:"episode_count"`
	PosterPath   optString            `json:"poster_path"`
	Episodes     optList[episodeJSON] `json:"episodes"`
}

type episodeJSON struct {
	EpisodeNumber optInt    `json:"episode_number"`
	SeasonNumber  optInt    `json:"season_number"`
	Name          optString `json:"name"`
	Overview      optString `json:"overview"`
	AirDate       optString `json:"air_date"`
	Runtime       optInt    `json:"runtime"`
	StillPath     optString `json:"still_path"`
	VoteAverage   optFloat  `json:"vote_average"`
}

// imageURL joins the CDN root, a size token and an image path.
func imageURL(base, size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + "/" + size + path
}

// yearOf returns the leading four digit year of an ISO date.
func yearOf(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

func idString(id optInt) string {
	if !id.ok {
		return ""
	}
	return strconv.Itoa(id.v)
}

func names(items []namedJSON) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Name.String()); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func firstNonEmpty(values ...optString) string {
	for _, v := range values {
		if v.v != "" {
			return v.v
		}
	}
	return ""
}

// searchResultType decides the canonical type of a search hit. Multi search
// hits carry their own media_type; anything other than movie or tv is not
// media and reports false.
func searchResultType(raw mediaJSON, searched provider.MediaType) (provider.MediaType, bool) {
	if searched != "" {
		return searched, true
	}
	switch raw.MediaType.String() {
	case "movie":
		return provider.MediaTypeMovie, true
	case "tv":
		return provider.MediaTypeShow, true
	default:
		return "", false
	}
}

func mapSearchResult(raw mediaJSON, mediaType provider.MediaType, imageBase string) provider.SearchResult {
	r := provider.SearchResult{
		Provider:    providerName,
		ProviderID:  idString(raw.ID),
		Type:        mediaType,
		Overview:    raw.Overview.String(),
		PosterURL:   imageURL(imageBase, posterSize, raw.PosterPath.String()),
		BackdropURL: imageURL(imageBase, backdropSize, raw.BackdropPath.String()),
		Rating:      raw.VoteAverage.ptr(),
	}
	if mediaType == provider.MediaTypeMovie {
		r.Title = firstNonEmpty(raw.Title, raw.Name)
		r.OriginalTitle = firstNonEmpty(raw.OriginalTitle, raw.OriginalName)
		r.ReleaseDate = firstNonEmpty(raw.ReleaseDate, raw.FirstAirDate)
	} else {
		r.Title = firstNonEmpty(raw.Name, raw.Title)
		r.OriginalTitle = firstNonEmpty(raw.OriginalName, raw.OriginalTitle)
		r.ReleaseDate = firstNonEmpty(raw.FirstAirDate, raw.ReleaseDate)
	}
	r.Year = yearOf(r.ReleaseDate)
	return r
}

func mapSearchPage(raw searchJSON, searched provider.MediaType, requestedPage int, imageBase string) *provider.SearchPage {
	page := &provider.SearchPage{
		Page:         requestedPage,
		TotalPages:   raw.TotalPages.v,
		TotalResults: raw.TotalResults.v,
		Results:      make([]provider.SearchResult, 0, len(raw.Results)),
	}
	if raw.Page.ok && raw.Page.v > 0 {
		page.Page = raw.Page.v
	}
	for _, item := range raw.Results {
		mediaType, ok := searchResultType(item, searched)
		if !ok {
			continue
		}
		page.Results = append(page.Results, mapSearchResult(item, mediaType, imageBase))
	}
	return page
}

func mapCast(raw []castJSON, imageBase string) []provider.CastMember {
	n := min(len(raw), maxCastMembers)
	out := make([]provider.CastMember, 0, n)
	for _, c := range raw[:n] {
		out = append(out, provider.CastMember{
			Name:       c.Name.String(),
			Character:  c.Character.String(),
			ProfileURL: imageURL(imageBase, profileSize, c.ProfilePath.String()),
		})
	}
	return out
}

func mapDirectors(crew []crewJSON) []string {
	out := make([]string, 0)
	for _, c := range crew {
		if c.Job.String() == "Director" && c.Name.String() != "" {
			out = append(out, c.Name.String())
		}
	}
	return out
}

// mapMediaDetails converts a /movie/{id} or /tv/{id} payload.
func mapMediaDetails(raw mediaJSON, mediaType provider.MediaType, imageBase string) *provider.MediaDetails {
	d := &provider.MediaDetails{
		Provider:    providerName,
		ProviderID:  idString(raw.ID),
		Type:        mediaType,
		Overview:    raw.Overview.String(),
		Tagline:     raw.Tagline.String(),
		Status:      raw.Status.String(),
		Genres:      names(raw.Genres),
		PosterURL:   imageURL(imageBase, posterSize, raw.PosterPath.String()),
		BackdropURL: imageURL(imageBase, backdropSize, raw.BackdropPath.String()),
		Rating:      raw.VoteAverage.ptr(),
		VoteCount:   raw.VoteCount.ptr(),
		Networks:    names(raw.Networks),
		Cast:        mapCast(raw.Credits.Cast, imageBase),
		Directors:   mapDirectors(raw.Credits.Crew),
		IMDbID:      firstNonEmpty(raw.IMDbID, raw.ExternalIDs.IMDbID),
		Homepage:    raw.Homepage.String(),
	}

	if mediaType == provider.MediaTypeMovie {
		d.Title = firstNonEmpty(raw.Title, raw.Name)
		d.OriginalTitle = firstNonEmpty(raw.OriginalTitle, raw.OriginalName)
		d.ReleaseDate = raw.ReleaseDate.String()
		d.RuntimeMinutes = raw.Runtime.positive()
	} else {
		d.Title = firstNonEmpty(raw.Name, raw.Title)
		d.OriginalTitle = firstNonEmpty(raw.OriginalName, raw.OriginalTitle)
		d.ReleaseDate = raw.FirstAirDate.String()
		if len(raw.EpisodeRunTime) > 0 {
			d.RuntimeMinutes = raw.EpisodeRunTime[0].positive()
		}
		d.SeasonCount = raw.NumberOfSeasons.ptr()
		d.EpisodeCount = raw.NumberOfEpisodes.ptr()
	}
	d.Year = yearOf(d.ReleaseDate)
	return d
}

func mapSeasonSummary(raw seasonJSON, imageBase string) provider.SeasonSummary {
	return provider.SeasonSummary{
		SeasonNumber: raw.SeasonNumber.v,
		Name:         raw.Name.String(),
		Overview:     raw.Overview.String(),
		AirDate:      raw.AirDate.String(),
		EpisodeCount: raw.EpisodeCount.ptr(),
		PosterURL:    imageURL(imageBase, posterSize, raw.PosterPath.String()),
	}
}

// mapShowSeasons lists the regular seasons of a show. Specials (season 0)
// and seasons without a number are left out.
func mapShowSeasons(raw mediaJSON, imageBase string) *provider.ShowSeasons {
	seasons := make([]provider.SeasonSummary, 0, len(raw.Seasons))
	for _, s := range raw.Seasons {
		if !s.SeasonNumber.ok || s.SeasonNumber.v <= 0 {
			continue
		}
		seasons = append(seasons, mapSeasonSummary(s, imageBase))
	}

	count := len(seasons)
	if raw.NumberOfSeasons.ok && raw.NumberOfSeasons.v >= 0 {
		count = raw.NumberOfSeasons.v
	}
	return &provider.ShowSeasons{SeasonCount: count, Seasons: seasons}
}

func mapEpisode(raw episodeJSON, seasonNumber int, imageBase string) provider.EpisodeRecord {
	e := provider.EpisodeRecord{
		EpisodeNumber:  raw.EpisodeNumber.v,
		SeasonNumber:   seasonNumber,
		Name:           raw.Name.String(),
		Overview:       raw.Overview.String(),
		AirDate:        raw.AirDate.String(),
		RuntimeMinutes: raw.Runtime.positive(),
		StillURL:       imageURL(imageBase, stillSize, raw.StillPath.String()),
		Rating:         raw.VoteAverage.ptr(),
	}
	if raw.SeasonNumber.ok {
		e.SeasonNumber = raw.SeasonNumber.v
	}
	return e
}

// mapSeasonEpisodes converts a /tv/{id}/season/{n} payload. The requested
// season number stands in for any the payload lacks.
func mapSeasonEpisodes(raw seasonJSON, seasonNumber int, imageBase string) *provider.SeasonEpisodes {
	out := &provider.SeasonEpisodes{
		SeasonNumber: seasonNumber,
		Name:         raw.Name.String(),
		Episodes:     make([]provider.EpisodeRecord, 0, len(raw.Episodes)),
	}
	if raw.SeasonNumber.ok {
		out.SeasonNumber = raw.SeasonNumber.v
	}
	for _, e := range raw.Episodes {
		out.Episodes = append(out.Episodes, mapEpisode(e, out.SeasonNumber, imageBase))
	}
	return out
}
