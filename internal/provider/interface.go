package provider

import (
	"context"
)

// MediaType represents the type of media content
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// ParseMediaType maps caller supplied type labels onto a MediaType. Anything
// that is not recognizably a movie or a show yields the empty MediaType,
// which callers treat as "auto".
func ParseMediaType(value string) MediaType {
	switch value {
	case "movie", "movies":
		return MediaTypeMovie
	case "show", "shows", "tv", "series":
		return MediaTypeShow
	default:
		return ""
	}
}

// Client is the contract every metadata provider implementation satisfies.
// Expected failures are always returned as *UpstreamError.
type Client interface {
	// Identification
	Name() string

	// Data fetching
	Search(ctx context.Context, query string, mediaType string, page int) (*SearchPage, error)
	GetMediaDetails(ctx context.Context, id string, preferredType string) (*MediaDetails, error)
	GetShowSeasons(ctx context.Context, id string) (*ShowSeasons, error)
	GetSeasonEpisodes(ctx context.Context, id string, seasonNumber int) (*SeasonEpisodes, error)
}

// SearchResult is a single provider-agnostic search hit.
type SearchResult struct {
	Provider      string    `json:"provider"`
	ProviderID    string    `json:"providerId"`
	Type          MediaType `json:"type"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"originalTitle"`
	Overview      string    `json:"overview"`
	ReleaseDate   string    `json:"releaseDate"`
	Year          *int      `json:"year"`
	PosterURL     string    `json:"posterUrl"`
	BackdropURL   string    `json:"backdropUrl"`
	Rating        *float64  `json:"rating"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// CastMember is a billed performer.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profileUrl"`
}

// MediaDetails is the canonical record for a movie or a show.
type MediaDetails struct {
	Provider       string       `json:"provider"`
	ProviderID     string       `json:"providerId"`
	Type           MediaType    `json:"type"`
	Title          string       `json:"title"`
	OriginalTitle  string       `json:"originalTitle"`
	Overview       string       `json:"overview"`
	Tagline        string       `json:"tagline"`
	Status         string       `json:"status"`
	ReleaseDate    string       `json:"releaseDate"`
	Year           *int         `json:"year"`
	RuntimeMinutes *int         `json:"runtimeMinutes"`
	Genres         []string     `json:"genres"`
	PosterURL      string       `json:"posterUrl"`
	BackdropURL    string       `json:"backdropUrl"`
	Rating         *float64     `json:"rating"`
	VoteCount      *int         `json:"voteCount"`
	SeasonCount    *int         `json:"seasonCount"`
	EpisodeCount   *int         `json:"episodeCount"`
	Networks       []string     `json:"networks"`
	Cast           []CastMember `json:"cast"`
	Directors      []string     `json:"directors"`
	IMDbID         string       `json:"imdbId"`
	Homepage       string       `json:"homepage"`
}

// SeasonSummary describes one season without its episodes.
type SeasonSummary struct {
	SeasonNumber int    `json:"seasonNumber"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	AirDate      string `json:"airDate"`
	EpisodeCount *int   `json:"episodeCount"`
	PosterURL    string `json:"posterUrl"`
}

// ShowSeasons is the season list of a show.
type ShowSeasons struct {
	SeasonCount int             `json:"seasonCount"`
	Seasons     []SeasonSummary `json:"seasons"`
}

// EpisodeRecord is the canonical record for one episode.
type EpisodeRecord struct {
	EpisodeNumber  int      `json:"episodeNumber"`
	SeasonNumber   int      `json:"seasonNumber"`
	Name           string   `json:"name"`
	Overview       string   `json:"overview"`
	AirDate        string   `json:"airDate"`
	RuntimeMinutes *int     `json:"runtimeMinutes"`
	StillURL       string   `json:"stillUrl"`
	Rating         *float64 `json:"rating"`
}

// SeasonEpisodes is the episode list of one season.
type SeasonEpisodes struct {
	SeasonNumber int             `json:"seasonNumber"`
	Name         string          `json:"name"`
	Episodes     []EpisodeRecord `json:"episodes"`
}

// HydratedSeason is a season together with its resolved episodes.
type HydratedSeason struct {
	SeasonSummary
	Episodes []EpisodeRecord `json:"episodes"`
}

// ShowStructure is the full season and episode tree of a show.
type ShowStructure struct {
	SeasonCount int              `json:"seasonCount"`
	Seasons     []HydratedSeason `json:"seasons"`
}
