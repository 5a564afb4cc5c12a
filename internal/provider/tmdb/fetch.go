package tmdb

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/BenWassa/hearth/internal/provider"
)

// Search queries movies, shows or both. An unrecognized mediaType searches
// both and drops hits that are neither.
func (c *Client) Search(ctx context.Context, query string, mediaType string, page int) (*provider.SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, provider.NewError(provider.CodeBadRequest, "Search query is required")
	}
	if page <= 0 {
		page = 1
	}

	searched := provider.ParseMediaType(mediaType)
	path := "/search/multi"
	switch searched {
	case provider.MediaTypeMovie:
		path = "/search/movie"
	case provider.MediaTypeShow:
		path = "/search/tv"
	}

	body, err := c.callUpstream(ctx, path, map[string]string{
		"query":         query,
		"page":          strconv.Itoa(page),
		"include_adult": "false",
	})
	if err != nil {
		return nil, err
	}

	var raw searchJSON
	decode(body, &raw)
	return mapSearchPage(raw, searched, page, c.imageBaseURL), nil
}

// candidateTypes is the order in which an id is tried. Only an explicit
// movie preference tries movies first.
func candidateTypes(preferred provider.MediaType) []provider.MediaType {
	if preferred == provider.MediaTypeMovie {
		return []provider.MediaType{provider.MediaTypeMovie, provider.MediaTypeShow}
	}
	return []provider.MediaType{provider.MediaTypeShow, provider.MediaTypeMovie}
}

// GetMediaDetails resolves id as a movie or a show. A NOT_FOUND moves on to
// the next candidate type; any other failure is returned at once.
func (c *Client) GetMediaDetails(ctx context.Context, id string, preferredType string) (*provider.MediaDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, provider.NewError(provider.CodeBadRequest, "Media id is required")
	}

	for _, mediaType := range candidateTypes(provider.ParseMediaType(preferredType)) {
		details, err := c.fetchDetails(ctx, id, mediaType)
		if err == nil {
			return details, nil
		}
		if !provider.IsCode(err, provider.CodeNotFound) {
			return nil, err
		}
	}
	return nil, provider.NewError(provider.CodeNotFound, "Media not found")
}

func (c *Client) fetchDetails(ctx context.Context, id string, mediaType provider.MediaType) (*provider.MediaDetails, error) {
	path := "/movie/" + url.PathEscape(id)
	appended := "credits"
	if mediaType == provider.MediaTypeShow {
		path = "/tv/" + url.PathEscape(id)
		appended = "credits,external_ids"
	}

	body, err := c.callUpstream(ctx, path, map[string]string{"append_to_response": appended})
	if err != nil {
		return nil, err
	}

	var raw mediaJSON
	decode(body, &raw)
	details := mapMediaDetails(raw, mediaType, c.imageBaseURL)
	if details.ProviderID == "" {
		details.ProviderID = id
	}
	return details, nil
}

// GetShowSeasons lists the seasons of a show.
func (c *Client) GetShowSeasons(ctx context.Context, id string) (*provider.ShowSeasons, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, provider.NewError(provider.CodeBadRequest, "Media id is required")
	}

	body, err := c.callUpstream(ctx, "/tv/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var raw mediaJSON
	decode(body, &raw)
	return mapShowSeasons(raw, c.imageBaseURL), nil
}

// GetSeasonEpisodes lists the episodes of one season of a show.
func (c *Client) GetSeasonEpisodes(ctx context.Context, id string, seasonNumber int) (*provider.SeasonEpisodes, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, provider.NewError(provider.CodeBadRequest, "Media id is required")
	}
	if seasonNumber < 0 {
		return nil, provider.NewError(provider.CodeBadRequest, "Season number must not be negative")
	}

	path := "/tv/" + url.PathEscape(id) + "/season/" + strconv.Itoa(seasonNumber)
	body, err := c.callUpstream(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var raw seasonJSON
	decode(body, &raw)
	return mapSeasonEpisodes(raw, seasonNumber, c.imageBaseURL), nil
}
