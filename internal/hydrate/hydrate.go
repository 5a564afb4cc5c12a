// Package hydrate assembles and memoizes the full season and episode tree
// of a show.
package hydrate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/BenWassa/hearth/internal/log"
	"github.com/BenWassa/hearth/internal/provider"
)

// DefaultConcurrency bounds the season fetches of one hydration.
const DefaultConcurrency = 4

// Cache hydrates shows at most once per provider and id. Concurrent callers
// for the same show share one computation, and resolved structures are kept
// for the life of the process. Returned structures are shared and must be
// treated as read-only.
type Cache struct {
	registry    *provider.Registry
	store       provider.ShowCache
	group       singleflight.Group
	concurrency int
	logger      *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithConcurrency bounds parallel season fetches. Non-positive values keep
// the default.
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithStore replaces the in-memory result store.
func WithStore(store provider.ShowCache) Option {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithLogger sets the logger for season failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = log.OrNop(logger)
	}
}

// New creates a Cache resolving providers through registry.
func New(registry *provider.Registry, opts ...Option) *Cache {
	c := &Cache{
		registry:    registry,
		store:       newMemoryStore(),
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HydrateShowData returns the season and episode tree of a show.
//
// A season whose episodes cannot be fetched is kept with an empty episode
// list. A failure to list the seasons is returned and nothing is cached, so
// the next call tries again. Cancelling ctx abandons the wait without
// cancelling the shared computation.
func (c *Cache) HydrateShowData(ctx context.Context, providerName, providerID string) (*provider.ShowStructure, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, provider.NewError(provider.CodeBadRequest, "Media id is required")
	}
	client, ok := c.registry.Get(providerName)
	if !ok {
		return nil, provider.NewError(provider.CodeBadRequest, fmt.Sprintf("Unknown provider: %s", providerName))
	}

	key := provider.GenerateShowKey(providerName, providerID)
	if show, ok := c.store.Get(key); ok {
		return show, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Another flight may have finished between the lookup and here.
		if show, ok := c.store.Get(key); ok {
			return show, nil
		}
		show, err := c.build(context.WithoutCancel(ctx), client, providerID)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, show)
		return show, nil
	})

	select {
	case <-ctx.Done():
		return nil, provider.NewError(provider.CodeUpstreamUnavailable, "Upstream request timeout")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*provider.ShowStructure), nil
	}
}

func (c *Cache) build(ctx context.Context, client provider.Client, id string) (*provider.ShowStructure, error) {
	seasons, err := client.GetShowSeasons(ctx, id)
	if err != nil {
		return nil, err
	}

	show := &provider.ShowStructure{
		SeasonCount: seasons.SeasonCount,
		Seasons:     make([]provider.HydratedSeason, len(seasons.Seasons)),
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, summary := range seasons.Seasons {
		show.Seasons[i] = provider.HydratedSeason{
			SeasonSummary: summary,
			Episodes:      []provider.EpisodeRecord{},
		}
		g.Go(func() error {
			episodes, err := client.GetSeasonEpisodes(ctx, id, summary.SeasonNumber)
			if err != nil {
				c.logger.Warn("season hydration failed",
					zap.String("provider", client.Name()),
					zap.String("id", id),
					zap.Int("season", summary.SeasonNumber),
					zap.Error(err))
				return nil
			}
			if episodes != nil && episodes.Episodes != nil {
				show.Seasons[i].Episodes = episodes.Episodes
			}
			return nil
		})
	}
	_ = g.Wait()

	return show, nil
}

// Len returns the number of hydrated shows held.
func (c *Cache) Len() int {
	return c.store.Len()
}
