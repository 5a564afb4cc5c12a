package hydrate

import (
	"github.com/patrickmn/go-cache"

	"github.com/BenWassa/hearth/internal/provider"
)

// memoryStore keeps hydrated shows for the life of the process. Entries
// never expire and there is no janitor goroutine.
type memoryStore struct {
	c *cache.Cache
}

var _ provider.ShowCache = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (s *memoryStore) Get(key string) (*provider.ShowStructure, bool) {
	cached, found := s.c.Get(key)
	if !found {
		return nil, false
	}
	show, ok := cached.(*provider.ShowStructure)
	return show, ok
}

func (s *memoryStore) Set(key string, show *provider.ShowStructure) {
	s.c.Set(key, show, cache.NoExpiration)
}

func (s *memoryStore) Len() int {
	return s.c.ItemCount()
}
