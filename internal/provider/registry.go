package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages the provider clients available to the service
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates a registry holding the given clients
func NewRegistry(clients ...Client) (*Registry, error) {
	r := &Registry{
		clients: make(map[string]Client),
	}
	for _, c := range clients {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a client under its own name
func (r *Registry) Register(client Client) error {
	if client == nil {
		return fmt.Errorf("provider client must not be nil")
	}
	name := normalizeName(client.Name())
	if name == "" {
		return fmt.Errorf("provider client has an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.clients[name] = client
	return nil
}

// Get returns a client by name
func (r *Registry) Get(name string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[normalizeName(name)]
	return client, exists
}

// List returns all registered provider names in alphabetical order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
