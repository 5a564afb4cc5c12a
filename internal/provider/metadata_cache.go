package provider

import (
	"fmt"
	"strings"
)

// ShowCache provides safe access to hydrated show structures.
type ShowCache interface {
	Get(key string) (*ShowStructure, bool)
	Set(key string, show *ShowStructure)
	Len() int
}

// GenerateShowKey creates the cache key for a show's hydrated structure.
func GenerateShowKey(providerName, providerID string) string {
	return fmt.Sprintf("%s:%s", normalizeName(providerName), strings.TrimSpace(providerID))
}
