package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh Adapter value. Adapters self-register a
// Factory from their package's init().
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a named adapter factory to the registry. Called from each
// adapter package's init().
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get constructs the adapter registered under name.
func Get(name string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, NewError(ErrNotImplemented, name, fmt.Sprintf("unknown adapter: %s (available: %v)", name, list()))
	}
	return factory(), nil
}

// List returns every known adapter key, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return list()
}

func list() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve looks up key and, unless includeExperimental is true, rejects
// experimental-tier adapters.
func Resolve(key string, includeExperimental bool) (Adapter, error) {
	a, err := Get(key)
	if err != nil {
		return nil, err
	}
	if a.Tier() == Experimental && !includeExperimental {
		return nil, NewError(ErrNotImplemented, key, "experimental adapter not allowed without allow_experimental")
	}
	return a, nil
}

// KnownKeys returns every registered adapter key in alphabetical order
// (the same as List), regardless of tier — used by Doctor for a stable
// report ordering.
func KnownKeys() []string {
	return List()
}
