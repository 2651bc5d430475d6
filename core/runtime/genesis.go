package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/construct/core/artifact"
)

// Storage is the key-value state genesis is written to.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStorage creates empty storage.
func NewStorage() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Put stores a value.
func (s *Storage) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
}

// Get returns a value.
func (s *Storage) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Has reports whether a key is set.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Keys returns all keys in sorted order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GenesisBuilder is implemented by a module's genesis configuration.
type GenesisBuilder interface {
	BuildGenesis(s *Storage) error
}

// BuildGenesis populates storage from the configured modules in field order,
// so a module sees the state written by the modules declared before it.
// Fields without a builder are left unset. The first failure aborts.
func BuildGenesis(gc artifact.GenesisConfig, builders map[string]GenesisBuilder) (*Storage, error) {
	s := NewStorage()
	for _, f := range gc.Fields {
		b, ok := builders[f.Field]
		if !ok || b == nil {
			continue
		}
		if err := b.BuildGenesis(s); err != nil {
			return nil, fmt.Errorf("build genesis %s: %w", f.Field, err)
		}
	}
	return s, nil
}
