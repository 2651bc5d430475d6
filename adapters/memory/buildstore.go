// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/construct/core/storage"
	"github.com/artpar/construct/ports"
)

// BuildStore is an in-memory implementation of storage.Store.
type BuildStore struct {
	mu     sync.RWMutex
	builds map[string]storage.Build // by ID
	now    func() time.Time
}

// NewBuildStore creates a new in-memory build store.
func NewBuildStore() *BuildStore {
	return &BuildStore{
		builds: make(map[string]storage.Build),
		now:    time.Now,
	}
}

// Migrate is a no-op.
func (s *BuildStore) Migrate(ctx context.Context) error {
	return nil
}

// Save stores a build, generating its ID and timestamp when unset.
func (s *BuildStore) Save(ctx context.Context, b *storage.Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if _, exists := s.builds[b.ID]; exists {
		return fmt.Errorf("insert build: duplicate id %q", b.ID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}

	stored := *b
	stored.Bundle = append([]byte(nil), b.Bundle...)
	s.builds[b.ID] = stored
	return nil
}

// Get retrieves a build by ID.
func (s *BuildStore) Get(ctx context.Context, id string) (storage.Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.builds[id]
	if !ok {
		return storage.Build{}, storage.ErrNotFound
	}
	return b, nil
}

// FindByFingerprint returns the most recent build with a fingerprint.
func (s *BuildStore) FindByFingerprint(ctx context.Context, fingerprint string) (storage.Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.sorted() {
		if b.Fingerprint == fingerprint {
			return b, nil
		}
	}
	return storage.Build{}, storage.ErrNotFound
}

// List returns builds newest first with the total matching count.
func (s *BuildStore) List(ctx context.Context, opts storage.ListOptions) ([]storage.Build, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	var matching []storage.Build
	for _, b := range s.sorted() {
		if opts.Runtime != "" && b.Runtime != opts.Runtime {
			continue
		}
		matching = append(matching, b)
	}

	total := int64(len(matching))
	if opts.Offset >= len(matching) {
		return nil, total, nil
	}
	matching = matching[opts.Offset:]
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, total, nil
}

// Delete removes a build.
func (s *BuildStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.builds[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.builds, id)
	return nil
}

// Close is a no-op.
func (s *BuildStore) Close() error {
	return nil
}

// Len returns the number of stored builds.
func (s *BuildStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.builds)
}

// sorted orders builds newest first, then by ID. Callers hold mu.
func (s *BuildStore) sorted() []storage.Build {
	out := make([]storage.Build, 0, len(s.builds))
	for _, b := range s.builds {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Interface assertions
var (
	_ storage.Store    = (*BuildStore)(nil)
	_ ports.BuildStore = (*BuildStore)(nil)
)
