// Package idgen provides ID generation implementations.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/artpar/construct/ports"
	"github.com/google/uuid"
)

// UUID generates random UUIDs, optionally prefixed ("bld_...").
type UUID struct {
	Prefix string
}

// New generates a new UUID v4.
func (g UUID) New() string {
	return g.Prefix + uuid.New().String()
}

// Ensure interface compliance.
var _ ports.IDGenerator = UUID{}

// Sequential generates zero-padded sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return fmt.Sprintf("%s%04d", s.prefix, s.counter.Add(1))
}

// Reset resets the counter (for testing).
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)
