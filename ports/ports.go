// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/construct/core/storage"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Fingerprinter derives a stable content hash.
type Fingerprinter interface {
	// Fingerprint returns the hex-encoded hash of data.
	Fingerprint(data []byte) string
}

// -----------------------------------------------------------------------------
// Compiler Ports
// -----------------------------------------------------------------------------

// CompileObserver receives compiler measurements.
type CompileObserver interface {
	// ObserveCompile records one assembly with its outcome
	// ("ok", "grammar_error", "system_error", "error").
	ObserveCompile(runtime, outcome string, modules int, d time.Duration)

	// ObservePass records one generator pass.
	ObservePass(pass string, d time.Duration, err error)
}

// NopObserver discards all measurements.
type NopObserver struct{}

func (NopObserver) ObserveCompile(string, string, int, time.Duration) {}
func (NopObserver) ObservePass(string, time.Duration, error)          {}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// BuildStore persists assembly results.
type BuildStore interface {
	// Save stores a build, assigning ID and CreatedAt when unset.
	Save(ctx context.Context, b *storage.Build) error

	// Get retrieves a build by ID.
	Get(ctx context.Context, id string) (storage.Build, error)

	// FindByFingerprint returns the newest build with a fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (storage.Build, error)

	// List returns builds newest first with the total count.
	List(ctx context.Context, opts storage.ListOptions) ([]storage.Build, int64, error)

	// Close releases the store.
	Close() error
}
