// Package storage persists the history of runtime builds.
// A build records the declaration that was assembled, a fingerprint of its
// normalized form and the resulting artifact bundle.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a build does not exist.
var ErrNotFound = errors.New("build not found")

// Build is a stored assembly result.
type Build struct {
	// ID uniquely identifies the build.
	ID string `json:"id"`

	// Runtime is the runtime type name.
	Runtime string `json:"runtime"`

	// Source is the declaration file or request origin.
	Source string `json:"source"`

	// Fingerprint is the hash of the normalized module table.
	Fingerprint string `json:"fingerprint"`

	// ModuleCount is the number of declared modules.
	ModuleCount int `json:"module_count"`

	// Bundle is the JSON-encoded artifact bundle.
	Bundle []byte `json:"-"`

	// CreatedAt is when the build was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists builds.
type Store interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// Save stores a build. An empty ID is generated.
	Save(ctx context.Context, b *Build) error

	// Get retrieves a build by ID.
	Get(ctx context.Context, id string) (Build, error)

	// FindByFingerprint returns the most recent build with a fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (Build, error)

	// List retrieves builds, newest first, and the total matching count.
	List(ctx context.Context, opts ListOptions) ([]Build, int64, error)

	// Delete removes a build.
	Delete(ctx context.Context, id string) error

	// Close closes the storage connection.
	Close() error
}

// ListOptions configures list queries.
type ListOptions struct {
	// Limit is the maximum number of builds to return (0 = 50).
	Limit int

	// Offset is the number of builds to skip.
	Offset int

	// Runtime filters by runtime name.
	Runtime string
}

// DefaultListLimit is used when ListOptions.Limit is zero.
const DefaultListLimit = 50
