package storage

import "context"

// Metadata carries optional attributes persisted alongside an artifact.
type Metadata map[string]string

// Store is the artifact storage collaborator. The orchestration core treats
// artifacts as opaque byte buffers plus locators; the backend is pluggable.
type Store interface {
	// Save persists data under key and returns a locator for later retrieval.
	Save(ctx context.Context, key string, data []byte, meta Metadata) (string, error)
	// Load returns the bytes previously saved under key.
	Load(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns an externally usable reference for key.
	URL(ctx context.Context, key string) (string, error)
}
