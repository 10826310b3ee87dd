package tokenstore

import "context"

// Store reads and writes token records to persistent storage.
//
// A Store is owned by a single token manager; no cross-process locking
// is provided.
type Store interface {
	// Save persists the record, replacing any previously stored value.
	Save(ctx context.Context, rec *Record) error

	// Load returns the previously saved record, or (nil, nil) if none
	// exists. Absence is not an error.
	Load(ctx context.Context) (*Record, error)
}
