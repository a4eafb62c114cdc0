package archive

import (
	"context"
	"time"
)

// Store is the archive persistence interface.
type Store interface {
	// Save persists a record. Saving an existing id overwrites it.
	Save(ctx context.Context, record *Record) error

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching the query, newest first.
	List(ctx context.Context, query *Query) ([]*Record, error)

	// DeleteOlderThan removes records created before the cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
