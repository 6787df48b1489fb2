package core

import "context"

// RecordStore defines the contract for persisting encrypted records.
// Every method is a single atomic operation against the backing store; no
// cross-record transactions are required. Adhering to this interface keeps
// the core independent of the storage mechanism (files, bbolt, badger, MongoDB).
type RecordStore interface {
	// Initialize ensures the underlying storage is ready (directories, buckets, indexes).
	Initialize(ctx context.Context) error

	// Find returns the record for lookupKey, or ErrNotFound.
	Find(ctx context.Context, lookupKey string) (Record, error)

	// Insert creates a record. It returns ErrConflict if the key already exists.
	Insert(ctx context.Context, rec Record) (Record, error)

	// Update replaces content and timestamp of an existing record and returns
	// the values as persisted. It returns ErrNotFound if the key is absent.
	Update(ctx context.Context, rec Record) (Record, error)

	// Delete removes the record, or returns ErrNotFound.
	Delete(ctx context.Context, lookupKey string) error
}

// Watchable defines an interface for stores that can report changes made to
// records, including changes made by other processes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
