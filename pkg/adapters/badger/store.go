// Package badger implements core.RecordStore on a badger key-value database.
// Records are JSON values under "record:{lookupKey}".
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/pathnote/pkg/core"
)

// RecordPrefix namespaces record keys within the database.
const RecordPrefix = "record:"

// maxTxnRetries bounds retries of optimistic transactions that lose a race
// with another writer on the same key.
const maxTxnRetries = 32

// Config holds the configuration for the badger store.
type Config struct {
	Path       string
	InMemory   bool // keep everything in RAM; Path is ignored
	SyncWrites bool
}

// Store wraps a badger database.
type Store struct {
	config Config
	db     *badger.DB
}

// Open opens or creates the database described by config.
func Open(config Config) (*Store, error) {
	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = config.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: badger: open %s: %w", core.ErrStoreUnavailable, config.Path, err)
	}
	return &Store{config: config, db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Initialize is a no-op; badger needs no schema.
func (s *Store) Initialize(ctx context.Context) error { return nil }

func recordKey(lookupKey string) []byte {
	return []byte(RecordPrefix + lookupKey)
}

func (s *Store) Find(ctx context.Context, lookupKey string) (core.Record, error) {
	var rec core.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(lookupKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return core.ErrNotFound
			}
			return fmt.Errorf("%w: badger: get record: %w", core.ErrStoreUnavailable, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("%w: badger: decode record: %w", core.ErrStoreUnavailable, err)
			}
			return nil
		})
	})
	return rec, err
}

func (s *Store) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	return s.put(ctx, rec, false)
}

func (s *Store) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	return s.put(ctx, rec, true)
}

// put writes rec and reads it back in the same transaction, so callers see
// the persisted values.
func (s *Store) put(ctx context.Context, rec core.Record, mustExist bool) (core.Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("badger: encode record: %w", err)
	}
	key := recordKey(rec.LookupKey)

	var stored core.Record
	err = s.update(ctx, func(txn *badger.Txn) error {
		exists, err := has(txn, key)
		if err != nil {
			return err
		}
		switch {
		case mustExist && !exists:
			return core.ErrNotFound
		case !mustExist && exists:
			return core.ErrConflict
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &stored); err != nil {
				return fmt.Errorf("%w: badger: decode record: %w", core.ErrStoreUnavailable, err)
			}
			return nil
		})
	})
	if err != nil {
		return core.Record{}, err
	}
	return stored, nil
}

func (s *Store) Delete(ctx context.Context, lookupKey string) error {
	key := recordKey(lookupKey)
	return s.update(ctx, func(txn *badger.Txn) error {
		exists, err := has(txn, key)
		if err != nil {
			return err
		}
		if !exists {
			return core.ErrNotFound
		}
		return txn.Delete(key)
	})
}

// update runs fn in a read-write transaction, retrying when badger reports a
// write conflict with a concurrent transaction.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	switch {
	case err == nil,
		errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrStoreUnavailable):
		return err
	}
	return fmt.Errorf("%w: badger: %w", core.ErrStoreUnavailable, err)
}

func has(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	}
	return false, fmt.Errorf("%w: badger: get record: %w", core.ErrStoreUnavailable, err)
}

// StoreState is the introspection snapshot of a badger Store.
type StoreState struct {
	Path     string `json:"path,omitempty"`
	InMemory bool   `json:"in_memory"`
	Records  int    `json:"records"`
	LSMBytes int64  `json:"lsm_bytes"`
	VLogSize int64  `json:"vlog_bytes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	lsm, vlog := s.db.Size()
	state := StoreState{
		Path:     s.config.Path,
		InMemory: s.config.InMemory,
		LSMBytes: lsm,
		VLogSize: vlog,
	}
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(RecordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			state.Records++
		}
		return nil
	})
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "badger" }

var (
	_ core.RecordStore             = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
