// Package bolt implements core.RecordStore on a single bbolt database file.
// Records are JSON values in the "records" bucket, keyed by lookup key.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
	"go.etcd.io/bbolt"

	"github.com/aretw0/pathnote/pkg/core"
)

var bucketRecords = []byte("records")

// Store wraps a bbolt database.
type Store struct {
	path string
	db   *bbolt.DB
}

// Open opens or creates the database at dbPath. The parent directory is
// created if it does not exist. Another process holding the file lock makes
// Open fail after a second instead of blocking.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("%w: bolt: create directory: %w", core.ErrStoreUnavailable, err)
	}
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: bolt: open %s: %w", core.ErrStoreUnavailable, dbPath, err)
	}
	return &Store{path: dbPath, db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Initialize creates the records bucket.
func (s *Store) Initialize(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: bolt: create bucket %q: %w", core.ErrStoreUnavailable, bucketRecords, err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, lookupKey string) (core.Record, error) {
	var rec core.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		data := b.Get([]byte(lookupKey))
		if data == nil {
			return core.ErrNotFound
		}
		return decode(data, &rec)
	})
	return rec, err
}

func (s *Store) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	return s.put(rec, false)
}

func (s *Store) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	return s.put(rec, true)
}

// put writes rec inside one read-write transaction and returns what the
// bucket now holds. mustExist selects update semantics; otherwise the key
// must be free.
func (s *Store) put(rec core.Record, mustExist bool) (core.Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("bolt: encode record: %w", err)
	}
	key := []byte(rec.LookupKey)

	var stored core.Record
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		exists := b.Get(key) != nil
		switch {
		case mustExist && !exists:
			return core.ErrNotFound
		case !mustExist && exists:
			return core.ErrConflict
		}
		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("%w: bolt: put record: %w", core.ErrStoreUnavailable, err)
		}
		return decode(b.Get(key), &stored)
	})
	if err != nil {
		return core.Record{}, err
	}
	return stored, nil
}

func (s *Store) Delete(ctx context.Context, lookupKey string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(lookupKey)) == nil {
			return core.ErrNotFound
		}
		if err := b.Delete([]byte(lookupKey)); err != nil {
			return fmt.Errorf("%w: bolt: delete record: %w", core.ErrStoreUnavailable, err)
		}
		return nil
	})
}

func bucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(bucketRecords)
	if b == nil {
		return nil, fmt.Errorf("%w: bolt: bucket %q missing, store not initialized", core.ErrStoreUnavailable, bucketRecords)
	}
	return b, nil
}

func decode(data []byte, rec *core.Record) error {
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("%w: bolt: decode record: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// StoreState is the introspection snapshot of a bolt Store.
type StoreState struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
	Size    int64  `json:"size_bytes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	state := StoreState{Path: s.path, Records: -1}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		state.Size = tx.Size()
		if b := tx.Bucket(bucketRecords); b != nil {
			state.Records = b.Stats().KeyN
		}
		return nil
	})
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "bolt" }

var (
	_ core.RecordStore             = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
