// Package fs implements core.RecordStore on the local filesystem.
//
// Each record is one JSON file, sharded by the first two characters of its
// lookup key:
//
//	{root}/{key[:2]}/{key}.json
//
// Writes go through writeFileAtomic. A store-wide mutex serialises the
// exists-check and the write of Insert and Update within one process.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pathnote/pkg/core"
)

const (
	recordExt = ".json"
	dirPerm   = 0o700
	filePerm  = 0o600
)

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	MustExist bool // fail Initialize instead of creating Path
	Logger    *slog.Logger

	// ErrorHandler receives watcher failures. Nil means log them.
	ErrorHandler func(error)
}

// Store implements core.RecordStore using sharded JSON files.
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	watchers      int
	lastEvent     *time.Time
}

// NewStore creates a new filesystem-backed store. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		Path:   config.Path,
		config: config,
	}
}

// Initialize ensures the root directory exists.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: store path does not exist: %s", core.ErrStoreUnavailable, s.Path)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: store path is not a directory: %s", core.ErrStoreUnavailable, s.Path)
		}
		return nil
	}

	if err := os.MkdirAll(s.Path, dirPerm); err != nil {
		return fmt.Errorf("%w: create store directory: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Find reads the record file for lookupKey.
func (s *Store) Find(ctx context.Context, lookupKey string) (core.Record, error) {
	filename, err := s.filename(lookupKey)
	if err != nil {
		return core.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(filename)
}

// Insert writes a new record file. It fails with core.ErrConflict if one exists.
func (s *Store) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	filename, err := s.filename(rec.LookupKey)
	if err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filename); err == nil {
		return core.Record{}, core.ErrConflict
	} else if !os.IsNotExist(err) {
		return core.Record{}, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), dirPerm); err != nil {
		return core.Record{}, fmt.Errorf("%w: create shard directory: %w", core.ErrStoreUnavailable, err)
	}
	if err := s.write(filename, rec); err != nil {
		return core.Record{}, err
	}
	return s.read(filename)
}

// Update rewrites an existing record file. It fails with core.ErrNotFound if
// there is none.
func (s *Store) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	filename, err := s.filename(rec.LookupKey)
	if err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return core.Record{}, core.ErrNotFound
	} else if err != nil {
		return core.Record{}, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	if err := s.write(filename, rec); err != nil {
		return core.Record{}, err
	}
	return s.read(filename)
}

// Delete removes the record file. Empty shard directories are left in place.
func (s *Store) Delete(ctx context.Context, lookupKey string) error {
	filename, err := s.filename(lookupKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filename); err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound
		}
		return fmt.Errorf("%w: remove record: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// filename maps a lookup key to its record file. Keys are hex digests; anything
// that could escape the shard layout is rejected.
func (s *Store) filename(lookupKey string) (string, error) {
	if len(lookupKey) < 2 || strings.ContainsAny(lookupKey, `/\.`) {
		return "", fmt.Errorf("%w: malformed lookup key", core.ErrInvalidInput)
	}
	return filepath.Join(s.Path, lookupKey[:2], lookupKey+recordExt), nil
}

// lookupKeyOf reverses filename for paths inside the store.
func (s *Store) lookupKeyOf(filename string) (string, bool) {
	base := filepath.Base(filename)
	if isTempFile(base) || filepath.Ext(base) != recordExt {
		return "", false
	}
	key := strings.TrimSuffix(base, recordExt)
	if len(key) < 2 || filepath.Base(filepath.Dir(filename)) != key[:2] {
		return "", false
	}
	return key, true
}

func (s *Store) read(filename string) (core.Record, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Record{}, core.ErrNotFound
		}
		return core.Record{}, fmt.Errorf("%w: read record: %w", core.ErrStoreUnavailable, err)
	}

	var rec core.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return core.Record{}, fmt.Errorf("%w: decode record %s: %w", core.ErrStoreUnavailable, filepath.Base(filename), err)
	}
	return rec, nil
}

func (s *Store) write(filename string, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := writeFileAtomic(filename, data, filePerm); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Count walks the shard directories and returns the number of records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if _, ok := s.lookupKeyOf(path); ok {
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return n, nil
}

var _ core.RecordStore = (*Store)(nil)
