package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/keys"
)

// Service handles load/save semantics for notes. It keeps no per-request
// state; the derived key and the store handle are shared by all callers.
type Service struct {
	store    RecordStore
	keys     *keys.Deriver
	codec    *codec.Codec
	key      []byte
	logger   *slog.Logger
	now      func() time.Time
	reserved []string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReservedPaths rejects paths matching any of the doublestar patterns,
// e.g. "api/**". Patterns match normalised paths.
func WithReservedPaths(patterns ...string) ServiceOption {
	return func(s *Service) {
		s.reserved = append(s.reserved, patterns...)
	}
}

// NewService creates a new Service.
func NewService(store RecordStore, deriver *keys.Deriver, c *codec.Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if deriver == nil || c == nil {
		return nil, errors.New("key deriver and codec are required")
	}
	if len(deriver.Key()) != c.Method().KeySize() {
		return nil, fmt.Errorf("%w: derived key does not fit %s", codec.ErrKeySize, c.Method())
	}

	s := &Service{
		store:  store,
		keys:   deriver,
		codec:  c,
		key:    deriver.Key(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, p := range s.reserved {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid reserved path pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	return s, nil
}

// Load returns the note stored at path.
//
// An unseen path is a valid, empty note stamped with the current time. A
// record that cannot be decrypted also yields empty content (with its stored
// timestamp and Unreadable set); only store failures are returned as errors.
func (s *Service) Load(ctx context.Context, path string) (Note, error) {
	addr, err := s.resolve(path)
	if err != nil {
		return Note{}, err
	}

	rec, err := s.store.Find(ctx, addr.LookupKey)
	if errors.Is(err, ErrNotFound) {
		return Note{Path: addr.Path, LastModified: s.timestamp()}, nil
	}
	if err != nil {
		return Note{}, s.storeFailure("load", addr.LookupKey, err)
	}

	content, err := s.codec.Decrypt(rec.Ciphertext, addr.IV, s.key)
	if err != nil {
		s.logger.Warn("note content unavailable", "lookup_key", addr.LookupKey, "error", err)
		return Note{Path: addr.Path, LastModified: rec.LastModified, Unreadable: true}, nil
	}

	return Note{Path: addr.Path, Content: content, LastModified: rec.LastModified}, nil
}

// Save persists content at path. Empty content deletes the record; deleting
// an absent record is not an error.
//
// Workflow:
//  1. Validate and normalise the path, derive lookup key and IV.
//  2. Empty content: delete and return an empty note stamped now.
//  3. Encrypt, then insert or update depending on whether the record exists.
//  4. Decrypt what the store returned and hand it back with the stored timestamp.
func (s *Service) Save(ctx context.Context, path, content string) (Note, error) {
	addr, err := s.resolve(path)
	if err != nil {
		return Note{}, err
	}
	now := s.timestamp()

	if content == "" {
		if err := s.store.Delete(ctx, addr.LookupKey); err != nil && !errors.Is(err, ErrNotFound) {
			return Note{}, s.storeFailure("delete", addr.LookupKey, err)
		}
		s.logger.Debug("note cleared", "lookup_key", addr.LookupKey)
		return Note{Path: addr.Path, LastModified: now}, nil
	}

	blob, err := s.codec.Encrypt(content, addr.IV, s.key)
	if err != nil {
		return Note{}, fmt.Errorf("encrypt note: %w", err)
	}

	stored, err := s.put(ctx, Record{
		LookupKey:    addr.LookupKey,
		Ciphertext:   blob,
		LastModified: now,
	})
	if err != nil {
		return Note{}, s.storeFailure("save", addr.LookupKey, err)
	}

	echo, err := s.codec.Decrypt(stored.Ciphertext, addr.IV, s.key)
	if err != nil {
		return Note{}, fmt.Errorf("save note: %w: %w", ErrDecryptionUnavailable, err)
	}

	s.logger.Debug("note saved", "lookup_key", addr.LookupKey, "last_modified", stored.LastModified)
	return Note{Path: addr.Path, Content: echo, LastModified: stored.LastModified}, nil
}

// put creates or updates rec. The create/update split is decided here, not by
// the store. Races with concurrent writers resolve to last-write-wins.
func (s *Service) put(ctx context.Context, rec Record) (Record, error) {
	existing, err := s.store.Find(ctx, rec.LookupKey)
	if errors.Is(err, ErrNotFound) {
		stored, err := s.store.Insert(ctx, rec)
		if !errors.Is(err, ErrConflict) {
			return stored, err
		}
		// created concurrently
		return s.store.Update(ctx, rec)
	}
	if err != nil {
		return Record{}, err
	}

	// Keep lastModified non-decreasing even if the wall clock steps back.
	if existing.LastModified.After(rec.LastModified) {
		rec.LastModified = existing.LastModified
	}

	stored, err := s.store.Update(ctx, rec)
	if errors.Is(err, ErrNotFound) {
		// deleted concurrently
		return s.store.Insert(ctx, rec)
	}
	return stored, err
}

// LookupKey returns the storage identity of path.
func (s *Service) LookupKey(path string) (string, error) {
	addr, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	return addr.LookupKey, nil
}

// ImportResult summarises an Import run.
type ImportResult struct {
	Saved   int
	Cleared int
	Failed  []string // paths that could not be saved
}

// Import saves each path/content pair in path order. It keeps going after a
// failure and returns all failures joined.
func (s *Service) Import(ctx context.Context, notes map[string]string) (ImportResult, error) {
	paths := make([]string, 0, len(notes))
	for p := range notes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var (
		res  ImportResult
		errs []error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Save(ctx, p, notes[p]); err != nil {
			res.Failed = append(res.Failed, p)
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if notes[p] == "" {
			res.Cleared++
		} else {
			res.Saved++
		}
	}

	return res, errors.Join(errs...)
}

// Watch observes record changes if the store supports it.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, fmt.Errorf("watch: %w", ErrNotSupported)
	}
	return w.Watch(ctx)
}

// Close releases the store handle if it holds one.
func (s *Service) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) resolve(path string) (keys.Address, error) {
	if strings.TrimSpace(path) == "" {
		return keys.Address{}, fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	addr, err := s.keys.Resolve(path)
	if err != nil {
		return keys.Address{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	for _, pattern := range s.reserved {
		if ok, _ := doublestar.Match(pattern, addr.Path); ok {
			return keys.Address{}, fmt.Errorf("%w: path %q is reserved", ErrInvalidInput, addr.Path)
		}
	}

	return addr, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) storeFailure(op, lookupKey string, err error) error {
	s.logger.Error("store operation failed", "op", op, "lookup_key", lookupKey, "error", err)
	if errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s note: %w", op, err)
	}
	return fmt.Errorf("%s note: %w: %w", op, ErrStoreUnavailable, err)
}
