// Package memory provides an in-process core.RecordStore. Records live only as
// long as the Store value; it backs tests and the `--store memory` mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/pathnote/pkg/core"
)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]core.Record

	subMu sync.Mutex
	subs  map[chan core.Event]struct{}
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]core.Record),
		subs:    make(map[chan core.Event]struct{}),
	}
}

// Initialize is a no-op.
func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) Find(ctx context.Context, lookupKey string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[lookupKey]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return rec, nil
}

func (s *Store) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	if _, ok := s.records[rec.LookupKey]; ok {
		s.mu.Unlock()
		return core.Record{}, core.ErrConflict
	}
	s.records[rec.LookupKey] = rec
	s.mu.Unlock()

	s.publish(core.EventCreate, rec.LookupKey)
	return rec, nil
}

func (s *Store) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	if _, ok := s.records[rec.LookupKey]; !ok {
		s.mu.Unlock()
		return core.Record{}, core.ErrNotFound
	}
	s.records[rec.LookupKey] = rec
	s.mu.Unlock()

	s.publish(core.EventModify, rec.LookupKey)
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, lookupKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.records[lookupKey]; !ok {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	delete(s.records, lookupKey)
	s.mu.Unlock()

	s.publish(core.EventDelete, lookupKey)
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Watch streams changes made through this Store until ctx is done. Slow
// consumers drop events rather than block writers.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	ch := make(chan core.Event, 64)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch, nil
}

func (s *Store) publish(t core.EventType, lookupKey string) {
	evt := core.Event{Type: t, LookupKey: lookupKey, Timestamp: time.Now().Unix()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// StoreState is the introspection snapshot of a memory Store.
type StoreState struct {
	Records     int `json:"records"`
	Subscribers int `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.subMu.Lock()
	subs := len(s.subs)
	s.subMu.Unlock()
	return StoreState{Records: s.Len(), Subscribers: subs}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "memory" }

var (
	_ core.RecordStore             = (*Store)(nil)
	_ core.Watchable               = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
