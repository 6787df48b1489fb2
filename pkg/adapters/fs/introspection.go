package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	MustExist     bool       `json:"must_exist"`
	Records       int        `json:"records"`
	WatcherActive bool       `json:"watcher_active"`
	Watchers      int        `json:"watchers"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable. Records is -1 when the
// directory could not be walked.
func (s *Store) State() any {
	records, err := s.Count()
	if err != nil {
		records = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		MustExist:     s.config.MustExist,
		Records:       records,
		WatcherActive: s.watcherActive,
		Watchers:      s.watchers,
		LastEvent:     s.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.watchers++
	} else if s.watchers > 0 {
		s.watchers--
	}
	s.watcherActive = s.watchers > 0
}

func (s *Store) markEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastEvent = &now
}
