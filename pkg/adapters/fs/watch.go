package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/pathnote/pkg/core"
)

// Watch reports record changes under the store root, including changes made by
// other processes. The channel is closed when ctx is done or the watcher fails.
//
// Atomic writes land as a rename onto the record file, so fsnotify reports a
// create for both inserts and updates. The watcher remembers which keys it has
// seen to tell the two apart.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	known, err := s.addShards(watcher)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer s.setWatcherActive(false)
		defer watcher.Close()
		return s.watchLoop(ctx, watcher, known, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportWatchError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

// addShards watches the root and every shard directory, and returns the keys
// already on disk.
func (s *Store) addShards(w *fsnotify.Watcher) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if key, ok := s.lookupKeyOf(path); ok {
			known[key] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", s.Path, err)
	}
	return known, nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, known map[string]struct{}, out chan<- core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			for _, e := range s.translate(w, event, known) {
				select {
				case out <- e:
					s.markEvent()
				case <-ctx.Done():
					return nil
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			s.reportWatchError(err)
		}
	}
}

// translate maps one fsnotify event to zero or more record events.
func (s *Store) translate(w *fsnotify.Watcher, event fsnotify.Event, known map[string]struct{}) []core.Event {
	now := time.Now().Unix()

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return s.enterShard(w, event.Name, known, now)
		}
	}

	key, ok := s.lookupKeyOf(event.Name)
	if !ok {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		eType := core.EventCreate
		if _, seen := known[key]; seen {
			eType = core.EventModify
		}
		known[key] = struct{}{}
		return []core.Event{{Type: eType, LookupKey: key, Timestamp: now}}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, seen := known[key]; !seen {
			return nil
		}
		delete(known, key)
		return []core.Event{{Type: core.EventDelete, LookupKey: key, Timestamp: now}}
	}
	return nil
}

// enterShard starts watching a newly created shard directory. Records written
// before the watch was added are reported as creates.
func (s *Store) enterShard(w *fsnotify.Watcher, dir string, known map[string]struct{}, now int64) []core.Event {
	if filepath.Dir(dir) != filepath.Clean(s.Path) {
		return nil
	}
	if err := w.Add(dir); err != nil {
		s.reportWatchError(fmt.Errorf("watch shard %s: %w", filepath.Base(dir), err))
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []core.Event
	for _, e := range entries {
		key, ok := s.lookupKeyOf(filepath.Join(dir, e.Name()))
		if !ok {
			continue
		}
		if _, seen := known[key]; seen {
			continue
		}
		known[key] = struct{}{}
		out = append(out, core.Event{Type: core.EventCreate, LookupKey: key, Timestamp: now})
	}
	return out
}

func (s *Store) reportWatchError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("fsnotify error", "error", err)
}

var _ core.Watchable = (*Store)(nil)
