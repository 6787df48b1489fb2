package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathnote/pkg/adapters/fs"
	"github.com/aretw0/pathnote/pkg/core"
)

func waitForEvent(t *testing.T, events <-chan core.Event, want core.EventType, lookupKey string) {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "events channel closed")
			if e.Type == want && e.LookupKey == lookupKey {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s", want, lookupKey)
		}
	}
}

func waitForWatcher(t *testing.T, s *fs.Store, expected bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		state, ok := s.State().(fs.StoreState)
		if ok && state.WatcherActive == expected {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for watcher state = %v", expected)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStore_Watch(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx)
	require.NoError(t, err)
	waitForWatcher(t, s, true)

	rec := core.Record{LookupKey: key, Ciphertext: "one", LastModified: time.Now().UTC()}

	_, err = s.Insert(ctx, rec)
	require.NoError(t, err)
	waitForEvent(t, events, core.EventCreate, key)

	rec.Ciphertext = "two"
	_, err = s.Update(ctx, rec)
	require.NoError(t, err)
	waitForEvent(t, events, core.EventModify, key)

	require.NoError(t, s.Delete(ctx, key))
	waitForEvent(t, events, core.EventDelete, key)

	cancel()
	waitForWatcher(t, s, false)
}

func TestStore_WatchIgnoresForeignFiles(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Path, "README.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Path, fs.TempFilePrefix+"x"), []byte("hi"), 0o600))

	select {
	case e := <-events:
		t.Fatalf("unexpected event %s", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStore_WatchExistingRecordIsModify(t *testing.T) {
	s := newStore(t)
	rec := core.Record{LookupKey: key, Ciphertext: "one", LastModified: time.Now().UTC()}
	_, err := s.Insert(context.Background(), rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := s.Watch(ctx)
	require.NoError(t, err)

	rec.Ciphertext = "two"
	_, err = s.Update(ctx, rec)
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, core.EventModify, e.Type)
		assert.Equal(t, key, e.LookupKey)
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
	}
}
