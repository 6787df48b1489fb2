package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathnote/pkg/adapters/bolt"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/core/coretest"
)

func tempStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "nested", "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestStore_Contract(t *testing.T) {
	coretest.RunRecordStoreContract(t, func(t *testing.T) core.RecordStore {
		return tempStore(t)
	})
}

func TestStore_Uninitialized(t *testing.T) {
	store, err := bolt.Open(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Find(context.Background(), "ab")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	ctx := context.Background()
	rec := core.Record{LookupKey: "abcd", Ciphertext: "blob", LastModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	first, err := bolt.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Initialize(ctx))
	_, err = first.Insert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := bolt.Open(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Initialize(ctx))

	got, err := second.Find(ctx, "abcd")
	require.NoError(t, err)
	coretest.AssertRecord(t, rec, got)
}

func TestStore_State(t *testing.T) {
	store := tempStore(t)
	_, err := store.Insert(context.Background(), core.Record{LookupKey: "abcd"})
	require.NoError(t, err)

	state, ok := store.State().(bolt.StoreState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Records)
	assert.Positive(t, state.Size)
	assert.Equal(t, "bolt", store.ComponentType())
}
