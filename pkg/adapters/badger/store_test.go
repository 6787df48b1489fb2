package badger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathnote/pkg/adapters/badger"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/core/coretest"
)

func tempStore(t *testing.T, config badger.Config) *badger.Store {
	t.Helper()
	store, err := badger.Open(config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestStore_Contract(t *testing.T) {
	t.Run("Disk", func(t *testing.T) {
		coretest.RunRecordStoreContract(t, func(t *testing.T) core.RecordStore {
			return tempStore(t, badger.Config{Path: t.TempDir()})
		})
	})
	t.Run("InMemory", func(t *testing.T) {
		coretest.RunRecordStoreContract(t, func(t *testing.T) core.RecordStore {
			return tempStore(t, badger.Config{InMemory: true})
		})
	})
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rec := core.Record{LookupKey: "abcd", Ciphertext: "blob", LastModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	first, err := badger.Open(badger.Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	_, err = first.Insert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := tempStore(t, badger.Config{Path: dir})
	got, err := second.Find(ctx, "abcd")
	require.NoError(t, err)
	coretest.AssertRecord(t, rec, got)
}

func TestStore_State(t *testing.T) {
	store := tempStore(t, badger.Config{InMemory: true})
	ctx := context.Background()
	for _, k := range []string{"aa", "bb", "cc"} {
		_, err := store.Insert(ctx, core.Record{LookupKey: k})
		require.NoError(t, err)
	}
	require.NoError(t, store.Delete(ctx, "bb"))

	state, ok := store.State().(badger.StoreState)
	require.True(t, ok)
	assert.Equal(t, 2, state.Records)
	assert.True(t, state.InMemory)
	assert.Equal(t, "badger", store.ComponentType())
}
