// Package coretest holds the behavioural contract every core.RecordStore
// adapter must satisfy. Adapters call RunRecordStoreContract from their own
// tests with a constructor for a fresh, initialised store.
package coretest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathnote/pkg/core"
)

// Factory returns an empty, initialised store. Cleanup is registered on t.
type Factory func(t *testing.T) core.RecordStore

// baseTime is millisecond aligned so backends with coarse time storage compare equal.
var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func record(key, ciphertext string, offset time.Duration) core.Record {
	return core.Record{LookupKey: key, Ciphertext: ciphertext, LastModified: baseTime.Add(offset)}
}

func lookupKey(n int) string {
	return fmt.Sprintf("%064x", n)
}

// AssertRecord compares records field by field, using time.Equal for timestamps.
func AssertRecord(t *testing.T, want, got core.Record) {
	t.Helper()
	assert.Equal(t, want.LookupKey, got.LookupKey)
	assert.Equal(t, want.Ciphertext, got.Ciphertext)
	assert.True(t, want.LastModified.Equal(got.LastModified),
		"last modified: want %s, got %s", want.LastModified, got.LastModified)
}

// RunRecordStoreContract runs the shared RecordStore behaviour suite.
func RunRecordStoreContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("Find Absent", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Find(ctx, lookupKey(1))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Insert Then Find", func(t *testing.T) {
		s := newStore(t)
		rec := record(lookupKey(1), "Y2lwaGVydGV4dA==", 0)

		stored, err := s.Insert(ctx, rec)
		require.NoError(t, err)
		AssertRecord(t, rec, stored)

		found, err := s.Find(ctx, rec.LookupKey)
		require.NoError(t, err)
		AssertRecord(t, rec, found)
	})

	t.Run("Insert Duplicate", func(t *testing.T) {
		s := newStore(t)
		rec := record(lookupKey(1), "first", 0)
		_, err := s.Insert(ctx, rec)
		require.NoError(t, err)

		_, err = s.Insert(ctx, record(lookupKey(1), "second", time.Second))
		assert.ErrorIs(t, err, core.ErrConflict)

		found, err := s.Find(ctx, rec.LookupKey)
		require.NoError(t, err)
		AssertRecord(t, rec, found)
	})

	t.Run("Update Absent", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(ctx, record(lookupKey(1), "x", 0))
		assert.ErrorIs(t, err, core.ErrNotFound)

		_, err = s.Find(ctx, lookupKey(1))
		assert.ErrorIs(t, err, core.ErrNotFound, "update must not create records")
	})

	t.Run("Update Replaces Content And Timestamp", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, record(lookupKey(1), "old", 0))
		require.NoError(t, err)

		next := record(lookupKey(1), "new", time.Minute)
		stored, err := s.Update(ctx, next)
		require.NoError(t, err)
		AssertRecord(t, next, stored)

		found, err := s.Find(ctx, next.LookupKey)
		require.NoError(t, err)
		AssertRecord(t, next, found)
	})

	t.Run("Returns Persisted Values", func(t *testing.T) {
		s := newStore(t)
		// Invalid UTF-8 is rewritten by text encodings, so the stored value may
		// differ from the input. Insert and Update must report what Find sees.
		stored, err := s.Insert(ctx, record(lookupKey(1), "once\xff", 0))
		require.NoError(t, err)
		found, err := s.Find(ctx, lookupKey(1))
		require.NoError(t, err)
		AssertRecord(t, found, stored)

		stored, err = s.Update(ctx, record(lookupKey(1), "again\xfe", time.Second))
		require.NoError(t, err)
		found, err = s.Find(ctx, lookupKey(1))
		require.NoError(t, err)
		AssertRecord(t, found, stored)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, record(lookupKey(1), "x", 0))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, lookupKey(1)))

		_, err = s.Find(ctx, lookupKey(1))
		assert.ErrorIs(t, err, core.ErrNotFound)

		err = s.Delete(ctx, lookupKey(1))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Keys Are Isolated", func(t *testing.T) {
		s := newStore(t)
		a := record(lookupKey(1), "a", 0)
		b := record(lookupKey(2), "b", time.Second)
		_, err := s.Insert(ctx, a)
		require.NoError(t, err)
		_, err = s.Insert(ctx, b)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, a.LookupKey))

		found, err := s.Find(ctx, b.LookupKey)
		require.NoError(t, err)
		AssertRecord(t, b, found)
	})

	t.Run("Reinsert After Delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, record(lookupKey(1), "x", 0))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, lookupKey(1)))

		again := record(lookupKey(1), "y", time.Hour)
		_, err = s.Insert(ctx, again)
		require.NoError(t, err)

		found, err := s.Find(ctx, again.LookupKey)
		require.NoError(t, err)
		AssertRecord(t, again, found)
	})

	t.Run("Concurrent Updates", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Insert(ctx, record(lookupKey(1), "seed", 0))
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, record(lookupKey(1), fmt.Sprintf("w%d", i), time.Duration(i)*time.Second))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		found, err := s.Find(ctx, lookupKey(1))
		require.NoError(t, err)
		assert.Regexp(t, `^w[0-7]$`, found.Ciphertext)
	})
}
