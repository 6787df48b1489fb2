package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pnlifecycle "github.com/aretw0/pathnote/pkg/adapters/lifecycle"
	"github.com/aretw0/pathnote/pkg/core"
)

func TestSource_Forwards(t *testing.T) {
	in := make(chan core.Event, 2)
	src := pnlifecycle.NewSource(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, LookupKey: "ab", Timestamp: 0}
	close(in)

	select {
	case e, ok := <-src.Events():
		require.True(t, ok)
		assert.Equal(t, "CREATE ab @ 1970-01-01T00:00:00Z", e.String())
	case <-time.After(time.Second):
		t.Fatal("no event forwarded")
	}

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes when input closes")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
	assert.Equal(t, int64(1), src.Forwarded())
}

func TestSource_FilterByType(t *testing.T) {
	in := make(chan core.Event, 3)
	src := pnlifecycle.NewSource(in, pnlifecycle.WithTypes(core.EventDelete))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, LookupKey: "a"}
	in <- core.Event{Type: core.EventDelete, LookupKey: "b"}
	close(in)

	var got []string
	for e := range src.Events() {
		got = append(got, e.(core.Event).LookupKey)
	}
	assert.Equal(t, []string{"b"}, got)
}

func TestSource_StopsOnCancel(t *testing.T) {
	src := pnlifecycle.NewSource(make(chan core.Event))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, src.Start(ctx))

	cancel()
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancel")
	}
}
