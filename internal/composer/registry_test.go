package composer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(func() *Composer { return New(&postCreatorStub{}, nil) }, time.Minute)

	id, c, lines, err := r.Open()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, c.Active())
	assert.NotEmpty(t, lines)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, r.Close(id))
	assert.False(t, r.Close(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRegistry_SweepsIdleSessions(t *testing.T) {
	now := time.Unix(1_000, 0)
	r := NewRegistry(func() *Composer { return New(&postCreatorStub{}, nil) }, time.Minute)
	r.now = func() time.Time { return now }

	stale, _, _, err := r.Open()
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	fresh, _, _, err := r.Open()
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.Sweep())
	_, ok := r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
}

func TestRegistry_Limit(t *testing.T) {
	r := NewRegistry(func() *Composer { return New(&postCreatorStub{}, nil) }, 0)
	r.max = 1

	_, _, _, err := r.Open()
	require.NoError(t, err)
	_, _, _, err = r.Open()
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(func() *Composer { return New(&postCreatorStub{}, nil) }, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
