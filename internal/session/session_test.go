package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SetGetClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := New(NewFileStore(path))

	assert.Nil(t, s.Get())
	require.NoError(t, s.Set(&Identity{UserID: "u1", Name: "alice", Token: "tok", JTI: "j1"}))

	got := s.Get()
	require.NotNil(t, got)
	got.Name = "mutated"
	assert.Equal(t, "alice", s.Get().Name, "Get returns a copy")

	restored := New(NewFileStore(path))
	require.NoError(t, restored.Restore())
	id := restored.Get()
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "tok", id.Token)
	assert.Equal(t, "j1", id.JTI)

	require.NoError(t, s.Clear())
	assert.Nil(t, s.Get())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, s.Clear())
}

func TestSession_RestoreWithoutFile(t *testing.T) {
	s := New(NewFileStore(filepath.Join(t.TempDir(), "missing.json")))
	require.NoError(t, s.Restore())
	assert.Nil(t, s.Get())
}

func TestSession_RestoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(NewFileStore(path))
	assert.Error(t, s.Restore())
}

func TestSession_MemoryOnly(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Restore())
	require.NoError(t, s.Set(&Identity{UserID: "u1"}))
	assert.True(t, s.Get().Authenticated())
	require.NoError(t, s.Clear())
	assert.Nil(t, s.Get())
}

func TestIdentity(t *testing.T) {
	var nilID *Identity
	assert.False(t, nilID.Authenticated())
	assert.False(t, nilID.Owns("u1"))

	id := &Identity{UserID: "u1"}
	assert.True(t, id.Owns("u1"))
	assert.False(t, id.Owns("u2"))

	ctx := WithIdentity(context.Background(), id)
	assert.Same(t, id, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
