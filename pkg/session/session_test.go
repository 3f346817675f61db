package session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/tourchat/pkg/storage"
)

func TestIDGeneratedOnceAndPersisted(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)

	id := m.ID()
	require.NotEmpty(t, id)
	assert.Contains(t, id, "-", "id combines a timestamp with a random suffix")

	// Stable within the manager.
	assert.Equal(t, id, m.ID())

	// Persisted, and reused by a fresh manager over the same store.
	stored, ok := store.Get(IDKey)
	require.True(t, ok)
	assert.Equal(t, id, stored)
	assert.Equal(t, id, NewManager(store).ID())
}

func TestAdoptReplacesIDAndStore(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)
	original := m.ID()

	m.Adopt("s1")
	assert.Equal(t, "s1", m.ID())
	stored, _ := store.Get(IDKey)
	assert.Equal(t, "s1", stored)
	assert.NotEqual(t, original, m.ID())
}

func TestAdoptNoOps(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)
	id := m.ID()

	m.Adopt("")
	assert.Equal(t, id, m.ID())

	m.Adopt(id)
	assert.Equal(t, id, m.ID())
}

func TestSaveContextVerbatim(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)

	raw := json.RawMessage(`{"topic":"catamaran","groupBooking":true}`)
	require.NoError(t, m.SaveContext(raw))

	stored, ok := store.Get(ContextKey)
	require.True(t, ok)
	assert.JSONEq(t, string(raw), stored)
}

func TestSaveContextRejectsMalformed(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)

	err := m.SaveContext(json.RawMessage(`{"topic":`))
	assert.Error(t, err)
	_, ok := store.Get(ContextKey)
	assert.False(t, ok)
}

func TestSaveContextEmptyIsNoOp(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store)

	require.NoError(t, m.SaveContext(nil))
	_, ok := store.Get(ContextKey)
	assert.False(t, ok)
}

func TestNewIDShape(t *testing.T) {
	id := newID()
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.Len(t, parts[1], 8, "4 random bytes hex-encoded")
}
