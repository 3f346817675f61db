// Package session tracks the opaque identifier that correlates a visitor's
// conversation turns across requests, plus the server-supplied conversational
// context blob that is cached verbatim.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tourvia/tourchat/pkg/logger"
	"github.com/tourvia/tourchat/pkg/storage"
)

const (
	// IDKey is the KV key holding the session identifier.
	IDKey = "tourchat_session_id"
	// ContextKey is the KV key holding the serialized conversational context.
	ContextKey = "tourchat_context"
)

// Manager hands out a stable session identifier, generating and persisting
// one on first use. The identifier is opaque to all other logic.
type Manager struct {
	store storage.KV
	mu    sync.Mutex
	id    string
}

func NewManager(store storage.KV) *Manager {
	return &Manager{store: store}
}

// ID returns the current session identifier, loading the persisted one or
// synthesizing and persisting a fresh one if none exists yet.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id != "" {
		return m.id
	}
	if stored, ok := m.store.Get(IDKey); ok && stored != "" {
		m.id = stored
		return m.id
	}

	m.id = newID()
	if err := m.store.Set(IDKey, m.id); err != nil {
		logger.WarnCF("session", "Failed to persist session id",
			map[string]interface{}{"error": err.Error()})
	}
	logger.DebugCF("session", "Generated session id", map[string]interface{}{"id": m.id})
	return m.id
}

// Adopt replaces the session identifier with a server-issued one. Empty or
// identical ids are no-ops.
func (m *Manager) Adopt(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" || id == m.id {
		return
	}
	m.id = id
	if err := m.store.Set(IDKey, id); err != nil {
		logger.WarnCF("session", "Failed to persist adopted session id",
			map[string]interface{}{"error": err.Error()})
	}
}

// SaveContext caches the server's conversational context verbatim. The blob
// is validated for well-formedness only; nothing ever reads it back into
// client behavior.
func (m *Manager) SaveContext(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return fmt.Errorf("context is not valid JSON")
	}
	return m.store.Set(ContextKey, string(raw))
}

func newID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(b))
}
