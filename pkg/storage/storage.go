// Package storage provides the widget's browser-localStorage equivalent: a
// tiny string key-value store with a file-backed and an in-memory backend.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/tourvia/tourchat/pkg/logger"
)

// KV is the minimal key-value contract the widget depends on. Last writer
// wins; there are no transactional guarantees across processes.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// FileStore persists keys as a single JSON object at a fixed path.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// NewFileStore loads (or initializes) the store at path. A missing or
// unreadable file starts the store empty rather than failing.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("storage", "Failed to read state file, starting empty",
				map[string]interface{}{"path": path, "error": err.Error()})
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.WarnCF("storage", "Corrupt state file, starting empty",
			map[string]interface{}{"path": path, "error": err.Error()})
		s.data = make(map[string]string)
	}
	return s
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// MemoryStore is a map-backed KV for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
