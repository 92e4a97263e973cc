// Package localstore is the terminal's local state file: a small JSON
// key-value store holding the cached session, the offline emission buffer
// and the login security vitals. It is the degraded-mode twin of the
// database: writes that cannot reach MySQL land here and are not reconciled
// back later.
package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/omraut/carbon-terminal/internal/model"
)

// Storage keys, kept byte-compatible with the browser build so an exported
// state file reads the same either way.
const (
	KeySession = "carbonai_identity_session"
	KeyHistory = "carbonai_local_buffer"
	KeyVitals  = "carbonai_security_vitals"
)

// Store is a mutex-guarded JSON file. Every mutation rewrites the whole
// file; the payload is a handful of records at most so that is fine.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open prepares a store at path, creating parent directories as needed. The
// file itself is created lazily on first write.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (s *Store) save(m map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Get unmarshals the value under key into v. The second return is false when
// the key is absent.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return false, err
	}
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Put stores v under key, replacing any previous value.
func (s *Store) Put(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = raw
	return s.save(m)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

// AppendHistory pushes rec onto the offline emission buffer.
func (s *Store) AppendHistory(rec model.EmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	var buf []model.EmissionRecord
	if raw, ok := m[KeyHistory]; ok {
		if err := json.Unmarshal(raw, &buf); err != nil {
			return err
		}
	}
	buf = append(buf, rec)
	raw, err := json.Marshal(buf)
	if err != nil {
		return err
	}
	m[KeyHistory] = raw
	return s.save(m)
}

// History returns the offline emission buffer, empty when nothing has been
// buffered.
func (s *Store) History() ([]model.EmissionRecord, error) {
	var buf []model.EmissionRecord
	if _, err := s.Get(KeyHistory, &buf); err != nil {
		return nil, err
	}
	return buf, nil
}
