// Package token holds the single bearer token this dashboard carries.
// It is the durable-storage analog of the browser's localStorage entry:
// loaded once at startup, written on the OAuth callback, removed at logout
// or on an authentication failure from the backend.
package token

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StorageKey is the fixed name of the token file inside the state dir.
const StorageKey = "user_token"

// Store is safe for concurrent use. Exactly one token is active at a time;
// there is no refresh logic, the opaque value is carried until the backend
// rejects it.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

// Open loads any previously persisted token from stateDir.
func Open(stateDir string) (*Store, error) {
	s := &Store{path: filepath.Join(stateDir, StorageKey)}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		s.token = strings.TrimSpace(string(data))
	case os.IsNotExist(err):
		// cold start without a prior login
	default:
		return nil, err
	}
	return s, nil
}

// Token returns the active token, or "" when unauthenticated. Satisfies
// api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set persists a new token. Setting the currently active value is a no-op.
// An empty value behaves like Clear.
func (s *Store) Set(value string) error {
	if value == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if value == s.token {
		return nil
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.token = value
	return nil
}

// Clear removes the token from memory and durable storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil
	}
	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] token: failed to remove %s: %v", s.path, err)
		return err
	}
	return nil
}
