// Package groupdata loads a secondary JSON sidecar file unrelated to the
// HTTP streaming core (spec §1) and serves it over the admin listener.
// Generic by design: the gateway only cares that it's a JSON document
// reloadable on demand, not its internal shape.
package groupdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store holds the most recently loaded document and reloads it from disk
// on demand. Concurrent reads are safe; they take a read lock.
type Store struct {
	path string

	mu       sync.RWMutex
	document json.RawMessage
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load (re)reads path from disk. Called once at startup and again whenever
// the admin listener's reload endpoint is hit.
func (s *Store) Load() error {
	bs, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read group data file %q: %w", s.path, err)
	}

	var doc json.RawMessage
	if err := json.Unmarshal(bs, &doc); err != nil {
		return fmt.Errorf("failed to parse group data file %q: %w", s.path, err)
	}

	s.mu.Lock()
	s.document = doc
	s.mu.Unlock()

	return nil
}

// Document returns the current in-memory snapshot, or nil if Load hasn't
// succeeded yet.
func (s *Store) Document() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.document
}
