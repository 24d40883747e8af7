// Package classify implements change classification: deciding what actually
// changed, how important it is, and what else it affects.
package classify

import (
	"sync"
	"unique"
)

// ContentHashStore maps a project-relative path to its last-known content
// digest. It grows monotonically except on explicit Clear; entries are
// overwritten on every content or creation classification. The running
// classifier is its only writer.
type ContentHashStore struct {
	mu      sync.RWMutex
	entries map[unique.Handle[string]]string
}

// NewContentHashStore creates an empty store.
func NewContentHashStore() *ContentHashStore {
	return &ContentHashStore{
		entries: make(map[unique.Handle[string]]string),
	}
}

// Get returns the stored digest for the given relative path.
func (s *ContentHashStore) Get(relPath string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.entries[unique.Make(relPath)]
	return hash, ok
}

// Store records the digest for the given relative path, replacing any
// previous entry.
func (s *ContentHashStore) Store(relPath, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[unique.Make(relPath)] = hash
}

// Len returns the number of stored entries.
func (s *ContentHashStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *ContentHashStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[unique.Handle[string]]string)
}
