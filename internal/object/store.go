package object

import (
	"fmt"
	"sync"

	"github.com/alpdik/tri/internal/vault"
)

// Store owns the entire commit DAG and, through a Vault, the blob content
// pool. Lookup by commit id or blob hash is O(1) expected.
type Store struct {
	mu      sync.RWMutex
	commits map[string]*Commit
	blobs   *vault.Vault
}

// NewStore creates a Store backed by the given Vault.
func NewStore(blobs *vault.Vault) *Store {
	return &Store{
		commits: make(map[string]*Commit),
		blobs:   blobs,
	}
}

// AddCommit stores c under its id. Calling AddCommit twice with a commit
// that shares an id with one already stored is a programming error — commit
// ids are minted once by NewCommit and never reused — so it panics rather
// than returning a recoverable error, matching the spec's "no recoverable
// errors" failure model for the store.
func (s *Store) AddCommit(c *Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.commits[c.ID]; exists {
		panic(fmt.Sprintf("object: duplicate commit id %s", c.ID))
	}
	s.commits[c.ID] = c
}

// GetCommit returns the commit with the given id, or false if absent.
func (s *Store) GetCommit(id string) (*Commit, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[id]
	return c, ok
}

// AllCommits returns every stored commit, for snapshotting.
func (s *Store) AllCommits() []*Commit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Commit, 0, len(s.commits))
	for _, c := range s.commits {
		out = append(out, c)
	}
	return out
}

// SaveBlob stores content under hash, idempotently: the first writer for a
// given hash wins.
func (s *Store) SaveBlob(hash string, content []byte) error {
	return s.blobs.Store(hash, content)
}

// GetBlob returns the content stored under hash, or an empty byte slice if
// absent. Absence is "not yet materialized", not an error.
func (s *Store) GetBlob(hash string) []byte {
	content, ok := s.blobs.Get(hash)
	if !ok {
		return []byte{}
	}
	return content
}

// HasBlob reports whether hash is present in the blob pool.
func (s *Store) HasBlob(hash string) bool {
	return s.blobs.Exists(hash)
}
