// Package persist provides a generic, prefix-keyed JSON entity store over
// Badger, adapted from the teacher's BadgerStore. It backs the optional
// snapshot/restore extension; the live repository façade never depends on
// it directly.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/alpdik/tri/internal/errors"
)

// Entity is anything storable under its own id.
type Entity interface {
	GetID() string
}

// Store provides generic put/get/list operations over a Badger database,
// namespaced by a key prefix.
type Store struct {
	db     *badger.DB
	prefix string
}

// New creates a Store namespaced under prefix.
func New(db *badger.DB, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

func (s *Store) makeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", s.prefix, id))
}

// Put writes entity, overwriting any existing value under its id. Snapshot
// checkpoints are taken repeatedly against the same commit/branch/blob ids
// across a process's lifetime, so an upsert is the semantics every caller
// needs — unlike the teacher's Create, there is no "this id must be new"
// caller in this codebase to reject a re-put for.
func (s *Store) Put(entity Entity) error {
	if entity.GetID() == "" {
		return errors.IOFailure("entity id cannot be empty", nil)
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshaling entity: %w", err)
	}

	key := s.makeKey(entity.GetID())
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Get loads the entity stored under id into out.
func (s *Store) Get(id string, out Entity) error {
	key := s.makeKey(id)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})

	if err == badger.ErrKeyNotFound {
		return errors.NotFound("entity not found: " + id)
	}
	return err
}

// List decodes every raw value stored under the prefix into fn.
func (s *Store) List(fn func(raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(s.prefix + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if err := item.Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
