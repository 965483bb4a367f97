// Package snapshot checkpoints and restores an entire in-memory repository
// to and from Badger, built on internal/persist. This is the "future
// extension" the core design notes invite: live façade operations never
// call this package, but it lets a process boundary be crossed without
// losing history.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/persist"
	"github.com/alpdik/tri/internal/refs"
	"github.com/alpdik/tri/internal/vault"
)

const (
	commitPrefix = "commit"
	blobPrefix   = "blob"
	branchPrefix = "branch"
	metaPrefix   = "meta"
)

type commitRecord struct {
	ID       string
	Message  string
	Author   string
	TimeUnix int64
	TreeHash string
	Files    []object.LightweightFile
	Parent1  string
	Parent2  string
}

func (r commitRecord) GetID() string { return r.ID }

type blobRecord struct {
	Hash    string
	Content []byte
}

func (r blobRecord) GetID() string { return r.Hash }

type branchRecord struct {
	Name       string
	LastCommit string
}

func (r branchRecord) GetID() string { return r.Name }

type metaRecord struct {
	Key   string
	Value string
}

func (r metaRecord) GetID() string { return r.Key }

// Save writes every commit, every cached blob, every branch, and the
// current-branch selector into db.
func Save(db *badger.DB, store *object.Store, blobs *vault.Vault, manager *refs.Manager) error {
	commits := persist.New(db, commitPrefix)
	for _, c := range store.AllCommits() {
		rec := commitRecord{
			ID:       c.ID,
			Message:  c.Message,
			Author:   c.Author,
			TimeUnix: c.Time.UnixNano(),
			TreeHash: c.TreeHash,
			Files:    c.Files,
			Parent1:  c.Parent1,
			Parent2:  c.Parent2,
		}
		if err := commits.Put(rec); err != nil {
			return err
		}
	}

	blobStore := persist.New(db, blobPrefix)
	for hash, content := range blobs.All() {
		if err := blobStore.Put(blobRecord{Hash: hash, Content: content}); err != nil {
			return err
		}
	}

	branches := persist.New(db, branchPrefix)
	for _, b := range manager.AllBranches() {
		if err := branches.Put(branchRecord{Name: b.Name, LastCommit: b.LastCommit}); err != nil {
			return err
		}
	}

	meta := persist.New(db, metaPrefix)
	current := ""
	if cb := manager.CurrentBranch(); cb != nil {
		current = cb.Name
	}
	return meta.Put(metaRecord{Key: "current_branch", Value: current})
}

// Restore rebuilds store, blobs, and manager from db. It is the inverse of
// Save. store and blobs are assumed empty; manager may already carry the
// unborn branch internal/repo.New bootstraps, which Restore retargets
// rather than rejects as a duplicate.
func Restore(db *badger.DB, store *object.Store, blobs *vault.Vault, manager *refs.Manager) error {
	blobStore := persist.New(db, blobPrefix)
	if err := blobStore.List(func(raw []byte) error {
		var rec blobRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		return blobs.Store(rec.Hash, rec.Content)
	}); err != nil {
		return err
	}

	commits := persist.New(db, commitPrefix)
	if err := commits.List(func(raw []byte) error {
		var rec commitRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		store.AddCommit(&object.Commit{
			ID:       rec.ID,
			Message:  rec.Message,
			Author:   rec.Author,
			Time:     time.Unix(0, rec.TimeUnix),
			TreeHash: rec.TreeHash,
			Files:    rec.Files,
			Parent1:  rec.Parent1,
			Parent2:  rec.Parent2,
		})
		return nil
	}); err != nil {
		return err
	}

	branches := persist.New(db, branchPrefix)
	if err := branches.List(func(raw []byte) error {
		var rec branchRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		// manager already carries the bootstrap "master" branch repo.New
		// creates before Restore runs, so this must upsert, not create.
		manager.SetBranch(rec.Name, rec.LastCommit)
		return nil
	}); err != nil {
		return err
	}

	meta := persist.New(db, metaPrefix)
	var current metaRecord
	if err := meta.Get("current_branch", &current); err == nil && current.Value != "" {
		return manager.CheckoutBranch(current.Value)
	}
	return nil
}
