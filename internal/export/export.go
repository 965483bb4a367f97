// Package export mirrors the blob pool to a flat, content-addressed
// directory tree on disk (root/hash[:2]/hash[2:]), adapted from the
// teacher's content.FileStore. This is the non-packfile persistence path:
// every blob becomes its own file, with no delta compression across blobs,
// matching the design notes' explicit rejection of packfiles.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/vault"
)

// Mirror writes every cached blob in blobs to root, one file per hash.
func Mirror(root string, blobs *vault.Vault) error {
	for hash, content := range blobs.All() {
		if err := writeBlob(root, hash, content); err != nil {
			return fmt.Errorf("exporting blob %s: %w", hash, err)
		}
	}
	return nil
}

// Commit exports a single commit's files (resolved through store) plus any
// blobs they reference that aren't yet under root.
func Commit(root string, store *object.Store, commit *object.Commit) error {
	if commit == nil {
		return nil
	}
	for _, f := range commit.Files {
		if err := writeBlob(root, f.Hash, store.GetBlob(f.Hash)); err != nil {
			return fmt.Errorf("exporting blob %s: %w", f.Hash, err)
		}
	}
	return nil
}

func writeBlob(root, hash string, content []byte) error {
	if len(hash) < 2 {
		return fmt.Errorf("blob hash too short: %q", hash)
	}
	path := filepath.Join(root, hash[:2], hash[2:])
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil // first writer wins, matches blob immortality
	}
	return os.WriteFile(path, content, 0o644)
}

// Load reads a previously exported blob back from root.
func Load(root, hash string) ([]byte, error) {
	if len(hash) < 2 {
		return nil, fmt.Errorf("blob hash too short: %q", hash)
	}
	return os.ReadFile(filepath.Join(root, hash[:2], hash[2:]))
}
