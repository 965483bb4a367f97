// Package workingtree writes commit file sets back out to disk. It is
// adapted from the teacher's local workspace I/O idiom (MkdirAll + WriteFile
// plus a one-line log per file) and from the original StorageEngine's
// restore_files/save_file_to_disk pair.
package workingtree

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alpdik/tri/internal/object"
)

// Writer materializes blobs onto disk under a root directory.
type Writer struct {
	Root   string
	Logger *zap.Logger
}

// New creates a Writer rooted at root. A nil logger disables logging.
func New(root string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Root: root, Logger: logger}
}

// RestoreCommit writes every file in commit to disk, resolving blob
// content through store. It is a no-op for a nil commit or one with no
// files.
func (w *Writer) RestoreCommit(store *object.Store, commit *object.Commit) error {
	if commit == nil || len(commit.Files) == 0 {
		return nil
	}

	for _, f := range commit.Files {
		content := store.GetBlob(f.Hash)
		if err := w.SaveFile(f.Path, content); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes content to path under the working tree root, creating
// parent directories as needed.
func (w *Writer) SaveFile(path string, content []byte) error {
	full := filepath.Join(w.Root, path)
	if dir := filepath.Dir(full); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(full, content, 0o644); err != nil {
		return err
	}

	w.Logger.Info("restored file", zap.String("path", path))
	return nil
}

// ReadFile reads the current on-disk content at path under the working
// tree root.
func (w *Writer) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.Root, path))
}
