// Package staging implements the ordered, path-unique set of pending file
// snapshots that is the input to the next commit.
package staging

import (
	"sync"

	"github.com/alpdik/tri/internal/object"
)

// Area is the staging area: an ordered path-unique set of snapshots.
// Upserting a path already present replaces it in place, preserving its
// original order position; clearing resets the order.
type Area struct {
	mu    sync.RWMutex
	files []object.FileSnapshot
	index map[string]int // path -> position in files
}

// New creates an empty staging area.
func New() *Area {
	return &Area{
		index: make(map[string]int),
	}
}

// AddFile upserts snap by path.
func (a *Area) AddFile(snap object.FileSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i, ok := a.index[snap.Path]; ok {
		a.files[i] = snap
		return
	}
	a.index[snap.Path] = len(a.files)
	a.files = append(a.files, snap)
}

// RemoveFile drops the snapshot for path, if staged.
func (a *Area) RemoveFile(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.index[path]
	if !ok {
		return
	}

	a.files = append(a.files[:i], a.files[i+1:]...)
	delete(a.index, path)
	for p, idx := range a.index {
		if idx > i {
			a.index[p] = idx - 1
		}
	}
}

// Clear empties the staging area.
func (a *Area) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = nil
	a.index = make(map[string]int)
}

// Files returns an ordered snapshot of the staged files. The returned
// slice is a copy; mutating it does not affect the staging area.
func (a *Area) Files() []object.FileSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]object.FileSnapshot, len(a.files))
	copy(out, a.files)
	return out
}

// IsEmpty reports whether the staging area has no entries.
func (a *Area) IsEmpty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files) == 0
}
