// Package watch optionally auto-stages file changes under a working tree
// root, adapted from the teacher's AutoTracker: an fsnotify watcher walking
// the tree once at startup, then folding Create/Write events into the
// staging area; Remove/Rename events drop the path from the staging area.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/staging"
)

var defaultIgnored = map[string]bool{
	".git":         true,
	".tri":         true,
	"node_modules": true,
	"vendor":       true,
}

// Watcher auto-stages filesystem changes under Root into a staging.Area.
type Watcher struct {
	Root    string
	Staging *staging.Area
	Logger  *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
}

// New creates a Watcher rooted at root, feeding area. A nil logger
// disables logging.
func New(root string, area *staging.Area, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{Root: root, Staging: area, Logger: logger, watcher: fw}
	if err := w.addDirs(root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if shouldIgnore(rel) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func shouldIgnore(relPath string) bool {
	if relPath == "" || relPath == "." {
		return false
	}
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if defaultIgnored[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil || shouldIgnore(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
		w.stageFile(rel)

	case event.Op&fsnotify.Write == fsnotify.Write:
		w.stageFile(rel)

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.Staging.RemoveFile(rel)
		w.Logger.Info("unstaged removed file", zap.String("path", rel))
	}
}

func (w *Watcher) stageFile(relPath string) {
	content, err := os.ReadFile(filepath.Join(w.Root, relPath))
	if err != nil {
		w.Logger.Warn("reading changed file", zap.String("path", relPath), zap.Error(err))
		return
	}
	w.Staging.AddFile(object.NewFileSnapshot(relPath, content))
	w.Logger.Info("auto-staged file", zap.String("path", relPath))
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
