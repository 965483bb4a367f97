// Package repo implements the Repository façade: the single entry point
// orchestrating the staging→digest→persist→retarget pipeline across the
// object store, staging area, reference manager, DAG engine and merge
// engine. It is grounded on the original source's Repository facade, with
// the concurrency guard and logging style of the teacher's parcel façade.
package repo

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alpdik/tri/internal/dag"
	"github.com/alpdik/tri/internal/diff"
	"github.com/alpdik/tri/internal/errors"
	"github.com/alpdik/tri/internal/merge"
	"github.com/alpdik/tri/internal/merkle"
	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/refs"
	"github.com/alpdik/tri/internal/staging"
	"github.com/alpdik/tri/internal/vault"
	"github.com/alpdik/tri/internal/workingtree"
)

const defaultBranch = "master"

// Repository is the VCS engine façade. Zero value is not usable; create
// one with New.
type Repository struct {
	mu sync.Mutex

	store   *object.Store
	vault   *vault.Vault
	staging *staging.Area
	refs    *refs.Manager
	tree    *workingtree.Writer
	diff    *diff.Engine

	logger *zap.Logger
}

// Options configures a Repository.
type Options struct {
	Vault  vault.Options
	Root   string // working tree root for Checkout/Merge file writes
	Logger *zap.Logger
}

// New creates a Repository with an unborn master branch checked out, the
// same initial state the original Repository constructor establishes.
func New(opts Options) (*Repository, error) {
	v, err := vault.New(opts.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := &Repository{
		store:   object.NewStore(v),
		vault:   v,
		staging: staging.New(),
		refs:    refs.New(),
		tree:    workingtree.New(opts.Root, opts.Logger),
		diff:    diff.NewEngine(3),
		logger:  opts.Logger,
	}

	if r.refs.GetBranch(defaultBranch) == nil {
		if _, err := r.refs.CreateBranch(defaultBranch, ""); err != nil {
			return nil, err
		}
	}
	if err := r.refs.CheckoutBranch(defaultBranch); err != nil {
		return nil, err
	}

	return r, nil
}

// Add stages path with content, computing and fixing its blob hash.
func (r *Repository) Add(path string, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.staging.AddFile(object.NewFileSnapshot(path, content))
	r.logger.Info("file staged", zap.String("path", path))
}

// Commit materializes the staging area into a new commit on the current
// branch. It fails with errors.KindEmptyStaging if nothing is staged.
func (r *Repository) Commit(message, author string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.staging.IsEmpty() {
		return "", errors.EmptyStaging("nothing to commit (staging area is empty)")
	}

	id, err := r.commitStagedLocked(message, author, time.Now())
	if err != nil {
		return "", err
	}

	branch := r.refs.CurrentBranch()
	r.logger.Info("commit created",
		zap.String("branch", branch.Name),
		zap.String("commit", object.ShortID(id)),
		zap.String("message", message))
	return id, nil
}

// commitStagedLocked builds a commit from the current staging contents,
// saves its blobs, appends it to the DAG, retargets HEAD and clears
// staging. Caller must hold r.mu.
func (r *Repository) commitStagedLocked(message, author string, now time.Time) (string, error) {
	staged := r.staging.Files()
	treeHash := treeHashOf(staged)

	files := make([]object.LightweightFile, len(staged))
	for i, f := range staged {
		if err := r.store.SaveBlob(f.Hash, f.Content); err != nil {
			return "", fmt.Errorf("saving blob for %s: %w", f.Path, err)
		}
		files[i] = f.Lightweight()
	}

	branch := r.refs.CurrentBranch()
	var parent string
	if branch != nil {
		parent = branch.LastCommit
	}

	c := object.NewCommit(message, author, treeHash, files, parent, "", now)
	r.store.AddCommit(c)

	if err := r.refs.UpdateHead(c.ID); err != nil {
		return "", err
	}
	r.staging.Clear()

	return c.ID, nil
}

func treeHashOf(files []object.FileSnapshot) string {
	return merkle.RootHash(files)
}

// CreateBranch creates a new branch pointing at the current HEAD commit.
// It fails with errors.KindEmptyHead if HEAD has no commits yet.
func (r *Repository) CreateBranch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.refs.CurrentBranch()
	if current == nil || current.LastCommit == "" {
		return errors.EmptyHead("cannot create branch: no commits exist yet (HEAD is empty)")
	}

	if _, err := r.refs.CreateBranch(name, current.LastCommit); err != nil {
		return err
	}
	r.logger.Info("branch created", zap.String("branch", name))
	return nil
}

// Checkout switches the current branch to name and restores its last
// commit's files to the working tree.
func (r *Repository) Checkout(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refs.CheckoutBranch(name); err != nil {
		return err
	}

	branch := r.refs.GetBranch(name)
	r.logger.Info("switched branch", zap.String("branch", name))

	if branch.LastCommit == "" {
		return nil
	}
	commit, ok := r.store.GetCommit(branch.LastCommit)
	if !ok {
		return nil
	}

	if err := r.tree.RestoreCommit(r.store, commit); err != nil {
		return fmt.Errorf("restoring files from commit %s: %w", object.ShortID(commit.ID), err)
	}
	r.logger.Info("files restored", zap.String("commit", object.ShortID(commit.ID)))
	return nil
}

// MergeOutcome summarizes the result of a Merge call.
type MergeOutcome struct {
	NoOp      bool   // true for "nothing to merge" / "already up to date"
	Message   string // human-readable summary, for CLI display
	CommitID  string // set when the merge produced a commit
	Conflicts []string
}

// Merge integrates branchName into the current branch. On a clean merge it
// produces a merge commit authored by "MergeUser", matching the original
// engine's fixed merge-author convention. On conflict it stages the
// conflict-marked files and writes them to the working tree without
// committing, leaving the repository mid-merge for the caller to resolve.
func (r *Repository) Merge(branchName string) (MergeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.refs.CurrentBranch()
	target := r.refs.GetBranch(branchName)
	if target == nil {
		return MergeOutcome{}, errors.NotFound("branch not found: " + branchName)
	}

	if current.LastCommit == "" || target.LastCommit == "" {
		return MergeOutcome{NoOp: true, Message: "Nothing to merge."}, nil
	}
	if current.LastCommit == target.LastCommit {
		return MergeOutcome{NoOp: true, Message: "Already up to date."}, nil
	}

	headCommit, _ := r.store.GetCommit(current.LastCommit)
	targetCommit, _ := r.store.GetCommit(target.LastCommit)

	result := merge.Merge(r.store, headCommit, targetCommit)

	r.staging.Clear()
	for _, f := range result.Files {
		content := f.Content
		if len(content) == 0 && f.Hash != "" {
			content = r.store.GetBlob(f.Hash)
		}
		r.staging.AddFile(object.FileSnapshot{Path: f.Path, Content: content, Hash: f.Hash})
		if err := r.tree.SaveFile(f.Path, content); err != nil {
			return MergeOutcome{}, fmt.Errorf("writing merged file %s: %w", f.Path, err)
		}
	}

	if !result.Clean() {
		return MergeOutcome{Conflicts: result.Conflicts, Message: "MERGE CONFLICT! Fix conflicts manually."}, nil
	}

	message := fmt.Sprintf("Merge branch '%s'", branchName)
	id, err := r.commitMergeLocked(message, headCommit.ID, targetCommit.ID, time.Now())
	if err != nil {
		return MergeOutcome{}, err
	}

	r.logger.Info("merge successful", zap.String("branch", branchName), zap.String("commit", object.ShortID(id)))
	return MergeOutcome{CommitID: id, Message: "Merge successful."}, nil
}

func (r *Repository) commitMergeLocked(message, parent1, parent2 string, now time.Time) (string, error) {
	staged := r.staging.Files()
	treeHash := treeHashOf(staged)

	files := make([]object.LightweightFile, len(staged))
	for i, f := range staged {
		if err := r.store.SaveBlob(f.Hash, f.Content); err != nil {
			return "", fmt.Errorf("saving blob for %s: %w", f.Path, err)
		}
		files[i] = f.Lightweight()
	}

	c := object.NewCommit(message, "MergeUser", treeHash, files, parent1, parent2, now)
	r.store.AddCommit(c)

	if err := r.refs.UpdateHead(c.ID); err != nil {
		return "", err
	}
	r.staging.Clear()
	return c.ID, nil
}

// Log returns the current branch's history, newest commit first.
func (r *Repository) Log() []*object.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.refs.CurrentBranch()
	if current == nil || current.LastCommit == "" {
		return nil
	}

	return dag.HistoryDFS(r.store, current.LastCommit)
}

// StatusEntry describes one path's state relative to staging and HEAD.
type StatusEntry struct {
	Path  string
	State string // "staged" or "committed"
}

// Status reports every path currently staged, plus every path tracked by
// the current HEAD commit that is not staged.
func (r *Repository) Status() []StatusEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []StatusEntry
	staged := make(map[string]bool)
	for _, f := range r.staging.Files() {
		out = append(out, StatusEntry{Path: f.Path, State: "staged"})
		staged[f.Path] = true
	}

	current := r.refs.CurrentBranch()
	if current == nil || current.LastCommit == "" {
		return out
	}
	commit, ok := r.store.GetCommit(current.LastCommit)
	if !ok {
		return out
	}
	for _, f := range commit.Files {
		if !staged[f.Path] {
			out = append(out, StatusEntry{Path: f.Path, State: "committed"})
		}
	}
	return out
}

// Diff compares the working-tree copy of path against the blob it had in
// HEAD's commit.
func (r *Repository) Diff(path string) (*diff.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.refs.CurrentBranch()
	var headHash string
	if current != nil && current.LastCommit != "" {
		if commit, ok := r.store.GetCommit(current.LastCommit); ok {
			for _, f := range commit.Files {
				if f.Path == path {
					headHash = f.Hash
					break
				}
			}
		}
	}

	workingContent, err := r.tree.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading working tree copy of %s: %w", path, err)
	}

	headContent := r.store.GetBlob(headHash)
	return r.diff.Compare(headContent, workingContent), nil
}

// CurrentBranchName returns the checked-out branch's name, or "Detached"
// if none is checked out.
func (r *Repository) CurrentBranchName() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b := r.refs.CurrentBranch(); b != nil {
		return b.Name
	}
	return "Detached"
}

// Store exposes the underlying object store, for snapshot/export callers.
func (r *Repository) Store() *object.Store { return r.store }

// Vault exposes the underlying blob pool, for snapshot/export callers.
func (r *Repository) Vault() *vault.Vault { return r.vault }

// Refs exposes the underlying reference manager, for snapshot/export callers.
func (r *Repository) Refs() *refs.Manager { return r.refs }

// StagingArea exposes the underlying staging area, for the auto-gate
// watcher to feed directly.
func (r *Repository) StagingArea() *staging.Area { return r.staging }
