package repo

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpdik/tri/internal/errors"
)

func newRepo(t *testing.T) *Repository {
	r, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)
	return r
}

func TestNewChecksOutUnbornMaster(t *testing.T) {
	r := newRepo(t)
	assert.Equal(t, "master", r.CurrentBranchName())
	assert.Empty(t, r.Log())
}

func TestCommitWithoutStagingFails(t *testing.T) {
	r := newRepo(t)
	_, err := r.Commit("empty", "alp")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.EmptyStaging("")))
}

func TestAddCommitAppearsInLog(t *testing.T) {
	r := newRepo(t)
	r.Add("main.go", []byte("package main"))

	id, err := r.Commit("initial commit", "alp")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	log := r.Log()
	require.Len(t, log, 1)
	assert.Equal(t, id, log[0].ID)
	assert.Equal(t, "initial commit", log[0].Message)

	assert.True(t, r.StagingArea().IsEmpty())
}

func TestCommitHistoryIsNewestFirst(t *testing.T) {
	r := newRepo(t)
	r.Add("a.txt", []byte("1"))
	first, err := r.Commit("first", "alp")
	require.NoError(t, err)

	r.Add("a.txt", []byte("2"))
	second, err := r.Commit("second", "alp")
	require.NoError(t, err)

	log := r.Log()
	require.Len(t, log, 2)
	assert.Equal(t, second, log[0].ID)
	assert.Equal(t, first, log[1].ID)
}

func TestCreateBranchRequiresACommit(t *testing.T) {
	r := newRepo(t)
	err := r.CreateBranch("feature")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.EmptyHead("")))
}

func TestCreateBranchAndCheckoutRestoresFiles(t *testing.T) {
	r := newRepo(t)
	r.Add("main.go", []byte("package main"))
	_, err := r.Commit("initial", "alp")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feature"))
	require.NoError(t, r.Checkout("feature"))
	assert.Equal(t, "feature", r.CurrentBranchName())

	content, err := r.tree.ReadFile("main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main", string(content))
}

func TestCheckoutUnknownBranchFails(t *testing.T) {
	r := newRepo(t)
	err := r.Checkout("nope")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NotFound("")))
}

func TestMergeNothingToMergeOnUnbornBranch(t *testing.T) {
	r := newRepo(t)
	_, err := r.refs.CreateBranch("feature", "")
	require.NoError(t, err)

	outcome, err := r.Merge("feature")
	require.NoError(t, err)
	assert.True(t, outcome.NoOp)
	assert.Equal(t, "Nothing to merge.", outcome.Message)
}

func TestMergeUnknownBranchFails(t *testing.T) {
	r := newRepo(t)
	_, err := r.Merge("nope")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NotFound("")))
}

func TestMergeAlreadyUpToDate(t *testing.T) {
	r := newRepo(t)
	r.Add("a.txt", []byte("1"))
	_, err := r.Commit("c1", "alp")
	require.NoError(t, err)
	require.NoError(t, r.CreateBranch("feature"))

	outcome, err := r.Merge("feature")
	require.NoError(t, err)
	assert.True(t, outcome.NoOp)
	assert.Equal(t, "Already up to date.", outcome.Message)
}

func TestMergeCleanProducesMergeCommit(t *testing.T) {
	r := newRepo(t)
	r.Add("readme.txt", []byte("base"))
	_, err := r.Commit("base", "alp")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feature"))
	require.NoError(t, r.Checkout("feature"))
	r.Add("login.go", []byte("package login"))
	_, err = r.Commit("feature work", "umut")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	r.Add("main.go", []byte("package main"))
	_, err = r.Commit("master work", "alp")
	require.NoError(t, err)

	outcome, err := r.Merge("feature")
	require.NoError(t, err)
	assert.Equal(t, "Merge successful.", outcome.Message)
	require.NotEmpty(t, outcome.CommitID)
	assert.Empty(t, outcome.Conflicts)

	log := r.Log()
	require.Len(t, log, 4)
	assert.Equal(t, outcome.CommitID, log[0].ID)
	assert.True(t, log[0].IsMergeCommit())
	assert.Equal(t, "MergeUser", log[0].Author)
}

func TestMergeConflictStagesMarkersWithoutCommitting(t *testing.T) {
	r := newRepo(t)
	r.Add("main.go", []byte("base content"))
	_, err := r.Commit("base", "alp")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feature"))
	require.NoError(t, r.Checkout("feature"))
	r.Add("main.go", []byte("feature content"))
	_, err = r.Commit("feature edit", "umut")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	r.Add("main.go", []byte("master content"))
	_, err = r.Commit("master edit", "alp")
	require.NoError(t, err)

	outcome, err := r.Merge("feature")
	require.NoError(t, err)
	assert.Equal(t, "MERGE CONFLICT! Fix conflicts manually.", outcome.Message)
	assert.Contains(t, outcome.Conflicts, "CONFLICT (Content): main.go")
	assert.Empty(t, outcome.CommitID)

	assert.False(t, r.StagingArea().IsEmpty())

	content, err := r.tree.ReadFile("main.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), "<<<<<<< HEAD")
}

func TestStatusReflectsStagedAndCommittedFiles(t *testing.T) {
	r := newRepo(t)
	r.Add("a.txt", []byte("1"))
	_, err := r.Commit("c1", "alp")
	require.NoError(t, err)

	r.Add("b.txt", []byte("2"))
	entries := r.Status()

	byPath := map[string]string{}
	for _, e := range entries {
		byPath[e.Path] = e.State
	}
	assert.Equal(t, "staged", byPath["b.txt"])
	assert.Equal(t, "committed", byPath["a.txt"])
}

func TestDiffComparesWorkingTreeAgainstHead(t *testing.T) {
	r := newRepo(t)
	r.Add("a.txt", []byte("line one\nline two\n"))
	_, err := r.Commit("c1", "alp")
	require.NoError(t, err)

	require.NoError(t, r.tree.SaveFile("a.txt", []byte("line one\nline two changed\n")))

	result, err := r.Diff("a.txt")
	require.NoError(t, err)
	assert.True(t, result.Additions > 0 || result.Deletions > 0)
}
