package merge

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/vault"
)

func newStore(t *testing.T) *object.Store {
	v, err := vault.New(vault.Options{})
	require.NoError(t, err)
	return object.NewStore(v)
}

func saveFile(t *testing.T, store *object.Store, path, content string) object.LightweightFile {
	snap := object.NewFileSnapshot(path, []byte(content))
	require.NoError(t, store.SaveBlob(snap.Hash, snap.Content))
	return snap.Lightweight()
}

func commitWith(store *object.Store, files []object.LightweightFile, parent1, parent2 string, seq int64) *object.Commit {
	c := object.NewCommit("m", "a", "t", files, parent1, parent2, time.Unix(seq, 0))
	store.AddCommit(c)
	return c
}

func TestMergeCleanWhenIdenticalOnBothSides(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ours := commitWith(store, []object.LightweightFile{a}, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{a}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	assert.True(t, result.Clean())
	assert.Len(t, result.Files, 1)
}

func TestMergeFastForwardsFileChangedOnlyOnTheirs(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	aChanged := saveFile(t, store, "a.txt", "2")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ours := commitWith(store, []object.LightweightFile{a}, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{aChanged}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.True(t, result.Clean())
	require.Len(t, result.Files, 1)
	assert.Equal(t, aChanged.Hash, result.Files[0].Hash)
}

func TestMergeKeepsFileChangedOnlyOnOurs(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	aChanged := saveFile(t, store, "a.txt", "2")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ours := commitWith(store, []object.LightweightFile{aChanged}, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{a}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.True(t, result.Clean())
	require.Len(t, result.Files, 1)
	assert.Equal(t, aChanged.Hash, result.Files[0].Hash)
}

func TestMergeAddedOnlyOnOursAndTheirsBothKept(t *testing.T) {
	store := newStore(t)
	base := commitWith(store, nil, "", "", 1)
	onlyOurs := saveFile(t, store, "ours.txt", "x")
	onlyTheirs := saveFile(t, store, "theirs.txt", "y")
	ours := commitWith(store, []object.LightweightFile{onlyOurs}, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{onlyTheirs}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.True(t, result.Clean())
	assert.Len(t, result.Files, 2)
}

func TestMergeModifyDeleteConflict(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	aChanged := saveFile(t, store, "a.txt", "2")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ours := commitWith(store, []object.LightweightFile{aChanged}, base.ID, "", 2)
	theirs := commitWith(store, nil, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.False(t, result.Clean())
	assert.Contains(t, result.Conflicts, fmt.Sprintf("CONFLICT (Modify/Delete): %s", "a.txt"))
}

func TestMergeDeleteModifyConflict(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	aChanged := saveFile(t, store, "a.txt", "2")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ours := commitWith(store, nil, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{aChanged}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.False(t, result.Clean())
	assert.Contains(t, result.Conflicts, fmt.Sprintf("CONFLICT (Delete/Modify): %s", "a.txt"))
}

func TestMergeContentConflictProducesMarkers(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	base := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	ourFile := saveFile(t, store, "a.txt", "ours-version")
	theirFile := saveFile(t, store, "a.txt", "theirs-version")
	ours := commitWith(store, []object.LightweightFile{ourFile}, base.ID, "", 2)
	theirs := commitWith(store, []object.LightweightFile{theirFile}, base.ID, "", 3)

	result := Merge(store, ours, theirs)
	require.False(t, result.Clean())
	assert.Contains(t, result.Conflicts, "CONFLICT (Content): a.txt")

	require.Len(t, result.Files, 1)
	merged := result.Files[0]
	content := store.GetBlob(merged.Hash)
	if len(content) == 0 {
		content = merged.Content
	}
	assert.Contains(t, string(content), "<<<<<<< HEAD")
	assert.Contains(t, string(content), "ours-version")
	assert.Contains(t, string(content), "=======")
	assert.Contains(t, string(content), "theirs-version")
	assert.Contains(t, string(content), fmt.Sprintf(">>>>>>> %s", object.ShortID(theirs.ID)))
}

func TestMergeWithoutCommonAncestorTreatsBothAsAdditions(t *testing.T) {
	store := newStore(t)
	a := saveFile(t, store, "a.txt", "1")
	b := saveFile(t, store, "b.txt", "2")
	ours := commitWith(store, []object.LightweightFile{a}, "", "", 1)
	theirs := commitWith(store, []object.LightweightFile{b}, "", "", 2)

	result := Merge(store, ours, theirs)
	assert.True(t, result.Clean())
	assert.Len(t, result.Files, 2)
}
