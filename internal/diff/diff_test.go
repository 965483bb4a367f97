package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/vault"
)

func countKinds(hunks []Hunk) (context, add, del int) {
	for _, h := range hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case Context:
				context++
			case Addition:
				add++
			case Deletion:
				del++
			}
		}
	}
	return
}

func TestCompareIdenticalContentProducesNoHunks(t *testing.T) {
	e := NewEngine(3)
	result := e.Compare([]byte("a\nb\nc\n"), []byte("a\nb\nc\n"))
	assert.Empty(t, result.Hunks)
	assert.Equal(t, 0, result.Additions)
	assert.Equal(t, 0, result.Deletions)
}

func TestComparePureAddition(t *testing.T) {
	e := NewEngine(3)
	result := e.Compare([]byte("a\nb\n"), []byte("a\nb\nc\n"))
	assert.Equal(t, 1, result.Additions)
	assert.Equal(t, 0, result.Deletions)
}

func TestComparePureDeletion(t *testing.T) {
	e := NewEngine(3)
	result := e.Compare([]byte("a\nb\nc\n"), []byte("a\nb\n"))
	assert.Equal(t, 0, result.Additions)
	assert.Equal(t, 1, result.Deletions)
}

func TestCompareSingleLineReplacementIsOneAdditionAndOneDeletion(t *testing.T) {
	e := NewEngine(0)
	result := e.Compare([]byte("a\nb\nc\n"), []byte("a\nX\nc\n"))
	assert.Equal(t, 1, result.Additions)
	assert.Equal(t, 1, result.Deletions)

	_, add, del := countKinds(result.Hunks)
	assert.Equal(t, 1, add)
	assert.Equal(t, 1, del)
}

func TestCompareContextWidthBoundsSurroundingLines(t *testing.T) {
	e := NewEngine(1)
	result := e.Compare([]byte("1\n2\n3\n4\n5\nX\n7\n8\n9\n"), []byte("1\n2\n3\n4\n5\nY\n7\n8\n9\n"))
	require.Len(t, result.Hunks, 1)

	ctx, _, _ := countKinds(result.Hunks)
	assert.Equal(t, 2, ctx) // one line of context on each side of the change
}

func TestCompareZeroContextLinesOmitsContext(t *testing.T) {
	e := NewEngine(0)
	result := e.Compare([]byte("1\n2\n3\n"), []byte("1\nX\n3\n"))
	ctx, _, _ := countKinds(result.Hunks)
	assert.Equal(t, 0, ctx)
}

func TestCompareBlobsShortCircuitsOnEqualHashes(t *testing.T) {
	v, err := vault.New(vault.Options{})
	require.NoError(t, err)
	store := object.NewStore(v)

	e := NewEngine(3)
	result := e.CompareBlobs(store, "samehash", "samehash")
	assert.Empty(t, result.Hunks)
	assert.Equal(t, "samehash", result.OldHash)
	assert.Equal(t, "samehash", result.NewHash)
}

func TestCompareBlobsResolvesContentThroughStore(t *testing.T) {
	v, err := vault.New(vault.Options{})
	require.NoError(t, err)
	store := object.NewStore(v)

	oldSnap := object.NewFileSnapshot("f.txt", []byte("a\nb\n"))
	newSnap := object.NewFileSnapshot("f.txt", []byte("a\nc\n"))
	require.NoError(t, v.Store(oldSnap.Hash, oldSnap.Content))
	require.NoError(t, v.Store(newSnap.Hash, newSnap.Content))

	e := NewEngine(3)
	result := e.CompareBlobs(store, oldSnap.Hash, newSnap.Hash)
	assert.Equal(t, 1, result.Additions)
	assert.Equal(t, 1, result.Deletions)
	assert.Equal(t, oldSnap.Hash, result.OldHash)
	assert.Equal(t, newSnap.Hash, result.NewHash)
}

func TestFormatIncludesBlobHashHeaderOnlyWhenSet(t *testing.T) {
	plain := (&Engine{contextLines: 3}).Compare([]byte("a\n"), []byte("b\n"))
	assert.NotContains(t, plain.Format(), "diff ")

	withHashes := &Result{OldHash: "aaaaaaaabbbb", NewHash: "ccccccccdddd"}
	formatted := withHashes.Format()
	assert.Contains(t, formatted, "diff "+object.ShortID("aaaaaaaabbbb")+".."+object.ShortID("ccccccccdddd"))
}
