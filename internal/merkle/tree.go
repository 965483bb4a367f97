// Package merkle computes the deterministic digest over a set of staged
// files that becomes a commit's tree hash. It is a direct translation of
// the original MerkleTree: a flat tree, one blob node per staged file,
// sorted lexicographically by path before the root digest is folded.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/alpdik/tri/internal/object"
)

// EmptyTreeHash is the sentinel root digest for an empty staging set.
const EmptyTreeHash = "empty_tree"

type node struct {
	name string
	hash string
}

// RootHash computes the root digest over files. The result is invariant
// under input order and sensitive to any path or content change.
func RootHash(files []object.FileSnapshot) string {
	if len(files) == 0 {
		return EmptyTreeHash
	}

	nodes := make([]node, len(files))
	for i, f := range files {
		nodes[i] = node{name: f.Path, hash: blobDigest(f.Content)}
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].name < nodes[j].name })

	h := sha256.New()
	h.Write([]byte("tree "))
	for _, n := range nodes {
		h.Write([]byte(n.hash))
		h.Write([]byte(n.name))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// blobDigest hashes a single staged file's content the way the Merkle
// tree's blob nodes do: H("blob " + len(content) + NUL + content).
func blobDigest(content []byte) string {
	h := sha256.New()
	h.Write([]byte("blob "))
	h.Write([]byte(strconv.Itoa(len(content))))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
