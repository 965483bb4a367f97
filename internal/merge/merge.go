// Package merge implements the three-way merge decision table: reconciling
// ours and theirs against their merge base and surfacing textual conflict
// markers. It is a direct translation of the original MergeEngine.
package merge

import (
	"fmt"

	"github.com/alpdik/tri/internal/dag"
	"github.com/alpdik/tri/internal/object"
)

// Result is the outcome of a three-way merge: the merged file set in
// ours-first, theirs-second order, and the human-readable conflict report
// (empty when the merge was clean).
type Result struct {
	Files     []object.FileSnapshot
	Conflicts []string
}

// Clean reports whether the merge produced no conflicts.
func (r Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// Merge reconciles ours and theirs against their merge base, resolving
// blob content for synthesized conflict snapshots from store.
func Merge(store *object.Store, ours, theirs *object.Commit) Result {
	base, _ := dag.FindMergeBase(store, ours.ID, theirs.ID)

	mapOurs := fileMap(ours)
	mapTheirs := fileMap(theirs)
	mapBase := fileMap(base)

	var result Result

	for _, of := range ours.Files {
		path := of.Path
		hashOurs := of.Hash
		hashTheirs := mapTheirs[path]
		hashBase := mapBase[path]

		switch {
		case hashTheirs == "":
			if hashBase == "" {
				// Added only on ours.
				result.Files = append(result.Files, lightweightSnapshot(of))
			} else if hashBase == hashOurs {
				// Deleted on theirs, unchanged on ours: take theirs' deletion.
			} else {
				result.Conflicts = append(result.Conflicts, fmt.Sprintf("CONFLICT (Modify/Delete): %s", path))
				result.Files = append(result.Files, lightweightSnapshot(of))
			}

		case hashOurs == hashTheirs:
			// Identical change on both sides, or unchanged on both.
			result.Files = append(result.Files, lightweightSnapshot(of))

		case hashOurs == hashBase:
			// Fast-forward of file: theirs changed it, ours did not.
			result.Files = append(result.Files, object.FileSnapshot{Path: path, Hash: hashTheirs})

		case hashTheirs == hashBase:
			// Ours changed it, theirs did not.
			result.Files = append(result.Files, lightweightSnapshot(of))

		default:
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("CONFLICT (Content): %s", path))
			result.Files = append(result.Files, contentConflictSnapshot(store, path, hashOurs, hashTheirs, theirs.ID))
		}
	}

	for _, tf := range theirs.Files {
		path := tf.Path
		if _, seen := mapOurs[path]; seen {
			continue
		}

		hashBase := mapBase[path]
		if hashBase == "" {
			// Added only on theirs.
			result.Files = append(result.Files, lightweightSnapshot(tf))
			continue
		}

		if tf.Hash == hashBase {
			// Deleted on ours, unchanged on theirs: take ours' deletion.
			continue
		}

		result.Conflicts = append(result.Conflicts, fmt.Sprintf("CONFLICT (Delete/Modify): %s", path))
		result.Files = append(result.Files, lightweightSnapshot(tf))
	}

	return result
}

func fileMap(c *object.Commit) map[string]string {
	m := make(map[string]string)
	if c == nil {
		return m
	}
	for _, f := range c.Files {
		m[f.Path] = f.Hash
	}
	return m
}

func lightweightSnapshot(f object.LightweightFile) object.FileSnapshot {
	return object.FileSnapshot{Path: f.Path, Hash: f.Hash}
}

// contentConflictSnapshot synthesizes the <<<<<<< / ======= / >>>>>>>
// conflict body for a path both sides modified incompatibly.
func contentConflictSnapshot(store *object.Store, path, hashOurs, hashTheirs, theirsCommitID string) object.FileSnapshot {
	contentOurs := store.GetBlob(hashOurs)
	contentTheirs := store.GetBlob(hashTheirs)

	body := fmt.Sprintf(
		"<<<<<<< HEAD\n%s\n=======\n%s\n>>>>>>> %s\n",
		contentOurs, contentTheirs, object.ShortID(theirsCommitID),
	)

	return object.NewFileSnapshot(path, []byte(body))
}
