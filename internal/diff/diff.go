// Package diff computes line-level hunks between two contents, used by the
// repository façade's Diff operation. The LCS walk is driven by per-line
// hashes instead of repeated byte-slice comparisons: two lines are taken as equal
// only when their hashes match AND their bytes match, the same
// hash-then-verify discipline internal/vault uses to guard against hash
// collisions in the blob pool. CompareBlobs additionally short-circuits on
// equal blob hashes, a shortcut that only exists because the caller already
// has content addresses in hand.
package diff

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/alpdik/tri/internal/object"
)

// LineKind indicates whether a line was added, removed, or is unchanged
// context.
type LineKind int

const (
	Context LineKind = iota
	Addition
	Deletion
)

// Line is a single rendered line of a hunk.
type Line struct {
	Kind    LineKind
	Content string
}

// Hunk is a contiguous span of changed (and surrounding context) lines.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Result is the complete diff between two blobs. OldHash and NewHash are
// set only by CompareBlobs, and are empty when Compare was called directly
// against raw content.
type Result struct {
	Hunks     []Hunk
	Additions int
	Deletions int
	OldHash   string
	NewHash   string
}

// Engine computes line diffs with a fixed amount of surrounding context.
type Engine struct {
	contextLines int
}

// NewEngine creates an Engine that surfaces n lines of context around each
// hunk.
func NewEngine(contextLines int) *Engine {
	return &Engine{contextLines: contextLines}
}

// Compare diffs oldContent against newContent.
func (e *Engine) Compare(oldContent, newContent []byte) *Result {
	oldLines := bytes.Split(bytes.TrimSuffix(oldContent, []byte{'\n'}), []byte{'\n'})
	newLines := bytes.Split(bytes.TrimSuffix(newContent, []byte{'\n'}), []byte{'\n'})
	oldHashes, newHashes := hashLines(oldLines), hashLines(newLines)

	table := buildLCSTable(oldLines, newLines, oldHashes, newHashes)
	hunks := walkLCSTable(oldLines, newLines, oldHashes, newHashes, table)
	result := &Result{Hunks: e.addContext(hunks, oldLines)}

	for _, hunk := range result.Hunks {
		for _, line := range hunk.Lines {
			switch line.Kind {
			case Addition:
				result.Additions++
			case Deletion:
				result.Deletions++
			}
		}
	}

	return result
}

// CompareBlobs diffs the blobs backing two commit-level file entries,
// resolving their content through store. Either hash may be empty,
// representing the file's absence (addition or deletion). Identical hashes
// mean identical content under content addressing, so that case returns an
// empty Result without touching the blob pool at all.
func (e *Engine) CompareBlobs(store *object.Store, oldHash, newHash string) *Result {
	if oldHash == newHash {
		return &Result{OldHash: oldHash, NewHash: newHash}
	}

	var oldContent, newContent []byte
	if oldHash != "" {
		oldContent = store.GetBlob(oldHash)
	}
	if newHash != "" {
		newContent = store.GetBlob(newHash)
	}

	result := e.Compare(oldContent, newContent)
	result.OldHash, result.NewHash = oldHash, newHash
	return result
}

// lineHash is a cheap, non-cryptographic fingerprint of a single line,
// used to short-circuit the O(n*m) equality checks the LCS walk otherwise
// makes; it is not collision-resistant, so every comparison that finds
// hashes equal still falls back to a byte comparison before treating the
// lines as identical.
type lineHash uint64

func hashLine(line []byte) lineHash {
	h := fnv.New64a()
	h.Write(line)
	return lineHash(h.Sum64())
}

func hashLines(lines [][]byte) []lineHash {
	hashes := make([]lineHash, len(lines))
	for i, line := range lines {
		hashes[i] = hashLine(line)
	}
	return hashes
}

func linesEqual(oldLines, newLines [][]byte, oldHashes, newHashes []lineHash, i, j int) bool {
	return oldHashes[i] == newHashes[j] && bytes.Equal(oldLines[i], newLines[j])
}

func buildLCSTable(oldLines, newLines [][]byte, oldHashes, newHashes []lineHash) [][]int {
	table := make([][]int, len(oldLines)+1)
	for i := range table {
		table[i] = make([]int, len(newLines)+1)
	}

	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if linesEqual(oldLines, newLines, oldHashes, newHashes, i-1, j-1) {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}

	return table
}

func walkLCSTable(oldLines, newLines [][]byte, oldHashes, newHashes []lineHash, table [][]int) []Hunk {
	var hunks []Hunk
	var current *Hunk

	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && linesEqual(oldLines, newLines, oldHashes, newHashes, i-1, j-1):
			if current != nil {
				hunks = append([]Hunk{*current}, hunks...)
				current = nil
			}
			i--
			j--
		case j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]):
			if current == nil {
				current = &Hunk{}
			}
			current.Lines = append([]Line{{Kind: Addition, Content: string(newLines[j-1])}}, current.Lines...)
			current.NewLines++
			j--
		case i > 0 && (j == 0 || table[i][j-1] < table[i-1][j]):
			if current == nil {
				current = &Hunk{}
			}
			current.Lines = append([]Line{{Kind: Deletion, Content: string(oldLines[i-1])}}, current.Lines...)
			current.OldLines++
			i--
		}

		if current != nil {
			current.OldStart, current.NewStart = i, j
		}
	}

	if current != nil {
		hunks = append([]Hunk{*current}, hunks...)
	}
	return hunks
}

// addContext pads each hunk with up to e.contextLines of surrounding
// unchanged lines on either side, clamped at the file's ends and at the
// neighboring hunk's own context so two hunks never claim the same line.
// The teacher's version only ever padded the trailing edge of non-last
// hunks, silently dropping end-of-file context off the last hunk; blobs
// here are whole-file snapshots rather than HTTP diff payloads that always
// ended mid-stream, so that truncation is a real miss this package needs
// to fix rather than carry forward.
func (e *Engine) addContext(hunks []Hunk, oldLines [][]byte) []Hunk {
	if e.contextLines == 0 {
		return hunks
	}

	result := make([]Hunk, 0, len(hunks))
	claimed := 0 // end of the previous hunk's trailing context
	for i, hunk := range hunks {
		leadStart := max(claimed, hunk.OldStart-e.contextLines)
		for k := hunk.OldStart - 1; k >= leadStart; k-- {
			hunk.Lines = append([]Line{{Kind: Context, Content: string(oldLines[k])}}, hunk.Lines...)
		}

		trailEnd := min(len(oldLines), hunk.OldStart+hunk.OldLines+e.contextLines)
		if i < len(hunks)-1 {
			trailEnd = min(trailEnd, hunks[i+1].OldStart)
		}
		for k := hunk.OldStart + hunk.OldLines; k < trailEnd; k++ {
			hunk.Lines = append(hunk.Lines, Line{Kind: Context, Content: string(oldLines[k])})
		}
		claimed = trailEnd

		result = append(result, hunk)
	}

	return result
}

// Format renders the diff in a unified-diff-like text form. When the
// Result came from CompareBlobs, the header line also carries the short
// content addresses of the two blobs being compared.
func (r *Result) Format() string {
	var buf bytes.Buffer

	if r.OldHash != "" || r.NewHash != "" {
		fmt.Fprintf(&buf, "diff %s..%s\n", object.ShortID(r.OldHash), object.ShortID(r.NewHash))
	}

	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines)
		for _, line := range hunk.Lines {
			switch line.Kind {
			case Addition:
				buf.WriteString("+ ")
			case Deletion:
				buf.WriteString("- ")
			case Context:
				buf.WriteString("  ")
			}
			buf.WriteString(line.Content)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
