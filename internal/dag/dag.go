// Package dag implements depth-first history enumeration and
// lowest-common-ancestor discovery over the commit DAG, translated from
// the original GraphAlgorithms' explicit stack/queue traversal into Go
// slices used as a stack and a queue.
package dag

import "github.com/alpdik/tri/internal/object"

// HistoryDFS returns the commits reachable from start along parent edges,
// in depth-first, first-discovered order. The returned slice is already in
// pop-from-stack order: its first element is start itself, so iterating it
// front to back walks from newest to oldest.
func HistoryDFS(store *object.Store, start string) []*object.Commit {
	var history []*object.Commit
	if start == "" {
		return history
	}

	startCommit, ok := store.GetCommit(start)
	if !ok {
		return history
	}

	visited := map[string]bool{startCommit.ID: true}
	stack := []*object.Commit{startCommit}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		history = append(history, curr)

		if curr.Parent1 != "" && !visited[curr.Parent1] {
			if p1, ok := store.GetCommit(curr.Parent1); ok {
				visited[curr.Parent1] = true
				stack = append(stack, p1)
			}
		}
		if curr.Parent2 != "" && !visited[curr.Parent2] {
			if p2, ok := store.GetCommit(curr.Parent2); ok {
				visited[curr.Parent2] = true
				stack = append(stack, p2)
			}
		}
	}

	return history
}

// FindMergeBase returns a lowest common ancestor of a and b, found by
// BFS-ing the full ancestry of a, then BFS-ing from b until the first
// commit already visited by a's BFS. It is not necessarily the unique LCA
// in a criss-cross history; see spec's design notes on recursive LCA.
func FindMergeBase(store *object.Store, a, b string) (*object.Commit, bool) {
	if a == "" || b == "" {
		return nil, false
	}
	if a == b {
		c, ok := store.GetCommit(a)
		return c, ok
	}

	ca, ok := store.GetCommit(a)
	if !ok {
		return nil, false
	}
	cb, ok := store.GetCommit(b)
	if !ok {
		return nil, false
	}

	ancestorsOfA := map[string]bool{ca.ID: true}
	queue := []*object.Commit{ca}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, parentID := range []string{curr.Parent1, curr.Parent2} {
			if parentID == "" || ancestorsOfA[parentID] {
				continue
			}
			if p, ok := store.GetCommit(parentID); ok {
				ancestorsOfA[parentID] = true
				queue = append(queue, p)
			}
		}
	}

	visitedB := map[string]bool{cb.ID: true}
	queue = []*object.Commit{cb}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if ancestorsOfA[curr.ID] {
			return curr, true
		}

		for _, parentID := range []string{curr.Parent1, curr.Parent2} {
			if parentID == "" || visitedB[parentID] {
				continue
			}
			if p, ok := store.GetCommit(parentID); ok {
				visitedB[parentID] = true
				queue = append(queue, p)
			}
		}
	}

	return nil, false
}
