// Package taxonomy holds the pure tree logic over attribute terms: descendant
// resolution and nested tree views. Terms are kept as a flat arena indexed by id;
// children are always derived from ParentID on demand.
package taxonomy

import "storefront/catalog/internal/domain"

// ChildrenIndex partitions terms by parent id. Root terms are stored under "".
func ChildrenIndex(terms []domain.Term) map[string][]domain.Term {
	index := make(map[string][]domain.Term, len(terms))
	for _, t := range terms {
		parent := t.Parent()
		index[parent] = append(index[parent], t)
	}
	return index
}

// DescendantsOf returns the ids of every term transitively below rootID.
// rootID itself is never included. Each id is visited at most once, so a parent
// cycle in corrupt data stops the expansion instead of looping forever.
func DescendantsOf(terms []domain.Term, rootID string) map[string]struct{} {
	return descendants(ChildrenIndex(terms), rootID)
}

func descendants(children map[string][]domain.Term, rootID string) map[string]struct{} {
	found := make(map[string]struct{})
	if rootID == "" {
		return found
	}

	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range children[current] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			found[child.ID] = struct{}{}
			queue = append(queue, child.ID)
		}
	}
	return found
}

// Closure returns {rootID} ∪ DescendantsOf(terms, rootID).
func Closure(terms []domain.Term, rootID string) map[string]struct{} {
	set := DescendantsOf(terms, rootID)
	set[rootID] = struct{}{}
	return set
}
