package taxonomy

import (
	"sort"
	"strings"

	"storefront/catalog/internal/domain"
)

// Node is a term with its children resolved, used to render filter sidebars and the admin tree.
type Node struct {
	domain.Term
	Children []*Node `json:"children,omitempty"`
}

// BuildTree nests terms by ParentID. Terms whose parent is absent from the input
// (deleted parent, cross-attribute parent) are promoted to roots so they stay reachable.
// Siblings are ordered by name. Terms caught in a parent cycle are emitted once as roots.
func BuildTree(terms []domain.Term) []*Node {
	byID := make(map[string]domain.Term, len(terms))
	for _, t := range terms {
		byID[t.ID] = t
	}

	children := make(map[string][]domain.Term, len(terms))
	var roots []domain.Term
	for _, t := range terms {
		if _, ok := byID[t.Parent()]; t.IsRoot() || !ok {
			roots = append(roots, t)
			continue
		}
		children[t.Parent()] = append(children[t.Parent()], t)
	}

	placed := make(map[string]struct{}, len(terms))
	var build func(t domain.Term) *Node
	build = func(t domain.Term) *Node {
		placed[t.ID] = struct{}{}
		node := &Node{Term: t}
		kids := children[t.ID]
		sortByName(kids)
		for _, c := range kids {
			if _, seen := placed[c.ID]; seen {
				continue
			}
			node.Children = append(node.Children, build(c))
		}
		return node
	}

	sortByName(roots)
	out := make([]*Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}

	// Anything left unplaced sits on a cycle with no way in from a root.
	var stranded []domain.Term
	for _, t := range terms {
		if _, ok := placed[t.ID]; !ok {
			stranded = append(stranded, t)
		}
	}
	sortByName(stranded)
	for _, t := range stranded {
		if _, ok := placed[t.ID]; ok {
			continue
		}
		out = append(out, build(t))
	}
	return out
}

// Flatten lists the terms of a tree depth-first.
func Flatten(nodes []*Node) []domain.Term {
	var out []domain.Term
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n.Term)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// SortTerms orders terms by name, case-insensitively, then by id.
func SortTerms(terms []domain.Term) {
	sortByName(terms)
}

func sortByName(terms []domain.Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		a, b := strings.ToLower(terms[i].Name), strings.ToLower(terms[j].Name)
		if a != b {
			return a < b
		}
		return terms[i].ID < terms[j].ID
	})
}
