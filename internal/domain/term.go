package domain

// Term is one value of an attribute. Terms of a hierarchical attribute form a forest through ParentID.
type Term struct {
	ID          string   `json:"id"`
	AttributeID string   `json:"attributeId"`
	Name        string   `json:"name"`
	ParentID    *string  `json:"parentId"`
	Path        []string `json:"path"` // ancestor ids, root first, excluding self
}

func (t Term) IsRoot() bool {
	return t.ParentID == nil || *t.ParentID == ""
}

// Parent returns the parent id, or "" for a root term.
func (t Term) Parent() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// ChildPath is the path a direct child of t must carry.
func (t Term) ChildPath() []string {
	path := make([]string, 0, len(t.Path)+1)
	path = append(path, t.Path...)
	return append(path, t.ID)
}
