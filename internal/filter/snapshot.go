package filter

import (
	"storefront/catalog/internal/domain"
)

// Snapshot is a read-only copy of the attribute registry and term store taken at the
// start of a filtering session. It is never mutated after construction, so it can be
// shared between concurrent filter passes.
type Snapshot struct {
	attributes map[string]domain.Attribute
	order      []string
	terms      map[string][]domain.Term
}

// NewSnapshot copies attributes and terms. attributes keeps its order for Attributes().
func NewSnapshot(attributes []domain.Attribute, terms map[string][]domain.Term) *Snapshot {
	s := &Snapshot{
		attributes: make(map[string]domain.Attribute, len(attributes)),
		order:      make([]string, 0, len(attributes)),
		terms:      make(map[string][]domain.Term, len(terms)),
	}
	for _, a := range attributes {
		if _, dup := s.attributes[a.ID]; !dup {
			s.order = append(s.order, a.ID)
		}
		s.attributes[a.ID] = a
	}
	for attrID, list := range terms {
		cp := make([]domain.Term, len(list))
		copy(cp, list)
		s.terms[attrID] = cp
	}
	return s
}

// EmptySnapshot is what filtering runs against before the taxonomy has loaded.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil)
}

func (s *Snapshot) Attribute(id string) (domain.Attribute, bool) {
	if s == nil {
		return domain.Attribute{}, false
	}
	a, ok := s.attributes[id]
	return a, ok
}

// Attributes returns the attributes in the order they were loaded.
func (s *Snapshot) Attributes() []domain.Attribute {
	if s == nil {
		return nil
	}
	out := make([]domain.Attribute, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.attributes[id])
	}
	return out
}

// Terms returns the terms of one attribute. The slice must not be modified.
func (s *Snapshot) Terms(attributeID string) []domain.Term {
	if s == nil {
		return nil
	}
	return s.terms[attributeID]
}

func (s *Snapshot) IsHierarchical(attributeID string) bool {
	a, ok := s.Attribute(attributeID)
	return ok && a.IsHierarchical
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
