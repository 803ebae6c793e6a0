package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Selection is the shopper's current filter state. It is an immutable value: every
// mutator returns a new Selection and leaves the receiver untouched.
type Selection struct {
	searchText  string
	priceMin    *decimal.Decimal
	priceMax    *decimal.Decimal
	constraints map[string]string // attributeId -> termId
}

// NewSelection returns an empty selection that matches every visible product.
func NewSelection() Selection {
	return Selection{}
}

func (s Selection) SearchText() string {
	return s.searchText
}

// PriceMin returns the inclusive lower bound, if set.
func (s Selection) PriceMin() (decimal.Decimal, bool) {
	if s.priceMin == nil {
		return decimal.Zero, false
	}
	return *s.priceMin, true
}

// PriceMax returns the inclusive upper bound, if set.
func (s Selection) PriceMax() (decimal.Decimal, bool) {
	if s.priceMax == nil {
		return decimal.Zero, false
	}
	return *s.priceMax, true
}

// Constraint returns the term selected for attributeID.
func (s Selection) Constraint(attributeID string) (string, bool) {
	termID, ok := s.constraints[attributeID]
	return termID, ok
}

// Constraints returns a copy of the attributeId -> termId map.
func (s Selection) Constraints() map[string]string {
	out := make(map[string]string, len(s.constraints))
	for k, v := range s.constraints {
		out[k] = v
	}
	return out
}

// ConstraintAttributes returns the constrained attribute ids in a stable order.
func (s Selection) ConstraintAttributes() []string {
	ids := make([]string, 0, len(s.constraints))
	for id := range s.constraints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Selection) IsEmpty() bool {
	return s.searchText == "" && s.priceMin == nil && s.priceMax == nil && len(s.constraints) == 0
}

func (s Selection) WithSearch(text string) Selection {
	next := s.clone()
	next.searchText = text
	return next
}

// WithPriceRange sets both bounds. A nil bound removes it.
func (s Selection) WithPriceRange(lower, upper *decimal.Decimal) Selection {
	next := s.clone()
	next.priceMin = copyDecimal(lower)
	next.priceMax = copyDecimal(upper)
	return next
}

// Select constrains attributeID to termID, replacing any previous term for it.
// An empty termID removes the constraint.
func (s Selection) Select(attributeID, termID string) Selection {
	next := s.clone()
	if termID == "" {
		delete(next.constraints, attributeID)
		return next
	}
	next.constraints[attributeID] = termID
	return next
}

// Toggle selects termID for attributeID, or clears the attribute when termID is
// already the selected term. Selection is exclusive per attribute.
func (s Selection) Toggle(attributeID, termID string) Selection {
	if current, ok := s.constraints[attributeID]; ok && current == termID {
		return s.Select(attributeID, "")
	}
	return s.Select(attributeID, termID)
}

// Clear drops the constraint for attributeID.
func (s Selection) Clear(attributeID string) Selection {
	return s.Select(attributeID, "")
}

func (s Selection) clone() Selection {
	next := Selection{
		searchText:  s.searchText,
		priceMin:    copyDecimal(s.priceMin),
		priceMax:    copyDecimal(s.priceMax),
		constraints: make(map[string]string, len(s.constraints)+1),
	}
	for k, v := range s.constraints {
		next.constraints[k] = v
	}
	return next
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
