// Package filter implements the storefront catalog filter: free text, price bounds and
// per-attribute term constraints, with descendant-inclusive matching for hierarchical attributes.
package filter

import (
	"strings"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/taxonomy"
)

type predicate func(domain.Product) bool

// Filter returns the products that satisfy every part of sel, in input order.
// It never fails: products missing a field, terms that no longer exist and attributes
// unknown to the snapshot simply do not match. A nil snapshot behaves as an empty one.
func Filter(products []domain.Product, sel domain.Selection, snap *Snapshot) []domain.Product {
	preds := predicates(sel, snap)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matchesAll(p, preds) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAll(p domain.Product, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// predicates builds the stages cheapest first: text, price, then attribute constraints.
func predicates(sel domain.Selection, snap *Snapshot) []predicate {
	var preds []predicate

	if text := sel.SearchText(); text != "" {
		preds = append(preds, textPredicate(text))
	}
	if lower, ok := sel.PriceMin(); ok {
		preds = append(preds, func(p domain.Product) bool {
			return p.Price.GreaterThanOrEqual(lower)
		})
	}
	if upper, ok := sel.PriceMax(); ok {
		preds = append(preds, func(p domain.Product) bool {
			return p.Price.LessThanOrEqual(upper)
		})
	}
	for _, attributeID := range sel.ConstraintAttributes() {
		termID, _ := sel.Constraint(attributeID)
		preds = append(preds, constraintPredicate(attributeID, ValidTerms(snap, attributeID, termID)))
	}
	return preds
}

func textPredicate(text string) predicate {
	needle := strings.ToLower(text)
	return func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	}
}

func constraintPredicate(attributeID string, valid map[string]struct{}) predicate {
	return func(p domain.Product) bool {
		termID, ok := p.TermFor(attributeID)
		if !ok {
			return false
		}
		_, hit := valid[termID]
		return hit
	}
}

// ValidTerms is the set of term ids that satisfy selecting termID for attributeID:
// the term plus all its descendants when the attribute is hierarchical, the term alone otherwise.
func ValidTerms(snap *Snapshot, attributeID, termID string) map[string]struct{} {
	if snap.IsHierarchical(attributeID) {
		return taxonomy.Closure(snap.Terms(attributeID), termID)
	}
	return map[string]struct{}{termID: {}}
}
