package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is the read model of a catalog product as published by the product catalog service.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`    // TRY
	Currency    string          `json:"currency"` // informational only
	Stock       int             `json:"stock"`    // may go negative after concurrent orders
	IsActive    *bool           `json:"isActive,omitempty"`
	Attributes  TermAssignments `json:"attributes,omitempty"` // attributeId -> termId
}

// TermAssignments maps attributeId -> termId.
type TermAssignments map[string]string

// UnmarshalJSON keeps string values only. Anything else, including a non-object, counts as unassigned.
func (a *TermAssignments) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*a = nil
		return nil
	}

	out := make(TermAssignments, len(raw))
	for attributeID, value := range raw {
		if termID, ok := value.(string); ok {
			out[attributeID] = termID
		}
	}
	*a = out
	return nil
}

// IsVisible reports whether the product may be shown at all. Products written before the
// active flag existed have no value and count as active.
func (p Product) IsVisible() bool {
	return p.IsActive == nil || *p.IsActive
}

// TermFor returns the term assigned for attributeID, if any.
func (p Product) TermFor(attributeID string) (string, bool) {
	termID, ok := p.Attributes[attributeID]
	if !ok || termID == "" {
		return "", false
	}
	return termID, true
}
