package event

const TaxonomyChangedType = "TaxonomyChanged"

// TaxonomyChanged is published after an administrator mutates attributes or terms.
type TaxonomyChanged struct {
	AttributeID string `json:"attribute_id"`
	TermID      string `json:"term_id,omitempty"`
	Action      string `json:"action"` // "create", "update", "delete"
}

func (e *TaxonomyChanged) EventType() string {
	return TaxonomyChangedType
}

func (e *TaxonomyChanged) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
