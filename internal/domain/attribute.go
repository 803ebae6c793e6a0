package domain

// SelectionType governs how a shopper may constrain an attribute.
type SelectionType string

func (s SelectionType) String() string {
	return string(s)
}

const (
	SelectionTypeSingle SelectionType = "select"
	SelectionTypeMulti  SelectionType = "multiselect"
	SelectionTypeRange  SelectionType = "range"
)

var SelectionTypes = []SelectionType{
	SelectionTypeSingle,
	SelectionTypeMulti,
	SelectionTypeRange,
}

func (s SelectionType) IsValid() bool {
	for _, t := range SelectionTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Attribute is an administrator-defined product dimension such as "Category" or "Roast".
type Attribute struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SelectionType  SelectionType `json:"type"`
	IsHierarchical bool          `json:"isHierarchical"`
	IsActive       bool          `json:"isActive"`
}

// AttributeUpdate carries the fields of a partial attribute update. Nil fields are left untouched.
type AttributeUpdate struct {
	Name           *string        `json:"name,omitempty"`
	SelectionType  *SelectionType `json:"type,omitempty"`
	IsHierarchical *bool          `json:"isHierarchical,omitempty"`
	IsActive       *bool          `json:"isActive,omitempty"`
}

func (u AttributeUpdate) IsEmpty() bool {
	return u.Name == nil && u.SelectionType == nil && u.IsHierarchical == nil && u.IsActive == nil
}
