package event

const ProductsChangedType = "ProductsChanged"

// ProductsChanged is published by the product catalog service whenever products are written.
// Consumers always reload the full product list; ProductIDs is informational.
type ProductsChanged struct {
	ProductIDs []string `json:"product_ids,omitempty"`
	Reason     string   `json:"reason,omitempty"` // "update", "order", "delete", ...
}

func (e *ProductsChanged) EventType() string {
	return ProductsChangedType
}

func (e *ProductsChanged) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
