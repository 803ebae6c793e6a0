package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/filter"
	"storefront/catalog/internal/service"
)

// Taxonomy is what the storefront reads of the attribute registry and term trees.
type Taxonomy interface {
	LoadSnapshot(ctx context.Context) *filter.Snapshot
	FilterAttributes(ctx context.Context) []service.FilterAttribute
	OnChange(fn func()) (cancel func())
}

// Catalog is the live product projection.
type Catalog interface {
	Products() []domain.Product
	Product(ctx context.Context, id string) (*domain.Product, error)
	Subscribe(fn func([]domain.Product)) (unsubscribe func())
}

type productList struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
}

type StoreHandler struct {
	taxonomy Taxonomy
	catalog  Catalog
}

func NewStoreHandler(taxonomy Taxonomy, catalog Catalog) *StoreHandler {
	return &StoreHandler{
		taxonomy: taxonomy,
		catalog:  catalog,
	}
}

// GetFilters returns the sidebar. A failed taxonomy load yields an empty list rather than an error.
func (h *StoreHandler) GetFilters(c *gin.Context) {
	attributes := h.taxonomy.FilterAttributes(c.Request.Context())
	c.JSON(http.StatusOK, SuccessResponse(c, "Filters retrieved successfully", attributes))
}

func (h *StoreHandler) GetProducts(c *gin.Context) {
	snapshot := h.taxonomy.LoadSnapshot(c.Request.Context())
	selection := activeOnly(parseSelection(c), snapshot)

	products := filter.Filter(h.catalog.Products(), selection, snapshot)
	c.JSON(http.StatusOK, SuccessResponse(c, "Products retrieved successfully", productList{
		Items: products,
		Total: len(products),
	}))
}

func (h *StoreHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(c, "Product retrieved successfully", product))
}

// StreamProducts pushes the filtered product list as server-sent events, once on connect
// and again whenever the product projection or the taxonomy changes.
func (h *StoreHandler) StreamProducts(c *gin.Context) {
	ctx := c.Request.Context()

	// Only the latest result matters; a slow client skips intermediate ones.
	updates := make(chan []domain.Product, 1)
	session := filter.NewSession(func(result []domain.Product) {
		select {
		case <-updates:
		default:
		}
		updates <- result
	})

	requested := parseSelection(c)
	snapshot := h.taxonomy.LoadSnapshot(ctx)
	session.SetSnapshot(snapshot)
	session.SetSelection(activeOnly(requested, snapshot))

	unsubscribe := h.catalog.Subscribe(func(products []domain.Product) {
		session.SetProducts(products)
	})
	defer unsubscribe()

	cancel := h.taxonomy.OnChange(func() {
		snapshot := h.taxonomy.LoadSnapshot(context.WithoutCancel(ctx))
		session.SetSnapshot(snapshot)
		session.SetSelection(activeOnly(requested, snapshot))
	})
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case products := <-updates:
			c.SSEvent("products", productList{Items: products, Total: len(products)})
			return true
		}
	})
}

// parseSelection reads q, minPrice, maxPrice and attr[<attributeId>]=<termId>. Unparseable prices are ignored.
func parseSelection(c *gin.Context) domain.Selection {
	selection := domain.NewSelection().WithSearch(c.Query("q"))

	lower := parseDecimal(c.Query("minPrice"))
	upper := parseDecimal(c.Query("maxPrice"))
	selection = selection.WithPriceRange(lower, upper)

	for attributeID, termID := range c.QueryMap("attr") {
		selection = selection.Select(attributeID, termID)
	}

	return selection
}

// activeOnly drops constraints on attributes the snapshot does not carry. The storefront
// snapshot holds active attributes only, so inactive and unknown attributes never narrow results.
func activeOnly(selection domain.Selection, snapshot *filter.Snapshot) domain.Selection {
	for _, attributeID := range selection.ConstraintAttributes() {
		if _, ok := snapshot.Attribute(attributeID); !ok {
			selection = selection.Clear(attributeID)
		}
	}
	return selection
}

func parseDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
