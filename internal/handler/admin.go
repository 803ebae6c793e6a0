package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/service"
)

// TaxonomyAdmin is the administrator's view of the attribute registry and term store.
type TaxonomyAdmin interface {
	ListAttributes(ctx context.Context, activeOnly bool) ([]domain.Attribute, error)
	CreateAttribute(ctx context.Context, in service.AttributeInput) (*domain.Attribute, error)
	UpdateAttribute(ctx context.Context, id string, update domain.AttributeUpdate) (*domain.Attribute, error)
	DeleteAttribute(ctx context.Context, id string) error
	ListTerms(ctx context.Context, attributeID string) ([]domain.Term, error)
	CreateTerm(ctx context.Context, attributeID string, in service.TermInput) (*domain.Term, error)
	RenameTerm(ctx context.Context, id, name string) (*domain.Term, error)
	DeleteTerm(ctx context.Context, id string) error
	ProductFormAttributes(ctx context.Context) ([]service.FormAttribute, error)
}

type AdminHandler struct {
	taxonomy TaxonomyAdmin
}

func NewAdminHandler(taxonomy TaxonomyAdmin) *AdminHandler {
	return &AdminHandler{
		taxonomy: taxonomy,
	}
}

// ListAttributes returns every attribute; ?active=true limits it to active ones.
func (h *AdminHandler) ListAttributes(c *gin.Context) {
	attributes, err := h.taxonomy.ListAttributes(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(c, "Attributes retrieved successfully", attributes))
}

func (h *AdminHandler) CreateAttribute(c *gin.Context) {
	var in service.AttributeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse(c, "Invalid request body"))
		return
	}

	attribute, err := h.taxonomy.CreateAttribute(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Attribute %s created", attribute.ID)
	c.JSON(http.StatusCreated, SuccessResponse(c, "Attribute created successfully", attribute))
}

func (h *AdminHandler) UpdateAttribute(c *gin.Context) {
	var update domain.AttributeUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse(c, "Invalid request body"))
		return
	}

	attribute, err := h.taxonomy.UpdateAttribute(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Attribute %s updated", attribute.ID)
	c.JSON(http.StatusOK, SuccessResponse(c, "Attribute updated successfully", attribute))
}

func (h *AdminHandler) DeleteAttribute(c *gin.Context) {
	if err := h.taxonomy.DeleteAttribute(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Attribute %s deleted", c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse(c, "Attribute deleted successfully", nil))
}

func (h *AdminHandler) ListTerms(c *gin.Context) {
	terms, err := h.taxonomy.ListTerms(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(c, "Terms retrieved successfully", terms))
}

func (h *AdminHandler) CreateTerm(c *gin.Context) {
	var in service.TermInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse(c, "Invalid request body"))
		return
	}

	term, err := h.taxonomy.CreateTerm(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Term %s created under attribute %s", term.ID, term.AttributeID)
	c.JSON(http.StatusCreated, SuccessResponse(c, "Term created successfully", term))
}

func (h *AdminHandler) RenameTerm(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse(c, "Invalid request body"))
		return
	}

	term, err := h.taxonomy.RenameTerm(c.Request.Context(), c.Param("id"), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Term %s renamed", term.ID)
	c.JSON(http.StatusOK, SuccessResponse(c, "Term updated successfully", term))
}

func (h *AdminHandler) DeleteTerm(c *gin.Context) {
	if err := h.taxonomy.DeleteTerm(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	audit(c).Infof("🛠️ Term %s deleted", c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse(c, "Term deleted successfully", nil))
}

func (h *AdminHandler) ProductFormAttributes(c *gin.Context) {
	attributes, err := h.taxonomy.ProductFormAttributes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(c, "Product form attributes retrieved successfully", attributes))
}
