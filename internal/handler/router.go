package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/catalog/internal/auth"
)

func NewRouter(store *StoreHandler, admin *AdminHandler, verifier auth.Verifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, SuccessResponse(c, "ok", nil))
	})

	api := r.Group("/api/v1")

	storefront := api.Group("/store")
	{
		storefront.GET("/filters", store.GetFilters)
		storefront.GET("/products", store.GetProducts)
		storefront.GET("/products/stream", store.StreamProducts)
		storefront.GET("/products/:id", store.GetProduct)
	}

	cms := api.Group("/admin", AdminOnly(verifier))
	{
		cms.GET("/attributes", admin.ListAttributes)
		cms.POST("/attributes", admin.CreateAttribute)
		cms.PATCH("/attributes/:id", admin.UpdateAttribute)
		cms.DELETE("/attributes/:id", admin.DeleteAttribute)
		cms.GET("/attributes/:id/terms", admin.ListTerms)
		cms.POST("/attributes/:id/terms", admin.CreateTerm)
		cms.PATCH("/terms/:id", admin.RenameTerm)
		cms.DELETE("/terms/:id", admin.DeleteTerm)
		cms.GET("/product-form/attributes", admin.ProductFormAttributes)
	}

	return r
}
