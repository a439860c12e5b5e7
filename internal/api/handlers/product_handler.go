package handlers

import (
	"net/http"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	service *service.ProductService
}

func NewProductHandler(service *service.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

type createProductRequest struct {
	SKU      string   `json:"sku" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Category string   `json:"category"`
	UnitCost *float64 `json:"unit_cost"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product := &domain.Product{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: req.Category,
		UnitCost: req.UnitCost,
	}
	if err := h.service.Create(c.Request.Context(), product); err != nil {
		respondError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var update domain.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product, err := h.service.Update(c.Request.Context(), c.Param("sku"), update)
	if err != nil {
		respondError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}
