package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for product catalog operations
type Handler struct {
	service Service
}

// NewHandler creates a new product handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterProduct handles product ingestion
func (h *Handler) RegisterProduct(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register product"})
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		AnalysisID: uuid.New().String(),
		Product:    product,
		Message:    "product registered, indexing in progress",
	})
}

// GetProduct handles fetching a single product
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles product removal
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// RegisterRoutes registers all product routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	products := router.Group("/products")
	products.Use(authMiddleware)
	{
		products.POST("", h.RegisterProduct)
		products.GET("/:id", h.GetProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}
