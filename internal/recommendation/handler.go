package recommendation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dustin/foodrec-backend/internal/vectorindex"
)

// Handler handles HTTP requests for recommendation operations
type Handler struct {
	service Service
	gateway vectorindex.Gateway
}

// NewHandler creates a new recommendation handler
func NewHandler(service Service, gateway vectorindex.Gateway) *Handler {
	return &Handler{
		service: service,
		gateway: gateway,
	}
}

// RecommendByProduct handles product-based recommendation requests
func (h *Handler) RecommendByProduct(c *gin.Context) {
	var req ProductBasedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.RecommendByProduct(c.Request.Context(), req.ProductID, req.Limit)
	if err != nil {
		if errors.Is(err, ErrSystemFailure) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recommendation system temporarily unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// RecommendByUser handles user-based recommendation requests
func (h *Handler) RecommendByUser(c *gin.Context) {
	var req UserBasedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.RecommendByUser(c.Request.Context(), req.UserID, req.Events, req.Limit)
	if err != nil {
		if errors.Is(err, ErrSystemFailure) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recommendation system temporarily unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Health reports whether the recommendation pipeline can personalize right now
func (h *Handler) Health(c *gin.Context) {
	available := h.gateway.IsAvailable(c.Request.Context())
	status := "healthy"
	indexed := 0
	if available {
		if count, err := h.gateway.Count(c.Request.Context()); err == nil {
			indexed = count
		}
	} else {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                 status,
		"vector_index_available": available,
		"indexed_products":       indexed,
	})
}

// RegisterRoutes registers all recommendation routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	recommendations := router.Group("/recommendations")
	recommendations.GET("/health", h.Health)
	recommendations.Use(authMiddleware)
	{
		recommendations.POST("/product-based", h.RecommendByProduct)
		recommendations.POST("/user-based", h.RecommendByUser)
	}
}
