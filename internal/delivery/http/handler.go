package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutriground/backend/internal/domain"
)

// GroundingService is the use case surface the handlers need.
type GroundingService interface {
	Ground(ctx context.Context, ingredients []domain.RawIngredient) (*domain.GroundingResult, error)
}

// GroundRequest is the payload for POST /api/v1/ground.
type GroundRequest struct {
	Ingredients []domain.RawIngredient `json:"ingredients" binding:"required"`
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	grounding GroundingService
	logger    *zap.Logger
}

func NewHandler(grounding GroundingService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{grounding: grounding, logger: logger}
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriground-backend",
		"version": "1.0.0",
	})
}

// Ground grounds a batch of ingredients and returns the scaled meal,
// validation report, and explainability trail.
func (h *Handler) Ground(c *gin.Context) {
	var req GroundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.grounding.Ground(c.Request.Context(), req.Ingredients)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidIngredient):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("grounding failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
