package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/middleware"
	"github.com/pageza/mealforge/internal/service"
	"github.com/pageza/mealforge/internal/types"
)

// RecipeHandler handles recipe generation requests
type RecipeHandler struct {
	pipeline service.PipelineRunner
	limiter  service.Limiter
	logger   *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(pipeline service.PipelineRunner, limiter service.Limiter, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		pipeline: pipeline,
		limiter:  limiter,
		logger:   logger,
	}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/generate", h.Generate)
		recipes.GET("/usage", h.Usage)
	}
}

// Generate handles recipe generation requests
func (h *RecipeHandler) Generate(c *gin.Context) {
	var req types.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  apperr.CodeValidationFailed,
		})
		return
	}

	kept := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if strings.TrimSpace(ing) != "" {
			kept = append(kept, ing)
		}
	}
	if len(kept) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "at least one ingredient is required",
			"code":  apperr.CodeValidationFailed,
		})
		return
	}
	req.Ingredients = kept

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "unauthorized",
			"code":  apperr.CodeUnauthorized,
		})
		return
	}
	req.Identity = identity
	req.Normalize()

	result := h.pipeline.Run(c.Request.Context(), &req)
	switch result.Status {
	case types.StatusDone:
		c.JSON(http.StatusOK, types.GenerateResponse{
			RequestID: result.RequestID,
			Recipes:   result.Recipes,
			Cached:    result.Cached,
		})
	case types.StatusRateLimited:
		h.writeRateLimited(c, result)
	default:
		h.writeFailure(c, result)
	}
}

// Usage reports the caller's rate-limit consumption without charging
// a request.
func (h *RecipeHandler) Usage(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "unauthorized",
			"code":  apperr.CodeUnauthorized,
		})
		return
	}

	d := h.limiter.Peek(c.Request.Context(), identity)
	c.JSON(http.StatusOK, types.UsageResponse{
		UsedToday: d.Used,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetsAt:  d.ResetsAt.UTC().Format(time.RFC3339),
	})
}

func (h *RecipeHandler) writeRateLimited(c *gin.Context, result types.PipelineResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	if !result.ResetsAt.IsZero() {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetsAt.Unix(), 10))
	}
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":      "daily request limit reached",
		"code":       apperr.CodeRateLimitExceeded,
		"used_today": result.UsedToday,
		"limit":      result.Limit,
		"request_id": result.RequestID,
	})
}

func (h *RecipeHandler) writeFailure(c *gin.Context, result types.PipelineResult) {
	appErr := apperr.FromError(result.Err)
	h.logger.Error("generation request failed",
		zap.String("request_id", result.RequestID),
		zap.String("reason", result.FailureReason),
		zap.Error(result.Err))
	c.JSON(appErr.StatusCode(), gin.H{
		"error":      appErr.Message,
		"code":       appErr.Code,
		"request_id": result.RequestID,
	})
}
