package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/middleware"
	"github.com/pageza/mealforge/internal/mocks"
	"github.com/pageza/mealforge/internal/service"
	"github.com/pageza/mealforge/internal/types"
)

func setupRecipeRouter(pipeline *mocks.MockPipelineRunner, limiter *mocks.MockLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewRecipeHandler(pipeline, limiter, zap.NewNop())
	v1 := router.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		// Stand-in for the identity middleware.
		c.Set(middleware.IdentityKey, "user-123")
	})
	handler.RegisterRoutes(v1)

	return router
}

func postGenerate(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doneResult() types.PipelineResult {
	return types.PipelineResult{
		Status:    types.StatusDone,
		RequestID: "req-1",
		Recipes: []types.Recipe{{
			Title:       "Rice Bowl",
			Ingredients: []types.RecipeIngredient{{Name: "rice", Quantity: "2 cups"}},
			Nutrition: types.NutritionSummary{
				Totals:     types.Macros{Calories: 850},
				PerServing: types.Macros{Calories: 425},
				Servings:   2,
				Source:     types.NutritionSourceEnriched,
				Provenance: types.ProvenanceGenerationEnrichment,
			},
		}},
	}
}

func TestGenerate(t *testing.T) {
	t.Run("should return recipes on success", func(t *testing.T) {
		pipeline := new(mocks.MockPipelineRunner)
		pipeline.On("Run", mock.Anything, mock.Anything).Return(doneResult())
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice", "beans"], "servings": 2}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp types.GenerateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "req-1", resp.RequestID)
		assert.False(t, resp.Cached)
		require.Len(t, resp.Recipes, 1)
		assert.Equal(t, "Rice Bowl", resp.Recipes[0].Title)
		assert.Equal(t, "enriched", resp.Recipes[0].Nutrition.Source)
		pipeline.AssertExpectations(t)
	})

	t.Run("should attach the caller identity to the request", func(t *testing.T) {
		pipeline := new(mocks.MockPipelineRunner)
		pipeline.On("Run", mock.Anything, mock.MatchedBy(func(req *types.GenerateRequest) bool {
			return req.Identity == "user-123" && req.Servings == 2
		})).Return(doneResult())
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice"]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		pipeline.AssertExpectations(t)
	})

	t.Run("should reject a body without ingredients", func(t *testing.T) {
		pipeline := new(mocks.MockPipelineRunner)
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"servings": 2}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), string(apperr.CodeValidationFailed))
		pipeline.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("should reject blank-only ingredient lists", func(t *testing.T) {
		pipeline := new(mocks.MockPipelineRunner)
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["", "   "]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least one ingredient")
		pipeline.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		router := setupRecipeRouter(new(mocks.MockPipelineRunner), new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice"`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map rate denial to 429 with headers", func(t *testing.T) {
		resetsAt := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
		pipeline := new(mocks.MockPipelineRunner)
		pipeline.On("Run", mock.Anything, mock.Anything).Return(types.PipelineResult{
			Status:    types.StatusRateLimited,
			RequestID: "req-2",
			UsedToday: 51,
			Limit:     50,
			ResetsAt:  resetsAt,
		})
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice"]}`)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "50", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1749600000", w.Header().Get("X-RateLimit-Reset"))
		assert.Contains(t, w.Body.String(), string(apperr.CodeRateLimitExceeded))
	})

	t.Run("should map unparseable generation to 502", func(t *testing.T) {
		err := apperr.NewGenerationFormat("no json found")
		pipeline := new(mocks.MockPipelineRunner)
		pipeline.On("Run", mock.Anything, mock.Anything).Return(types.PipelineResult{
			Status:        types.StatusFailed,
			RequestID:     "req-3",
			FailureReason: string(apperr.CodeGenerationFormat),
			Err:           err,
		})
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice"]}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), string(apperr.CodeGenerationFormat))
		assert.Contains(t, w.Body.String(), "req-3")
	})

	t.Run("should map plain failures to 500", func(t *testing.T) {
		pipeline := new(mocks.MockPipelineRunner)
		pipeline.On("Run", mock.Anything, mock.Anything).Return(types.PipelineResult{
			Status:        types.StatusFailed,
			RequestID:     "req-4",
			FailureReason: string(apperr.CodeInternal),
			Err:           errors.New("provider exploded"),
		})
		router := setupRecipeRouter(pipeline, new(mocks.MockLimiter))

		w := postGenerate(router, `{"ingredients": ["rice"]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), string(apperr.CodeInternal))
	})
}

func TestUsage(t *testing.T) {
	t.Run("should report the caller's consumption", func(t *testing.T) {
		limiter := new(mocks.MockLimiter)
		limiter.On("Peek", mock.Anything, "user-123").Return(service.Decision{
			Allowed:   true,
			Used:      12,
			Limit:     50,
			Remaining: 38,
			ResetsAt:  time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		})
		router := setupRecipeRouter(new(mocks.MockPipelineRunner), limiter)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/usage", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp types.UsageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 12, resp.UsedToday)
		assert.Equal(t, 50, resp.Limit)
		assert.Equal(t, 38, resp.Remaining)
		assert.Equal(t, "2025-06-11T00:00:00Z", resp.ResetsAt)
		limiter.AssertExpectations(t)
	})
}
