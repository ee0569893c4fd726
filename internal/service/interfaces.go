package service

import (
	"context"
	"time"

	"github.com/pageza/mealforge/internal/types"
)

// Generator produces raw model output for a recipe request. The output
// is untrusted text; extraction decides whether it contains recipes.
type Generator interface {
	GenerateRecipes(ctx context.Context, req *types.GenerateRequest) (string, error)
	Provider() string
}

// NutritionLookup resolves one ingredient key into nutrient facts.
type NutritionLookup interface {
	Resolve(ctx context.Context, key types.IngredientKey) ([]types.NutrientFact, error)
}

// ResponseCache is the errorless cache surface the pipeline and the
// enricher consume. The tiered cache satisfies it; backend trouble is
// its problem, not the caller's.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Limiter decides whether an identity may run another request today.
type Limiter interface {
	Allow(ctx context.Context, identity string) Decision
	Peek(ctx context.Context, identity string) Decision
}

// TokenValidator checks an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// PipelineRunner is the unit of behavior the transport layer calls.
type PipelineRunner interface {
	Run(ctx context.Context, req *types.GenerateRequest) types.PipelineResult
}
