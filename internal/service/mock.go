package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pageza/mealforge/internal/types"
)

// MockGenerator is the development and test provider. It fabricates
// schema-valid output deterministically from the pantry contents, so
// the rest of the pipeline can be exercised without an API key.
type MockGenerator struct{}

// NewMockGenerator creates the mock provider.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Provider names the backing implementation.
func (g *MockGenerator) Provider() string {
	return "mock"
}

// GenerateRecipes returns a JSON document shaped like real provider
// output, built from the request itself.
func (g *MockGenerator) GenerateRecipes(_ context.Context, req *types.GenerateRequest) (string, error) {
	ingredients := make([]types.RecipeIngredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		name := strings.ToLower(strings.TrimSpace(ing))
		if name == "" {
			continue
		}
		ingredients = append(ingredients, types.RecipeIngredient{
			Name:     name,
			Quantity: "1 cup",
		})
	}
	if len(ingredients) == 0 {
		return "", fmt.Errorf("no usable ingredients in request")
	}

	title := fmt.Sprintf("%s skillet", capitalize(ingredients[0].Name))
	if req.Diet != "" {
		title = fmt.Sprintf("%s (%s)", title, strings.ToLower(req.Diet))
	}

	// Fixed per-ingredient estimates keep the output stable for tests.
	count := float64(len(ingredients))
	recipe := types.GeneratedRecipe{
		Title:       title,
		Description: fmt.Sprintf("A simple dish built around %s.", ingredients[0].Name),
		Ingredients: ingredients,
		Instructions: []string{
			"Prepare all ingredients.",
			"Combine everything in a large skillet over medium heat.",
			"Cook until done and season to taste.",
		},
		PrepTime:   "10 minutes",
		CookTime:   "20 minutes",
		Difficulty: "easy",
		Estimated: types.Macros{
			Calories: 150 * count,
			Protein:  8 * count,
			Carbs:    18 * count,
			Fat:      5 * count,
		},
	}

	payload, err := json.Marshal(map[string][]types.GeneratedRecipe{"recipes": {recipe}})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var _ Generator = (*MockGenerator)(nil)
