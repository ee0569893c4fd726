package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/mealforge/internal/types"
)

func resolvedIngredient(name string, facts ...types.NutrientFact) IngredientEnrichment {
	return IngredientEnrichment{
		Ingredient: types.RecipeIngredient{Name: name, Quantity: "1"},
		Key:        types.IngredientKey{ID: slugify(name), Amount: 1},
		Facts:      facts,
		Resolved:   true,
	}
}

func TestAggregate(t *testing.T) {
	recipe := types.GeneratedRecipe{
		Title:     "Rice Bowl",
		Estimated: types.Macros{Calories: 850, Protein: 32, Carbs: 120, Fat: 18},
	}

	t.Run("should sum nutrients across resolved ingredients", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			resolvedIngredient("rice",
				types.NutrientFact{Name: "Calories", Amount: 430, Unit: "kcal"},
				types.NutrientFact{Name: "Protein", Amount: 9, Unit: "g"},
				types.NutrientFact{Name: "Total Carbohydrate", Amount: 90, Unit: "g"},
			),
			resolvedIngredient("beans",
				types.NutrientFact{Name: "calories", Amount: 528, Unit: "kcal"},
				types.NutrientFact{Name: "Protein", Amount: 35, Unit: "g"},
				types.NutrientFact{Name: "Total Fat", Amount: 2, Unit: "g"},
			),
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, 958.0, out.Nutrition.Totals.Calories)
		assert.Equal(t, 44.0, out.Nutrition.Totals.Protein)
		assert.Equal(t, 90.0, out.Nutrition.Totals.Carbs)
		assert.Equal(t, 2.0, out.Nutrition.Totals.Fat)
		assert.Equal(t, types.NutritionSourceEnriched, out.Nutrition.Source)
		assert.Equal(t, types.ProvenanceGenerationEnrichment, out.Nutrition.Provenance)
	})

	t.Run("should ignore unresolved ingredients", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			resolvedIngredient("rice", types.NutrientFact{Name: "Calories", Amount: 430}),
			{
				Ingredient: types.RecipeIngredient{Name: "beans", Quantity: "400 g"},
				Resolved:   false,
			},
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, 430.0, out.Nutrition.Totals.Calories)
		assert.Equal(t, types.NutritionSourceEnriched, out.Nutrition.Source)
	})

	t.Run("should fall back to estimates when nothing resolved", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			{Ingredient: types.RecipeIngredient{Name: "rice"}, Resolved: false},
			{Ingredient: types.RecipeIngredient{Name: "beans"}, Resolved: false},
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, recipe.Estimated, out.Nutrition.Totals)
		assert.Equal(t, types.NutritionSourceEstimated, out.Nutrition.Source)
		assert.Equal(t, types.ProvenanceGeneration, out.Nutrition.Provenance)
	})

	t.Run("should fall back when resolved facts carry no recognized nutrients", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			resolvedIngredient("rice",
				types.NutrientFact{Name: "Sodium", Amount: 300, Unit: "mg"},
				types.NutrientFact{Name: "Vitamin C", Amount: 12, Unit: "mg"},
			),
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, recipe.Estimated, out.Nutrition.Totals)
		assert.Equal(t, types.NutritionSourceEstimated, out.Nutrition.Source)
	})

	t.Run("should match nutrient names loosely", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			resolvedIngredient("mix",
				types.NutrientFact{Name: "Energy (calories)", Amount: 100},
				types.NutrientFact{Name: "Crude Protein", Amount: 10},
				types.NutrientFact{Name: "Carbs", Amount: 20},
				types.NutrientFact{Name: "Saturated Fat", Amount: 5},
			),
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, 100.0, out.Nutrition.Totals.Calories)
		assert.Equal(t, 10.0, out.Nutrition.Totals.Protein)
		assert.Equal(t, 20.0, out.Nutrition.Totals.Carbs)
		assert.Equal(t, 5.0, out.Nutrition.Totals.Fat)
	})

	t.Run("should divide per-serving values and round half up", func(t *testing.T) {
		enrichment := RecipeEnrichment{Ingredients: []IngredientEnrichment{
			resolvedIngredient("rice",
				types.NutrientFact{Name: "Calories", Amount: 851},
				types.NutrientFact{Name: "Protein", Amount: 33},
			),
		}}

		out := Aggregate(recipe, enrichment, 2)
		assert.Equal(t, 2, out.Nutrition.Servings)
		assert.Equal(t, 426.0, out.Nutrition.PerServing.Calories)
		assert.Equal(t, 17.0, out.Nutrition.PerServing.Protein)
	})

	t.Run("should default non-positive servings", func(t *testing.T) {
		out := Aggregate(recipe, RecipeEnrichment{}, 0)
		assert.Equal(t, types.DefaultServings, out.Nutrition.Servings)
		assert.Equal(t, 425.0, out.Nutrition.PerServing.Calories)
	})

	t.Run("should carry the recipe fields through", func(t *testing.T) {
		full := types.GeneratedRecipe{
			Title:        "Stew",
			Description:  "Slow and warm",
			Ingredients:  []types.RecipeIngredient{{Name: "potato", Quantity: "2"}},
			Instructions: []string{"Chop", "Simmer"},
			PrepTime:     "10 minutes",
			CookTime:     "40 minutes",
			Difficulty:   "easy",
			Estimated:    types.Macros{Calories: 300},
		}
		out := Aggregate(full, RecipeEnrichment{}, 3)
		assert.Equal(t, full.Title, out.Title)
		assert.Equal(t, full.Description, out.Description)
		assert.Equal(t, full.Ingredients, out.Ingredients)
		assert.Equal(t, full.Instructions, out.Instructions)
		assert.Equal(t, full.PrepTime, out.PrepTime)
		assert.Equal(t, full.CookTime, out.CookTime)
		assert.Equal(t, full.Difficulty, out.Difficulty)
		assert.Equal(t, 3, out.Nutrition.Servings)
	})
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 425.0, roundHalfUp(425.0))
	assert.Equal(t, 426.0, roundHalfUp(425.5))
	assert.Equal(t, 425.0, roundHalfUp(425.4))
	assert.Equal(t, 0.0, roundHalfUp(0.4))
	assert.Equal(t, 1.0, roundHalfUp(0.5))
}
