package service

import (
	"math"
	"strings"

	"github.com/pageza/mealforge/internal/types"
)

// Aggregate folds a recipe's ingredient enrichments into its nutrition
// summary. When every lookup came back absent the generator's own
// estimate is used instead, and the summary says so. Aggregation is
// pure and total: it never fails.
func Aggregate(recipe types.GeneratedRecipe, enrichment RecipeEnrichment, servings int) types.Recipe {
	if servings <= 0 {
		servings = types.DefaultServings
	}

	totals := types.Macros{}
	for _, ing := range enrichment.Ingredients {
		if !ing.Resolved {
			continue
		}
		for _, fact := range ing.Facts {
			addFact(&totals, fact)
		}
	}

	source := types.NutritionSourceEnriched
	provenance := types.ProvenanceGenerationEnrichment
	if totals.IsZero() {
		totals = recipe.Estimated
		source = types.NutritionSourceEstimated
		provenance = types.ProvenanceGeneration
	}

	return types.Recipe{
		Title:        recipe.Title,
		Description:  recipe.Description,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
		PrepTime:     recipe.PrepTime,
		CookTime:     recipe.CookTime,
		Difficulty:   recipe.Difficulty,
		Nutrition: types.NutritionSummary{
			Totals:     totals,
			PerServing: perServing(totals, servings),
			Servings:   servings,
			Source:     source,
			Provenance: provenance,
		},
	}
}

// addFact routes a nutrient row into the macro it names. Matching is a
// case-insensitive substring check, so "Total Carbohydrates" and
// "carbs" both land in the carb bucket.
func addFact(m *types.Macros, fact types.NutrientFact) {
	name := strings.ToLower(fact.Name)
	switch {
	case strings.Contains(name, "calorie"):
		m.Calories += fact.Amount
	case strings.Contains(name, "protein"):
		m.Protein += fact.Amount
	case strings.Contains(name, "carb"):
		m.Carbs += fact.Amount
	case strings.Contains(name, "fat"):
		m.Fat += fact.Amount
	}
}

// perServing divides totals by the serving count and rounds half-up to
// whole numbers, which is what the response schema promises.
func perServing(totals types.Macros, servings int) types.Macros {
	divisor := float64(servings)
	if divisor < 1 {
		divisor = 1
	}
	return types.Macros{
		Calories: roundHalfUp(totals.Calories / divisor),
		Protein:  roundHalfUp(totals.Protein / divisor),
		Carbs:    roundHalfUp(totals.Carbs / divisor),
		Fat:      roundHalfUp(totals.Fat / divisor),
	}
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
