package service

import (
	"encoding/json"
	"strings"

	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/types"
)

// rawRecipe tolerates the field spellings and loose typing that model
// output shows in practice.
type rawRecipe struct {
	Title        string           `json:"title"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Ingredients  []rawIngredient  `json:"ingredients"`
	Instructions []string         `json:"instructions"`
	PrepTime     types.FlexString `json:"prep_time"`
	CookTime     types.FlexString `json:"cook_time"`
	Difficulty   string           `json:"difficulty"`
	Nutrition    rawNutrition     `json:"nutrition"`

	// Flat macro fields some responses use instead of a nutrition object.
	Calories types.FlexFloat `json:"calories"`
	Protein  types.FlexFloat `json:"protein"`
	Carbs    types.FlexFloat `json:"carbs"`
	Fat      types.FlexFloat `json:"fat"`
}

type rawIngredient struct {
	Name     string           `json:"name"`
	Quantity types.FlexString `json:"quantity"`
	Amount   types.FlexString `json:"amount"`
}

type rawNutrition struct {
	Calories types.FlexFloat `json:"calories"`
	Protein  types.FlexFloat `json:"protein"`
	Carbs    types.FlexFloat `json:"carbs"`
	Fat      types.FlexFloat `json:"fat"`
}

type recipeEnvelope struct {
	Recipes []rawRecipe `json:"recipes"`
}

// ExtractRecipes salvages recipes from raw generation output. The
// outcome is explicit: a non-empty recipe slice, or a generation
// format error. It never reports success with zero recipes.
//
// Strategy: parse the whole text strictly, then fall back to the
// largest balanced object or array substring for output wrapped in
// prose or code fences.
func ExtractRecipes(raw string) ([]types.GeneratedRecipe, error) {
	candidates := []string{strings.TrimSpace(raw)}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if recipes := parseCandidate(candidate); len(recipes) > 0 {
			return recipes, nil
		}
	}

	return nil, apperr.NewGenerationFormat(excerpt(raw))
}

// parseCandidate accepts either an object wrapping "recipes", a single
// recipe object, or a bare recipe array.
func parseCandidate(text string) []types.GeneratedRecipe {
	var envelope recipeEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && len(envelope.Recipes) > 0 {
		return convertRecipes(envelope.Recipes)
	}

	var list []rawRecipe
	if err := json.Unmarshal([]byte(text), &list); err == nil && len(list) > 0 {
		return convertRecipes(list)
	}

	var single rawRecipe
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return convertRecipes([]rawRecipe{single})
	}

	return nil
}

// convertRecipes maps raw recipes onto the domain type, dropping
// entries without a usable title or ingredient list.
func convertRecipes(raws []rawRecipe) []types.GeneratedRecipe {
	recipes := make([]types.GeneratedRecipe, 0, len(raws))
	for _, r := range raws {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = strings.TrimSpace(r.Name)
		}

		ingredients := make([]types.RecipeIngredient, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			name := strings.TrimSpace(ing.Name)
			if name == "" {
				continue
			}
			quantity := strings.TrimSpace(ing.Quantity.String())
			if quantity == "" {
				quantity = strings.TrimSpace(ing.Amount.String())
			}
			ingredients = append(ingredients, types.RecipeIngredient{Name: name, Quantity: quantity})
		}

		if title == "" || len(ingredients) == 0 {
			continue
		}

		estimated := types.Macros{
			Calories: r.Nutrition.Calories.Float64(),
			Protein:  r.Nutrition.Protein.Float64(),
			Carbs:    r.Nutrition.Carbs.Float64(),
			Fat:      r.Nutrition.Fat.Float64(),
		}
		if estimated.IsZero() {
			estimated = types.Macros{
				Calories: r.Calories.Float64(),
				Protein:  r.Protein.Float64(),
				Carbs:    r.Carbs.Float64(),
				Fat:      r.Fat.Float64(),
			}
		}

		recipes = append(recipes, types.GeneratedRecipe{
			Title:        title,
			Description:  strings.TrimSpace(r.Description),
			Ingredients:  ingredients,
			Instructions: r.Instructions,
			PrepTime:     r.PrepTime.String(),
			CookTime:     r.CookTime.String(),
			Difficulty:   strings.ToLower(strings.TrimSpace(r.Difficulty)),
			Estimated:    estimated,
		})
	}
	return recipes
}

func excerpt(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 200 {
		return raw[:200] + "..."
	}
	return raw
}
