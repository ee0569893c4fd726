package types

// RecipeIngredient is a single ingredient line of a generated recipe.
type RecipeIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Macros holds the four nutrient totals tracked by the service.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// IsZero reports whether every macro is zero, which is how an
// unenriched recipe looks before the estimate fallback kicks in.
func (m Macros) IsZero() bool {
	return m.Calories == 0 && m.Protein == 0 && m.Carbs == 0 && m.Fat == 0
}

// Nutrition source values.
const (
	NutritionSourceEnriched  = "enriched"
	NutritionSourceEstimated = "estimated"
)

// Nutrition provenance values.
const (
	ProvenanceGeneration           = "generation"
	ProvenanceGenerationEnrichment = "generation+enrichment"
)

// NutritionSummary carries recipe totals and per-serving values along
// with where the numbers came from.
type NutritionSummary struct {
	Totals     Macros `json:"totals"`
	PerServing Macros `json:"per_serving"`
	Servings   int    `json:"servings"`
	Source     string `json:"source"`
	Provenance string `json:"provenance"`
}

// GeneratedRecipe is a recipe as it comes out of the generation stage:
// structure plus the model's own nutrition estimate, before enrichment.
type GeneratedRecipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     string             `json:"prep_time"`
	CookTime     string             `json:"cook_time"`
	Difficulty   string             `json:"difficulty"`
	Estimated    Macros             `json:"nutrition"`
}

// Recipe is the finished article: a generated recipe with its
// aggregated nutrition summary attached.
type Recipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     string             `json:"prep_time"`
	CookTime     string             `json:"cook_time"`
	Difficulty   string             `json:"difficulty"`
	Nutrition    NutritionSummary   `json:"nutrition"`
}
