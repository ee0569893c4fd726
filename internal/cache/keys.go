package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pageza/mealforge/internal/types"
)

// Key namespaces. Everything the service stores in Redis lives under
// one of these prefixes.
const (
	recipePrefix     = "recipe:"
	ingredientPrefix = "inginfo:"
	rateLimitPrefix  = "rl:"
)

// RecipeKey addresses a cached pipeline response by request digest.
func RecipeKey(digest string) string {
	return recipePrefix + digest
}

// IngredientInfoKey addresses one nutrition lookup result. Amount is
// rendered without trailing zeros so 1.50 and 1.5 share an entry.
func IngredientInfoKey(key types.IngredientKey) string {
	amount := strconv.FormatFloat(key.Amount, 'f', -1, 64)
	unit := strings.ToLower(strings.TrimSpace(key.Unit))
	return fmt.Sprintf("%s%s:%s:%s", ingredientPrefix, key.ID, amount, unit)
}

// RateLimitKey addresses one identity's counter for one UTC day.
func RateLimitKey(identity, day string) string {
	return fmt.Sprintf("%s%s:%s", rateLimitPrefix, identity, day)
}
