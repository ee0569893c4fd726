package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pageza/mealforge/internal/types"
)

// canonicalForm is the stable serialization fed to the digest. Field
// order is fixed by the struct, so identical forms always marshal to
// identical bytes.
type canonicalForm struct {
	Ingredients   []string `json:"ingredients"`
	Diet          string   `json:"diet"`
	Servings      int      `json:"servings"`
	CalorieTarget int      `json:"calorie_target"`
}

// Fingerprint reduces a request to a hex SHA-256 digest of its
// canonical form. Ingredient order, case, surrounding whitespace, and
// duplicates do not affect the result; profile hints are prompt-only
// and excluded.
func Fingerprint(req *types.GenerateRequest) string {
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		norm := strings.Join(strings.Fields(strings.ToLower(ing)), " ")
		if norm == "" {
			continue
		}
		ingredients = append(ingredients, norm)
	}
	sort.Strings(ingredients)
	ingredients = compactStrings(ingredients)

	servings := req.Servings
	if servings <= 0 {
		servings = types.DefaultServings
	}
	target := req.CalorieTarget
	if target < 0 {
		target = 0
	}

	form := canonicalForm{
		Ingredients:   ingredients,
		Diet:          strings.ToLower(strings.TrimSpace(req.Diet)),
		Servings:      servings,
		CalorieTarget: target,
	}

	// Marshal of a plain struct cannot fail.
	payload, _ := json.Marshal(form)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// compactStrings removes adjacent duplicates from a sorted slice.
func compactStrings(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
