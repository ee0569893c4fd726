package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/types"
)

// ErrLookupDisabled marks the no-op lookup used when no nutrition API
// is configured. The enricher treats it like any other absent result.
var ErrLookupDisabled = errors.New("nutrition lookups are disabled")

// NoopNutrition is the capability-off implementation: every lookup is
// absent, so recipes keep their generated estimates.
type NoopNutrition struct{}

// Resolve always reports the lookup as unavailable.
func (NoopNutrition) Resolve(context.Context, types.IngredientKey) ([]types.NutrientFact, error) {
	return nil, ErrLookupDisabled
}

// NutritionClient resolves ingredient keys against the nutrition API.
// A client-side rate limiter keeps the enrichment fan-out from
// stampeding the upstream.
type NutritionClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// nutritionResponse is the lookup response body.
type nutritionResponse struct {
	Ingredient string               `json:"ingredient"`
	Nutrients  []types.NutrientFact `json:"nutrients"`
}

// NewNutritionClient creates the lookup client from config.
func NewNutritionClient(cfg config.NutritionConfig, logger *zap.Logger) *NutritionClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 8
	}
	return &NutritionClient{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		logger:  logger,
	}
}

// SetHTTPClient swaps the HTTP client. Tests point it at a stub server.
func (c *NutritionClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Resolve fetches nutrient facts for one ingredient key.
func (c *NutritionClient) Resolve(ctx context.Context, key types.IngredientKey) ([]types.NutrientFact, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	query := url.Values{}
	query.Set("amount", strconv.FormatFloat(key.Amount, 'f', -1, 64))
	if key.Unit != "" {
		query.Set("unit", key.Unit)
	}
	endpoint := fmt.Sprintf("%s/v2/ingredients/%s?%s", c.baseURL, url.PathEscape(key.ID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.NewEnrichmentLookup(key.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NewEnrichmentLookup(key.ID, fmt.Errorf("ingredient not found"))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.Debug("nutrition lookup failed",
			zap.String("ingredient", key.ID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, apperr.NewEnrichmentLookup(key.ID, fmt.Errorf("status %d", resp.StatusCode))
	}

	var result nutritionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.NewEnrichmentLookup(key.ID, fmt.Errorf("decode response: %w", err))
	}

	return result.Nutrients, nil
}

var (
	_ NutritionLookup = (*NutritionClient)(nil)
	_ NutritionLookup = NoopNutrition{}
)

// ParseIngredient decomposes a recipe ingredient into a lookup key:
// the name slugs into the id and the quantity text yields amount and
// unit. Quantities with no parseable positive number ("to taste",
// "a pinch") produce no key and the ingredient is skipped, not
// retried.
func ParseIngredient(ing types.RecipeIngredient) (types.IngredientKey, bool) {
	id := slugify(ing.Name)
	if id == "" {
		return types.IngredientKey{}, false
	}

	fields := strings.Fields(ing.Quantity)
	if len(fields) == 0 {
		return types.IngredientKey{}, false
	}

	amount, consumed := parseAmount(fields)
	if amount <= 0 {
		return types.IngredientKey{}, false
	}

	unit := ""
	if consumed < len(fields) {
		unit = strings.ToLower(strings.Trim(fields[consumed], ".,"))
	}

	return types.IngredientKey{ID: id, Amount: amount, Unit: unit}, true
}

// parseAmount reads a leading number from quantity tokens: plain
// ("2", "1.5"), fraction ("1/2"), or mixed ("1 1/2"). It returns the
// value and how many tokens it consumed.
func parseAmount(fields []string) (float64, int) {
	value, ok := parseNumber(fields[0])
	if !ok {
		return 0, 0
	}
	consumed := 1

	// A following fraction extends a whole number: "1 1/2 cups".
	if len(fields) > 1 && value == float64(int64(value)) {
		if frac, isFrac := parseFraction(fields[1]); isFrac {
			value += frac
			consumed = 2
		}
	}

	return value, consumed
}

func parseNumber(token string) (float64, bool) {
	if frac, ok := parseFraction(token); ok {
		return frac, true
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func parseFraction(token string) (float64, bool) {
	num, den, found := strings.Cut(token, "/")
	if !found {
		return 0, false
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// slugify turns an ingredient name into a lookup id: lower-case with
// non-alphanumeric runs collapsed to single dashes.
func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
