package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/types"
)

// Message represents a message in the chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	ResponseFormat   map[string]string `json:"response_format"`
	Temperature      float64           `json:"temperature"`
	TopP             float64           `json:"top_p"`
	FrequencyPenalty float64           `json:"frequency_penalty"`
	PresencePenalty  float64           `json:"presence_penalty"`
	MaxTokens        int               `json:"max_tokens,omitempty"`
}

// chatResponse is the slice of the completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMService generates recipes through a DeepSeek-compatible chat
// completions API.
type LLMService struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewLLMService creates the provider client. The API key must already
// be resolved by the config layer (env, secret file, or *_FILE).
func NewLLMService(cfg config.GenerationConfig, logger *zap.Logger, m *metrics.Metrics) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, apperr.NewConfiguration("generation.api_key", "no API key available for the deepseek provider")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMService{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
		metrics:     m,
	}, nil
}

// Provider names the backing implementation.
func (s *LLMService) Provider() string {
	return "deepseek"
}

// SetHTTPClient swaps the HTTP client. Tests point it at a stub server.
func (s *LLMService) SetHTTPClient(client *http.Client) {
	s.client = client
}

const generateSystemPrompt = `You are a professional chef and nutritionist. Given a list of pantry ingredients, propose complete recipes that use them. Respond with ONLY valid JSON in this structure:
{
    "recipes": [
        {
            "title": "Recipe name",
            "description": "Brief description of the recipe",
            "ingredients": [
                {"name": "brown rice", "quantity": "2 cups"},
                {"name": "black beans", "quantity": "400 g"}
            ],
            "instructions": [
                "Step 1: ...",
                "Step 2: ..."
            ],
            "prep_time": "15 minutes",
            "cook_time": "30 minutes",
            "difficulty": "easy",
            "nutrition": {"calories": 850, "protein": 32, "carbs": 120, "fat": 18}
        }
    ]
}

Note: The calories, protein, carbs, and fat fields must be numbers, not strings, and must cover the WHOLE recipe, not one serving.
Use only the pantry ingredients plus water, salt, pepper, and common oils.
Every recipe must respect the requested diet and serving count.`

// GenerateRecipes prompts the model with the pantry contents and
// returns its raw text output.
func (s *LLMService) GenerateRecipes(ctx context.Context, genReq *types.GenerateRequest) (string, error) {
	start := time.Now()
	raw, err := s.complete(ctx, generateSystemPrompt, buildUserPrompt(genReq))
	s.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.GenerationRequests.WithLabelValues(s.Provider(), "error").Inc()
		return "", err
	}
	s.metrics.GenerationRequests.WithLabelValues(s.Provider(), "ok").Inc()
	return raw, nil
}

func (s *LLMService) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Temperature:      s.temperature,
		TopP:             0.9,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
		MaxTokens:        s.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("generation provider returned an error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 500)))
		return "", fmt.Errorf("generation provider returned status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// buildUserPrompt lists the pantry and the request constraints.
func buildUserPrompt(req *types.GenerateRequest) string {
	var b strings.Builder

	b.WriteString("Pantry ingredients:\n")
	for _, ing := range req.Ingredients {
		if strings.TrimSpace(ing) == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(ing))
	}

	servings := req.Servings
	if servings <= 0 {
		servings = types.DefaultServings
	}
	fmt.Fprintf(&b, "\nServings: %d\n", servings)

	if req.Diet != "" {
		fmt.Fprintf(&b, "Diet: %s\n", req.Diet)
	}
	if req.CalorieTarget > 0 {
		fmt.Fprintf(&b, "Calorie target per serving: about %d kcal\n", req.CalorieTarget)
	}
	if allergens := req.Profile["allergens"]; allergens != "" {
		fmt.Fprintf(&b, "Strictly avoid these allergens: %s\n", allergens)
	}
	keys := make([]string, 0, len(req.Profile))
	for key := range req.Profile {
		if key != "allergens" && req.Profile[key] != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "Preference (%s): %s\n", key, req.Profile[key])
	}

	return b.String()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
