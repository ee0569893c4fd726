// Package config loads service configuration from environment
// variables, an optional config file, and Docker secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment represents the current runtime environment.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment. CI is detected
// automatically; everything else is set via ENV.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// Config holds all configuration for the service.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Generation GenerationConfig `mapstructure:"generation"`
	Nutrition  NutritionConfig  `mapstructure:"nutrition"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// RedisConfig contains shared-store settings. An empty host and URL
// means the service runs without Redis: local cache only and a
// process-local rate limiter.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// Configured reports whether a shared Redis has been set up.
func (r RedisConfig) Configured() bool {
	return r.Host != "" || r.URL != ""
}

// CacheConfig contains response and ingredient cache settings.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RecipeTTL     time.Duration `mapstructure:"recipe_ttl"`
	LocalTTL      time.Duration `mapstructure:"local_ttl"`
	IngredientTTL time.Duration `mapstructure:"ingredient_ttl"`
	NegativeTTL   time.Duration `mapstructure:"negative_ttl"`
}

// RateLimitConfig contains the per-identity daily limit.
type RateLimitConfig struct {
	Daily int `mapstructure:"daily"`
}

// GenerationConfig contains LLM provider settings.
type GenerationConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// NutritionConfig contains enrichment lookup settings. An empty API
// URL disables enrichment and recipes keep their generated estimates.
type NutritionConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RPS         int           `mapstructure:"rps"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Enabled reports whether enrichment lookups are configured.
func (n NutritionConfig) Enabled() bool {
	return n.APIURL != ""
}

// AuthConfig contains token validation settings.
type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	AllowAnonymous bool   `mapstructure:"allow_anonymous"`
}

// LoadConfig builds the configuration for the current environment:
// defaults, then an optional config file, then environment variables,
// then Docker secrets for sensitive values. The result is validated
// against the environment's requirements.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	v := viper.New()
	setDefaults(v, env)
	bindEnvVars(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.App.Environment = string(env)

	loadSecrets(cfg, env)

	if err := ValidateConfig(cfg, env); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, env Environment) {
	v.SetDefault("app.name", "mealforge")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.recipe_ttl", "1h")
	v.SetDefault("cache.local_ttl", "5m")
	v.SetDefault("cache.ingredient_ttl", "168h")
	v.SetDefault("cache.negative_ttl", "10m")

	v.SetDefault("rate_limit.daily", 50)

	v.SetDefault("generation.provider", "deepseek")
	v.SetDefault("generation.api_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("generation.model", "deepseek-chat")
	v.SetDefault("generation.timeout", "60s")
	v.SetDefault("generation.temperature", 0.9)
	v.SetDefault("generation.max_tokens", 4096)

	v.SetDefault("nutrition.timeout", "4s")
	v.SetDefault("nutrition.rps", 8)
	v.SetDefault("nutrition.concurrency", 5)

	v.SetDefault("auth.allow_anonymous", env != Production)
}

// bindEnvVars maps the flat environment variable names used in
// deployments onto the nested config keys.
func bindEnvVars(v *viper.Viper) {
	binds := map[string]string{
		"app.log_level":          "LOG_LEVEL",
		"app.log_format":         "LOG_FORMAT",
		"server.host":            "SERVER_HOST",
		"server.port":            "SERVER_PORT",
		"server.allowed_origins": "ALLOWED_ORIGINS",
		"redis.host":             "REDIS_HOST",
		"redis.port":             "REDIS_PORT",
		"redis.password":         "REDIS_PASSWORD",
		"redis.db":               "REDIS_DB",
		"redis.url":              "REDIS_URL",
		"cache.enabled":          "CACHE_ENABLED",
		"cache.recipe_ttl":       "RECIPE_CACHE_TTL",
		"cache.local_ttl":        "LOCAL_CACHE_TTL",
		"cache.ingredient_ttl":   "INGREDIENT_CACHE_TTL",
		"cache.negative_ttl":     "INGREDIENT_NEGATIVE_TTL",
		"rate_limit.daily":       "RATE_LIMIT_DAILY",
		"generation.provider":    "LLM_PROVIDER",
		"generation.api_url":     "LLM_API_URL",
		"generation.api_key":     "LLM_API_KEY",
		"generation.model":       "LLM_MODEL",
		"generation.timeout":     "LLM_TIMEOUT",
		"nutrition.api_url":      "NUTRITION_API_URL",
		"nutrition.api_key":      "NUTRITION_API_KEY",
		"nutrition.timeout":      "NUTRITION_TIMEOUT",
		"nutrition.rps":          "NUTRITION_RPS",
		"nutrition.concurrency":  "ENRICH_CONCURRENCY",
		"auth.jwt_secret":        "JWT_SECRET",
		"auth.allow_anonymous":   "ALLOW_ANONYMOUS",
	}
	for key, envVar := range binds {
		// error only fires on empty arguments
		_ = v.BindEnv(key, envVar)
	}
}

// loadSecrets overlays sensitive values from Docker secrets. Files
// win over environment variables everywhere except CI, which has no
// secrets mount and uses plain variables.
func loadSecrets(cfg *Config, env Environment) {
	if env == CI {
		return
	}

	if s := readSecret("jwt_secret"); s != "" {
		cfg.Auth.JWTSecret = s
	}
	if s := readSecret("redis_password"); s != "" {
		cfg.Redis.Password = s
	}
	if s := readSecret("llm_api_key"); s != "" {
		cfg.Generation.APIKey = s
	}
	if s := readSecret("nutrition_api_key"); s != "" {
		cfg.Nutrition.APIKey = s
	}

	// *_FILE indirection for deployments that mount key files outside
	// the secrets directory.
	if cfg.Generation.APIKey == "" {
		if path := os.Getenv("LLM_API_KEY_FILE"); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				cfg.Generation.APIKey = strings.TrimSpace(string(data))
			}
		}
	}
	if cfg.Nutrition.APIKey == "" {
		if path := os.Getenv("NUTRITION_API_KEY_FILE"); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				cfg.Nutrition.APIKey = strings.TrimSpace(string(data))
			}
		}
	}
}

// readSecret reads a Docker secret from the secrets directory.
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
