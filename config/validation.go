package config

import (
	"fmt"
	"strings"
)

// Requirements defines what a given environment must have configured.
type Requirements struct {
	NeedJWTSecret  bool
	NeedLLMKey     bool
	NeedRedis      bool
	AllowMockLLM   bool
	AllowAnonymous bool
}

var requirements = map[Environment]Requirements{
	Development: {
		AllowMockLLM:   true,
		AllowAnonymous: true,
	},
	Test: {
		AllowMockLLM:   true,
		AllowAnonymous: true,
	},
	CI: {
		AllowMockLLM:   true,
		AllowAnonymous: true,
	},
	Production: {
		NeedJWTSecret: true,
		NeedLLMKey:    true,
		NeedRedis:     true,
	},
}

// ValidateConfig checks the configuration against the requirements of
// the current environment.
func ValidateConfig(cfg *Config, env Environment) error {
	reqs, ok := requirements[env]
	if !ok {
		return fmt.Errorf("unknown environment: %s", env)
	}

	var errs []string

	if reqs.NeedJWTSecret && cfg.Auth.JWTSecret == "" {
		errs = append(errs, "jwt_secret is required")
	}
	if reqs.NeedRedis && !cfg.Redis.Configured() {
		errs = append(errs, "redis host or url is required")
	}
	if !reqs.AllowAnonymous && cfg.Auth.AllowAnonymous && cfg.Auth.JWTSecret == "" {
		errs = append(errs, "anonymous access without a jwt_secret is not allowed")
	}

	switch cfg.Generation.Provider {
	case "deepseek":
		if reqs.NeedLLMKey && cfg.Generation.APIKey == "" {
			errs = append(errs, "llm_api_key is required for the deepseek provider")
		}
		if cfg.Generation.APIURL == "" {
			errs = append(errs, "generation api_url must not be empty")
		}
	case "mock":
		if !reqs.AllowMockLLM {
			errs = append(errs, fmt.Sprintf("mock generation provider is not allowed in %s", env))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown generation provider: %s", cfg.Generation.Provider))
	}

	if cfg.Nutrition.Enabled() {
		if cfg.Nutrition.Concurrency <= 0 {
			errs = append(errs, "nutrition concurrency must be positive")
		}
		if cfg.Nutrition.RPS <= 0 {
			errs = append(errs, "nutrition rps must be positive")
		}
	}
	if cfg.RateLimit.Daily <= 0 {
		errs = append(errs, "rate_limit daily must be positive")
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.RecipeTTL <= 0 || cfg.Cache.LocalTTL <= 0 {
			errs = append(errs, "cache ttls must be positive")
		}
		if cfg.Cache.IngredientTTL <= 0 || cfg.Cache.NegativeTTL <= 0 {
			errs = append(errs, "ingredient cache ttls must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}
