package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/point-planner/internal/planner"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	PlannerMaxQuantity int
	PlannerTimeLimit   time.Duration
	PlanCacheTTL       time.Duration
	PlanLockTTL        time.Duration

	RateLimitWindow    time.Duration
	RateLimitMax       int
	HTTPBodyLimitBytes int64
	SecurityHeaders    bool

	// Planner holds the default planning parameters applied to requests that omit them.
	Planner planner.Config
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := planner.DefaultConfig()
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PlannerMaxQuantity: parseInt(k.String("PLANNER_MAX_QUANTITY"), 500),
		PlannerTimeLimit:   parseDuration(k.String("PLANNER_TIME_LIMIT"), "8s"),
		PlanCacheTTL:       parseDuration(k.String("PLAN_CACHE_TTL"), "10m"),
		PlanLockTTL:        parseDuration(k.String("PLAN_LOCK_TTL"), "30s"),
		RateLimitWindow:    parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:       parseInt(k.String("RATE_LIMIT_MAX"), 60),
		HTTPBodyLimitBytes: int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 64<<10)),
		SecurityHeaders:    parseBoolDefault(k.String("SECURITY_HEADERS"), true),
		Planner: planner.Config{
			UnitPrice:            parseInt64(k.String("PLANNER_UNIT_PRICE"), defaults.UnitPrice),
			TaxRatePct:           parseInt64(k.String("PLANNER_TAX_RATE_PCT"), defaults.TaxRatePct),
			PointRatePct:         parseInt64(k.String("PLANNER_POINT_RATE_PCT"), defaults.PointRatePct),
			MinEligibleTotal:     parseInt64(k.String("PLANNER_MIN_ELIGIBLE_TOTAL"), defaults.MinEligibleTotal),
			MinCashForPoints:     parseInt64(k.String("PLANNER_MIN_CASH_FOR_POINTS"), defaults.MinCashForPoints),
			Basis:                planner.Basis(valueOrDefault(k.String("PLANNER_THRESHOLD_BASIS"), string(defaults.Basis))),
			Rounding:             planner.Rounding(valueOrDefault(k.String("PLANNER_ROUNDING"), string(defaults.Rounding))),
			CapPointsToRemaining: parseBoolDefault(k.String("PLANNER_CAP_POINTS"), defaults.CapPointsToRemaining),
			Consolidate:          parseBoolDefault(k.String("PLANNER_CONSOLIDATE"), defaults.Consolidate),
			Objective:            planner.Objective(valueOrDefault(k.String("PLANNER_OBJECTIVE"), string(defaults.Objective))),
			SmallQuantityMax:     parseInt(k.String("PLANNER_SMALL_QUANTITY_MAX"), defaults.SmallQuantityMax),
			ThresholdWindow:      parseInt(k.String("PLANNER_THRESHOLD_WINDOW"), defaults.ThresholdWindow),
			TailWindow:           parseInt(k.String("PLANNER_TAIL_WINDOW"), defaults.TailWindow),
			ExhaustiveBelow:      parseInt(k.String("PLANNER_EXHAUSTIVE_BELOW"), defaults.ExhaustiveBelow),
		},
	}

	if cfg.PlannerMaxQuantity <= 0 {
		return nil, errors.New("PLANNER_MAX_QUANTITY must be positive")
	}
	if cfg.PlannerTimeLimit <= 0 {
		return nil, errors.New("PLANNER_TIME_LIMIT must be positive")
	}
	if _, err := planner.NewParams(cfg.Planner); err != nil {
		return nil, fmt.Errorf("planner defaults: %w", err)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
