package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Deployment DeploymentConfig
	Browser    BrowserConfig
	Tiers      TierConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Webhook    WebhookConfig
	Log        LogConfig
}

// DeploymentConfig carries the two environment markers the profiler consumes.
// Serverless is inferred from well-known platform variables (VERCEL,
// AWS_LAMBDA_FUNCTION_NAME) and can be forced with LADDER_SERVERLESS.
type DeploymentConfig struct {
	Serverless  bool
	Development bool // LADDER_MODE=development
}

// TierConfig controls the escalation ladder.
type TierConfig struct {
	// Timeouts is the per-attempt deadline for tiers 0-4. The interactive
	// tier's default is much longer since a human is driving it.
	// default: [10s, 30s, 45s, 60s, 15m]
	Timeouts []time.Duration

	// MemoryTTL is how long a domain's last-successful tier is remembered.
	MemoryTTL time.Duration // default: 24h

	// CDPURL is the devtools endpoint of a user-attended Chrome for the
	// interactive tier. Empty disables tier 4's executor probe.
	CDPURL string
}

// CacheConfig controls the scrape response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// WebhookConfig controls escalation event delivery.
type WebhookConfig struct {
	// URL receives fetch.exhausted / fetch.login_required events.
	// Empty disables delivery.
	URL string

	// Secret signs event payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instances.
type BrowserConfig struct {
	// Headless controls whether the browsers run headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LADDER_HOST", "0.0.0.0"),
			Port: envIntOr("LADDER_PORT", 8080),
			Mode: envOr("LADDER_GIN_MODE", "release"),
		},
		Deployment: DeploymentConfig{
			Serverless: envBoolOr("LADDER_SERVERLESS",
				os.Getenv("VERCEL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),
			Development: envOr("LADDER_MODE", "") == "development",
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("LADDER_HEADLESS", true),
			MaxPages:   envIntOr("LADDER_MAX_PAGES", 10),
			NoSandbox:  envBoolOr("LADDER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("LADDER_BROWSER_BIN"),
		},
		Tiers: TierConfig{
			Timeouts: envDurationSliceOr("LADDER_TIER_TIMEOUTS", []time.Duration{
				10 * time.Second,
				30 * time.Second,
				45 * time.Second,
				60 * time.Second,
				15 * time.Minute,
			}),
			MemoryTTL: envDurationOr("LADDER_MEMORY_TTL", 24*time.Hour),
			CDPURL:    os.Getenv("LADDER_CDP_URL"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LADDER_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LADDER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LADDER_RATE_RPS", 5.0),
			Burst:             envIntOr("LADDER_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("LADDER_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LADDER_WEBHOOK_URL"),
			Secret: os.Getenv("LADDER_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("LADDER_LOG_LEVEL", "info"),
			Format: envOr("LADDER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
