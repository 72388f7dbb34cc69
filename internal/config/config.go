package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the sync service
type Config struct {
	// Shopify Admin API credentials
	ShopDomain    string // e.g. my-store.myshopify.com
	AccessToken   string
	APIVersion    string
	WebhookSecret string // optional, enables webhook HMAC verification

	// Rules file (alias groups and set definitions)
	RulesPath string

	// Sync behaviour
	AllowedLocationID int64 // 0 = accept events from any location
	WriteEnabled      bool  // false = dry-run, writes are logged but not sent
	CacheTTL          time.Duration
	DedupWindow       time.Duration
	WriteDelay        time.Duration // pacing delay before each platform write
	SweepInterval     time.Duration // housekeeping sweep of stale cache entries

	// Optional Redis store (shared cache/dedup across replicas)
	RedisAddrs       []string
	RedisPassword    string
	RedisClusterMode bool
	RedisKeyPrefix   string

	// Optional Postgres sync journal
	DatabaseURL string

	// Server configuration
	ServerAddr string
	ServerPort string

	// Service identification
	ServiceName string
	Environment string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		ShopDomain:    getEnv("SHOPIFY_SHOP_DOMAIN", ""),
		AccessToken:   getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		APIVersion:    getEnv("SHOPIFY_API_VERSION", "2024-04"),
		WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", ""),

		RulesPath: getEnv("RULES_PATH", "rules.json"),

		AllowedLocationID: getEnvAsInt64("ALLOWED_LOCATION_ID", 0),
		WriteEnabled:      getEnvAsBool("WRITE_ENABLED", true),
		CacheTTL:          time.Duration(getEnvAsInt("CACHE_TTL_MS", 1000)) * time.Millisecond,
		DedupWindow:       time.Duration(getEnvAsInt("DEDUP_WINDOW_MS", 2000)) * time.Millisecond,
		WriteDelay:        time.Duration(getEnvAsInt("WRITE_DELAY_MS", 300)) * time.Millisecond,
		SweepInterval:     time.Duration(getEnvAsInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,

		RedisAddrs:       getEnvAsStringSlice("REDIS_ADDRS", []string{}),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisClusterMode: getEnvAsBool("REDIS_CLUSTER_MODE", len(getEnvAsStringSlice("REDIS_ADDRS", []string{})) > 1),
		RedisKeyPrefix:   getEnv("REDIS_KEY_PREFIX", fmt.Sprintf("aliassync:%s:", environment)),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		ServiceName: getEnv("SERVICE_NAME", "alias-sync-service"),
		Environment: environment,
	}

	return cfg
}

// Validate checks that required credentials and sane durations are present.
// The process must not begin serving on a validation failure.
func (c *Config) Validate() error {
	if c.ShopDomain == "" {
		return fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if c.RulesPath == "" {
		return fmt.Errorf("RULES_PATH is required")
	}
	if c.CacheTTL < time.Millisecond {
		return fmt.Errorf("cache TTL must be at least 1ms, got %v", c.CacheTTL)
	}
	if c.DedupWindow < time.Millisecond {
		return fmt.Errorf("dedup window must be at least 1ms, got %v", c.DedupWindow)
	}
	if c.WriteDelay < 0 {
		return fmt.Errorf("write delay must not be negative, got %v", c.WriteDelay)
	}
	return nil
}

// UseRedisStore reports whether the shared Redis cache/dedup store is enabled.
func (c *Config) UseRedisStore() bool {
	return len(c.RedisAddrs) > 0
}

// JournalEnabled reports whether the Postgres sync journal is enabled.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Support both comma and semicolon separated values
	values := strings.FieldsFunc(valueStr, func(c rune) bool {
		return c == ',' || c == ';'
	})

	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}

	return values
}
