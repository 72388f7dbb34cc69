package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alias-sync-service/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "token")

	cfg := config.LoadConfig()

	assert.Equal(t, "2024-04", cfg.APIVersion)
	assert.Equal(t, "rules.json", cfg.RulesPath)
	assert.True(t, cfg.WriteEnabled)
	assert.Equal(t, int64(0), cfg.AllowedLocationID)
	assert.Equal(t, time.Second, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.DedupWindow)
	assert.Equal(t, 300*time.Millisecond, cfg.WriteDelay)
	assert.False(t, cfg.UseRedisStore())
	assert.False(t, cfg.JournalEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "token")
	t.Setenv("WRITE_ENABLED", "false")
	t.Setenv("ALLOWED_LOCATION_ID", "62030217415")
	t.Setenv("CACHE_TTL_MS", "250")
	t.Setenv("REDIS_ADDRS", "redis-1:6379, redis-2:6379")
	t.Setenv("DATABASE_URL", "postgres://localhost/sync")

	cfg := config.LoadConfig()

	assert.False(t, cfg.WriteEnabled)
	assert.Equal(t, int64(62030217415), cfg.AllowedLocationID)
	assert.Equal(t, 250*time.Millisecond, cfg.CacheTTL)
	assert.Equal(t, []string{"redis-1:6379", "redis-2:6379"}, cfg.RedisAddrs)
	assert.True(t, cfg.UseRedisStore())
	assert.True(t, cfg.RedisClusterMode)
	assert.True(t, cfg.JournalEnabled())
}

func TestConfigValidate_MissingCredentials(t *testing.T) {
	cfg := &config.Config{
		RulesPath:   "rules.json",
		CacheTTL:    time.Second,
		DedupWindow: 2 * time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_SHOP_DOMAIN")

	cfg.ShopDomain = "demo.myshopify.com"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_ACCESS_TOKEN")

	cfg.AccessToken = "token"
	require.NoError(t, cfg.Validate())
}
