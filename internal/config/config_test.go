package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":        "postgres://localhost:5432/chaldduck",
		"REDIS_URL":           "redis://localhost:6379/0",
		"ADMIN_PASSWORD_HASH": "$argon2id$v=19$m=65536,t=1,p=2$abc$def",
		"ADMIN_JWT_SECRET":    "0123456789abcdef0123456789abcdef",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "admin", cfg.AdminUsername)
	require.Equal(t, 15*time.Minute, cfg.AdminTokenTTL)
	require.Equal(t, 30*time.Second, cfg.SnapshotCacheTTL)
	require.Equal(t, 120, cfg.QuoteRateLimitMax)
	require.True(t, cfg.MetricsEnabled)
	require.False(t, cfg.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["QUOTE_RATE_LIMIT_MAX"] = "10"
	env["QUOTE_RATE_LIMIT_WINDOW"] = "30s"
	env["CORS_ALLOWED_ORIGINS"] = "https://admin.chaldduck.kr, https://chaldduck.kr"
	env["METRICS_ENABLED"] = "false"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 10, cfg.QuoteRateLimitMax)
	require.Equal(t, 30*time.Second, cfg.QuoteRateLimitWindow)
	require.Equal(t, []string{"https://admin.chaldduck.kr", "https://chaldduck.kr"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.MetricsEnabled)
}

func TestLoadRequiresCoreSettings(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "ADMIN_PASSWORD_HASH", "ADMIN_JWT_SECRET"} {
		env := baseEnv()
		env[key] = ""
		_, err := LoadForTests(env)
		require.Error(t, err, key)
	}
}

func TestParseHelpersFallBack(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("bogus", "1m"))
	require.Equal(t, 120, parseInt("-5", 120))
	require.Equal(t, 120, parseInt("abc", 120))
}
