package config_test

import (
	"testing"
	"time"

	"foodorder/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE", "JWT_SECRET", "ACCESS_TOKEN_TTL",
		"BCRYPT_COST", "GO_ENV", "FE_URL", "CORS_ORIGINS", "RABBITMQ_URL", "WEBHOOK_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "https://food.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7001", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "https://food.example.com", cfg.FEURL)
	assert.Equal(t, []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"https://food.example.com",
	}, cfg.CORSOrigins)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=food_ordering sslmode=disable", cfg.DSN())
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "http://localhost:5173")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://localhost:5173")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
	assert.Equal(t, []string{"http://a.test", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Required(t *testing.T) {
	clearEnv(t)
	t.Setenv("FE_URL", "http://localhost:5173")

	_, err := config.Load()
	assert.EqualError(t, err, "JWT_SECRET is required")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "")
	_, err = config.Load()
	assert.EqualError(t, err, "FE_URL is required")
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "http://localhost:5173")
	t.Setenv("POSTGRES_PORT", "abc")

	_, err := config.Load()
	assert.ErrorContains(t, err, "POSTGRES_PORT must be number")

	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	_, err = config.Load()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL must be duration")
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "http://localhost:5173")
	t.Setenv("GO_ENV", "staging")

	_, err := config.Load()
	assert.EqualError(t, err, "GO_ENV must be dev or prod")
}

func TestLoad_ProdRequiresWebhookSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "https://food.example.com")
	t.Setenv("GO_ENV", "prod")

	_, err := config.Load()
	assert.EqualError(t, err, "WEBHOOK_SECRET is required in prod")

	t.Setenv("WEBHOOK_SECRET", "whsec_live")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "whsec_live", cfg.WebhookSecret)
}

func TestLoad_DevAllowsEmptyWebhookSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FE_URL", "http://localhost:5173")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.WebhookSecret)
}
