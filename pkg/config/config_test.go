package config_test

import (
	"testing"
	"time"

	"github.com/healthstock/healthstock-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("healthstock")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, config.EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "healthstock", cfg.Database.Database)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, "healthstock", cfg.JWT.Issuer)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HEALTHSTOCK_SERVER_PORT", "9090")
	t.Setenv("HEALTHSTOCK_DATABASE_HOST", "db.internal")

	cfg, err := config.Load("healthstock")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "healthstock",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.example.com port=5433 user=app password=secret dbname=healthstock sslmode=require",
		cfg.DSN(),
	)
}

func TestLoadWithValidation_ProductionRequiresConfig(t *testing.T) {
	t.Setenv("HEALTHSTOCK_SERVER_ENVIRONMENT", "production")

	// Default localhost database must be rejected in production
	_, err := config.LoadWithValidation("healthstock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration error")
}

func TestLoadWithValidation_ProductionRejectsDefaultJWTSecret(t *testing.T) {
	t.Setenv("HEALTHSTOCK_SERVER_ENVIRONMENT", "production")
	t.Setenv("HEALTHSTOCK_DATABASE_HOST", "db.internal")

	_, err := config.LoadWithValidation("healthstock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEALTHSTOCK_JWT_SECRET")
}
