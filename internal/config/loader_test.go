package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  http:
    host: "localhost"
    port: 8080
database:
  postgres:
    host: "localhost"
    port: 5432
    user: "claimguard"
    password: "password"
    dbname: "claimguard"
cache:
  redis:
    addr: "localhost:6379"
messaging:
  kafka:
    brokers: ["localhost:9092"]
storage:
  minio:
    endpoint: "localhost:9000"
    access_key: "key"
    secret_key: "secret"
scoring:
  models_dir: "./models"
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.HTTP.Host)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "claimguard", cfg.Database.Postgres.User)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath("non_existent_config.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_ValidationFailure(t *testing.T) {
	invalid := `
server:
  http:
    port: -1
`
	path := createTempConfigFile(t, invalid)
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoad_WithoutValidation(t *testing.T) {
	// A config missing infrastructure settings still loads; commands that
	// connect validate the relevant section themselves.
	path := createTempConfigFile(t, "server:\n  http:\n    port: 8080\n")
	cfg, err := Load(WithConfigPath(path), WithoutValidation())
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Postgres.User)
	assert.Error(t, cfg.Database.Postgres.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"CLAIMGUARD_SERVER_HTTP_PORT": "9999",
	})

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTP.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"CLAIMGUARD_DATABASE_POSTGRES_HOST": "db-host",
	})

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, "db-host", cfg.Database.Postgres.Host)
}

func TestLoad_DefaultValues(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Monitoring.Logging.Level)
	assert.Equal(t, DefaultIdentityNationalIDScore, cfg.Fraud.Identity.NationalIDScore)
	assert.Equal(t, DefaultHighRiskLevelMin, cfg.Fraud.Rules.HighRiskLevelMin)
	assert.Equal(t, DefaultReviewTimeout, cfg.Fraud.Review.Timeout)
	assert.Equal(t, DefaultExpectedAmount, cfg.Scoring.ExpectedAmount)
	assert.Equal(t, DefaultInferenceTimeout, cfg.Scoring.InferenceTimeout)
}

func TestLoad_ExplicitWeightsWin(t *testing.T) {
	yaml := validConfigYAML + `
fraud:
  identity:
    national_id_score: 80
  rules:
    high_amount_100k: 30
  review:
    timeout: 2h
`
	path := createTempConfigFile(t, yaml)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Fraud.Identity.NationalIDScore)
	assert.Equal(t, 30, cfg.Fraud.Rules.HighAmount100K)
	assert.Equal(t, 2*time.Hour, cfg.Fraud.Review.Timeout)
	// Untouched weights still defaulted.
	assert.Equal(t, DefaultIdentityEmailScore, cfg.Fraud.Identity.EmailScore)
}

func TestLoad_WithSearchPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(validConfigYAML), 0644)
	require.NoError(t, err)

	cfg, err := Load(WithSearchPaths(dir))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoad_WithOverrides(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path), WithOverrides(map[string]interface{}{
		"server.http.port": 7777,
	}))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTP.Port)
}

func TestLoadFromFile_Convenience(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CLAIMGUARD_DATABASE_POSTGRES_USER": "envuser",
	})

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "envuser", cfg.Database.Postgres.User)
	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTP.Port)
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(WithConfigPath("non_existent.yaml"))
	})
}

func TestLoad_SetsGlobalConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, cfg, Get())
}

func TestValidate_RiskLevelOrdering(t *testing.T) {
	yaml := validConfigYAML + `
fraud:
  rules:
    high_risk_level_min: 20
    medium_risk_level_min: 40
`
	path := createTempConfigFile(t, yaml)
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestPostgresConfig_Validate(t *testing.T) {
	assert.NoError(t, PostgresConfig{Host: "db", User: "u", DBName: "claims"}.Validate())
	assert.Error(t, PostgresConfig{User: "u", DBName: "claims"}.Validate())
	assert.Error(t, PostgresConfig{Host: "db", DBName: "claims"}.Validate())
	assert.Error(t, PostgresConfig{Host: "db", User: "u"}.Validate())
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "claims", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/claims?sslmode=disable", pg.DSN())
}
