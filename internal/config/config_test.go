package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJSON = `{
	"tmdb_api_key": "json-key",
	"tmdb_base_url": "http://json-config.com/3",
	"file_storage_path": "json_storage.json",
	"database_dsn": "json-dsn",
	"bcrypt_cost": 5
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestApplyDefaults(t *testing.T) {
	values := Config{LogLevel: "debug"}

	applyDefaults(&values, defaultConfig)

	assert.Equal(t, "https://api.themoviedb.org/3", values.TMDBBaseURL)
	assert.Equal(t, "pt-BR", values.TMDBLanguage)
	assert.Equal(t, "debug", values.LogLevel, "explicit values must survive defaults")
	assert.Equal(t, 10*time.Second, values.DBConnectionTimeout)
	assert.Equal(t, bcrypt.DefaultCost, values.BcryptCost)
}

func TestConfigDefaultsOnly(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDBBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DBFileName)
	assert.Empty(t, cfg.BoltPath)
	assert.Empty(t, cfg.SQLitePath)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "json-key", cfg.TMDBAPIKey)
	assert.Equal(t, "http://json-config.com/3", cfg.TMDBBaseURL)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, 5, cfg.BcryptCost)
	assert.Equal(t, "pt-BR", cfg.TMDBLanguage, "unset fields fall back to defaults")
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("TMDB_LANGUAGE", "en-US")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.TMDBAPIKey) // env overrides json
	assert.Equal(t, "en-US", cfg.TMDBLanguage)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := New(WithArgs([]string{
		"-k", "cli-key",
		"-l", "debug",
		"-b", "cli.bolt",
	}))
	require.NoError(t, err)

	assert.Equal(t, "cli-key", cfg.TMDBAPIKey) // CLI > ENV > JSON
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "cli.bolt", cfg.BoltPath)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigFileFromFlag(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)

	cfg, err := New(WithArgs([]string{"-c", jsonPath}))
	require.NoError(t, err)

	assert.Equal(t, "json-key", cfg.TMDBAPIKey)
	assert.Equal(t, jsonPath, cfg.ConfigFile)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("TMDB_BASE_URL", "http://envonly.com/3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TMDB_TIMEOUT", "3s")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("SQLITE_PATH", "cineshelf.sqlite")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "http://envonly.com/3", cfg.TMDBBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.TMDBTimeout)
	assert.Equal(t, bcrypt.MinCost, cfg.BcryptCost)
	assert.Equal(t, "cineshelf.sqlite", cfg.SQLitePath)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", val: "verbose"},
		{name: "bcrypt cost too low", key: "BCRYPT_COST", val: "2"},
		{name: "base URL is not a URL", key: "TMDB_BASE_URL", val: "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingJSONFile(t *testing.T) {
	t.Setenv("CONFIG", "/definitely/not/here.json")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
