package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "lei_entities", cfg.Qdrant.Collection)
	assert.Equal(t, 20*time.Second, cfg.Wikidata.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigDir(t *testing.T) {
	result := ConfigDir("/home/user/project")
	assert.Equal(t, "/home/user/project/.lei", result)
}

func TestConfigFilePath(t *testing.T) {
	result := ConfigFilePath("/home/user/project")
	assert.Equal(t, "/home/user/project/.lei/config.yaml", result)
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("LEI_DB_PATH", "")
	t.Setenv("LEI_LOG_LEVEL", "")

	t.Run("default file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "lei_entities", cfg.Qdrant.Collection)
		assert.Equal(t, filepath.Join(dir, ".lei", "lei.db"), cfg.SQLite.Path)
		assert.Equal(t, 20*time.Second, cfg.Wikidata.Timeout)
		assert.Empty(t, cfg.Template.Fields)
	})

	t.Run("overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, `
embedder:
  provider: ollama
  model: nomic-embed-text
  base_url: http://localhost:11434
  dimension: 768
  requests_per_second: 2.5
qdrant:
  collection: test_entities
  use_tls: true
sqlite:
  path: /tmp/custom.db
template:
  fields: [name, jurisdiction]
`)

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, cfg.Embedder.Provider)
		assert.Equal(t, 768, cfg.Embedder.Dimension)
		assert.InDelta(t, 2.5, cfg.Embedder.RequestsPerSecond, 1e-9)
		assert.True(t, cfg.Qdrant.UseTLS)
		assert.Equal(t, 6334, cfg.Qdrant.Port)
		assert.Equal(t, "/tmp/custom.db", cfg.SQLite.Path)
		assert.Equal(t, []string{"name", "jurisdiction"}, cfg.Template.Fields)
	})

	t.Run("env overrides", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("LEI_DB_PATH", ":memory:")
		t.Setenv("LEI_LOG_LEVEL", "debug")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
		assert.Equal(t, ":memory:", cfg.SQLite.Path)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("file key wins over env", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "embedder:\n  api_key: from-file\n")
		t.Setenv("OPENAI_API_KEY", "from-env")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Embedder.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lei init")
	})

	t.Run("invalid provider", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "embedder:\n  provider: cohere\n")

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cohere")
	})
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))
	assert.Error(t, WriteDefault(dir))
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Qdrant.Collection = "roundtrip"
	cfg.SQLite.Path = "/tmp/rt.db"
	require.NoError(t, Write(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", loaded.Qdrant.Collection)
	assert.Equal(t, cfg.Wikidata.Timeout, loaded.Wikidata.Timeout)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("resolved", "isin", "US0378331005")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "isin=US0378331005")
	assert.Contains(t, file.String(), `"isin":"US0378331005"`)
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lei.log")
	logger, cleanup, err := SetupLogger(LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte(content), 0644))
}
