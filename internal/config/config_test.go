package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost", "port": 5432, "user": "u", "password": "p", "db_name": "askbase"},
		"ai": {"provider": "gemini", "model": "gemini-2.0-flash", "embed_model": "text-embedding-004", "data": {"api_key": "k"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 0.70, cfg.Retrieval.Threshold)
	require.Equal(t, 8, cfg.Retrieval.TopK)
	require.Equal(t, 200, cfg.Retrieval.ScanCap)
	require.Equal(t, 500, cfg.Retrieval.ChunkTokens)
	require.Equal(t, 4000, cfg.Retrieval.MaxMessageChars)
	require.Equal(t, "gemini", cfg.AI.EmbedProvider)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, "*/10 * * * *", cfg.ReaperSpec)
	require.Equal(t, 1000, cfg.RateLimitMS)
}

func TestLoadRateLimitDisable(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://u:p@localhost/askbase"},
		"rate_limit_ms": -1
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, -1, cfg.RateLimitMS)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9090,
		"database": {"dsn": "postgres://u:p@localhost/askbase"},
		"ai": {"provider": "openai", "embed_provider": "gemini", "model": "gpt-4o-mini"},
		"retrieval": {"threshold": 0.5, "top_k": 4, "scan_cap": 50, "chunk_tokens": 200, "max_message_chars": 1000}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.Retrieval.Threshold)
	require.Equal(t, 4, cfg.Retrieval.TopK)
	require.Equal(t, 50, cfg.Retrieval.ScanCap)
	require.Equal(t, 200, cfg.Retrieval.ChunkTokens)
	require.Equal(t, 1000, cfg.Retrieval.MaxMessageChars)
	require.Equal(t, "gemini", cfg.AI.EmbedProvider)
}

func TestLoadRequiresPortAndDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `{"database": {"host": "localhost"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"port": 8080}`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
