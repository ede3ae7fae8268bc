package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	Database    DatabaseConfig   `json:"database"`
	LogConfig   logger.LogConfig `json:"log_config"`
	AI          AIConfig         `json:"ai"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Mail        MailConfig       `json:"mail"`
	Archive     ArchiveConfig    `json:"archive"`
	CORSAllow   []string         `json:"cors_allow"`
	ReaperSpec string `json:"reaper_spec"`
	// RateLimitMS is the per-client window on public endpoints. A negative
	// value disables limiting.
	RateLimitMS int `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	EmbedProvider string      `json:"embed_provider"`
	EmbedModel    string      `json:"embed_model"`
	Timeout       int         `json:"timeout"`
	Data          interface{} `json:"data"`
}

// RetrievalConfig carries the knobs of the retrieval pipeline. Zero values
// are replaced with defaults during Load.
type RetrievalConfig struct {
	Threshold        float64 `json:"threshold"`
	TopK             int     `json:"top_k"`
	ScanCap          int     `json:"scan_cap"`
	ChunkTokens      int     `json:"chunk_tokens"`
	MaxMessageChars  int     `json:"max_message_chars"`
	EmbedCacheSize   int     `json:"embed_cache_size"`
	EmbedCacheTTLMin int     `json:"embed_cache_ttl_min"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	NotifyTo string `json:"notify_to"`
}

// ArchiveConfig selects where raw source text is archived. Type "" disables
// archiving, otherwise "local" or "s3" with the store-specific args in Data.
type ArchiveConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	applyRetrievalDefaults(&cfg.Retrieval)
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.ReaperSpec == "" {
		cfg.ReaperSpec = "*/10 * * * *"
	}
	if cfg.RateLimitMS == 0 {
		cfg.RateLimitMS = 1000
	}
	return &cfg, nil
}

func applyRetrievalDefaults(rc *RetrievalConfig) {
	if rc.Threshold == 0 {
		rc.Threshold = 0.70
	}
	if rc.TopK == 0 {
		rc.TopK = 8
	}
	if rc.ScanCap == 0 {
		rc.ScanCap = 200
	}
	if rc.ChunkTokens == 0 {
		rc.ChunkTokens = 500
	}
	if rc.MaxMessageChars == 0 {
		rc.MaxMessageChars = 4000
	}
	if rc.EmbedCacheSize == 0 {
		rc.EmbedCacheSize = 4096
	}
	if rc.EmbedCacheTTLMin == 0 {
		rc.EmbedCacheTTLMin = 120
	}
}
