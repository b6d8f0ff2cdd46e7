// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for lei configuration.
	DefaultConfigDir = ".lei"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the SQLite file created inside DefaultConfigDir.
	DefaultDatabaseFile = "lei.db"
)

// Embedder providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Wikidata WikidataConfig `yaml:"wikidata,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Template TemplateConfig `yaml:"template,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// BaseURL points the client at an OpenAI-compatible or Ollama server.
	BaseURL   string `yaml:"base_url,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
	// RequestsPerSecond throttles bulk indexing. Zero means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	UseTLS     bool   `yaml:"use_tls,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. ":memory:" is accepted.
	Path string `yaml:"path,omitempty"`
}

// WikidataConfig holds configuration for the enrichment SPARQL endpoint.
type WikidataConfig struct {
	Endpoint  string        `yaml:"endpoint,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	// File receives JSON logs in addition to stderr when set.
	File string `yaml:"file,omitempty"`
}

// TemplateConfig overrides the embedding template field order.
type TemplateConfig struct {
	Fields []string `yaml:"fields,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Embedder: EmbedderConfig{
			Provider:  ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "lei_entities",
		},
		Wikidata: WikidataConfig{
			Endpoint:  "https://query.wikidata.org/sparql",
			Timeout:   20 * time.Second,
			UserAgent: "lei-resolver/1.0",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .lei directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'lei init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = filepath.Join(ConfigDir(basePath), DefaultDatabaseFile)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. API keys only
// fill empty values; paths and log level always win.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if path := os.Getenv("LEI_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if level := os.Getenv("LEI_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Embedder.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown embedder provider %q", c.Embedder.Provider)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder dimension must be positive, got %d", c.Embedder.Dimension)
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant collection must be set")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// ConfigDir returns the path to the .lei config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a lei config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
