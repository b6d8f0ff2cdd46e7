package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# LEI resolver configuration

embedder:
  provider: openai            # openai | ollama
  model: text-embedding-3-small
  dimension: 1536
  # base_url: http://localhost:11434   (ollama or an OpenAI-compatible server)
  # api_key: your-api-key (or set OPENAI_API_KEY env var)
  # requests_per_second: 5

qdrant:
  host: localhost
  port: 6334
  collection: lei_entities
  # use_tls: true
  # api_key: your-api-key (or set QDRANT_API_KEY env var)

sqlite:
  # path: .lei/lei.db (or set LEI_DB_PATH env var)

wikidata:
  endpoint: https://query.wikidata.org/sparql
  timeout: 20s
  user_agent: lei-resolver/1.0

logging:
  level: info                 # debug | info | warn | error (or LEI_LOG_LEVEL)
  # file: .lei/lei.log

# template:
#   fields: [status, industry, jurisdiction, name]
`

// WriteDefault creates the .lei directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Join(basePath, DefaultConfigDir), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
