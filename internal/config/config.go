// Package config provides configuration loading and structs for the shirabe server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path and the logical store section names
// for postings and document norms.
type StorageConfig struct {
	DatabasePath  string `yaml:"database_path"`
	PostingsTable string `yaml:"postings_table"`
	NormsTable    string `yaml:"norms_table"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	// DefaultAbove is the similarity floor applied to vector queries that do
	// not specify one. <= 0 keeps all results.
	DefaultAbove float64 `yaml:"default_above"`
	// DefaultTop limits vector results when the query does not specify a
	// limit. Negative means unlimited.
	DefaultTop int `yaml:"default_top"`
	// MaxTop caps the result limit any single query may request. 0 means no
	// cap.
	MaxTop int `yaml:"max_top"`
}

// IngestConfig holds corpus ingestion settings.
type IngestConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// Watch enables the directory watcher on the server: files appearing
	// under Directories are ingested as they are created.
	Watch bool `yaml:"watch"`
	// Concurrency bounds parallel text extraction during directory ingestion.
	Concurrency int `yaml:"concurrency"`
}

// RecursiveOrDefault returns whether to walk recursively; defaults to true when unset.
func (c *IngestConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
