// Package config loads and persists per-repository configuration for the
// repo map engine from .repo_map_cache/config.json.
package config

import (
	"encoding/json"
	"os"

	"github.com/spf13/viper"

	"repomap/internal/paths"
)

// Config represents the complete repo map configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Map     MapConfig     `json:"map" mapstructure:"map"`
	Ranking RankingConfig `json:"ranking" mapstructure:"ranking"`
	Render  RenderConfig  `json:"render" mapstructure:"render"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// MapConfig controls map generation
type MapConfig struct {
	MaxTokens int    `json:"maxTokens" mapstructure:"maxTokens"`
	Tokenizer string `json:"tokenizer" mapstructure:"tokenizer"`
}

// RankingConfig controls the reference graph weighting
type RankingConfig struct {
	Damping          float64 `json:"damping" mapstructure:"damping"`
	Tolerance        float64 `json:"tolerance" mapstructure:"tolerance"`
	MaxIterations    int     `json:"maxIterations" mapstructure:"maxIterations"`
	ChatBoost        float64 `json:"chatBoost" mapstructure:"chatBoost"`
	IdentBoost       float64 `json:"identBoost" mapstructure:"identBoost"`
	CommonPenalty    float64 `json:"commonPenalty" mapstructure:"commonPenalty"`
	CommonDefsCutoff int     `json:"commonDefsCutoff" mapstructure:"commonDefsCutoff"`
}

// RenderConfig controls snippet rendering
type RenderConfig struct {
	MaxLineLength int `json:"maxLineLength" mapstructure:"maxLineLength"`
}

// CacheConfig controls the persistent tag cache
type CacheConfig struct {
	Enabled     bool `json:"enabled" mapstructure:"enabled"`
	Compression bool `json:"compression" mapstructure:"compression"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Map: MapConfig{
			MaxTokens: 4096,
			Tokenizer: "approx",
		},
		Ranking: RankingConfig{
			Damping:          0.85,
			Tolerance:        1e-6,
			MaxIterations:    100,
			ChatBoost:        50.0,
			IdentBoost:       5.0,
			CommonPenalty:    0.1,
			CommonDefsCutoff: 5,
		},
		Render: RenderConfig{
			MaxLineLength: 200,
		},
		Cache: CacheConfig{
			Enabled:     true,
			Compression: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .repo_map_cache/config.json
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)
	v.SetDefault("repoRoot", ".")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.GetCacheDir(repoRoot))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct, with defaults for missing sections
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .repo_map_cache/config.json
func (c *Config) Save(repoRoot string) error {
	if _, err := paths.EnsureCacheDir(repoRoot); err != nil {
		return err
	}
	configPath := paths.GetConfigPath(repoRoot)

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Map.MaxTokens < 0 {
		return &ConfigError{Field: "map.maxTokens", Message: "must not be negative"}
	}
	if c.Ranking.Damping <= 0 || c.Ranking.Damping >= 1 {
		return &ConfigError{Field: "ranking.damping", Message: "must be in (0, 1)"}
	}
	if c.Ranking.MaxIterations <= 0 {
		return &ConfigError{Field: "ranking.maxIterations", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
