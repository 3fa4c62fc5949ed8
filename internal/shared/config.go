package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Fetch    FetchConfig    `toml:"fetch"`
	Art      ArtConfig      `toml:"art"`
	Tasks    TasksConfig    `toml:"tasks"`
	LastFM   LastFMConfig   `toml:"lastfm"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// FetchConfig contains outbound request settings shared by all providers.
type FetchConfig struct {
	// TimeoutSeconds bounds a single provider call, end to end.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// Rates maps a provider name to its calls-per-second quota.
	// Providers absent from the map use their built-in default.
	Rates map[string]float64 `toml:"rates"`
}

// ArtConfig contains cover art ranking settings.
//
// Providers is an ordered priority list; a candidate's position in it feeds
// the provider component of its score. The three relevance weights should
// sum to 1 but are used as-is.
type ArtConfig struct {
	Providers         []string `toml:"providers"`
	ProviderRelevance float64  `toml:"provider_relevance"`
	MatchRelevance    float64  `toml:"match_relevance"`
	SizeRelevance     float64  `toml:"size_relevance"`
	UseReleaseGroup   bool     `toml:"cover_art_archive_use_release_group"`
}

// TasksConfig contains worker pool and recurring job settings.
type TasksConfig struct {
	Workers int `toml:"workers"`

	// Recurring maps a task kind to a cron expression with a seconds field,
	// e.g. "0 0 3 * * *" for daily at 03:00.
	Recurring map[string]string `toml:"recurring"`
}

// LastFMConfig contains last.fm API credentials and the account whose
// listen history is synced.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
	Secret string `toml:"secret"`
	User   string `toml:"user"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
