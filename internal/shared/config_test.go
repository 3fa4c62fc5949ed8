package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig carries the embedded defaults", func(t *testing.T) {
		config := DefaultConfig()

		if config.Fetch.Rates["musicbrainz"] != 1.0 {
			t.Errorf("expected musicbrainz quota 1.0, got %f", config.Fetch.Rates["musicbrainz"])
		}
		if config.Fetch.Rates["deezer"] != 50.0 {
			t.Errorf("expected deezer quota 50.0, got %f", config.Fetch.Rates["deezer"])
		}
		if len(config.Art.Providers) != 3 {
			t.Errorf("expected three art providers, got %v", config.Art.Providers)
		}
		if sum := config.Art.ProviderRelevance + config.Art.MatchRelevance + config.Art.SizeRelevance; sum != 1.0 {
			t.Errorf("expected relevance weights to sum to 1, got %f", sum)
		}
		if config.Tasks.Workers < 1 {
			t.Errorf("expected at least one worker, got %d", config.Tasks.Workers)
		}
		if _, ok := config.Tasks.Recurring["scrobble_sync"]; !ok {
			t.Error("expected a scrobble_sync schedule")
		}
	})

	t.Run("LoadConfig reads overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[database]
path = "custom.db"

[fetch]
timeout_seconds = 10

[fetch.rates]
musicbrainz = 0.5

[tasks]
workers = 2
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("could not write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Database.Path != "custom.db" {
			t.Errorf("expected custom database path, got %q", config.Database.Path)
		}
		if config.Fetch.Rates["musicbrainz"] != 0.5 {
			t.Errorf("expected overridden quota, got %f", config.Fetch.Rates["musicbrainz"])
		}
		if config.Tasks.Workers != 2 {
			t.Errorf("expected two workers, got %d", config.Tasks.Workers)
		}
	})

	t.Run("missing file is reported", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("malformed file is reported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("could not write config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("CreateConfigFile refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected an error for an existing file")
		}
	})
}
