package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/enrich"
	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/providers"
	"github.com/desertthunder/tunesmith/internal/repositories"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for
// each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// loadConfig replaces the runner's config with the file at path, when it
// exists. Missing files fall back to the embedded defaults.
func (r *Runner) loadConfig(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warnf("falling back to default config: %v", err)
		return
	}
	r.config = config
}

// buildEngine wires the provider adapters and the enrichment engine against
// the given library store.
func (r *Runner) buildEngine(library enrich.Library) *enrich.Engine {
	dispatcher := fetch.NewDispatcher(r.config.Fetch, nil, r.logger)

	return enrich.NewEngine(enrich.EngineOpts{
		Registry:   providers.NewMusicBrainz(dispatcher, "", r.logger),
		Archive:    providers.NewCoverArtArchive(dispatcher, "", r.config.Art.UseReleaseGroup),
		Deezer:     providers.NewDeezer(dispatcher, ""),
		Storefront: providers.NewItunes(dispatcher, ""),
		Scrobbler:  providers.NewLastFM(dispatcher, "", r.config.LastFM),
		Library:    library,
		Art:        r.config.Art,
		LastFM:     r.config.LastFM,
		Logger:     r.logger,
	})
}

// openStore opens the configured sqlite database and ensures the schema.
func (r *Runner) openStore() (*repositories.Store, *sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	store, err := repositories.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
