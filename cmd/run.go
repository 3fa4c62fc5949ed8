package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunesmith/internal/scheduler"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/urfave/cli/v3"
)

// Run starts the worker pool and the recurring job scheduler and blocks
// until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd.String("config"))

	store, db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.buildEngine(store)

	registry := scheduler.NewRegistry()
	if err := engine.RegisterHandlers(registry); err != nil {
		return err
	}

	pool := scheduler.NewPool(r.config.Tasks.Workers, store, registry, r.logger)
	sched := scheduler.NewScheduler(store, pool, r.logger)
	if err := engine.RegisterJobs(sched, r.config.Tasks.Recurring); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool.Start(runCtx)
	sched.Start()

	r.logger.Info("running", "workers", r.config.Tasks.Workers, "jobs", len(r.config.Tasks.Recurring))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	select {
	case <-interrupt:
		r.logger.Info("shutting down")
	case <-ctx.Done():
	}

	sched.Stop()
	return nil
}

// Jobs prints the configured recurring jobs and their schedules.
func (r *Runner) Jobs(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd.String("config"))

	type jobRow struct {
		Kind     string `json:"kind"`
		Schedule string `json:"schedule"`
	}
	rows := make([]jobRow, 0, len(r.config.Tasks.Recurring))
	for kind, schedule := range r.config.Tasks.Recurring {
		rows = append(rows, jobRow{Kind: kind, Schedule: schedule})
	}
	return r.writeJSON(rows, true)
}

// Setup writes a starter config file and initializes the database schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warnf("%v", err)
	} else {
		r.logger.Info("created config file", "path", path)
	}
	r.loadConfig(path)

	_, db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("database initialized", "path", r.config.Database.Path)
	return r.writePlain("✓ Setup complete\n")
}
