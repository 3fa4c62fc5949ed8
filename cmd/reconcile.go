package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/urfave/cli/v3"
)

// reconcileOutput is the JSON document the reconcile command emits.
type reconcileOutput struct {
	Match      *models.MatchResult      `json:"match,omitempty"`
	Release    *models.CandidateRelease `json:"release,omitempty"`
	Covers     []models.CoverRating     `json:"covers,omitempty"`
	Candidates int                      `json:"candidates"`
}

// Reconcile runs the whole import pipeline once for a local track set
// described in a JSON file and prints the outcome.
func (r *Runner) Reconcile(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd.String("config"))

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a track set file is required", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var local models.LocalTrackSet
	if err := json.Unmarshal(data, &local); err != nil {
		return fmt.Errorf("%w: %s is not a valid track set: %v", shared.ErrInvalidInput, path, err)
	}
	if local.Title == "" || len(local.Tracks) == 0 {
		return fmt.Errorf("%w: track set needs a title and at least one track", shared.ErrInvalidInput)
	}

	r.logger.Info("reconciling", "title", local.Title, "tracks", len(local.Tracks))

	engine := r.buildEngine(nil)
	session, err := engine.Reconcile(ctx, local)
	if session != nil {
		defer engine.CloseSession(session.ID)
	}
	if err != nil {
		return err
	}

	return r.writeJSON(reconcileOutput{
		Match:      session.Best,
		Release:    session.Release,
		Covers:     session.Ratings,
		Candidates: len(session.Candidates),
	}, cmd.Bool("pretty"))
}
