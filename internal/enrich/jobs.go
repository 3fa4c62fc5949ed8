package enrich

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/scheduler"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// RegisterHandlers binds every task kind this engine executes.
func (e *Engine) RegisterHandlers(registry *scheduler.Registry) error {
	handlers := map[string]scheduler.Handler{
		KindFetchCandidates:   e.HandleFetchCandidates,
		KindRankReleases:      e.HandleRankReleases,
		KindFetchCovers:       e.HandleFetchCovers,
		KindRankCovers:        e.HandleRankCovers,
		KindArtistDescription: e.HandleArtistDescription,
		KindArtistImage:       e.HandleArtistImage,
		KindScrobbleSync:      e.HandleScrobbleSync,
	}
	for kind, handler := range handlers {
		if err := registry.Register(kind, handler); err != nil {
			return err
		}
	}
	return nil
}

// ImportSpecs produces the dependent task chain for one import session:
// candidates, then match, then covers, then cover ranking.
func ImportSpecs(sessionID string) []scheduler.TaskSpec {
	payload := sessionPayload{SessionID: sessionID}
	return []scheduler.TaskSpec{
		{Kind: KindFetchCandidates, Payload: payload, Duration: pipelineTTL},
		{Kind: KindRankReleases, Payload: payload, Duration: pipelineTTL, DependsOn: []int{0}},
		{Kind: KindFetchCovers, Payload: payload, Duration: pipelineTTL, DependsOn: []int{1}},
		{Kind: KindRankCovers, Payload: payload, Duration: pipelineTTL, DependsOn: []int{2}},
	}
}

// EnumerateArtistDescriptions yields one artist_description spec per known
// artist missing a biography.
func (e *Engine) EnumerateArtistDescriptions(ctx context.Context) ([]scheduler.TaskSpec, error) {
	artists, err := e.library.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	var specs []scheduler.TaskSpec
	for _, artist := range artists {
		if artist.Description != "" {
			continue
		}
		specs = append(specs, scheduler.TaskSpec{
			Kind:    KindArtistDescription,
			Payload: artistPayload{ArtistID: artist.ID, Name: artist.Name},
		})
	}
	return specs, nil
}

// EnumerateArtistImages yields one lastfm_artist_image spec per known artist
// missing an image.
func (e *Engine) EnumerateArtistImages(ctx context.Context) ([]scheduler.TaskSpec, error) {
	artists, err := e.library.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	var specs []scheduler.TaskSpec
	for _, artist := range artists {
		if artist.ImageURL != "" {
			continue
		}
		specs = append(specs, scheduler.TaskSpec{
			Kind:    KindArtistImage,
			Payload: artistPayload{ArtistID: artist.ID, Name: artist.Name},
		})
	}
	return specs, nil
}

// EnumerateScrobbleSync yields a single scrobble_sync spec for the
// configured listen-history account.
func (e *Engine) EnumerateScrobbleSync(ctx context.Context) ([]scheduler.TaskSpec, error) {
	if e.lastfm.User == "" {
		return nil, nil
	}
	return []scheduler.TaskSpec{
		{Kind: KindScrobbleSync, Payload: scrobblePayload{User: e.lastfm.User, Limit: 200}},
	}, nil
}

// RegisterJobs binds the configured recurring jobs to their enumerate
// functions. Unknown job kinds in the configuration are rejected.
func (e *Engine) RegisterJobs(sched *scheduler.Scheduler, recurring map[string]string) error {
	enumerators := map[string]scheduler.EnumerateFunc{
		KindArtistDescription: e.EnumerateArtistDescriptions,
		KindArtistImage:       e.EnumerateArtistImages,
		KindScrobbleSync:      e.EnumerateScrobbleSync,
	}
	for kind, schedule := range recurring {
		enumerate, ok := enumerators[kind]
		if !ok {
			return fmt.Errorf("%w: recurring job %q", shared.ErrUnknownTaskKind, kind)
		}
		job := models.Job{
			ID:       shared.GenerateID(),
			Title:    kind,
			Kind:     kind,
			Schedule: schedule,
		}
		if err := sched.RegisterJob(job, enumerate); err != nil {
			return err
		}
	}
	return nil
}
