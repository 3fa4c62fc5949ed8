// package enrich implements the task bodies that tie the provider adapters,
// the matcher and the cover ranker to the scheduler and the library store.
//
// A reconciliation runs as a session: an import of one local track set moves
// through fetch_candidates → rank_releases → fetch_covers → rank_covers,
// expressed as dependent tasks. Sessions live in memory for the duration of
// the pipeline; durable results are handed to the [Library] collaborator.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/providers"
	"github.com/desertthunder/tunesmith/internal/rank"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Task kinds handled by this package.
const (
	KindFetchCandidates   = "fetch_candidates"
	KindRankReleases      = "rank_releases"
	KindFetchCovers       = "fetch_covers"
	KindRankCovers        = "rank_covers"
	KindArtistDescription = "artist_description"
	KindArtistImage       = "lastfm_artist_image"
	KindScrobbleSync      = "scrobble_sync"
)

// Library is the persistence collaborator for enrichment targets. The
// engine treats it as a capability, not a concrete store.
type Library interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetArtist(ctx context.Context, id string) (*models.Artist, error)
	UpdateArtistDescription(ctx context.Context, id, description string) error
	UpdateArtistImage(ctx context.Context, id, imageURL string) error
	SaveScrobbles(ctx context.Context, scrobbles []providers.Scrobble) error
}

// MetadataRegistry resolves local metadata to candidate releases.
type MetadataRegistry interface {
	SearchReleases(ctx context.Context, artist, title string, limit int) ([]models.CandidateRelease, error)
}

// ArchiveCoverSource looks up covers by release id.
type ArchiveCoverSource interface {
	FetchCovers(ctx context.Context, releaseID, releaseGroupID, title, artist string) ([]models.Cover, error)
}

// SearchCoverSource looks up covers by artist and title.
type SearchCoverSource interface {
	FetchCovers(ctx context.Context, artist, title string) ([]models.Cover, error)
}

// StorefrontCoverSource looks up covers by artist, title and storefront
// country.
type StorefrontCoverSource interface {
	FetchCovers(ctx context.Context, artist, title, country string) ([]models.Cover, error)
}

// Scrobbler provides artist info and listen history.
type Scrobbler interface {
	GetArtistInfo(ctx context.Context, artist string) (*providers.ArtistInfo, error)
	GetRecentTracks(ctx context.Context, user string, limit int) ([]providers.Scrobble, error)
}

// Session is one in-flight reconciliation of a local track set.
type Session struct {
	ID         string
	Local      models.LocalTrackSet
	Candidates []models.CandidateRelease
	Best       *models.MatchResult
	Release    *models.CandidateRelease
	Covers     []models.Cover
	Ratings    []models.CoverRating
}

// Engine owns the reconciliation sessions and the task bodies operating on
// them.
type Engine struct {
	registry   MetadataRegistry
	archive    ArchiveCoverSource
	deezer     SearchCoverSource
	storefront StorefrontCoverSource
	scrobbler  Scrobbler
	library    Library
	art        shared.ArtConfig
	lastfm     shared.LastFMConfig
	logger     *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// EngineOpts bundles the engine's collaborators.
type EngineOpts struct {
	Registry   MetadataRegistry
	Archive    ArchiveCoverSource
	Deezer     SearchCoverSource
	Storefront StorefrontCoverSource
	Scrobbler  Scrobbler
	Library    Library
	Art        shared.ArtConfig
	LastFM     shared.LastFMConfig
	Logger     *log.Logger
}

// NewEngine creates an enrichment engine.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		registry:   opts.Registry,
		archive:    opts.Archive,
		deezer:     opts.Deezer,
		storefront: opts.Storefront,
		scrobbler:  opts.Scrobbler,
		library:    opts.Library,
		art:        opts.Art,
		lastfm:     opts.LastFM,
		logger:     shared.WithLogger(logger, "component", "enrich"),
		sessions:   make(map[string]*Session),
	}
}

// BeginSession opens a reconciliation session for a scanned local set.
func (e *Engine) BeginSession(local models.LocalTrackSet) *Session {
	session := &Session{ID: shared.GenerateID(), Local: local}
	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()
	return session
}

// Session returns an open session by id.
func (e *Engine) Session(id string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", shared.ErrInvalidArgument, id)
	}
	return session, nil
}

// CloseSession drops a finished session.
func (e *Engine) CloseSession(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// sessionPayload is the payload carried by every import pipeline task.
type sessionPayload struct {
	SessionID string `json:"session_id"`
}

// artistPayload is carried by the artist enrichment tasks.
type artistPayload struct {
	ArtistID string `json:"artist_id"`
	Name     string `json:"name"`
}

// scrobblePayload is carried by the scrobble sync task.
type scrobblePayload struct {
	User  string `json:"user"`
	Limit int    `json:"limit"`
}

func decode[T any](task models.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: bad payload for %s: %v", shared.ErrInvalidInput, task.Kind, err)
	}
	return payload, nil
}

func (e *Engine) session(task models.Task) (*Session, error) {
	payload, err := decode[sessionPayload](task)
	if err != nil {
		return nil, err
	}
	return e.Session(payload.SessionID)
}

// HandleFetchCandidates searches the metadata registry for releases
// matching the session's local set.
func (e *Engine) HandleFetchCandidates(ctx context.Context, task models.Task) error {
	session, err := e.session(task)
	if err != nil {
		return err
	}

	artist := models.JoinArtists(session.Local.Artists)
	candidates, err := e.registry.SearchReleases(ctx, artist, session.Local.Title, 8)
	if err != nil {
		return err
	}
	session.Candidates = candidates
	e.logger.Info("fetched candidates", "session", session.ID, "count", len(candidates))
	return nil
}

// HandleRankReleases scores every candidate and records the best match.
// An empty candidate set is a neutral outcome, not a failure.
func (e *Engine) HandleRankReleases(ctx context.Context, task models.Task) error {
	session, err := e.session(task)
	if err != nil {
		return err
	}
	if len(session.Candidates) == 0 {
		e.logger.Warn("no candidates to rank", "session", session.ID)
		return nil
	}

	best, err := rank.Best(session.Local, session.Candidates)
	if err != nil {
		return err
	}
	session.Best = &best
	for i := range session.Candidates {
		if session.Candidates[i].ID == best.CandidateID {
			session.Release = &session.Candidates[i]
			break
		}
	}
	e.logger.Info("ranked candidates", "session", session.ID, "best", best.CandidateID, "score", best.Score)
	return nil
}

// HandleFetchCovers gathers cover candidates from every configured art
// provider. One provider failing is logged and skipped; the task fails only
// when every provider failed.
func (e *Engine) HandleFetchCovers(ctx context.Context, task models.Task) error {
	session, err := e.session(task)
	if err != nil {
		return err
	}
	release := session.Release
	if release == nil {
		e.logger.Warn("no matched release to fetch covers for", "session", session.ID)
		return nil
	}

	artist := models.JoinArtists(release.Artists)
	failures := 0
	attempts := 0
	var covers []models.Cover

	for _, provider := range e.art.Providers {
		var fetched []models.Cover
		var fetchErr error
		switch fetch.Provider(provider) {
		case fetch.CoverArtArchive:
			if e.archive == nil {
				continue
			}
			fetched, fetchErr = e.archive.FetchCovers(ctx, release.ID, release.ReleaseGroupID, release.Title, artist)
		case fetch.Deezer:
			if e.deezer == nil {
				continue
			}
			fetched, fetchErr = e.deezer.FetchCovers(ctx, artist, release.Title)
		case fetch.Itunes:
			if e.storefront == nil {
				continue
			}
			fetched, fetchErr = e.storefront.FetchCovers(ctx, artist, release.Title, release.Country)
		default:
			e.logger.Warn("unknown art provider in configuration", "provider", provider)
			continue
		}

		attempts++
		if fetchErr != nil {
			failures++
			e.logger.Warn("cover fetch failed, continuing with remaining providers", "provider", provider, "err", fetchErr)
			continue
		}
		covers = append(covers, fetched...)
	}

	if attempts > 0 && failures == attempts {
		return fmt.Errorf("%w: no covers for %q", shared.ErrAllProvidersFailed, release.Title)
	}
	session.Covers = covers
	e.logger.Info("fetched covers", "session", session.ID, "count", len(covers))
	return nil
}

// HandleRankCovers ranks the session's gathered covers against the matched
// release.
func (e *Engine) HandleRankCovers(ctx context.Context, task models.Task) error {
	session, err := e.session(task)
	if err != nil {
		return err
	}
	if session.Release == nil || len(session.Covers) == 0 {
		return nil
	}

	session.Ratings = rank.Covers(e.art, session.Covers, session.Release.Title, session.Release.Artists)
	e.logger.Info("ranked covers", "session", session.ID, "count", len(session.Ratings))
	return nil
}

// HandleArtistDescription fetches and stores an artist biography.
func (e *Engine) HandleArtistDescription(ctx context.Context, task models.Task) error {
	payload, err := decode[artistPayload](task)
	if err != nil {
		return err
	}
	info, err := e.scrobbler.GetArtistInfo(ctx, payload.Name)
	if err != nil {
		return err
	}
	return e.library.UpdateArtistDescription(ctx, payload.ArtistID, info.Description)
}

// HandleArtistImage fetches and stores an artist image URL.
func (e *Engine) HandleArtistImage(ctx context.Context, task models.Task) error {
	payload, err := decode[artistPayload](task)
	if err != nil {
		return err
	}
	info, err := e.scrobbler.GetArtistInfo(ctx, payload.Name)
	if err != nil {
		return err
	}
	if info.ImageURL == "" {
		return nil
	}
	return e.library.UpdateArtistImage(ctx, payload.ArtistID, info.ImageURL)
}

// HandleScrobbleSync pulls recent listen history into the library.
func (e *Engine) HandleScrobbleSync(ctx context.Context, task models.Task) error {
	payload, err := decode[scrobblePayload](task)
	if err != nil {
		return err
	}
	scrobbles, err := e.scrobbler.GetRecentTracks(ctx, payload.User, payload.Limit)
	if err != nil {
		return err
	}
	return e.library.SaveScrobbles(ctx, scrobbles)
}

// Reconcile runs the whole pipeline synchronously for one local set,
// bypassing the scheduler. Used by one-shot runs.
func (e *Engine) Reconcile(ctx context.Context, local models.LocalTrackSet) (*Session, error) {
	session := e.BeginSession(local)
	payload, _ := json.Marshal(sessionPayload{SessionID: session.ID})
	task := models.Task{Payload: payload}

	steps := []struct {
		kind    string
		handler func(context.Context, models.Task) error
	}{
		{KindFetchCandidates, e.HandleFetchCandidates},
		{KindRankReleases, e.HandleRankReleases},
		{KindFetchCovers, e.HandleFetchCovers},
		{KindRankCovers, e.HandleRankCovers},
	}
	for _, step := range steps {
		task.Kind = step.kind
		if err := step.handler(ctx, task); err != nil {
			return session, err
		}
	}
	return session, nil
}

// pipelineTTL bounds each import pipeline step.
const pipelineTTL = 5 * time.Minute
