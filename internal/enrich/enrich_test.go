package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/providers"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRegistry struct {
	candidates []models.CandidateRelease
	err        error
}

func (m *mockRegistry) SearchReleases(ctx context.Context, artist, title string, limit int) ([]models.CandidateRelease, error) {
	return m.candidates, m.err
}

type mockArchive struct {
	covers []models.Cover
	err    error
	calls  int
}

func (m *mockArchive) FetchCovers(ctx context.Context, releaseID, releaseGroupID, title, artist string) ([]models.Cover, error) {
	m.calls++
	return m.covers, m.err
}

type mockSearchCovers struct {
	covers []models.Cover
	err    error
	calls  int
}

func (m *mockSearchCovers) FetchCovers(ctx context.Context, artist, title string) ([]models.Cover, error) {
	m.calls++
	return m.covers, m.err
}

type mockStorefront struct {
	covers []models.Cover
	err    error
}

func (m *mockStorefront) FetchCovers(ctx context.Context, artist, title, country string) ([]models.Cover, error) {
	return m.covers, m.err
}

type mockScrobbler struct {
	info      *providers.ArtistInfo
	scrobbles []providers.Scrobble
	err       error
}

func (m *mockScrobbler) GetArtistInfo(ctx context.Context, artist string) (*providers.ArtistInfo, error) {
	return m.info, m.err
}

func (m *mockScrobbler) GetRecentTracks(ctx context.Context, user string, limit int) ([]providers.Scrobble, error) {
	return m.scrobbles, m.err
}

type mockLibrary struct {
	artists      []models.Artist
	descriptions map[string]string
	images       map[string]string
	scrobbles    []providers.Scrobble
}

func newMockLibrary(artists ...models.Artist) *mockLibrary {
	return &mockLibrary{
		artists:      artists,
		descriptions: make(map[string]string),
		images:       make(map[string]string),
	}
}

func (m *mockLibrary) ListArtists(ctx context.Context) ([]models.Artist, error) {
	return m.artists, nil
}

func (m *mockLibrary) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	for i := range m.artists {
		if m.artists[i].ID == id {
			return &m.artists[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockLibrary) UpdateArtistDescription(ctx context.Context, id, description string) error {
	m.descriptions[id] = description
	return nil
}

func (m *mockLibrary) UpdateArtistImage(ctx context.Context, id, imageURL string) error {
	m.images[id] = imageURL
	return nil
}

func (m *mockLibrary) SaveScrobbles(ctx context.Context, scrobbles []providers.Scrobble) error {
	m.scrobbles = append(m.scrobbles, scrobbles...)
	return nil
}

func testArt() shared.ArtConfig {
	return shared.ArtConfig{
		Providers:         []string{"itunes", "deezer", "coverartarchive"},
		ProviderRelevance: 0.25,
		MatchRelevance:    0.25,
		SizeRelevance:     0.5,
	}
}

func testLocal() models.LocalTrackSet {
	return models.LocalTrackSet{
		Title:   "Geogaddi",
		Artists: []models.ArtistCredit{{Name: "Boards of Canada"}},
		Tracks: []models.LocalTrack{
			{Title: "Music Is Math", Duration: 320, Number: 2},
			{Title: "Gyroscope", Duration: 215, Number: 5},
		},
	}
}

func testCandidate(id string) models.CandidateRelease {
	return models.CandidateRelease{
		ID:      id,
		Title:   "Geogaddi",
		Artists: []models.ArtistCredit{{Name: "Boards of Canada"}},
		Tracks: []models.CandidateTrack{
			{Title: "Music Is Math", Duration: 320, Position: 2},
			{Title: "Gyroscope", Duration: 215, Position: 5},
		},
	}
}

func sessionTask(t *testing.T, kind, sessionID string) models.Task {
	t.Helper()
	payload, err := json.Marshal(sessionPayload{SessionID: sessionID})
	require.NoError(t, err)
	return models.Task{ID: shared.GenerateID(), Kind: kind, Payload: payload}
}

func TestReconcile(t *testing.T) {
	t.Run("full pipeline produces a match and ranked covers", func(t *testing.T) {
		engine := NewEngine(EngineOpts{
			Registry: &mockRegistry{candidates: []models.CandidateRelease{testCandidate("geo")}},
			Archive:  &mockArchive{covers: []models.Cover{{Provider: "coverartarchive", URL: "caa", Width: 500, Height: 500}}},
			Deezer:   &mockSearchCovers{covers: []models.Cover{{Provider: "deezer", URL: "dz", Width: 1000, Height: 1000, Title: "Geogaddi", Artist: "Boards of Canada"}}},
			Art:      testArt(),
		})

		session, err := engine.Reconcile(context.Background(), testLocal())
		require.NoError(t, err)
		defer engine.CloseSession(session.ID)

		require.NotNil(t, session.Best)
		assert.Equal(t, "geo", session.Best.CandidateID)
		assert.Equal(t, int64(0), session.Best.Score)
		require.NotNil(t, session.Release)
		assert.Len(t, session.Ratings, 2)
	})

	t.Run("search failure surfaces", func(t *testing.T) {
		engine := NewEngine(EngineOpts{
			Registry: &mockRegistry{err: errors.New("registry down")},
			Art:      testArt(),
		})

		_, err := engine.Reconcile(context.Background(), testLocal())
		require.Error(t, err)
	})

	t.Run("no candidates is a neutral outcome", func(t *testing.T) {
		engine := NewEngine(EngineOpts{
			Registry: &mockRegistry{},
			Art:      testArt(),
		})

		session, err := engine.Reconcile(context.Background(), testLocal())
		require.NoError(t, err)
		assert.Nil(t, session.Best)
		assert.Empty(t, session.Ratings)
	})
}

func TestHandleFetchCovers(t *testing.T) {
	prepared := func(t *testing.T, opts EngineOpts) (*Engine, *Session) {
		t.Helper()
		opts.Art = testArt()
		engine := NewEngine(opts)
		session := engine.BeginSession(testLocal())
		candidate := testCandidate("geo")
		session.Release = &candidate
		return engine, session
	}

	t.Run("one failing provider is skipped", func(t *testing.T) {
		archive := &mockArchive{err: errors.New("archive down")}
		deezer := &mockSearchCovers{covers: []models.Cover{{Provider: "deezer", URL: "dz", Width: 500, Height: 500}}}
		engine, session := prepared(t, EngineOpts{Archive: archive, Deezer: deezer})

		err := engine.HandleFetchCovers(context.Background(), sessionTask(t, KindFetchCovers, session.ID))
		require.NoError(t, err)
		assert.Len(t, session.Covers, 1)
		assert.Equal(t, 1, archive.calls)
	})

	t.Run("all providers failing fails the task", func(t *testing.T) {
		engine, session := prepared(t, EngineOpts{
			Archive:    &mockArchive{err: errors.New("down")},
			Deezer:     &mockSearchCovers{err: errors.New("down")},
			Storefront: &mockStorefront{err: errors.New("down")},
		})

		err := engine.HandleFetchCovers(context.Background(), sessionTask(t, KindFetchCovers, session.ID))
		assert.ErrorIs(t, err, shared.ErrAllProvidersFailed)
	})

	t.Run("no matched release is a no-op", func(t *testing.T) {
		archive := &mockArchive{}
		engine := NewEngine(EngineOpts{Archive: archive, Art: testArt()})
		session := engine.BeginSession(testLocal())

		err := engine.HandleFetchCovers(context.Background(), sessionTask(t, KindFetchCovers, session.ID))
		require.NoError(t, err)
		assert.Zero(t, archive.calls)
	})

	t.Run("unknown session is an error", func(t *testing.T) {
		engine := NewEngine(EngineOpts{Art: testArt()})
		err := engine.HandleFetchCovers(context.Background(), sessionTask(t, KindFetchCovers, "ghost"))
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})
}

func TestArtistHandlers(t *testing.T) {
	t.Run("description is fetched and stored", func(t *testing.T) {
		library := newMockLibrary(models.Artist{ID: "a1", Name: "Boards of Canada"})
		engine := NewEngine(EngineOpts{
			Scrobbler: &mockScrobbler{info: &providers.ArtistInfo{Description: "Scottish electronic duo."}},
			Library:   library,
		})

		payload, _ := json.Marshal(artistPayload{ArtistID: "a1", Name: "Boards of Canada"})
		err := engine.HandleArtistDescription(context.Background(), models.Task{Kind: KindArtistDescription, Payload: payload})
		require.NoError(t, err)
		assert.Equal(t, "Scottish electronic duo.", library.descriptions["a1"])
	})

	t.Run("an empty image is not stored", func(t *testing.T) {
		library := newMockLibrary(models.Artist{ID: "a1", Name: "Boards of Canada"})
		engine := NewEngine(EngineOpts{
			Scrobbler: &mockScrobbler{info: &providers.ArtistInfo{}},
			Library:   library,
		})

		payload, _ := json.Marshal(artistPayload{ArtistID: "a1", Name: "Boards of Canada"})
		err := engine.HandleArtistImage(context.Background(), models.Task{Kind: KindArtistImage, Payload: payload})
		require.NoError(t, err)
		assert.Empty(t, library.images)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		engine := NewEngine(EngineOpts{Scrobbler: &mockScrobbler{}, Library: newMockLibrary()})
		err := engine.HandleArtistDescription(context.Background(), models.Task{Kind: KindArtistDescription, Payload: []byte("{")})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestHandleScrobbleSync(t *testing.T) {
	library := newMockLibrary()
	engine := NewEngine(EngineOpts{
		Scrobbler: &mockScrobbler{scrobbles: []providers.Scrobble{
			{Track: "Roygbiv", Artist: "Boards of Canada", ListenedAt: time.Unix(893030400, 0).UTC()},
		}},
		Library: library,
	})

	payload, _ := json.Marshal(scrobblePayload{User: "listener", Limit: 200})
	err := engine.HandleScrobbleSync(context.Background(), models.Task{Kind: KindScrobbleSync, Payload: payload})
	require.NoError(t, err)
	require.Len(t, library.scrobbles, 1)
	assert.Equal(t, "Roygbiv", library.scrobbles[0].Track)
}

func TestEnumerators(t *testing.T) {
	t.Run("only artists missing a description are enumerated", func(t *testing.T) {
		library := newMockLibrary(
			models.Artist{ID: "a1", Name: "Boards of Canada"},
			models.Artist{ID: "a2", Name: "Autechre", Description: "already enriched"},
		)
		engine := NewEngine(EngineOpts{Library: library})

		specs, err := engine.EnumerateArtistDescriptions(context.Background())
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, KindArtistDescription, specs[0].Kind)
	})

	t.Run("scrobble sync needs a configured account", func(t *testing.T) {
		engine := NewEngine(EngineOpts{Library: newMockLibrary()})
		specs, err := engine.EnumerateScrobbleSync(context.Background())
		require.NoError(t, err)
		assert.Empty(t, specs)

		engine = NewEngine(EngineOpts{Library: newMockLibrary(), LastFM: shared.LastFMConfig{User: "listener"}})
		specs, err = engine.EnumerateScrobbleSync(context.Background())
		require.NoError(t, err)
		require.Len(t, specs, 1)
	})
}

func TestImportSpecs(t *testing.T) {
	specs := ImportSpecs("s-1")
	require.Len(t, specs, 4)
	assert.Equal(t, KindFetchCandidates, specs[0].Kind)
	assert.Empty(t, specs[0].DependsOn)
	for i := 1; i < len(specs); i++ {
		assert.Equal(t, []int{i - 1}, specs[i].DependsOn, "each stage depends on the previous one")
	}
}
