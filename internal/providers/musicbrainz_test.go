package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const mbReleaseFixture = `{
	"id": "rel-1",
	"title": "Music Has the Right to Children",
	"date": "1998-04-20",
	"country": "GB",
	"artist-credit": [{"name": "Boards of Canada", "joinphrase": ""}],
	"label-info": [{"catalog-number": "WARPCD55", "label": {"name": "Warp"}}],
	"release-group": {"id": "rg-1", "primary-type": "Album", "first-release-date": "1998-04-20"},
	"media": [
		{"position": 1, "tracks": [
			{"title": "Wildlife Analysis", "position": 1, "length": 77000, "artist-credit": [{"name": "Boards of Canada"}]},
			{"title": "An Eagle in Your Mind", "position": 2, "length": 378000, "artist-credit": [{"name": "Boards of Canada"}]}
		]},
		{"position": 2, "tracks": [
			{"title": "Open the Light", "position": 1, "length": 263000, "artist-credit": [{"name": "Boards of Canada"}]}
		]}
	]
}`

func TestMusicBrainz(t *testing.T) {
	t.Run("LookupRelease flattens media into one track list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.RawQuery, "inc=") {
				t.Error("expected an inc parameter on the lookup")
			}
			w.Write([]byte(mbReleaseFixture))
		}))
		defer server.Close()

		mb := NewMusicBrainz(testDispatcher(t), server.URL, nil)
		candidate, err := mb.LookupRelease(context.Background(), "rel-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if candidate.ID != "rel-1" || candidate.ReleaseGroupID != "rg-1" {
			t.Errorf("unexpected ids: %q / %q", candidate.ID, candidate.ReleaseGroupID)
		}
		if candidate.ReleaseType != "Album" || candidate.Country != "GB" {
			t.Errorf("unexpected release metadata: %+v", candidate)
		}
		if candidate.Label != "Warp" || candidate.CatalogNumber != "WARPCD55" {
			t.Errorf("unexpected label info: %q / %q", candidate.Label, candidate.CatalogNumber)
		}
		if want := time.Date(1998, 4, 20, 0, 0, 0, 0, time.UTC); !candidate.Date.Equal(want) {
			t.Errorf("unexpected date %v", candidate.Date)
		}

		if len(candidate.Tracks) != 3 {
			t.Fatalf("expected three flattened tracks, got %d", len(candidate.Tracks))
		}
		// Positions restart per medium upstream; flattened they must run 1..3.
		for i, track := range candidate.Tracks {
			if track.Position != i+1 {
				t.Errorf("expected position %d, got %d for %q", i+1, track.Position, track.Title)
			}
		}
		if candidate.Tracks[2].Title != "Open the Light" {
			t.Errorf("expected the second medium's track last, got %q", candidate.Tracks[2].Title)
		}
		if candidate.Tracks[0].Duration != 77 {
			t.Errorf("expected milliseconds converted to seconds, got %d", candidate.Tracks[0].Duration)
		}
	})

	t.Run("SearchReleases drops candidates whose lookup fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "/release/rel-1"):
				w.Write([]byte(mbReleaseFixture))
			case strings.Contains(r.URL.Path, "/release/rel-2"):
				w.WriteHeader(http.StatusServiceUnavailable)
			default:
				w.Write([]byte(`{"releases": [{"id": "rel-1"}, {"id": "rel-2"}]}`))
			}
		}))
		defer server.Close()

		mb := NewMusicBrainz(testDispatcher(t), server.URL, nil)
		candidates, err := mb.SearchReleases(context.Background(), "Boards of Canada", "Music Has the Right to Children", 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 1 || candidates[0].ID != "rel-1" {
			t.Errorf("expected only the resolvable candidate, got %+v", candidates)
		}
	})

	t.Run("partial dates parse to year precision", func(t *testing.T) {
		if got := parseDate("1998"); !got.Equal(time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected year parse: %v", got)
		}
		if got := parseDate("1998-04"); !got.Equal(time.Date(1998, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected year-month parse: %v", got)
		}
		if got := parseDate("not a date"); !got.IsZero() {
			t.Errorf("expected zero time for garbage, got %v", got)
		}
	})
}
