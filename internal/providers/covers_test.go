package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeezer(t *testing.T) {
	t.Run("every rendition of every hit becomes a cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("order") != "RANKING" {
				t.Errorf("expected RANKING order, got %q", r.URL.Query().Get("order"))
			}
			w.Write([]byte(`{"data":[{
				"artist": {"name": "Boards of Canada"},
				"album": {
					"title": "Geogaddi",
					"cover": "http://dz/120.jpg",
					"cover_small": "http://dz/56.jpg",
					"cover_medium": "http://dz/250.jpg",
					"cover_big": "http://dz/500.jpg",
					"cover_xl": "http://dz/1000.jpg"
				}
			}]}`))
		}))
		defer server.Close()

		deezer := NewDeezer(testDispatcher(t), server.URL)
		covers, err := deezer.FetchCovers(context.Background(), "Boards of Canada", "Geogaddi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(covers) != 5 {
			t.Fatalf("expected five renditions, got %d", len(covers))
		}

		sizes := map[int]bool{}
		for _, cover := range covers {
			if cover.Width != cover.Height {
				t.Errorf("expected square covers, got %dx%d", cover.Width, cover.Height)
			}
			sizes[cover.Width] = true
			if cover.Title != "Geogaddi" || cover.Artist != "Boards of Canada" {
				t.Errorf("cover not stamped with hit metadata: %+v", cover)
			}
		}
		for _, want := range []int{56, 120, 250, 500, 1000} {
			if !sizes[want] {
				t.Errorf("missing %dpx rendition", want)
			}
		}
	})

	t.Run("absent renditions are skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{"artist":{"name":"a"},"album":{"title":"t","cover_xl":"http://dz/1000.jpg"}}]}`))
		}))
		defer server.Close()

		deezer := NewDeezer(testDispatcher(t), server.URL)
		covers, err := deezer.FetchCovers(context.Background(), "a", "t")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(covers) != 1 || covers[0].Width != 1000 {
			t.Errorf("expected only the xl rendition, got %+v", covers)
		}
	})
}

func TestItunes(t *testing.T) {
	t.Run("artwork URL is rewritten per size", func(t *testing.T) {
		var country string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country = r.URL.Query().Get("country")
			w.Write([]byte(`{"results":[{
				"artistName": "Boards of Canada",
				"collectionName": "Tomorrow's Harvest",
				"artworkUrl100": "http://it/source/100x100bb.jpg"
			}]}`))
		}))
		defer server.Close()

		itunes := NewItunes(testDispatcher(t), server.URL)
		covers, err := itunes.FetchCovers(context.Background(), "Boards of Canada", "Tomorrow's Harvest", "GB")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if country != "GB" {
			t.Errorf("expected the GB storefront, got %q", country)
		}
		if len(covers) != 3 {
			t.Fatalf("expected three renditions, got %d", len(covers))
		}
		if covers[0].Width != 5000 || covers[0].URL != "http://it/source/5000x5000bb.jpg" {
			t.Errorf("unexpected first rendition: %+v", covers[0])
		}
		if covers[2].Width != 600 || covers[2].URL != "http://it/source/600x600bb.jpg" {
			t.Errorf("unexpected last rendition: %+v", covers[2])
		}
	})

	t.Run("unknown storefront falls back to US", func(t *testing.T) {
		var country string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country = r.URL.Query().Get("country")
			w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		itunes := NewItunes(testDispatcher(t), server.URL)
		if _, err := itunes.FetchCovers(context.Background(), "a", "t", "XX"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if country != "US" {
			t.Errorf("expected the US fallback, got %q", country)
		}
	})
}

func TestCoverArtArchive(t *testing.T) {
	fixture := `{"images":[
		{"front": true, "thumbnails": {"250": "http://caa/250.jpg", "500": "http://caa/500.jpg", "large": "http://caa/large.jpg"}},
		{"front": false, "thumbnails": {"1200": "http://caa/back.jpg"}},
		{"front": true, "thumbnails": {"small": "http://caa/alias-only.jpg"}}
	]}`

	t.Run("front images at their largest numeric thumbnail", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Write([]byte(fixture))
		}))
		defer server.Close()

		caa := NewCoverArtArchive(testDispatcher(t), server.URL, false)
		covers, err := caa.FetchCovers(context.Background(), "rel-1", "rg-1", "Geogaddi", "Boards of Canada")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/release/rel-1" {
			t.Errorf("expected a release lookup, got %q", path)
		}
		if len(covers) != 1 {
			t.Fatalf("expected one usable front cover, got %d", len(covers))
		}
		if covers[0].URL != "http://caa/500.jpg" || covers[0].Width != 500 {
			t.Errorf("expected the largest numeric thumbnail, got %+v", covers[0])
		}
		if covers[0].Title != "Geogaddi" || covers[0].Artist != "Boards of Canada" {
			t.Errorf("cover not stamped with release metadata: %+v", covers[0])
		}
	})

	t.Run("release group lookups when enabled", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Write([]byte(fixture))
		}))
		defer server.Close()

		caa := NewCoverArtArchive(testDispatcher(t), server.URL, true)
		if _, err := caa.FetchCovers(context.Background(), "rel-1", "rg-1", "t", "a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/release-group/rg-1" {
			t.Errorf("expected a release-group lookup, got %q", path)
		}
	})

	t.Run("missing release group id falls back to the release", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Write([]byte(`{"images":[]}`))
		}))
		defer server.Close()

		caa := NewCoverArtArchive(testDispatcher(t), server.URL, true)
		if _, err := caa.FetchCovers(context.Background(), "rel-1", "", "t", "a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/release/rel-1" {
			t.Errorf("expected the release fallback, got %q", path)
		}
	})
}
