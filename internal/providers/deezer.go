package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
)

// DeezerBaseURL is the public Deezer API endpoint.
const DeezerBaseURL = "https://api.deezer.com"

// Deezer searches albums by artist and title; every hit exposes a fixed set
// of cover renditions.
type Deezer struct {
	dispatcher *fetch.Dispatcher
	baseURL    string
}

// NewDeezer creates a Deezer adapter.
func NewDeezer(d *fetch.Dispatcher, baseURL string) *Deezer {
	if baseURL == "" {
		baseURL = DeezerBaseURL
	}
	return &Deezer{dispatcher: d, baseURL: baseURL}
}

type deezerAlbum struct {
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverSmall  string `json:"cover_small"`
	CoverMedium string `json:"cover_medium"`
	CoverBig    string `json:"cover_big"`
	CoverXL     string `json:"cover_xl"`
}

type deezerHit struct {
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album deezerAlbum `json:"album"`
}

type deezerResponse struct {
	Data []deezerHit `json:"data"`
}

// Deezer serves five renditions per album at fixed square sizes.
var deezerSizes = []struct {
	pixels int
	url    func(deezerAlbum) string
}{
	{56, func(a deezerAlbum) string { return a.CoverSmall }},
	{120, func(a deezerAlbum) string { return a.Cover }},
	{250, func(a deezerAlbum) string { return a.CoverMedium }},
	{500, func(a deezerAlbum) string { return a.CoverBig }},
	{1000, func(a deezerAlbum) string { return a.CoverXL }},
}

// FetchCovers searches Deezer for the release and returns every rendition
// of every hit as a cover candidate.
func (d *Deezer) FetchCovers(ctx context.Context, artist, title string) ([]models.Cover, error) {
	query := fmt.Sprintf("artist:%q album:%q", artist, title)
	searchURL := fmt.Sprintf("%s/search?order=RANKING&q=%s", d.baseURL, url.QueryEscape(query))

	var decoded deezerResponse
	if err := getJSON(ctx, d.dispatcher, fetch.Deezer, searchURL, &decoded); err != nil {
		return nil, err
	}

	var covers []models.Cover
	for _, hit := range decoded.Data {
		for _, size := range deezerSizes {
			u := size.url(hit.Album)
			if u == "" {
				continue
			}
			covers = append(covers, models.Cover{
				Provider: string(fetch.Deezer),
				URL:      u,
				Width:    size.pixels,
				Height:   size.pixels,
				Title:    hit.Album.Title,
				Artist:   hit.Artist.Name,
			})
		}
	}
	return covers, nil
}
