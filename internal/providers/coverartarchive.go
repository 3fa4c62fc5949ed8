package providers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
)

// CoverArtArchiveBaseURL is the public archive endpoint.
const CoverArtArchiveBaseURL = "https://coverartarchive.org"

// CoverArtArchive serves cover images keyed by MusicBrainz release or
// release-group id, so there is no search step: a lookup either has images
// for the id or it does not.
type CoverArtArchive struct {
	dispatcher      *fetch.Dispatcher
	baseURL         string
	useReleaseGroup bool
}

// NewCoverArtArchive creates a CoverArtArchive adapter. With useReleaseGroup
// set, lookups go by release group, which aggregates art across editions.
func NewCoverArtArchive(d *fetch.Dispatcher, baseURL string, useReleaseGroup bool) *CoverArtArchive {
	if baseURL == "" {
		baseURL = CoverArtArchiveBaseURL
	}
	return &CoverArtArchive{dispatcher: d, baseURL: baseURL, useReleaseGroup: useReleaseGroup}
}

type caaImage struct {
	Front      bool              `json:"front"`
	Thumbnails map[string]string `json:"thumbnails"`
}

type caaResponse struct {
	Images []caaImage `json:"images"`
}

// FetchCovers looks up the archive entry for the given id and returns one
// cover per front image, at the largest thumbnail size available. The
// release title and artist stamp the cover for downstream ranking.
func (c *CoverArtArchive) FetchCovers(ctx context.Context, releaseID, releaseGroupID, title, artist string) ([]models.Cover, error) {
	entity, id := "release", releaseID
	if c.useReleaseGroup && releaseGroupID != "" {
		entity, id = "release-group", releaseGroupID
	}

	var decoded caaResponse
	if err := getJSON(ctx, c.dispatcher, fetch.CoverArtArchive, fmt.Sprintf("%s/%s/%s", c.baseURL, entity, id), &decoded); err != nil {
		return nil, err
	}

	var covers []models.Cover
	for _, image := range decoded.Images {
		if !image.Front {
			continue
		}
		best, url := 0, ""
		for key, candidate := range image.Thumbnails {
			size, err := strconv.Atoi(key)
			if err != nil {
				// "small"/"large" aliases duplicate the numeric keys.
				continue
			}
			if size > best {
				best, url = size, candidate
			}
		}
		if best == 0 {
			continue
		}
		covers = append(covers, models.Cover{
			Provider: string(fetch.CoverArtArchive),
			URL:      url,
			Width:    best,
			Height:   best,
			Title:    title,
			Artist:   artist,
		})
	}
	return covers, nil
}
