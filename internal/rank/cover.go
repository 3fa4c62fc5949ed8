package rank

import (
	"sort"

	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// maxCoverArea normalizes image sizes; anything at or above 5000x5000 counts
// as a full-size cover.
const maxCoverArea = 5000 * 5000

// CoverArtArchiveBaseline is the fixed match distance applied to every
// CoverArtArchive candidate. Its images are looked up by release id, so a
// computed title/artist distance would always be near-perfect and the
// archive would crowd out every other provider. Intentional bias, keep it.
const CoverArtArchiveBaseline = 0.9

// Covers scores and ranks cover candidates against the target release title
// and artist line. The result is sorted by descending score; equal scores
// keep their input order, so identical input yields an identical sequence.
func Covers(cfg shared.ArtConfig, covers []models.Cover, title string, artists []models.ArtistCredit) []models.CoverRating {
	joined := models.JoinArtists(artists)

	position := make(map[string]int, len(cfg.Providers))
	for i, provider := range cfg.Providers {
		position[provider] = i
	}

	ratings := make([]models.CoverRating, 0, len(covers))
	for _, cover := range covers {
		distance := matchDistance(cover, title, joined)
		ratings = append(ratings, models.CoverRating{
			Score: valuate(cfg, position, distance, cover),
			Cover: cover,
		})
	}

	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Score > ratings[j].Score
	})
	return ratings
}

// matchDistance is 1 minus the combined normalized edit distance of the
// cover's title and artist against the target's.
func matchDistance(cover models.Cover, title, artist string) float64 {
	if cover.Provider == string(fetch.CoverArtArchive) {
		return CoverArtArchiveBaseline
	}

	titleLen := len(cover.Title)
	if len(title) > titleLen {
		titleLen = len(title)
	}
	artistLen := len(cover.Artist)
	if len(artist) > artistLen {
		artistLen = len(artist)
	}
	if titleLen+artistLen == 0 {
		return 1
	}

	edits := levenshtein.Distance(cover.Title, title) + levenshtein.Distance(cover.Artist, artist)
	return 1 - float64(edits)/float64(titleLen+artistLen)
}

// valuate combines the provider priority, match distance and image size
// components under the configured weights.
func valuate(cfg shared.ArtConfig, position map[string]int, distance float64, cover models.Cover) float64 {
	providerComponent := 0.0
	if len(cfg.Providers) > 0 {
		if idx, ok := position[cover.Provider]; ok {
			providerComponent = float64(idx) / float64(len(cfg.Providers))
		}
	}

	area := float64(cover.Width*cover.Height) / float64(maxCoverArea)
	if area > 1 {
		area = 1
	}
	if area < 0 {
		area = 0
	}

	return providerComponent*cfg.ProviderRelevance +
		distance*cfg.MatchRelevance +
		area*cfg.SizeRelevance
}
