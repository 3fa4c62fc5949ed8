// package rank implements the reconciliation scoring core: the field-level
// cost model, the minimum-cost track assignment, and cover art ranking.
//
// Costs are non-negative integers where zero means a perfect field match.
// All computations are pure and deterministic; equal inputs always produce
// equal outputs.
package rank

import (
	"time"

	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/tunesmith/internal/models"
)

// Field weight factors. String distances are normalized into [0, factor];
// numeric distances are clipped before weighting so a single wild field
// cannot drown out the rest.
const (
	trackTitleFactor     = 5000
	trackArtistFactor    = 1000
	trackLengthFactor    = 300
	trackNumberFactor    = 200
	trackLengthClip      = 300
	trackNumberClip      = 100
	releaseTitleFactor   = 1000
	releaseArtistFactor  = 500
	releaseTypeFactor    = 50
	releaseCountryFactor = 5
	releaseLabelFactor   = 5
	releaseCatalogFactor = 5
	releaseDateFactor    = 100
	releaseDateClipDays  = 3650
)

var levenshtein = metrics.NewLevenshtein()

// stringCost is the Levenshtein distance between a and b, normalized by the
// longer length and scaled by factor. Integer arithmetic keeps the result
// deterministic; it is zero iff the strings are equal.
func stringCost(a, b string, factor int64) int64 {
	if a == b {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return int64(levenshtein.Distance(a, b)) * factor / int64(longest)
}

// optionalStringCost is stringCost for fields that may be unset; an empty
// string on either side means unknown and contributes nothing.
func optionalStringCost(a, b string, factor int64) int64 {
	if a == "" || b == "" {
		return 0
	}
	return stringCost(a, b, factor)
}

// numberCost weights the absolute difference between two positive numbers,
// clipped at clip. A zero on either side means the field is unknown and
// contributes nothing.
func numberCost(a, b, clip, factor int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > clip {
		diff = clip
	}
	return diff * factor
}

// dateCost weights the gap between two dates in whole days, clipped at ten
// years. A zero time on either side contributes nothing.
func dateCost(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	days := int64(a.Sub(b) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}
	if days > releaseDateClipDays {
		days = releaseDateClipDays
	}
	return days * releaseDateFactor
}

// TrackCost measures the dissimilarity between a local track and a
// candidate track. Zero iff every compared field matches exactly.
func TrackCost(local models.LocalTrack, candidate models.CandidateTrack) int64 {
	return stringCost(local.Title, candidate.Title, trackTitleFactor) +
		stringCost(models.JoinArtists(local.Artists), models.JoinArtists(candidate.Artists), trackArtistFactor) +
		numberCost(int64(local.Duration), int64(candidate.Duration), trackLengthClip, trackLengthFactor) +
		numberCost(int64(local.Number), int64(candidate.Position), trackNumberClip, trackNumberFactor)
}

// ReleaseCost measures release-level dissimilarity between a local track set
// and a candidate release.
func ReleaseCost(local models.LocalTrackSet, candidate models.CandidateRelease) int64 {
	return stringCost(local.Title, candidate.Title, releaseTitleFactor) +
		stringCost(models.JoinArtists(local.Artists), models.JoinArtists(candidate.Artists), releaseArtistFactor) +
		optionalStringCost(local.ReleaseType, candidate.ReleaseType, releaseTypeFactor) +
		optionalStringCost(local.Country, candidate.Country, releaseCountryFactor) +
		optionalStringCost(local.Label, candidate.Label, releaseLabelFactor) +
		optionalStringCost(local.CatalogNumber, candidate.CatalogNumber, releaseCatalogFactor) +
		dateCost(local.Date, candidate.Date) +
		dateCost(local.OriginalDate, candidate.OriginalDate)
}
