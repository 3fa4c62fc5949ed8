package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// MusicBrainzBaseURL is the public registry endpoint.
const MusicBrainzBaseURL = "https://musicbrainz.org/ws/2"

// MusicBrainz is the canonical metadata registry adapter. Searches resolve
// to release ids; a follow-up lookup per release pulls the full recording
// and credit data needed to build a scorable candidate.
type MusicBrainz struct {
	dispatcher *fetch.Dispatcher
	baseURL    string
	logger     *log.Logger
}

// NewMusicBrainz creates a MusicBrainz adapter. An empty baseURL uses the
// public endpoint.
func NewMusicBrainz(d *fetch.Dispatcher, baseURL string, logger *log.Logger) *MusicBrainz {
	if baseURL == "" {
		baseURL = MusicBrainzBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MusicBrainz{
		dispatcher: d,
		baseURL:    baseURL,
		logger:     shared.WithLogger(logger, "provider", "musicbrainz"),
	}
}

type mbArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

type mbLabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         *struct {
		Name string `json:"name"`
	} `json:"label"`
}

type mbReleaseGroup struct {
	ID               string `json:"id"`
	PrimaryType      string `json:"primary-type"`
	FirstReleaseDate string `json:"first-release-date"`
}

type mbTrack struct {
	Title        string           `json:"title"`
	Position     int              `json:"position"`
	Length       int              `json:"length"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
}

type mbMedium struct {
	Position int       `json:"position"`
	Tracks   []mbTrack `json:"tracks"`
}

type mbRelease struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	Country      string           `json:"country"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	LabelInfo    []mbLabelInfo    `json:"label-info"`
	ReleaseGroup *mbReleaseGroup  `json:"release-group"`
	Media        []mbMedium       `json:"media"`
}

type mbReleaseSearch struct {
	Releases []mbRelease `json:"releases"`
}

// SearchReleases queries the registry with a Lucene query over artist and
// release title and returns fully populated candidates, at most limit of
// them, in the registry's relevance order.
func (m *MusicBrainz) SearchReleases(ctx context.Context, artist, title string, limit int) ([]models.CandidateRelease, error) {
	if limit <= 0 {
		limit = 8
	}
	query := fmt.Sprintf("artist:%q AND release:%q", artist, title)
	searchURL := fmt.Sprintf("%s/release?query=%s&fmt=json&limit=%d", m.baseURL, url.QueryEscape(query), limit)

	var search mbReleaseSearch
	if err := getJSON(ctx, m.dispatcher, fetch.MusicBrainz, searchURL, &search); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateRelease, 0, len(search.Releases))
	for _, hit := range search.Releases {
		candidate, err := m.LookupRelease(ctx, hit.ID)
		if err != nil {
			m.logger.Warn("release lookup failed, dropping candidate", "release", hit.ID, "err", err)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// LookupRelease fetches one release with its recordings, credits, labels and
// release group.
func (m *MusicBrainz) LookupRelease(ctx context.Context, id string) (models.CandidateRelease, error) {
	lookupURL := fmt.Sprintf("%s/release/%s?fmt=json&inc=recordings+artist-credits+labels+release-groups", m.baseURL, id)

	var release mbRelease
	if err := getJSON(ctx, m.dispatcher, fetch.MusicBrainz, lookupURL, &release); err != nil {
		return models.CandidateRelease{}, err
	}
	return release.toCandidate(), nil
}

func creditModels(credits []mbArtistCredit) []models.ArtistCredit {
	out := make([]models.ArtistCredit, 0, len(credits))
	for _, c := range credits {
		out = append(out, models.ArtistCredit{Name: c.Name, JoinPhrase: c.JoinPhrase})
	}
	return out
}

func (r mbRelease) toCandidate() models.CandidateRelease {
	candidate := models.CandidateRelease{
		ID:      r.ID,
		Title:   r.Title,
		Artists: creditModels(r.ArtistCredit),
		Date:    parseDate(r.Date),
		Country: r.Country,
	}

	if r.ReleaseGroup != nil {
		candidate.ReleaseGroupID = r.ReleaseGroup.ID
		candidate.ReleaseType = r.ReleaseGroup.PrimaryType
		candidate.OriginalDate = parseDate(r.ReleaseGroup.FirstReleaseDate)
	}
	if len(r.LabelInfo) > 0 {
		candidate.CatalogNumber = r.LabelInfo[0].CatalogNumber
		if r.LabelInfo[0].Label != nil {
			candidate.Label = r.LabelInfo[0].Label.Name
		}
	}

	// Media are flattened in order; positions restart per medium so the
	// flattened index becomes the candidate position.
	position := 0
	for _, medium := range r.Media {
		for _, track := range medium.Tracks {
			position++
			candidate.Tracks = append(candidate.Tracks, models.CandidateTrack{
				Title:    track.Title,
				Artists:  creditModels(track.ArtistCredit),
				Duration: track.Length / 1000,
				Position: position,
			})
		}
	}
	return candidate
}
