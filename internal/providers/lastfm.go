package providers

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// LastFMBaseURL is the public audioscrobbler endpoint.
const LastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFM provides artist descriptions and images plus scrobble history.
type LastFM struct {
	dispatcher *fetch.Dispatcher
	baseURL    string
	apiKey     string
	secret     string
}

// NewLastFM creates a last.fm adapter from the configured credentials.
func NewLastFM(d *fetch.Dispatcher, baseURL string, cfg shared.LastFMConfig) *LastFM {
	if baseURL == "" {
		baseURL = LastFMBaseURL
	}
	return &LastFM{dispatcher: d, baseURL: baseURL, apiKey: cfg.APIKey, secret: cfg.Secret}
}

// Signature computes the last.fm method signature: parameters sorted by key,
// concatenated as key+value with the "format" parameter excluded, suffixed
// with the shared secret and digested to lowercase hex md5. Sorting first
// makes the result independent of map iteration order.
func Signature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "format" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	concat := ""
	for _, key := range keys {
		concat += key + params[key]
	}
	concat += secret

	return fmt.Sprintf("%x", md5.Sum([]byte(concat)))
}

// requestURL builds a signed method call URL.
func (l *LastFM) requestURL(method string, params map[string]string) string {
	all := map[string]string{
		"method":  method,
		"api_key": l.apiKey,
		"format":  "json",
	}
	for key, value := range params {
		all[key] = value
	}
	all["api_sig"] = Signature(all, l.secret)

	values := url.Values{}
	for key, value := range all {
		values.Set(key, value)
	}
	return l.baseURL + "?" + values.Encode()
}

// ArtistInfo is the subset of artist.getinfo the enrichment tasks consume.
type ArtistInfo struct {
	Name        string
	Description string
	ImageURL    string
}

type lastfmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type lastfmArtistResponse struct {
	Artist struct {
		Name string `json:"name"`
		Bio  struct {
			Summary string `json:"summary"`
		} `json:"bio"`
		Image []lastfmImage `json:"image"`
	} `json:"artist"`
}

// GetArtistInfo fetches an artist's biography and largest image.
func (l *LastFM) GetArtistInfo(ctx context.Context, artist string) (*ArtistInfo, error) {
	var decoded lastfmArtistResponse
	u := l.requestURL("artist.getinfo", map[string]string{"artist": artist})
	if err := getJSON(ctx, l.dispatcher, fetch.LastFM, u, &decoded); err != nil {
		return nil, err
	}

	info := &ArtistInfo{
		Name:        decoded.Artist.Name,
		Description: decoded.Artist.Bio.Summary,
	}
	// Sizes arrive smallest first; the last populated entry wins.
	for _, image := range decoded.Artist.Image {
		if image.URL != "" {
			info.ImageURL = image.URL
		}
	}
	return info, nil
}

// Scrobble is one listen event from a user's history.
type Scrobble struct {
	Track      string
	Artist     string
	Album      string
	ListenedAt time.Time
}

type lastfmRecentTracks struct {
	RecentTracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"#text"`
			} `json:"artist"`
			Album struct {
				Name string `json:"#text"`
			} `json:"album"`
			Date struct {
				UTS string `json:"uts"`
			} `json:"date"`
		} `json:"track"`
	} `json:"recenttracks"`
}

// GetRecentTracks fetches a page of the user's scrobble history.
func (l *LastFM) GetRecentTracks(ctx context.Context, user string, limit int) ([]Scrobble, error) {
	if limit <= 0 {
		limit = 50
	}
	var decoded lastfmRecentTracks
	u := l.requestURL("user.getrecenttracks", map[string]string{
		"user":  user,
		"limit": strconv.Itoa(limit),
	})
	if err := getJSON(ctx, l.dispatcher, fetch.LastFM, u, &decoded); err != nil {
		return nil, err
	}

	scrobbles := make([]Scrobble, 0, len(decoded.RecentTracks.Track))
	for _, track := range decoded.RecentTracks.Track {
		scrobble := Scrobble{
			Track:  track.Name,
			Artist: track.Artist.Name,
			Album:  track.Album.Name,
		}
		if uts, err := strconv.ParseInt(track.Date.UTS, 10, 64); err == nil {
			scrobble.ListenedAt = time.Unix(uts, 0).UTC()
		}
		scrobbles = append(scrobbles, scrobble)
	}
	return scrobbles, nil
}
