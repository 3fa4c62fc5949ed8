package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/tunesmith/internal/fetch"
	"github.com/desertthunder/tunesmith/internal/models"
)

// ItunesBaseURL is the public iTunes search endpoint.
const ItunesBaseURL = "https://itunes.apple.com"

const itunesDefaultCountry = "US"

// Storefronts the search API accepts; anything else falls back to US.
var itunesCountries = map[string]bool{}

func init() {
	for _, c := range strings.Fields(
		"AE AG AI AL AM AO AR AT AU AZ BB BE BF BG BH BJ BM BN BO BR BS BT BW BY BZ CA CG CH CL CN CO CR " +
			"CV CY CZ DE DK DM DO DZ EC EE EG ES FI FJ FM FR GB GD GH GM GR GT GW GY HK HN HR HU ID IE IL IN " +
			"IS IT JM JO JP KE KG KH KN KR KW KY KZ LA LB LC LK LR LT LU LV MD MG MK ML MN MO MR MS MT MU MW " +
			"MX MY MZ NA NE NG NI NL NP NO NZ OM PA PE PG PH PK PL PT PW PY QA RO RU SA SB SC SE SG SI SK SL " +
			"SN SR ST SV SZ TC TD TH TJ TM TN TR TT TW TZ UA UG US UY UZ VC VE VG VN YE ZA ZW") {
		itunesCountries[c] = true
	}
}

// Itunes searches albums in the release's storefront; artwork URLs are
// derived from the 100x100 artwork by rewriting the size segment.
type Itunes struct {
	dispatcher *fetch.Dispatcher
	baseURL    string
}

// NewItunes creates an iTunes adapter.
func NewItunes(d *fetch.Dispatcher, baseURL string) *Itunes {
	if baseURL == "" {
		baseURL = ItunesBaseURL
	}
	return &Itunes{dispatcher: d, baseURL: baseURL}
}

type itunesResult struct {
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

type itunesResponse struct {
	Results []itunesResult `json:"results"`
}

// itunesSizes are the artwork renditions requested per result, largest
// first.
var itunesSizes = []int{5000, 1200, 600}

// FetchCovers searches the storefront for the release and returns scaled-up
// artwork URLs for every hit.
func (i *Itunes) FetchCovers(ctx context.Context, artist, title, country string) ([]models.Cover, error) {
	if !itunesCountries[country] {
		country = itunesDefaultCountry
	}
	searchURL := fmt.Sprintf("%s/search?media=music&entity=album&country=%s&term=%s",
		i.baseURL, country, url.QueryEscape(artist+" "+title))

	var decoded itunesResponse
	if err := getJSON(ctx, i.dispatcher, fetch.Itunes, searchURL, &decoded); err != nil {
		return nil, err
	}

	var covers []models.Cover
	for _, result := range decoded.Results {
		if result.ArtworkURL100 == "" {
			continue
		}
		for _, size := range itunesSizes {
			covers = append(covers, models.Cover{
				Provider: string(fetch.Itunes),
				URL:      strings.Replace(result.ArtworkURL100, "100x100", fmt.Sprintf("%dx%d", size, size), 1),
				Width:    size,
				Height:   size,
				Title:    result.CollectionName,
				Artist:   result.ArtistName,
			})
		}
	}
	return covers, nil
}
