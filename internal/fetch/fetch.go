// package fetch implements the rate-limited outbound request dispatcher.
//
// Every provider call in the engine goes through a [Dispatcher], which gates
// callers on a per-provider token bucket, decorates the request with the
// provider's User-Agent, and executes it against one shared HTTP client.
// The dispatcher never retries; retry policy belongs to the caller.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/shared"
	"golang.org/x/time/rate"
)

// Provider identifies an upstream metadata or art service.
type Provider string

const (
	MusicBrainz     Provider = "musicbrainz"
	CoverArtArchive Provider = "coverartarchive"
	Itunes          Provider = "itunes"
	Deezer          Provider = "deezer"
	LastFM          Provider = "lastfm"
)

// Published request quotas, in calls per second. MusicBrainz and last.fm
// enforce 1 req/s; the art providers tolerate more.
var defaultRates = map[Provider]float64{
	MusicBrainz:     1,
	CoverArtArchive: 1,
	LastFM:          1,
	Itunes:          10,
	Deezer:          50,
}

// browserAgent is sent to providers that throttle unknown clients.
const browserAgent = "Mozilla/5.0 (Android 4.4; Mobile; rv:41.0) Gecko/41.0 Firefox/41.0"

// mbAgent satisfies the MusicBrainz requirement for a descriptive User-Agent.
const mbAgent = "tunesmith/0.1 (https://github.com/desertthunder/tunesmith)"

var userAgents = map[Provider]string{
	MusicBrainz:     mbAgent,
	CoverArtArchive: mbAgent,
	Itunes:          browserAgent,
	Deezer:          browserAgent,
	LastFM:          browserAgent,
}

// Error is a typed failure for a single provider call. StatusCode is zero
// for transport-level failures.
type Error struct {
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return shared.ErrAPIRequest
}

// Dispatcher executes provider requests behind per-provider token buckets.
// Safe for arbitrary concurrent callers; the limiters are the only shared
// mutable state and waiting callers suspend rather than spin.
type Dispatcher struct {
	client   *http.Client
	limiters map[Provider]*rate.Limiter
	logger   *log.Logger
}

// NewDispatcher creates a Dispatcher from the fetch configuration.
// Quotas absent from cfg.Rates fall back to the provider defaults. A nil
// client uses [http.DefaultClient].
func NewDispatcher(cfg shared.FetchConfig, client *http.Client, logger *log.Logger) *Dispatcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if client == nil {
		// The client timeout covers the whole call including body reads,
		// which a context deadline scoped to Send could not.
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limiters := make(map[Provider]*rate.Limiter, len(defaultRates))
	for provider, fallback := range defaultRates {
		quota := fallback
		if override, ok := cfg.Rates[string(provider)]; ok && override > 0 {
			quota = override
		}
		limiters[provider] = rate.NewLimiter(rate.Limit(quota), 1)
	}

	return &Dispatcher{
		client:   client,
		limiters: limiters,
		logger:   shared.WithLogger(logger, "component", "fetch"),
	}
}

// Send blocks until the provider's token bucket admits the call, decorates
// the request, and executes it. Non-2xx responses and transport failures
// both surface as [*Error]; on a non-2xx result the response body is closed
// before returning.
func (d *Dispatcher) Send(ctx context.Context, provider Provider, req *http.Request) (*http.Response, error) {
	limiter, ok := d.limiters[provider]
	if !ok {
		return nil, &Error{Provider: provider, Err: shared.ErrUnknownProvider}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, &Error{Provider: provider, Err: fmt.Errorf("%w: %v", shared.ErrTimeout, err)}
	}

	req = req.WithContext(ctx)
	if agent, ok := userAgents[provider]; ok && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", agent)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: provider, Err: err}
	}
	d.logger.Debug("request executed", "provider", provider, "url", req.URL.Redacted(), "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &Error{Provider: provider, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
