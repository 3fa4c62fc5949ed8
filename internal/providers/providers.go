// package providers implements the per-provider adapters: request
// construction against each upstream API and decoding of its JSON responses
// into the provider-neutral candidate shapes.
//
// All requests go through the rate-limited [fetch.Dispatcher]. A decode
// failure or non-success status is terminal for that single call; callers
// are expected to log it and continue with the remaining providers.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tunesmith/internal/fetch"
)

// getJSON issues a GET through the dispatcher and decodes the body into out.
func getJSON(ctx context.Context, d *fetch.Dispatcher, provider fetch.Provider, url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.Send(ctx, provider, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}
	return nil
}

// parseDate accepts the partial dates providers emit: full dates, year-month
// or bare years. Returns the zero time when the value is absent or
// unparseable.
func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
