// Package retriever implements the five source adapters (B) and the research
// engine that fans out across them (D). Each adapter is a single fetch
// operation that never raises into the engine: timeout, 429/403/5xx, and any
// other failure all collapse to (nil, false).
package retriever

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// httpClient is shared across adapters; per-call timeouts are enforced via
// context rather than the client's own Timeout field, since each adapter can
// be configured independently.
var httpClient = &http.Client{}

// fetchJSON performs one GET, enforces timeout, treats 429/403/5xx as
// unavailable, and decodes the body into out. The whole round trip — request,
// response, and decode — happens inside the timeout's scope.
func fetchJSON(ctx context.Context, timeout time.Duration, url string, headers map[string]string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if unavailableStatus(resp.StatusCode) {
		return false
	}
	if resp.StatusCode != http.StatusOK {
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false
	}

	return true
}

func unavailableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusForbidden || status >= 500
}
