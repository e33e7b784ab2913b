// Package netx holds small HTTP helpers shared by outbound API clients.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// MaxResponseBytes caps how much of a response body is read.
const MaxResponseBytes = 1 << 20

// PostJSON sends payload as a JSON POST, authenticating with bearer when it
// is non-empty. It returns the status code and at most MaxResponseBytes of
// the body; non-2xx statuses are not treated as errors.
func PostJSON(ctx context.Context, client *http.Client, url, bearer string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}
