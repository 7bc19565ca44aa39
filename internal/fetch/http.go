package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a single response body.
const DefaultMaxBytes = int64(5 << 20)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %s", e.URL, e.Status)
}

// Get performs a GET request and returns the body. A positive timeout bounds
// the request on top of ctx.
func Get(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if client == nil {
		return nil, errors.New("fetch: http client is not configured")
	}
	if url == "" {
		return nil, errors.New("fetch: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, Status: resp.Status, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > DefaultMaxBytes {
		return nil, fmt.Errorf("fetch: %s: response exceeds %d bytes", url, DefaultMaxBytes)
	}
	return data, nil
}
