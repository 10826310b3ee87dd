package kroger

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const retryMaxTries = 3

// retryTransport retries transient failures (connection errors, 429 and
// 5xx responses) with exponential backoff. Request bodies are buffered
// so attempts can be replayed.
type retryTransport struct {
	base http.RoundTripper
}

// Compile-time check that retryTransport implements http.RoundTripper.
var _ http.RoundTripper = (*retryTransport)(nil)

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base}
}

// retryableStatus matches the transient statuses the original retry
// policy covers: rate limiting and server errors.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RoundTrip sends the request, retrying up to retryMaxTries times with
// exponential backoff starting at one second. Non-retryable responses
// (including 4xx other than 429) are returned as-is on the first attempt.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffering request body: %w", err)
		}
	}

	operation := func() (*http.Response, error) {
		attempt := req.Clone(req.Context())
		if body != nil {
			attempt.Body = io.NopCloser(bytes.NewReader(body))
			attempt.ContentLength = int64(len(body))
		}

		resp, err := t.base.RoundTrip(attempt)
		if err != nil {
			return nil, err
		}
		if retryableStatus(resp.StatusCode) {
			// Drain so the connection can be reused across attempts.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server returned %s", resp.Status)
		}
		return resp, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Second

	return backoff.Retry(req.Context(), operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(retryMaxTries),
	)
}
