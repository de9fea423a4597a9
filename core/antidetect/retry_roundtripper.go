package antidetect

import (
	"bytes"
	"io"
	"net/http"
)

// RetryableStatus lists the response codes worth another attempt.
var RetryableStatus = []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout}

// RetryRoundTripper retries transport errors and throttling responses using
// the same budget and backoff as page navigation.
type RetryRoundTripper struct {
	base http.RoundTripper
	cfg  RetryConfig
}

func NewRetryRoundTripper(base http.RoundTripper, cfg RetryConfig) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryRoundTripper{base: base, cfg: cfg}
}

func (rt *RetryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyCopy []byte
	if req.Body != nil && req.GetBody == nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		bodyCopy = b
	}

	attempts := rt.cfg.Attempts()
	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if resp != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
			if sleepErr := SleepContext(req.Context(), rt.cfg.Delay(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
		}
		switch {
		case req.GetBody != nil:
			if req.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		case bodyCopy != nil:
			req.Body = io.NopCloser(bytes.NewReader(bodyCopy))
		}

		resp, err = rt.base.RoundTrip(req)
		if attempt == attempts-1 || !shouldRetry(err, resp) {
			return resp, err
		}
	}
	return resp, err
}

func shouldRetry(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	for _, code := range RetryableStatus {
		if resp.StatusCode == code {
			return true
		}
	}
	return false
}
