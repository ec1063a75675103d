package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/retrier"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, req model.Request) ([]model.OHLCV, error)
	Name() string
}

// StatusError is a non-200 reply from a data provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// retryable keeps retrying network failures and 5xx/429 replies only.
func retryable(err error) bool {
	if model.IsValidation(err) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: 30 * time.Second, Transport: transport}
}

func newRetrier() *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(3),
		retrier.WithInitialInterval(500*time.Millisecond),
		retrier.WithMaxInterval(5*time.Second),
		retrier.WithRetryIf(retryable),
	)
}

// getJSON issues a GET with retries and decodes the reply into out.
func getJSON(ctx context.Context, client *http.Client, r *retrier.Retrier, endpoint string, header http.Header, out any) error {
	return r.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		for k, v := range header {
			req.Header[k] = v
		}

		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "http get")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "read body")
		}
		if resp.StatusCode != http.StatusOK {
			if len(body) > 200 {
				body = body[:200]
			}
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
		}
		return errors.Wrap(json.Unmarshal(body, out), "decode body")
	})
}
