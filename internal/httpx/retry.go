package httpx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// TransientStatus reports whether an upstream status code is worth retrying.
// Anything else in the 4xx range is a permanent failure.
func TransientStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// Client is an HTTP client with bounded retries and exponential backoff on
// transient failures (transport errors, 408, 429, 5xx). Both the enrichment
// lookups and the keypress forwarder send through it.
type Client struct {
	http        *http.Client
	maxRetries  int
	backoffBase time.Duration
	logger      zerolog.Logger
}

// NewClient creates a retrying client. connectTimeout bounds dialing,
// requestTimeout bounds each full attempt, maxRetries is the number of
// retries after the first attempt.
func NewClient(connectTimeout, requestTimeout time.Duration, maxRetries int, backoffBase time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
			},
		},
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		logger:      logger,
	}
}

// Do executes the request, rebuilding it per attempt so bodies can be
// re-sent. It returns a response for any non-transient status; the caller
// owns closing the body. A non-nil error means every attempt failed or the
// context was canceled.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	operation := func() error {
		attempt++
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		r, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("url", req.URL.String()).Msg("request failed")
			return err
		}

		if TransientStatus(r.StatusCode) {
			// Drain so the connection can be reused for the retry
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			c.logger.Warn().Int("status", r.StatusCode).Int("attempt", attempt).Str("url", req.URL.String()).Msg("transient upstream status")
			return fmt.Errorf("transient status %d", r.StatusCode)
		}

		resp = r
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.backoffBase

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}
