// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// ErrTimeout is returned (wrapped) when a single call exceeds its per-call timeout.
var ErrTimeout = errors.New("request timeout")

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Observer receives one callback per finished attempt. status is the HTTP
// status code, "timeout" or "error".
type Observer func(endpoint, status string, elapsed time.Duration)

type Options struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	RetryDelay    time.Duration
	Observer      Observer
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	observer   Observer
}

func NewClientWithOptions(opts Options) *Client {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Client{
		// per-call deadlines come from the context, see GetJSON
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: delay,
		observer:   opts.Observer,
	}
}

// GetJSON issues a GET against rawURL and decodes the JSON body into out.
// endpoint is a low-cardinality label used for logging and metrics. Calls are
// rate limited, bounded by the per-call timeout, and retried on 429, 5xx,
// timeouts and transport errors. Returned errors never carry the query string
// of rawURL, which may hold credentials.
func (c *Client) GetJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	return retry.Do(
		func() error { return c.getOnce(ctx, endpoint, rawURL, out) },
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) getOnce(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("%s: invalid request: %w", endpoint, stripQuery(err)))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			c.observe(endpoint, "timeout", start)
			return fmt.Errorf("%s: %w", endpoint, ErrTimeout)
		}
		c.observe(endpoint, "error", start)
		return stripQuery(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
		return &StatusError{StatusCode: resp.StatusCode, URL: endpoint, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			c.observe(endpoint, "timeout", start)
			return fmt.Errorf("%s: %w", endpoint, ErrTimeout)
		}
		c.observe(endpoint, "error", start)
		return retry.Unrecoverable(fmt.Errorf("decode %s: %w", endpoint, err))
	}
	c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
	return nil
}

// stripQuery rewrites a *url.Error so its URL has no query string.
func stripQuery(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := uerr.URL
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		u.User = nil
		redacted = u.String()
	} else if i := strings.IndexByte(redacted, '?'); i >= 0 {
		redacted = redacted[:i]
	}
	return &url.Error{Op: uerr.Op, URL: redacted, Err: uerr.Err}
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	if c.observer != nil {
		c.observer(endpoint, status, time.Since(start))
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
