// Package endpoint resolves which Talkify backend base URL serves each
// outbound request.
//
// The resolver holds an ordered pair of candidate base URLs (primary and
// fallback) and remembers which one served the previous call. Every request
// tries the candidates strictly sequentially — the remembered last-good URL
// first, then the other — under a bounded per-attempt timeout. A candidate is
// considered reachable when it returns any HTTP response that is not a 5xx;
// application-level 4xx responses are returned to the caller as final, never
// retried against the other URL. Network failures, timeouts, and 5xx
// responses trigger failover to the next candidate.
//
// There are no retries beyond the two candidates and no backoff.
package endpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/metric"

	"github.com/talkify-cu/talkify/internal/observe"
)

// defaultTimeout bounds a single candidate attempt.
const defaultTimeout = 10 * time.Second

// ErrAllUnreachable is returned by [Resolver.Do] when every candidate base
// URL failed with a network error, timeout, or 5xx response. It wraps the
// last underlying error.
var ErrAllUnreachable = errors.New("endpoint: all endpoints unreachable")

// Response is the outcome of a resolved request. Body is fully read and the
// underlying connection released before Do returns.
type Response struct {
	// StatusCode is the HTTP status returned by the candidate that answered.
	StatusCode int

	// Body is the raw response body.
	Body []byte

	// BaseURL is the candidate that served this response.
	BaseURL string
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := sonic.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("endpoint: decode response from %s: %w", r.BaseURL, err)
	}
	return nil
}

// Option is a functional option for [New].
type Option func(*Resolver)

// WithTimeout overrides the per-attempt timeout. Zero or negative values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client used for all attempts.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithMetrics sets the metrics instance used to record request durations and
// failovers. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver routes requests to an ordered pair of backend base URLs with
// sticky last-success preference. It is safe for concurrent use.
type Resolver struct {
	candidates []string
	client     *http.Client
	timeout    time.Duration
	metrics    *observe.Metrics

	mu       sync.Mutex
	lastGood string
}

// New creates a [Resolver] for the given base URLs. primary must be non-empty;
// fallback may be empty, in which case only one candidate is tried. Trailing
// slashes on the base URLs are trimmed.
func New(primary, fallback string, opts ...Option) (*Resolver, error) {
	if primary == "" {
		return nil, errors.New("endpoint: primary base URL must not be empty")
	}
	candidates := []string{strings.TrimRight(primary, "/")}
	if fallback != "" {
		candidates = append(candidates, strings.TrimRight(fallback, "/"))
	}
	r := &Resolver{
		candidates: candidates,
		client:     &http.Client{},
		timeout:    defaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r, nil
}

// Candidates returns the candidate base URLs in the order the next call will
// try them: the last-successful URL first, then the rest in configured order.
func (r *Resolver) Candidates() []string {
	r.mu.Lock()
	last := r.lastGood
	r.mu.Unlock()

	ordered := make([]string, 0, len(r.candidates))
	if last != "" {
		ordered = append(ordered, last)
	}
	for _, c := range r.candidates {
		if c != last {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// Get issues a GET request for path against the candidate list.
func (r *Resolver) Get(ctx context.Context, path string) (*Response, error) {
	return r.Do(ctx, http.MethodGet, path, nil)
}

// PostJSON issues a POST request with body marshalled as JSON.
func (r *Resolver) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("endpoint: marshal request body for %s: %w", path, err)
	}
	return r.Do(ctx, http.MethodPost, path, payload)
}

// Do issues a request for path against each candidate in preference order
// until one answers with a non-5xx response. The answering candidate is
// recorded as last-good and preferred on subsequent calls. Returns
// [ErrAllUnreachable] wrapping the last underlying error when every candidate
// fails.
func (r *Resolver) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var lastErr error

	candidates := r.Candidates()
	for i, base := range candidates {
		if i > 0 {
			slog.Warn("endpoint: failing over",
				"from", candidates[i-1], "to", base, "path", path, "error", lastErr)
			r.metrics.EndpointFailovers.Add(ctx, 1,
				metric.WithAttributes(observe.Attr("from", candidates[i-1])))
		}

		resp, err := r.tryCandidate(ctx, base, method, path, body)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				// Caller cancellation is final; do not hammer the next candidate.
				return nil, fmt.Errorf("%w: %w", ErrAllUnreachable, lastErr)
			}
			continue
		}

		r.mu.Lock()
		r.lastGood = base
		r.mu.Unlock()
		return resp, nil
	}

	r.metrics.RecordRequestError(ctx, path, "network")
	return nil, fmt.Errorf("%w: %w", ErrAllUnreachable, lastErr)
}

// tryCandidate issues one attempt against a single base URL. It returns an
// error only for failover triggers: network failure, timeout, or 5xx.
func (r *Resolver) tryCandidate(ctx context.Context, base, method, path string, body []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("endpoint: build request for %s: %w", base, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint: %s %s%s: %w", method, base, path, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("endpoint: read response from %s: %w", base, err)
	}

	r.metrics.RecordRequest(ctx, path, strconv.Itoa(httpResp.StatusCode), time.Since(start).Seconds())

	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("endpoint: %s%s returned status %d", base, path, httpResp.StatusCode)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       payload,
		BaseURL:    base,
	}, nil
}
