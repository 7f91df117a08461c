package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ratelimit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

//go:generate mockery --name Tracker --filename tracker.go

const (
	// DefaultMaxRetries is number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is backoff before the first retry, doubled on each next one.
	DefaultBaseDelay = 500 * time.Millisecond
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 12 * time.Second
)

var tracer = otel.Tracer("github.com/ewebtechsuk/aktonz2-sub001/internal/fetcher")

// Tracker gates and records upstream rate limiting.
type Tracker interface {
	CanAttemptNetwork(upstream string) bool
	MarkRateLimited(upstream string, retryAfter time.Duration)
	Disable(upstream string, reason string)
}

// Request describes single upstream call. Body is resent on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Option is custom configuration of Fetcher.
type Option func(f *Fetcher)

// Fetcher performs upstream calls with retries, backoff and cooldown bookkeeping.
type Fetcher struct {
	client     *http.Client
	upstream   string
	userAgent  string
	tracker    Tracker
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	pacer      *rate.Limiter
	clock      clock.Clock
	sleep      func(ctx context.Context, d time.Duration) error
	logger     zerolog.Logger
}

// NewFetcher returns new Fetcher calling upstream through client.
func NewFetcher(client *http.Client, upstream, userAgent string, tracker Tracker, ops ...Option) *Fetcher {
	f := &Fetcher{
		client:     client,
		upstream:   upstream,
		userAgent:  userAgent,
		tracker:    tracker,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		timeout:    DefaultTimeout,
		pacer:      rate.NewLimiter(rate.Inf, 1),
		clock:      clock.System{},
		sleep:      sleepContext,
		logger:     zerolog.Nop(),
	}

	for _, op := range ops {
		op(f)
	}

	return f
}

// Upstream returns name of upstream the Fetcher calls.
func (f *Fetcher) Upstream() string {
	return f.upstream
}

// CanAttemptNetwork reports whether upstream may be called now.
func (f *Fetcher) CanAttemptNetwork() bool {
	return f.tracker.CanAttemptNetwork(f.upstream)
}

// Fetch sends request, retrying transport failures, 429 and 5xx responses with exponential backoff.
// 401 and 403 disable further calls to upstream. Other non-2xx responses are returned as *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "fetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("upstream", f.upstream),
		attribute.String("http.method", req.Method),
	)

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if !f.tracker.CanAttemptNetwork(f.upstream) {
			err := ErrNetworkUnavailable
			if errors.Is(lastErr, ErrRateLimited) {
				err = lastErr
			}
			return nil, f.fail(span, err)
		}

		if attempt > 0 {
			delay := f.baseDelay << (attempt - 1)
			f.logger.Debug().
				Err(lastErr).
				Str("upstream", f.upstream).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Msg("retrying upstream call")
			if err := f.sleep(ctx, delay); err != nil {
				return nil, f.fail(span, fmt.Errorf("can't wait for retry: %w", err))
			}
		}

		if err := f.pacer.Wait(ctx); err != nil {
			return nil, f.fail(span, fmt.Errorf("can't wait for request slot: %w", err))
		}

		resp, err := f.attempt(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}

		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode), attribute.Int("attempts", attempt+1))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter, _ := ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After"), f.clock.Now())
			f.tracker.MarkRateLimited(f.upstream, retryAfter)
			lastErr = fmt.Errorf("%w: %w", ErrRateLimited, &StatusError{Upstream: f.upstream, StatusCode: resp.StatusCode})
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			f.tracker.Disable(f.upstream, http.StatusText(resp.StatusCode))
			return nil, f.fail(span, fmt.Errorf("%w: %w", ErrUnauthorized, &StatusError{Upstream: f.upstream, StatusCode: resp.StatusCode}))
		case resp.StatusCode >= 500:
			lastErr = &StatusError{Upstream: f.upstream, StatusCode: resp.StatusCode}
		default:
			return nil, f.fail(span, &StatusError{Upstream: f.upstream, StatusCode: resp.StatusCode})
		}
	}

	return nil, f.fail(span, fmt.Errorf("%s failed after %d attempts: %w", f.upstream, f.maxRetries+1, lastErr))
}

func (f *Fetcher) attempt(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("can't build http request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("can't get http response: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read http response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func (f *Fetcher) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithMaxRetries sets number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithBaseDelay sets backoff before the first retry.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithTimeout sets timeout of a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRequestsPerSecond paces requests to upstream. Zero or negative means unlimited.
func WithRequestsPerSecond(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.pacer = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithClock sets Fetcher's custom Clock.
func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) {
		f.clock = c
	}
}

// WithSleep sets function used to wait between retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLogger sets Fetcher's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}
