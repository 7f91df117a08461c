package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock"
	"github.com/rs/zerolog"
)

const (
	// DefaultCooldown is applied when upstream didn't say how long to back off.
	DefaultCooldown = 120 * time.Second
	// LogInterval is minimal interval between rate limit notices for one upstream.
	LogInterval = 5 * time.Second
)

type state struct {
	hasCredentials bool
	disabled       bool
	resetAt        time.Time
	lastLogAt      time.Time
}

// Option is custom configuration of Tracker.
type Option func(t *Tracker)

// Tracker holds process-wide cooldown state per upstream.
// Cooldowns are never persisted.
type Tracker struct {
	mu              sync.Mutex
	upstreams       map[string]*state
	clock           clock.Clock
	defaultCooldown time.Duration
	logger          zerolog.Logger
}

// NewTracker returns new Tracker.
func NewTracker(ops ...Option) *Tracker {
	tr := &Tracker{
		upstreams:       make(map[string]*state),
		clock:           clock.System{},
		defaultCooldown: DefaultCooldown,
		logger:          zerolog.Nop(),
	}

	for _, op := range ops {
		op(tr)
	}

	return tr
}

// Register declares upstream and whether credentials for it are configured.
func (t *Tracker) Register(upstream string, hasCredentials bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(upstream)
	st.hasCredentials = hasCredentials
}

// CanAttemptNetwork reports whether network call to upstream may be attempted now.
// It has no side effects.
func (t *Tracker) CanAttemptNetwork(upstream string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.upstreams[upstream]
	if !ok || !st.hasCredentials || st.disabled {
		return false
	}

	return !t.clock.Now().Before(st.resetAt)
}

// MarkRateLimited starts cooldown for upstream. Zero or negative retryAfter means default cooldown.
// Cooldown only ever moves forward.
func (t *Tracker) MarkRateLimited(upstream string, retryAfter time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = t.defaultCooldown
	}

	now := t.clock.Now()
	st := t.get(upstream)

	resetAt := now.Add(retryAfter)
	if resetAt.After(st.resetAt) {
		st.resetAt = resetAt
	}

	if now.Sub(st.lastLogAt) >= LogInterval {
		st.lastLogAt = now
		t.logger.Warn().
			Str("upstream", upstream).
			Dur("cooldown", st.resetAt.Sub(now)).
			Time("resetAt", st.resetAt).
			Msg("upstream rate limited, using cached listings")
	}
}

// Disable blocks network access to upstream for the rest of process lifetime.
func (t *Tracker) Disable(upstream string, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.get(upstream)
	if st.disabled {
		return
	}
	st.disabled = true

	t.logger.Error().
		Str("upstream", upstream).
		Str("reason", reason).
		Msg("upstream network access disabled until restart")
}

// ResetAt returns time when cooldown of upstream ends.
func (t *Tracker) ResetAt(upstream string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.upstreams[upstream]; ok {
		return st.resetAt
	}
	return time.Time{}
}

func (t *Tracker) get(upstream string) *state {
	st, ok := t.upstreams[upstream]
	if !ok {
		st = &state{}
		t.upstreams[upstream] = st
	}
	return st
}

// ParseRetryAfter parses Retry-After header value given as seconds or HTTP date.
// It returns false when value is missing, malformed or already elapsed.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)), true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	wait := at.Sub(now)
	if wait <= 0 {
		return 0, false
	}

	return wait, true
}

// WithClock sets Tracker's custom Clock.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithDefaultCooldown sets cooldown used when upstream gave no Retry-After.
func WithDefaultCooldown(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.defaultCooldown = d
		}
	}
}

// WithLogger sets Tracker's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}
