package ratelimit_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock/clocktesting"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

const upstream = "crm"

var now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestUnitCanAttemptNetwork(t *testing.T) {
	tests := map[string]struct {
		register       bool
		hasCredentials bool
		disable        bool
		want           bool
	}{
		"unknown upstream": {
			want: false,
		},
		"missing credentials": {
			register: true,
			want:     false,
		},
		"credentials present": {
			register:       true,
			hasCredentials: true,
			want:           true,
		},
		"disabled after credential failure": {
			register:       true,
			hasCredentials: true,
			disable:        true,
			want:           false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := ratelimit.NewTracker(ratelimit.WithClock(clocktesting.NewFake(now)))
			if tt.register {
				tr.Register(upstream, tt.hasCredentials)
			}
			if tt.disable {
				tr.Disable(upstream, "401 Unauthorized")
			}

			assert.Equal(t, tt.want, tr.CanAttemptNetwork(upstream), "should correctly gate network access")
		})
	}
}

func TestUnitMarkRateLimitedRetryAfterWindow(t *testing.T) {
	clk := clocktesting.NewFake(now)
	tr := ratelimit.NewTracker(ratelimit.WithClock(clk))
	tr.Register(upstream, true)

	wait, ok := ratelimit.ParseRetryAfter("30", clk.Now())
	assert.True(t, ok, "should parse Retry-After seconds")
	tr.MarkRateLimited(upstream, wait)

	clk.Advance(29 * time.Second)
	assert.False(t, tr.CanAttemptNetwork(upstream), "should block network during cooldown")

	clk.Advance(2 * time.Second)
	assert.True(t, tr.CanAttemptNetwork(upstream), "should allow network after cooldown")
}

func TestUnitMarkRateLimitedDefaultCooldown(t *testing.T) {
	clk := clocktesting.NewFake(now)
	tr := ratelimit.NewTracker(ratelimit.WithClock(clk))
	tr.Register(upstream, true)

	tr.MarkRateLimited(upstream, 0)

	assert.Equal(t, now.Add(ratelimit.DefaultCooldown), tr.ResetAt(upstream), "should apply default cooldown")
}

func TestUnitMarkRateLimitedIsMonotonic(t *testing.T) {
	clk := clocktesting.NewFake(now)
	tr := ratelimit.NewTracker(ratelimit.WithClock(clk))
	tr.Register(upstream, true)

	short, long := 10*time.Second, 90*time.Second

	tr.MarkRateLimited(upstream, short)
	tr.MarkRateLimited(upstream, long)
	tr.MarkRateLimited(upstream, short)

	assert.Equal(t, now.Add(long), tr.ResetAt(upstream), "shorter cooldown shouldn't shorten active one")
}

func TestUnitMarkRateLimitedThrottlesLogs(t *testing.T) {
	clk := clocktesting.NewFake(now)
	var buf bytes.Buffer
	tr := ratelimit.NewTracker(
		ratelimit.WithClock(clk),
		ratelimit.WithLogger(zerolog.New(&buf)),
	)
	tr.Register(upstream, true)

	for range 10 {
		tr.MarkRateLimited(upstream, time.Minute)
		clk.Advance(time.Second)
	}

	// logged at t=0s and t=5s
	assert.Equal(t, 2, strings.Count(buf.String(), "upstream rate limited"), "should log at most once per 5 seconds")
}

func TestUnitParseRetryAfter(t *testing.T) {
	tests := map[string]struct {
		value  string
		want   time.Duration
		wantOK bool
	}{
		"seconds": {
			value:  "30",
			want:   30 * time.Second,
			wantOK: true,
		},
		"http date": {
			value:  now.Add(time.Minute).Format(http.TimeFormat),
			want:   time.Minute,
			wantOK: true,
		},
		"past http date": {
			value: now.Add(-time.Minute).Format(http.TimeFormat),
		},
		"empty": {
			value: "",
		},
		"garbage": {
			value: "soon",
		},
		"zero": {
			value: "0",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ratelimit.ParseRetryAfter(tt.value, now)

			assert.Equal(t, tt.wantOK, ok, "should report whether value is usable")
			assert.Equal(t, tt.want, got, "should return correct duration")
		})
	}
}
