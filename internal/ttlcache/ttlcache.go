// Package ttlcache caches values for a fixed time to live.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock"
	"github.com/rs/zerolog"
)

// DefaultTTL is time to live of cached live results.
const DefaultTTL = 60 * time.Second

type config struct {
	clock  clock.Clock
	logger zerolog.Logger
}

// Option is custom configuration of a cache.
type Option func(c *config)

func newConfig(ops []Option) config {
	cfg := config{
		clock:  clock.System{},
		logger: zerolog.Nop(),
	}
	for _, op := range ops {
		op(&cfg)
	}
	return cfg
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is process local cache. It is safe for concurrent use.
type Memory[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	config
}

// NewMemory returns new Memory cache keeping values for ttl.
func NewMemory[V any](ttl time.Duration, ops ...Option) *Memory[V] {
	return &Memory[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		config:  newConfig(ops),
	}
}

// Get returns value of key unless it's missing or expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under key.
func (m *Memory[V]) Set(_ context.Context, key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry[V]{
		value:     value,
		expiresAt: m.clock.Now().Add(m.ttl),
	}
}

// Purge removes every entry.
func (m *Memory[V]) Purge(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.entries)
}

// WithClock sets cache's custom Clock.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets cache's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}
