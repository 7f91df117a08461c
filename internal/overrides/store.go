// Package overrides keeps operator edits of listings and merges them onto upstream data.
package overrides

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/clock"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
)

//go:generate mockery --name Persister --filename persister.go

// Persister loads and stores override map.
type Persister interface {
	// Load returns every stored override. Missing storage means no overrides.
	Load(ctx context.Context) (map[string]models.Override, error)
	// Store persists snapshot of all overrides after override of id changed.
	// Override of id is absent from snapshot when it was deleted.
	Store(ctx context.Context, snapshot map[string]models.Override, id string) error
}

// UpdateFunc returns new override fields of listing given its current ones. Empty result deletes the override.
type UpdateFunc func(current models.Patch) (models.Patch, error)

// Option is custom configuration of Store.
type Option func(s *Store)

type writeResult struct {
	override *models.Override
	err      error
}

type writeRequest struct {
	ctx    context.Context
	id     string
	update UpdateFunc
	result chan writeResult
}

// Store is durable map of overrides keyed by listing id.
// Overrides are loaded lazily once. Writes go through single writer goroutine, so they never
// interleave and a failed write leaves the last stored state in place.
type Store struct {
	persister Persister
	clock     clock.Clock
	logger    zerolog.Logger

	loadMu    sync.Mutex
	mu        sync.RWMutex
	loaded    bool
	overrides map[string]models.Override

	writes    chan writeRequest
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore returns new Store and starts its writer. Close stops it.
func NewStore(persister Persister, ops ...Option) *Store {
	s := &Store{
		persister: persister,
		clock:     clock.System{},
		logger:    zerolog.Nop(),
		overrides: map[string]models.Override{},
		writes:    make(chan writeRequest),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, op := range ops {
		op(s)
	}

	go s.run()

	return s
}

// Get returns override of listing id or nil.
func (s *Store) Get(ctx context.Context, id string) (*models.Override, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	override, ok := all[id]
	if !ok {
		return nil, nil
	}
	return &override, nil
}

// All returns every override. Returned map must not be modified.
func (s *Store) All(ctx context.Context) (map[string]models.Override, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides, nil
}

// Set replaces override of listing id with patch. Empty patch deletes the override.
func (s *Store) Set(ctx context.Context, id string, patch models.Patch) (*models.Override, error) {
	return s.Update(ctx, id, func(models.Patch) (models.Patch, error) {
		return patch, nil
	})
}

// Update atomically replaces override of listing id with result of update.
// It returns the stored override, or nil when it was deleted.
func (s *Store) Update(ctx context.Context, id string, update UpdateFunc) (*models.Override, error) {
	req := writeRequest{
		ctx:    ctx,
		id:     id,
		update: update,
		result: make(chan writeResult, 1),
	}

	select {
	case s.writes <- req:
	case <-s.closed:
		return nil, ErrStoreClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res := <-req.result
	return res.override, res.err
}

// Close stops writer after write in progress finishes.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	<-s.done
}

func (s *Store) run() {
	defer close(s.done)

	for {
		select {
		case req := <-s.writes:
			override, err := s.write(req)
			req.result <- writeResult{override: override, err: err}
		case <-s.closed:
			return
		}
	}
}

func (s *Store) write(req writeRequest) (*models.Override, error) {
	current, err := s.All(req.ctx)
	if err != nil {
		return nil, err
	}

	var fields models.Patch
	if existing, ok := current[req.id]; ok {
		fields = maps.Clone(existing.Fields)
	}
	if fields == nil {
		fields = models.Patch{}
	}

	fields, err = req.update(fields)
	if err != nil {
		return nil, err
	}

	next := maps.Clone(current)
	var stored *models.Override
	if fields.IsEmpty() {
		delete(next, req.id)
	} else {
		override := models.Override{Fields: fields, UpdatedAt: s.clock.Now()}
		next[req.id] = override
		stored = &override
	}

	if err := s.persister.Store(req.ctx, next, req.id); err != nil {
		return nil, fmt.Errorf("can't store override of %s: %w", req.id, err)
	}

	s.mu.Lock()
	s.overrides = next
	s.mu.Unlock()

	s.logger.Info().Str("id", req.id).Bool("deleted", stored == nil).Int("fields", len(fields)).Msg("override stored")

	return stored, nil
}

// load reads overrides once. Concurrent first callers share single read.
func (s *Store) load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.loaded {
		return nil
	}

	overrides, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("can't load overrides: %w", err)
	}
	if overrides == nil {
		overrides = map[string]models.Override{}
	}

	s.mu.Lock()
	s.overrides = overrides
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug().Int("overrides", len(overrides)).Msg("overrides loaded")

	return nil
}

// WithClock sets Store's custom Clock.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets Store's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}
