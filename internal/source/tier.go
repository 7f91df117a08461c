package source

import (
	"context"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
)

// Lookup finds single listing by id. Returning nil listing and nil error means not found.
type Lookup func(ctx context.Context, id string) (*models.Listing, error)

// Tier is single step of tiered listing lookup.
type Tier struct {
	Name string
	// Network tiers are skipped once network access stops being permitted.
	Network bool
	Lookup  Lookup
}

// Chain tries lookup tiers in order, first found listing wins.
type Chain struct {
	tiers  []Tier
	gate   func() bool
	logger zerolog.Logger
}

// NewChain returns new Chain. gate reports whether network tiers may run.
func NewChain(gate func() bool, logger zerolog.Logger, tiers ...Tier) *Chain {
	return &Chain{
		tiers:  tiers,
		gate:   gate,
		logger: logger,
	}
}

// Find returns listing found by the first tier that finds one, or nil.
// Tier errors are logged and the next tier is tried. A rate limit or credential failure
// closes the gate, so remaining network tiers are skipped.
func (c *Chain) Find(ctx context.Context, id string) *models.Listing {
	for _, tier := range c.tiers {
		if ctx.Err() != nil {
			return nil
		}
		if tier.Network && !c.gate() {
			c.logger.Debug().Str("tier", tier.Name).Str("id", id).Msg("network not permitted, skipping lookup tier")
			continue
		}

		listing, err := tier.Lookup(ctx, id)
		if err != nil {
			c.logger.Warn().Err(err).Str("tier", tier.Name).Str("id", id).Msg("lookup tier failed")
			continue
		}
		if listing != nil {
			c.logger.Debug().Str("tier", tier.Name).Str("id", id).Msg("listing found")
			return listing
		}
	}

	return nil
}
