package commander

import (
	"context"
	"encoding/json"
	"fmt"
)

//go:generate mockery --name Sender --filename sender.go

// Sender sends messages.
type Sender interface {
	Send(ctx context.Context, cmdType CommandType, msg []byte) error
}

// ListingsCommander sends listings commands.
type ListingsCommander struct {
	sender Sender
}

// NewListingsCommander returns new ListingsCommander using provided sender for sending messages.
func NewListingsCommander(sender Sender) ListingsCommander {
	return ListingsCommander{
		sender: sender,
	}
}

// SendApplyOverride sends command applying patch to override of listing.
// patch is JSON object of listing fields; null value reverts the field.
func (c ListingsCommander) SendApplyOverride(ctx context.Context, listingID string, patch json.RawMessage) error {
	if listingID == "" {
		return fmt.Errorf("can't send %s command: empty listing id", ApplyOverride)
	}

	return c.send(ctx, Command{
		Type:      ApplyOverride,
		ListingID: listingID,
		Patch:     patch,
	})
}

// SendInvalidateCache sends command purging live listings cache.
func (c ListingsCommander) SendInvalidateCache(ctx context.Context) error {
	return c.send(ctx, Command{Type: InvalidateCache})
}

// SendWarmCache sends command loading listings of transaction type ("sale" or "rent").
// Empty transaction type warms both.
func (c ListingsCommander) SendWarmCache(ctx context.Context, transactionType string) error {
	return c.send(ctx, Command{
		Type:            WarmCache,
		TransactionType: transactionType,
	})
}

func (c ListingsCommander) send(ctx context.Context, cmd Command) error {
	cmdMsg, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("can't marshal %s command: %w", cmd.Type, err)
	}

	return c.sender.Send(ctx, cmd.Type, cmdMsg)
}
