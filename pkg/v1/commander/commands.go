package commander

import "encoding/json"

// CommandType names listings command.
type CommandType string

const (
	// ApplyOverride folds patch into operator override of a listing.
	ApplyOverride CommandType = "apply_override"
	// InvalidateCache drops live listings cached in memory.
	InvalidateCache CommandType = "invalidate_cache"
	// WarmCache loads listings of transaction type, or of all types when empty.
	WarmCache CommandType = "warm_cache"
)

// Command is message consumed by listings service.
type Command struct {
	Type            CommandType     `json:"type"`
	ListingID       string          `json:"listingId,omitempty"`
	Patch           json.RawMessage `json:"patch,omitempty"`
	TransactionType string          `json:"transactionType,omitempty"`
}
