package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/rabbitmq"
	"github.com/ewebtechsuk/aktonz2-sub001/pkg/v1/commander"
	"github.com/rs/zerolog"
)

//go:generate mockery --name Service --filename service.go
//go:generate mockery --name Consumer --filename consumer.go

// Service executes listings commands.
type Service interface {
	ApplyOverride(ctx context.Context, id string, patch models.Patch) (models.Listing, error)
	Invalidate(ctx context.Context)
	Warm(ctx context.Context, transactionTypes ...models.TransactionType) map[models.TransactionType]int
}

// Consumer consumes messages of queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler rabbitmq.HandlerFunc) (<-chan error, error)
}

// RMQHandler handles RMQ messages.
type RMQHandler struct {
	consumer Consumer
	service  Service
	logger   *zerolog.Logger
}

// NewHandler returns new RMQHandler.
func NewHandler(consumer Consumer, service Service, logger *zerolog.Logger) *RMQHandler {
	return &RMQHandler{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start starts consuming and handling listings commands from RMQ.
func (h *RMQHandler) Start(ctx context.Context, queue string) error {
	errorsChan, err := h.consumer.Consume(ctx, queue, h.Handle)
	if err != nil {
		return err
	}

	go func() {
		for err := range errorsChan {
			h.logger.Error().
				Err(err).
				Msg("can't handle message")
		}
	}()

	return nil
}

// Handle decodes command message and executes it.
func (h *RMQHandler) Handle(ctx context.Context, message []byte) error {
	cmd, err := decodeMessage(message)
	if err != nil {
		return err
	}

	h.logger.Debug().
		Str("type", string(cmd.Type)).
		Str("listingId", cmd.ListingID).
		Msg("command received")

	switch cmd.Type {
	case commander.ApplyOverride:
		return h.applyOverride(ctx, cmd)
	case commander.InvalidateCache:
		h.service.Invalidate(ctx)
		return nil
	case commander.WarmCache:
		return h.warm(ctx, cmd)
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (h *RMQHandler) applyOverride(ctx context.Context, cmd *commander.Command) error {
	if cmd.ListingID == "" {
		return fmt.Errorf("%s command without listing id", cmd.Type)
	}

	var patch models.Patch
	if err := json.Unmarshal(cmd.Patch, &patch); err != nil {
		return fmt.Errorf("can't decode patch of %s: %w", cmd.ListingID, err)
	}

	listing, err := h.service.ApplyOverride(ctx, cmd.ListingID, patch)
	if err != nil {
		return fmt.Errorf("can't apply override: %w", err)
	}

	h.logger.Info().
		Str("listingId", listing.ID).
		Str("status", string(listing.Status)).
		Msg("override applied")

	return nil
}

func (h *RMQHandler) warm(ctx context.Context, cmd *commander.Command) error {
	var types []models.TransactionType
	if cmd.TransactionType != "" {
		transactionType, ok := models.ParseTransactionType(cmd.TransactionType)
		if !ok {
			return fmt.Errorf("unknown transaction type %q", cmd.TransactionType)
		}
		types = append(types, transactionType)
	}

	for transactionType, count := range h.service.Warm(ctx, types...) {
		h.logger.Info().
			Str("transactionType", string(transactionType)).
			Int("listings", count).
			Msg("cache warmed")
	}

	return nil
}

func decodeMessage(msg []byte) (*commander.Command, error) {
	var cmd commander.Command
	err := json.Unmarshal(msg, &cmd)
	if err != nil {
		return nil, fmt.Errorf("can't decode listings command: %w", err)
	}

	return &cmd, err
}
