// Package notify delivers detected mint events to configured sinks.
package notify

import (
	"context"
	"log"

	"solana-mint-watch/internal/domain"
)

// Sink receives a detected mint event. Implementations must be safe to
// call sequentially from the watch loop.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// Notify delivers one event.
	Notify(ctx context.Context, event *domain.MintEvent) error
}

// ConsoleSink writes detections to a logger.
type ConsoleSink struct {
	logger *log.Logger
}

// NewConsoleSink creates a sink logging to the given logger.
func NewConsoleSink(logger *log.Logger) *ConsoleSink {
	if logger == nil {
		logger = log.Default()
	}
	return &ConsoleSink{logger: logger}
}

// Compile-time interface check.
var _ Sink = (*ConsoleSink)(nil)

// Name identifies the sink.
func (s *ConsoleSink) Name() string {
	return "console"
}

// Notify logs the detection.
func (s *ConsoleSink) Notify(_ context.Context, event *domain.MintEvent) error {
	if event.BlockTime != nil {
		s.logger.Printf("New token mint %s at slot %d (block time %d)", event.Mint, event.Slot, *event.BlockTime)
		return nil
	}
	s.logger.Printf("New token mint %s at slot %d", event.Mint, event.Slot)
	return nil
}
