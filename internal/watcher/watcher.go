// Package watcher runs the fixed-interval poll loop around the scanner
// and fans detections out to the configured sinks.
package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/notify"
	"solana-mint-watch/internal/observability"
	"solana-mint-watch/internal/scanner"
)

const defaultCheckInterval = 5 * time.Minute

// Watcher drives strictly sequential scan cycles: the timer is re-armed
// only after a cycle finishes, so a slow cycle delays the next one
// instead of overlapping it.
type Watcher struct {
	scanner       *scanner.Scanner
	sinks         []notify.Sink
	checkInterval time.Duration
	logger        *log.Logger
}

// Options contains configuration for creating a Watcher.
type Options struct {
	Scanner       *scanner.Scanner
	Sinks         []notify.Sink
	CheckInterval time.Duration
	Logger        *log.Logger
}

// New creates a new Watcher.
func New(opts Options) *Watcher {
	checkInterval := opts.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		scanner:       opts.Scanner,
		sinks:         opts.Sinks,
		checkInterval: checkInterval,
		logger:        logger,
	}
}

// Run executes scan cycles until the context is cancelled. The first
// cycle starts immediately.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Printf("Watcher started, check interval: %v", w.checkInterval)

	for {
		w.runCycle(ctx)

		timer := time.NewTimer(w.checkInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Println("Watcher stopping...")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce executes a single scan-and-deliver cycle.
func (w *Watcher) RunOnce(ctx context.Context) {
	w.runCycle(ctx)
}

// runCycle scans the window and delivers any detections. A failed cycle
// is logged and produces no events; the loop carries on.
func (w *Watcher) runCycle(ctx context.Context) {
	start := time.Now()

	events, err := w.scanner.Scan(ctx)
	if err != nil {
		w.logger.Printf("Scan cycle failed: %v", err)
		observability.RecordScanCycle("error", time.Since(start).Seconds())
		return
	}

	for _, event := range events {
		w.logger.Printf("New token mint detected: %s (slot=%d)", event.Mint, event.Slot)
		w.deliver(ctx, event)
	}

	observability.RecordScanCycle("ok", time.Since(start).Seconds())
	observability.RecordSuccessfulScan(time.Now().Unix())

	if len(events) > 0 {
		w.logger.Printf("Scan cycle complete: %d new mints in %v", len(events), time.Since(start))
	}
}

// deliver fans one event out to every sink. A failing or panicking sink
// is isolated: the remaining sinks still receive the event.
func (w *Watcher) deliver(ctx context.Context, event *domain.MintEvent) {
	for _, sink := range w.sinks {
		err := w.notifyOne(ctx, sink, event)
		observability.RecordSinkDelivery(sink.Name(), err)
		if err != nil {
			w.logger.Printf("Sink %s failed for %s: %v", sink.Name(), event.Mint, err)
		}
	}
}

// notifyOne calls a single sink, converting a panic into an error.
func (w *Watcher) notifyOne(ctx context.Context, sink notify.Sink, event *domain.MintEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Notify(ctx, event)
}
