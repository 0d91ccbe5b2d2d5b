package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-mint-watch/internal/domain"
	"solana-mint-watch/internal/registry"
	"solana-mint-watch/internal/scanner"
	"solana-mint-watch/internal/solana"
	"solana-mint-watch/internal/solana/stub"
)

// recordingSink captures every delivered event and optionally misbehaves.
type recordingSink struct {
	name   string
	err    error
	panics bool

	mu     sync.Mutex
	events []*domain.MintEvent
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Notify(_ context.Context, event *domain.MintEvent) error {
	if s.panics {
		panic("sink exploded")
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) delivered() []*domain.MintEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.MintEvent(nil), s.events...)
}

func testMint(n byte) string {
	var key [32]byte
	key[0] = n
	key[31] = n
	return base58.Encode(key[:])
}

func mintBlock(slot int64, mints ...string) *solana.Block {
	block := &solana.Block{Slot: slot}
	for _, mint := range mints {
		block.Transactions = append(block.Transactions, solana.Transaction{
			Slot: slot,
			Message: &solana.TransactionMessage{
				AccountKeys: []string{"payer", mint, scanner.TokenProgramID},
				Instructions: []solana.Instruction{
					{ProgramIDIndex: 2, Accounts: []int{1}, Data: base58.Encode([]byte{0, 9})},
				},
			},
		})
	}
	return block
}

func newTestWatcher(rpc *stub.RPCClient, sinks ...*recordingSink) *Watcher {
	s := scanner.New(scanner.Options{
		RPC:      rpc,
		Registry: registry.New(),
		Lookback: 100,
	})

	opts := Options{
		Scanner:       s,
		CheckInterval: time.Hour,
	}
	for _, sink := range sinks {
		opts.Sinks = append(opts.Sinks, sink)
	}
	return New(opts)
}

func TestRunOnce_DeliversToAllSinks(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Tip = 500
	rpc.Blocks[500] = mintBlock(500, testMint(1), testMint(2))

	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	w := newTestWatcher(rpc, a, b)

	w.RunOnce(context.Background())

	if len(a.delivered()) != 2 || len(b.delivered()) != 2 {
		t.Fatalf("expected both sinks to receive 2 events, got %d and %d",
			len(a.delivered()), len(b.delivered()))
	}
}

func TestRunOnce_FailingSinkIsolated(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Tip = 500
	rpc.Blocks[500] = mintBlock(500, testMint(1), testMint(2), testMint(3))

	failing := &recordingSink{name: "failing", err: errors.New("endpoint down")}
	healthy := &recordingSink{name: "healthy"}
	w := newTestWatcher(rpc, failing, healthy)

	w.RunOnce(context.Background())

	if got := len(healthy.delivered()); got != 3 {
		t.Errorf("expected healthy sink to receive all 3 events, got %d", got)
	}
}

func TestRunOnce_PanickingSinkIsolated(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Tip = 500
	rpc.Blocks[500] = mintBlock(500, testMint(1), testMint(2))

	panicking := &recordingSink{name: "panicking", panics: true}
	healthy := &recordingSink{name: "healthy"}
	w := newTestWatcher(rpc, panicking, healthy)

	w.RunOnce(context.Background())

	if got := len(healthy.delivered()); got != 2 {
		t.Errorf("expected healthy sink to receive both events, got %d", got)
	}
}

func TestRunOnce_FailedCycleProducesNoEvents(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.TipErr = errors.New("rpc down")

	sink := &recordingSink{name: "sink"}
	w := newTestWatcher(rpc, sink)

	w.RunOnce(context.Background())

	if len(sink.delivered()) != 0 {
		t.Errorf("expected no deliveries from a failed cycle, got %d", len(sink.delivered()))
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Tip = 500

	w := newTestWatcher(rpc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestRun_RedetectionSuppressedAcrossCycles(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Tip = 500
	rpc.Blocks[500] = mintBlock(500, testMint(1))

	sink := &recordingSink{name: "sink"}
	w := newTestWatcher(rpc, sink)

	ctx := context.Background()
	w.RunOnce(ctx)
	w.RunOnce(ctx)

	if got := len(sink.delivered()); got != 1 {
		t.Errorf("expected a single delivery across overlapping cycles, got %d", got)
	}
}
