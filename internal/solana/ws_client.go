package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// SlotUpdate is a slotSubscribe notification.
type SlotUpdate struct {
	Slot   int64 `json:"slot"`
	Parent int64 `json:"parent"`
	Root   int64 `json:"root"`
}

// SlotSubscriberConfig configures WebSocket client behavior.
type SlotSubscriberConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultSlotSubscriberConfig returns default WebSocket configuration.
func DefaultSlotSubscriberConfig() SlotSubscriberConfig {
	return SlotSubscriberConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// SlotSubscriber streams slotSubscribe notifications over WebSocket.
// It reconnects and resubscribes on connection loss. The update stream
// is advisory (tip observation only); detection never depends on it.
type SlotSubscriber struct {
	endpoint string
	config   SlotSubscriberConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	updates chan SlotUpdate
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSlotSubscriber connects to the endpoint and subscribes to slot updates.
func NewSlotSubscriber(ctx context.Context, endpoint string, config *SlotSubscriberConfig) (*SlotSubscriber, error) {
	cfg := DefaultSlotSubscriberConfig()
	if config != nil {
		cfg = *config
	}

	s := &SlotSubscriber{
		endpoint: endpoint,
		config:   cfg,
		updates:  make(chan SlotUpdate, 64),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

// Updates returns the stream of slot notifications. The channel is
// closed when the subscriber is closed.
func (s *SlotSubscriber) Updates() <-chan SlotUpdate {
	return s.updates
}

// Close shuts the subscriber down and closes the update channel.
func (s *SlotSubscriber) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.updates)
	return nil
}

// connect dials the endpoint and sends the slotSubscribe request.
func (s *SlotSubscriber) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "slotSubscribe",
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return fmt.Errorf("send slotSubscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// readLoop reads notifications and forwards them, reconnecting on error.
func (s *SlotSubscriber) readLoop() {
	defer s.wg.Done()

	delay := s.config.ReconnectDelay
	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			// Reconnect with backoff; the subscription is re-established
			// because connect resends slotSubscribe.
			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}
			if err := s.connect(context.Background()); err != nil {
				continue
			}
			delay = s.config.ReconnectDelay
			continue
		}

		var msg wsNotification
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Method != "slotNotification" || msg.Params == nil {
			continue // subscription confirmation or unrelated frame
		}

		select {
		case s.updates <- msg.Params.Result:
		case <-s.done:
			return
		default:
			// Drop when the consumer lags; slot updates are advisory.
		}
	}
}

// wsRequest represents a JSON-RPC 2.0 request over WebSocket.
type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
}

// wsNotification represents a subscription notification frame.
type wsNotification struct {
	Method string    `json:"method"`
	Params *wsParams `json:"params"`
}

type wsParams struct {
	Result       SlotUpdate `json:"result"`
	Subscription int64      `json:"subscription"`
}
