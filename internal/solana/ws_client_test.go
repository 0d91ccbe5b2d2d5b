package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSlotSubscriber_ReceivesNotifications(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Read the slotSubscribe request and confirm it
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if req.Method != "slotSubscribe" {
			t.Errorf("expected slotSubscribe, got %s", req.Method)
		}

		confirm := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(1),
		}
		if err := conn.WriteJSON(confirm); err != nil {
			return
		}

		for i := int64(0); i < 3; i++ {
			notification := map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "slotNotification",
				"params": map[string]interface{}{
					"result": map[string]interface{}{
						"slot":   1000 + i,
						"parent": 999 + i,
						"root":   968 + i,
					},
					"subscription": int64(1),
				},
			}
			if err := conn.WriteJSON(notification); err != nil {
				return
			}
		}

		// Keep the connection open until the client disconnects
		conn.ReadMessage()
	}))
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")

	sub, err := NewSlotSubscriber(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("NewSlotSubscriber: %v", err)
	}
	defer sub.Close()

	var got []SlotUpdate
	timeout := time.After(5 * time.Second)
	for len(got) < 3 {
		select {
		case update := <-sub.Updates():
			got = append(got, update)
		case <-timeout:
			t.Fatalf("timed out, received %d updates", len(got))
		}
	}

	if got[0].Slot != 1000 {
		t.Errorf("expected first slot 1000, got %d", got[0].Slot)
	}
	if got[2].Slot != 1002 {
		t.Errorf("expected last slot 1002, got %d", got[2].Slot)
	}
}

func TestSlotSubscriber_CloseClosesUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage() // subscribe request
		conn.ReadMessage() // block until client disconnects
	}))
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")

	sub, err := NewSlotSubscriber(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("NewSlotSubscriber: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Error("expected updates channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after Close")
	}
}

func TestSlotSubscriber_IgnoresUnrelatedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		// Confirmation frame (no method) must not surface as an update
		conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": int64(7)})

		notification, _ := json.Marshal(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "slotNotification",
			"params": map[string]interface{}{
				"result":       map[string]interface{}{"slot": 55, "parent": 54, "root": 23},
				"subscription": int64(7),
			},
		})
		conn.WriteMessage(websocket.TextMessage, notification)

		conn.ReadMessage()
	}))
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")

	sub, err := NewSlotSubscriber(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("NewSlotSubscriber: %v", err)
	}
	defer sub.Close()

	select {
	case update := <-sub.Updates():
		if update.Slot != 55 {
			t.Errorf("expected slot 55, got %d", update.Slot)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}
