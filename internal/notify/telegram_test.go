package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solana-mint-watch/internal/domain"
)

func TestTelegramSink_SendsMessage(t *testing.T) {
	var gotPath string
	var gotPayload sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sink := NewTelegramSink("test-token", "12345", WithTelegramAPIBase(server.URL))

	bt := int64(1724668800)
	event := &domain.MintEvent{
		Mint:       "So11111111111111111111111111111111111111112",
		Slot:       250000000,
		BlockTime:  &bt,
		DetectedAt: 1724668805000,
	}

	if err := sink.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotPayload.ChatID != "12345" {
		t.Errorf("unexpected chat id: %s", gotPayload.ChatID)
	}
	if gotPayload.ParseMode != "HTML" {
		t.Errorf("unexpected parse mode: %s", gotPayload.ParseMode)
	}
	if !gotPayload.DisableWebPagePreview {
		t.Error("expected web page preview to be disabled")
	}
	if !strings.Contains(gotPayload.Text, event.Mint) {
		t.Errorf("message does not mention the mint: %s", gotPayload.Text)
	}
	if !strings.Contains(gotPayload.Text, "solscan.io/token/") {
		t.Errorf("message is missing the Solscan link: %s", gotPayload.Text)
	}
	if !strings.Contains(gotPayload.Text, "birdeye.so/token/") {
		t.Errorf("message is missing the Birdeye link: %s", gotPayload.Text)
	}
}

func TestTelegramSink_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	sink := NewTelegramSink("test-token", "12345", WithTelegramAPIBase(server.URL))

	err := sink.Notify(context.Background(), &domain.MintEvent{Mint: "mintA", Slot: 1})
	if err == nil {
		t.Fatal("expected error for failed API response")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error does not carry API description: %v", err)
	}
}

type staticMetadata struct {
	meta *domain.TokenMetadata
	err  error
}

func (m *staticMetadata) Fetch(_ context.Context, _ string) (*domain.TokenMetadata, error) {
	return m.meta, m.err
}

func TestTelegramSink_MetadataEnrichment(t *testing.T) {
	var gotPayload sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	name := "Test Token"
	symbol := "TT"
	supply := float64(1000000)
	provider := &staticMetadata{meta: &domain.TokenMetadata{
		Mint:     "mintA",
		Name:     &name,
		Symbol:   &symbol,
		Decimals: 9,
		Supply:   &supply,
	}}

	sink := NewTelegramSink("tok", "1", WithTelegramAPIBase(server.URL), WithMetadata(provider))

	if err := sink.Notify(context.Background(), &domain.MintEvent{Mint: "mintA", Slot: 1}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	for _, want := range []string{"Test Token", "TT", "Decimals: 9", "Supply: 1000000"} {
		if !strings.Contains(gotPayload.Text, want) {
			t.Errorf("message is missing %q: %s", want, gotPayload.Text)
		}
	}
}

func TestTelegramSink_MetadataFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	provider := &staticMetadata{err: context.DeadlineExceeded}
	sink := NewTelegramSink("tok", "1", WithTelegramAPIBase(server.URL), WithMetadata(provider))

	if err := sink.Notify(context.Background(), &domain.MintEvent{Mint: "mintA", Slot: 1}); err != nil {
		t.Fatalf("expected delivery to survive metadata failure, got %v", err)
	}
}
