package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"time"

	"solana-mint-watch/internal/domain"
)

const (
	telegramAPIBase        = "https://api.telegram.org"
	defaultTelegramTimeout = 10 * time.Second
)

// MetadataProvider resolves on-chain metadata for a mint. Enrichment is
// best effort: a failure degrades the message, never the delivery.
type MetadataProvider interface {
	Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// TelegramSink announces detections to a Telegram chat via the Bot API.
type TelegramSink struct {
	apiBase  string
	token    string
	chatID   string
	client   *http.Client
	metadata MetadataProvider
	logger   *log.Logger
}

// TelegramOption configures a TelegramSink.
type TelegramOption func(*TelegramSink)

// WithTelegramHTTPClient sets a custom HTTP client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(s *TelegramSink) {
		s.client = client
	}
}

// WithTelegramAPIBase overrides the Bot API base URL.
func WithTelegramAPIBase(base string) TelegramOption {
	return func(s *TelegramSink) {
		s.apiBase = base
	}
}

// WithMetadata enables best-effort metadata enrichment of messages.
func WithMetadata(provider MetadataProvider) TelegramOption {
	return func(s *TelegramSink) {
		s.metadata = provider
	}
}

// WithTelegramLogger sets the logger.
func WithTelegramLogger(logger *log.Logger) TelegramOption {
	return func(s *TelegramSink) {
		s.logger = logger
	}
}

// NewTelegramSink creates a sink posting to the given chat.
func NewTelegramSink(token, chatID string, opts ...TelegramOption) *TelegramSink {
	s := &TelegramSink{
		apiBase: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: defaultTelegramTimeout},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface check.
var _ Sink = (*TelegramSink)(nil)

// Name identifies the sink.
func (s *TelegramSink) Name() string {
	return "telegram"
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// sendMessageResponse is the subset of the Bot API response we check.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify posts the detection to the configured chat.
func (s *TelegramSink) Notify(ctx context.Context, event *domain.MintEvent) error {
	payload := sendMessageRequest{
		ChatID:                s.chatID,
		Text:                  s.formatMessage(ctx, event),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description)
	}

	return nil
}

// formatMessage builds the HTML announcement text.
func (s *TelegramSink) formatMessage(ctx context.Context, event *domain.MintEvent) string {
	var buf bytes.Buffer

	buf.WriteString("🆕 <b>New token mint detected</b>\n\n")
	fmt.Fprintf(&buf, "Mint: <code>%s</code>\n", html.EscapeString(event.Mint))
	fmt.Fprintf(&buf, "Slot: %d\n", event.Slot)
	if event.BlockTime != nil {
		fmt.Fprintf(&buf, "Block time: %s\n", time.Unix(*event.BlockTime, 0).UTC().Format(time.RFC3339))
	}

	if s.metadata != nil {
		meta, err := s.metadata.Fetch(ctx, event.Mint)
		if err != nil {
			s.logger.Printf("Metadata fetch failed for %s: %v", event.Mint, err)
		} else if meta != nil {
			if meta.Name != nil && *meta.Name != "" {
				fmt.Fprintf(&buf, "Name: %s\n", html.EscapeString(*meta.Name))
			}
			if meta.Symbol != nil && *meta.Symbol != "" {
				fmt.Fprintf(&buf, "Symbol: %s\n", html.EscapeString(*meta.Symbol))
			}
			fmt.Fprintf(&buf, "Decimals: %d\n", meta.Decimals)
			if meta.Supply != nil {
				fmt.Fprintf(&buf, "Supply: %.0f\n", *meta.Supply)
			}
		}
	}

	mint := html.EscapeString(event.Mint)
	fmt.Fprintf(&buf, "\n<a href=\"https://solscan.io/token/%s\">Solscan</a>", mint)
	fmt.Fprintf(&buf, " | <a href=\"https://birdeye.so/token/%s\">Birdeye</a>", mint)

	return buf.String()
}
