package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultJupiterURL is the Jupiter aggregator token list endpoint.
const DefaultJupiterURL = "https://token.jup.ag/all"

const defaultJupiterTimeout = 30 * time.Second

// JupiterSource loads the set of known token mints from the Jupiter
// token list. The endpoint returns either a bare JSON array of token
// objects or an object with a "data" array wrapping them.
type JupiterSource struct {
	url    string
	client *http.Client
}

// JupiterOption configures a JupiterSource.
type JupiterOption func(*JupiterSource)

// WithJupiterHTTPClient sets a custom HTTP client.
func WithJupiterHTTPClient(client *http.Client) JupiterOption {
	return func(s *JupiterSource) {
		s.client = client
	}
}

// NewJupiterSource creates a source reading from the given token list URL.
func NewJupiterSource(url string, opts ...JupiterOption) *JupiterSource {
	if url == "" {
		url = DefaultJupiterURL
	}
	s := &JupiterSource{
		url:    url,
		client: &http.Client{Timeout: defaultJupiterTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface check.
var _ SnapshotSource = (*JupiterSource)(nil)

// Name identifies the source in logs.
func (s *JupiterSource) Name() string {
	return "jupiter"
}

// jupiterToken is the subset of the token list entry we need.
type jupiterToken struct {
	Address string `json:"address"`
}

// Mints fetches and parses the token list.
func (s *JupiterSource) Mints(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token list body: %w", err)
	}

	tokens, err := parseTokenList(body)
	if err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}

	mints := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Address != "" {
			mints = append(mints, tok.Address)
		}
	}
	return mints, nil
}

// parseTokenList accepts both response shapes the endpoint has used:
// a bare array and an object with a "data" array.
func parseTokenList(body []byte) ([]jupiterToken, error) {
	var tokens []jupiterToken
	if err := json.Unmarshal(body, &tokens); err == nil {
		return tokens, nil
	}

	var wrapped struct {
		Data []jupiterToken `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}
