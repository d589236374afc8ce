// Package agentclient provides the HTTP client side of the agent protocol:
// card resolution and message sending.
package agentclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/triadflow/triad/internal/protocol"
)

// CardResolver fetches an agent's card from its well-known discovery path.
type CardResolver struct {
	httpClient *http.Client
	baseURL    string
}

// NewCardResolver creates a resolver for the agent at baseURL. The HTTP
// client is shared with the caller and reused across calls.
func NewCardResolver(httpClient *http.Client, baseURL string) *CardResolver {
	return &CardResolver{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Resolve fetches the agent card. No retry is performed; a failure here is
// fatal to supervisor startup.
func (r *CardResolver) Resolve(ctx context.Context) (*protocol.AgentCard, error) {
	url := r.baseURL + protocol.WellKnownCardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent card endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var card protocol.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	if card.URL == "" {
		return nil, fmt.Errorf("agent card from %s has no url", url)
	}

	return &card, nil
}
