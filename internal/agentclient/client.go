package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/triadflow/triad/internal/protocol"
)

// Client sends message envelopes to a resolved agent. One call is one HTTP
// round trip; there is no streaming and no retry. Retries, if ever desired,
// belong to the caller.
type Client struct {
	httpClient *http.Client
	card       *protocol.AgentCard
}

// NewClient creates a client bound to a resolved agent card. The HTTP
// client is shared with the caller; its timeout bounds each call.
func NewClient(httpClient *http.Client, card *protocol.AgentCard) *Client {
	return &Client{
		httpClient: httpClient,
		card:       card,
	}
}

// Card returns the resolved card this client talks to.
func (c *Client) Card() *protocol.AgentCard {
	return c.card
}

// SendMessage sends one message to the agent and returns its response
// envelope. A structured error envelope is returned to the caller as-is;
// the returned error covers transport and decode failures only.
func (c *Client) SendMessage(ctx context.Context, msg protocol.Message) (*protocol.SendMessageResponse, error) {
	req := protocol.SendMessageRequest{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      uuid.New().String(),
		Method:  protocol.MethodSendMessage,
		Params:  protocol.MessageSendParams{Message: msg},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.card.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send message to %s: %w", c.card.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent %s returned status %d: %s", c.card.Name, resp.StatusCode, string(bodyBytes))
	}

	var envelope protocol.SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", c.card.Name, err)
	}

	return &envelope, nil
}

// NewUserMessage builds a single-text-part user message with a fresh id.
func NewUserMessage(text string) protocol.Message {
	return protocol.Message{
		Role:      protocol.RoleUser,
		Parts:     []protocol.Part{protocol.TextPart(text)},
		MessageID: uuid.New().String(),
	}
}
