// Package mcpclient is the HTTP client for the external tool backends the
// agents delegate their actual work to (LLM selection, data download,
// rendering). One long-lived client per backend, reused across calls.
package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client invokes tools on one backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the backend at baseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// invokeRequest is the request body for a tool invocation.
type invokeRequest struct {
	Tool string `json:"tool"`
	Args any    `json:"args,omitempty"`
}

// Call invokes one tool and returns its raw JSON result.
func (c *Client) Call(ctx context.Context, tool string, args any) (json.RawMessage, error) {
	body, err := json.Marshal(invokeRequest{Tool: tool, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool request: %w", err)
	}

	url := c.baseURL + "/invoke"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke tool %s: %w", tool, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tool %s returned status %d: %s", tool, resp.StatusCode, string(bodyBytes))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool response: %w", err)
	}
	return json.RawMessage(raw), nil
}
