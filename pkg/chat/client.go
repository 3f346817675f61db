package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the remote chat endpoint: one POST per user turn, carrying
// the message and session identifier, authenticated by a static key header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type sendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Reply is the endpoint's response for one turn. Context is opaque to the
// client and cached verbatim by the session manager.
type Reply struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	Language  string          `json:"language"`
	Context   json.RawMessage `json:"context"`
}

// NewClient creates a chat API client. timeout <= 0 leaves the underlying
// transport's implicit limits in place.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Send posts one user turn. Transport errors, non-2xx statuses, and malformed
// payloads are all returned as a single uniform error; callers make no
// distinction between them.
func (c *Client) Send(ctx context.Context, message, sessionID string) (*Reply, error) {
	body, err := json.Marshal(sendRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chat request: status %d", resp.StatusCode)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("chat request: decoding response: %w", err)
	}
	return &reply, nil
}
