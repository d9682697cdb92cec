// Package chat implements the chat widget's conversation state: an ordered
// message log exchanged with a remote assistant endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrBadStatus is returned when the assistant endpoint answers with a non-2xx status.
	ErrBadStatus = errors.New("chat: unexpected status")
	// ErrMalformedReply is returned when the reply body is not a usable reply payload.
	ErrMalformedReply = errors.New("chat: malformed reply")
)

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 1 << 20

// Reply is the assistant's answer: display text plus an optional SQL query.
type Reply struct {
	Text string
	SQL  string
}

// Assistant is the remote collaborator that answers chat messages.
type Assistant interface {
	Ask(ctx context.Context, message string) (Reply, error)
}

// askRequest is the wire body sent to the assistant endpoint.
type askRequest struct {
	Message string `json:"message"`
}

// askResponse is the wire body expected back. sql may be null.
type askResponse struct {
	Text *string `json:"text"`
	SQL  *string `json:"sql"`
}

// HTTPAssistant talks to the assistant endpoint over JSON/HTTP.
type HTTPAssistant struct {
	url    string
	client *http.Client
}

// NewHTTPAssistant creates an HTTPAssistant posting to url. A nil client
// uses http.DefaultClient.
func NewHTTPAssistant(url string, client *http.Client) (*HTTPAssistant, error) {
	if url == "" {
		return nil, fmt.Errorf("chat: assistant url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAssistant{url: url, client: client}, nil
}

// Ask posts message and decodes the reply.
func (a *HTTPAssistant) Ask(ctx context.Context, message string) (Reply, error) {
	body, err := json.Marshal(askRequest{Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("chat: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat: send: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("chat: read reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("%w: %d: %s", ErrBadStatus, resp.StatusCode, truncate(string(data), 200))
	}

	return decodeReply(data)
}

// decodeReply parses a reply payload. A missing or blank text is malformed.
func decodeReply(data []byte) (Reply, error) {
	var wire askResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if wire.Text == nil || strings.TrimSpace(*wire.Text) == "" {
		return Reply{}, fmt.Errorf("%w: missing text", ErrMalformedReply)
	}
	r := Reply{Text: *wire.Text}
	if wire.SQL != nil {
		r.SQL = *wire.SQL
	}
	return r, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
