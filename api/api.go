// Package api provides a typed client for the segmentation and quiz backend.
//
// Every request carries the persistent client identifier header; a call
// succeeds only when both the transport and the server-reported status
// succeed, otherwise it fails with a typed *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ivq-cli/ivq/constant"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/network"
)

// Error is the unified failure type for backend calls. Status is zero for
// transport-level failures that never produced an HTTP response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %s", e.Message)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// Client issues authenticated requests against a single backend base URL.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// NewClient creates a backend client for the given base URL and client identifier.
func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		http:     network.Client,
	}
}

// ClientID returns the identifier sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// do performs a single JSON request/response exchange.
// A nil body sends no payload; a nil out discards the response body.
func (c *Client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), network.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Message: err.Error()}
	}

	req.Header.Set(constant.ClientIDHeader, c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Errorf("backend request %s %s failed: %v", method, path, err)
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("backend returned status %d for %s %s", resp.StatusCode, method, path)
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp, raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorMessage extracts a human-readable failure description from an error
// response. Malformed JSON bodies degrade to raw text rather than failing
// the whole call.
func errorMessage(resp *http.Response, raw []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}

	return resp.Status
}
