// ABOUTME: Authenticated HTTP client for the Fluxora chat API
// ABOUTME: Maps 401 responses to ErrUnauthorized and tolerates both list envelopes

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway errors
var (
	// ErrUnauthorized is returned for any HTTP 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoCredential is returned when no bearer token is configured; no
	// request is made in that case.
	ErrNoCredential = errors.New("no credential configured")
)

// StatusError reports an unexpected non-2xx response that is not an auth
// failure.
type StatusError struct {
	Status int
	Method string
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// TokenSource supplies the current bearer credential. An empty string means
// no credential is available.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to the Fluxora chat API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// New creates a gateway client for the given base URL. A zero timeout
// disables the per-request deadline.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  slog.Default().With("component", "gateway"),
	}
}

// ListThreads fetches the thread list. Accepts both a bare array and a
// {"threads": [...]} envelope.
func (c *Client) ListThreads(ctx context.Context) ([]Thread, error) {
	var payload json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/threads", nil, &payload); err != nil {
		return nil, err
	}

	var threads []Thread
	if err := json.Unmarshal(payload, &threads); err == nil {
		return threads, nil
	}
	var envelope struct {
		Threads []Thread `json:"threads"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decoding thread list: %w", err)
	}
	return envelope.Threads, nil
}

// CreateThread asks the server to create a new thread and returns its
// server-assigned id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var result struct {
		ThreadID string `json:"thread_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &result); err != nil {
		return "", err
	}
	return result.ThreadID, nil
}

// DeleteThread removes a thread. A 404 counts as success: the thread is
// gone either way.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/threads/"+url.PathEscape(id), nil, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

// FetchMessages retrieves the raw message records for a thread. Accepts
// both a bare array and a {"messages": [...]} envelope.
func (c *Client) FetchMessages(ctx context.Context, threadID string) ([]RawMessage, error) {
	var payload json.RawMessage
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	var records []RawMessage
	if err := json.Unmarshal(payload, &records); err == nil {
		return records, nil
	}
	var envelope struct {
		Messages []RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decoding message list: %w", err)
	}
	return envelope.Messages, nil
}

// SendMessage posts a chat message. threadID may be empty for the first
// message of a new conversation; the server then creates a thread and
// returns its id in the result.
func (c *Client) SendMessage(ctx context.Context, content, threadID string) (*SendResult, error) {
	body := map[string]any{"message": content}
	if threadID != "" {
		body["thread_id"] = threadID
	}

	var payload struct {
		Response json.RawMessage `json:"response"`
		Reply    json.RawMessage `json:"reply"`
		ThreadID string          `json:"thread_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat", body, &payload); err != nil {
		return nil, err
	}

	result := &SendResult{ThreadID: payload.ThreadID, Content: payload.Response}
	if !rawPresent(result.Content) {
		result.Content = payload.Reply
	}
	return result, nil
}

// do performs one authenticated request. body is JSON-encoded when non-nil;
// out is JSON-decoded from the response body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.tokens.Token()
	if token == "" {
		return ErrNoCredential
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Debug("request rejected as unauthorized", "method", method, "path", path)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Method: method, Path: path}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
