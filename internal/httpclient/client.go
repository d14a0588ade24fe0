// Package httpclient issues JSON calls against the gallery backend and
// transparently refreshes an expired credential once per call.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

const (
	PathLogin   = "/auth/login"
	PathSignup  = "/auth/signup"
	PathLogout  = "/auth/logout"
	PathRefresh = "/auth/refresh"

	maxBodySize = 1 << 20
)

// A 401 from one of these means the credential operation itself failed,
// not that an existing session expired.
var authPaths = map[string]struct{}{
	PathLogin:   {},
	PathSignup:  {},
	PathLogout:  {},
	PathRefresh: {},
}

// Request describes one outbound call. Body is marshalled to JSON when set.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response is a successful (2xx) backend response. Body holds the raw
// payload for endpoints that answer without the envelope.
type Response struct {
	StatusCode int
	Body       []byte
	model.Envelope
}

// Client wraps http.Client with the credential-refresh interceptor.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger

	mu        sync.Mutex
	listeners []model.SessionListener
}

// New creates a Client. jar holds the ambient credential and may be nil.
func New(baseURL string, jar http.CookieJar, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Subscribe registers l to be told when a refresh fails and the session ends.
func (c *Client) Subscribe(l model.SessionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Do sends req. On the first 401 from a non-auth endpoint it refreshes the
// credential and replays req exactly once. If the refresh fails, listeners
// are notified and the original 401 is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	payload, err := marshalBody(req.Body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req.Method, req.Path, payload)
	if err == nil || !shouldRefresh(req.Path, err) {
		return resp, err
	}

	c.logger.Debug("HTTP client: credential rejected, refreshing",
		"method", req.Method,
		"path", req.Path)

	if _, refreshErr := c.send(ctx, http.MethodPost, PathRefresh, nil); refreshErr != nil {
		c.logger.Warn("HTTP client: credential refresh failed, session ended",
			"path", req.Path,
			"error", refreshErr.Error())
		c.notify(model.ReasonExpired)
		return nil, err
	}

	// The replay is final: a second 401 is returned as is.
	return c.send(ctx, req.Method, req.Path, payload)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("HTTP client: request completed",
		"method", method,
		"path", path,
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &model.APIError{StatusCode: httpResp.StatusCode, Detail: errorDetail(raw)}
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Body: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &resp.Envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

func (c *Client) notify(reason model.SessionEndReason) {
	c.mu.Lock()
	listeners := make([]model.SessionListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.SessionEnded(reason)
	}
}

func shouldRefresh(path string, err error) bool {
	if !errors.Is(err, model.ErrUnauthorized) {
		return false
	}
	return !IsAuthPath(path)
}

// IsAuthPath reports whether path is one of the credential endpoints.
func IsAuthPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	_, ok := authPaths[path]
	return ok
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return payload, nil
}

// errorDetail extracts a human-readable message from an error body:
// {"detail": "..."}, {"detail": [{"msg": "..."}]} or an envelope message.
func errorDetail(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil && text != "" {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}

	return body.Message
}
