// sqadmin/backend/client.go

/*
client.go - platform API client

One request primitive speaks the platform's uniform response envelope
{code, message, data}; every typed operation in this package is a thin
projection of it onto a fixed path and query shape. The client adds no
retries, timeouts or backoff: a call is a single attempt, and a failure is
the caller's to present.
*/

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"sqadmin/metrics"
)

// TokenSource supplies the bearer token for an outgoing call. It is consulted
// at call time, never cached, so a logout is effective immediately. An empty
// return means the call goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a fixed-token TokenSource, mostly for tests and one-off
// scripts.
type StaticToken string

func (t StaticToken) Token(context.Context) string { return string(t) }

// Client provides access to the platform's identity, content, search and
// analytics services.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a platform API client. The http.Client deliberately has
// no timeout; a hung upstream request hangs the requesting view, it is never
// silently retried or cut short.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// SetHTTPClient replaces the underlying http.Client, e.g. to share a
// transport in tests.
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// envelope is the fixed three-field wrapper every platform response uses.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

const codeOK = 200

// do performs one request and returns the raw data payload. A transport
// failure or non-2xx HTTP status becomes a *TransportError; an envelope code
// other than 200 becomes a *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(op, "transport_error", time.Since(start))
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveUpstream(op, "http_error", time.Since(start))
		return nil, &TransportError{Status: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		metrics.ObserveUpstream(op, "decode_error", time.Since(start))
		return nil, &TransportError{Err: fmt.Errorf("decoding %s envelope: %w", op, err)}
	}

	if env.Code != codeOK {
		metrics.ObserveUpstream(op, "api_error", time.Since(start))
		return nil, &APIError{Code: env.Code, Message: env.Message}
	}

	metrics.ObserveUpstream(op, "ok", time.Since(start))
	return env.Data, nil
}

// call runs an operation and decodes its data payload into T.
func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, error) {
	var out T
	data, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &TransportError{Err: fmt.Errorf("decoding %s payload: %w", op, err)}
	}
	return out, nil
}
