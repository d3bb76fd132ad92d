// Package client provides a Go client library for the KubeROS API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// DefaultAuthTimeout bounds login and logout calls.
const DefaultAuthTimeout = 3 * time.Second

// Client communicates with one KubeROS API server.
type Client struct {
	baseURL     string
	token       string
	authTimeout time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken attaches "Authorization: Token <token>" to every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the overall timeout for non-auth calls. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAuthTimeout sets the timeout for login and logout.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.authTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the API server at baseURL
// (e.g. "https://kuberos.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		authTimeout: DefaultAuthTimeout,
		httpClient:  &http.Client{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether the client carries a session token.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (c *Client) endpoint(path string, segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteByte('/')
	b.WriteString(strings.TrimLeft(path, "/"))
	for _, s := range segments {
		b.WriteString(url.PathEscape(s))
		b.WriteByte('/')
	}
	return b.String()
}

// newRequest builds a request against rawURL. A non-empty contentType is
// sent as the Content-Type header.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	return req, nil
}

// exchange executes req and returns the status code and raw body. Any
// failure to obtain a response is reported as ErrUnreachable.
func (c *Client) exchange(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrUnreachable, req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response body: %v", ErrUnreachable, err)
	}
	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, respBody, nil
}

// send executes a non-auth request, maps error statuses and decodes the
// (possibly enveloped) payload into target. It returns the envelope message,
// if any.
func (c *Client) send(req *http.Request, target interface{}) (string, error) {
	status, respBody, err := c.exchange(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &APIError{StatusCode: status, Message: errorMessage(respBody)}
	}
	return decodeBody(status, respBody, target)
}

// doJSON executes a request with an optional JSON body and decodes the
// response into target (when target is non-nil).
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, target interface{}) (string, error) {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, rawURL, reqBody, contentType)
	if err != nil {
		return "", err
	}
	return c.send(req, target)
}

// doForm posts URL-encoded form fields.
func (c *Client) doForm(ctx context.Context, method, rawURL string, form url.Values, target interface{}) (string, error) {
	req, err := c.newRequest(ctx, method, rawURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	return c.send(req, target)
}

// decodeBody unwraps a response envelope when present and decodes the
// payload into target. An envelope reporting failure becomes an APIError.
func decodeBody(status int, body []byte, target interface{}) (string, error) {
	payload := body
	msg := ""
	if env, ok := parseEnvelope(body); ok {
		if env.Failed() {
			return "", &APIError{StatusCode: status, Message: env.Msg}
		}
		payload = env.Data
		msg = env.Msg
	}
	if target == nil || len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return msg, nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return "", fmt.Errorf("decode response body: %w", err)
	}
	return msg, nil
}

// parseEnvelope recognises {success|status, msg, data} wrappers. A bare
// resource that merely has a "status" field is not an envelope: an object
// is unwrapped only when it carries "data", "success", or a "msg" next to
// its status.
func parseEnvelope(body []byte) (*v1.Envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, false
	}
	_, hasData := keys["data"]
	_, hasSuccess := keys["success"]
	_, hasMsg := keys["msg"]
	_, hasStatus := keys["status"]
	_, hasRes := keys["res"]
	if !hasData && !hasSuccess && !(hasMsg && (hasStatus || hasRes)) {
		return nil, false
	}
	var env v1.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"msg", "detail", "error", "message", "non_field_errors"} {
			switch v := fields[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case []interface{}:
				if len(v) > 0 {
					return fmt.Sprint(v[0])
				}
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

// isTimeout reports whether err came from an expired deadline.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
