package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// Login exchanges a username and password for a session token.
//
// The call is bounded by the auth timeout. Rejected credentials yield
// ErrAuthFailed, a 5xx an APIError matching ErrServerError, and a transport
// failure or timeout ErrUnreachable. The password is never logged.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	buf, err := json.Marshal(v1.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(LoginPath), bytes.NewReader(buf), "application/json")
	if err != nil {
		return "", err
	}
	// Login never carries a stale session.
	req.Header.Del("Authorization")

	c.logger.Debug("logging in", zap.String("server", c.baseURL), zap.String("user", username))
	status, body, err := c.exchange(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: no answer within %s", ErrUnreachable, c.authTimeout)
		}
		return "", err
	}

	switch {
	case status >= 500:
		return "", &APIError{StatusCode: status, Message: errorMessage(body)}
	case status < 200 || status >= 300:
		msg := errorMessage(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}

	var out v1.LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: malformed login response: %v", ErrAuthFailed, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: login response carried no token", ErrAuthFailed)
	}
	return out.Token, nil
}

// Logout invalidates the client's session on the server.
//
// 200 and 204 mean the session was revoked. 401 means there was no live
// session to revoke; that is still a success and is reported through the
// returned flag being false. A client without a token still asks the server,
// sending an empty "Token " credential.
func (c *Client) Logout(ctx context.Context) (revoked bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(LogoutPath), nil, "")
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	status, body, err := c.exchange(req)
	if err != nil {
		if isTimeout(err) {
			return false, fmt.Errorf("%w: no answer within %s", ErrUnreachable, c.authTimeout)
		}
		return false, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusNoContent:
		return true, nil
	case status == http.StatusUnauthorized:
		c.logger.Debug("session already invalid", zap.String("server", c.baseURL))
		return false, nil
	default:
		return false, &APIError{StatusCode: status, Message: errorMessage(body)}
	}
}
