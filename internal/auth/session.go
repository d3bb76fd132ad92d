// Package auth performs login and logout against the API server of the
// current context and keeps the cached token in the config file in step.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kuberos/kuberos-cli/internal/store"
	"github.com/kuberos/kuberos-cli/pkg/client"
)

// ErrMissingCredentials is returned when the username or password is empty.
var ErrMissingCredentials = errors.New("username and password are required")

// API is the part of the KubeROS client the session needs.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) (bool, error)
}

// ClientFunc returns an API client for a server, optionally carrying a
// session token.
type ClientFunc func(server, token string) API

// Credentials are the username and password used for one login.
type Credentials struct {
	Username string
	Password string
}

// String never reveals the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q, Password: <redacted>}", c.Username)
}

// CredentialSource supplies credentials once the current context is known,
// typically by prompting.
type CredentialSource func(current store.Context) (Credentials, error)

// Static returns a CredentialSource that always yields creds.
func Static(creds Credentials) CredentialSource {
	return func(store.Context) (Credentials, error) { return creds, nil }
}

// LoginResult describes a successful login.
type LoginResult struct {
	Context string
	Server  string
	User    string
}

// LogoutResult describes a completed logout.
type LogoutResult struct {
	Context string
	Server  string
	// Revoked is false when the server had no live session for the token,
	// including when no token was cached at all.
	Revoked bool
}

// Session runs the login and logout handshakes.
type Session struct {
	store     *store.Store
	newClient ClientFunc
	logger    *zap.Logger
}

// NewSession creates a Session. A nil logger disables logging.
func NewSession(s *store.Store, newClient ClientFunc, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: s, newClient: newClient, logger: logger}
}

// DefaultClientFunc builds real API clients with the given options.
func DefaultClientFunc(opts ...client.Option) ClientFunc {
	return func(server, token string) API {
		o := append([]client.Option{client.WithToken(token)}, opts...)
		return client.New(server, o...)
	}
}

// Login authenticates against the current context's server and stores the
// returned token and username on that context. The config file is left
// untouched when anything fails.
func (s *Session) Login(ctx context.Context, source CredentialSource) (*LoginResult, error) {
	f, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	cur, err := f.Current()
	if err != nil {
		return nil, err
	}
	target := *cur

	creds, err := source(target)
	if err != nil {
		return nil, err
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	s.logger.Debug("login", zap.String("context", target.Name), zap.String("server", target.Server), zap.String("user", creds.Username))
	token, err := s.newClient(target.Server, "").Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}

	_, err = s.store.Update(func(f *store.File) error {
		if !f.Has(target.Name) {
			return fmt.Errorf("%w: %q was removed during login", store.ErrContextNotFound, target.Name)
		}
		return f.UpsertContext(store.Context{Name: target.Name, User: creds.Username, Token: token}, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("login succeeded", zap.String("context", target.Name))
	return &LoginResult{Context: target.Name, Server: target.Server, User: creds.Username}, nil
}

// Logout invalidates the current context's session on the server.
//
// The cached token is kept in the config file whatever the outcome; the
// server is authoritative for whether it is still valid.
func (s *Session) Logout(ctx context.Context) (*LogoutResult, error) {
	f, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	cur, err := f.Current()
	if err != nil {
		return nil, err
	}

	result := &LogoutResult{Context: cur.Name, Server: cur.Server}
	if !cur.LoggedIn() {
		s.logger.Debug("no cached token, asking the server anyway", zap.String("context", cur.Name))
	}

	revoked, err := s.newClient(cur.Server, cur.Token).Logout(ctx)
	if err != nil {
		return nil, err
	}
	result.Revoked = revoked
	s.logger.Debug("logout", zap.String("context", cur.Name), zap.Bool("revoked", revoked))
	return result, nil
}
