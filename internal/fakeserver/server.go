// Package fakeserver is an in-memory KubeROS API server. It speaks the same
// endpoints, auth scheme and response envelopes as the real server and is
// used by the client and CLI tests and by "kuberos fake-server" for local
// experiments.
package fakeserver

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// Request is a call recorded by the server. Credentials are not recorded.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Form          map[string]string
	Files         map[string][]byte
}

// Server is the fake KubeROS API server.
type Server struct {
	router *mux.Router
	logger *zap.Logger
	server *http.Server

	mu          sync.Mutex
	users       map[string]string // username -> password
	sessions    map[string]string // token -> username
	clusters    map[string]*v1.Cluster
	fleets      map[string]*v1.Fleet
	deployments map[string]*v1.Deployment
	batchJobs   map[string]*v1.BatchJob
	tokens      map[string]*v1.RegistryToken // keyed by uuid
	attachments []v1.RegistryTokenAttachment
	failures    map[string]int
	requests    []Request
}

// New creates a Server with no users and no resources.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:      mux.NewRouter(),
		logger:      logger,
		users:       map[string]string{},
		sessions:    map[string]string{},
		clusters:    map[string]*v1.Cluster{},
		fleets:      map[string]*v1.Fleet{},
		deployments: map[string]*v1.Deployment{},
		batchJobs:   map[string]*v1.BatchJob{},
		tokens:      map[string]*v1.RegistryToken{},
		failures:    map[string]int{},
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("fake API server starting", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ---------------------------------------------------------------------------
// Seeding and inspection
// ---------------------------------------------------------------------------

// AddUser registers a user that can log in.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// IssueToken creates a live session for username and returns its token.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(username)
}

func (s *Server) issueTokenLocked(username string) string {
	token := uuid.NewString()
	s.sessions[token] = username
	return token
}

// SessionValid reports whether token belongs to a live session.
func (s *Server) SessionValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

// AddCluster stores a cluster, assigning a UUID when it has none.
func (s *Server) AddCluster(c v1.Cluster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	s.clusters[c.ClusterName] = &c
}

// AddFleet stores a fleet.
func (s *Server) AddFleet(f v1.Fleet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.UUID == "" {
		f.UUID = uuid.NewString()
	}
	s.fleets[f.FleetName] = &f
}

// AddDeployment stores a deployment.
func (s *Server) AddDeployment(d v1.Deployment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[d.Name] = &d
}

// AddBatchJob stores a batch job.
func (s *Server) AddBatchJob(j v1.BatchJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.UUID == "" {
		j.UUID = uuid.NewString()
	}
	s.batchJobs[j.Name] = &j
}

// AddRegistryToken stores a registry token and returns its UUID.
func (s *Server) AddRegistryToken(t v1.RegistryToken) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}
	t.Password = ""
	s.tokens[t.UUID] = &t
	return t.UUID
}

// FailWith makes every request to path answer with status until cleared
// with a zero status.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Requests returns a copy of the recorded calls, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent call, or false if there was none.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Deployment returns a stored deployment.
func (s *Server) Deployment(name string) (v1.Deployment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deployments[name]
	if !ok {
		return v1.Deployment{}, false
	}
	return *d, true
}

// Fleet returns a stored fleet.
func (s *Server) Fleet(name string) (v1.Fleet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fleets[name]
	if !ok {
		return v1.Fleet{}, false
	}
	return *f, true
}

// Attachments returns the registry token attachments made so far.
func (s *Server) Attachments() []v1.RegistryTokenAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]v1.RegistryTokenAttachment, len(s.attachments))
	copy(out, s.attachments)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
