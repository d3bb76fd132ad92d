package fakeserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(nil)
	s.AddUser("alice", "s3cret")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, u, token string, body []byte, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLoginIssuesSession(t *testing.T) {
	s, ts := newTestServer(t)

	body, _ := json.Marshal(v1.LoginRequest{Username: "alice", Password: "s3cret"})
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/auth/user_login/", "", body, "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out v1.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Token)
	assert.True(t, s.SessionValid(out.Token))

	resp = do(t, http.MethodPost, ts.URL+"/api/v1/auth/user_logout/", out.Token, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, s.SessionValid(out.Token))

	resp = do(t, http.MethodPost, ts.URL+"/api/v1/auth/user_logout/", out.Token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, ts := newTestServer(t)
	form := url.Values{"username": {"alice"}, "password": {"nope"}}
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/auth/user_login/", "", []byte(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordedRequestsDropPasswords(t *testing.T) {
	s, ts := newTestServer(t)
	form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
	do(t, http.MethodPost, ts.URL+"/api/v1/auth/user_login/", "", []byte(form.Encode()), "application/x-www-form-urlencoded")

	req, ok := s.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "alice", req.Form["username"])
	assert.NotContains(t, req.Form, "password")
}

func TestResourceRoutesNeedSession(t *testing.T) {
	s, ts := newTestServer(t)
	s.AddDeployment(v1.Deployment{Name: "talker", Status: "running"})

	resp := do(t, http.MethodGet, ts.URL+"/api/v1/deployment/deployments/", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := s.IssueToken("alice")
	resp = do(t, http.MethodGet, ts.URL+"/api/v1/deployment/deployments/", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []v1.Deployment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []v1.Deployment{{Name: "talker", Status: "running"}}, list)

	req, ok := s.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Token "+token, req.Authorization)
}

func TestFailWith(t *testing.T) {
	s, ts := newTestServer(t)
	token := s.IssueToken("alice")
	path := "/api/v1/cluster/clusters/"

	s.FailWith(path, http.StatusBadGateway)
	resp := do(t, http.MethodGet, ts.URL+path, token, nil, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	s.FailWith(path, 0)
	resp = do(t, http.MethodGet, ts.URL+path, token, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegistryTokenPasswordIsWriteOnly(t *testing.T) {
	s, ts := newTestServer(t)
	token := s.IssueToken("alice")

	body, _ := json.Marshal(v1.RegistryToken{Name: "lab", RegistryURL: "registry.example.com", UserName: "robot", Password: "pw"})
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/cluster/container_registry_access_tokens/", token, body, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/v1/cluster/container_registry_access_tokens/", token, nil, "")
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"name":"lab"`)
	assert.False(t, strings.Contains(buf.String(), `"pw"`))
}
