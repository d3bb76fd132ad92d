package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuberos/kuberos-cli/internal/fakeserver"
	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// newFake starts a fake API server with one user and returns it together
// with a client holding a live session token.
func newFake(t *testing.T) (*fakeserver.Server, *httptest.Server, *Client) {
	t.Helper()
	fake := fakeserver.New(nil)
	fake.AddUser("alice", "s3cret")
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	token := fake.IssueToken("alice")
	return fake, ts, New(ts.URL, WithToken(token))
}

func TestNew(t *testing.T) {
	c := New("https://kuberos.example/")
	assert.Equal(t, "https://kuberos.example", c.BaseURL())
	assert.False(t, c.HasToken())
	assert.Equal(t, DefaultAuthTimeout, c.authTimeout)
	assert.Equal(t, "https://kuberos.example/api/v1/fleet/manage_fleet/bw0%2Ffleet/", c.endpoint(FleetPath, "bw0/fleet"))
}

func TestLogin(t *testing.T) {
	fake, ts, _ := newFake(t)
	c := New(ts.URL)

	token, err := c.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, fake.SessionValid(token))

	req, ok := fake.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/"+LoginPath, req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Empty(t, req.Authorization)
}

func TestLoginNeverSendsStaleToken(t *testing.T) {
	fake, ts, _ := newFake(t)
	c := New(ts.URL, WithToken("stale"))

	_, err := c.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	req, _ := fake.LastRequest()
	assert.Empty(t, req.Authorization)
}

func TestLoginFailures(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		_, ts, _ := newFake(t)
		_, err := New(ts.URL).Login(context.Background(), "alice", "wrong")
		require.ErrorIs(t, err, ErrAuthFailed)
		assert.NotErrorIs(t, err, ErrUnreachable)
		assert.Contains(t, err.Error(), "Unable to log in")
	})

	t.Run("server error", func(t *testing.T) {
		fake, ts, _ := newFake(t)
		fake.FailWith("/"+LoginPath, http.StatusInternalServerError)
		_, err := New(ts.URL).Login(context.Background(), "alice", "s3cret")
		require.ErrorIs(t, err, ErrServerError)
		assert.NotErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		_, err := New(url).Login(context.Background(), "alice", "s3cret")
		require.ErrorIs(t, err, ErrUnreachable)
		assert.NotErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("timeout", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(ts.Close)

		_, err := New(ts.URL, WithAuthTimeout(50*time.Millisecond)).Login(context.Background(), "alice", "s3cret")
		require.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("no token in response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token": ""}`))
		}))
		t.Cleanup(ts.Close)

		_, err := New(ts.URL).Login(context.Background(), "alice", "s3cret")
		require.ErrorIs(t, err, ErrAuthFailed)
	})
}

func TestLoginErrorNeverContainsPassword(t *testing.T) {
	_, ts, _ := newFake(t)
	_, err := New(ts.URL).Login(context.Background(), "alice", "hunter2-not-it")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2-not-it")
}

func TestLogout(t *testing.T) {
	fake, ts, c := newFake(t)

	revoked, err := c.Logout(context.Background())
	require.NoError(t, err)
	assert.True(t, revoked)

	req, _ := fake.LastRequest()
	assert.Equal(t, "/"+LogoutPath, req.Path)
	assert.Regexp(t, `^Token [0-9a-f-]+$`, req.Authorization)

	// The session is gone now: the server answers 401, which is still a
	// successful logout.
	revoked, err = c.Logout(context.Background())
	require.NoError(t, err)
	assert.False(t, revoked)

	fake.FailWith("/"+LogoutPath, http.StatusBadGateway)
	_, err = c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrServerError)

	fake.FailWith("/"+LogoutPath, 0)
	revoked, err = New(ts.URL).Logout(context.Background())
	require.NoError(t, err)
	assert.False(t, revoked)
	req, _ = fake.LastRequest()
	assert.Equal(t, "/"+LogoutPath, req.Path)
	assert.Regexp(t, `^Token ?$`, req.Authorization)
}

func TestAuthenticatedCalls(t *testing.T) {
	fake, ts, c := newFake(t)
	fake.AddCluster(v1.Cluster{ClusterName: "bw1", HostURL: "https://10.0.0.1:6443"})

	clusters, err := c.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "bw1", clusters[0].ClusterName)
	assert.NotEmpty(t, clusters[0].UUID)

	_, err = New(ts.URL, WithToken("expired")).ListClusters(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid token.", apiErr.Message)

	fake.FailWith("/"+ClusterPath, http.StatusServiceUnavailable)
	_, err = c.ListClusters(context.Background())
	assert.ErrorIs(t, err, ErrServerError)
}

func TestEmptyListIsNotNil(t *testing.T) {
	_, _, c := newFake(t)
	fleets, err := c.ListFleets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, fleets)
	assert.Empty(t, fleets)
}

func TestEnvelopesAreUnwrapped(t *testing.T) {
	fake, _, c := newFake(t)
	fake.AddFleet(v1.Fleet{FleetName: "bw0-fleet", MainCluster: "bw1", Active: true,
		FleetNodeSet: []v1.FleetNode{{RobotName: "robot-1", RobotID: 1, Status: "ready"}}})
	fake.AddDeployment(v1.Deployment{Name: "hello", Status: "running", FleetName: "bw0-fleet",
		DeploymentJobSet: []v1.DeploymentJob{{RobotName: "robot-1", JobPhase: "running",
			AllPodsStatus: []v1.ResourceStatus{{Name: "talker", Status: "Running"}}}}})

	fleet, err := c.GetFleet(context.Background(), "bw0-fleet")
	require.NoError(t, err)
	assert.Equal(t, "bw1", fleet.MainCluster)
	require.Len(t, fleet.FleetNodeSet, 1)
	assert.Equal(t, "robot-1", fleet.FleetNodeSet[0].RobotName)

	dep, err := c.GetDeployment(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "running", dep.Status)
	require.Len(t, dep.DeploymentJobSet, 1)
	assert.Equal(t, "talker", dep.DeploymentJobSet[0].AllPodsStatus[0].Name)

	// A failed envelope on a 200 response is still an error.
	_, err = c.GetFleet(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Fleet missing not found", apiErr.Message)

	_, err = c.GetDeployment(context.Background(), "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestUploads(t *testing.T) {
	fake, _, c := newFake(t)
	manifest := []byte("kind: RosModule\nmetadata:\n  name: hello\n")

	msg, err := c.Deploy(context.Background(), "/tmp/hello.kuberos.yml", manifest)
	require.NoError(t, err)
	assert.Equal(t, "Deployment hello accepted", msg)

	req, _ := fake.LastRequest()
	assert.Contains(t, req.ContentType, "multipart/form-data")
	assert.Equal(t, manifest, req.Files["deployment_yaml"])

	dep, ok := fake.Deployment("hello")
	require.True(t, ok)
	assert.Equal(t, "deploying", dep.Status)

	_, err = c.CreateFleet(context.Background(), "fleet.yml", []byte("kind: Fleet\nmetadata:\n  name: bw0\n"))
	require.NoError(t, err)
	req, _ = fake.LastRequest()
	assert.Equal(t, "true", req.Form["create"])
	_, ok = fake.Fleet("bw0")
	assert.True(t, ok)

	msg, err = c.UpdateInventory(context.Background(), "inv.yml", []byte("metadata:\n  name: bw1-inventory\n"))
	require.NoError(t, err)
	assert.Equal(t, "Inventory bw1-inventory applied", msg)

	_, err = c.RegisterCluster(context.Background(), v1.ClusterRegistration{
		Name: "bw2", HostURL: "https://10.0.0.2:6443", ServiceTokenAdmin: "sa-token", CACertFile: "/etc/ca.crt",
	}, []byte("-----BEGIN CERTIFICATE-----"))
	require.NoError(t, err)
	req, _ = fake.LastRequest()
	assert.Equal(t, "bw2", req.Form["name"])
	assert.Equal(t, "sa-token", req.Form["service_token_admin"])
	assert.Equal(t, []byte("-----BEGIN CERTIFICATE-----"), req.Files["ca_crt_file"])
}

func TestDeletes(t *testing.T) {
	fake, _, c := newFake(t)
	fake.AddDeployment(v1.Deployment{Name: "hello", Status: "running"})
	fake.AddBatchJob(v1.BatchJob{Name: "sweep", Status: "finished"})
	fake.AddFleet(v1.Fleet{FleetName: "bw0"})
	fake.AddCluster(v1.Cluster{ClusterName: "bw1"})

	msg, err := c.Undeploy(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Deployment hello is being deleted", msg)

	_, err = c.DeleteDeployment(context.Background(), "hello")
	require.NoError(t, err)
	_, ok := fake.Deployment("hello")
	assert.False(t, ok)

	_, err = c.DeleteBatchJob(context.Background(), "sweep")
	require.NoError(t, err)
	_, err = c.DeleteFleet(context.Background(), "bw0")
	require.NoError(t, err)
	_, err = c.ResetCluster(context.Background(), "bw1")
	require.NoError(t, err)

	_, err = c.DeleteBatchJob(context.Background(), "sweep")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestRegistryTokens(t *testing.T) {
	fake, _, c := newFake(t)
	fake.AddCluster(v1.Cluster{ClusterName: "bw1"})

	_, err := c.CreateRegistryToken(context.Background(), &v1.RegistryToken{
		Name: "ghcr", UserName: "bot", RegistryURL: "ghcr.io", Password: "pat",
	})
	require.NoError(t, err)

	tokens, err := c.ListRegistryTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Empty(t, tokens[0].Password)

	_, err = c.AttachRegistryToken(context.Background(), v1.RegistryTokenAttachment{
		ClusterName: "bw1", TokenName: "ghcr", Namespace: "ros-default",
	})
	require.NoError(t, err)
	assert.Equal(t, []v1.RegistryTokenAttachment{{ClusterName: "bw1", TokenName: "ghcr", Namespace: "ros-default"}}, fake.Attachments())

	req, _ := fake.LastRequest()
	assert.Equal(t, "application/x-www-form-urlencoded", req.ContentType)

	_, err = c.DeleteRegistryToken(context.Background(), tokens[0].UUID)
	require.NoError(t, err)
	tokens, err = c.ListRegistryTokens(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestPing(t *testing.T) {
	_, ts, c := newFake(t)
	assert.NoError(t, c.Ping(context.Background()))
	assert.ErrorIs(t, New(ts.URL).Ping(context.Background()), ErrUnauthorized)
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		envelope bool
		failed   bool
	}{
		{name: "success flag", body: `{"success": true, "data": {}}`, envelope: true},
		{name: "success false", body: `{"success": false, "msg": "nope"}`, envelope: true, failed: true},
		{name: "status envelope", body: `{"status": "success", "msg": "", "data": {"name": "x"}}`, envelope: true},
		{name: "failed status", body: `{"status": "failed", "msg": "nope"}`, envelope: true, failed: true},
		{name: "res envelope", body: `{"res": "success", "msg": "ok"}`, envelope: true},
		{name: "bare deployment", body: `{"name": "hello", "status": "failed", "fleet_name": "bw0"}`},
		{name: "array", body: `[{"name": "x"}]`},
		{name: "empty", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := parseEnvelope([]byte(tt.body))
			assert.Equal(t, tt.envelope, ok)
			if ok {
				assert.Equal(t, tt.failed, env.Failed())
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid token.", errorMessage([]byte(`{"detail": "Invalid token."}`)))
	assert.Equal(t, "bad", errorMessage([]byte(`{"non_field_errors": ["bad"]}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("  plain text\n")))
	assert.Len(t, errorMessage(make([]byte, 500)), 203)
}

func TestAPIErrorIs(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: 502}, ErrServerError)
	assert.ErrorIs(t, &APIError{StatusCode: 401}, ErrUnauthorized)
	assert.NotErrorIs(t, &APIError{StatusCode: 404}, ErrServerError)
	assert.Equal(t, "api error (status 404 Not Found)", (&APIError{StatusCode: 404}).Error())
}
