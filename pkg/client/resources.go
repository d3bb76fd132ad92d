package client

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// Ping checks that the server answers an authenticated call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodGet, c.endpoint(ClusterPath), nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Deploying
// ---------------------------------------------------------------------------

// Deploy uploads a deployment manifest and starts the rollout.
func (c *Client) Deploy(ctx context.Context, filename string, manifest []byte) (string, error) {
	file := File{Field: "deployment_yaml", Filename: filepath.Base(filename), Content: manifest}
	return c.doMultipart(ctx, http.MethodPost, c.endpoint(DeployingPath), nil, file, nil)
}

// Undeploy stops a running deployment and removes its workloads.
func (c *Client) Undeploy(ctx context.Context, name string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(DeployingPath, name))
}

// ---------------------------------------------------------------------------
// Clusters
// ---------------------------------------------------------------------------

// ListClusters returns every registered cluster.
func (c *Client) ListClusters(ctx context.Context) ([]v1.Cluster, error) {
	return listResources[v1.Cluster](ctx, c, c.endpoint(ClusterPath))
}

// GetCluster returns a cluster with its nodes. With sync set the server
// refreshes the node inventory from Kubernetes first.
func (c *Client) GetCluster(ctx context.Context, name string, sync bool) (*v1.Cluster, error) {
	u := c.endpoint(ClusterPath, name)
	if sync {
		u += "?" + url.Values{"sync": {"true"}}.Encode()
	}
	return getResource[v1.Cluster](ctx, c, u)
}

// RegisterCluster adds a Kubernetes cluster to KubeROS.
func (c *Client) RegisterCluster(ctx context.Context, reg v1.ClusterRegistration, caCert []byte) (string, error) {
	fields := map[string]string{
		"name":                reg.Name,
		"host_url":            reg.HostURL,
		"service_token_admin": reg.ServiceTokenAdmin,
	}
	file := File{Field: "ca_crt_file", Filename: filepath.Base(reg.CACertFile), Content: caCert}
	return c.doMultipart(ctx, http.MethodPost, c.endpoint(ClusterPath), fields, file, nil)
}

// UpdateInventory uploads a cluster inventory description.
func (c *Client) UpdateInventory(ctx context.Context, filename string, inventory []byte) (string, error) {
	fields := map[string]string{"update": "true"}
	file := File{Field: "inventory_description", Filename: filepath.Base(filename), Content: inventory}
	return c.doMultipart(ctx, http.MethodPost, c.endpoint(ClusterInventoryPath), fields, file, nil)
}

// ResetCluster removes every KubeROS label and resource from a cluster.
func (c *Client) ResetCluster(ctx context.Context, name string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(ClusterInventoryPath, name))
}

// ---------------------------------------------------------------------------
// Fleets
// ---------------------------------------------------------------------------

// ListFleets returns every fleet.
func (c *Client) ListFleets(ctx context.Context) ([]v1.Fleet, error) {
	return listResources[v1.Fleet](ctx, c, c.endpoint(FleetPath))
}

// GetFleet returns a fleet with its robots.
func (c *Client) GetFleet(ctx context.Context, name string) (*v1.Fleet, error) {
	return getResource[v1.Fleet](ctx, c, c.endpoint(FleetPath, name))
}

// CreateFleet uploads a fleet manifest.
func (c *Client) CreateFleet(ctx context.Context, filename string, manifest []byte) (string, error) {
	fields := map[string]string{"create": "true"}
	file := File{Field: "fleet_manifest", Filename: filepath.Base(filename), Content: manifest}
	return c.doMultipart(ctx, http.MethodPost, c.endpoint(FleetPath), fields, file, nil)
}

// DeleteFleet disbands a fleet.
func (c *Client) DeleteFleet(ctx context.Context, name string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(FleetPath, name))
}

// ---------------------------------------------------------------------------
// Deployments
// ---------------------------------------------------------------------------

// ListDeployments returns every deployment.
func (c *Client) ListDeployments(ctx context.Context) ([]v1.Deployment, error) {
	return listResources[v1.Deployment](ctx, c, c.endpoint(DeploymentPath))
}

// GetDeployment returns a deployment with its per-robot jobs.
func (c *Client) GetDeployment(ctx context.Context, name string) (*v1.Deployment, error) {
	return getResource[v1.Deployment](ctx, c, c.endpoint(DeploymentPath, name))
}

// DeleteDeployment removes the deployment record from the server database
// without touching running workloads.
func (c *Client) DeleteDeployment(ctx context.Context, name string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(DeploymentPath, name))
}

// ---------------------------------------------------------------------------
// Batch jobs
// ---------------------------------------------------------------------------

// ListBatchJobs returns every batch job.
func (c *Client) ListBatchJobs(ctx context.Context) ([]v1.BatchJob, error) {
	return listResources[v1.BatchJob](ctx, c, c.endpoint(BatchJobPath))
}

// GetBatchJob returns a single batch job.
func (c *Client) GetBatchJob(ctx context.Context, name string) (*v1.BatchJob, error) {
	return getResource[v1.BatchJob](ctx, c, c.endpoint(BatchJobPath, name))
}

// DeleteBatchJob removes a batch job.
func (c *Client) DeleteBatchJob(ctx context.Context, name string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(BatchJobPath, name))
}

// ---------------------------------------------------------------------------
// Registry tokens
// ---------------------------------------------------------------------------

// ListRegistryTokens returns the registry tokens visible to the user.
func (c *Client) ListRegistryTokens(ctx context.Context) ([]v1.RegistryToken, error) {
	return listResources[v1.RegistryToken](ctx, c, c.endpoint(RegistryTokenPath))
}

// CreateRegistryToken stores a new registry credential.
func (c *Client) CreateRegistryToken(ctx context.Context, token *v1.RegistryToken) (string, error) {
	return c.doJSON(ctx, http.MethodPost, c.endpoint(RegistryTokenPath), token, nil)
}

// DeleteRegistryToken removes a registry token by UUID.
func (c *Client) DeleteRegistryToken(ctx context.Context, uuid string) (string, error) {
	return deleteResource(ctx, c, c.endpoint(RegistryTokenPath, uuid))
}

// AttachRegistryToken makes a registry token available as an image pull
// secret in a cluster namespace.
func (c *Client) AttachRegistryToken(ctx context.Context, a v1.RegistryTokenAttachment) (string, error) {
	form := url.Values{
		"cluster_name": {a.ClusterName},
		"token_name":   {a.TokenName},
		"namespace":    {a.Namespace},
	}
	return c.doForm(ctx, http.MethodPost, c.endpoint(RegistryAttachPath), form, nil)
}
