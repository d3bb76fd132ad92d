package client

// API paths, relative to a context's server URL.
const (
	LoginPath            = "api/v1/auth/user_login/"
	LogoutPath           = "api/v1/auth/user_logout/"
	ClusterPath          = "api/v1/cluster/clusters/"
	ClusterInventoryPath = "api/v1/cluster_operating/cluster_inventory_management/"
	FleetPath            = "api/v1/fleet/manage_fleet/"
	DeploymentPath       = "api/v1/deployment/deployments/"
	DeployingPath        = "api/v1/deploying/deploy_rosmodule/"
	BatchJobPath         = "api/v1/batch_job/batch_jobs/"
	RegistryTokenPath    = "api/v1/cluster/container_registry_access_tokens/"
	RegistryAttachPath   = "api/v1/cluster_operating/container_registry_access_token/"
)
