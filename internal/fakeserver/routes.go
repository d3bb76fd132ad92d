package fakeserver

import "net/http"

// registerRoutes wires every API endpoint to its handler.
func (s *Server) registerRoutes() {
	s.router.Use(s.record)
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Auth
	api.HandleFunc("/auth/user_login/", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/user_logout/", s.handleLogout).Methods(http.MethodPost)

	// Clusters
	api.HandleFunc("/cluster/clusters/", s.authed(s.handleListClusters)).Methods(http.MethodGet)
	api.HandleFunc("/cluster/clusters/", s.authed(s.handleRegisterCluster)).Methods(http.MethodPost)
	api.HandleFunc("/cluster/clusters/{name}/", s.authed(s.handleGetCluster)).Methods(http.MethodGet)
	api.HandleFunc("/cluster_operating/cluster_inventory_management/", s.authed(s.handleUpdateInventory)).Methods(http.MethodPost)
	api.HandleFunc("/cluster_operating/cluster_inventory_management/{name}/", s.authed(s.handleResetCluster)).Methods(http.MethodDelete)

	// Fleets
	api.HandleFunc("/fleet/manage_fleet/", s.authed(s.handleListFleets)).Methods(http.MethodGet)
	api.HandleFunc("/fleet/manage_fleet/", s.authed(s.handleCreateFleet)).Methods(http.MethodPost)
	api.HandleFunc("/fleet/manage_fleet/{name}/", s.authed(s.handleGetFleet)).Methods(http.MethodGet)
	api.HandleFunc("/fleet/manage_fleet/{name}/", s.authed(s.handleDeleteFleet)).Methods(http.MethodDelete)

	// Deployments
	api.HandleFunc("/deployment/deployments/", s.authed(s.handleListDeployments)).Methods(http.MethodGet)
	api.HandleFunc("/deployment/deployments/{name}/", s.authed(s.handleGetDeployment)).Methods(http.MethodGet)
	api.HandleFunc("/deployment/deployments/{name}/", s.authed(s.handleDeleteDeployment)).Methods(http.MethodDelete)
	api.HandleFunc("/deploying/deploy_rosmodule/", s.authed(s.handleDeploy)).Methods(http.MethodPost)
	api.HandleFunc("/deploying/deploy_rosmodule/{name}/", s.authed(s.handleUndeploy)).Methods(http.MethodDelete)

	// Batch jobs
	api.HandleFunc("/batch_job/batch_jobs/", s.authed(s.handleListBatchJobs)).Methods(http.MethodGet)
	api.HandleFunc("/batch_job/batch_jobs/{name}/", s.authed(s.handleGetBatchJob)).Methods(http.MethodGet)
	api.HandleFunc("/batch_job/batch_jobs/{name}/", s.authed(s.handleDeleteBatchJob)).Methods(http.MethodDelete)

	// Registry tokens
	api.HandleFunc("/cluster/container_registry_access_tokens/", s.authed(s.handleListRegistryTokens)).Methods(http.MethodGet)
	api.HandleFunc("/cluster/container_registry_access_tokens/", s.authed(s.handleCreateRegistryToken)).Methods(http.MethodPost)
	api.HandleFunc("/cluster/container_registry_access_tokens/{uuid}/", s.authed(s.handleDeleteRegistryToken)).Methods(http.MethodDelete)
	api.HandleFunc("/cluster_operating/container_registry_access_token/", s.authed(s.handleAttachRegistryToken)).Methods(http.MethodPost)
}
