// Package v1 defines the KubeROS API resources as returned by the
// api/v1 endpoints of the API server.
package v1

import "encoding/json"

// Manifest kinds understood by the CLI.
const (
	KindDeployment       = "RosModule"
	KindFleet            = "Fleet"
	KindClusterInventory = "ClusterInventory"
	KindBatchJob         = "BatchJob"
)

// TypeMeta describes the API version and kind of a manifest document.
type TypeMeta struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`
}

// ObjectMeta holds the metadata block of a manifest document.
type ObjectMeta struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// -------------------------------------------------------
// Envelope
// -------------------------------------------------------

// Envelope is the wrapper some endpoints put around their payload. Older
// endpoints report "success" as a bool, newer ones a "status" string.
type Envelope struct {
	Success *bool           `json:"success,omitempty" yaml:"success,omitempty"`
	Status  string          `json:"status,omitempty" yaml:"status,omitempty"`
	Res     string          `json:"res,omitempty" yaml:"res,omitempty"`
	Msg     string          `json:"msg,omitempty" yaml:"msg,omitempty"`
	Data    json.RawMessage `json:"data,omitempty" yaml:"-"`
}

// Failed reports whether the envelope signals an unsuccessful operation.
func (e *Envelope) Failed() bool {
	if e.Success != nil && !*e.Success {
		return true
	}
	switch e.Status {
	case "failed", "error", "rejected":
		return true
	}
	switch e.Res {
	case "failed", "error":
		return true
	}
	return false
}

// -------------------------------------------------------
// Auth
// -------------------------------------------------------

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued by the server.
type LoginResponse struct {
	Token string `json:"token"`
}

// -------------------------------------------------------
// Cluster
// -------------------------------------------------------

// Node roles reported in ClusterNode.KuberosRole.
const (
	RoleOnboard      = "onboard"
	RoleEdge         = "edge"
	RoleCloud        = "cloud"
	RoleControlPlane = "control_plane"
	RoleUnassigned   = "unassigned"
)

// Cluster is a Kubernetes cluster registered with KubeROS.
type Cluster struct {
	UUID           string        `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ClusterName    string        `json:"cluster_name" yaml:"cluster_name"`
	HostURL        string        `json:"host_url" yaml:"host_url"`
	CreatedTime    string        `json:"created_time,omitempty" yaml:"created_time,omitempty"`
	ClusterNodeSet []ClusterNode `json:"cluster_node_set,omitempty" yaml:"cluster_node_set,omitempty"`
}

// ClusterNode is one Kubernetes node of a cluster.
type ClusterNode struct {
	Hostname                 string   `json:"hostname" yaml:"hostname"`
	KuberosRole              string   `json:"kuberos_role" yaml:"kuberos_role"`
	KuberosRegistered        bool     `json:"kuberos_registered" yaml:"kuberos_registered"`
	IsAvailable              bool     `json:"is_available" yaml:"is_available"`
	IsAlive                  bool     `json:"is_alive" yaml:"is_alive"`
	RobotName                string   `json:"robot_name,omitempty" yaml:"robot_name,omitempty"`
	DeviceGroup              string   `json:"device_group,omitempty" yaml:"device_group,omitempty"`
	ResourceGroup            string   `json:"resource_group,omitempty" yaml:"resource_group,omitempty"`
	IsShared                 bool     `json:"is_shared,omitempty" yaml:"is_shared,omitempty"`
	AssignedFleetName        string   `json:"assigned_fleet_name,omitempty" yaml:"assigned_fleet_name,omitempty"`
	PeripheralDeviceNameList []string `json:"peripheral_device_name_list,omitempty" yaml:"peripheral_device_name_list,omitempty"`
}

// ClusterRegistration is submitted when a new cluster is registered.
type ClusterRegistration struct {
	Name              string
	HostURL           string
	ServiceTokenAdmin string
	CACertFile        string
}

// -------------------------------------------------------
// Fleet
// -------------------------------------------------------

// Fleet is a group of robots managed together.
type Fleet struct {
	UUID         string      `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	FleetName    string      `json:"fleet_name" yaml:"fleet_name"`
	MainCluster  string      `json:"k8s_main_cluster_name" yaml:"k8s_main_cluster_name"`
	Active       bool        `json:"active" yaml:"active"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedTime  string      `json:"created_time,omitempty" yaml:"created_time,omitempty"`
	FleetNodeSet []FleetNode `json:"fleet_node_set,omitempty" yaml:"fleet_node_set,omitempty"`
}

// FleetNode is a robot's onboard computer assigned to a fleet.
type FleetNode struct {
	RobotName        string `json:"robot_name" yaml:"robot_name"`
	RobotID          int    `json:"robot_id" yaml:"robot_id"`
	ClusterNodeName  string `json:"cluster_node_name" yaml:"cluster_node_name"`
	OnboardCompGroup string `json:"onboard_comp_group" yaml:"onboard_comp_group"`
	Status           string `json:"status" yaml:"status"`
	SharedResource   bool   `json:"shared_resource" yaml:"shared_resource"`
}

// -------------------------------------------------------
// Deployment
// -------------------------------------------------------

// Deployment is a ROS 2 application rolled out to a fleet.
type Deployment struct {
	Name             string          `json:"name" yaml:"name"`
	Status           string          `json:"status" yaml:"status"`
	FleetName        string          `json:"fleet_name" yaml:"fleet_name"`
	RunningSince     string          `json:"running_since,omitempty" yaml:"running_since,omitempty"`
	DeploymentJobSet []DeploymentJob `json:"deployment_job_set,omitempty" yaml:"deployment_job_set,omitempty"`
}

// DeploymentJob is the part of a deployment running on one robot.
type DeploymentJob struct {
	RobotName     string           `json:"robot_name" yaml:"robot_name"`
	JobPhase      string           `json:"job_phase" yaml:"job_phase"`
	AllPodsStatus []ResourceStatus `json:"all_pods_status" yaml:"all_pods_status"`
	AllSvcsStatus []ResourceStatus `json:"all_svcs_status" yaml:"all_svcs_status"`
}

// ResourceStatus is the status of a single pod or service.
type ResourceStatus struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

// -------------------------------------------------------
// BatchJob
// -------------------------------------------------------

// BatchJob is a set of short-lived jobs distributed over a fleet.
type BatchJob struct {
	UUID         string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Status       string `json:"status" yaml:"status"`
	FleetName    string `json:"fleet_name,omitempty" yaml:"fleet_name,omitempty"`
	CreatedTime  string `json:"created_time,omitempty" yaml:"created_time,omitempty"`
	TotalJobs    int    `json:"total_jobs" yaml:"total_jobs"`
	FinishedJobs int    `json:"finished_jobs" yaml:"finished_jobs"`
	FailedJobs   int    `json:"failed_jobs" yaml:"failed_jobs"`
}

// -------------------------------------------------------
// Registry token
// -------------------------------------------------------

// RegistryToken is a container registry credential stored by KubeROS.
// The password is write-only: the server never returns it.
type RegistryToken struct {
	UUID        string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name        string `json:"name" yaml:"name"`
	UserName    string `json:"user_name" yaml:"user_name"`
	RegistryURL string `json:"registry_url" yaml:"registry_url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Password    string `json:"password,omitempty" yaml:"-"`
}

// RegistryTokenAttachment binds a registry token to a cluster namespace.
type RegistryTokenAttachment struct {
	ClusterName string `json:"cluster_name"`
	TokenName   string `json:"token_name"`
	Namespace   string `json:"namespace"`
}
