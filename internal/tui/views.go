package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// Source is the part of the KubeROS client the dashboard reads from.
type Source interface {
	ListClusters(ctx context.Context) ([]v1.Cluster, error)
	ListFleets(ctx context.Context) ([]v1.Fleet, error)
	ListDeployments(ctx context.Context) ([]v1.Deployment, error)
	ListBatchJobs(ctx context.Context) ([]v1.BatchJob, error)

	GetCluster(ctx context.Context, name string, sync bool) (*v1.Cluster, error)
	GetFleet(ctx context.Context, name string) (*v1.Fleet, error)
	GetDeployment(ctx context.Context, name string) (*v1.Deployment, error)
	GetBatchJob(ctx context.Context, name string) (*v1.BatchJob, error)

	ResetCluster(ctx context.Context, name string) (string, error)
	DeleteFleet(ctx context.Context, name string) (string, error)
	Undeploy(ctx context.Context, name string) (string, error)
	DeleteBatchJob(ctx context.Context, name string) (string, error)
}

// View is one resource list of the dashboard.
type View string

const (
	ViewClusters    View = "clusters"
	ViewFleets      View = "fleets"
	ViewDeployments View = "deployments"
	ViewBatchJobs   View = "batchjobs"
)

// views in the order of their number keys.
var views = []struct {
	key   rune
	view  View
	title string
}{
	{'1', ViewClusters, "Clusters"},
	{'2', ViewFleets, "Fleets"},
	{'3', ViewDeployments, "Deployments"},
	{'4', ViewBatchJobs, "Batch Jobs"},
}

// snapshot is the data of one refresh of a view.
type snapshot struct {
	clusters    []v1.Cluster
	fleets      []v1.Fleet
	deployments []v1.Deployment
	batchJobs   []v1.BatchJob
}

func fetch(ctx context.Context, src Source, view View) (snapshot, error) {
	var s snapshot
	var err error
	switch view {
	case ViewClusters:
		s.clusters, err = src.ListClusters(ctx)
	case ViewFleets:
		s.fleets, err = src.ListFleets(ctx)
	case ViewDeployments:
		s.deployments, err = src.ListDeployments(ctx)
	case ViewBatchJobs:
		s.batchJobs, err = src.ListBatchJobs(ctx)
	default:
		err = fmt.Errorf("unknown view %q", view)
	}
	return s, err
}

// headers returns the column titles of a view. The first column is always
// the resource name.
func headers(view View) []string {
	switch view {
	case ViewClusters:
		return []string{"NAME", "HOST URL", "NODES", "UUID"}
	case ViewFleets:
		return []string{"NAME", "MAIN CLUSTER", "ACTIVE", "ROBOTS", "CREATED AT"}
	case ViewDeployments:
		return []string{"NAME", "STATUS", "FLEET", "RUNNING SINCE"}
	case ViewBatchJobs:
		return []string{"NAME", "STATUS", "FLEET", "PROGRESS", "FAILED"}
	}
	return nil
}

// rows returns the table rows of a view, keeping only rows where some cell
// contains filter (case-insensitive).
func rows(view View, s snapshot, filter string) [][]string {
	var all [][]string
	switch view {
	case ViewClusters:
		for _, c := range s.clusters {
			all = append(all, []string{c.ClusterName, c.HostURL, strconv.Itoa(len(c.ClusterNodeSet)), c.UUID})
		}
	case ViewFleets:
		for _, f := range s.fleets {
			all = append(all, []string{f.FleetName, f.MainCluster, strconv.FormatBool(f.Active), strconv.Itoa(len(f.FleetNodeSet)), f.CreatedTime})
		}
	case ViewDeployments:
		for _, d := range s.deployments {
			all = append(all, []string{d.Name, d.Status, d.FleetName, d.RunningSince})
		}
	case ViewBatchJobs:
		for _, j := range s.batchJobs {
			all = append(all, []string{j.Name, j.Status, j.FleetName, fmt.Sprintf("%d/%d", j.FinishedJobs, j.TotalJobs), strconv.Itoa(j.FailedJobs)})
		}
	}

	filter = strings.ToLower(filter)
	out := make([][]string, 0, len(all))
	for _, r := range all {
		if matchesFilter(filter, r...) {
			out = append(out, r)
		}
	}
	return out
}

// statusColumn is the column colored by phaseColor, or -1.
func statusColumn(view View) int {
	switch view {
	case ViewFleets:
		return 2
	case ViewDeployments, ViewBatchJobs:
		return 1
	}
	return -1
}

// deleteAction names what the delete key does in a view.
func deleteAction(view View) string {
	switch view {
	case ViewClusters:
		return "Reset"
	case ViewFleets:
		return "Disband"
	case ViewDeployments:
		return "Stop"
	case ViewBatchJobs:
		return "Delete"
	}
	return ""
}

func remove(ctx context.Context, src Source, view View, name string) (string, error) {
	switch view {
	case ViewClusters:
		return src.ResetCluster(ctx, name)
	case ViewFleets:
		return src.DeleteFleet(ctx, name)
	case ViewDeployments:
		return src.Undeploy(ctx, name)
	case ViewBatchJobs:
		return src.DeleteBatchJob(ctx, name)
	}
	return "", fmt.Errorf("unknown view %q", view)
}

// describe fetches one resource for the detail panel.
func describe(ctx context.Context, src Source, view View, name string) (interface{}, error) {
	switch view {
	case ViewClusters:
		return src.GetCluster(ctx, name, false)
	case ViewFleets:
		return src.GetFleet(ctx, name)
	case ViewDeployments:
		return src.GetDeployment(ctx, name)
	case ViewBatchJobs:
		return src.GetBatchJob(ctx, name)
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

// matchesFilter returns true if any of the values contain the filter string.
func matchesFilter(filter string, values ...string) bool {
	if filter == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), filter) {
			return true
		}
	}
	return false
}

// phaseColor returns the tcell color appropriate for a status string.
func phaseColor(phase string) tcell.Color {
	switch strings.ToLower(phase) {
	case "running", "success", "succeeded", "finished", "true":
		return tcell.ColorGreen
	case "deploying", "pending", "starting", "scheduled":
		return tcell.ColorYellow
	case "failed", "error", "false":
		return tcell.ColorRed
	case "deleting", "deleted":
		return tcell.ColorGray
	default:
		return tcell.ColorWhite
	}
}
