package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
	"github.com/kuberos/kuberos-cli/pkg/manifest"
)

func newClusterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cluster",
		Aliases: []string{"clusters"},
		Short:   "Manage the Kubernetes clusters registered with KubeROS",
	}

	cmd.AddCommand(
		newClusterListCmd(a),
		newClusterInfoCmd(a),
		newClusterRegisterCmd(a),
		newClusterUpdateCmd(a),
		newClusterResetCmd(a),
	)
	return cmd
}

func newClusterListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered clusters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			clusters, err := c.ListClusters(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing clusters: %w", err)
			}
			return a.render(clusters, func(w io.Writer) {
				t := newTable("NAME", "HOST URL", "UUID")
				for _, cl := range clusters {
					t.addRow(cl.ClusterName, cl.HostURL, cl.UUID)
				}
				t.render(w)
			})
		},
	}
}

func newClusterInfoCmd(a *app) *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:     "info NAME",
		Aliases: []string{"status"},
		Short:   "Show the nodes of a cluster grouped by role",
		Example: `  kuberos cluster info lab-cluster
  kuberos cluster info lab-cluster --sync -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			cl, err := c.GetCluster(cmd.Context(), args[0], sync)
			if err != nil {
				return fmt.Errorf("getting cluster %s: %w", args[0], err)
			}
			return a.render(cl, func(w io.Writer) { printCluster(w, cl) })
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "Synchronize node state with the cluster before reporting")

	return cmd
}

const sectionWidth = 80

func printCluster(w io.Writer, cl *v1.Cluster) {
	field(w, "Cluster Name", cl.ClusterName)
	field(w, "API Server", cl.HostURL)
	fmt.Fprintln(w)

	onboard := newTable("ROBOT NAME", "HOSTNAME", "DEVICE GROUP", "AVAILABLE", "FLEET", "PERIPHERALS")
	edge := newTable("HOSTNAME", "GROUP", "SHARED RESOURCE", "AVAILABLE", "REACHABLE")
	unassigned := newTable("HOSTNAME", "ROLE", "REGISTERED", "AVAILABLE", "REACHABLE")
	controlPlane := newTable("HOSTNAME", "ROLE", "REGISTERED", "AVAILABLE", "REACHABLE")

	for _, n := range cl.ClusterNodeSet {
		switch n.KuberosRole {
		case v1.RoleOnboard:
			onboard.addRow(orNone(n.RobotName), n.Hostname, n.DeviceGroup, yesNo(n.IsAvailable),
				orNone(n.AssignedFleetName), strings.Join(n.PeripheralDeviceNameList, ","))
		case v1.RoleEdge:
			edge.addRow(n.Hostname, n.ResourceGroup, yesNo(n.IsShared), yesNo(n.IsAvailable), phase(yesNo(n.IsAlive)))
		case v1.RoleUnassigned:
			unassigned.addRow(n.Hostname, n.KuberosRole, yesNo(n.KuberosRegistered), yesNo(n.IsAvailable), phase(yesNo(n.IsAlive)))
		case v1.RoleControlPlane:
			controlPlane.addRow(n.Hostname, n.KuberosRole, yesNo(n.KuberosRegistered), yesNo(n.IsAvailable), phase(yesNo(n.IsAlive)))
		}
	}

	for _, s := range []struct {
		title string
		t     *table
	}{
		{"Robot Onboard Computers", onboard},
		{"Edge Nodes", edge},
		{"Unassigned Nodes", unassigned},
		{"Control Plane Nodes", controlPlane},
	} {
		if len(s.t.rows) == 0 {
			continue
		}
		section(w, s.title, sectionWidth)
		s.t.render(w)
		fmt.Fprintln(w)
	}
}

func newClusterRegisterCmd(a *app) *cobra.Command {
	var reg v1.ClusterRegistration

	cmd := &cobra.Command{
		Use:   "register NAME",
		Short: "Register a Kubernetes cluster",
		Long: `Register a Kubernetes cluster with KubeROS.

The service account token must have cluster-admin rights. The CA
certificate of the cluster's API server is uploaded with the request.`,
		Example: `  kuberos cluster register lab-cluster --host https://10.0.0.1:6443 --token $SA_TOKEN --ca-cert ca.crt`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Name = args[0]
			caCert, err := os.ReadFile(reg.CACertFile)
			if err != nil {
				return fmt.Errorf("reading CA certificate: %w", err)
			}
			reg.CACertFile = filepath.Base(reg.CACertFile)

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.RegisterCluster(cmd.Context(), reg, caCert)
			if err != nil {
				return fmt.Errorf("registering cluster %s: %w", reg.Name, err)
			}
			a.done(msg, "Cluster %q registered", reg.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.HostURL, "host", "", "URL of the cluster's Kubernetes API server (required)")
	cmd.Flags().StringVar(&reg.ServiceTokenAdmin, "token", "", "Service account token with admin rights (required)")
	cmd.Flags().StringVar(&reg.CACertFile, "ca-cert", "", "Path to the cluster CA certificate (required)")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("ca-cert")

	return cmd
}

func newClusterUpdateCmd(a *app) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:     "update -f <inventory>",
		Short:   "Apply an inventory description to a cluster",
		Long:    "Upload an inventory description that assigns roles, groups and robots to the nodes of a cluster.",
		Example: `  kuberos cluster update -f inventory.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile(filename)
			if err != nil {
				return err
			}
			if err := m.ExpectKind(v1.KindClusterInventory); err != nil {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.UpdateInventory(cmd.Context(), filepath.Base(filename), m.Raw)
			if err != nil {
				return fmt.Errorf("updating inventory %s: %w", m.Name(), err)
			}
			a.done(msg, "Inventory %q applied", m.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to inventory description (required)")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func newClusterResetCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset NAME",
		Short: "Clear the inventory of a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if ok, err := a.confirm(fmt.Sprintf("Reset the inventory of cluster %q", name), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.ResetCluster(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("resetting cluster %s: %w", name, err)
			}
			a.done(msg, "Cluster %q reset", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}
