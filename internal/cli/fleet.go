package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
	"github.com/kuberos/kuberos-cli/pkg/manifest"
)

func newFleetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fleet",
		Aliases: []string{"fleets"},
		Short:   "Manage robot fleets",
	}

	cmd.AddCommand(
		newFleetListCmd(a),
		newFleetInfoCmd(a),
		newFleetCreateCmd(a),
		newFleetDeleteCmd(a),
	)
	return cmd
}

func newFleetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List fleets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			fleets, err := c.ListFleets(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing fleets: %w", err)
			}
			return a.render(fleets, func(w io.Writer) {
				t := newTable("NAME", "MAIN CLUSTER", "UUID", "CREATED AT")
				for _, f := range fleets {
					t.addRow(f.FleetName, f.MainCluster, f.UUID, f.CreatedTime)
				}
				t.render(w)
			})
		},
	}
}

func newFleetInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "info NAME",
		Aliases: []string{"status"},
		Short:   "Show a fleet and its robots",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			f, err := c.GetFleet(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting fleet %s: %w", args[0], err)
			}
			return a.render(f, func(w io.Writer) { printFleet(w, f) })
		},
	}
}

func printFleet(w io.Writer, f *v1.Fleet) {
	field(w, "Fleet Name", f.FleetName)
	field(w, "Active", phase(yesNo(f.Active)))
	field(w, "Main Cluster", f.MainCluster)
	field(w, "Description", orNone(f.Description))
	fmt.Fprintln(w)

	t := newTable("ROBOT NAME", "ID", "HOSTNAME", "COMPUTER GROUP", "STATUS", "SHARED RESOURCE")
	for _, n := range f.FleetNodeSet {
		t.addRow(n.RobotName, strconv.Itoa(n.RobotID), n.ClusterNodeName, n.OnboardCompGroup, phase(n.Status), yesNo(n.SharedResource))
	}
	t.render(w)
}

func newFleetCreateCmd(a *app) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:     "create -f <manifest>",
		Short:   "Create a fleet from a manifest",
		Example: `  kuberos fleet create -f fleet.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile(filename)
			if err != nil {
				return err
			}
			if err := m.ExpectKind(v1.KindFleet); err != nil {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.CreateFleet(cmd.Context(), filepath.Base(filename), m.Raw)
			if err != nil {
				return fmt.Errorf("creating fleet %s: %w", m.Name(), err)
			}
			a.done(msg, "Fleet %q created", m.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to fleet manifest (required)")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func newFleetDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"disband"},
		Short:   "Disband a fleet",
		Long:    "Disband a fleet. Its robots are released and can join another fleet.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if ok, err := a.confirm(fmt.Sprintf("Disband fleet %q", name), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.DeleteFleet(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("disbanding fleet %s: %w", name, err)
			}
			a.done(msg, "Fleet %q disbanded", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}
