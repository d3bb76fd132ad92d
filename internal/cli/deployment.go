package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

func newDeploymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployment",
		Aliases: []string{"deployments"},
		Short:   "Inspect deployments",
	}

	cmd.AddCommand(
		newDeploymentListCmd(a),
		newDeploymentStatusCmd(a),
		newDeploymentDeleteCmd(a),
	)
	return cmd
}

func newDeploymentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			deployments, err := c.ListDeployments(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing deployments: %w", err)
			}
			return a.render(deployments, func(w io.Writer) {
				t := newTable("NAME", "STATUS", "FLEET", "RUNNING SINCE")
				for _, d := range deployments {
					t.addRow(d.Name, phase(d.Status), d.FleetName, d.RunningSince)
				}
				t.render(w)
			})
		},
	}
}

func newDeploymentStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status NAME",
		Aliases: []string{"info"},
		Short:   "Show a deployment and the state of its jobs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			d, err := c.GetDeployment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting deployment %s: %w", args[0], err)
			}
			return a.render(d, func(w io.Writer) { printDeployment(w, d) })
		},
	}
}

func printDeployment(w io.Writer, d *v1.Deployment) {
	const width = 60

	field(w, "Deployment Name", d.Name)
	field(w, "Status", phase(d.Status))
	field(w, "Fleet", d.FleetName)
	field(w, "Running Since", orNone(d.RunningSince))
	fmt.Fprintln(w)

	section(w, "Deployment Jobs Summary", width)
	summary := newTable("ROBOT NAME", "JOB PHASE", "PODS", "SERVICES")
	for _, job := range d.DeploymentJobSet {
		summary.addRow(job.RobotName, phase(job.JobPhase), strconv.Itoa(len(job.AllPodsStatus)), strconv.Itoa(len(job.AllSvcsStatus)))
	}
	summary.render(w)

	for i, job := range d.DeploymentJobSet {
		fmt.Fprintln(w)
		section(w, fmt.Sprintf("Deployment Job Nr. %d: %s (%s)", i+1, job.RobotName, phase(job.JobPhase)), width)
		t := newTable("RESOURCE NAME", "TYPE", "STATUS")
		for _, pod := range job.AllPodsStatus {
			t.addRow(pod.Name, "Pod", phase(pod.Status))
		}
		for _, svc := range job.AllSvcsStatus {
			t.addRow(svc.Name, "Service", phase(svc.Status))
		}
		t.render(w)
	}
}

func newDeploymentDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a deployment record from the database",
		Long: `Remove a deployment and its events from the server database.

Running workloads are not touched; use 'kuberos delete NAME' to stop a
deployment. Intended for testing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if ok, err := a.confirm(fmt.Sprintf("Remove deployment %q from the database", name), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.DeleteDeployment(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("deleting deployment %s: %w", name, err)
			}
			a.warn("Only the database record was deleted; running workloads are untouched.")
			a.done(msg, "Deployment %q deleted", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}
