package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

func newBatchJobCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "batchjob",
		Aliases: []string{"batchjobs", "batch-job"},
		Short:   "Inspect batch jobs",
	}

	cmd.AddCommand(
		newBatchJobListCmd(a),
		newBatchJobStatusCmd(a),
		newBatchJobDeleteCmd(a),
	)
	return cmd
}

func newBatchJobListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List batch jobs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			jobs, err := c.ListBatchJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing batch jobs: %w", err)
			}
			return a.render(jobs, func(w io.Writer) {
				t := newTable("NAME", "STATUS", "FLEET", "PROGRESS", "FAILED", "CREATED AT")
				for _, j := range jobs {
					t.addRow(j.Name, phase(j.Status), j.FleetName, progress(j), strconv.Itoa(j.FailedJobs), j.CreatedTime)
				}
				t.render(w)
			})
		},
	}
}

func progress(j v1.BatchJob) string {
	return fmt.Sprintf("%d/%d", j.FinishedJobs, j.TotalJobs)
}

func newBatchJobStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status NAME",
		Aliases: []string{"info"},
		Short:   "Show the progress of a batch job",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			j, err := c.GetBatchJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting batch job %s: %w", args[0], err)
			}
			return a.render(j, func(w io.Writer) {
				field(w, "Name", j.Name)
				field(w, "UUID", orNone(j.UUID))
				field(w, "Status", phase(j.Status))
				field(w, "Fleet", orNone(j.FleetName))
				field(w, "Created At", orNone(j.CreatedTime))
				field(w, "Progress", progress(*j))
				field(w, "Failed", j.FailedJobs)
			})
		},
	}
}

func newBatchJobDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a batch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if ok, err := a.confirm(fmt.Sprintf("Delete batch job %q", name), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.DeleteBatchJob(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("deleting batch job %s: %w", name, err)
			}
			a.done(msg, "Batch job %q deleted", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}
