package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
	"github.com/kuberos/kuberos-cli/pkg/manifest"
)

func newDeployCmd(a *app) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "deploy -f <file>",
		Short: "Deploy a ROS 2 application to a fleet",
		Long:  "Upload a deployment manifest to the API server of the current context.",
		Example: `  kuberos deploy -f talker-listener.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile(filename)
			if err != nil {
				return err
			}
			if err := m.ExpectKind(v1.KindDeployment); err != nil {
				return err
			}

			c, cur, err := a.currentClient()
			if err != nil {
				return err
			}
			a.logger.Debug("deploying", zap.String("context", cur.Name), zap.String("deployment", m.Name()))

			msg, err := c.Deploy(cmd.Context(), filepath.Base(filename), m.Raw)
			if err != nil {
				return fmt.Errorf("deploying %s: %w", m.Name(), err)
			}
			a.done(msg, "Deployment %q submitted", m.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to deployment manifest (required)")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Stop a running deployment",
		Long: `Stop a running deployment and remove its workloads from the fleet.

The deployment record stays in the database; use 'kuberos deployment delete'
to remove it.`,
		Example: `  kuberos delete talker-listener
  kuberos delete talker-listener --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if ok, err := a.confirm(fmt.Sprintf("Stop deployment %q", name), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.Undeploy(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("deleting deployment %s: %w", name, err)
			}
			a.done(msg, "Deployment %q is being deleted", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}
