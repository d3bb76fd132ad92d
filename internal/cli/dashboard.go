package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuberos/kuberos-cli/internal/tui"
)

func newDashboardCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui", "top"},
		Short:   "Launch the interactive terminal dashboard",
		Long: `Launch a k9s-style terminal dashboard for the API server of the current
context. Keys 1-4 switch between clusters, fleets, deployments and batch
jobs; enter describes the selected row, d deletes it and q quits.`,
		Example: `  kuberos dashboard
  kuberos dashboard --interval 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cur, err := a.currentClient()
			if err != nil {
				return err
			}
			app := tui.NewApp(c, tui.Options{
				Context:  cur.Name,
				Server:   c.BaseURL(),
				Interval: interval,
			})
			if err := app.Run(cmd.Context()); err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultInterval, "Refresh interval")

	return cmd
}
