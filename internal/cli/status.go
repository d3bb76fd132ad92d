package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuberos/kuberos-cli/internal/store"
	"github.com/kuberos/kuberos-cli/pkg/client"
)

type statusView struct {
	Context     string         `json:"context" yaml:"context"`
	Server      string         `json:"server" yaml:"server"`
	User        string         `json:"user" yaml:"user"`
	LoggedIn    bool           `json:"loggedIn" yaml:"loggedIn"`
	Reachable   bool           `json:"reachable" yaml:"reachable"`
	Authorized  bool           `json:"authorized" yaml:"authorized"`
	Clusters    int            `json:"clusters" yaml:"clusters"`
	Fleets      int            `json:"fleets" yaml:"fleets"`
	Deployments map[string]int `json:"deployments" yaml:"deployments"`
	BatchJobs   map[string]int `json:"batchJobs" yaml:"batchJobs"`
}

func newStatusCmd(a *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current context and an overview of its API server",
		Example: `  kuberos status
  kuberos status --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return a.statusOnce(cmd.Context())
			}
			return a.statusWatch(cmd.Context(), interval)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Continuously refresh")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Refresh interval for --watch")

	return cmd
}

// collectStatus probes the server of the current context. Only an
// unreachable server is an error; a rejected token is reported in the view.
func collectStatus(ctx context.Context, c *client.Client, cur *store.Context) (*statusView, error) {
	v := &statusView{
		Context:     cur.Name,
		Server:      c.BaseURL(),
		User:        cur.User,
		LoggedIn:    c.HasToken(),
		Deployments: map[string]int{},
		BatchJobs:   map[string]int{},
	}

	clusters, err := c.ListClusters(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		v.Reachable = true
		return v, nil
	case err != nil:
		return v, err
	}
	v.Reachable = true
	v.Authorized = true
	v.Clusters = len(clusters)

	fleets, err := c.ListFleets(ctx)
	if err != nil {
		return v, fmt.Errorf("listing fleets: %w", err)
	}
	v.Fleets = len(fleets)

	deployments, err := c.ListDeployments(ctx)
	if err != nil {
		return v, fmt.Errorf("listing deployments: %w", err)
	}
	for _, d := range deployments {
		v.Deployments[d.Status]++
	}

	jobs, err := c.ListBatchJobs(ctx)
	if err != nil {
		return v, fmt.Errorf("listing batch jobs: %w", err)
	}
	for _, j := range jobs {
		v.BatchJobs[j.Status]++
	}
	return v, nil
}

func (a *app) statusOnce(ctx context.Context) error {
	c, cur, err := a.currentClient()
	if err != nil {
		return err
	}
	v, err := collectStatus(ctx, c, cur)
	if err != nil && !v.Reachable {
		if a.format() == FormatTable {
			printStatusHeader(a.stdout, v)
			fmt.Fprintf(a.stdout, "%-16s%s\n", "API Server:", color.RedString("UNREACHABLE"))
		}
		return err
	}
	if err != nil {
		return err
	}
	return a.render(v, func(w io.Writer) { printStatus(w, v) })
}

func (a *app) statusWatch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	fmt.Fprintln(a.stdout, "Watching status (Ctrl+C to stop)...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fmt.Fprint(a.stdout, "\033[2J\033[H")
		if err := a.statusOnce(ctx); err != nil {
			fmt.Fprintf(a.stdout, "\nError: %s\n", Describe(err))
		}
		fmt.Fprintf(a.stdout, "\nLast updated: %s\n", time.Now().Format("15:04:05"))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printStatusHeader(w io.Writer, v *statusView) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "KubeROS Status")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	field(w, "Context", v.Context)
	field(w, "Server", v.Server)
	field(w, "User", orNone(v.User))
}

func printStatus(w io.Writer, v *statusView) {
	printStatusHeader(w, v)
	field(w, "API Server", color.GreenString("reachable"))
	if !v.Authorized {
		session := "no token cached"
		if v.LoggedIn {
			session = "token expired"
		}
		field(w, "Session", color.YellowString("%s, run 'kuberos config login'", session))
		return
	}
	field(w, "Session", color.GreenString("active"))
	fmt.Fprintln(w)
	field(w, "Clusters", v.Clusters)
	field(w, "Fleets", v.Fleets)
	field(w, "Deployments", breakdown(v.Deployments))
	field(w, "Batch Jobs", breakdown(v.BatchJobs))
}

// breakdown renders "3 (2 running, 1 failed)" with statuses sorted by name.
func breakdown(counts map[string]int) string {
	total := 0
	statuses := make([]string, 0, len(counts))
	for s, n := range counts {
		total += n
		statuses = append(statuses, s)
	}
	if total == 0 {
		return "0"
	}
	sort.Strings(statuses)
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], phase(orNone(s))))
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}
