package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kuberos/kuberos-cli/internal/auth"
	"github.com/kuberos/kuberos-cli/internal/config"
	"github.com/kuberos/kuberos-cli/internal/prompt"
	"github.com/kuberos/kuberos-cli/internal/store"
	"github.com/kuberos/kuberos-cli/pkg/client"
)

// Options wires the CLI to its environment. Zero values fall back to the
// process's stdio, the real environment and a promptui terminal.
type Options struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Prompter prompt.Prompter
	Env      envconfig.Lookuper
}

// app holds what every command needs. It is filled in by the root
// command's PersistentPreRunE once flags are parsed.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	prompter prompt.Prompter
	env      envconfig.Lookuper

	configPath string
	output     string
	verbose    bool
	noColor    bool

	settings *config.Settings
	store    *store.Store
	logger   *zap.Logger
}

// NewRootCmd creates the top-level kuberos CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWith(Options{})
}

// NewRootCmdWith creates the root command with explicit dependencies.
func NewRootCmdWith(opts Options) *cobra.Command {
	a := &app{
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		prompter: opts.Prompter,
		env:      opts.Env,
		logger:   zap.NewNop(),
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.prompter == nil {
		a.prompter = prompt.NewTerminal()
	}
	if a.env == nil {
		a.env = envconfig.OsLookuper()
	}

	cmd := &cobra.Command{
		Use:   "kuberos",
		Short: "Command-line client for the KubeROS platform",
		Long: `kuberos manages robot fleets, clusters and ROS 2 deployments on a
KubeROS API server.

Connection profiles (contexts) live in ~/.kuberos/config, or in the file
named by KUBEROS_CONFIG. Start with:

  kuberos config init
  kuberos config create --name dev --server https://kuberos.example.com --user alice
  kuberos config login`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $KUBEROS_CONFIG or ~/.kuberos/config)")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "Output format: table|json|yaml (default $KUBEROS_OUTPUT or table)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newConfigCmd(a),
		newDeployCmd(a),
		newDeleteCmd(a),
		newClusterCmd(a),
		newFleetCmd(a),
		newDeploymentCmd(a),
		newBatchJobCmd(a),
		newRegistryTokenCmd(a),
		newStatusCmd(a),
		newDashboardCmd(a),
		newCompletionCmd(),
		newFakeServerCmd(a),
	)

	return cmd
}

// setup resolves settings, the config store and the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	settings, path, err := a.loadSettings(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("output") {
		a.output = settings.Output
	}
	if _, err := parseFormat(a.output); err != nil {
		return err
	}
	a.settings = settings
	a.store = store.New(path)

	level := settings.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := newLogger(level, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.noColor {
		color.NoColor = true
	}
	a.logger.Debug("settings resolved",
		zap.String("config", path),
		zap.String("output", a.output),
		zap.Duration("authTimeout", settings.AuthTimeout))
	return nil
}

// loadSettings reads the environment, applies --config and resolves the
// config file path.
func (a *app) loadSettings(cmd *cobra.Command) (*config.Settings, string, error) {
	settings, err := config.LoadWith(cmd.Context(), a.env)
	if err != nil {
		return nil, "", err
	}
	if a.configPath != "" {
		settings.ConfigPath = a.configPath
	}
	path, err := settings.ResolvePath()
	if err != nil {
		return nil, "", err
	}
	return settings, path, nil
}

// newLogger builds a console logger writing to w.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// clientOptions returns the options every API client is built with.
func (a *app) clientOptions() []client.Option {
	return []client.Option{
		client.WithLogger(a.logger),
		client.WithTimeout(a.settings.RequestTimeout),
		client.WithAuthTimeout(a.settings.AuthTimeout),
	}
}

// currentClient returns an API client for the current context.
func (a *app) currentClient() (*client.Client, *store.Context, error) {
	f, err := a.store.Load()
	if err != nil {
		return nil, nil, err
	}
	cur, err := f.Current()
	if err != nil {
		return nil, nil, err
	}
	opts := append(a.clientOptions(), client.WithToken(cur.Token))
	return client.New(cur.Server, opts...), cur, nil
}

// session returns the login/logout handshake bound to the config store.
func (a *app) session() *auth.Session {
	return auth.NewSession(a.store, auth.DefaultClientFunc(a.clientOptions()...), a.logger)
}
