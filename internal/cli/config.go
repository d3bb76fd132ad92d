package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kuberos/kuberos-cli/internal/auth"
	"github.com/kuberos/kuberos-cli/internal/store"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage contexts and log in to KubeROS API servers",
	}

	cmd.AddCommand(
		newConfigInitCmd(a),
		newConfigCreateCmd(a),
		newConfigListCmd(a),
		newConfigCurrentCmd(a),
		newConfigSwitchCmd(a),
		newConfigDeleteCmd(a),
		newConfigLoginCmd(a),
		newConfigLogoutCmd(a),
	)
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an empty config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Init(); err != nil {
				return err
			}
			a.success("Created %s", a.store.Path())
			return nil
		},
	}
}

func newConfigCreateCmd(a *app) *cobra.Command {
	var name, server, user string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a context or update an existing one, and make it current",
		Example: `  kuberos config create --name dev --server https://kuberos.example.com --user alice
  kuberos config create --name dev --user bob`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			server = strings.TrimRight(strings.TrimSpace(server), "/")
			user = strings.TrimSpace(user)

			updated := false
			_, err := a.store.Update(func(f *store.File) error {
				updated = f.Has(name)
				if !updated && server == "" {
					return fmt.Errorf("%w: --server is required for a new context", store.ErrInvalidContext)
				}
				return f.UpsertContext(store.Context{Name: name, Server: server, User: user}, name)
			})
			if err != nil {
				return err
			}

			a.logger.Debug("context saved", zap.String("context", name), zap.Bool("updated", updated))
			if updated {
				a.success("Context %q updated; current context is now %q", name, name)
			} else {
				a.success("Context %q created; current context is now %q", name, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Context name (required)")
	cmd.Flags().StringVar(&server, "server", "", "API server base URL (required for a new context)")
	cmd.Flags().StringVar(&user, "user", "", "Username")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// contextView is a context as shown to the user. The token itself is
// never printed.
type contextView struct {
	Name     string `json:"name" yaml:"name"`
	Server   string `json:"server" yaml:"server"`
	User     string `json:"user" yaml:"user"`
	LoggedIn bool   `json:"loggedIn" yaml:"loggedIn"`
	Current  bool   `json:"current" yaml:"current"`
}

type configView struct {
	CurrentContext string        `json:"currentContext" yaml:"currentContext"`
	Contexts       []contextView `json:"contexts" yaml:"contexts"`
}

func viewOf(f *store.File) configView {
	v := configView{CurrentContext: f.CurrentContext, Contexts: make([]contextView, 0, len(f.Contexts))}
	for i := range f.Contexts {
		c := &f.Contexts[i]
		v.Contexts = append(v.Contexts, contextView{
			Name:     c.Name,
			Server:   c.Server,
			User:     c.User,
			LoggedIn: c.LoggedIn(),
			Current:  c.Name == f.CurrentContext,
		})
	}
	return v
}

func newConfigListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contexts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.store.Load()
			if err != nil {
				return err
			}
			view := viewOf(f)
			return a.render(view, func(w io.Writer) {
				fmt.Fprintf(w, "Current context: %s\n\n", orNone(view.CurrentContext))
				t := newTable("CONTEXT", "SERVER", "USER", "LOGGED IN")
				for _, c := range view.Contexts {
					t.addRow(c.Name, c.Server, c.User, yesNo(c.LoggedIn))
				}
				t.render(w)
			})
		},
	}
}

func newConfigCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.store.Load()
			if err != nil {
				return err
			}
			cur, err := f.Current()
			if err != nil {
				return err
			}
			view := contextView{Name: cur.Name, Server: cur.Server, User: cur.User, LoggedIn: cur.LoggedIn(), Current: true}
			return a.render(view, func(w io.Writer) {
				field(w, "Context", view.Name)
				field(w, "Server", view.Server)
				field(w, "User", orNone(view.User))
				field(w, "Logged in", yesNo(view.LoggedIn))
			})
		},
	}
}

func newConfigSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "switch NAME",
		Aliases:           []string{"use"},
		Short:             "Make another context current",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeContextNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := a.store.Update(func(f *store.File) error {
				return f.SetCurrent(name)
			}); err != nil {
				return err
			}
			a.success("Switched to context %q", name)
			return nil
		},
	}
}

func newConfigDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "delete NAME",
		Aliases:           []string{"rm"},
		Short:             "Remove a context",
		Long:              "Remove a context from the config file. The current context cannot be removed; switch away from it first.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeContextNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := a.store.Update(func(f *store.File) error {
				return f.DeleteContext(name)
			}); err != nil {
				return err
			}
			a.success("Context %q deleted", name)
			return nil
		},
	}
}

func newConfigLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the current context's API server",
		Long: `Log in to the API server of the current context and cache the session
token in the config file.

The username and password are prompted for unless given as flags. Passing
--password on the command line leaves it in your shell history; prefer the
prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password != "" {
				a.warn("Warning: passing --password on the command line is insecure")
			}

			source := auth.Static(auth.Credentials{Username: username, Password: password})
			if username == "" || password == "" {
				source = a.promptCredentials(username, password)
			}

			res, err := a.session().Login(cmd.Context(), source)
			if err != nil {
				return err
			}
			a.success("Login successful: %s@%s (context %q)", res.User, res.Server, res.Context)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")

	return cmd
}

func newConfigLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the current context's API server",
		Long: `End the session on the API server of the current context.

The cached token is left in the config file. A session the server no
longer knows about counts as logged out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session().Logout(cmd.Context())
			if err != nil {
				return err
			}
			if res.Revoked {
				a.success("Logged out from %s (context %q)", res.Server, res.Context)
			} else {
				a.success("Already logged out (context %q)", res.Context)
			}
			return nil
		},
	}
}

// completeContextNames completes context names from the config file. It
// runs without the root command's setup, so it resolves the path itself.
func (a *app) completeContextNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	_, path, err := a.loadSettings(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	f, err := store.New(path).Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, n := range f.ContextNames() {
		if strings.HasPrefix(n, toComplete) {
			names = append(names, n)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// promptCredentials asks for whichever of username and password is empty.
// The username prompt defaults to the user stored on the context.
func (a *app) promptCredentials(username, password string) auth.CredentialSource {
	return func(cur store.Context) (auth.Credentials, error) {
		creds := auth.Credentials{Username: username, Password: password}
		if creds.Username == "" {
			u, err := a.prompter.Input("Username", cur.User)
			if err != nil {
				return auth.Credentials{}, err
			}
			creds.Username = u
		}
		if creds.Password == "" {
			p, err := a.prompter.Password("Password")
			if err != nil {
				return auth.Credentials{}, err
			}
			creds.Password = p
		}
		return creds, nil
	}
}
