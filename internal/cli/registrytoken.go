package cli

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// DefaultNamespace is the namespace registry tokens are attached to when
// none is given.
const DefaultNamespace = "ros-default"

func newRegistryTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registry-token",
		Aliases: []string{"registry_token", "rt"},
		Short:   "Manage container registry access tokens",
	}

	cmd.AddCommand(
		newRegistryTokenListCmd(a),
		newRegistryTokenCreateCmd(a),
		newRegistryTokenDeleteCmd(a),
		newRegistryTokenAttachCmd(a),
	)
	return cmd
}

func newRegistryTokenListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registry tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			tokens, err := c.ListRegistryTokens(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing registry tokens: %w", err)
			}
			return a.render(tokens, func(w io.Writer) {
				t := newTable("NAME", "UUID", "USER NAME", "REGISTRY")
				for _, tok := range tokens {
					t.addRow(tok.Name, tok.UUID, tok.UserName, tok.RegistryURL)
				}
				t.render(w)
			})
		},
	}
}

func newRegistryTokenCreateCmd(a *app) *cobra.Command {
	var tok v1.RegistryToken

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a container registry credential",
		Long: `Store a container registry credential on the API server.

The password is prompted for unless given with --password.`,
		Example: `  kuberos registry-token create --name lab-registry --registry registry.example.com --username robot`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tok.Password == "" {
				p, err := a.prompter.Password("Registry password")
				if err != nil {
					return err
				}
				tok.Password = p
			} else {
				a.warn("Warning: passing --password on the command line is insecure")
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.CreateRegistryToken(cmd.Context(), &tok)
			if err != nil {
				return fmt.Errorf("creating registry token %s: %w", tok.Name, err)
			}
			a.done(msg, "Registry token %q created", tok.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&tok.Name, "name", "", "Token name (required)")
	cmd.Flags().StringVar(&tok.RegistryURL, "registry", "", "Registry URL (required)")
	cmd.Flags().StringVar(&tok.UserName, "username", "", "Registry user name (required)")
	cmd.Flags().StringVar(&tok.Description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&tok.Password, "password", "", "Registry password or access token (prompted if omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newRegistryTokenDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete UUID",
		Short: "Delete a registry token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid token UUID %q: %w", args[0], err)
			}
			if ok, err := a.confirm(fmt.Sprintf("Delete registry token %s", id), force); !ok {
				return err
			}

			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.DeleteRegistryToken(cmd.Context(), id.String())
			if err != nil {
				return fmt.Errorf("deleting registry token %s: %w", id, err)
			}
			a.done(msg, "Registry token %s deleted", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")

	return cmd
}

func newRegistryTokenAttachCmd(a *app) *cobra.Command {
	var att v1.RegistryTokenAttachment

	cmd := &cobra.Command{
		Use:     "attach",
		Short:   "Make a registry token available to a cluster namespace",
		Example: `  kuberos registry-token attach --cluster lab-cluster --token lab-registry`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.currentClient()
			if err != nil {
				return err
			}
			msg, err := c.AttachRegistryToken(cmd.Context(), att)
			if err != nil {
				return fmt.Errorf("attaching registry token %s: %w", att.TokenName, err)
			}
			a.done(msg, "Registry token %q attached to %s/%s", att.TokenName, att.ClusterName, att.Namespace)
			return nil
		},
	}

	cmd.Flags().StringVar(&att.ClusterName, "cluster", "", "Cluster name (required)")
	cmd.Flags().StringVar(&att.TokenName, "token", "", "Registry token name (required)")
	cmd.Flags().StringVar(&att.Namespace, "namespace", DefaultNamespace, "Namespace in the cluster")
	_ = cmd.MarkFlagRequired("cluster")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
