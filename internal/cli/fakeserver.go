package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kuberos/kuberos-cli/internal/fakeserver"
)

// newFakeServerCmd runs the in-memory API server used by the tests, for
// trying the CLI without a KubeROS installation.
func newFakeServerCmd(a *app) *cobra.Command {
	var addr, user, password string

	cmd := &cobra.Command{
		Use:    "fake-server",
		Short:  "Run an in-memory KubeROS API server for local testing",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger
			if !a.verbose {
				var err error
				if logger, err = newLogger("info", a.stderr); err != nil {
					return err
				}
			}
			defer func() { _ = logger.Sync() }()

			srv := fakeserver.New(logger)
			srv.AddUser(user, password)

			banner := color.New(color.FgCyan, color.Bold)
			banner.Fprintln(a.stdout, "KubeROS fake API server")
			fmt.Fprintf(a.stdout, "   Address: http://%s\n", addr)
			fmt.Fprintf(a.stdout, "   User:    %s\n", user)
			fmt.Fprintln(a.stdout)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				logger.Info("received shutdown signal")
			case err := <-errCh:
				logger.Error("API server error", zap.Error(err))
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", zap.Error(err))
			}
			logger.Info("fake API server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringVar(&user, "user", "admin", "Username accepted by the login endpoint")
	cmd.Flags().StringVar(&password, "password", "admin", "Password accepted by the login endpoint")

	return cmd
}
