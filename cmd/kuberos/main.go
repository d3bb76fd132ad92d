package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuberos/kuberos-cli/internal/cli"
	"github.com/kuberos/kuberos-cli/internal/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if prompt.IsAborted(err) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.Describe(err))
		stop()
		os.Exit(1)
	}
}
