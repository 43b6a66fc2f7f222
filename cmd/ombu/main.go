// Command ombu runs the anonymous group forum from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/ombu/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}

	// forum rejections were already rendered on stdout
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitFailure {
		fmt.Fprintln(os.Stderr, "ombu:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
