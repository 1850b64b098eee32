package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	appName           = "listsync"
	appVersion        = "0.1.0"
	defaultConfigPath = "config.toml"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	os.Exit(run(context.Background(), runner.app(), logger, os.Args))
}

// run executes app and returns the process exit status.
//
// A sync setup failure is printed once by the console reporter and is not logged again.
func run(ctx context.Context, app *cli.Command, logger *log.Logger, args []string) int {
	err := app.Run(ctx, args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrSetup):
		return 1
	default:
		logger.Error("application error", "error", err)
		return 1
	}
}
