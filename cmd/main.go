package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/soundwave/internal/player"
	"github.com/desertthunder/soundwave/internal/shared"
)

// exitTempFail is sysexits EX_TEMPFAIL: the same command may succeed if run again.
const exitTempFail = 75

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runner.command().Run(ctx, os.Args)
	stop()

	if err != nil {
		logger.Debug("command failed", "error", err)
		logger.Error(shared.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case player.IsRetryable(err):
		return exitTempFail
	default:
		return 1
	}
}
