// Command sensitivity evaluates a model over the cartesian product of its
// inputs and renders pairwise sensitivity tables and hex-bin figures.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Run completed
	ExitError       = 1 // Evaluation or runtime error
	ExitConfigError = 2 // Invalid configuration or arguments
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr *sensitivity.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitError
}
