package main

import (
	"context"

	"github.com/projectdiscovery/gologger"
	"github.com/tangre1/OpSTEM-Scheduler/internal/runner"
)

func main() {
	options := runner.ParseOptions()

	launcher, err := runner.NewRunner(options)
	if err != nil {
		gologger.Fatal().Msgf("Could not create runner: %s\n", err)
	}
	defer launcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A failed backend spawn is fatal: the application does not start
	// without its backend.
	if err := launcher.Run(ctx); err != nil {
		gologger.Fatal().Msgf("Could not run opstem-scheduler: %s\n", err)
	}
}
