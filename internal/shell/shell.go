// Package shell hosts the application's main loop. The desktop UI layer
// is an external collaborator; the console shell simply keeps the
// application alive until shutdown is requested.
package shell

import (
	"context"

	"github.com/projectdiscovery/gologger"
)

// Shell is the application main loop invoked after the backend is up
type Shell interface {
	Run(ctx context.Context) error
}

// Console is the default shell: it blocks until the context is
// cancelled by a shutdown signal.
type Console struct{}

// NewConsole creates the default console shell
func NewConsole() *Console {
	return &Console{}
}

// Run blocks until ctx is cancelled
func (c *Console) Run(ctx context.Context) error {
	gologger.Info().Msg("Application shell running, press Ctrl+C to exit")
	<-ctx.Done()
	return nil
}
