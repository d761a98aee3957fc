package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"
	"github.com/tangre1/OpSTEM-Scheduler/internal/shell"
	"github.com/tangre1/OpSTEM-Scheduler/pkg/manifest"
	"github.com/tangre1/OpSTEM-Scheduler/pkg/state"
	"github.com/tangre1/OpSTEM-Scheduler/pkg/supervisor"
)

// Built-in fallback mirroring the packaged layout: the python backend
// entry point sits next to the launcher.
const (
	DefaultBackendCmd    = "python3"
	DefaultBackendScript = "main.py"
)

// Runner wires the backend supervisor, the launch state, and the
// application shell together
type Runner struct {
	options *Options
	shell   shell.Shell
	store   *state.Store
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	statePath := options.StateFile
	if statePath == "" {
		var err error
		statePath, err = state.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Runner{
		options: options,
		shell:   shell.NewConsole(),
		store:   state.NewStore(statePath),
	}, nil
}

// Run launches the backend and hands control to the application shell.
// A backend spawn failure is returned before the shell ever runs; the
// caller treats it as fatal. Once the shell returns, the backend is
// terminated so it cannot outlive the application.
func (r *Runner) Run(ctx context.Context) error {
	config, err := r.resolveBackend()
	if err != nil {
		return err
	}

	if r.options.ShowBackend {
		gologger.Silent().Msgf("%s %s", au.Bold("backend:"), strings.Join(append([]string{config.Executable}, config.Args...), " "))
		if config.Dir != "" {
			gologger.Silent().Msgf("%s %s", au.Bold("workdir:"), config.Dir)
		}
		return nil
	}

	if !r.options.KeepStaleBackend {
		r.reconcileStaleBackend(ctx)
	}

	sup, err := supervisor.New(config)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("invalid backend configuration")
	}

	ctx = sup.SetupSignalHandlers(ctx)

	handle, err := sup.Start(ctx)
	if err != nil {
		return fmt.Errorf("could not start the scheduler backend: %w", err)
	}

	if err := r.store.Save(&state.Launch{
		SessionID:  handle.SessionID(),
		PID:        handle.PID(),
		Executable: config.Executable,
		LaunchedAt: handle.StartedAt(),
	}); err != nil {
		gologger.Warning().Msgf("Failed to persist launch state: %v", err)
	}

	// The backend is not monitored while the shell runs: if it dies the
	// exit is logged and the shell keeps going.
	shellErr := r.shell.Run(ctx)

	// Use a background context with timeout for shutdown to avoid
	// context canceled error
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := sup.Stop(stopCtx); err != nil {
		gologger.Warning().Msgf("Failed to stop backend: %v", err)
	}
	if err := r.store.Clear(); err != nil {
		gologger.Warning().Msgf("Failed to clear launch state: %v", err)
	}

	return shellErr
}

// resolveBackend builds the backend configuration: manifest first, then
// flag overrides, then the built-in default
func (r *Runner) resolveBackend() (*supervisor.BackendConfig, error) {
	config := &supervisor.BackendConfig{
		ShutdownTimeout: time.Duration(r.options.ShutdownTimeout) * time.Second,
	}

	manifestPath := r.options.Manifest
	if manifestPath == "" && fileutil.FileExists(manifest.DefaultFileName) {
		manifestPath = manifest.DefaultFileName
	}
	if manifestPath != "" {
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return nil, err
		}
		config.Executable = m.Command
		config.Args = m.Args
		config.Dir = m.Dir
		config.Env = m.Env
		gologger.Verbose().Msgf("using backend from manifest %s", manifestPath)
	}

	if r.options.BackendCmd != "" {
		config.Executable = r.options.BackendCmd
	}
	if len(r.options.BackendArgs) > 0 {
		config.Args = []string(r.options.BackendArgs)
	}
	if r.options.BackendDir != "" {
		config.Dir = r.options.BackendDir
	}
	if len(r.options.BackendEnv) > 0 {
		config.Env = append(config.Env, r.options.BackendEnv...)
	}

	if config.Executable == "" {
		config.Executable = DefaultBackendCmd
		config.Args = []string{DefaultBackendScript}
	}

	return config, nil
}

// reconcileStaleBackend terminates a backend recorded by a previous run
// that is still alive, honoring "the backend must not outlive the
// application" even across launcher crashes
func (r *Runner) reconcileStaleBackend(ctx context.Context) {
	last, err := r.store.Load()
	if err != nil {
		gologger.Warning().Msgf("Failed to load launch state: %v", err)
		return
	}
	if last == nil || last.PID == 0 {
		return
	}

	if err := supervisor.TerminateOrphan(ctx, int32(last.PID), last.LaunchedAt); err != nil {
		gologger.Warning().Msgf("Failed to clean up stale backend: %v", err)
		return
	}
	if err := r.store.Clear(); err != nil {
		gologger.Warning().Msgf("Failed to clear launch state: %v", err)
	}
}

// Close the runner instance
func (r *Runner) Close() {}
