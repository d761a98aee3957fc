package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/projectdiscovery/gologger"
)

// Supervisor owns the lifecycle of the backend child process: it starts
// the process once with the parent's output streams attached and
// terminates it on shutdown. It does not restart the backend if it dies.
type Supervisor struct {
	config *BackendConfig

	mu     sync.Mutex
	handle *Handle
}

// New creates a supervisor for the given backend configuration
func New(config *BackendConfig) (*Supervisor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Supervisor{config: config}, nil
}

// Start spawns the backend process and returns without waiting for it to
// exit. The child's stdout and stderr are the parent's own streams, so
// backend diagnostics land on the launcher console; stdin is not
// redirected. A failure to create the process is returned as *SpawnError.
func (s *Supervisor) Start(ctx context.Context) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return nil, fmt.Errorf("backend already started (pid %d)", s.handle.PID())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(s.config.Executable, s.config.Args...)
	cmd.Dir = s.config.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = s.config.environ()
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Executable: s.config.Executable, Err: err}
	}

	handle := newHandle(cmd)
	s.handle = handle

	gologger.Info().Msgf("Started backend %s (pid %d, session %s)",
		s.config.Executable, handle.PID(), handle.SessionID())
	return handle, nil
}

// Handle returns the handle of the running backend, nil before Start.
func (s *Supervisor) Handle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Stop terminates the backend: it signals the process (the whole process
// group on unix), waits up to the shutdown timeout for it to exit, then
// kills it. Stop is a no-op if the backend was never started or has
// already exited.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil || handle.Exited() {
		return nil
	}

	gologger.Info().Msgf("Stopping backend (pid %d)", handle.PID())
	if err := terminateProcess(handle.cmd.Process); err != nil {
		gologger.Warning().Msgf("Failed to signal backend: %v", err)
	}

	timeout := s.config.shutdownTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-handle.Done():
		return nil
	case <-ctx.Done():
	case <-timer.C:
		gologger.Warning().Msgf("Backend did not exit within %s, killing", timeout)
	}

	if err := killProcess(handle.cmd.Process); err != nil && !handle.Exited() {
		return fmt.Errorf("failed to kill backend: %w", err)
	}

	select {
	case <-handle.Done():
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("backend (pid %d) still running after kill", handle.PID())
	}
}

// SetupSignalHandlers installs handlers for graceful shutdown and, on
// unix, a SIGUSR1-triggered backend status dump. The returned context is
// cancelled when a shutdown signal arrives.
func (s *Supervisor) SetupSignalHandlers(ctx context.Context) context.Context {
	sigChan := make(chan os.Signal, 1)
	signals := []os.Signal{os.Interrupt, syscall.SIGTERM}
	signals = appendUnixSignals(signals)
	signal.Notify(sigChan, signals...)

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		for sig := range sigChan {
			if handleUnixSignal(s, ctx, sig) {
				continue
			}

			switch sig {
			case os.Interrupt, syscall.SIGTERM:
				gologger.Info().Msg("Shutdown signal received")
				cancel()
				return
			}
		}
	}()

	return ctx
}

// logStatus logs a snapshot of the backend process state
func (s *Supervisor) logStatus(ctx context.Context) {
	handle := s.Handle()
	if handle == nil {
		gologger.Info().Msg("Backend not started")
		return
	}

	st, err := handle.Stat(ctx)
	if err != nil {
		gologger.Warning().Msgf("Failed to stat backend: %v", err)
		return
	}
	gologger.Info().Msgf("Backend pid %d session %s: running=%t status=%s rss=%d cpu=%.1f%%",
		handle.PID(), handle.SessionID(), st.Running, st.Status, st.RSSBytes, st.CPUPercent)
}
