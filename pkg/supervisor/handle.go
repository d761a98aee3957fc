package supervisor

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/v3/process"
)

// statSampleTTL bounds how often Stat re-reads the OS process tables;
// within the window a cached sample is returned.
const statSampleTTL = 2 * time.Second

// Handle represents the running backend process. It observes the child's
// exit but never acts on it: the backend is started once and not
// restarted.
type Handle struct {
	cmd       *exec.Cmd
	sessionID string
	startedAt time.Time
	done      chan struct{}

	mu      sync.Mutex
	exited  bool
	exitErr error

	stats gcache.Cache[int32, *Stat]
}

// Stat is a point-in-time snapshot of the backend process.
type Stat struct {
	Running    bool
	Status     string
	RSSBytes   uint64
	CPUPercent float64
}

func newHandle(cmd *exec.Cmd) *Handle {
	h := &Handle{
		cmd:       cmd,
		sessionID: xid.New().String(),
		startedAt: time.Now(),
		done:      make(chan struct{}),
		stats: gcache.New[int32, *Stat](8).
			LRU().
			Expiration(statSampleTTL).
			Build(),
	}

	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.exited = true
		h.exitErr = err
		h.mu.Unlock()
		close(h.done)

		if err != nil {
			gologger.Warning().Msgf("Backend exited: %v", err)
		} else {
			gologger.Verbose().Msgf("Backend exited cleanly (pid %d)", cmd.Process.Pid)
		}
	}()

	return h
}

// PID returns the OS-assigned process identifier of the backend.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// SessionID returns the launch session identifier, used to correlate
// log lines and the on-disk launch state.
func (h *Handle) SessionID() string {
	return h.sessionID
}

// StartedAt returns when the backend was spawned.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// Done returns a channel closed once the backend has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the backend has already exited.
func (h *Handle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

// ExitErr returns the error recorded when the backend exited, nil for a
// clean exit or while the backend is still running.
func (h *Handle) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// Wait blocks until the backend exits or the context is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.ExitErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stat returns a snapshot of the backend process state. Samples are
// cached for a short interval so repeated status queries (signal-driven
// dumps, periodic logging) do not hammer the proc tables; exit is known
// locally and reported immediately, never from a stale sample.
func (h *Handle) Stat(ctx context.Context) (*Stat, error) {
	if h.Exited() {
		return &Stat{Running: false, Status: "exited"}, nil
	}

	pid := int32(h.PID())
	if cached, err := h.stats.Get(pid); err == nil {
		return cached, nil
	}

	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect backend process %d: %w", pid, err)
	}

	st := &Stat{Running: true}
	if statuses, err := proc.StatusWithContext(ctx); err == nil && len(statuses) > 0 {
		st.Status = statuses[0]
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	}

	_ = h.stats.Set(pid, st)
	return st, nil
}
