package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/shirou/gopsutil/v3/process"
)

// pidReuseWindow is the maximum allowed gap between the recorded launch
// time and the live process creation time before the PID is considered
// recycled by an unrelated process.
const pidReuseWindow = 5 * time.Second

// TerminateOrphan kills a backend process left behind by a previous
// launcher run. The recorded launch time guards against PID reuse: if
// the live process was created at a different time, it is left alone.
func TerminateOrphan(ctx context.Context, pid int32, launchedAt time.Time) error {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		// pid no longer exists, nothing to clean up
		return nil
	}

	createdMS, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read creation time of pid %d: %w", pid, err)
	}
	created := time.UnixMilli(createdMS)
	if gap := created.Sub(launchedAt); gap < -pidReuseWindow || gap > pidReuseWindow {
		gologger.Verbose().Msgf("pid %d was recycled by another process, leaving it alone", pid)
		return nil
	}

	gologger.Warning().Msgf("Terminating stale backend from previous run (pid %d)", pid)
	if err := proc.TerminateWithContext(ctx); err != nil {
		if err := proc.KillWithContext(ctx); err != nil {
			return fmt.Errorf("failed to kill stale backend (pid %d): %w", pid, err)
		}
	}
	return nil
}
