package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestStart(t *testing.T) {
	tests := []struct {
		name       string
		config     *BackendConfig
		wantSpawn  bool
		wantHandle bool
	}{
		{
			name:       "valid executable",
			config:     &BackendConfig{Executable: "echo", Args: []string{"hello"}},
			wantSpawn:  false,
			wantHandle: true,
		},
		{
			name:       "nonexistent executable",
			config:     &BackendConfig{Executable: "/nonexistent/opstem-backend"},
			wantSpawn:  true,
			wantHandle: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sup, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			handle, err := sup.Start(context.Background())

			var spawnErr *SpawnError
			if got := errors.As(err, &spawnErr); got != tt.wantSpawn {
				t.Fatalf("Start() spawn error = %v, want spawn failure %v", err, tt.wantSpawn)
			}
			if tt.wantSpawn && spawnErr.Executable != tt.config.Executable {
				t.Errorf("SpawnError.Executable = %q, want %q", spawnErr.Executable, tt.config.Executable)
			}

			if (handle != nil) != tt.wantHandle {
				t.Fatalf("Start() handle = %v, want handle %v", handle, tt.wantHandle)
			}
			if handle == nil {
				return
			}

			if handle.PID() <= 0 {
				t.Errorf("PID() = %d, want > 0", handle.PID())
			}
			if handle.SessionID() == "" {
				t.Error("SessionID() is empty")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := handle.Wait(ctx); err != nil {
				t.Errorf("Wait() error = %v", err)
			}
		})
	}
}

func TestStartReturnsWithoutWaiting(t *testing.T) {
	sup, err := New(&BackendConfig{
		Executable:      "sleep",
		Args:            []string{"30"},
		ShutdownTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := time.Now()
	handle, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Errorf("Start() blocked for %s, expected immediate return", elapsed)
	}
	if handle.Exited() {
		t.Error("Exited() = true immediately after start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !handle.Exited() {
		t.Error("Exited() = false after Stop()")
	}
}

func TestStartTwice(t *testing.T) {
	sup, err := New(&BackendConfig{Executable: "echo", Args: []string{"once"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	handle, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = handle.Wait(ctx)
	}()

	if _, err := sup.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}

func TestStopWithoutStart(t *testing.T) {
	sup, err := New(&BackendConfig{Executable: "echo"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sup.Stop(context.Background()); err != nil {
		t.Errorf("Stop() before Start() error = %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *BackendConfig
	}{
		{name: "empty executable", config: &BackendConfig{}},
		{name: "malformed env entry", config: &BackendConfig{Executable: "echo", Env: []string{"NOEQUALS"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestHandleStat(t *testing.T) {
	t.Run("running backend", func(t *testing.T) {
		sup, err := New(&BackendConfig{
			Executable:      "sleep",
			Args:            []string{"30"},
			ShutdownTimeout: 3 * time.Second,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		handle, err := sup.Start(context.Background())
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = sup.Stop(ctx)
		}()

		st, err := handle.Stat(context.Background())
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !st.Running {
			t.Error("Stat().Running = false for live backend")
		}
	})

	t.Run("exit reported despite cached live sample", func(t *testing.T) {
		sup, err := New(&BackendConfig{
			Executable:      "sleep",
			Args:            []string{"30"},
			ShutdownTimeout: 3 * time.Second,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		handle, err := sup.Start(context.Background())
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		// populate the sample cache while the backend is alive
		st, err := handle.Stat(context.Background())
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !st.Running {
			t.Fatal("Stat().Running = false for live backend")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sup.Stop(ctx); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}

		// still inside the sample TTL, yet the exit must win
		st, err = handle.Stat(context.Background())
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if st.Running {
			t.Error("Stat().Running = true after backend exit")
		}
	})

	t.Run("exited backend", func(t *testing.T) {
		sup, err := New(&BackendConfig{Executable: "echo", Args: []string{"done"}})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		handle, err := sup.Start(context.Background())
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := handle.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		st, err := handle.Stat(context.Background())
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if st.Running {
			t.Error("Stat().Running = true for exited backend")
		}
	})
}

func TestTerminateOrphan(t *testing.T) {
	t.Run("live orphan is terminated", func(t *testing.T) {
		cmd := exec.Command("sleep", "30")
		if err := cmd.Start(); err != nil {
			t.Fatalf("failed to start test process: %v", err)
		}
		launchedAt := time.Now()

		if err := TerminateOrphan(context.Background(), int32(cmd.Process.Pid), launchedAt); err != nil {
			t.Fatalf("TerminateOrphan() error = %v", err)
		}

		waitDone := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(waitDone)
		}()
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			t.Fatal("orphan still running after TerminateOrphan()")
		}
	})

	t.Run("recycled pid is left alone", func(t *testing.T) {
		// Our own pid with a launch time far in the past must not match.
		pid := int32(os.Getpid())
		if err := TerminateOrphan(context.Background(), pid, time.Now().Add(-24*time.Hour)); err != nil {
			t.Fatalf("TerminateOrphan() error = %v", err)
		}
	})

	t.Run("missing pid is a no-op", func(t *testing.T) {
		cmd := exec.Command("true")
		if err := cmd.Run(); err != nil {
			t.Fatalf("failed to run test process: %v", err)
		}
		if err := TerminateOrphan(context.Background(), int32(cmd.Process.Pid), time.Now()); err != nil {
			t.Errorf("TerminateOrphan() error = %v for exited pid", err)
		}
	})
}
