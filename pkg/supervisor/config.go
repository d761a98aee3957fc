package supervisor

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultShutdownTimeout is how long Stop waits for the backend to exit
// after the termination signal before killing it.
const DefaultShutdownTimeout = 10 * time.Second

// BackendConfig describes the backend process to launch.
type BackendConfig struct {
	Executable      string
	Args            []string
	Dir             string
	Env             []string // KEY=VALUE pairs layered over the parent environment
	ShutdownTimeout time.Duration
}

// Validate checks the configuration before launch
func (c *BackendConfig) Validate() error {
	if c.Executable == "" {
		return errors.New("backend executable is not configured")
	}
	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("invalid backend env entry %q, expected KEY=VALUE", kv)
		}
	}
	return nil
}

// environ builds the child environment: the full parent environment with
// the configured entries layered on top. The backend inherits everything
// by default, same as its output streams.
func (c *BackendConfig) environ() []string {
	return mergeEnviron(os.Environ(), c.Env)
}

// mergeEnviron overlays extra KEY=VALUE entries on base, replacing
// entries with the same key
func mergeEnviron(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(extra))
	overrides := make(map[string]string, len(extra))
	for _, kv := range extra {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		overrides[key] = kv
	}
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if replacement, ok := overrides[key]; ok {
			merged = append(merged, replacement)
			delete(overrides, key)
			continue
		}
		merged = append(merged, kv)
	}
	// entries that did not replace anything, in configured order
	for _, kv := range extra {
		key, _, _ := strings.Cut(kv, "=")
		if _, pending := overrides[key]; pending {
			merged = append(merged, kv)
			delete(overrides, key)
		}
	}
	return merged
}

func (c *BackendConfig) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout > 0 {
		return c.ShutdownTimeout
	}
	return DefaultShutdownTimeout
}
