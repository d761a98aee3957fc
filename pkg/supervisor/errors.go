package supervisor

import "fmt"

// SpawnError reports that the operating system could not create the
// backend process. Every spawn failure (missing executable, permission
// denied, resource exhaustion) surfaces as this one kind; the caller
// decides whether it is fatal.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start backend %q: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
