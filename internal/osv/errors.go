package osv

import (
	"errors"
	"fmt"
)

// Error taxonomy for a simulation run.
var (
	// ErrSetup indicates a malformed or incomplete run request.
	ErrSetup = errors.New("osv: invalid run request")

	// ErrBuild indicates the external build tool rejected the program.
	ErrBuild = errors.New("osv: build failed")

	// ErrSandbox indicates the child process could not be started or wired.
	ErrSandbox = errors.New("osv: sandbox failure")

	// ErrProtocol marks a recoverable anomaly in the child's byte stream.
	ErrProtocol = errors.New("osv: protocol anomaly")
)

// BuildError carries the captured output of a failed build.
type BuildError struct {
	ProgramID string
	Output    string
	Wrapped   error
}

func (e *BuildError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("build %s: %v\n%s", e.ProgramID, e.Wrapped, e.Output)
	}
	return fmt.Sprintf("build %s failed\n%s", e.ProgramID, e.Output)
}

func (e *BuildError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrBuild}
	}
	return []error{ErrBuild, e.Wrapped}
}

// RunError wraps a fatal error with the frame it happened on.
type RunError struct {
	Frame   int
	Op      string
	Wrapped error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("frame %d: %s: %v", e.Frame, e.Op, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
