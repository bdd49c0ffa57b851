// Package runner invokes the external tools the pipeline depends on.
//
// Every invocation returns a typed Result instead of a bare exit status, so
// callers branch on OutcomeOK, OutcomeToolMissing or OutcomeStepFailed
// rather than inspecting process state themselves.
//
// Design decisions:
//   - Commands are resolved through PATH only. No absolute locations are
//     configured for any collaborator.
//   - Child stdout and stderr are streamed to the user as they are produced;
//     stderr is additionally captured (last few KiB) into Result.Output so
//     failures can be logged with context.
//   - There is no timeout on any invocation. A hung child blocks until the
//     context passed to Run is cancelled.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/extpack/internal/model"
)

// OutcomeKind classifies how an external invocation ended.
type OutcomeKind int

const (
	// OutcomeOK means the process exited with status 0.
	OutcomeOK OutcomeKind = iota

	// OutcomeToolMissing means the executable could not be resolved on PATH.
	OutcomeToolMissing

	// OutcomeStepFailed means the process ran and exited non-zero, or could
	// not be started for a reason other than a missing executable.
	OutcomeStepFailed
)

// String returns a short name for the outcome, used in log fields.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeToolMissing:
		return "tool-missing"
	case OutcomeStepFailed:
		return "step-failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Command describes one external-process invocation.
type Command struct {
	// Step names the pipeline step this invocation belongs to.
	Step model.Step

	// Argv is the program followed by its arguments. Argv[0] is resolved
	// through PATH.
	Argv []string

	// Dir is the working directory of the child. Empty means the current
	// process's working directory.
	Dir string
}

// String renders the command line for messages and logs.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Result is the typed outcome of a Command.
type Result struct {
	// Kind classifies the outcome.
	Kind OutcomeKind

	// Step is copied from the Command that produced this result.
	Step model.Step

	// ExitCode is the child's exit status, or -1 when it never ran or was
	// killed by a signal.
	ExitCode int

	// Output holds the tail of the child's stderr.
	Output string

	// Err is the underlying error for non-OK outcomes.
	Err error
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Kind == OutcomeOK
}

// String describes the result. Failed results name the step and how it
// failed.
func (r Result) String() string {
	switch r.Kind {
	case OutcomeOK:
		return fmt.Sprintf("%s: ok", r.Step)
	case OutcomeToolMissing:
		return fmt.Sprintf("%s: executable not found: %v", r.Step, r.Err)
	default:
		if r.ExitCode >= 0 {
			return fmt.Sprintf("%s: exit status %d", r.Step, r.ExitCode)
		}
		return fmt.Sprintf("%s: %v", r.Step, r.Err)
	}
}

// AsError returns nil for OK results and a *StepError otherwise.
func (r Result) AsError() error {
	if r.OK() {
		return nil
	}
	return &StepError{Result: r}
}

// StepError is the error form of a failed Result.
type StepError struct {
	Result Result
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return e.Result.String()
}

// Unwrap exposes the underlying process error, e.g. exec.ErrNotFound.
func (e *StepError) Unwrap() error {
	return e.Result.Err
}

// Runner probes for and invokes external tools.
//
// ExecRunner is the production implementation; tests substitute the fake
// in package runnertest.
type Runner interface {
	// LookPath resolves name on PATH. A nil error means the tool is
	// invocable.
	LookPath(name string) (string, error)

	// Run executes cmd, blocking until it exits or ctx is cancelled.
	Run(ctx context.Context, cmd Command) Result
}
