package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// maxCapturedOutput bounds how much stderr is kept in Result.Output.
const maxCapturedOutput = 8 * 1024

// waitDelay bounds how long Run waits for the child's output pipes to close
// after the child was killed. Grandchildren that inherited the pipes (npm
// scripts spawn several) would otherwise keep Run blocked.
const waitDelay = 2 * time.Second

// errEmptyCommand is returned for a Command without a program name.
var errEmptyCommand = errors.New("empty command line")

// ExecRunner runs commands as child processes with os/exec.
//
// Output of the children is streamed to Stdout and Stderr while they run, so
// the user sees compiler and linter diagnostics exactly as the tools print
// them.
type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
}

// NewExecRunner creates an ExecRunner that streams child output to stdout
// and stderr. A nil writer discards that stream; a nil logger disables
// debug logging of invocations.
func NewExecRunner(stdout, stderr io.Writer, logger *log.Logger) *ExecRunner {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &ExecRunner{stdout: stdout, stderr: stderr, logger: logger}
}

// LookPath resolves name on PATH using exec.LookPath.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes cmd and classifies the way it ended.
//
// A program that cannot be resolved yields OutcomeToolMissing; a program that
// exits non-zero yields OutcomeStepFailed with its exit code. Cancellation of
// ctx kills the child together with its process group where the platform
// supports it, and is reported as OutcomeStepFailed with ExitCode -1 and an
// Err that wraps ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, cmd Command) Result {
	res := Result{Step: cmd.Step, ExitCode: -1}
	if len(cmd.Argv) == 0 {
		res.Kind = OutcomeStepFailed
		res.Err = errEmptyCommand
		return res
	}

	r.debug("running command", "step", cmd.Step, "cmd", cmd.String(), "dir", cmd.Dir)

	// #nosec G204 -- argv comes from the project's own configuration
	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	killProcessGroupOnCancel(c)

	tail := newTailBuffer(maxCapturedOutput)
	c.Stdout = r.stdout
	c.Stderr = io.MultiWriter(r.stderr, tail)

	err := c.Run()
	res.Output = strings.TrimSpace(tail.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Kind = OutcomeOK
		res.ExitCode = 0
	case errors.Is(err, exec.ErrNotFound):
		res.Kind = OutcomeToolMissing
		res.Err = err
	case errors.As(err, &exitErr):
		res.Kind = OutcomeStepFailed
		res.ExitCode = exitErr.ExitCode()
		res.Err = err
	default:
		res.Kind = OutcomeStepFailed
		res.Err = err
	}

	if ctxErr := ctx.Err(); ctxErr != nil && res.Kind != OutcomeOK {
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w (%v)", ctxErr, res.Err)
	}

	r.debug("command finished", "step", cmd.Step, "outcome", res.Kind, "exit", res.ExitCode)
	return res
}

func (r *ExecRunner) debug(msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, keyvals...)
	}
}

// tailBuffer is an io.Writer that keeps only the last limit bytes written.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
