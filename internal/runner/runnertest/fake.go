// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/mmr-tortoise/extpack/internal/model"
	"github.com/mmr-tortoise/extpack/internal/runner"
)

// Fake is a runner.Runner whose tool availability and step outcomes are
// scripted by the test. Steps without a scripted result succeed.
type Fake struct {
	mu sync.Mutex

	// Available lists the program names LookPath resolves.
	Available map[string]bool

	// Results maps a step to the result Run returns for it.
	Results map[model.Step]runner.Result

	// OnRun, when set, is called for every command before its result is
	// returned. Tests use it to simulate side effects such as the packager
	// writing an archive.
	OnRun func(cmd runner.Command)

	calls   []runner.Command
	lookups []string
}

// NewFake returns a Fake that resolves the given program names.
func NewFake(available ...string) *Fake {
	f := &Fake{
		Available: make(map[string]bool),
		Results:   make(map[model.Step]runner.Result),
	}
	for _, name := range available {
		f.Available[name] = true
	}
	return f
}

// Fail scripts step to exit with code and the given stderr output.
func (f *Fake) Fail(step model.Step, code int, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[step] = runner.Result{
		Kind:     runner.OutcomeStepFailed,
		Step:     step,
		ExitCode: code,
		Output:   output,
		Err:      errors.New("exit status"),
	}
	return f
}

// LookPath implements runner.Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, name)
	if f.Available[name] {
		return "/usr/bin/" + name, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Run implements runner.Runner.
func (f *Fake) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	res, scripted := f.Results[cmd.Step]
	hook := f.OnRun
	f.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	if scripted {
		return res
	}
	return runner.Result{Kind: runner.OutcomeOK, Step: cmd.Step}
}

// Calls returns the commands passed to Run, in order.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// Steps returns the step of every command passed to Run, in order.
func (f *Fake) Steps() []model.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	steps := make([]model.Step, 0, len(f.calls))
	for _, c := range f.calls {
		steps = append(steps, c.Step)
	}
	return steps
}

// Lookups returns the names passed to LookPath, in order.
func (f *Fake) Lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookups...)
}
