// Package pipeline orchestrates one build-and-package run.
//
// The run is strictly linear:
//  1. Make sure the packaging tool is on PATH, provisioning it if missing
//  2. Compile (fatal on failure)
//  3. Lint (warning on failure, the run continues)
//  4. Package (fatal on failure)
//  5. Locate the newest archive and report it
//  6. Install it with the editor CLI when requested, otherwise print
//     manual installation instructions
//
// Every external invocation blocks until the child exits; nothing runs
// concurrently and nothing is retried. Fatal failures are returned as
// *model.CLIError so the CLI layer can pick the exit code. Cancelling the
// context is always fatal, including during the lint and install steps
// whose ordinary failures are only warnings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/extpack/internal/artifact"
	"github.com/mmr-tortoise/extpack/internal/config"
	"github.com/mmr-tortoise/extpack/internal/manifest"
	"github.com/mmr-tortoise/extpack/internal/model"
	"github.com/mmr-tortoise/extpack/internal/runner"
)

// Summary records what a run did. It is returned alongside any error so
// callers and tests can inspect partial progress.
type Summary struct {
	// Provisioned is true when the packaging tool had to be installed.
	Provisioned bool

	// Steps holds the result of every external invocation, in order.
	Steps []runner.Result

	// Artifact is the archive selected after packaging.
	Artifact *artifact.Artifact

	// Manifest is the project's package.json, when it could be read.
	Manifest *manifest.Manifest

	// Installed is true when the editor CLI installed the archive.
	Installed bool

	// Warnings lists non-fatal problems (lint and install failures).
	Warnings []model.Warning
}

func (s *Summary) warn(kind model.ErrorKind, message string) {
	s.Warnings = append(s.Warnings, model.Warning{Kind: kind, Message: message})
}

// Pipeline runs the build-and-package steps in a working directory.
type Pipeline struct {
	// cfg supplies every command line and name; it is never modified.
	cfg *config.Config

	// runner probes for and invokes the external tools.
	runner runner.Runner

	// locator picks the archive produced by the package step.
	locator artifact.Locator

	// dir is the working directory of every step and the directory
	// searched for the archive and package.json.
	dir string

	// logger receives debug detail and manifest warnings on stderr.
	logger *log.Logger

	// printer writes progress lines and install instructions.
	printer *printer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDir sets the working directory for every step and for archive
// discovery. The default is the process's current directory (".").
func WithDir(dir string) Option {
	return func(p *Pipeline) { p.dir = dir }
}

// WithOutput sets where user-facing messages are written. When markdown is
// true, manual instructions are rendered for a terminal.
func WithOutput(w io.Writer, markdown bool) Option {
	return func(p *Pipeline) { p.printer = newPrinter(w, markdown) }
}

// WithLogger sets the logger for debug and warning output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a Pipeline. Output defaults to io.Discard and logging is
// disabled unless WithLogger is given.
func New(cfg *config.Config, r runner.Runner, locator artifact.Locator, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		runner:  r,
		locator: locator,
		dir:     ".",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.printer == nil {
		p.printer = newPrinter(io.Discard, false)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Run executes the pipeline with the given options.
//
// A nil error means a usable archive exists, even if linting or
// installation failed; those appear in Summary.Warnings instead.
func (p *Pipeline) Run(ctx context.Context, opts model.Options) (*Summary, error) {
	sum := &Summary{}

	if err := p.ensurePackager(ctx, sum); err != nil {
		return sum, err
	}

	if err := p.build(ctx, sum); err != nil {
		return sum, err
	}

	a, err := p.locator.Newest(p.dir, p.cfg.ArtifactSuffix)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return sum, model.WrapCLIError(model.KindArtifactMissing, "no package file found after packaging", err)
		}
		return sum, model.WrapCLIError(model.KindInternal, "failed to search for package file", err)
	}
	sum.Artifact = a
	p.reportArtifact(sum)

	installed := false
	if opts.Install {
		// A failed install falls back to the manual instructions below.
		if installed, err = p.install(ctx, sum); err != nil {
			return sum, err
		}
	}
	if !installed {
		p.printer.manualInstructions(p.cfg, a)
	}

	return sum, nil
}

// ensurePackager provisions the packaging tool when it is not on PATH.
func (p *Pipeline) ensurePackager(ctx context.Context, sum *Summary) error {
	bin := p.cfg.Packager.Binary
	if path, err := p.runner.LookPath(bin); err == nil {
		p.logger.Debug("packaging tool found", "binary", bin, "path", path)
		return nil
	}

	p.printer.step(fmt.Sprintf("%s not found, installing with: %s", bin, p.cfg.Packager.Install))
	res := p.run(ctx, sum, model.StepProvision, p.cfg.Packager.Install)
	if err := interrupted(ctx, res); err != nil {
		return err
	}
	if !res.OK() {
		return model.WrapCLIError(model.KindProvisioning, fmt.Sprintf("failed to install %s", bin), res.AsError()).
			WithHint(fmt.Sprintf("Install it manually with: %s", p.cfg.Packager.Install))
	}

	sum.Provisioned = true
	p.printer.success(fmt.Sprintf("%s installed", bin))
	return nil
}

// buildStep is one entry of the compile/lint/package sequence.
type buildStep struct {
	// step identifies the invocation; step.IsFatal decides whether a
	// failure stops the run or becomes a warning.
	step model.Step

	// line is the configured command line. An empty line skips a
	// non-fatal step; fatal steps always run.
	line string

	// progress is printed before the command starts.
	progress string

	// failure is the CLIError message for fatal steps and the warning
	// line for non-fatal ones.
	failure string
}

// buildSteps lists the steps build runs, in order.
func (p *Pipeline) buildSteps() []buildStep {
	return []buildStep{
		{model.StepCompile, p.cfg.Compile, "Compiling...", "compilation failed"},
		{model.StepLint, p.cfg.Lint, "Linting...", "Linting reported problems, continuing anyway"},
		{model.StepPackage, p.cfg.Packager.Command, "Packaging...", "packaging failed"},
	}
}

// build runs compile, lint and package in order. A failed fatal step stops
// the run; a failed non-fatal step becomes a warning.
func (p *Pipeline) build(ctx context.Context, sum *Summary) error {
	for _, s := range p.buildSteps() {
		if !s.step.IsFatal() && strings.TrimSpace(s.line) == "" {
			p.logger.Debug("command not configured, skipping step", "step", s.step)
			continue
		}

		p.printer.step(s.progress)
		res := p.run(ctx, sum, s.step, s.line)
		if err := interrupted(ctx, res); err != nil {
			return err
		}
		if res.OK() {
			continue
		}
		if s.step.IsFatal() {
			return stepFailure(res, s.failure)
		}

		p.logger.Debug("step failed", "result", res.String(), "output", res.Output)
		sum.warn(model.KindForStep(s.step), res.String())
		p.printer.warning(s.failure)
	}
	return nil
}

// install runs the editor CLI on the archive. It reports whether the
// extension ended up installed. A missing or failing editor CLI is a
// warning; only an interrupt returns an error.
func (p *Pipeline) install(ctx context.Context, sum *Summary) (bool, error) {
	ed := p.cfg.Editor

	if _, err := p.runner.LookPath(ed.Binary); err != nil {
		p.logger.Debug("editor CLI not found", "binary", ed.Binary, "err", err)
		sum.warn(model.KindInstall, fmt.Sprintf("%s CLI %q not found", ed.Name, ed.Binary))
		p.printer.failure(fmt.Sprintf("%s CLI '%s' not found", ed.Name, ed.Binary))
		p.printer.detail(fmt.Sprintf("Make sure %s is installed and the '%s' command is on your PATH.", ed.Name, ed.Binary))
		return false, nil
	}

	p.printer.step(fmt.Sprintf("Installing extension into %s...", ed.Name))

	// The archive path is passed as an extra argument so it is never
	// split or expanded.
	line := runner.QuoteArg(ed.Binary) + " " + ed.InstallFlag
	cmd, err := runner.NewCommand(model.StepInstall, p.dir, line, sum.Artifact.Path)
	if err != nil {
		// Load validates install_flag, so this only happens with a
		// hand-built Config.
		sum.warn(model.KindInstall, err.Error())
		p.printer.failure("Failed to install extension")
		return false, nil
	}

	res := p.exec(ctx, sum, cmd)
	if err := interrupted(ctx, res); err != nil {
		return false, err
	}
	if !res.OK() {
		p.logger.Debug("install failed", "result", res.String(), "output", res.Output)
		sum.warn(model.KindInstall, res.String())
		p.printer.failure("Failed to install extension")
		return false, nil
	}

	sum.Installed = true
	p.printer.success("Extension installed successfully")
	p.printer.detail(fmt.Sprintf("Restart %s to activate the extension.", ed.Name))
	return true, nil
}

// reportArtifact prints the selected archive and, when package.json is
// readable, the extension it contains.
func (p *Pipeline) reportArtifact(sum *Summary) {
	a := sum.Artifact
	p.printer.success(fmt.Sprintf("Package created: %s", a.Name))
	p.printer.detail(a.Listing())

	m, err := manifest.Load(p.dir)
	switch {
	case err == nil:
		sum.Manifest = m
	case errors.Is(err, manifest.ErrNotFound):
		p.logger.Debug("no manifest, skipping extension details", "dir", p.dir)
		return
	default:
		p.logger.Warn("could not read manifest", "err", err)
		return
	}

	if m.Name != "" && m.Version != "" {
		p.printer.detail(fmt.Sprintf("Extension: %s v%s (%s)", m.ID(), m.Version, m.Title()))
	}
	if want := m.ExpectedArchiveName(p.cfg.ArtifactSuffix); want != "" && want != a.Name {
		p.logger.Warn("newest archive does not match the manifest version",
			"archive", a.Name, "expected", want)
	}
}

// run parses line and executes it as step.
func (p *Pipeline) run(ctx context.Context, sum *Summary, step model.Step, line string) runner.Result {
	cmd, err := runner.NewCommand(step, p.dir, line)
	if err != nil {
		res := runner.Result{Kind: runner.OutcomeStepFailed, Step: step, ExitCode: -1, Err: err}
		sum.Steps = append(sum.Steps, res)
		return res
	}
	return p.exec(ctx, sum, cmd)
}

func (p *Pipeline) exec(ctx context.Context, sum *Summary, cmd runner.Command) runner.Result {
	res := p.runner.Run(ctx, cmd)
	sum.Steps = append(sum.Steps, res)
	return res
}

// interrupted returns a fatal error when ctx was cancelled while res's step
// was running, whatever the step's own outcome.
func interrupted(ctx context.Context, res runner.Result) error {
	if ctx.Err() == nil {
		return nil
	}
	return model.WrapCLIError(model.KindInterrupted,
		fmt.Sprintf("interrupted during %s", res.Step), ctx.Err())
}

// stepFailure converts a failed fatal step into a CLIError.
func stepFailure(res runner.Result, message string) error {
	err := model.WrapCLIError(model.KindForStep(res.Step), message, res.AsError())
	if res.Kind == runner.OutcomeToolMissing {
		err.WithHint("Check that the command is installed and on your PATH.")
	}
	return err
}
