package model

import (
	"fmt"
)

// Options holds the switches recognized on the command line.
//
// It is populated exactly once by the argument parser and passed by value
// into the pipeline, so no package-level flag state exists.
type Options struct {
	// Install requests that the produced archive be installed with the
	// editor CLI after packaging succeeds.
	Install bool

	// ShowHelp requests usage output. When set, nothing else runs.
	ShowHelp bool
}

// Step identifies one external-process invocation made by the pipeline.
type Step string

const (
	// StepProvision installs the packaging tool with the package manager.
	StepProvision Step = "provision"

	// StepCompile runs the project's compile command.
	StepCompile Step = "compile"

	// StepLint runs the project's static-check command.
	StepLint Step = "lint"

	// StepPackage runs the packaging tool to produce the archive.
	StepPackage Step = "package"

	// StepInstall runs the editor CLI's install-extension subcommand.
	StepInstall Step = "install"
)

// String returns the string representation of Step.
func (s Step) String() string {
	return string(s)
}

// IsFatal reports whether a failure of this step aborts the run.
//
// Lint failures are advisory and install failures degrade to manual
// instructions; every other step leaves no usable archive when it fails.
func (s Step) IsFatal() bool {
	switch s {
	case StepLint, StepInstall:
		return false
	default:
		return true
	}
}

// ErrorKind classifies a failure reported to the user.
type ErrorKind string

const (
	// KindConfiguration is an unknown command-line option.
	KindConfiguration ErrorKind = "configuration"

	// KindSettings is an unreadable or invalid configuration file or
	// environment override.
	KindSettings ErrorKind = "settings"

	// KindProvisioning means the packaging tool was missing and could not
	// be installed.
	KindProvisioning ErrorKind = "provisioning"

	// KindBuild means the compile step failed.
	KindBuild ErrorKind = "build"

	// KindQuality means the lint step failed. It is only ever a warning.
	KindQuality ErrorKind = "quality"

	// KindPackaging means the packaging step failed.
	KindPackaging ErrorKind = "packaging"

	// KindArtifactMissing means packaging reported success but no archive
	// could be found afterwards.
	KindArtifactMissing ErrorKind = "artifact-missing"

	// KindInstall means the editor CLI was missing or the install command
	// failed. It is only ever a warning.
	KindInstall ErrorKind = "install"

	// KindInterrupted means the run was cancelled by SIGINT or SIGTERM
	// while a step was running. It is fatal even during lint or install.
	KindInterrupted ErrorKind = "interrupted"

	// KindInternal covers everything that does not fit the kinds above,
	// such as an unreadable working directory.
	KindInternal ErrorKind = "internal"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// KindForStep maps a failed pipeline step onto the error taxonomy.
func KindForStep(s Step) ErrorKind {
	switch s {
	case StepProvision:
		return KindProvisioning
	case StepCompile:
		return KindBuild
	case StepLint:
		return KindQuality
	case StepPackage:
		return KindPackaging
	case StepInstall:
		return KindInstall
	default:
		return KindInternal
	}
}

// Warning is a non-fatal problem reported during a run.
type Warning struct {
	Kind    ErrorKind
	Message string
}

// String formats the warning for logs.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// ExitCode defines the CLI exit codes.
//
// The process only ever exits with 0 or 1; lint and install failures do
// not change the exit code because a usable archive still exists.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully,
	// including when usage text was requested.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates any fatal failure.
	ExitGeneralError ExitCode = 1
)

// CLIError is a custom error type that carries an exit code and a kind.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes and output streams.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Hint is an optional next step for the user, printed on its own line.
	Hint string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// WithHint returns the error with a user-facing hint attached.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// WrapCLIError creates a new fatal CLIError that wraps an existing error.
// err may be nil.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Code: ExitGeneralError, Kind: kind, Message: message, Err: err}
}

// UnknownOptionError reports a command-line token that is not a
// recognized switch.
func UnknownOptionError(token string) *CLIError {
	return &CLIError{
		Code:    ExitGeneralError,
		Kind:    KindConfiguration,
		Message: fmt.Sprintf("Unknown option: %s", token),
	}
}
