// Package model defines the domain types and value objects for the
// extpack CLI.
//
// This package contains pure data structures with no external dependencies.
// Options carries the parsed command-line switches into the pipeline, and
// nothing here outlives a single invocation: the only durable output of a
// run is the archive file left in the working directory.
//
// The package also defines exit codes (ExitCode), the error taxonomy
// (ErrorKind) and a custom error type (CLIError) that carries both, so the
// CLI layer can choose the output stream and the OS exit status.
package model
