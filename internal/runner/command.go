package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mmr-tortoise/extpack/internal/model"
)

// ParseCommandLine splits a configured command line into argv using POSIX
// shell word rules: quotes group words and $VAR references are expanded
// from the environment. No shell process is involved.
func ParseCommandLine(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, errEmptyCommand
	}

	fields, err := shell.Fields(line, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", line, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("invalid command line %q: %w", line, errEmptyCommand)
	}
	return fields, nil
}

// NewCommand parses line and builds a Command for step running in dir.
// Extra arguments are appended after the parsed words verbatim, so file
// paths never go through word splitting or $VAR expansion.
func NewCommand(step model.Step, dir, line string, extra ...string) (Command, error) {
	argv, err := ParseCommandLine(line)
	if err != nil {
		return Command{}, err
	}
	argv = append(argv, extra...)
	return Command{Step: step, Argv: argv, Dir: dir}, nil
}

// QuoteArg returns s quoted so that ParseCommandLine, or an interactive
// shell, reads it back as a single word. Words without special characters
// are returned unchanged.
func QuoteArg(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Only strings containing NUL bytes cannot be shell-quoted.
		return strconv.Quote(s)
	}
	return quoted
}
