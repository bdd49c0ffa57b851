// Package cli implements the cobra-based command line for extpack.
//
// The tool has a single root command and no subcommands. Cobra provides the
// command skeleton, generated usage text and context plumbing, while flag
// parsing is done by ParseArgs: cobra's own parser is disabled so that the
// four recognized switches are the only accepted tokens and "--help" wins
// regardless of what else is on the line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/extpack/internal/artifact"
	"github.com/mmr-tortoise/extpack/internal/config"
	"github.com/mmr-tortoise/extpack/internal/model"
	"github.com/mmr-tortoise/extpack/internal/pipeline"
	"github.com/mmr-tortoise/extpack/internal/runner"
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package and shown in the help text.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Dependencies are the process-facing collaborators of the root command.
// Zero values select the production implementations; tests replace them.
type Dependencies struct {
	// Runner invokes external tools. Default: runner.ExecRunner.
	Runner runner.Runner

	// Locator finds the produced archive. Default: artifact.FSLocator.
	Locator artifact.Locator

	// WorkDir is where every step runs and the archive is searched for.
	// Default: the current working directory.
	WorkDir string

	// Config replaces config.Load when set.
	Config *config.Config

	// Stdout receives progress lines, help text, unknown-option errors
	// and the streamed output of child processes. Default: os.Stdout.
	Stdout io.Writer

	// Stderr receives fatal errors, log output and the children's
	// stderr. Default: os.Stderr.
	Stderr io.Writer
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	rootCmd := &cobra.Command{
		// Use is the one-line usage; cobra derives cmd.Name() from its
		// first word, which printError reuses in the --help hint.
		Use: "extpack",

		// Short is shown in the usage header.
		Short: "Compile, lint, package and optionally install an editor extension",

		// Long is the full help text printed for --help/-h. It is built
		// here rather than in a package var so the ldflags-injected
		// version values set by main are already in place.
		Long: fmt.Sprintf(`extpack builds a distributable archive of the editor extension in the
current directory.

It makes sure the packaging tool is installed, compiles the sources, runs the
linter (failures are reported as warnings), packages the extension and prints
the newest archive. With --install the archive is installed through the
editor's command-line interface; otherwise manual installation steps are shown.

Commands and names can be changed in .extpack.yaml or with EXTPACK_*
environment variables.

Examples:
  extpack
  extpack --install

Version: %s (commit: %s, built: %s)`, Version, Commit, Date),

		// ArbitraryArgs hands every token to RunE. Rejecting unknown
		// tokens is ParseArgs' job so the error text stays under our
		// control.
		Args: cobra.ArbitraryArgs,

		// DisableFlagParsing stops pflag from interpreting the tokens.
		// ParseArgs owns the argument list; see the package comment.
		DisableFlagParsing: true,

		// SilenceUsage prevents cobra from printing usage on every error.
		// Only --help prints usage.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors itself. Run
		// prints them, choosing stdout or stderr by error kind.
		SilenceErrors: true,

		// The default "completion" subcommand would turn that token into
		// a command instead of an unknown option.
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},

		// RunE parses the arguments once into model.Options and passes
		// them by value to the pipeline.
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ParseArgs(args)
			if err != nil {
				return err
			}
			if opts.ShowHelp {
				return cmd.Help()
			}
			return runPipeline(cmd.Context(), opts, deps)
		},
	}

	// These flags are never parsed by cobra; they are declared so the
	// generated usage text lists them.
	rootCmd.Flags().BoolP("install", "i", false, "Install the packaged extension with the editor CLI")
	rootCmd.Flags().BoolP("help", "h", false, "Show this help and exit")

	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	return rootCmd
}

// Execute runs the root command with the process arguments and exits.
// This is the main entry point called from main.go.
//
// An interrupt or termination signal cancels the command's context, which
// kills whichever external tool is currently running.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, rootCmd, os.Args[1:])
	stop()
	os.Exit(int(code))
}

// Run executes rootCmd with args, prints any error, and returns the exit
// code. CLIError values carry their own exit codes; other errors map to 1.
func Run(ctx context.Context, rootCmd *cobra.Command, args []string) model.ExitCode {
	// cobra falls back to os.Args when args is nil.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return model.ExitSuccess
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(rootCmd, cliErr)
		return cliErr.Code
	}

	printError(rootCmd, model.WrapCLIError(model.KindInternal, "unexpected error", err))
	return model.ExitGeneralError
}

// printError reports a fatal error. Unknown options go to stdout together
// with a usage hint; everything else goes to stderr.
func printError(cmd *cobra.Command, err *model.CLIError) {
	if err.Kind == model.KindConfiguration {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, err.Message)
		fmt.Fprintf(out, "Run '%s --help' for usage.\n", cmd.Name())
		return
	}

	w := cmd.ErrOrStderr()
	if err.Err != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", err.Message, err.Err)
	} else {
		fmt.Fprintf(w, "Error: %s\n", err.Message)
	}
	if err.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", err.Hint)
	}
}

// runPipeline resolves configuration and collaborators, then runs one build.
func runPipeline(ctx context.Context, opts model.Options, deps Dependencies) error {
	dir := deps.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return model.WrapCLIError(model.KindInternal, "failed to get current directory", err)
		}
		dir = wd
	}

	cfg := deps.Config
	cfgPath := ""
	if cfg == nil {
		loaded, path, err := config.Load(ctx, config.LoadOptions{Dir: dir})
		if err != nil {
			return model.WrapCLIError(model.KindSettings, "invalid configuration", err)
		}
		cfg, cfgPath = loaded, path
	}

	logger := newLogger(deps.Stderr, cfg.Verbose)
	logger.Debug("configuration resolved", "file", cfgPath, "dir", dir, "install", opts.Install)

	r := deps.Runner
	if r == nil {
		r = runner.NewExecRunner(deps.Stdout, deps.Stderr, logger)
	}
	locator := deps.Locator
	if locator == nil {
		locator = artifact.NewFSLocator()
	}

	p := pipeline.New(cfg, r, locator,
		pipeline.WithDir(dir),
		pipeline.WithOutput(deps.Stdout, isTerminal(deps.Stdout)),
		pipeline.WithLogger(logger),
	)

	sum, err := p.Run(ctx, opts)
	for _, w := range sum.Warnings {
		logger.Debug("non-fatal problem", "warning", w.String())
	}
	return err
}

// newLogger creates the stderr logger. Only warnings are shown unless
// verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "extpack",
		Level:  log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// isTerminal reports whether w is a terminal, which enables Markdown
// rendering of the manual instructions.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
