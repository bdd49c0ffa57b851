package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmr-tortoise/extpack/internal/artifact"
	"github.com/mmr-tortoise/extpack/internal/config"
	"github.com/mmr-tortoise/extpack/internal/runner"
)

// markdownWidth is the wrap width for rendered instructions.
const markdownWidth = 80

// printer writes the user-facing progress lines.
//
// Styles come from a lipgloss renderer bound to the output writer, so colors
// are dropped automatically when the writer is not a terminal.
type printer struct {
	// out is the user-facing stream, normally stdout.
	out io.Writer

	// markdown enables glamour rendering of the manual instructions.
	// It is only set when out is a terminal.
	markdown bool

	// stepStyle marks a step that is about to run ("→").
	stepStyle lipgloss.Style

	// successStyle marks a completed step ("✓").
	successStyle lipgloss.Style

	// warningStyle marks a non-fatal problem such as lint failures ("⚠").
	warningStyle lipgloss.Style

	// failureStyle marks a failed install ("✗"). Fatal errors are
	// printed by the CLI layer instead.
	failureStyle lipgloss.Style

	// detailStyle dims indented follow-up lines.
	detailStyle lipgloss.Style
}

func newPrinter(out io.Writer, markdown bool) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:      out,
		markdown: markdown,

		stepStyle:    r.NewStyle().Foreground(lipgloss.Color("39")),
		successStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warningStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		failureStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		detailStyle:  r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (p *printer) step(msg string) {
	fmt.Fprintln(p.out, p.stepStyle.Render("→ "+msg))
}

func (p *printer) success(msg string) {
	fmt.Fprintln(p.out, p.successStyle.Render("✓ "+msg))
}

func (p *printer) warning(msg string) {
	fmt.Fprintln(p.out, p.warningStyle.Render("⚠ "+msg))
}

func (p *printer) failure(msg string) {
	fmt.Fprintln(p.out, p.failureStyle.Render("✗ "+msg))
}

func (p *printer) detail(msg string) {
	fmt.Fprintln(p.out, p.detailStyle.Render("  "+msg))
}

// manualInstructions prints how to install the archive by hand, both from
// the editor UI and from the command line.
func (p *printer) manualInstructions(cfg *config.Config, a *artifact.Artifact) {
	md := manualInstructionsMarkdown(cfg, a)

	if p.markdown {
		rendered, err := renderMarkdown(md)
		if err == nil {
			fmt.Fprint(p.out, rendered)
			return
		}
	}

	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, md)
}

// manualInstructionsMarkdown builds the instructions as Markdown. The
// "Install from ..." menu entry is named after the archive suffix, which
// is how the editor labels it (".vsix" becomes "Install from VSIX...").
func manualInstructionsMarkdown(cfg *config.Config, a *artifact.Artifact) string {
	kind := strings.ToUpper(strings.TrimPrefix(cfg.ArtifactSuffix, "."))

	var sb strings.Builder
	sb.WriteString("## Install manually\n\n")
	fmt.Fprintf(&sb, "1. Open %s\n", cfg.Editor.Name)
	sb.WriteString("2. Open the Extensions view\n")
	fmt.Fprintf(&sb, "3. Choose **Install from %s...** from the `...` menu\n", kind)
	fmt.Fprintf(&sb, "4. Select `%s`\n", a.Name)
	sb.WriteString("\nOr from the command line:\n\n")
	fmt.Fprintf(&sb, "    %s %s %s\n",
		runner.QuoteArg(cfg.Editor.Binary), cfg.Editor.InstallFlag, runner.QuoteArg(a.Name))
	return sb.String()
}

func renderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
