// Package output provides adapters for writing application output.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Writer writes the operator-facing result of a release cut.
// Reports go to out (stdout by default); failures go to errOut (stderr by default).
// Styling is dropped automatically when the destination is not a terminal.
type Writer struct {
	out    io.Writer
	errOut io.Writer

	heading lipgloss.Style
	label   lipgloss.Style
	command lipgloss.Style
	failure lipgloss.Style
}

// NewWriter creates a new Writer that writes to stdout and stderr.
func NewWriter() *Writer {
	return NewWriterWithOutput(os.Stdout, os.Stderr)
}

// NewWriterWithOutput creates a new Writer with custom output destinations.
// This is useful for testing.
func NewWriterWithOutput(out, errOut io.Writer) *Writer {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)

	return &Writer{
		out:     out,
		errOut:  errOut,
		heading: outRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		label:   outRenderer.NewStyle().Foreground(lipgloss.Color("#888888")),
		command: outRenderer.NewStyle().Bold(true),
		failure: errRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
}

// WriteReport writes the released version, the resulting branch state and the
// follow-up commands the operator runs next.
func (w *Writer) WriteReport(report *domain.CutReport) error {
	if report == nil {
		return errors.New("nil report")
	}

	var b strings.Builder

	b.WriteString(w.heading.Render(fmt.Sprintf("Cut %s version %s", report.Application, report.Version)))
	b.WriteString("\n")

	rows := [][2]string{
		{"previous version", report.PreviousVersion},
		{"release branch", report.ReleaseBranch},
		{"tag", report.Tag},
		{report.StableBranch, report.StableHead},
		{report.DevelopBranch, developState(report)},
		{"run id", report.RunID},
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %s %s\n", w.label.Render(fmt.Sprintf("%-*s", width+1, row[0]+":")), row[1])
	}

	for _, followUp := range report.FollowUp {
		fmt.Fprintf(&b, "\n%s:\n  %s\n", followUp.Description, w.command.Render(followUp.Command))
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

func developState(report *domain.CutReport) string {
	if report.DevelopContainsStable {
		return report.DevelopHead + " (contains " + report.StableBranch + ")"
	}
	return report.DevelopHead + " (missing " + report.StableBranch + ")"
}

// WriteFailure writes a single failure report naming the stage that broke and,
// when an external command caused it, that command and its exit code.
func (w *Writer) WriteFailure(err error) error {
	if err == nil {
		return nil
	}

	var b strings.Builder

	headline := "Release cut failed"
	if stage, ok := domain.FailedStage(err); ok {
		headline += " at stage " + string(stage)
	}
	var finalizeErr *domain.FinalizeError
	if errors.As(err, &finalizeErr) {
		headline += fmt.Sprintf(" (step %d, %s)", int(finalizeErr.Step), finalizeErr.Step)
	}
	b.WriteString(w.failure.Render(headline))
	b.WriteString("\n")

	var cmdErr *domain.CommandError
	if errors.As(err, &cmdErr) {
		fmt.Fprintf(&b, "  command:   %s\n", cmdErr.CommandLine())
		if cmdErr.Dir != "" {
			fmt.Fprintf(&b, "  directory: %s\n", cmdErr.Dir)
		}
		fmt.Fprintf(&b, "  exit code: %d\n", cmdErr.ExitCode)
	}
	fmt.Fprintf(&b, "  error:     %v\n", err)

	_, writeErr := io.WriteString(w.errOut, b.String())
	return writeErr
}
