package reporting

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/guanw/ReviewMate/internal/ir"
)

const DefaultPolicy = "Clean Code"

// Exit codes of the gate.
const (
	ExitClean      = 0
	ExitViolations = 1
)

// Text writes the human-readable gate report. Color only affects the header
// lines; violation lines are always plain.
type Text struct {
	Out    io.Writer
	Policy string
	Color  bool
}

func (t *Text) policy() string {
	if t.Policy == "" {
		return DefaultPolicy
	}
	return t.Policy
}

func (t *Text) paint(c color.Attribute, s string) string {
	if !t.Color {
		return s
	}
	col := color.New(c)
	col.EnableColor()
	return col.Sprint(s)
}

// Begin announces the scan.
func (t *Text) Begin() {
	fmt.Fprintf(t.Out, "Analyzing code changes for %s principles...\n", t.policy())
}

// Report prints the violations in the given order and returns the exit code:
// ExitClean when there are none, ExitViolations otherwise.
func (t *Text) Report(vs []ir.Violation) int {
	if len(vs) == 0 {
		fmt.Fprintln(t.Out, t.paint(color.FgGreen, fmt.Sprintf("No %s violations found.", t.policy())))
		return ExitClean
	}
	fmt.Fprintln(t.Out, t.paint(color.FgRed, fmt.Sprintf("%s violations found:", t.policy())))
	for _, v := range vs {
		fmt.Fprintf(t.Out, "- %s (line %d): %s\n", v.File, v.Line, v.Message)
	}
	return ExitViolations
}

// ExitCode applies the gate policy without printing anything.
func ExitCode(vs []ir.Violation) int {
	if len(vs) == 0 {
		return ExitClean
	}
	return ExitViolations
}
