package reporting

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guanw/ReviewMate/internal/ir"
)

var update = flag.Bool("update", false, "update golden files")

func sampleViolations() []ir.Violation {
	return []ir.Violation{
		{File: "src/app.js", Line: 5, RuleName: "TODO-MARKER", Severity: "MEDIUM", Message: "// TODO fix this"},
		{File: "src/app.js", Line: 5, RuleName: "DEBUG-PRINT", Severity: "LOW", Message: "console.log(x) // TODO fix this"},
		{File: "lib/util.js", Line: 12, RuleName: "BROKEN", Severity: "HIGH", Message: "rule fault: boom", Fault: true},
	}
}

func TestTextReportClean(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{Out: &buf}
	r.Begin()
	code := r.Report(nil)

	assert.Equal(t, ExitClean, code)
	assert.Equal(t, "Analyzing code changes for Clean Code principles...\nNo Clean Code violations found.\n", buf.String())
}

func TestTextReportCustomPolicy(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{Out: &buf, Policy: "Security"}
	code := r.Report([]ir.Violation{{File: "a.py", Line: 1, Message: "x"}})

	assert.Equal(t, ExitViolations, code)
	assert.Equal(t, "Security violations found:\n- a.py (line 1): x\n", buf.String())
}

func TestTextReportGolden(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{Out: &buf}
	r.Begin()
	code := r.Report(sampleViolations())
	assert.Equal(t, ExitViolations, code)

	golden := filepath.Join("testdata", "report.golden")
	if *update {
		require.NoError(t, os.WriteFile(golden, buf.Bytes(), 0o644))
		t.Logf("updated %s", golden)
		return
	}
	want, err := os.ReadFile(golden)
	require.NoError(t, err, "run with -update to create %s", golden)
	assert.Equal(t, string(want), buf.String())
}

func TestTextReportColorOnlyTouchesHeader(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{Out: &buf, Color: true}
	r.Report(sampleViolations()[:1])

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\x1b[")
	assert.Equal(t, "- src/app.js (line 5): // TODO fix this", lines[1])
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitClean, ExitCode(nil))
	assert.Equal(t, ExitViolations, ExitCode(sampleViolations()))
}
