package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/storage"
)

func TestApplyWaivers(t *testing.T) {
	in := []ir.Violation{
		{File: "src/legacy/a.js", Line: 1, RuleName: "TODO-MARKER", Message: "// TODO old"},
		{File: "src/new/b.js", Line: 2, RuleName: "TODO-MARKER", Message: "// TODO old"},
		{File: "src/legacy/a.js", Line: 3, RuleName: "DEBUG-PRINT", Message: "console.log(1)"},
		{File: "src/legacy/a.js", Line: 4, RuleName: "TODO-MARKER", Message: "rule fault: x", Fault: true},
	}
	ws := []storage.Waiver{{RuleID: "todo-marker", File: "src/legacy/*.js"}}

	kept, waived := ApplyWaivers(in, ws)
	assert.Equal(t, 1, waived)
	assert.Len(t, kept, 3)
	assert.Equal(t, "src/new/b.js", kept[0].File)
	assert.True(t, kept[2].Fault)
}

func TestApplyWaiversPatternAndSuffix(t *testing.T) {
	in := []ir.Violation{
		{File: "/repo/web/app.js", RuleName: "TODO-MARKER", Message: "// TODO ticket-42"},
		{File: "/repo/web/app.js", RuleName: "TODO-MARKER", Message: "// TODO other"},
	}
	kept, waived := ApplyWaivers(in, []storage.Waiver{{RuleID: "TODO-MARKER", File: "web/app.js", PatternSub: "TICKET-42"}})
	assert.Equal(t, 1, waived)
	assert.Equal(t, "// TODO other", kept[0].Message)
}

func TestApplyWaiversNoop(t *testing.T) {
	in := []ir.Violation{{RuleName: "X"}}
	kept, waived := ApplyWaivers(in, nil)
	assert.Equal(t, in, kept)
	assert.Zero(t, waived)
}
