package rules

import (
	"path/filepath"
	"strings"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/storage"
)

// ApplyWaivers filters out violations that match any active waiver.
// Returns (kept, waivedCount). Rule faults are never waived.
func ApplyWaivers(in []ir.Violation, waivers []storage.Waiver) ([]ir.Violation, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	var out []ir.Violation
	waived := 0
nextViolation:
	for _, v := range in {
		if v.Fault {
			out = append(out, v)
			continue
		}
		for _, w := range waivers {
			if !eqCI(v.RuleName, w.RuleID) {
				continue
			}
			if w.File != "" && !pathMatches(v.File, w.File) {
				continue
			}
			if w.PatternSub != "" &&
				!strings.Contains(strings.ToUpper(v.Message), strings.ToUpper(w.PatternSub)) {
				continue
			}
			waived++
			continue nextViolation
		}
		out = append(out, v)
	}
	return out, waived
}

// pathMatches accepts an exact path, a path suffix on a separator boundary,
// or a filepath.Match glob.
func pathMatches(file, want string) bool {
	file, want = filepath.ToSlash(filepath.Clean(file)), filepath.ToSlash(filepath.Clean(want))
	if file == want || strings.HasSuffix(file, "/"+want) {
		return true
	}
	ok, err := filepath.Match(want, file)
	return err == nil && ok
}

func eqCI(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
