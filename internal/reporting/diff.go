package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/guanw/ReviewMate/internal/ir"
)

type DiffPayload struct {
	BaseID  string          `json:"base_id"`
	HeadID  string          `json:"head_id"`
	Summary DiffSummary     `json:"summary"`
	New     []diffViolation `json:"new"`
	Removed []diffViolation `json:"removed"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	Unchanged    int `json:"unchanged"`
}

type diffViolation struct {
	RuleName string `json:"rule"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// DiffRuns compares two runs. Violations are matched on rule, file and
// message so that lines shifting between runs do not count as churn. Repeated
// identical violations are matched one for one.
func DiffRuns(base, head *ir.Run) DiffPayload {
	pending := map[string][]ir.Violation{}
	for _, v := range base.Violations {
		k := keyOf(v)
		pending[k] = append(pending[k], v)
	}

	var added, removed []diffViolation
	unchanged := 0
	for _, v := range head.Violations {
		k := keyOf(v)
		if q := pending[k]; len(q) > 0 {
			pending[k] = q[1:]
			unchanged++
			continue
		}
		added = append(added, asDiff(v))
	}
	for _, q := range pending {
		for _, v := range q {
			removed = append(removed, asDiff(v))
		}
	}

	sortDiff(added)
	sortDiff(removed)
	return DiffPayload{
		BaseID: base.ID, HeadID: head.ID,
		Summary: DiffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			Unchanged:    unchanged,
		},
		New:     added,
		Removed: removed,
	}
}

// WriteDiffJSON writes DiffRuns(base, head) to <outDir>/diff_<base>__<head>.json.
func WriteDiffJSON(outDir string, base, head *ir.Run) (string, error) {
	path := filepath.Join(outDir, "diff_"+base.ID+"__"+head.ID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(DiffRuns(base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func sortDiff(ds []diffViolation) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].File != ds[j].File {
			return ds[i].File < ds[j].File
		}
		if ds[i].Line != ds[j].Line {
			return ds[i].Line < ds[j].Line
		}
		return ds[i].RuleName < ds[j].RuleName
	})
}

func keyOf(v ir.Violation) string {
	sb := strings.Builder{}
	sb.WriteString(norm(v.RuleName))
	sb.WriteByte('|')
	sb.WriteString(v.File)
	sb.WriteByte('|')
	sb.WriteString(strings.TrimSpace(v.Message))
	return sb.String()
}

func asDiff(v ir.Violation) diffViolation {
	return diffViolation{RuleName: v.RuleName, File: v.File, Line: v.Line, Message: v.Message}
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
