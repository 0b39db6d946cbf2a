package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"

	"github.com/guanw/ReviewMate/internal/ir"
)

// WriteHTML writes a standalone report page to <outDir>/<run id>.html.
func WriteHTML(outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, run.ID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	policy := run.Policy
	if policy == "" {
		policy = DefaultPolicy
	}

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(run.ID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .fault{color:#b00}</style>")
	fmt.Fprint(f, "</head><body>")

	fmt.Fprintf(f, "<h1>%s report – <span class='mono'>%s</span></h1>", html.EscapeString(policy), html.EscapeString(run.ID))
	fmt.Fprintf(f, "<p>Targets: %d &nbsp; Violations: %d</p>", len(run.Targets), len(run.Violations))
	if len(run.Context.Rules) > 0 {
		fmt.Fprintf(f, "<p class='dim'>Rules: %d", len(run.Context.Rules))
		if n := len(run.Context.DisabledRules); n > 0 {
			fmt.Fprintf(f, " &nbsp; Disabled rules: %d", n)
		}
		if run.Context.Waived > 0 {
			fmt.Fprintf(f, " &nbsp; Waived: %d", run.Context.Waived)
		}
		fmt.Fprint(f, "</p>")
	}
	if n := len(run.Context.Skipped); n > 0 {
		fmt.Fprintf(f, "<p class='dim'>Skipped (unreadable) targets: %d</p>", n)
	}

	// Per-rule counts
	if len(run.Violations) > 0 {
		counts := map[string]int{}
		for _, v := range run.Violations {
			counts[v.RuleName]++
		}
		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if counts[ids[i]] == counts[ids[j]] {
				return ids[i] < ids[j]
			}
			return counts[ids[i]] > counts[ids[j]]
		})
		fmt.Fprint(f, "<h2>By Rule</h2><table><tr><th>Rule</th><th>Count</th></tr>")
		for _, id := range ids {
			fmt.Fprintf(f, "<tr><td>%s</td><td>%d</td></tr>", html.EscapeString(id), counts[id])
		}
		fmt.Fprint(f, "</table>")
	}

	// All violations, in report order
	if len(run.Violations) > 0 {
		fmt.Fprint(f, "<h2>All Violations</h2><table><tr><th>Severity</th><th>Rule</th><th>File</th><th>Line</th><th>Message</th></tr>")
		for _, v := range run.Violations {
			cls := ""
			if v.Fault {
				cls = " class='fault'"
			}
			fmt.Fprintf(f, "<tr%s><td>%s</td><td>%s</td><td class='mono'>%s</td><td>%d</td><td class='mono'>%s</td></tr>",
				cls,
				html.EscapeString(v.Severity),
				html.EscapeString(v.RuleName),
				html.EscapeString(v.File),
				v.Line,
				html.EscapeString(v.Message),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprintf(f, "<h2>All Violations</h2><p class='dim'>No %s violations found.</p>", html.EscapeString(policy))
	}

	fmt.Fprint(f, "</body></html>")
	return path, nil
}
