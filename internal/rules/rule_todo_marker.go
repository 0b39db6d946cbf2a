package rules

import "strings"

func init() {
	registerBuiltin("TODO-MARKER", true, func(s Settings) Rule {
		return MarkerRule("TODO-MARKER", "Unresolved TODO marker; address technical debt.", s.Marker)
	})
}

// MarkerRule flags any line containing marker and reports the line itself,
// trimmed of surrounding whitespace.
func MarkerRule(id, summary, marker string) Rule {
	return Rule{
		ID:       id,
		Summary:  summary,
		Severity: "MEDIUM",
		Eval: func(line string, _ int) (string, bool) {
			if marker == "" || !strings.Contains(line, marker) {
				return "", false
			}
			return strings.TrimSpace(line), true
		},
	}
}
