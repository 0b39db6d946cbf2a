package rules

import "testing"

// Built-ins must not fault on arbitrary input; a fault would surface as a
// synthetic violation and block the gate.
func FuzzBuiltinsNoFault(f *testing.F) {
	for _, s := range []string{"", "// TODO x", "password = \"hunter2\"", "console.log(", "\x00\xff"} {
		f.Add(s)
	}
	rs := Defaults(Settings{Enabled: ToSet([]string{"FIXME-MARKER", "SECRET-LITERAL", "DEBUG-PRINT"})})
	f.Fuzz(func(t *testing.T, line string) {
		for _, h := range rs.Evaluate(line, 1) {
			if h.Fault {
				t.Fatalf("rule %s faulted on %q: %s", h.RuleID, line, h.Message)
			}
		}
	})
}
