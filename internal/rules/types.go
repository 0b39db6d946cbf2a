package rules

// Rule is a named predicate over a single line of text.
type Rule struct {
	ID       string
	Summary  string
	Severity string // LOW|MEDIUM|HIGH, defaults to MEDIUM
	// Eval inspects one line (1-based n) and reports a message when the line
	// violates the rule. It must not keep state between calls.
	Eval func(line string, n int) (msg string, hit bool)
}

// Hit is a rule outcome for one line, before the runner attaches the file.
type Hit struct {
	RuleIndex int
	RuleID    string
	Severity  string
	Message   string
	Fault     bool
}
