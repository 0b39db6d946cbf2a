package ir

import "time"

const Version = "1.0"

// Run is one invocation of the gate over a target list.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Policy    string    `json:"policy,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Context    Context     `json:"context"`
	Targets    []Target    `json:"targets"`
	Violations []Violation `json:"violations,omitempty"`
}

type Context struct {
	Rules         []string `json:"rules,omitempty"`
	DisabledRules []string `json:"disabled_rules,omitempty"`
	Skipped       []string `json:"skipped,omitempty"` // targets that could not be read
	Waived        int      `json:"waived,omitempty"`
}

// Target is a file the scanner inspects. Missing targets are skipped unless
// MustExist is set.
type Target struct {
	Path      string `json:"path"`
	MustExist bool   `json:"must_exist,omitempty"`
}

// Violation is immutable once recorded. Line is 1-based.
type Violation struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	RuleName string `json:"rule"`
	Severity string `json:"severity,omitempty"` // LOW|MEDIUM|HIGH
	Message  string `json:"message"`
	Fault    bool   `json:"fault,omitempty"` // rule failed while evaluating the line
}

// Targets builds a target list from plain paths.
func Targets(paths []string, mustExist bool) []Target {
	out := make([]Target, 0, len(paths))
	for _, p := range paths {
		out = append(out, Target{Path: p, MustExist: mustExist})
	}
	return out
}
