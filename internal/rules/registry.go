package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrDuplicateRule = errors.New("duplicate rule id")

// RuleSet is an ordered collection of rules, unique by ID. Rules are
// evaluated in registration order.
type RuleSet struct {
	rules     []Rule
	ruleIndex map[string]int // UPPER(ruleID) -> index
}

func NewRuleSet(rs ...Rule) (*RuleSet, error) {
	set := &RuleSet{ruleIndex: map[string]int{}}
	for _, r := range rs {
		if err := set.Add(r); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add registers r. Duplicate IDs are rejected rather than replaced.
func (s *RuleSet) Add(r Rule) error {
	key := normID(r.ID)
	if key == "" {
		return errors.New("rule id is required")
	}
	if r.Eval == nil {
		return fmt.Errorf("rule %s: eval func is required", r.ID)
	}
	if s.ruleIndex == nil {
		s.ruleIndex = map[string]int{}
	}
	if _, ok := s.ruleIndex[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.ID)
	}
	if r.Severity == "" {
		r.Severity = "MEDIUM"
	}
	r.Severity = strings.ToUpper(r.Severity)
	s.rules = append(s.rules, r)
	s.ruleIndex[key] = len(s.rules) - 1
	return nil
}

// List returns the rules in registration order.
func (s *RuleSet) List() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *RuleSet) Len() int { return len(s.rules) }

// Get returns a rule by ID if registered.
func (s *RuleSet) Get(id string) (Rule, bool) {
	idx, ok := s.ruleIndex[normID(id)]
	if !ok {
		return Rule{}, false
	}
	return s.rules[idx], true
}

// Without returns a copy of the set minus the given rule IDs.
func (s *RuleSet) Without(ids ...string) *RuleSet {
	drop := map[string]bool{}
	for _, id := range ids {
		drop[normID(id)] = true
	}
	out := &RuleSet{ruleIndex: map[string]int{}}
	for _, r := range s.rules {
		if drop[normID(r.ID)] {
			continue
		}
		out.rules = append(out.rules, r)
		out.ruleIndex[normID(r.ID)] = len(out.rules) - 1
	}
	return out
}

// IDs lists rule IDs in registration order.
func (s *RuleSet) IDs() []string {
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.ID)
	}
	return out
}

// Evaluate runs every rule against the line. There is no short-circuit: a
// line that breaks several rules yields one hit per rule.
func (s *RuleSet) Evaluate(line string, n int) []Hit {
	var out []Hit
	for i, r := range s.rules {
		if h, ok := evalOne(i, r, line, n); ok {
			out = append(out, h)
		}
	}
	return out
}

// evalOne isolates a panicking rule so the rest of the scan continues. The
// fault is reported as a hit so it still blocks the gate.
func evalOne(idx int, r Rule, line string, n int) (h Hit, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("rule fault", "rule", r.ID, "line", n, "panic", p)
			h = Hit{
				RuleIndex: idx,
				RuleID:    r.ID,
				Severity:  "HIGH",
				Message:   fmt.Sprintf("rule fault: %v", p),
				Fault:     true,
			}
			ok = true
		}
	}()
	msg, hit := r.Eval(line, n)
	if !hit {
		return Hit{}, false
	}
	return Hit{RuleIndex: idx, RuleID: r.ID, Severity: r.Severity, Message: msg}, true
}

func normID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
