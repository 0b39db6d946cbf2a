// Package rulesdsl compiles YAML rule packs into line rules.
package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guanw/ReviewMate/internal/rules"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID         string `yaml:"id"`
	Summary    string `yaml:"summary"`
	Severity   string `yaml:"severity"` // LOW|MEDIUM|HIGH
	Contains   string `yaml:"contains"` // literal substring
	Regex      string `yaml:"regex"`
	IgnoreCase bool   `yaml:"ignore_case"`
	// Message supports {line} (trimmed line) and {match} (matched text).
	// Empty means the trimmed line.
	Message string `yaml:"message"`
}

// LoadInto reads a rule pack and adds its rules to rs in file order.
// It stops at the first invalid rule; rules before it stay registered.
func LoadInto(path string, rs *rules.RuleSet) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules pack: %w", err)
	}
	return Parse(b, rs)
}

// Parse is LoadInto over an in-memory pack.
func Parse(b []byte, rs *rules.RuleSet) (int, error) {
	var pack dslPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	var n int
	for _, r := range pack.Rules {
		cr, err := compile(r)
		if err != nil {
			return n, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		if err := rs.Add(cr); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func compile(r dslRule) (rules.Rule, error) {
	if strings.TrimSpace(r.ID) == "" {
		return rules.Rule{}, fmt.Errorf("missing required field id")
	}
	if (r.Contains == "") == (r.Regex == "") {
		return rules.Rule{}, fmt.Errorf("exactly one of contains/regex is required")
	}
	switch strings.ToUpper(r.Severity) {
	case "", "LOW", "MEDIUM", "HIGH":
	default:
		return rules.Rule{}, fmt.Errorf("severity %q: want LOW, MEDIUM or HIGH", r.Severity)
	}

	var match func(line string) (string, bool)
	switch {
	case r.Regex != "" || r.IgnoreCase:
		expr := r.Regex
		if expr == "" {
			// Case folding can change byte lengths, so contains+ignore_case
			// goes through the regexp engine to keep match offsets valid.
			expr = regexp.QuoteMeta(r.Contains)
		}
		if r.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return rules.Rule{}, fmt.Errorf("regex: %w", err)
		}
		match = func(line string) (string, bool) {
			loc := re.FindStringIndex(line)
			if loc == nil {
				return "", false
			}
			return line[loc[0]:loc[1]], true
		}
	default:
		needle := r.Contains
		match = func(line string) (string, bool) {
			i := strings.Index(line, needle)
			if i < 0 {
				return "", false
			}
			return line[i : i+len(needle)], true
		}
	}

	tmpl := r.Message
	return rules.Rule{
		ID:       r.ID,
		Summary:  r.Summary,
		Severity: strings.ToUpper(r.Severity),
		Eval: func(line string, _ int) (string, bool) {
			m, ok := match(line)
			if !ok {
				return "", false
			}
			trimmed := strings.TrimSpace(line)
			if tmpl == "" {
				return trimmed, true
			}
			return strings.NewReplacer("{line}", trimmed, "{match}", m).Replace(tmpl), true
		},
	}, nil
}
