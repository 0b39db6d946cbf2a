package rules

import "strings"

const DefaultMarker = "// TODO"

type Settings struct {
	Marker   string          // substring flagged by TODO-MARKER
	Enabled  map[string]bool // opt-in built-ins to turn on
	Disabled map[string]bool // built-ins (or pack rules) to turn off
}

type builtin struct {
	id        string
	defaultOn bool
	build     func(s Settings) Rule
}

var catalog []builtin

func registerBuiltin(id string, defaultOn bool, build func(s Settings) Rule) {
	catalog = append(catalog, builtin{id: id, defaultOn: defaultOn, build: build})
}

func withDefaults(s Settings) Settings {
	if s.Marker == "" {
		s.Marker = DefaultMarker
	}
	if s.Enabled == nil {
		s.Enabled = map[string]bool{}
	}
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	return s
}

// Defaults builds the built-in rule set: on-by-default rules plus any
// explicitly enabled ones, minus disabled ones. Order follows the catalog.
func Defaults(s Settings) *RuleSet {
	s = withDefaults(s)
	enabled := upperKeys(s.Enabled)
	disabled := upperKeys(s.Disabled)
	set := &RuleSet{ruleIndex: map[string]int{}}
	for _, b := range catalog {
		on := b.defaultOn || enabled[b.id]
		if !on || disabled[b.id] {
			continue
		}
		// catalog IDs are unique
		_ = set.Add(b.build(s))
	}
	return set
}

// Builtins lists every built-in rule ID with whether it is on by default.
func Builtins() map[string]bool {
	out := make(map[string]bool, len(catalog))
	for _, b := range catalog {
		out[b.id] = b.defaultOn
	}
	return out
}

// ToSet turns a list of IDs into a lookup map.
func ToSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = normID(id); id != "" {
			out[id] = true
		}
	}
	return out
}

func upperKeys(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[strings.ToUpper(strings.TrimSpace(k))] = true
		}
	}
	return out
}
