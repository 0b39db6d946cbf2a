package rulesdsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guanw/ReviewMate/internal/rules"
)

const pack = `
rules:
  - id: NO-EVAL
    summary: eval is banned
    severity: high
    regex: '\beval\('
    message: "banned construct {match} in: {line}"
  - id: HACK-MARKER
    contains: hack
    ignore_case: true
`

func TestLoadInto(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(p, []byte(pack), 0o644))

	rs := rules.Defaults(rules.Settings{})
	n, err := LoadInto(p, rs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"TODO-MARKER", "NO-EVAL", "HACK-MARKER"}, rs.IDs())

	r, ok := rs.Get("no-eval")
	require.True(t, ok)
	assert.Equal(t, "HIGH", r.Severity)
	msg, hit := r.Eval("  x = eval(input)  ", 1)
	assert.True(t, hit)
	assert.Equal(t, "banned construct eval( in: x = eval(input)", msg)
	_, hit = r.Eval("medieval(x)", 1)
	assert.False(t, hit)

	r, _ = rs.Get("HACK-MARKER")
	msg, hit = r.Eval("  // HACK: skip ", 1)
	assert.True(t, hit)
	assert.Equal(t, "// HACK: skip", msg)
	assert.Equal(t, "MEDIUM", r.Severity)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing id":      "rules:\n  - contains: x\n",
		"both matchers":   "rules:\n  - id: A\n    contains: x\n    regex: y\n",
		"no matcher":      "rules:\n  - id: A\n",
		"bad regex":       "rules:\n  - id: A\n    regex: '('\n",
		"bad severity":    "rules:\n  - id: A\n    contains: x\n    severity: urgent\n",
		"duplicate id":    "rules:\n  - id: TODO-MARKER\n    contains: x\n",
		"not yaml":        "rules: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body), rules.Defaults(rules.Settings{}))
			assert.Error(t, err)
		})
	}
}

func TestPartialLoadKeepsEarlierRules(t *testing.T) {
	rs := rules.Defaults(rules.Settings{})
	n, err := Parse([]byte("rules:\n  - id: OK\n    contains: x\n  - id: BAD\n"), rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"BAD"`)
	assert.Equal(t, 1, n)
	_, ok := rs.Get("OK")
	assert.True(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadInto(filepath.Join(t.TempDir(), "nope.yaml"), rules.Defaults(rules.Settings{}))
	assert.Error(t, err)
}

func TestIgnoreCaseContainsNonASCII(t *testing.T) {
	rs, err := rules.NewRuleSet()
	require.NoError(t, err)
	_, err = Parse([]byte(`
rules:
  - id: TODO-CI
    contains: todo
    ignore_case: true
    message: "{match}"
`), rs)
	require.NoError(t, err)
	r, ok := rs.Get("TODO-CI")
	require.True(t, ok)

	cases := []struct{ line, want string }{
		{line: "K // TODO", want: "TODO"},
		{line: "İTODO", want: "TODO"},
		{line: "İİtodo", want: "todo"},
		{line: "ToDo later", want: "ToDo"},
	}
	for _, tc := range cases {
		line, want := tc.line, tc.want
		msg, hit := r.Eval(line, 1)
		assert.True(t, hit, line)
		assert.Equal(t, want, msg, line)
	}
	_, hit := r.Eval("İİ nothing here", 1)
	assert.False(t, hit)
}
