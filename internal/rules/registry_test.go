package rules

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contains(id, sub string) Rule {
	return Rule{ID: id, Eval: func(line string, _ int) (string, bool) {
		return strings.TrimSpace(line), strings.Contains(line, sub)
	}}
}

func TestAddRejectsDuplicatesCaseInsensitive(t *testing.T) {
	rs, err := NewRuleSet(contains("todo", "TODO"))
	require.NoError(t, err)

	err = rs.Add(contains(" TODO ", "x"))
	assert.ErrorIs(t, err, ErrDuplicateRule)
	assert.Equal(t, 1, rs.Len())
}

func TestAddValidates(t *testing.T) {
	var rs RuleSet
	assert.Error(t, rs.Add(Rule{ID: "", Eval: contains("x", "x").Eval}))
	assert.Error(t, rs.Add(Rule{ID: "x"}))
	require.NoError(t, rs.Add(contains("x", "x")))
	r, ok := rs.Get("X")
	require.True(t, ok)
	assert.Equal(t, "MEDIUM", r.Severity)
}

func TestEvaluateRunsEveryRuleInOrder(t *testing.T) {
	rs, err := NewRuleSet(contains("B", "TODO"), contains("A", "TODO"), contains("C", "nope"))
	require.NoError(t, err)

	hits := rs.Evaluate("  // TODO  ", 3)
	require.Len(t, hits, 2)
	assert.Equal(t, "B", hits[0].RuleID)
	assert.Equal(t, 0, hits[0].RuleIndex)
	assert.Equal(t, "A", hits[1].RuleID)
	assert.Equal(t, 1, hits[1].RuleIndex)
	assert.Equal(t, "// TODO", hits[1].Message)
}

func TestEvaluateIsolatesPanics(t *testing.T) {
	rs, err := NewRuleSet(
		Rule{ID: "BAD", Eval: func(string, int) (string, bool) { panic("kaput") }},
		contains("GOOD", "x"),
	)
	require.NoError(t, err)

	hits := rs.Evaluate("x", 1)
	require.Len(t, hits, 2)
	assert.True(t, hits[0].Fault)
	assert.Equal(t, "rule fault: kaput", hits[0].Message)
	assert.False(t, hits[1].Fault)
}

func TestWithoutAndIDs(t *testing.T) {
	rs, err := NewRuleSet(contains("A", "a"), contains("B", "b"), contains("C", "c"))
	require.NoError(t, err)

	out := rs.Without("b")
	assert.Equal(t, []string{"A", "C"}, out.IDs())
	_, ok := out.Get("B")
	assert.False(t, ok)
	c, ok := out.Get("c")
	require.True(t, ok)
	assert.Equal(t, "C", c.ID)
	assert.Equal(t, 3, rs.Len(), "original set untouched")
}

func TestRuleSetSafeForConcurrentEvaluate(t *testing.T) {
	rs := Defaults(Settings{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 1; n <= 100; n++ {
				assert.Len(t, rs.Evaluate("// TODO x", n), 1)
			}
		}()
	}
	wg.Wait()
}
