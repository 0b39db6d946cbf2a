// Package collector aggregates violations across a scan.
package collector

import (
	"sort"
	"sync"

	"github.com/guanw/ReviewMate/internal/ir"
)

// Key orders a violation within a scan: target position, then line, then
// rule registration position.
type Key struct {
	Target int
	Line   int
	Rule   int
}

type entry struct {
	key Key
	v   ir.Violation
}

// Collector is append-only during a scan. Record is safe for concurrent use
// so targets may be scanned in parallel; Drain restores a deterministic order.
// A Collector belongs to one scan and must not be shared across runs.
type Collector struct {
	mu      sync.Mutex
	entries []entry
}

func New() *Collector { return &Collector{} }

func (c *Collector) Record(k Key, v ir.Violation) {
	c.mu.Lock()
	c.entries = append(c.entries, entry{key: k, v: v})
	c.mu.Unlock()
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Drain returns every recorded violation sorted by Key and empties the
// collector. Violations with equal keys keep their recording order.
func (c *Collector) Drain() []ir.Violation {
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].key, entries[j].key
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
	out := make([]ir.Violation, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.v)
	}
	return out
}
