package review

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const (
	HistoryKey = "reviewmate_history"
	MaxHistory = 10
	prefixLen  = 100
)

type Entry struct {
	DiffPrefix string    `json:"diff"`
	Result     string    `json:"result"`
	Timestamp  time.Time `json:"timestamp"`
}

// KV is the durable key-value store the history lives in.
type KV interface {
	GetKV(key string) (string, bool, error)
	PutKV(key, value string) error
}

// History keeps the most recent MaxHistory results, newest first.
type History struct {
	Store    KV
	LockPath string // optional; serializes writers across processes
	Now      func() time.Time
}

func (h *History) List() ([]Entry, error) {
	raw, ok, err := h.Store.GetKV(HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok {
		return []Entry{}, nil
	}
	var out []Entry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}

// Add prepends an entry for diff/result and trims to MaxHistory.
func (h *History) Add(diff, result string) ([]Entry, error) {
	if h.LockPath != "" {
		fl := flock.New(h.LockPath)
		if err := fl.Lock(); err != nil {
			return nil, fmt.Errorf("lock history: %w", err)
		}
		defer func() { _ = fl.Unlock() }()
	}

	prev, err := h.List()
	if err != nil {
		return nil, err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	entries := append([]Entry{{
		DiffPrefix: Prefix(diff),
		Result:     result,
		Timestamp:  now().UTC(),
	}}, prev...)
	if len(entries) > MaxHistory {
		entries = entries[:MaxHistory]
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := h.Store.PutKV(HistoryKey, string(b)); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return entries, nil
}

// Prefix is the first 100 characters of diff followed by "...".
func Prefix(diff string) string {
	r := []rune(diff)
	if len(r) > prefixLen {
		r = r[:prefixLen]
	}
	return string(r) + "..."
}
