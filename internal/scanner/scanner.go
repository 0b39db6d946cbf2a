// Package scanner reads scan targets into numbered lines.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrUnavailable marks a target that is missing or unreadable. The runner
// treats it as a skip, not a failure.
var ErrUnavailable = errors.New("target unavailable")

// Source is a file's text split into lines. Lines[i] is line i+1.
type Source struct {
	Path  string
	Lines []string
}

// Read loads path and splits it into lines. Any read failure, including a
// permission error, is reported as ErrUnavailable.
func Read(path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("%w: %s: not found", ErrUnavailable, path)
		}
		return Source{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Source{Path: path, Lines: SplitLines(string(b))}, nil
}

// SplitLines splits text on "\n". Empty text has no lines; a trailing newline
// yields a final empty line so numbering matches the text as written. A
// trailing "\r" is dropped from each line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
