package scanner

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/guanw/ReviewMate/internal/ir"
)

// TargetsFromDiff returns the files a unified diff leaves behind, in diff
// order. Deleted files are skipped; "a/" and "b/" prefixes are stripped.
func TargetsFromDiff(r io.Reader) ([]ir.Target, error) {
	fds, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	seen := map[string]bool{}
	var out []ir.Target
	for _, fd := range fds {
		name := fd.NewName
		if name == "/dev/null" {
			continue
		}
		if name == "" {
			name = fd.OrigName
		}
		name = stripDiffPrefix(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, ir.Target{Path: name})
	}
	return out, nil
}

func stripDiffPrefix(name string) string {
	name = strings.TrimSpace(name)
	for _, p := range []string{"b/", "a/"} {
		if strings.HasPrefix(name, p) {
			return strings.TrimPrefix(name, p)
		}
	}
	return name
}
