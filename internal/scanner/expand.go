package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/guanw/ReviewMate/internal/ir"
)

var skipDirs = map[string]bool{".git": true, "node_modules": true, "vendor": true}

type Options struct {
	Extensions []string // e.g. ".js"; empty keeps every file
}

// Expand replaces directory targets with the files under them, in lexical
// order. Anything that is not a directory (including missing paths) passes
// through so the runner can apply its missing-target policy.
func Expand(targets []ir.Target, opt Options) []ir.Target {
	exts := map[string]bool{}
	for _, e := range opt.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}

	var out []ir.Target
	for _, t := range targets {
		info, err := os.Stat(t.Path)
		if err != nil || !info.IsDir() {
			out = append(out, t)
			continue
		}
		_ = filepath.WalkDir(t.Path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("walk error", "path", p, "err", err)
				return nil
			}
			if d.IsDir() {
				if p != t.Path && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(p))] {
				return nil
			}
			out = append(out, ir.Target{Path: p})
			return nil
		})
	}
	return out
}
