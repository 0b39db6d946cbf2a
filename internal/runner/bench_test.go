package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/rules"
)

func benchTargets(b *testing.B, files, lines int) []ir.Target {
	b.Helper()
	dir := b.TempDir()
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		if i%25 == 0 {
			sb.WriteString("  // TODO tidy up\n")
			continue
		}
		fmt.Fprintf(&sb, "const v%d = compute(%d);\n", i, i)
	}
	var paths []string
	for i := 0; i < files; i++ {
		p := filepath.Join(dir, fmt.Sprintf("f%03d.js", i))
		if err := os.WriteFile(p, []byte(sb.String()), 0o644); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, p)
	}
	return ir.Targets(paths, false)
}

func benchmarkScan(b *testing.B, workers int) {
	targets := benchTargets(b, 50, 400)
	rs := rules.Defaults(rules.Settings{Enabled: rules.ToSet([]string{"SECRET-LITERAL", "DEBUG-PRINT"})})
	r := &Runner{Workers: workers}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Scan(context.Background(), targets, rs); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScan_Sequential(b *testing.B) { benchmarkScan(b, 1) }
func BenchmarkScan_Parallel(b *testing.B)   { benchmarkScan(b, 8) }
