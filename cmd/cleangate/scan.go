package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/metrics"
	"github.com/guanw/ReviewMate/internal/reporting"
	"github.com/guanw/ReviewMate/internal/rules"
	"github.com/guanw/ReviewMate/internal/rulesdsl"
	"github.com/guanw/ReviewMate/internal/runner"
	"github.com/guanw/ReviewMate/internal/scanner"
	"github.com/guanw/ReviewMate/internal/storage"
)

type scanFlags struct {
	diff      string
	packs     []string
	marker    string
	policy    string
	enable    []string
	disable   []string
	exts      []string
	workers   int
	persist   bool
	waivers   bool
	db        string
	out       string
	metrics   string
	mustExist bool
	color     string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.diff, "diff", "", "Scan the files touched by this unified diff (- for stdin)")
	fs.StringSliceVar(&f.packs, "rules", nil, "YAML rule pack(s) to load")
	fs.StringVar(&f.marker, "marker", "", "Marker substring for TODO-MARKER")
	fs.StringVar(&f.policy, "policy", "", "Policy name used in the report")
	fs.StringSliceVar(&f.enable, "enable", nil, "Opt-in built-in rules to enable")
	fs.StringSliceVar(&f.disable, "disable", nil, "Rule IDs to disable")
	fs.StringSliceVar(&f.exts, "ext", nil, "File extensions to scan inside directory targets")
	fs.IntVar(&f.workers, "workers", 0, "Files scanned in parallel (1 = sequential)")
	fs.BoolVar(&f.persist, "persist", false, "Save the run to the database")
	fs.BoolVar(&f.waivers, "waivers", false, "Apply active waivers from the database")
	fs.StringVar(&f.db, "db", "", "SQLite database path")
	fs.StringVar(&f.out, "out", "", "Write JSON and HTML reports to this directory")
	fs.StringVar(&f.metrics, "metrics-file", "", "Write scan counters in Prometheus text format to this file")
	fs.BoolVar(&f.mustExist, "must-exist", false, "Fail instead of skipping missing targets")
	fs.StringVar(&f.color, "color", "", "Color header lines: auto, always or never")
}

func newScanCommand(a *app) *cobra.Command {
	sf := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan targets and exit 1 when violations are found",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd, sf, args)
		},
	}
	sf.register(cmd)
	return cmd
}

// scan resolves settings (flags > env > config file > defaults), runs the
// gate and returns exitError for a non-zero gate status.
func (a *app) scan(cmd *cobra.Command, sf *scanFlags, args []string) error {
	cfg := a.cfg
	changed := cmd.Flags().Changed

	mustExist := cfg.Analysis.MustExist || sf.mustExist
	targets, err := resolveTargets(cmd.InOrStdin(), args, sf.diff, cfg.Analysis.Targets, mustExist)
	if err != nil {
		return err
	}
	exts := cfg.Analysis.Extensions
	if changed("ext") {
		exts = sf.exts
	}
	targets = scanner.Expand(targets, scanner.Options{Extensions: exts})

	rs, disabled, err := a.ruleSet(sf)
	if err != nil {
		return err
	}

	policy := cfg.Analysis.Policy
	if changed("policy") {
		policy = sf.policy
	}
	workers := cfg.Analysis.Workers
	if changed("workers") {
		workers = sf.workers
	}
	colorMode := cfg.Reporting.Color
	if changed("color") {
		colorMode = sf.color
	}
	persist := cfg.Analysis.Persist || sf.persist
	useWaivers := cfg.Analysis.Waivers || sf.waivers

	var db *storage.DB
	if persist || useWaivers {
		db, err = openDB(a.dbPath(sf.db))
		if err != nil {
			return err
		}
		defer db.Close()
	}

	m := metrics.New()
	out := cmd.OutOrStdout()
	r := &runner.Runner{
		Reporter: &reporting.Text{Out: out, Policy: policy, Color: wantColor(colorMode, out)},
		Policy:   policy,
		Workers:  workers,
		Disabled: disabled,
		Metrics:  m,
	}
	if useWaivers {
		ws, err := db.ListWaivers(true)
		if err != nil {
			return fmt.Errorf("load waivers: %w", err)
		}
		r.Waivers = ws
	}

	res, code, err := r.Run(cmd.Context(), targets, rs)
	if err != nil {
		return err
	}

	if persist {
		if err := db.SaveRun(&res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		slog.Info("run saved", "run", res.ID, "db", db.Path())
	}
	outDir := cfg.Reporting.OutDir
	if changed("out") {
		outDir = sf.out
	}
	if outDir != "" {
		jsonPath, err := reporting.WriteJSON(outDir, &res)
		if err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		htmlPath, err := reporting.WriteHTML(outDir, &res)
		if err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		slog.Info("reports written", "run", res.ID, "json", jsonPath, "html", htmlPath)
	}

	if sf.metrics != "" {
		if err := m.WriteTextfile(sf.metrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if code != reporting.ExitClean {
		return exitError{code: code}
	}
	return nil
}

func resolveTargets(stdin io.Reader, args []string, diffPath string, fromConfig []string, mustExist bool) ([]ir.Target, error) {
	switch {
	case len(args) > 0:
		return ir.Targets(args, mustExist), nil
	case diffPath != "":
		r := stdin
		if diffPath != "-" {
			f, err := os.Open(diffPath)
			if err != nil {
				return nil, fmt.Errorf("open diff: %w", err)
			}
			defer f.Close()
			r = f
		}
		ts, err := scanner.TargetsFromDiff(r)
		if err != nil {
			return nil, err
		}
		for i := range ts {
			ts[i].MustExist = mustExist
		}
		return ts, nil
	default:
		return ir.Targets(fromConfig, mustExist), nil
	}
}

// ruleSet builds built-ins, loads rule packs, then drops disabled IDs.
func (a *app) ruleSet(sf *scanFlags) (*rules.RuleSet, []string, error) {
	cfg := a.cfg
	marker := cfg.Rules.Marker
	if sf.marker != "" {
		marker = sf.marker
	}
	enabled := append(append([]string{}, cfg.Rules.Enabled...), sf.enable...)
	disabled := append(append([]string{}, cfg.Rules.Disabled...), sf.disable...)

	rs := rules.Defaults(rules.Settings{
		Marker:   marker,
		Enabled:  rules.ToSet(enabled),
		Disabled: rules.ToSet(disabled),
	})
	packs := append(append([]string{}, cfg.Rules.Packs...), sf.packs...)
	for _, p := range packs {
		n, err := rulesdsl.LoadInto(p, rs)
		if err != nil {
			return nil, nil, fmt.Errorf("rule pack %s: %w", p, err)
		}
		slog.Debug("rule pack loaded", "path", p, "rules", n)
	}
	if len(disabled) > 0 {
		rs = rs.Without(disabled...)
	}
	return rs, disabled, nil
}

func wantColor(mode string, out io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

