// Package runner orchestrates a scan: read targets, evaluate rules, collect
// violations, report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guanw/ReviewMate/internal/collector"
	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/metrics"
	"github.com/guanw/ReviewMate/internal/reporting"
	"github.com/guanw/ReviewMate/internal/rules"
	"github.com/guanw/ReviewMate/internal/scanner"
	"github.com/guanw/ReviewMate/internal/storage"
)

// ErrRequiredTargetMissing is returned when a target marked MustExist cannot
// be read.
var ErrRequiredTargetMissing = errors.New("required target missing")

// Reporter receives the drained violations and decides the exit code.
type Reporter interface {
	Begin()
	Report(vs []ir.Violation) int
}

type Runner struct {
	Reporter Reporter // nil: no output, exit code from reporting.ExitCode
	Policy   string
	Workers  int // <= 1 scans sequentially
	Waivers  []storage.Waiver
	Disabled []string // recorded in the run context only
	Metrics  *metrics.Scan
	Logger   *slog.Logger

	// Read defaults to scanner.Read.
	Read func(path string) (scanner.Source, error)
	Now  func() time.Time
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run scans targets and reports. The returned int is the gate's exit code.
// An error is returned only for a missing required target or a cancelled
// context; nothing is printed in that case, not even the header.
func (r *Runner) Run(ctx context.Context, targets []ir.Target, rs *rules.RuleSet) (ir.Run, int, error) {
	run, err := r.Scan(ctx, targets, rs)
	if err != nil {
		return run, 0, err
	}
	code := reporting.ExitCode(run.Violations)
	if r.Reporter != nil {
		r.Reporter.Begin()
		code = r.Reporter.Report(run.Violations)
	}
	if r.Metrics != nil {
		outcome := "clean"
		if code != reporting.ExitClean {
			outcome = "violations"
		}
		r.Metrics.Runs.WithLabelValues(outcome).Inc()
	}
	return run, code, nil
}

// Scan evaluates every line of every readable target against rs. Output order
// is target order, then line, then rule registration order, whatever the
// worker count.
func (r *Runner) Scan(ctx context.Context, targets []ir.Target, rs *rules.RuleSet) (ir.Run, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	run := ir.Run{
		ID:        "run-" + uuid.NewString(),
		StartedAt: now().UTC(),
		Policy:    r.Policy,
		IRVersion: ir.Version,
		Targets:   targets,
	}
	run.Context.Rules = rs.IDs()
	run.Context.DisabledRules = r.Disabled

	col := collector.New()
	skipped := make([]bool, len(targets))

	scanOne := func(i int) error {
		ok, err := r.scanTarget(i, targets[i], rs, col)
		if err != nil {
			return err
		}
		skipped[i] = !ok
		return nil
	}

	if r.Workers <= 1 {
		for i := range targets {
			if err := ctx.Err(); err != nil {
				return run, err
			}
			if err := scanOne(i); err != nil {
				return run, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Workers)
		for i := range targets {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return scanOne(i)
			})
		}
		if err := g.Wait(); err != nil {
			return run, err
		}
		if err := ctx.Err(); err != nil {
			return run, err
		}
	}

	for i, s := range skipped {
		if s {
			run.Context.Skipped = append(run.Context.Skipped, targets[i].Path)
		}
	}

	vs := col.Drain()
	if len(r.Waivers) > 0 {
		var waived int
		vs, waived = rules.ApplyWaivers(vs, r.Waivers)
		run.Context.Waived = waived
		if waived > 0 {
			r.logger().Info("violations waived", "count", waived)
		}
	}
	run.Violations = vs

	if r.Metrics != nil {
		for _, v := range vs {
			r.Metrics.Violations.WithLabelValues(v.RuleName).Inc()
		}
	}
	r.logger().Debug("scan complete",
		"run", run.ID,
		"targets", len(targets),
		"skipped", len(run.Context.Skipped),
		"violations", len(vs),
	)
	return run, nil
}

// scanTarget reports ok=false when the target was skipped.
func (r *Runner) scanTarget(idx int, t ir.Target, rs *rules.RuleSet, col *collector.Collector) (bool, error) {
	read := scanner.Read
	if r.Read != nil {
		read = r.Read
	}
	src, err := read(t.Path)
	if err != nil {
		if !errors.Is(err, scanner.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", scanner.ErrUnavailable, err)
		}
		if t.MustExist {
			return false, fmt.Errorf("%w: %w", ErrRequiredTargetMissing, err)
		}
		r.logger().Debug("target skipped", "path", t.Path, "err", err)
		if r.Metrics != nil {
			r.Metrics.TargetsSkipped.Inc()
		}
		return false, nil
	}

	for i, line := range src.Lines {
		n := i + 1
		for _, h := range rs.Evaluate(line, n) {
			if h.Fault && r.Metrics != nil {
				r.Metrics.RuleFaults.WithLabelValues(h.RuleID).Inc()
			}
			col.Record(collector.Key{Target: idx, Line: n, Rule: h.RuleIndex}, ir.Violation{
				File:     t.Path,
				Line:     n,
				RuleName: h.RuleID,
				Severity: h.Severity,
				Message:  h.Message,
				Fault:    h.Fault,
			})
		}
	}
	if r.Metrics != nil {
		r.Metrics.TargetsScanned.Inc()
	}
	return true, nil
}
