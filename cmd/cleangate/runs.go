package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/reporting"
	"github.com/guanw/ReviewMate/internal/rules"
	"github.com/guanw/ReviewMate/internal/rulesdsl"
	"github.com/guanw/ReviewMate/internal/storage"
)

func newRulesCommand(a *app) *cobra.Command {
	var packs []string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List built-in and loaded rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Every built-in, opt-in or not, plus any pack rules.
			builtins := rules.Builtins()
			ids := make([]string, 0, len(builtins))
			for id := range builtins {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			rs := rules.Defaults(rules.Settings{Marker: a.cfg.Rules.Marker, Enabled: rules.ToSet(ids)})
			for _, p := range append(append([]string{}, a.cfg.Rules.Packs...), packs...) {
				if _, err := rulesdsl.LoadInto(p, rs); err != nil {
					return fmt.Errorf("rule pack %s: %w", p, err)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSEVERITY\tDEFAULT\tSUMMARY")
			for _, r := range rs.List() {
				def := "pack"
				if on, ok := builtins[r.ID]; ok {
					def = "off"
					if on {
						def = "on"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, def, r.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&packs, "rules", nil, "YAML rule pack(s) to load")
	return cmd
}

func newRunsCommand(a *app) *cobra.Command {
	var dbFlag string
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.ListRuns(limit, 0)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tPOLICY\tVIOLATIONS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Policy, r.Violations)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newReportCommand(a *app) *cobra.Command {
	var dbFlag, runID, outDir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write JSON and HTML reports for a persisted run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := loadRun(db, runID)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.Reporting.OutDir
			}
			if outDir == "" {
				outDir = "."
			}
			jsonPath, err := reporting.WriteJSON(outDir, &run)
			if err != nil {
				return err
			}
			htmlPath, err := reporting.WriteHTML(outDir, &run)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonPath)
			fmt.Fprintln(cmd.OutOrStdout(), htmlPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&runID, "run", "", "Run ID (default: latest)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory")
	return cmd
}

func newDiffCommand(a *app) *cobra.Command {
	var dbFlag, baseID, headID, outDir string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two persisted runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if baseID == "" {
				return fmt.Errorf("--base is required")
			}
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			base, err := loadRun(db, baseID)
			if err != nil {
				return err
			}
			head, err := loadRun(db, headID)
			if err != nil {
				return err
			}
			d := reporting.DiffRuns(&base, &head)
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %d new, %d removed, %d unchanged\n",
				d.BaseID, d.HeadID, d.Summary.NewCount, d.Summary.RemovedCount, d.Summary.Unchanged)
			if outDir != "" {
				p, err := reporting.WriteDiffJSON(outDir, &base, &head)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&baseID, "base", "", "Base run ID")
	cmd.Flags().StringVar(&headID, "head", "", "Head run ID (default: latest)")
	cmd.Flags().StringVar(&outDir, "out", "", "Write diff.json to this directory")
	return cmd
}

func loadRun(db *storage.DB, id string) (ir.Run, error) {
	if id == "" {
		return db.LoadLatestRun()
	}
	return db.LoadRun(id)
}
