package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/shared"
	"github.com/guanw/ReviewMate/internal/storage"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

type app struct {
	configPath string
	cfg        shared.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	sf := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "cleangate [paths...]",
		Short: "Rule-based clean code gate",
		Long: `cleangate scans source files line by line against a rule set and
exits non-zero when any violation is found, for use as a pre-merge check.

With no paths it scans the targets from the config file (default: sample.js).`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := shared.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd, sf, args)
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config (optional)")
	sf.register(cmd)

	cmd.AddCommand(newScanCommand(a))
	cmd.AddCommand(newRulesCommand(a))
	cmd.AddCommand(newRunsCommand(a))
	cmd.AddCommand(newReportCommand(a))
	cmd.AddCommand(newDiffCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newReviewCommand(a))
	cmd.AddCommand(newHistoryCommand(a))
	cmd.AddCommand(newUserCommand(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cleangate", Version, "IR:", ir.Version)
		},
	})
	return cmd
}

// openDB opens the SQLite database, creating the schema when needed.
func openDB(path string) (*storage.DB, error) {
	db, err := storage.OpenSQLite(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) dbPath(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return a.cfg.Database.DSN
}
