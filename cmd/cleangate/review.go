package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/review"
	"github.com/guanw/ReviewMate/internal/storage"
)

func newReviewCommand(a *app) *cobra.Command {
	var dbFlag, diffPath, prURL, endpoint string
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Send a diff to the review service and record the answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			diff, err := readDiff(cmd.InOrStdin(), diffPath)
			if err != nil {
				return err
			}
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			if endpoint == "" {
				endpoint = a.cfg.Review.Endpoint
			}
			c := review.NewClient(endpoint, time.Duration(a.cfg.Review.TimeoutSec)*time.Second)
			res, err := review.Submit(cmd.Context(), c, historyFor(db), review.Request{Diff: diff, PRURL: prURL})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			if !res.OK {
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&diffPath, "diff", "-", "Diff file (- for stdin)")
	cmd.Flags().StringVar(&prURL, "pr-url", "", "Pull request URL sent with the diff")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Review service URL (default from config)")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var dbFlag string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent review results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := historyFor(db).List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n  %s\n", e.Timestamp.Local().Format(time.DateTime), e.DiffPrefix, e.Result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	return cmd
}

func historyFor(db *storage.DB) *review.History {
	return &review.History{Store: db, LockPath: db.Path() + ".history.lock"}
}

func readDiff(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" || path == "" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read diff: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", review.ErrEmptyDiff
	}
	return string(b), nil
}
