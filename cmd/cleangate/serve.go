package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/api"
	"github.com/guanw/ReviewMate/internal/metrics"
	"github.com/guanw/ReviewMate/internal/rules"
)

func newServeCommand(a *app) *cobra.Command {
	var dbFlag, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve persisted runs, rules and waivers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			m := metrics.New()
			m.WatchStore(db)
			s := &api.Server{
				DB:        db,
				UserStore: db,
				Rules: rules.Defaults(rules.Settings{
					Marker:   a.cfg.Rules.Marker,
					Enabled:  rules.ToSet(a.cfg.Rules.Enabled),
					Disabled: rules.ToSet(a.cfg.Rules.Disabled),
				}),
				Metrics:         m,
				AllowedOrigins:  a.cfg.Server.AllowedOrigins,
				SessionDuration: time.Duration(a.cfg.Server.SessionHours) * time.Hour,
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           s.Routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			shutdownErr := make(chan error, 1)
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				shutdownErr <- srv.Shutdown(sctx)
			}()

			slog.Info("api listening", "addr", addr, "db", db.Path())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-shutdownErr
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
