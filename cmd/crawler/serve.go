package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wafflestudio/siksha-crawler/internal/api"
	"github.com/wafflestudio/siksha-crawler/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP server with a daily crawl loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		job, st := newJob(cfg)
		defer st.Close()

		go crawlLoop(cmd.Context(), job, 24*time.Hour)

		srv := api.NewServer(job)
		slog.Info("starting server", "addr", cfg.Addr)
		return http.ListenAndServe(cfg.Addr, srv.Router())
	},
}

type runner interface {
	Run(ctx context.Context) string
}

func crawlLoop(ctx context.Context, job runner, interval time.Duration) {
	slog.Info("crawl finished", "status", job.Run(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slog.Info("crawl finished", "status", job.Run(ctx))
		}
	}
}
