package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wafflestudio/siksha-crawler/internal/config"
	"github.com/wafflestudio/siksha-crawler/internal/crawler"
	"github.com/wafflestudio/siksha-crawler/internal/httpx"
	"github.com/wafflestudio/siksha-crawler/internal/notify"
	"github.com/wafflestudio/siksha-crawler/internal/store"
	syncjob "github.com/wafflestudio/siksha-crawler/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:   "siksha-crawler",
	Short: "Scrapes SNU cafeteria menus and syncs them into the menu database",
}

func init() {
	rootCmd.AddCommand(crawlCmd, debugCmd, serveCmd)
}

func newCrawlers(cfg config.Config) []crawler.Crawler {
	fetcher := httpx.NewFetcher(cfg.FetchTimeout)
	return []crawler.Crawler{
		crawler.NewVetCrawler(fetcher),
		crawler.NewSnudormCrawler(fetcher),
		crawler.NewSnucoCrawler(fetcher),
	}
}

// newJob wires the full production pipeline. Exits on connection or
// migration failure; everything past that point reports through the
// job's own status handling.
func newJob(cfg config.Config) (*syncjob.Job, *store.Store) {
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	if err := st.RunMigrations(cfg.SchemaPath); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	notifier := notify.New(cfg.SlackToken, cfg.SlackChannel)
	return syncjob.NewJob(st, notifier, newCrawlers(cfg), cfg.EnableMenuDeletion), st
}
