package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wafflestudio/siksha-crawler/internal/config"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the full fetch-diff-write-notify pipeline once",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		job, st := newJob(cfg)
		defer st.Close()

		// The status string is the contract; failures are reported
		// through it and Slack, never as a non-zero exit.
		fmt.Println(job.Run(cmd.Context()))
	},
}
