package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wafflestudio/siksha-crawler/internal/config"
	"github.com/wafflestudio/siksha-crawler/internal/meal"
	syncjob "github.com/wafflestudio/siksha-crawler/internal/sync"
)

var (
	debugDate       string
	debugRestaurant string
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Run the crawlers and print matching meals without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		job := syncjob.NewJob(nil, nil, newCrawlers(cfg), false)

		meals, err := job.Collect(cmd.Context())
		if err != nil {
			return err
		}

		var target time.Time
		if debugDate != "" {
			parsed, err := time.ParseInLocation("20060102", debugDate, meal.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", debugDate, err)
			}
			target = parsed
		}

		today := meal.Today()
		count := 0
		for _, m := range meals {
			if debugRestaurant != "" && !strings.Contains(m.Restaurant, debugRestaurant) {
				continue
			}
			if debugDate != "" {
				if !m.Date.Equal(target) {
					continue
				}
			} else if m.Date.Before(today) {
				continue
			}
			fmt.Println(m.String())
			count++
		}
		fmt.Printf("total #: %d\n", count)
		return nil
	},
}

func init() {
	debugCmd.Flags().StringVarP(&debugDate, "date", "d", "", "target date (YYYYMMDD)")
	debugCmd.Flags().StringVarP(&debugRestaurant, "restaurant", "r", "", "restaurant name substring filter")
}
