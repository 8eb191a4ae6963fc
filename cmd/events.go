package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		year  int
		month int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Crawl the monthly schedule page and record its events.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			now := a.Clock().Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			return a.Crawler().CrawlMonthlySchedulePage(cmd.Context(), year, time.Month(month))
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "schedule year, defaults to current")
	cmd.Flags().IntVar(&month, "month", 0, "schedule month (1-12), defaults to current")
	return cmd
}
