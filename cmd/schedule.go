package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScheduleCmd() *cobra.Command {
	var (
		dateFlag string
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule the crawl tasks for every race on a date.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			date, err := parseDate(dateFlag, a.Clock().Now())
			if err != nil {
				return err
			}
			if err := a.Scheduler().ScheduleAllRacesToday(cmd.Context(), date); err != nil {
				return err
			}
			if !wait {
				return nil
			}

			// Timers live in this process: without a wait the command
			// would exit before anything fires.
			logger := a.Logger()
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-ticker.C:
					pending := a.Registry().Pending()
					if len(pending) == 0 {
						logger.Info("all tasks finished")
						return nil
					}
					logger.Info("tasks pending", zap.Int("count", len(pending)))
				}
			}
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "race date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until every scheduled task has fired")
	return cmd
}
