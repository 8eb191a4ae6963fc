package cmd

import (
	"github.com/spf13/cobra"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Crawl profiles for racers seen in entries but never profiled.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return a.Backfiller().Drain(cmd.Context())
		},
	}
}
