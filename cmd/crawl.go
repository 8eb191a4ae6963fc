package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a single crawl immediately, bypassing the schedule.",
	}
	cmd.AddCommand(newCrawlRaceCmd())
	cmd.AddCommand(newCrawlRacerCmd())
	cmd.AddCommand(newCrawlPreInspectionCmd())
	return cmd
}

func newCrawlRaceCmd() *cobra.Command {
	var (
		dateFlag   string
		stadium    int
		raceNumber int
		kind       string
	)
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Crawl one page of one race.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			date, err := parseDate(dateFlag, a.Clock().Now())
			if err != nil {
				return err
			}
			if stadium < 1 || stadium > 24 {
				return fmt.Errorf("stadium must be 1..24, got %d", stadium)
			}
			if raceNumber < 1 || raceNumber > 12 {
				return fmt.Errorf("race must be 1..12, got %d", raceNumber)
			}
			taskKind := boatrace.TaskKind(kind)
			switch taskKind {
			case boatrace.TaskRaceInformation, boatrace.TaskBeforeInformation, boatrace.TaskOdds, boatrace.TaskRaceResult:
			default:
				return fmt.Errorf("unknown page kind %q", kind)
			}
			task := boatrace.ScheduledTask{
				Kind: taskKind,
				Key: boatrace.RaceKey{
					StadiumTelCode: boatrace.StadiumTelCode(stadium),
					Date:           date,
					RaceNumber:     raceNumber,
				},
			}
			return a.Crawler().Run(cmd.Context(), task)
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "race date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&stadium, "stadium", 0, "stadium telephone code (1-24)")
	cmd.Flags().IntVar(&raceNumber, "race", 0, "race number (1-12)")
	cmd.Flags().StringVar(&kind, "page", string(boatrace.TaskRaceInformation),
		"page kind: information, before-information, odds or result")
	_ = cmd.MarkFlagRequired("stadium")
	_ = cmd.MarkFlagRequired("race")
	return cmd
}

func newCrawlPreInspectionCmd() *cobra.Command {
	var (
		dateFlag string
		stadium  int
	)
	cmd := &cobra.Command{
		Use:   "pre-inspection",
		Short: "Crawl a stadium's pre-inspection page: entered racers and motor pool state.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			date, err := parseDate(dateFlag, a.Clock().Now())
			if err != nil {
				return err
			}
			if stadium < 1 || stadium > 24 {
				return fmt.Errorf("stadium must be 1..24, got %d", stadium)
			}
			return a.Crawler().CrawlPreInspectionPage(cmd.Context(), boatrace.StadiumTelCode(stadium), date)
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "event start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&stadium, "stadium", 0, "stadium telephone code (1-24)")
	_ = cmd.MarkFlagRequired("stadium")
	return cmd
}

func newCrawlRacerCmd() *cobra.Command {
	var number int
	cmd := &cobra.Command{
		Use:   "racer",
		Short: "Crawl one racer profile.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if number <= 0 {
				return fmt.Errorf("registration number must be positive, got %d", number)
			}
			return a.Crawler().CrawlRacerProfilePage(cmd.Context(), number)
		},
	}
	cmd.Flags().IntVar(&number, "number", 0, "racer registration number")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}
