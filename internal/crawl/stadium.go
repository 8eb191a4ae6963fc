package crawl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// CrawlMonthlySchedulePage crawls the monthly schedule page and upserts
// the events it lists.
func (c *Crawler) CrawlMonthlySchedulePage(ctx context.Context, year int, month time.Month) error {
	page, err := c.fetch(ctx, monthlySchedulePageURL(year, month))
	if err != nil {
		return err
	}
	events, err := c.deps.MonthlyScheduleExtractor.ExtractEvents(page, year, month)
	if err != nil {
		return fmt.Errorf("extract events for %04d-%02d: %w", year, month, err)
	}
	if err := c.deps.Events.UpsertMany(ctx, events); err != nil {
		return fmt.Errorf("upsert events for %04d-%02d: %w", year, month, err)
	}
	return nil
}

// CrawlEventHoldingPage reports which stadiums are racing on the date.
// Unlike the other crawls it returns the extracted records directly:
// holdings drive same-process scheduling decisions, they are not
// persisted.
func (c *Crawler) CrawlEventHoldingPage(ctx context.Context, date time.Time) ([]boatrace.EventHolding, error) {
	page, err := c.fetch(ctx, eventHoldingPageURL(date))
	if err != nil {
		return nil, err
	}
	holdings, err := c.deps.EventHoldingExtractor.ExtractEventHoldings(page, date)
	if err != nil {
		return nil, fmt.Errorf("extract event holdings for %s: %w", date.Format("2006-01-02"), err)
	}
	return holdings, nil
}

// CrawlPreInspectionPage crawls the pre-inspection information page:
// the racers entered for the event, and a MotorRenewal marker when
// every motor's quinella rate reads zero (a freshly renewed pool has no
// history yet).
func (c *Crawler) CrawlPreInspectionPage(ctx context.Context, stadium boatrace.StadiumTelCode, date time.Time) error {
	page, err := c.fetch(ctx, preInspectionPageURL(stadium, date))
	if err != nil {
		return err
	}

	racers, err := c.deps.PreInspectionExtractor.ExtractRacers(page)
	if err != nil {
		return fmt.Errorf("extract racers for stadium %02d: %w", stadium, err)
	}
	for _, racer := range racers {
		racer.Status = boatrace.RacerStatusActive
		if err := c.deps.Racers.Upsert(ctx, racer); err != nil {
			return fmt.Errorf("upsert racer %d: %w", racer.RegistrationNumber, err)
		}
	}

	entries, err := c.deps.PreInspectionExtractor.ExtractEventEntries(page, stadium, date)
	if err != nil {
		return fmt.Errorf("extract event entries for stadium %02d: %w", stadium, err)
	}
	if len(entries) == 0 {
		return nil
	}
	allZero := true
	for _, entry := range entries {
		if entry.QuinellaRateOfMotor != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		renewal := boatrace.MotorRenewal{StadiumTelCode: stadium, Date: date}
		if err := c.deps.MotorRenewals.Upsert(ctx, renewal); err != nil {
			return fmt.Errorf("upsert motor renewal for stadium %02d: %w", stadium, err)
		}
	}
	return nil
}

// CrawlAllRaceInformationForDate crawls the information page for every
// race at the given stadiums, populating the ledger with deadlines
// ahead of ScheduleAllRacesToday. One race's failure is logged and the
// sweep continues.
func (c *Crawler) CrawlAllRaceInformationForDate(ctx context.Context, date time.Time, stadiums []boatrace.StadiumTelCode) {
	for _, stadium := range stadiums {
		for raceNumber := 1; raceNumber <= 12; raceNumber++ {
			if ctx.Err() != nil {
				return
			}
			key := boatrace.RaceKey{StadiumTelCode: stadium, Date: date, RaceNumber: raceNumber}
			task := boatrace.ScheduledTask{Kind: boatrace.TaskRaceInformation, Key: key}
			if err := c.CrawlRaceInformationPage(ctx, task); err != nil {
				c.deps.Logger.Error("race information crawl failed",
					zap.String("race", key.String()), zap.Error(err))
			}
		}
	}
}
