package crawl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/metrics"
)

// CrawlRacerProfilePage crawls one racer's profile page and upserts the
// profile with active status. ErrDataNotFound propagates unchanged so
// the backfill sweep can mark the racer retired.
func (c *Crawler) CrawlRacerProfilePage(ctx context.Context, registrationNumber int) error {
	page, err := c.fetch(ctx, racerProfilePageURL(registrationNumber))
	if err != nil {
		return err
	}
	racer, err := c.deps.RacerProfileExtractor.ExtractRacerProfile(page)
	if err != nil {
		if errors.Is(err, boatrace.ErrNoData) {
			return fmt.Errorf("racer %d profile: %w", registrationNumber, boatrace.ErrDataNotFound)
		}
		return fmt.Errorf("extract racer %d profile: %w", registrationNumber, err)
	}
	racer.Status = boatrace.RacerStatusActive
	if err := c.deps.Racers.Upsert(ctx, racer); err != nil {
		return fmt.Errorf("upsert racer %d: %w", registrationNumber, err)
	}
	return nil
}

// Backfiller drains racers whose profile was never completed, a bounded
// batch at a time. A racer whose page no longer exists is marked
// retired so the next batch stops selecting them.
type Backfiller struct {
	crawler   *Crawler
	racers    boatrace.RacerStore
	batchSize int
	logger    *zap.Logger
}

// NewBackfiller constructs a Backfiller.
func NewBackfiller(crawler *Crawler, racers boatrace.RacerStore, batchSize int, logger *zap.Logger) *Backfiller {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfiller{
		crawler:   crawler,
		racers:    racers,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Drain crawls one batch of incomplete racer profiles. A single
// racer's failure is logged and the sweep continues; only the batch
// selection itself can fail the run.
func (b *Backfiller) Drain(ctx context.Context) error {
	numbers, err := b.racers.FindIncomplete(ctx, b.batchSize)
	if err != nil {
		return fmt.Errorf("select incomplete racers: %w", err)
	}
	if len(numbers) == 0 {
		b.logger.Debug("no incomplete racers to backfill")
		return nil
	}

	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("backfill interrupted: %w", err)
		}
		err := b.crawler.CrawlRacerProfilePage(ctx, number)
		switch {
		case errors.Is(err, boatrace.ErrDataNotFound):
			if markErr := b.racers.MarkRetired(ctx, number); markErr != nil {
				b.logger.Error("mark racer retired failed",
					zap.Int("registration_number", number), zap.Error(markErr))
				continue
			}
			metrics.RacerRetired()
			b.logger.Info("racer retired, profile page gone",
				zap.Int("registration_number", number))
		case err != nil:
			b.logger.Error("racer profile crawl failed",
				zap.Int("registration_number", number), zap.Error(err))
		default:
			b.logger.Debug("racer profile updated",
				zap.Int("registration_number", number))
		}
	}
	return nil
}
