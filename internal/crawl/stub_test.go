package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/clock/system"
	"github.com/metaboatrace/crawler/internal/extract/stub"
)

// stubbedCrawler rebuilds the fixture's crawler with the stub
// extractors wired in place of the test fakes, keeping its stores.
func stubbedCrawler(f *crawlFixture) *Crawler {
	ex := stub.New()
	return New(Deps{
		Fetcher: f.fetcher,
		Clock:   system.New(),
		Logger:  zap.NewNop(),

		RaceInformationExtractor:   ex,
		BeforeInformationExtractor: ex,
		OddsExtractor:              ex,
		ResultExtractor:            ex,
		MonthlyScheduleExtractor:   ex,
		EventHoldingExtractor:      ex,
		PreInspectionExtractor:     ex,
		RacerProfileExtractor:      ex,

		RaceLedger:           f.ledger,
		RaceEntries:          f.entries,
		BoatSettings:         f.settings,
		StartExhibitions:     f.starts,
		CircumferenceRecords: f.circumferences,
		RacerConditions:      f.conditions,
		WeatherConditions:    f.weather,
		Odds:                 f.odds,
		Payoffs:              f.payoffs,
		RaceRecords:          f.records,
		WinningEntries:       f.winning,
		DisqualifiedEntries:  f.disqualified,
		BoatPerformances:     f.boatPerformances,
		MotorPerformances:    f.motorPerformances,
		RacerPerformances:    f.racerPerformances,
		MotorMaintenances:    f.maintenances,
		Events:               f.events,
		MotorRenewals:        f.renewals,
		Racers:               f.racers,
	})
}

// A crawl backed by the stub extractors must fail with the
// not-configured error, never with a lifecycle signal: an empty result
// probe answer must not read as a cancellation.
func TestStubExtractorsRaiseNoLifecycleSignals(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	c := stubbedCrawler(f)
	ctx := context.Background()
	key := testKey()

	err := c.CrawlBeforeInformationPage(ctx, key)
	require.ErrorIs(t, err, stub.ErrNotConfigured)
	require.NotErrorIs(t, err, boatrace.ErrRaceCanceled)
	require.NotErrorIs(t, err, boatrace.ErrNoData)

	err = c.CrawlRaceResultPage(ctx, key)
	require.ErrorIs(t, err, stub.ErrNotConfigured)
	require.NotErrorIs(t, err, boatrace.ErrNoData)

	// No race was written, and none was canceled.
	_, err = f.ledger.FindByKey(ctx, key)
	require.ErrorIs(t, err, boatrace.ErrRaceNotFound)
}

func TestStubExtractorsDoNotRetireRacers(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	c := stubbedCrawler(f)
	ctx := context.Background()
	f.racers.AddIncomplete(4444)

	err := c.CrawlRacerProfilePage(ctx, 4444)
	require.ErrorIs(t, err, stub.ErrNotConfigured)
	require.NotErrorIs(t, err, boatrace.ErrDataNotFound)

	b := NewBackfiller(c, f.racers, 10, zap.NewNop())
	require.NoError(t, b.Drain(ctx))

	// The racer stays queued for a deployment with real parsers instead
	// of being terminally retired.
	_, ok := f.racers.Find(4444)
	require.False(t, ok)
	remaining, err := f.racers.FindIncomplete(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []int{4444}, remaining)
}
