package crawl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

func TestCrawlRacerProfilePage(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	f.ex.racerProfile = func() (boatrace.Racer, error) {
		return boatrace.Racer{RegistrationNumber: 4444, LastName: "racer", Term: 100}, nil
	}

	require.NoError(t, f.crawler.CrawlRacerProfilePage(context.Background(), 4444))

	racer, ok := f.racers.Find(4444)
	require.True(t, ok)
	require.Equal(t, boatrace.RacerStatusActive, racer.Status)
	require.Contains(t, f.fetcher.urls[0], "toban=4444")
}

func TestCrawlRacerProfilePageGoneIsDataNotFound(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	f.ex.racerProfile = func() (boatrace.Racer, error) {
		return boatrace.Racer{}, fmt.Errorf("profile table: %w", boatrace.ErrNoData)
	}

	err := f.crawler.CrawlRacerProfilePage(context.Background(), 4444)
	require.ErrorIs(t, err, boatrace.ErrDataNotFound)

	_, ok := f.racers.Find(4444)
	require.False(t, ok)
}

func TestBackfillerDrainMarksGoneRacersRetired(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	f.racers.AddIncomplete(4444)
	f.racers.AddIncomplete(5555)

	// FindIncomplete returns ascending order, so the first call is 4444.
	calls := 0
	f.ex.racerProfile = func() (boatrace.Racer, error) {
		calls++
		if calls == 1 {
			return boatrace.Racer{}, fmt.Errorf("profile table: %w", boatrace.ErrNoData)
		}
		return boatrace.Racer{RegistrationNumber: 5555, LastName: "racer"}, nil
	}

	b := NewBackfiller(f.crawler, f.racers, 10, zap.NewNop())
	require.NoError(t, b.Drain(context.Background()))

	retired, ok := f.racers.Find(4444)
	require.True(t, ok)
	require.Equal(t, boatrace.RacerStatusRetired, retired.Status)

	active, ok := f.racers.Find(5555)
	require.True(t, ok)
	require.Equal(t, boatrace.RacerStatusActive, active.Status)

	remaining, err := f.racers.FindIncomplete(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestBackfillerDrainContinuesPastFailures(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	f.racers.AddIncomplete(4444)
	f.racers.AddIncomplete(5555)

	calls := 0
	f.ex.racerProfile = func() (boatrace.Racer, error) {
		calls++
		if calls == 1 {
			return boatrace.Racer{}, errors.New("connection reset")
		}
		return boatrace.Racer{RegistrationNumber: 5555}, nil
	}

	b := NewBackfiller(f.crawler, f.racers, 10, zap.NewNop())
	require.NoError(t, b.Drain(context.Background()))

	// The failed racer stays queued for the next sweep.
	remaining, err := f.racers.FindIncomplete(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, []int{4444}, remaining)
}

func TestBackfillerDrainRespectsBatchSize(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	for number := 4000; number < 4005; number++ {
		f.racers.AddIncomplete(number)
	}
	f.ex.racerProfile = func() (boatrace.Racer, error) {
		return boatrace.Racer{}, fmt.Errorf("profile table: %w", boatrace.ErrNoData)
	}

	b := NewBackfiller(f.crawler, f.racers, 2, zap.NewNop())
	require.NoError(t, b.Drain(context.Background()))
	require.Len(t, f.fetcher.urls, 2)
}

func TestBackfillerDrainEmptyQueue(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture()
	b := NewBackfiller(f.crawler, f.racers, 10, zap.NewNop())
	require.NoError(t, b.Drain(context.Background()))
	require.Empty(t, f.fetcher.urls)
}
