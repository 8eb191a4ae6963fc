// Package scheduler computes and submits the per-race crawl tasks and
// keeps them consistent with ground truth discovered as they execute.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/metrics"
)

// ErrNoRacesToday is fatal for a day's scheduling run: an empty race
// list on a day races are expected means upstream discovery is broken.
var ErrNoRacesToday = errors.New("no races found for date")

// ErrDeadlineUnknown means ScheduleRaceTasks was called before the
// race's betting deadline was recorded.
var ErrDeadlineUnknown = errors.New("race has no betting deadline")

// RaceScheduler submits the four page-crawl tasks for each race at
// fixed offsets from the betting deadline and reacts to lifecycle
// signals raised by those tasks.
type RaceScheduler struct {
	registry  boatrace.TaskRegistry
	ledger    boatrace.RaceLedger
	publisher boatrace.Publisher
	topic     string
	clock     boatrace.Clock
	logger    *zap.Logger
}

// New constructs a RaceScheduler. The publisher is optional; when nil,
// lifecycle events are only logged.
func New(
	registry boatrace.TaskRegistry,
	ledger boatrace.RaceLedger,
	publisher boatrace.Publisher,
	topic string,
	clock boatrace.Clock,
	logger *zap.Logger,
) *RaceScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RaceScheduler{
		registry:  registry,
		ledger:    ledger,
		publisher: publisher,
		topic:     topic,
		clock:     clock,
		logger:    logger,
	}
}

// ScheduleRaceTasks submits one task per kind for the race, each with a
// deterministic identity so a duplicate call replaces rather than
// duplicates. The race's betting deadline must already be known.
func (s *RaceScheduler) ScheduleRaceTasks(ctx context.Context, race boatrace.Race) error {
	if race.BettingDeadlineAt == nil {
		return fmt.Errorf("schedule race %s: %w", race.Key, ErrDeadlineUnknown)
	}
	deadline := *race.BettingDeadlineAt
	for _, kind := range boatrace.TaskKinds {
		task := boatrace.ScheduledTask{
			Kind:     kind,
			Key:      race.Key,
			ETA:      deadline.Add(boatrace.TaskOffset(kind)),
			Identity: Identity(kind, race.Key, ""),
		}
		if err := s.registry.Schedule(ctx, task, s.HandleTaskFailure); err != nil {
			return fmt.Errorf("schedule %s task for race %s: %w", kind, race.Key, err)
		}
		metrics.TaskScheduled(string(kind))
		s.logger.Debug("task scheduled",
			zap.String("kind", string(kind)),
			zap.String("race", race.Key.String()),
			zap.Time("eta", task.ETA),
			zap.String("identity", task.Identity),
		)
	}
	return nil
}

// ScheduleAllRacesToday reads every race held on the date from the
// ledger and schedules its tasks. An empty ledger for the date is a
// hard error; races already canceled or still missing a deadline are
// skipped with a log line.
func (s *RaceScheduler) ScheduleAllRacesToday(ctx context.Context, date time.Time) error {
	races, err := s.ledger.FindAllByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("find races for %s: %w", date.Format("2006-01-02"), err)
	}
	if len(races) == 0 {
		return fmt.Errorf("%w: %s", ErrNoRacesToday, date.Format("2006-01-02"))
	}

	scheduled := 0
	for _, race := range races {
		if race.IsCanceled {
			s.logger.Info("skipping canceled race", zap.String("race", race.Key.String()))
			continue
		}
		if race.BettingDeadlineAt == nil {
			s.logger.Warn("race has no deadline yet, not scheduling", zap.String("race", race.Key.String()))
			continue
		}
		if err := s.ScheduleRaceTasks(ctx, race); err != nil {
			return err
		}
		scheduled++
	}
	s.logger.Info("scheduled races for date",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("races", scheduled),
	)
	return nil
}
