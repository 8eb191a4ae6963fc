package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/metrics"
)

// rescheduleKinds are the tasks re-submitted after a deadline change.
// The information task is the one that detects the change, so it has
// already fired and is never re-run.
var rescheduleKinds = []boatrace.TaskKind{
	boatrace.TaskBeforeInformation,
	boatrace.TaskOdds,
	boatrace.TaskRaceResult,
}

// HandleTaskFailure is the error-continuation attached to every task
// submission. It matches the lifecycle signals exhaustively; anything
// else is unknown and returned unmodified for the registry to report.
func (s *RaceScheduler) HandleTaskFailure(ctx context.Context, taskErr error, key boatrace.RaceKey) error {
	var deadlineChanged *boatrace.DeadlineChangedError
	var incomplete *boatrace.IncompleteDataError

	switch {
	case errors.Is(taskErr, boatrace.ErrRaceCanceled):
		metrics.LifecycleSignal("canceled")
		return s.handleRaceCanceled(ctx, key)

	case errors.As(taskErr, &deadlineChanged):
		metrics.LifecycleSignal("deadline_changed")
		return s.handleDeadlineChanged(ctx, key, deadlineChanged.NewDeadline)

	case errors.As(taskErr, &incomplete):
		metrics.LifecycleSignal("incomplete_data")
		s.logger.Warn("task finished with incomplete data",
			zap.String("race", key.String()),
			zap.Error(taskErr),
		)
		return nil

	default:
		metrics.LifecycleSignal("unknown")
		return taskErr
	}
}

// handleRaceCanceled marks the race canceled in the ledger, then
// revokes every not-yet-fired task for the race. Revoking is idempotent
// so already-fired kinds and identities that were never scheduled are
// harmless.
func (s *RaceScheduler) handleRaceCanceled(ctx context.Context, key boatrace.RaceKey) error {
	if err := s.ledger.Cancel(ctx, key); err != nil {
		return fmt.Errorf("cancel race %s in ledger: %w", key, err)
	}
	for _, kind := range boatrace.TaskKinds {
		s.registry.Revoke(Identity(kind, key, ""))
		s.registry.Revoke(Identity(kind, key, ReschedulePrefix))
		metrics.TaskRevoked(string(kind))
	}
	metrics.RaceCanceled()
	s.logger.Info("race canceled, pending tasks revoked", zap.String("race", key.String()))
	s.publishEvent(ctx, "race_canceled", key, nil)
	return nil
}

// handleDeadlineChanged revokes the still-pending original tasks and
// re-submits them at offsets from the new deadline under rescheduled
// identities, then records the new deadline in the ledger.
func (s *RaceScheduler) handleDeadlineChanged(ctx context.Context, key boatrace.RaceKey, newDeadline time.Time) error {
	for _, kind := range rescheduleKinds {
		s.registry.Revoke(Identity(kind, key, ""))
		metrics.TaskRevoked(string(kind))
	}

	if err := s.recordNewDeadline(ctx, key, newDeadline); err != nil {
		return err
	}

	for _, kind := range rescheduleKinds {
		task := boatrace.ScheduledTask{
			Kind:     kind,
			Key:      key,
			ETA:      newDeadline.Add(boatrace.TaskOffset(kind)),
			Identity: Identity(kind, key, ReschedulePrefix),
		}
		if err := s.registry.Schedule(ctx, task, s.HandleTaskFailure); err != nil {
			return fmt.Errorf("reschedule %s task for race %s: %w", kind, key, err)
		}
		metrics.TaskRescheduled(string(kind))
	}
	s.logger.Info("race deadline changed, tasks rescheduled",
		zap.String("race", key.String()),
		zap.Time("new_deadline", newDeadline),
	)
	s.publishEvent(ctx, "deadline_changed", key, &newDeadline)
	return nil
}

func (s *RaceScheduler) recordNewDeadline(ctx context.Context, key boatrace.RaceKey, newDeadline time.Time) error {
	race, err := s.ledger.FindByKey(ctx, key)
	switch {
	case errors.Is(err, boatrace.ErrRaceNotFound):
		// The information crawl that detected the change may not have
		// written the race yet; record what we know.
		race = boatrace.Race{Key: key, NumberOfLaps: 3}
	case err != nil:
		return fmt.Errorf("find race %s: %w", key, err)
	}
	race.BettingDeadlineAt = &newDeadline
	if err := s.ledger.Upsert(ctx, race); err != nil {
		return fmt.Errorf("record new deadline for race %s: %w", key, err)
	}
	return nil
}

func (s *RaceScheduler) publishEvent(ctx context.Context, event string, key boatrace.RaceKey, newDeadline *time.Time) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"event_id":         uuid.NewString(),
		"event":            event,
		"stadium_tel_code": int(key.StadiumTelCode),
		"date":             key.Date.Format("2006-01-02"),
		"race_number":      key.RaceNumber,
		"occurred_at":      s.clock.Now().Format(time.RFC3339),
	}
	if newDeadline != nil {
		payload["new_deadline"] = newDeadline.Format(time.RFC3339)
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		// Publishing is best-effort; the ledger and registry already
		// reflect the new state.
		s.logger.Warn("lifecycle event publish failed",
			zap.String("event", event),
			zap.String("race", key.String()),
			zap.Error(err),
		)
	}
}
