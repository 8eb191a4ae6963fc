package boatrace

import (
	"errors"
	"fmt"
	"time"
)

// Lifecycle signals raised by crawl tasks and consumed by the scheduler's
// failure handler. They are typed errors rather than an exception
// hierarchy so the handler can match them exhaustively; anything that is
// none of these is treated as unknown and re-raised.
var (
	// ErrRaceCanceled means the page revealed the race will not run.
	ErrRaceCanceled = errors.New("race canceled")

	// ErrNoData means the page rendered without the expected section.
	ErrNoData = errors.New("no data on page")

	// ErrDataNotFound means the entity itself does not exist upstream
	// (e.g. a retired racer's profile page).
	ErrDataNotFound = errors.New("data not found")

	// ErrRaceNotFound is returned by ledger lookups for unknown keys.
	ErrRaceNotFound = errors.New("race not found")
)

// DeadlineChangedError is raised by the information task when the page
// shows a betting deadline different from the one its own eta was
// computed against.
type DeadlineChangedError struct {
	Key         RaceKey
	NewDeadline time.Time
}

func (e *DeadlineChangedError) Error() string {
	return fmt.Sprintf("betting deadline for race %s changed to %s", e.Key, e.NewDeadline.Format(time.RFC3339))
}

// IncompleteDataError marks a partial success: earlier writes for the
// task have already committed and must not be rolled back. The failure
// handler logs it and does nothing else.
type IncompleteDataError struct {
	Reason string
	Err    error
}

func (e *IncompleteDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("incomplete data (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("incomplete data (%s)", e.Reason)
}

func (e *IncompleteDataError) Unwrap() error { return e.Err }
