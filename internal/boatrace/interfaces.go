package boatrace

import (
	"context"
	"time"
)

// Fetcher retrieves one official-site page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// FailureFunc is the error-continuation attached to a scheduled task.
// The registry invokes it with whatever signal the task raised; a
// non-nil return means the signal could not be interpreted and must be
// surfaced through the registry's own error reporting.
type FailureFunc func(ctx context.Context, taskErr error, key RaceKey) error

// TaskRunner executes one fired task.
type TaskRunner interface {
	Run(ctx context.Context, task ScheduledTask) error
}

// TaskRegistry schedules tasks at a future time and revokes them by
// identity. Submitting an identity that already has a live instance
// replaces it; revoking an already-fired or already-revoked identity is
// a no-op. Revoke never preempts a running task.
type TaskRegistry interface {
	Schedule(ctx context.Context, task ScheduledTask, onError FailureFunc) error
	Revoke(identity string)
}

// RaceLedger is the authoritative record of race identity, deadline and
// cancellation. Upsert never flips IsCanceled back to false; only an
// explicit Cancel write touches that flag.
type RaceLedger interface {
	FindByKey(ctx context.Context, key RaceKey) (Race, error)
	FindAllByDate(ctx context.Context, date time.Time) ([]Race, error)
	Upsert(ctx context.Context, race Race) error
	Cancel(ctx context.Context, key RaceKey) error
}

// RacerStore persists racer profiles and drives the backfill sweep.
type RacerStore interface {
	Upsert(ctx context.Context, racer Racer) error
	FindIncomplete(ctx context.Context, limit int) ([]int, error)
	MarkRetired(ctx context.Context, registrationNumber int) error
}

// Per-entity upsert stores. Each call is atomic; retry on failure is the
// store's own concern, not the caller's.

// RaceEntryStore persists race entries.
type RaceEntryStore interface {
	UpsertMany(ctx context.Context, entries []RaceEntry) error
}

// BoatSettingStore persists boat settings. The overwrite list names the
// columns the caller is authoritative for on conflict.
type BoatSettingStore interface {
	UpsertMany(ctx context.Context, settings []BoatSetting, overwrite []string) error
}

// StartExhibitionRecordStore persists start exhibition rows.
type StartExhibitionRecordStore interface {
	UpsertMany(ctx context.Context, records []StartExhibitionRecord) error
}

// CircumferenceExhibitionRecordStore persists lap exhibition rows.
type CircumferenceExhibitionRecordStore interface {
	UpsertMany(ctx context.Context, records []CircumferenceExhibitionRecord) error
}

// RacerConditionStore persists race-day racer conditions.
type RacerConditionStore interface {
	UpsertMany(ctx context.Context, conditions []RacerCondition) error
}

// WeatherConditionStore persists a page's weather block.
type WeatherConditionStore interface {
	Upsert(ctx context.Context, condition WeatherCondition) error
}

// OddsStore persists trifecta odds.
type OddsStore interface {
	UpsertMany(ctx context.Context, odds []Odds) error
}

// PayoffStore persists payoffs.
type PayoffStore interface {
	UpsertMany(ctx context.Context, payoffs []Payoff) error
}

// RaceRecordStore persists full result rows.
type RaceRecordStore interface {
	UpsertMany(ctx context.Context, records []RaceRecord) error
}

// WinningRaceEntryStore persists the winning subset of result rows.
type WinningRaceEntryStore interface {
	UpsertMany(ctx context.Context, records []RaceRecord) error
}

// DisqualifiedRaceEntryStore persists the disqualified subset.
type DisqualifiedRaceEntryStore interface {
	UpsertMany(ctx context.Context, records []RaceRecord) error
}

// BoatPerformanceStore persists boat contribute-rate aggregates.
type BoatPerformanceStore interface {
	UpsertMany(ctx context.Context, performances []BoatPerformance) error
}

// MotorPerformanceStore persists motor contribute-rate aggregates.
type MotorPerformanceStore interface {
	UpsertMany(ctx context.Context, performances []MotorPerformance) error
}

// RacerPerformanceStore persists racer winning-rate aggregates.
type RacerPerformanceStore interface {
	UpsertMany(ctx context.Context, performances []RacerPerformance) error
}

// MotorMaintenanceStore persists motor part exchanges.
type MotorMaintenanceStore interface {
	UpsertMany(ctx context.Context, maintenances []MotorMaintenance) error
}

// EventStore persists monthly schedule events.
type EventStore interface {
	UpsertMany(ctx context.Context, events []Event) error
}

// MotorRenewalStore persists motor pool renewals.
type MotorRenewalStore interface {
	Upsert(ctx context.Context, renewal MotorRenewal) error
}

// Publisher pushes lifecycle events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// PageArchive keeps raw fetched HTML for replay and debugging. Archival
// is fire-and-forget: failures must never fail the crawl.
type PageArchive interface {
	Save(ctx context.Context, page Page) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
