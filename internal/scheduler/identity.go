package scheduler

import (
	"fmt"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// ReschedulePrefix distinguishes a rescheduled task's identity from the
// original submission so a late duplicate signal revoking the originals
// cannot cancel the rescheduled instances.
const ReschedulePrefix = "rescheduled"

// Identity derives the registry identity for a (kind, raceKey) pair.
// The format is fixed: optional prefix, kind, zero-padded date, stadium
// and race number. Revocation relies on exact string equality, so the
// field order and padding must never drift.
func Identity(kind boatrace.TaskKind, key boatrace.RaceKey, prefix string) string {
	id := fmt.Sprintf("%s:%s:%02d:%02d", kind, key.Date.Format("20060102"), key.StadiumTelCode, key.RaceNumber)
	if prefix == "" {
		return id
	}
	return prefix + ":" + id
}
