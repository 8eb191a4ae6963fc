package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const (
	eventsTable        = "events"
	motorRenewalsTable = "motor_renewals"
)

// Events persists monthly schedule events.
type Events struct{ *base }

// Events returns the event store.
func (d *DB) Events() *Events { return &Events{base: &d.base} }

func (s *Events) UpsertMany(ctx context.Context, events []boatrace.Event) error {
	rows := make([]goqu.Record, 0, len(events))
	for _, e := range events {
		rows = append(rows, goqu.Record{
			"stadium_tel_code": int(e.StadiumTelCode),
			"starts_on":        e.StartsOn,
			"days":             e.Days,
			"grade":            e.Grade,
			"title":            e.Title,
		})
	}
	conflict := []string{"stadium_tel_code", "starts_on"}
	return s.upsertMany(ctx, eventsTable, rows, conflict, []string{"days", "grade", "title"})
}

// MotorRenewals persists motor pool renewal markers. The row carries no
// payload beyond its key, so duplicates are simply ignored.
type MotorRenewals struct{ *base }

// MotorRenewals returns the motor renewal store.
func (d *DB) MotorRenewals() *MotorRenewals { return &MotorRenewals{base: &d.base} }

func (s *MotorRenewals) Upsert(ctx context.Context, renewal boatrace.MotorRenewal) error {
	row := goqu.Record{
		"stadium_tel_code": int(renewal.StadiumTelCode),
		"date":             renewal.Date,
	}
	return s.upsertOne(ctx, motorRenewalsTable, row, []string{"stadium_tel_code", "date"}, nil)
}
