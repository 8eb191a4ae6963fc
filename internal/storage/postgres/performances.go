package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const (
	boatPerformancesTable  = "boat_performances"
	motorPerformancesTable = "motor_performances"
	racerPerformancesTable = "racer_performances"
)

// BoatPerformances persists boat contribute-rate aggregates.
type BoatPerformances struct{ *base }

// BoatPerformances returns the boat performance store.
func (d *DB) BoatPerformances() *BoatPerformances { return &BoatPerformances{base: &d.base} }

func (s *BoatPerformances) UpsertMany(ctx context.Context, performances []boatrace.BoatPerformance) error {
	rows := make([]goqu.Record, 0, len(performances))
	for _, p := range performances {
		rows = append(rows, goqu.Record{
			"stadium_tel_code": int(p.StadiumTelCode),
			"boat_number":      p.BoatNumber,
			"recorded_date":    p.RecordedDate,
			"quinella_rate":    p.QuinellaRate,
			"trio_rate":        p.TrioRate,
		})
	}
	conflict := []string{"stadium_tel_code", "boat_number", "recorded_date"}
	return s.upsertMany(ctx, boatPerformancesTable, rows, conflict, []string{"quinella_rate", "trio_rate"})
}

// MotorPerformances persists motor contribute-rate aggregates.
type MotorPerformances struct{ *base }

// MotorPerformances returns the motor performance store.
func (d *DB) MotorPerformances() *MotorPerformances { return &MotorPerformances{base: &d.base} }

func (s *MotorPerformances) UpsertMany(ctx context.Context, performances []boatrace.MotorPerformance) error {
	rows := make([]goqu.Record, 0, len(performances))
	for _, p := range performances {
		rows = append(rows, goqu.Record{
			"stadium_tel_code": int(p.StadiumTelCode),
			"motor_number":     p.MotorNumber,
			"recorded_date":    p.RecordedDate,
			"quinella_rate":    p.QuinellaRate,
			"trio_rate":        p.TrioRate,
		})
	}
	conflict := []string{"stadium_tel_code", "motor_number", "recorded_date"}
	return s.upsertMany(ctx, motorPerformancesTable, rows, conflict, []string{"quinella_rate", "trio_rate"})
}

// RacerPerformances persists racer winning-rate aggregates.
type RacerPerformances struct{ *base }

// RacerPerformances returns the racer performance store.
func (d *DB) RacerPerformances() *RacerPerformances { return &RacerPerformances{base: &d.base} }

func (s *RacerPerformances) UpsertMany(ctx context.Context, performances []boatrace.RacerPerformance) error {
	rows := make([]goqu.Record, 0, len(performances))
	for _, p := range performances {
		rows = append(rows, goqu.Record{
			"racer_registration_number":   p.RacerRegistrationNumber,
			"aggregated_on":               p.AggregatedOn,
			"rate_in_all_stadium":         p.RateInAllStadium,
			"rate_in_event_going_stadium": p.RateInEventGoingStadium,
		})
	}
	conflict := []string{"racer_registration_number", "aggregated_on"}
	update := []string{"rate_in_all_stadium", "rate_in_event_going_stadium"}
	return s.upsertMany(ctx, racerPerformancesTable, rows, conflict, update)
}
