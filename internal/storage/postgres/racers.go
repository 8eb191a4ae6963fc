package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const racersTable = "racers"

var racerConflict = []string{"registration_number"}

// Racers implements boatrace.RacerStore on the shared pool.
type Racers struct {
	*base
}

// Racers returns the racer store.
func (d *DB) Racers() *Racers {
	return &Racers{base: &d.base}
}

// Upsert writes one racer profile.
func (r *Racers) Upsert(ctx context.Context, racer boatrace.Racer) error {
	row := goqu.Record{
		"registration_number": racer.RegistrationNumber,
		"last_name":           racer.LastName,
		"first_name":          racer.FirstName,
		"gender":              racer.Gender,
		"term":                racer.Term,
		"birth_date":          racer.BirthDate,
		"branch_id":           racer.BranchID,
		"birth_prefecture_id": racer.BirthPrefectureID,
		"height":              racer.Height,
		"status":              string(racer.Status),
	}
	update := []string{"last_name", "first_name", "gender", "term", "birth_date", "branch_id", "birth_prefecture_id", "height", "status"}
	return r.upsertOne(ctx, racersTable, row, racerConflict, update)
}

// FindIncomplete returns registration numbers that appear in race
// entries but have no crawled profile yet, oldest registration first.
func (r *Racers) FindIncomplete(ctx context.Context, limit int) ([]int, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	sql, args, err := r.strategy.Dialect().
		From(goqu.T(raceEntriesTable).As("e")).Prepared(true).
		Select(goqu.I("e.racer_registration_number")).Distinct().
		LeftJoin(
			goqu.T(racersTable).As("r"),
			goqu.On(goqu.I("r.registration_number").Eq(goqu.I("e.racer_registration_number"))),
		).
		Where(goqu.I("r.registration_number").IsNull()).
		Order(goqu.I("e.racer_registration_number").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("render incomplete racers select: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select incomplete racers: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan registration number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration numbers: %w", err)
	}
	return numbers, nil
}

// MarkRetired records the terminal retired status, inserting a stub
// profile when none exists so the backfill never selects the number
// again.
func (r *Racers) MarkRetired(ctx context.Context, registrationNumber int) error {
	row := goqu.Record{
		"registration_number": registrationNumber,
		"status":              string(boatrace.RacerStatusRetired),
	}
	return r.upsertOne(ctx, racersTable, row, racerConflict, []string{"status"})
}
