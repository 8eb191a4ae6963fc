package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const racesTable = "races"

var raceConflict = []string{"stadium_tel_code", "date", "race_number"}

// Ledger implements boatrace.RaceLedger on the shared pool.
type Ledger struct {
	*base
}

// Ledger returns the race ledger store.
func (d *DB) Ledger() *Ledger {
	return &Ledger{base: &d.base}
}

func raceKeyRecord(key boatrace.RaceKey) goqu.Record {
	return goqu.Record{
		"stadium_tel_code": int(key.StadiumTelCode),
		"date":             key.Date,
		"race_number":      key.RaceNumber,
	}
}

func withRaceKey(key boatrace.RaceKey, rest goqu.Record) goqu.Record {
	row := raceKeyRecord(key)
	for col, val := range rest {
		row[col] = val
	}
	return row
}

// Upsert writes the race row. is_canceled is deliberately absent from
// both insert and update: only Cancel touches that flag, so a re-crawl
// can never resurrect a canceled race.
func (l *Ledger) Upsert(ctx context.Context, race boatrace.Race) error {
	row := withRaceKey(race.Key, goqu.Record{
		"title":               race.Title,
		"number_of_laps":      race.NumberOfLaps,
		"is_course_fixed":     race.IsCourseFixed,
		"is_stabilizer_used":  race.IsStabilizerUsed,
		"betting_deadline_at": race.BettingDeadlineAt,
	})
	update := []string{"title", "number_of_laps", "is_course_fixed", "is_stabilizer_used", "betting_deadline_at"}
	return l.upsertOne(ctx, racesTable, row, raceConflict, update)
}

// Cancel marks the race canceled, inserting a stub row when the race
// was never crawled.
func (l *Ledger) Cancel(ctx context.Context, key boatrace.RaceKey) error {
	row := withRaceKey(key, goqu.Record{"is_canceled": true})
	return l.upsertOne(ctx, racesTable, row, raceConflict, []string{"is_canceled"})
}

// FindByKey loads one race, boatrace.ErrRaceNotFound when absent.
func (l *Ledger) FindByKey(ctx context.Context, key boatrace.RaceKey) (boatrace.Race, error) {
	sql, args, err := l.strategy.Dialect().From(racesTable).Prepared(true).
		Select("title", "number_of_laps", "is_course_fixed", "is_stabilizer_used", "betting_deadline_at", "is_canceled").
		Where(goqu.Ex(raceKeyRecord(key))).
		ToSQL()
	if err != nil {
		return boatrace.Race{}, fmt.Errorf("render race select: %w", err)
	}
	race := boatrace.Race{Key: key}
	err = l.db.QueryRow(ctx, sql, args...).Scan(
		&race.Title,
		&race.NumberOfLaps,
		&race.IsCourseFixed,
		&race.IsStabilizerUsed,
		&race.BettingDeadlineAt,
		&race.IsCanceled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return boatrace.Race{}, fmt.Errorf("race %s: %w", key, boatrace.ErrRaceNotFound)
	}
	if err != nil {
		return boatrace.Race{}, fmt.Errorf("select race %s: %w", key, err)
	}
	return race, nil
}

// FindAllByDate loads every race held on the date in stadium and race
// number order.
func (l *Ledger) FindAllByDate(ctx context.Context, date time.Time) ([]boatrace.Race, error) {
	sql, args, err := l.strategy.Dialect().From(racesTable).Prepared(true).
		Select("stadium_tel_code", "date", "race_number",
			"title", "number_of_laps", "is_course_fixed", "is_stabilizer_used", "betting_deadline_at", "is_canceled").
		Where(goqu.Ex{"date": date}).
		Order(goqu.I("stadium_tel_code").Asc(), goqu.I("race_number").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("render races select: %w", err)
	}
	rows, err := l.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select races for %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var races []boatrace.Race
	for rows.Next() {
		var race boatrace.Race
		var telCode int
		if err := rows.Scan(
			&telCode,
			&race.Key.Date,
			&race.Key.RaceNumber,
			&race.Title,
			&race.NumberOfLaps,
			&race.IsCourseFixed,
			&race.IsStabilizerUsed,
			&race.BettingDeadlineAt,
			&race.IsCanceled,
		); err != nil {
			return nil, fmt.Errorf("scan race row: %w", err)
		}
		race.Key.StadiumTelCode = boatrace.StadiumTelCode(telCode)
		races = append(races, race)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate race rows: %w", err)
	}
	return races, nil
}
