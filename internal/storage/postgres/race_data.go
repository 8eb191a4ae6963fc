package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

const (
	raceEntriesTable         = "race_entries"
	boatSettingsTable        = "boat_settings"
	startExhibitionsTable    = "start_exhibition_records"
	circumferenceTable       = "circumference_exhibition_records"
	racerConditionsTable     = "racer_conditions"
	weatherConditionsTable   = "weather_conditions"
	oddsTable                = "odds"
	payoffsTable             = "payoffs"
	raceRecordsTable         = "race_records"
	winningEntriesTable      = "winning_race_entries"
	disqualifiedEntriesTable = "disqualified_race_entries"
	motorMaintenancesTable   = "motor_maintenances"
)

var pitConflict = []string{"stadium_tel_code", "date", "race_number", "pit_number"}

// RaceEntries persists race entries.
type RaceEntries struct{ *base }

// RaceEntries returns the race entry store.
func (d *DB) RaceEntries() *RaceEntries { return &RaceEntries{base: &d.base} }

func (s *RaceEntries) UpsertMany(ctx context.Context, entries []boatrace.RaceEntry) error {
	rows := make([]goqu.Record, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, withRaceKey(e.Key, goqu.Record{
			"pit_number":                e.PitNumber,
			"racer_registration_number": e.RacerRegistrationNumber,
			"boat_number":               e.BoatNumber,
			"motor_number":              e.MotorNumber,
		}))
	}
	update := []string{"racer_registration_number", "boat_number", "motor_number"}
	return s.upsertMany(ctx, raceEntriesTable, rows, pitConflict, update)
}

// BoatSettings persists per-pit equipment state. The caller names the
// columns it is authoritative for; everything else survives the
// conflict untouched.
type BoatSettings struct{ *base }

// BoatSettings returns the boat setting store.
func (d *DB) BoatSettings() *BoatSettings { return &BoatSettings{base: &d.base} }

func (s *BoatSettings) UpsertMany(ctx context.Context, settings []boatrace.BoatSetting, overwrite []string) error {
	if len(overwrite) == 0 {
		return fmt.Errorf("boat settings upsert needs an overwrite list")
	}
	rows := make([]goqu.Record, 0, len(settings))
	for _, b := range settings {
		rows = append(rows, withRaceKey(b.Key, goqu.Record{
			"pit_number":           b.PitNumber,
			"boat_number":          b.BoatNumber,
			"motor_number":         b.MotorNumber,
			"tilt":                 b.Tilt,
			"is_propeller_renewed": b.IsPropellerRenewed,
		}))
	}
	return s.upsertMany(ctx, boatSettingsTable, rows, pitConflict, overwrite)
}

// StartExhibitions persists practice starts.
type StartExhibitions struct{ *base }

// StartExhibitions returns the start exhibition store.
func (d *DB) StartExhibitions() *StartExhibitions { return &StartExhibitions{base: &d.base} }

func (s *StartExhibitions) UpsertMany(ctx context.Context, records []boatrace.StartExhibitionRecord) error {
	rows := make([]goqu.Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, withRaceKey(r.Key, goqu.Record{
			"pit_number":    r.PitNumber,
			"course_number": r.CourseNumber,
			"start_time":    r.StartTime,
		}))
	}
	return s.upsertMany(ctx, startExhibitionsTable, rows, pitConflict, []string{"course_number", "start_time"})
}

// CircumferenceExhibitions persists practice lap times.
type CircumferenceExhibitions struct{ *base }

// CircumferenceExhibitions returns the lap exhibition store.
func (d *DB) CircumferenceExhibitions() *CircumferenceExhibitions {
	return &CircumferenceExhibitions{base: &d.base}
}

func (s *CircumferenceExhibitions) UpsertMany(ctx context.Context, records []boatrace.CircumferenceExhibitionRecord) error {
	rows := make([]goqu.Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, withRaceKey(r.Key, goqu.Record{
			"pit_number":      r.PitNumber,
			"exhibition_time": r.ExhibitionTime,
		}))
	}
	return s.upsertMany(ctx, circumferenceTable, rows, pitConflict, []string{"exhibition_time"})
}

// RacerConditions persists race-day weight and adjust.
type RacerConditions struct{ *base }

// RacerConditions returns the racer condition store.
func (d *DB) RacerConditions() *RacerConditions { return &RacerConditions{base: &d.base} }

func (s *RacerConditions) UpsertMany(ctx context.Context, conditions []boatrace.RacerCondition) error {
	rows := make([]goqu.Record, 0, len(conditions))
	for _, c := range conditions {
		rows = append(rows, withRaceKey(c.Key, goqu.Record{
			"racer_registration_number": c.RacerRegistrationNumber,
			"weight":                    c.Weight,
			"adjust":                    c.Adjust,
		}))
	}
	conflict := []string{"stadium_tel_code", "date", "race_number", "racer_registration_number"}
	return s.upsertMany(ctx, racerConditionsTable, rows, conflict, []string{"weight", "adjust"})
}

// WeatherConditions persists a race page's weather block. Exhibition
// and in-performance readings are distinct rows.
type WeatherConditions struct{ *base }

// WeatherConditions returns the weather condition store.
func (d *DB) WeatherConditions() *WeatherConditions { return &WeatherConditions{base: &d.base} }

func (s *WeatherConditions) Upsert(ctx context.Context, condition boatrace.WeatherCondition) error {
	row := withRaceKey(condition.Key, goqu.Record{
		"in_performance":    condition.InPerformance,
		"weather":           condition.Weather,
		"wind_velocity":     condition.WindVelocity,
		"wind_angle":        condition.WindAngle,
		"wavelength":        condition.Wavelength,
		"air_temperature":   condition.AirTemp,
		"water_temperature": condition.WaterTemp,
	})
	conflict := []string{"stadium_tel_code", "date", "race_number", "in_performance"}
	update := []string{"weather", "wind_velocity", "wind_angle", "wavelength", "air_temperature", "water_temperature"}
	return s.upsertOne(ctx, weatherConditionsTable, row, conflict, update)
}

// OddsStore persists trifecta odds.
type OddsStore struct{ *base }

// Odds returns the odds store.
func (d *DB) Odds() *OddsStore { return &OddsStore{base: &d.base} }

func (s *OddsStore) UpsertMany(ctx context.Context, odds []boatrace.Odds) error {
	rows := make([]goqu.Record, 0, len(odds))
	for _, o := range odds {
		rows = append(rows, withRaceKey(o.Key, goqu.Record{
			"first_pit_number":  o.FirstPit,
			"second_pit_number": o.SecondPit,
			"third_pit_number":  o.ThirdPit,
			"ratio":             o.Ratio,
		}))
	}
	conflict := []string{"stadium_tel_code", "date", "race_number", "first_pit_number", "second_pit_number", "third_pit_number"}
	return s.upsertMany(ctx, oddsTable, rows, conflict, []string{"ratio"})
}

// Payoffs persists payouts.
type Payoffs struct{ *base }

// Payoffs returns the payoff store.
func (d *DB) Payoffs() *Payoffs { return &Payoffs{base: &d.base} }

func (s *Payoffs) UpsertMany(ctx context.Context, payoffs []boatrace.Payoff) error {
	rows := make([]goqu.Record, 0, len(payoffs))
	for _, p := range payoffs {
		rows = append(rows, withRaceKey(p.Key, goqu.Record{
			"betting_method": p.BettingMethod,
			"betting_number": p.BettingNumber,
			"amount":         p.Amount,
		}))
	}
	conflict := []string{"stadium_tel_code", "date", "race_number", "betting_method", "betting_number"}
	return s.upsertMany(ctx, payoffsTable, rows, conflict, []string{"amount"})
}

// RaceRecords persists full result rows.
type RaceRecords struct{ *base }

// RaceRecords returns the race record store.
func (d *DB) RaceRecords() *RaceRecords { return &RaceRecords{base: &d.base} }

func (s *RaceRecords) UpsertMany(ctx context.Context, records []boatrace.RaceRecord) error {
	rows := make([]goqu.Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, withRaceKey(r.Key, goqu.Record{
			"pit_number":       r.PitNumber,
			"course_number":    r.CourseNumber,
			"start_time":       r.StartTime,
			"race_time":        r.RaceTime,
			"arrival":          r.Arrival,
			"winning_trick":    r.WinningTrick,
			"disqualification": r.Disqualification,
		}))
	}
	update := []string{"course_number", "start_time", "race_time", "arrival", "winning_trick", "disqualification"}
	return s.upsertMany(ctx, raceRecordsTable, rows, pitConflict, update)
}

// WinningEntries persists the winning subset of result rows.
type WinningEntries struct{ *base }

// WinningEntries returns the winning entry store.
func (d *DB) WinningEntries() *WinningEntries { return &WinningEntries{base: &d.base} }

func (s *WinningEntries) UpsertMany(ctx context.Context, records []boatrace.RaceRecord) error {
	rows := make([]goqu.Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, withRaceKey(r.Key, goqu.Record{
			"pit_number":    r.PitNumber,
			"winning_trick": r.WinningTrick,
		}))
	}
	return s.upsertMany(ctx, winningEntriesTable, rows, pitConflict, []string{"winning_trick"})
}

// DisqualifiedEntries persists the disqualified subset of result rows.
type DisqualifiedEntries struct{ *base }

// DisqualifiedEntries returns the disqualified entry store.
func (d *DB) DisqualifiedEntries() *DisqualifiedEntries { return &DisqualifiedEntries{base: &d.base} }

func (s *DisqualifiedEntries) UpsertMany(ctx context.Context, records []boatrace.RaceRecord) error {
	rows := make([]goqu.Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, withRaceKey(r.Key, goqu.Record{
			"pit_number":       r.PitNumber,
			"disqualification": r.Disqualification,
		}))
	}
	return s.upsertMany(ctx, disqualifiedEntriesTable, rows, pitConflict, []string{"disqualification"})
}

// MotorMaintenances persists part exchanges. The part list is stored as
// a json column since the set of parts varies per exchange.
type MotorMaintenances struct{ *base }

// MotorMaintenances returns the motor maintenance store.
func (d *DB) MotorMaintenances() *MotorMaintenances { return &MotorMaintenances{base: &d.base} }

func (s *MotorMaintenances) UpsertMany(ctx context.Context, maintenances []boatrace.MotorMaintenance) error {
	rows := make([]goqu.Record, 0, len(maintenances))
	for _, m := range maintenances {
		parts, err := json.Marshal(m.ExchangedParts)
		if err != nil {
			return fmt.Errorf("marshal exchanged parts: %w", err)
		}
		rows = append(rows, withRaceKey(m.Key, goqu.Record{
			"motor_number":    m.MotorNumber,
			"exchanged_parts": parts,
		}))
	}
	conflict := []string{"stadium_tel_code", "date", "race_number", "motor_number"}
	return s.upsertMany(ctx, motorMaintenancesTable, rows, conflict, []string{"exchanged_parts"})
}
