// Package memory contains in-memory stores for tests and single-node
// runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// Ledger is an in-memory boatrace.RaceLedger.
type Ledger struct {
	mu    sync.RWMutex
	races map[string]boatrace.Race
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{races: make(map[string]boatrace.Race)}
}

// Upsert stores the race. Cancellation is sticky: a later Upsert never
// clears a previously recorded IsCanceled.
func (l *Ledger) Upsert(_ context.Context, race boatrace.Race) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prior, ok := l.races[race.Key.String()]; ok && prior.IsCanceled {
		race.IsCanceled = true
	}
	l.races[race.Key.String()] = race
	return nil
}

// Cancel marks the race canceled, creating a stub when absent.
func (l *Ledger) Cancel(_ context.Context, key boatrace.RaceKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	race, ok := l.races[key.String()]
	if !ok {
		race = boatrace.Race{Key: key}
	}
	race.IsCanceled = true
	l.races[key.String()] = race
	return nil
}

// FindByKey loads one race, boatrace.ErrRaceNotFound when absent.
func (l *Ledger) FindByKey(_ context.Context, key boatrace.RaceKey) (boatrace.Race, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	race, ok := l.races[key.String()]
	if !ok {
		return boatrace.Race{}, fmt.Errorf("race %s: %w", key, boatrace.ErrRaceNotFound)
	}
	return race, nil
}

// FindAllByDate returns the date's races in stadium and race number
// order.
func (l *Ledger) FindAllByDate(_ context.Context, date time.Time) ([]boatrace.Race, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	y, m, d := date.Date()
	var races []boatrace.Race
	for _, race := range l.races {
		ry, rm, rd := race.Key.Date.Date()
		if ry == y && rm == m && rd == d {
			races = append(races, race)
		}
	}
	sort.Slice(races, func(i, j int) bool {
		a, b := races[i].Key, races[j].Key
		if a.StadiumTelCode != b.StadiumTelCode {
			return a.StadiumTelCode < b.StadiumTelCode
		}
		return a.RaceNumber < b.RaceNumber
	})
	return races, nil
}
