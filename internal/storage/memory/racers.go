package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// Racers is an in-memory boatrace.RacerStore. Incomplete numbers are
// fed in explicitly since there is no entry table to join against.
type Racers struct {
	mu         sync.RWMutex
	racers     map[int]boatrace.Racer
	incomplete map[int]struct{}
}

// NewRacers returns an empty Racers store.
func NewRacers() *Racers {
	return &Racers{
		racers:     make(map[int]boatrace.Racer),
		incomplete: make(map[int]struct{}),
	}
}

// AddIncomplete queues a registration number for backfill.
func (r *Racers) AddIncomplete(registrationNumber int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.racers[registrationNumber]; !ok {
		r.incomplete[registrationNumber] = struct{}{}
	}
}

// Upsert stores the racer and clears it from the backfill queue.
func (r *Racers) Upsert(_ context.Context, racer boatrace.Racer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.racers[racer.RegistrationNumber] = racer
	delete(r.incomplete, racer.RegistrationNumber)
	return nil
}

// FindIncomplete returns queued registration numbers in ascending
// order.
func (r *Racers) FindIncomplete(_ context.Context, limit int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	numbers := make([]int, 0, len(r.incomplete))
	for n := range r.incomplete {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	if len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers, nil
}

// MarkRetired records the terminal retired status.
func (r *Racers) MarkRetired(_ context.Context, registrationNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	racer := r.racers[registrationNumber]
	racer.RegistrationNumber = registrationNumber
	racer.Status = boatrace.RacerStatusRetired
	r.racers[registrationNumber] = racer
	delete(r.incomplete, registrationNumber)
	return nil
}

// Find returns the stored racer, if any.
func (r *Racers) Find(registrationNumber int) (boatrace.Racer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	racer, ok := r.racers[registrationNumber]
	return racer, ok
}
