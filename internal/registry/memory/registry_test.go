package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/clock/system"
)

type countingRunner struct {
	mu   sync.Mutex
	runs []boatrace.ScheduledTask
	err  error
}

func (r *countingRunner) Run(_ context.Context, task boatrace.ScheduledTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, task)
	return r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func newTestRegistry(t *testing.T, runner boatrace.TaskRunner) *Registry {
	t.Helper()
	r := New(runner, system.New(), zap.NewNop())
	t.Cleanup(r.Close)
	return r
}

func task(identity string, eta time.Time) boatrace.ScheduledTask {
	return boatrace.ScheduledTask{
		Kind: boatrace.TaskOdds,
		Key: boatrace.RaceKey{
			StadiumTelCode: 4,
			Date:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			RaceNumber:     7,
		},
		ETA:      eta,
		Identity: identity,
	}
}

func TestScheduleFiresAtETA(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	r := newTestRegistry(t, runner)

	err := r.Schedule(context.Background(), task("odds:1", time.Now().Add(20*time.Millisecond)), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Empty(t, r.Pending())
}

func TestSchedulePastETAFiresImmediately(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	r := newTestRegistry(t, runner)

	err := r.Schedule(context.Background(), task("odds:1", time.Now().Add(-time.Minute)), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduleRequiresIdentity(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, &countingRunner{})
	err := r.Schedule(context.Background(), task("", time.Now()), nil)
	require.Error(t, err)
}

func TestScheduleSameIdentityReplaces(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	r := newTestRegistry(t, runner)
	ctx := context.Background()

	require.NoError(t, r.Schedule(ctx, task("odds:1", time.Now().Add(50*time.Millisecond)), nil))
	require.NoError(t, r.Schedule(ctx, task("odds:1", time.Now().Add(20*time.Millisecond)), nil))
	require.Len(t, r.Pending(), 1)

	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	// The replaced timer must not fire a second run.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, runner.count())
}

func TestRevokePreventsFiring(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	r := newTestRegistry(t, runner)

	require.NoError(t, r.Schedule(context.Background(), task("odds:1", time.Now().Add(30*time.Millisecond)), nil))
	r.Revoke("odds:1")
	require.Empty(t, r.Pending())

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, 0, runner.count())
}

func TestRevokeUnknownIdentityIsNoop(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, &countingRunner{})
	r.Revoke("never-scheduled")
}

func TestOnErrorReceivesTaskSignal(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{err: boatrace.ErrRaceCanceled}
	r := newTestRegistry(t, runner)

	var (
		mu      sync.Mutex
		gotErr  error
		gotKey  boatrace.RaceKey
		handled bool
	)
	onError := func(_ context.Context, taskErr error, key boatrace.RaceKey) error {
		mu.Lock()
		defer mu.Unlock()
		gotErr = taskErr
		gotKey = key
		handled = true
		return nil
	}

	tk := task("odds:1", time.Now())
	require.NoError(t, r.Schedule(context.Background(), tk, onError))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.ErrorIs(t, gotErr, boatrace.ErrRaceCanceled)
	require.Equal(t, tk.Key, gotKey)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}

	mu       sync.Mutex
	finished bool
}

func (r *blockingRunner) Run(_ context.Context, _ boatrace.ScheduledTask) error {
	close(r.started)
	<-r.release
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	return nil
}

func (r *blockingRunner) done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func TestCloseWaitsForRunningTask(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	r := New(runner, system.New(), zap.NewNop())

	require.NoError(t, r.Schedule(context.Background(), task("odds:1", time.Now()), nil))
	<-runner.started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(runner.release)
	}()

	// Close must block until the in-flight task finishes.
	r.Close()
	require.True(t, runner.done())
}

func TestCloseRejectsNewTasks(t *testing.T) {
	t.Parallel()

	r := New(&countingRunner{}, system.New(), zap.NewNop())
	require.NoError(t, r.Schedule(context.Background(), task("odds:1", time.Now().Add(time.Hour)), nil))
	r.Close()

	err := r.Schedule(context.Background(), task("odds:2", time.Now()), nil)
	require.Error(t, err)
	require.Empty(t, r.Pending())
}
