// Package memory provides an in-process task registry for local and
// single-node deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/metrics"
)

// Registry schedules tasks on timers keyed by identity. Scheduling an
// identity that already has a live instance replaces it; revoking an
// identity that has fired or was never scheduled is a no-op. A fired
// task always runs to completion, revoke only prevents future firing.
type Registry struct {
	runner boatrace.TaskRunner
	clock  boatrace.Clock
	logger *zap.Logger

	mu    sync.Mutex
	tasks map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	task    boatrace.ScheduledTask
	onError boatrace.FailureFunc
	timer   *time.Timer
}

// New constructs a Registry executing tasks through the runner.
func New(runner boatrace.TaskRunner, clock boatrace.Clock, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		runner: runner,
		clock:  clock,
		logger: logger,
		tasks:  make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule arms a timer for the task's eta. A past eta fires
// immediately. The onError continuation receives any signal the task
// raises when it fires.
func (r *Registry) Schedule(_ context.Context, task boatrace.ScheduledTask, onError boatrace.FailureFunc) error {
	if task.Identity == "" {
		return fmt.Errorf("task for race %s has no identity", task.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx.Err() != nil {
		return fmt.Errorf("registry is shut down: %w", r.ctx.Err())
	}

	if prior, ok := r.tasks[task.Identity]; ok {
		prior.timer.Stop()
		r.logger.Debug("replacing live task", zap.String("identity", task.Identity))
	}

	delay := task.ETA.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}
	e := &entry{task: task, onError: onError}
	identity := task.Identity
	e.timer = time.AfterFunc(delay, func() {
		r.fire(identity)
	})
	r.tasks[identity] = e
	return nil
}

// Revoke removes a pending task. It is idempotent and never interrupts
// a task that has already started executing.
func (r *Registry) Revoke(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.tasks[identity]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(r.tasks, identity)
	r.logger.Debug("task revoked", zap.String("identity", identity))
}

// Pending returns a snapshot of the not-yet-fired tasks.
func (r *Registry) Pending() []boatrace.ScheduledTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]boatrace.ScheduledTask, 0, len(r.tasks))
	for _, e := range r.tasks {
		out = append(out, e.task)
	}
	return out
}

// Close stops all pending timers and waits for in-flight tasks.
func (r *Registry) Close() {
	r.cancel()
	r.mu.Lock()
	for identity, e := range r.tasks {
		e.timer.Stop()
		delete(r.tasks, identity)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registry) fire(identity string) {
	r.mu.Lock()
	e, ok := r.tasks[identity]
	if ok {
		// Claim the entry and join the waitgroup under the same lock,
		// so a concurrent revoke becomes a no-op once execution has
		// started and Close's Wait cannot pass before this task is
		// counted.
		delete(r.tasks, identity)
		r.wg.Add(1)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	defer r.wg.Done()

	kind := string(e.task.Kind)
	start := r.clock.Now()
	err := r.runner.Run(r.ctx, e.task)
	metrics.ObserveCrawlDuration(kind, r.clock.Now().Sub(start))

	if err == nil {
		metrics.TaskFired(kind, "ok")
		return
	}

	if e.onError == nil {
		metrics.TaskFired(kind, "error")
		r.logger.Error("task failed with no error continuation",
			zap.String("identity", identity),
			zap.Error(err),
		)
		return
	}

	if herr := e.onError(r.ctx, err, e.task.Key); herr != nil {
		metrics.TaskFired(kind, "error")
		r.logger.Error("task failed",
			zap.String("identity", identity),
			zap.String("race", e.task.Key.String()),
			zap.Error(herr),
		)
		return
	}
	metrics.TaskFired(kind, "signal")
}
