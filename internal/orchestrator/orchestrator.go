// Package orchestrator runs the periodic crawls that keep the scheduler
// fed: monthly schedule discovery, daily race discovery and the racer
// profile backfill sweep.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// Config holds the cron specs and the timezone they run in.
type Config struct {
	DiscoverySpec string
	ScheduleSpec  string
	BackfillSpec  string
	Timezone      string
}

// Crawls is the subset of the crawler the orchestrator drives.
type Crawls interface {
	CrawlEventHoldingPage(ctx context.Context, date time.Time) ([]boatrace.EventHolding, error)
	CrawlAllRaceInformationForDate(ctx context.Context, date time.Time, stadiums []boatrace.StadiumTelCode)
	CrawlMonthlySchedulePage(ctx context.Context, year int, month time.Month) error
}

// DayScheduler triggers a day's race scheduling.
type DayScheduler interface {
	ScheduleAllRacesToday(ctx context.Context, date time.Time) error
}

// Drainer runs one backfill sweep.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Orchestrator owns the cron runner.
type Orchestrator struct {
	cfg       Config
	crawls    Crawls
	scheduler DayScheduler
	backfill  Drainer
	clock     boatrace.Clock
	logger    *zap.Logger
	location  *time.Location
	cron      *cron.Cron
}

// New constructs an Orchestrator. Jobs are registered by Start.
func New(cfg Config, crawls Crawls, daySched DayScheduler, backfill Drainer, clock boatrace.Clock, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = "Asia/Tokyo"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Orchestrator{
		cfg:       cfg,
		crawls:    crawls,
		scheduler: daySched,
		backfill:  backfill,
		clock:     clock,
		logger:    logger,
		location:  location,
	}, nil
}

// Start registers the cron jobs and launches the runner.
func (o *Orchestrator) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(o.location))

	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"daily discovery", o.cfg.DiscoverySpec, o.runDiscovery},
		{"monthly schedule", o.cfg.ScheduleSpec, o.runMonthlySchedule},
		{"racer backfill", o.cfg.BackfillSpec, o.runBackfill},
	}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() { job.run(ctx) }); err != nil {
			return fmt.Errorf("register %s job (%q): %w", job.name, job.spec, err)
		}
		o.logger.Info("cron job registered", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	c.Start()
	o.cron = c
	return nil
}

// Stop halts the cron runner and waits for running jobs.
func (o *Orchestrator) Stop() {
	if o.cron == nil {
		return
	}
	<-o.cron.Stop().Done()
}

// today is the current race day in official-site time, normalized to a
// midnight UTC date as the ledger stores it.
func (o *Orchestrator) today() time.Time {
	now := o.clock.Now().In(o.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// runDiscovery finds the stadiums racing today, crawls every race's
// information page to learn the betting deadlines, then schedules the
// day's tasks.
func (o *Orchestrator) runDiscovery(ctx context.Context) {
	date := o.today()
	logger := o.logger.With(zap.String("date", date.Format("2006-01-02")))

	holdings, err := o.crawls.CrawlEventHoldingPage(ctx, date)
	if err != nil {
		logger.Error("event holding crawl failed", zap.Error(err))
		return
	}
	var open []boatrace.StadiumTelCode
	for _, holding := range holdings {
		if holding.Status == boatrace.EventHoldingOpen {
			open = append(open, holding.StadiumTelCode)
		}
	}
	if len(open) == 0 {
		logger.Warn("no stadiums racing today")
		return
	}
	logger.Info("stadiums racing today", zap.Int("stadiums", len(open)))

	o.crawls.CrawlAllRaceInformationForDate(ctx, date, open)

	if err := o.scheduler.ScheduleAllRacesToday(ctx, date); err != nil {
		logger.Error("scheduling failed", zap.Error(err))
	}
}

func (o *Orchestrator) runMonthlySchedule(ctx context.Context) {
	now := o.clock.Now().In(o.location)
	if err := o.crawls.CrawlMonthlySchedulePage(ctx, now.Year(), now.Month()); err != nil {
		o.logger.Error("monthly schedule crawl failed",
			zap.Int("year", now.Year()), zap.Int("month", int(now.Month())), zap.Error(err))
	}
}

func (o *Orchestrator) runBackfill(ctx context.Context) {
	if err := o.backfill.Drain(ctx); err != nil {
		o.logger.Error("racer backfill failed", zap.Error(err))
	}
}
