// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/archive/local"
	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/clock/system"
	"github.com/metaboatrace/crawler/internal/config"
	"github.com/metaboatrace/crawler/internal/crawl"
	"github.com/metaboatrace/crawler/internal/extract/stub"
	collyfetcher "github.com/metaboatrace/crawler/internal/fetcher/colly"
	"github.com/metaboatrace/crawler/internal/logging"
	pubsubpublisher "github.com/metaboatrace/crawler/internal/publisher/pubsub"
	memregistry "github.com/metaboatrace/crawler/internal/registry/memory"
	"github.com/metaboatrace/crawler/internal/scheduler"
	memstorage "github.com/metaboatrace/crawler/internal/storage/memory"
	"github.com/metaboatrace/crawler/internal/storage/postgres"
)

// App holds the shared, long-lived services: logger, stores, crawler,
// task registry and scheduler. It is initialized once at startup and
// handed to the commands that need it.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	db         *postgres.DB
	ledger     boatrace.RaceLedger
	racers     boatrace.RacerStore
	publisher  boatrace.Publisher
	crawler    *crawl.Crawler
	registry   *memregistry.Registry
	scheduler  *scheduler.RaceScheduler
	backfiller *crawl.Backfiller
	clock      boatrace.Clock

	pubsubClient *gcppubsub.Client
	pubClose     func()
}

// New wires every service from config, failing fast when a critical one
// cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}
	clk := system.New()
	a.clock = clk

	fetcher, err := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Crawler.UserAgent,
		Timeout:       cfg.FetchTimeout(),
		Delay:         cfg.FetchDelay(),
		RespectRobots: cfg.Crawler.RespectRobots,
	})
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var pageArchive boatrace.PageArchive
	if cfg.Archive.Enabled {
		arch, err := local.New(cfg.Archive.Dir, cfg.Archive.MaxBytes)
		if err != nil {
			return nil, fmt.Errorf("init page archive: %w", err)
		}
		pageArchive = arch
		logger.Info("page archive enabled", zap.String("dir", cfg.Archive.Dir))
	}

	deps := crawl.Deps{
		Fetcher: fetcher,
		Archive: pageArchive,
		Clock:   clk,
		Logger:  logger,
	}

	// Stubbed extractors fail with a non-lifecycle error, so crawls
	// without real parsers can never cancel races or retire racers.
	extractor := stub.New()
	deps.RaceInformationExtractor = extractor
	deps.BeforeInformationExtractor = extractor
	deps.OddsExtractor = extractor
	deps.ResultExtractor = extractor
	deps.MonthlyScheduleExtractor = extractor
	deps.EventHoldingExtractor = extractor
	deps.PreInspectionExtractor = extractor
	deps.RacerProfileExtractor = extractor

	switch cfg.DB.Driver {
	case "postgres":
		logger.Info("connecting database")
		db, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.DB.DSN,
			Dialect:         cfg.DB.Dialect,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.ConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.db = db
		a.ledger = db.Ledger()
		a.racers = db.Racers()
		deps.RaceLedger = db.Ledger()
		deps.RaceEntries = db.RaceEntries()
		deps.BoatSettings = db.BoatSettings()
		deps.StartExhibitions = db.StartExhibitions()
		deps.CircumferenceRecords = db.CircumferenceExhibitions()
		deps.RacerConditions = db.RacerConditions()
		deps.WeatherConditions = db.WeatherConditions()
		deps.Odds = db.Odds()
		deps.Payoffs = db.Payoffs()
		deps.RaceRecords = db.RaceRecords()
		deps.WinningEntries = db.WinningEntries()
		deps.DisqualifiedEntries = db.DisqualifiedEntries()
		deps.BoatPerformances = db.BoatPerformances()
		deps.MotorPerformances = db.MotorPerformances()
		deps.RacerPerformances = db.RacerPerformances()
		deps.MotorMaintenances = db.MotorMaintenances()
		deps.Events = db.Events()
		deps.MotorRenewals = db.MotorRenewals()
		deps.Racers = db.Racers()
	case "memory":
		logger.Info("using in-memory stores, data will not survive restarts")
		ledger := memstorage.NewLedger()
		racers := memstorage.NewRacers()
		a.ledger = ledger
		a.racers = racers
		deps.RaceLedger = ledger
		deps.Racers = racers
	default:
		return nil, fmt.Errorf("unknown db.driver %q", cfg.DB.Driver)
	}

	if cfg.PubSub.Enabled {
		logger.Info("connecting pub/sub", zap.String("project", cfg.PubSub.ProjectID))
		client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		pub := pubsubpublisher.New(client)
		a.pubsubClient = client
		a.pubClose = pub.Close
		a.publisher = pub
	}

	a.crawler = crawl.New(deps)
	a.registry = memregistry.New(a.crawler, clk, logger)
	a.scheduler = scheduler.New(a.registry, a.ledger, a.publisher, cfg.Scheduler.LifecycleTopic, clk, logger)
	a.backfiller = crawl.NewBackfiller(a.crawler, a.racers, cfg.Scheduler.BackfillBatchSize, logger)

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Ledger returns the race ledger.
func (a *App) Ledger() boatrace.RaceLedger { return a.ledger }

// Crawler returns the page crawler.
func (a *App) Crawler() *crawl.Crawler { return a.crawler }

// Registry returns the task registry.
func (a *App) Registry() *memregistry.Registry { return a.registry }

// Scheduler returns the race scheduler.
func (a *App) Scheduler() *scheduler.RaceScheduler { return a.scheduler }

// Backfiller returns the racer profile backfiller.
func (a *App) Backfiller() *crawl.Backfiller { return a.backfiller }

// Clock returns the shared clock.
func (a *App) Clock() boatrace.Clock { return a.clock }

// Close shuts the services down in dependency order: pending timers
// first, then the stores and clients under them.
func (a *App) Close() {
	a.registry.Close()
	if a.pubClose != nil {
		a.pubClose()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("closing pubsub client", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}
