// Package crawl implements the page-crawl tasks: fetch an official-site
// page, extract typed records, upsert them, and surface lifecycle
// signals for the scheduler's failure handler.
package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// Deps bundles the collaborators a Crawler needs. Stores and extractors
// may be left nil only when the corresponding task kinds are never run.
type Deps struct {
	Fetcher boatrace.Fetcher
	Archive boatrace.PageArchive // optional
	Clock   boatrace.Clock
	Logger  *zap.Logger

	RaceInformationExtractor   boatrace.RaceInformationExtractor
	BeforeInformationExtractor boatrace.BeforeInformationExtractor
	OddsExtractor              boatrace.OddsExtractor
	ResultExtractor            boatrace.ResultExtractor
	MonthlyScheduleExtractor   boatrace.MonthlyScheduleExtractor
	EventHoldingExtractor      boatrace.EventHoldingExtractor
	PreInspectionExtractor     boatrace.PreInspectionExtractor
	RacerProfileExtractor      boatrace.RacerProfileExtractor

	RaceLedger           boatrace.RaceLedger
	RaceEntries          boatrace.RaceEntryStore
	BoatSettings         boatrace.BoatSettingStore
	StartExhibitions     boatrace.StartExhibitionRecordStore
	CircumferenceRecords boatrace.CircumferenceExhibitionRecordStore
	RacerConditions      boatrace.RacerConditionStore
	WeatherConditions    boatrace.WeatherConditionStore
	Odds                 boatrace.OddsStore
	Payoffs              boatrace.PayoffStore
	RaceRecords          boatrace.RaceRecordStore
	WinningEntries       boatrace.WinningRaceEntryStore
	DisqualifiedEntries  boatrace.DisqualifiedRaceEntryStore
	BoatPerformances     boatrace.BoatPerformanceStore
	MotorPerformances    boatrace.MotorPerformanceStore
	RacerPerformances    boatrace.RacerPerformanceStore
	MotorMaintenances    boatrace.MotorMaintenanceStore
	Events               boatrace.EventStore
	MotorRenewals        boatrace.MotorRenewalStore
	Racers               boatrace.RacerStore
}

// Crawler executes crawl tasks against the official site.
type Crawler struct {
	deps Deps
}

// New constructs a Crawler.
func New(deps Deps) *Crawler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Crawler{deps: deps}
}

// Run dispatches a fired task to its kind's crawl. It satisfies
// boatrace.TaskRunner.
func (c *Crawler) Run(ctx context.Context, task boatrace.ScheduledTask) error {
	switch task.Kind {
	case boatrace.TaskRaceInformation:
		return c.CrawlRaceInformationPage(ctx, task)
	case boatrace.TaskBeforeInformation:
		return c.CrawlBeforeInformationPage(ctx, task.Key)
	case boatrace.TaskOdds:
		return c.CrawlTrifectaOddsPage(ctx, task.Key)
	case boatrace.TaskRaceResult:
		return c.CrawlRaceResultPage(ctx, task.Key)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// fetch retrieves a page and archives it fire-and-forget.
func (c *Crawler) fetch(ctx context.Context, url string) (boatrace.Page, error) {
	page, err := c.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		return boatrace.Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	if c.deps.Archive != nil {
		if _, err := c.deps.Archive.Save(ctx, page); err != nil {
			c.deps.Logger.Warn("page archive failed", zap.String("url", url), zap.Error(err))
		}
	}
	return page, nil
}
