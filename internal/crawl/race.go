package crawl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// CrawlRaceInformationPage crawls the race entry page: the race itself,
// its entries, the boat settings derived from them, and the boat/motor/
// racer aggregates. It takes the full scheduled task because the page's
// own deadline is compared against the deadline the task was scheduled
// with; a mismatch raises DeadlineChanged.
func (c *Crawler) CrawlRaceInformationPage(ctx context.Context, task boatrace.ScheduledTask) error {
	key := task.Key
	page, err := c.fetch(ctx, raceInformationPageURL(key))
	if err != nil {
		return err
	}

	race, err := c.deps.RaceInformationExtractor.ExtractRace(page, key)
	if err != nil {
		return fmt.Errorf("extract race %s: %w", key, err)
	}
	if err := c.deps.RaceLedger.Upsert(ctx, race); err != nil {
		return fmt.Errorf("upsert race %s: %w", key, err)
	}

	entries, err := c.deps.RaceInformationExtractor.ExtractRaceEntries(page, key)
	if err != nil {
		return fmt.Errorf("extract race entries %s: %w", key, err)
	}
	if err := c.deps.RaceEntries.UpsertMany(ctx, entries); err != nil {
		return fmt.Errorf("upsert race entries %s: %w", key, err)
	}

	// The entry page is authoritative for boat/motor assignment only;
	// tilt and propeller state come from the before-information page.
	settings := make([]boatrace.BoatSetting, 0, len(entries))
	for _, entry := range entries {
		settings = append(settings, boatrace.BoatSetting{
			Key:         entry.Key,
			PitNumber:   entry.PitNumber,
			BoatNumber:  entry.BoatNumber,
			MotorNumber: entry.MotorNumber,
		})
	}
	if err := c.deps.BoatSettings.UpsertMany(ctx, settings, []string{"boat_number", "motor_number"}); err != nil {
		return fmt.Errorf("upsert boat settings %s: %w", key, err)
	}

	boatPerformances, err := c.deps.RaceInformationExtractor.ExtractBoatPerformances(page, key)
	if err != nil {
		return fmt.Errorf("extract boat performances %s: %w", key, err)
	}
	if err := c.deps.BoatPerformances.UpsertMany(ctx, boatPerformances); err != nil {
		return fmt.Errorf("upsert boat performances %s: %w", key, err)
	}

	motorPerformances, err := c.deps.RaceInformationExtractor.ExtractMotorPerformances(page, key)
	if err != nil {
		return fmt.Errorf("extract motor performances %s: %w", key, err)
	}
	if err := c.deps.MotorPerformances.UpsertMany(ctx, motorPerformances); err != nil {
		return fmt.Errorf("upsert motor performances %s: %w", key, err)
	}

	racerPerformances, err := c.deps.RaceInformationExtractor.ExtractRacerPerformances(page, key)
	if err != nil {
		return fmt.Errorf("extract racer performances %s: %w", key, err)
	}
	if err := c.deps.RacerPerformances.UpsertMany(ctx, racerPerformances); err != nil {
		return fmt.Errorf("upsert racer performances %s: %w", key, err)
	}

	// A zero eta means this crawl was not fired off a schedule (daily
	// discovery), so there is no expected deadline to compare against.
	if race.BettingDeadlineAt != nil && !task.ETA.IsZero() {
		if expected := task.ExpectedDeadline(); !race.BettingDeadlineAt.Equal(expected) {
			return &boatrace.DeadlineChangedError{Key: key, NewDeadline: *race.BettingDeadlineAt}
		}
	}
	return nil
}

// CrawlBeforeInformationPage crawls the before-information page. An
// empty start-exhibition section is ambiguous between cancellation and
// a rendering gap, so the result page is probed to disambiguate. An
// empty circumference section after starts were recorded is a
// late-stage abort and cancels directly. A weather parse failure alone
// is IncompleteData: every other write has already committed.
func (c *Crawler) CrawlBeforeInformationPage(ctx context.Context, key boatrace.RaceKey) error {
	page, err := c.fetch(ctx, beforeInformationPageURL(key))
	if err != nil {
		return err
	}

	starts, err := c.deps.BeforeInformationExtractor.ExtractStartExhibitionRecords(page, key)
	if err != nil && !errors.Is(err, boatrace.ErrNoData) {
		return fmt.Errorf("extract start exhibitions %s: %w", key, err)
	}
	if len(starts) == 0 {
		if probeErr := c.CrawlRaceResultPage(ctx, key); probeErr != nil {
			if errors.Is(probeErr, boatrace.ErrRaceCanceled) || errors.Is(probeErr, boatrace.ErrNoData) {
				return fmt.Errorf("race %s: empty start exhibition and empty result page: %w", key, boatrace.ErrRaceCanceled)
			}
			return fmt.Errorf("result page probe for race %s: %w", key, probeErr)
		}
		// The result page has data, so the race ran and only this
		// page's exhibition section failed to render.
		c.deps.Logger.Warn("start exhibition section empty but result page has data",
			zap.String("race", key.String()))
	} else {
		if err := c.deps.StartExhibitions.UpsertMany(ctx, starts); err != nil {
			return fmt.Errorf("upsert start exhibitions %s: %w", key, err)
		}
	}

	circumferences, err := c.deps.BeforeInformationExtractor.ExtractCircumferenceExhibitionRecords(page, key)
	if err != nil && !errors.Is(err, boatrace.ErrNoData) {
		return fmt.Errorf("extract circumference exhibitions %s: %w", key, err)
	}
	if len(circumferences) == 0 {
		return fmt.Errorf("race %s: empty circumference exhibition: %w", key, boatrace.ErrRaceCanceled)
	}
	if err := c.deps.CircumferenceRecords.UpsertMany(ctx, circumferences); err != nil {
		return fmt.Errorf("upsert circumference exhibitions %s: %w", key, err)
	}

	conditions, err := c.deps.BeforeInformationExtractor.ExtractRacerConditions(page, key)
	if err != nil {
		return fmt.Errorf("extract racer conditions %s: %w", key, err)
	}
	if err := c.deps.RacerConditions.UpsertMany(ctx, conditions); err != nil {
		return fmt.Errorf("upsert racer conditions %s: %w", key, err)
	}

	settings, err := c.deps.BeforeInformationExtractor.ExtractBoatSettings(page, key)
	if err != nil {
		return fmt.Errorf("extract boat settings %s: %w", key, err)
	}
	if err := c.deps.BoatSettings.UpsertMany(ctx, settings, []string{"tilt", "is_propeller_renewed"}); err != nil {
		return fmt.Errorf("upsert boat settings %s: %w", key, err)
	}

	maintenances := make([]boatrace.MotorMaintenance, 0)
	for _, setting := range settings {
		if len(setting.MotorPartsExchanges) == 0 {
			continue
		}
		maintenances = append(maintenances, boatrace.MotorMaintenance{
			Key:            setting.Key,
			MotorNumber:    setting.MotorNumber,
			ExchangedParts: setting.MotorPartsExchanges,
		})
	}
	if len(maintenances) > 0 {
		if err := c.deps.MotorMaintenances.UpsertMany(ctx, maintenances); err != nil {
			return fmt.Errorf("upsert motor maintenances %s: %w", key, err)
		}
	}

	weather, err := c.deps.BeforeInformationExtractor.ExtractWeatherCondition(page, key)
	if err != nil {
		return &boatrace.IncompleteDataError{Reason: "weather condition", Err: err}
	}
	if err := c.deps.WeatherConditions.Upsert(ctx, weather); err != nil {
		return fmt.Errorf("upsert weather condition %s: %w", key, err)
	}
	return nil
}

// CrawlTrifectaOddsPage crawls the trifecta odds page.
func (c *Crawler) CrawlTrifectaOddsPage(ctx context.Context, key boatrace.RaceKey) error {
	page, err := c.fetch(ctx, trifectaOddsPageURL(key))
	if err != nil {
		return err
	}
	odds, err := c.deps.OddsExtractor.ExtractOdds(page, key)
	if err != nil {
		return fmt.Errorf("extract odds %s: %w", key, err)
	}
	if err := c.deps.Odds.UpsertMany(ctx, odds); err != nil {
		return fmt.Errorf("upsert odds %s: %w", key, err)
	}
	return nil
}

// CrawlRaceResultPage crawls the result page: payoffs, weather, full
// result rows, and the winning/disqualified subsets split by each
// record's outcome tag. A page with neither payoffs nor records yields
// ErrNoData so the before-information probe can interpret it.
func (c *Crawler) CrawlRaceResultPage(ctx context.Context, key boatrace.RaceKey) error {
	page, err := c.fetch(ctx, raceResultPageURL(key))
	if err != nil {
		return err
	}

	payoffs, err := c.deps.ResultExtractor.ExtractPayoffs(page, key)
	if err != nil && !errors.Is(err, boatrace.ErrNoData) {
		return fmt.Errorf("extract payoffs %s: %w", key, err)
	}

	records, err := c.deps.ResultExtractor.ExtractRaceRecords(page, key)
	if err != nil && !errors.Is(err, boatrace.ErrNoData) {
		return fmt.Errorf("extract race records %s: %w", key, err)
	}

	if len(payoffs) == 0 && len(records) == 0 {
		return fmt.Errorf("result page for race %s: %w", key, boatrace.ErrNoData)
	}

	if err := c.deps.Payoffs.UpsertMany(ctx, payoffs); err != nil {
		return fmt.Errorf("upsert payoffs %s: %w", key, err)
	}

	weather, err := c.deps.ResultExtractor.ExtractWeatherCondition(page, key)
	if err != nil {
		c.deps.Logger.Warn("weather condition missing from result page",
			zap.String("race", key.String()), zap.Error(err))
	} else {
		if err := c.deps.WeatherConditions.Upsert(ctx, weather); err != nil {
			return fmt.Errorf("upsert weather condition %s: %w", key, err)
		}
	}

	if err := c.deps.RaceRecords.UpsertMany(ctx, records); err != nil {
		return fmt.Errorf("upsert race records %s: %w", key, err)
	}

	winning := make([]boatrace.RaceRecord, 0, len(records))
	disqualified := make([]boatrace.RaceRecord, 0)
	for _, record := range records {
		if record.WinningTrick != nil {
			winning = append(winning, record)
		}
		if record.Disqualification != nil {
			disqualified = append(disqualified, record)
		}
	}
	if err := c.deps.WinningEntries.UpsertMany(ctx, winning); err != nil {
		return fmt.Errorf("upsert winning entries %s: %w", key, err)
	}
	if err := c.deps.DisqualifiedEntries.UpsertMany(ctx, disqualified); err != nil {
		return fmt.Errorf("upsert disqualified entries %s: %w", key, err)
	}
	return nil
}
