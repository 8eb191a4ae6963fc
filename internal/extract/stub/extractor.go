// Package stub provides placeholder extractors for deployments where
// the real page parsers are not wired in. Every method fails with
// ErrNotConfigured, which is not a lifecycle signal: the failure
// handler treats it as unknown, so a stubbed crawl can never cancel a
// race, move a deadline, or retire a racer.
package stub

import (
	"errors"
	"fmt"
	"time"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// ErrNotConfigured means the crawl reached an extractor that has no
// real implementation behind it.
var ErrNotConfigured = errors.New("page extractor not configured")

// Extractor implements every extractor interface by refusing to parse.
type Extractor struct{}

// New returns a stub Extractor.
func New() *Extractor {
	return &Extractor{}
}

func notConfigured(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotConfigured)
}

func (Extractor) ExtractRace(_ boatrace.Page, key boatrace.RaceKey) (boatrace.Race, error) {
	return boatrace.Race{}, notConfigured(fmt.Sprintf("race %s", key))
}

func (Extractor) ExtractRaceEntries(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RaceEntry, error) {
	return nil, notConfigured(fmt.Sprintf("race entries %s", key))
}

func (Extractor) ExtractBoatPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.BoatPerformance, error) {
	return nil, notConfigured(fmt.Sprintf("boat performances %s", key))
}

func (Extractor) ExtractMotorPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.MotorPerformance, error) {
	return nil, notConfigured(fmt.Sprintf("motor performances %s", key))
}

func (Extractor) ExtractRacerPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RacerPerformance, error) {
	return nil, notConfigured(fmt.Sprintf("racer performances %s", key))
}

func (Extractor) ExtractStartExhibitionRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.StartExhibitionRecord, error) {
	return nil, notConfigured(fmt.Sprintf("start exhibitions %s", key))
}

func (Extractor) ExtractCircumferenceExhibitionRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.CircumferenceExhibitionRecord, error) {
	return nil, notConfigured(fmt.Sprintf("circumference exhibitions %s", key))
}

func (Extractor) ExtractRacerConditions(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RacerCondition, error) {
	return nil, notConfigured(fmt.Sprintf("racer conditions %s", key))
}

func (Extractor) ExtractBoatSettings(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.BoatSetting, error) {
	return nil, notConfigured(fmt.Sprintf("boat settings %s", key))
}

func (Extractor) ExtractWeatherCondition(_ boatrace.Page, key boatrace.RaceKey) (boatrace.WeatherCondition, error) {
	return boatrace.WeatherCondition{}, notConfigured(fmt.Sprintf("weather condition %s", key))
}

func (Extractor) ExtractOdds(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.Odds, error) {
	return nil, notConfigured(fmt.Sprintf("odds %s", key))
}

func (Extractor) ExtractPayoffs(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.Payoff, error) {
	return nil, notConfigured(fmt.Sprintf("payoffs %s", key))
}

func (Extractor) ExtractRaceRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RaceRecord, error) {
	return nil, notConfigured(fmt.Sprintf("race records %s", key))
}

func (Extractor) ExtractEvents(_ boatrace.Page, year int, month time.Month) ([]boatrace.Event, error) {
	return nil, notConfigured(fmt.Sprintf("events %04d-%02d", year, month))
}

func (Extractor) ExtractEventHoldings(_ boatrace.Page, date time.Time) ([]boatrace.EventHolding, error) {
	return nil, notConfigured(fmt.Sprintf("event holdings %s", date.Format("2006-01-02")))
}

func (Extractor) ExtractRacers(_ boatrace.Page) ([]boatrace.Racer, error) {
	return nil, notConfigured("racers")
}

func (Extractor) ExtractEventEntries(_ boatrace.Page, stadium boatrace.StadiumTelCode, _ time.Time) ([]boatrace.EventEntry, error) {
	return nil, notConfigured(fmt.Sprintf("event entries %02d", stadium))
}

func (Extractor) ExtractRacerProfile(_ boatrace.Page) (boatrace.Racer, error) {
	return boatrace.Racer{}, notConfigured("racer profile")
}
