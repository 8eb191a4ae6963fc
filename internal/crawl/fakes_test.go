package crawl

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/clock/system"
	storememory "github.com/metaboatrace/crawler/internal/storage/memory"
)

// crawlFixture wires a Crawler against in-memory stores and recorders so
// each test can assert exactly what a crawl persisted.
type crawlFixture struct {
	fetcher *fakeFetcher
	ex      *fakeExtractor

	ledger *storememory.Ledger
	racers *storememory.Racers

	entries             *recorder[boatrace.RaceEntry]
	settings            *settingsRecorder
	starts              *recorder[boatrace.StartExhibitionRecord]
	circumferences      *recorder[boatrace.CircumferenceExhibitionRecord]
	conditions          *recorder[boatrace.RacerCondition]
	weather             *weatherRecorder
	odds                *recorder[boatrace.Odds]
	payoffs             *recorder[boatrace.Payoff]
	records             *recorder[boatrace.RaceRecord]
	winning             *recorder[boatrace.RaceRecord]
	disqualified        *recorder[boatrace.RaceRecord]
	boatPerformances    *recorder[boatrace.BoatPerformance]
	motorPerformances   *recorder[boatrace.MotorPerformance]
	racerPerformances   *recorder[boatrace.RacerPerformance]
	maintenances        *recorder[boatrace.MotorMaintenance]
	events              *recorder[boatrace.Event]
	renewals            *renewalRecorder

	crawler *Crawler
}

func newCrawlFixture() *crawlFixture {
	f := &crawlFixture{
		fetcher:           &fakeFetcher{page: boatrace.Page{StatusCode: 200, Body: []byte("<html></html>")}},
		ex:                &fakeExtractor{},
		ledger:            storememory.NewLedger(),
		racers:            storememory.NewRacers(),
		entries:           &recorder[boatrace.RaceEntry]{},
		settings:          &settingsRecorder{},
		starts:            &recorder[boatrace.StartExhibitionRecord]{},
		circumferences:    &recorder[boatrace.CircumferenceExhibitionRecord]{},
		conditions:        &recorder[boatrace.RacerCondition]{},
		weather:           &weatherRecorder{},
		odds:              &recorder[boatrace.Odds]{},
		payoffs:           &recorder[boatrace.Payoff]{},
		records:           &recorder[boatrace.RaceRecord]{},
		winning:           &recorder[boatrace.RaceRecord]{},
		disqualified:      &recorder[boatrace.RaceRecord]{},
		boatPerformances:  &recorder[boatrace.BoatPerformance]{},
		motorPerformances: &recorder[boatrace.MotorPerformance]{},
		racerPerformances: &recorder[boatrace.RacerPerformance]{},
		maintenances:      &recorder[boatrace.MotorMaintenance]{},
		events:            &recorder[boatrace.Event]{},
		renewals:          &renewalRecorder{},
	}
	f.crawler = New(Deps{
		Fetcher: f.fetcher,
		Clock:   system.New(),
		Logger:  zap.NewNop(),

		RaceInformationExtractor:   f.ex,
		BeforeInformationExtractor: f.ex,
		OddsExtractor:              f.ex,
		ResultExtractor:            f.ex,
		MonthlyScheduleExtractor:   f.ex,
		EventHoldingExtractor:      f.ex,
		PreInspectionExtractor:     f.ex,
		RacerProfileExtractor:      f.ex,

		RaceLedger:           f.ledger,
		RaceEntries:          f.entries,
		BoatSettings:         f.settings,
		StartExhibitions:     f.starts,
		CircumferenceRecords: f.circumferences,
		RacerConditions:      f.conditions,
		WeatherConditions:    f.weather,
		Odds:                 f.odds,
		Payoffs:              f.payoffs,
		RaceRecords:          f.records,
		WinningEntries:       f.winning,
		DisqualifiedEntries:  f.disqualified,
		BoatPerformances:     f.boatPerformances,
		MotorPerformances:    f.motorPerformances,
		RacerPerformances:    f.racerPerformances,
		MotorMaintenances:    f.maintenances,
		Events:               f.events,
		MotorRenewals:        f.renewals,
		Racers:               f.racers,
	})
	return f
}

func testKey() boatrace.RaceKey {
	return boatrace.RaceKey{
		StadiumTelCode: 4,
		Date:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		RaceNumber:     7,
	}
}

type fakeFetcher struct {
	page boatrace.Page
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (boatrace.Page, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return boatrace.Page{}, f.err
	}
	page := f.page
	page.URL = url
	return page, nil
}

// recorder collects upserted batches for any single-slice store.
type recorder[T any] struct {
	batches [][]T
	err     error
}

func (r *recorder[T]) UpsertMany(_ context.Context, items []T) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, items)
	return nil
}

func (r *recorder[T]) all() []T {
	var out []T
	for _, batch := range r.batches {
		out = append(out, batch...)
	}
	return out
}

type settingsRecorder struct {
	batches    [][]boatrace.BoatSetting
	overwrites [][]string
}

func (r *settingsRecorder) UpsertMany(_ context.Context, settings []boatrace.BoatSetting, overwrite []string) error {
	r.batches = append(r.batches, settings)
	r.overwrites = append(r.overwrites, overwrite)
	return nil
}

type weatherRecorder struct {
	conditions []boatrace.WeatherCondition
	err        error
}

func (r *weatherRecorder) Upsert(_ context.Context, condition boatrace.WeatherCondition) error {
	if r.err != nil {
		return r.err
	}
	r.conditions = append(r.conditions, condition)
	return nil
}

type renewalRecorder struct {
	renewals []boatrace.MotorRenewal
}

func (r *renewalRecorder) Upsert(_ context.Context, renewal boatrace.MotorRenewal) error {
	r.renewals = append(r.renewals, renewal)
	return nil
}

var errNotStubbed = errors.New("extractor call not stubbed")

// fakeExtractor implements every extractor interface through optional
// function fields, failing loudly when an unstubbed method is reached.
type fakeExtractor struct {
	race              func(key boatrace.RaceKey) (boatrace.Race, error)
	raceEntries       func(key boatrace.RaceKey) ([]boatrace.RaceEntry, error)
	boatPerformances  func(key boatrace.RaceKey) ([]boatrace.BoatPerformance, error)
	motorPerformances func(key boatrace.RaceKey) ([]boatrace.MotorPerformance, error)
	racerPerformances func(key boatrace.RaceKey) ([]boatrace.RacerPerformance, error)
	startExhibitions  func(key boatrace.RaceKey) ([]boatrace.StartExhibitionRecord, error)
	circumferences    func(key boatrace.RaceKey) ([]boatrace.CircumferenceExhibitionRecord, error)
	racerConditions   func(key boatrace.RaceKey) ([]boatrace.RacerCondition, error)
	boatSettings      func(key boatrace.RaceKey) ([]boatrace.BoatSetting, error)
	weather           func(key boatrace.RaceKey) (boatrace.WeatherCondition, error)
	odds              func(key boatrace.RaceKey) ([]boatrace.Odds, error)
	payoffs           func(key boatrace.RaceKey) ([]boatrace.Payoff, error)
	raceRecords       func(key boatrace.RaceKey) ([]boatrace.RaceRecord, error)
	events            func(year int, month time.Month) ([]boatrace.Event, error)
	eventHoldings     func(date time.Time) ([]boatrace.EventHolding, error)
	racers            func() ([]boatrace.Racer, error)
	eventEntries      func(stadium boatrace.StadiumTelCode, date time.Time) ([]boatrace.EventEntry, error)
	racerProfile      func() (boatrace.Racer, error)
}

func (f *fakeExtractor) ExtractRace(_ boatrace.Page, key boatrace.RaceKey) (boatrace.Race, error) {
	if f.race == nil {
		return boatrace.Race{}, errNotStubbed
	}
	return f.race(key)
}

func (f *fakeExtractor) ExtractRaceEntries(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RaceEntry, error) {
	if f.raceEntries == nil {
		return nil, errNotStubbed
	}
	return f.raceEntries(key)
}

func (f *fakeExtractor) ExtractBoatPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.BoatPerformance, error) {
	if f.boatPerformances == nil {
		return nil, nil
	}
	return f.boatPerformances(key)
}

func (f *fakeExtractor) ExtractMotorPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.MotorPerformance, error) {
	if f.motorPerformances == nil {
		return nil, nil
	}
	return f.motorPerformances(key)
}

func (f *fakeExtractor) ExtractRacerPerformances(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RacerPerformance, error) {
	if f.racerPerformances == nil {
		return nil, nil
	}
	return f.racerPerformances(key)
}

func (f *fakeExtractor) ExtractStartExhibitionRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.StartExhibitionRecord, error) {
	if f.startExhibitions == nil {
		return nil, errNotStubbed
	}
	return f.startExhibitions(key)
}

func (f *fakeExtractor) ExtractCircumferenceExhibitionRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.CircumferenceExhibitionRecord, error) {
	if f.circumferences == nil {
		return nil, errNotStubbed
	}
	return f.circumferences(key)
}

func (f *fakeExtractor) ExtractRacerConditions(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RacerCondition, error) {
	if f.racerConditions == nil {
		return nil, nil
	}
	return f.racerConditions(key)
}

func (f *fakeExtractor) ExtractBoatSettings(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.BoatSetting, error) {
	if f.boatSettings == nil {
		return nil, nil
	}
	return f.boatSettings(key)
}

func (f *fakeExtractor) ExtractWeatherCondition(_ boatrace.Page, key boatrace.RaceKey) (boatrace.WeatherCondition, error) {
	if f.weather == nil {
		return boatrace.WeatherCondition{Key: key}, nil
	}
	return f.weather(key)
}

func (f *fakeExtractor) ExtractOdds(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.Odds, error) {
	if f.odds == nil {
		return nil, errNotStubbed
	}
	return f.odds(key)
}

func (f *fakeExtractor) ExtractPayoffs(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.Payoff, error) {
	if f.payoffs == nil {
		return nil, errNotStubbed
	}
	return f.payoffs(key)
}

func (f *fakeExtractor) ExtractRaceRecords(_ boatrace.Page, key boatrace.RaceKey) ([]boatrace.RaceRecord, error) {
	if f.raceRecords == nil {
		return nil, errNotStubbed
	}
	return f.raceRecords(key)
}

func (f *fakeExtractor) ExtractEvents(_ boatrace.Page, year int, month time.Month) ([]boatrace.Event, error) {
	if f.events == nil {
		return nil, errNotStubbed
	}
	return f.events(year, month)
}

func (f *fakeExtractor) ExtractEventHoldings(_ boatrace.Page, date time.Time) ([]boatrace.EventHolding, error) {
	if f.eventHoldings == nil {
		return nil, errNotStubbed
	}
	return f.eventHoldings(date)
}

func (f *fakeExtractor) ExtractRacers(_ boatrace.Page) ([]boatrace.Racer, error) {
	if f.racers == nil {
		return nil, errNotStubbed
	}
	return f.racers()
}

func (f *fakeExtractor) ExtractEventEntries(_ boatrace.Page, stadium boatrace.StadiumTelCode, date time.Time) ([]boatrace.EventEntry, error) {
	if f.eventEntries == nil {
		return nil, errNotStubbed
	}
	return f.eventEntries(stadium, date)
}

func (f *fakeExtractor) ExtractRacerProfile(_ boatrace.Page) (boatrace.Racer, error) {
	if f.racerProfile == nil {
		return boatrace.Racer{}, errNotStubbed
	}
	return f.racerProfile()
}
