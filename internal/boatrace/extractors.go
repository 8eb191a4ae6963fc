package boatrace

import "time"

// Page extractors turn raw page content into typed records. They are
// external collaborators: the official-site parsing itself ships as a
// separate implementation and the core only depends on these contracts.
// Extractors return ErrNoData when a section is absent and ErrRaceCanceled
// when the page explicitly reports the race as called off; anything else
// is a malformed page.

// RaceInformationExtractor reads the race entry (information) page.
type RaceInformationExtractor interface {
	ExtractRace(page Page, key RaceKey) (Race, error)
	ExtractRaceEntries(page Page, key RaceKey) ([]RaceEntry, error)
	ExtractBoatPerformances(page Page, key RaceKey) ([]BoatPerformance, error)
	ExtractMotorPerformances(page Page, key RaceKey) ([]MotorPerformance, error)
	ExtractRacerPerformances(page Page, key RaceKey) ([]RacerPerformance, error)
}

// BeforeInformationExtractor reads the before-information page.
type BeforeInformationExtractor interface {
	ExtractStartExhibitionRecords(page Page, key RaceKey) ([]StartExhibitionRecord, error)
	ExtractCircumferenceExhibitionRecords(page Page, key RaceKey) ([]CircumferenceExhibitionRecord, error)
	ExtractRacerConditions(page Page, key RaceKey) ([]RacerCondition, error)
	ExtractBoatSettings(page Page, key RaceKey) ([]BoatSetting, error)
	ExtractWeatherCondition(page Page, key RaceKey) (WeatherCondition, error)
}

// OddsExtractor reads the trifecta odds page.
type OddsExtractor interface {
	ExtractOdds(page Page, key RaceKey) ([]Odds, error)
}

// ResultExtractor reads the race result page.
type ResultExtractor interface {
	ExtractPayoffs(page Page, key RaceKey) ([]Payoff, error)
	ExtractRaceRecords(page Page, key RaceKey) ([]RaceRecord, error)
	ExtractWeatherCondition(page Page, key RaceKey) (WeatherCondition, error)
}

// MonthlyScheduleExtractor reads the monthly schedule page.
type MonthlyScheduleExtractor interface {
	ExtractEvents(page Page, year int, month time.Month) ([]Event, error)
}

// EventHoldingExtractor reads the per-day event holding page.
type EventHoldingExtractor interface {
	ExtractEventHoldings(page Page, date time.Time) ([]EventHolding, error)
}

// PreInspectionExtractor reads the pre-inspection information page.
type PreInspectionExtractor interface {
	ExtractRacers(page Page) ([]Racer, error)
	ExtractEventEntries(page Page, stadium StadiumTelCode, date time.Time) ([]EventEntry, error)
}

// RacerProfileExtractor reads a racer profile page.
type RacerProfileExtractor interface {
	ExtractRacerProfile(page Page) (Racer, error)
}
