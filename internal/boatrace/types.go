// Package boatrace defines core types shared across subsystems.
package boatrace

import (
	"fmt"
	"time"
)

// StadiumTelCode identifies one of the 24 official venues.
type StadiumTelCode int

// RaceKey uniquely identifies one race. It is the join key for every
// page-crawl task belonging to that race.
type RaceKey struct {
	StadiumTelCode StadiumTelCode
	Date           time.Time // holding date, midnight UTC
	RaceNumber     int       // 1..12
}

// String renders the key in date:stadium:race order with zero padding.
func (k RaceKey) String() string {
	return fmt.Sprintf("%s:%02d:%02d", k.Date.Format("20060102"), k.StadiumTelCode, k.RaceNumber)
}

// Race is the ledger record the scheduler reasons about.
// BettingDeadlineAt is nil until the information page has been crawled;
// IsCanceled flips to true only through the failure handler.
type Race struct {
	Key               RaceKey
	Title             string
	NumberOfLaps      int
	IsCourseFixed     bool
	IsStabilizerUsed  bool
	BettingDeadlineAt *time.Time
	IsCanceled        bool
}

// TaskKind names one of the four per-race page crawls.
type TaskKind string

// Task kinds, in deadline-offset order.
const (
	TaskRaceInformation   TaskKind = "information"
	TaskBeforeInformation TaskKind = "before-information"
	TaskOdds              TaskKind = "odds"
	TaskRaceResult        TaskKind = "result"
)

// TaskKinds lists every kind scheduled for a race.
var TaskKinds = []TaskKind{
	TaskRaceInformation,
	TaskBeforeInformation,
	TaskOdds,
	TaskRaceResult,
}

// Crawl offsets relative to the betting deadline. The result page is
// crawled ten minutes after the deadline; the race itself runs within
// that window.
var taskOffsets = map[TaskKind]time.Duration{
	TaskRaceInformation:   -15 * time.Minute,
	TaskBeforeInformation: -10 * time.Minute,
	TaskOdds:              -5 * time.Minute,
	TaskRaceResult:        10 * time.Minute,
}

// TaskOffset returns the deadline-relative offset for a kind.
func TaskOffset(kind TaskKind) time.Duration {
	return taskOffsets[kind]
}

// ScheduledTask is one schedulable unit of work in the task registry.
// Identity is the revocation handle: exact string equality is the whole
// cancellation mechanism.
type ScheduledTask struct {
	Kind     TaskKind
	Key      RaceKey
	ETA      time.Time
	Identity string
}

// ExpectedDeadline recovers the betting deadline this task was scheduled
// against from its own eta.
func (t ScheduledTask) ExpectedDeadline() time.Time {
	return t.ETA.Add(-TaskOffset(t.Kind))
}

// Page is a fetched official-site page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
	Duration   time.Duration
}

// RaceEntry is one pit in a race.
type RaceEntry struct {
	Key                     RaceKey
	PitNumber               int
	RacerRegistrationNumber int
	BoatNumber              int
	MotorNumber             int
}

// MotorPartsExchange records one replaced motor part.
type MotorPartsExchange struct {
	PartName string
	Quantity int
}

// BoatSetting captures per-pit equipment state. Which fields are
// authoritative depends on the page it came from, so upserts carry an
// explicit overwrite list.
type BoatSetting struct {
	Key                 RaceKey
	PitNumber           int
	BoatNumber          int
	MotorNumber         int
	Tilt                float64
	IsPropellerRenewed  bool
	MotorPartsExchanges []MotorPartsExchange
}

// StartExhibitionRecord is one pit's practice start.
type StartExhibitionRecord struct {
	Key          RaceKey
	PitNumber    int
	CourseNumber int
	StartTime    float64
}

// CircumferenceExhibitionRecord is one pit's practice lap time.
type CircumferenceExhibitionRecord struct {
	Key            RaceKey
	PitNumber      int
	ExhibitionTime float64
}

// RacerCondition is a racer's weight/adjust on race day.
type RacerCondition struct {
	Key                     RaceKey
	RacerRegistrationNumber int
	Weight                  float64
	Adjust                  float64
}

// WeatherCondition is the weather block shown on a race page.
type WeatherCondition struct {
	Key           RaceKey
	InPerformance bool // true when read from the result page
	Weather       string
	WindVelocity  float64
	WindAngle     float64
	Wavelength    float64
	AirTemp       float64
	WaterTemp     float64
}

// Odds is one trifecta combination's ratio.
type Odds struct {
	Key       RaceKey
	FirstPit  int
	SecondPit int
	ThirdPit  int
	Ratio     float64
}

// Payoff is one winning bet's payout.
type Payoff struct {
	Key           RaceKey
	BettingMethod string
	BettingNumber string
	Amount        int
}

// RaceRecord is one pit's result row. WinningTrick and Disqualification
// are the outcome tags used to split records into winning and
// disqualified subsets.
type RaceRecord struct {
	Key              RaceKey
	PitNumber        int
	CourseNumber     int
	StartTime        *float64
	RaceTime         *float64
	Arrival          *int
	WinningTrick     *string
	Disqualification *string
}

// BoatPerformance aggregates a boat's betting contribute rate.
type BoatPerformance struct {
	StadiumTelCode StadiumTelCode
	BoatNumber     int
	RecordedDate   time.Time
	QuinellaRate   float64
	TrioRate       float64
}

// MotorPerformance aggregates a motor's betting contribute rate.
type MotorPerformance struct {
	StadiumTelCode StadiumTelCode
	MotorNumber    int
	RecordedDate   time.Time
	QuinellaRate   float64
	TrioRate       float64
}

// RacerPerformance aggregates a racer's winning rate as of a date.
type RacerPerformance struct {
	RacerRegistrationNumber int
	AggregatedOn            time.Time
	RateInAllStadium        float64
	RateInEventGoingStadium float64
}

// MotorMaintenance records part exchanges for a motor in a race.
type MotorMaintenance struct {
	Key            RaceKey
	MotorNumber    int
	ExchangedParts []MotorPartsExchange
}

// RacerStatus is the lifecycle status of a racer profile.
type RacerStatus string

// Racer statuses. An empty status means the profile has never been
// crawled; Retired is terminal and stops backfill selection.
const (
	RacerStatusActive  RacerStatus = "active"
	RacerStatusRetired RacerStatus = "retired"
)

// Racer is a racer profile.
type Racer struct {
	RegistrationNumber int
	LastName           string
	FirstName          string
	Gender             string
	Term               int
	BirthDate          *time.Time
	BranchID           int
	BirthPrefectureID  int
	Height             int
	Status             RacerStatus
}

// Event is one multi-day series held at a stadium.
type Event struct {
	StadiumTelCode StadiumTelCode
	StartsOn       time.Time
	Days           int
	Grade          string
	Title          string
}

// EventHolding reports whether a stadium is racing on a date.
type EventHolding struct {
	StadiumTelCode StadiumTelCode
	Date           time.Time
	Status         EventHoldingStatus
}

// EventHoldingStatus is the per-day holding state of a stadium.
type EventHoldingStatus string

// Holding statuses reported by the event holding page.
const (
	EventHoldingOpen      EventHoldingStatus = "open"
	EventHoldingCanceled  EventHoldingStatus = "canceled"
	EventHoldingPostponed EventHoldingStatus = "postponed"
)

// EventEntry is one racer's pre-inspection entry for an event.
type EventEntry struct {
	StadiumTelCode          StadiumTelCode
	Date                    time.Time
	RacerRegistrationNumber int
	MotorNumber             int
	QuinellaRateOfMotor     float64
}

// MotorRenewal marks the date a stadium renewed its motor pool.
type MotorRenewal struct {
	StadiumTelCode StadiumTelCode
	Date           time.Time
}
