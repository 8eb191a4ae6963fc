package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/scheduler"
	storememory "github.com/metaboatrace/crawler/internal/storage/memory"
)

type fakeTaskLister struct {
	tasks []boatrace.ScheduledTask
}

func (f *fakeTaskLister) Pending() []boatrace.ScheduledTask { return f.tasks }

type fakeDayScheduler struct {
	err   error
	dates []time.Time
}

func (f *fakeDayScheduler) ScheduleAllRacesToday(_ context.Context, date time.Time) error {
	f.dates = append(f.dates, date)
	return f.err
}

type fakeDrainer struct {
	err   error
	calls int
}

func (f *fakeDrainer) Drain(context.Context) error {
	f.calls++
	return f.err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type serverFixture struct {
	tasks    *fakeTaskLister
	ledger   *storememory.Ledger
	daySched *fakeDayScheduler
	drainer  *fakeDrainer
	server   *Server
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		tasks:    &fakeTaskLister{},
		ledger:   storememory.NewLedger(),
		daySched: &fakeDayScheduler{},
		drainer:  &fakeDrainer{},
	}
	clock := fixedClock{now: time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC)}
	f.server = NewServer(f.tasks, f.ledger, f.daySched, f.drainer, clock, zap.NewNop())
	return f
}

func (f *serverFixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode[map[string]string](t, rec)
	require.Equal(t, "ok", body["status"])
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	eta := time.Date(2026, 8, 31, 6, 15, 0, 0, time.UTC)
	f.tasks.tasks = []boatrace.ScheduledTask{{
		Kind: boatrace.TaskRaceInformation,
		Key: boatrace.RaceKey{
			StadiumTelCode: 4,
			Date:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			RaceNumber:     7,
		},
		ETA:      eta,
		Identity: "information:20260831:04:07",
	}}

	rec := f.do(t, http.MethodGet, "/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]map[string]any](t, rec)
	require.Len(t, body["tasks"], 1)
	require.Equal(t, "information:20260831:04:07", body["tasks"][0]["identity"])
	require.Equal(t, "information", body["tasks"][0]["kind"])
	require.Equal(t, "20260831:04:07", body["tasks"][0]["race"])
}

func TestListRaces(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	key := boatrace.RaceKey{
		StadiumTelCode: 4,
		Date:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		RaceNumber:     7,
	}
	deadline := time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)
	require.NoError(t, f.ledger.Upsert(context.Background(), boatrace.Race{
		Key: key, Title: "example cup", BettingDeadlineAt: &deadline,
	}))

	rec := f.do(t, http.MethodGet, "/v1/races?date=2026-08-31")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]map[string]any](t, rec)
	require.Len(t, body["races"], 1)
	require.Equal(t, "example cup", body["races"][0]["title"])
	require.Equal(t, false, body["races"][0]["is_canceled"])
}

func TestListRacesDefaultsToToday(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	key := boatrace.RaceKey{
		StadiumTelCode: 4,
		Date:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		RaceNumber:     7,
	}
	require.NoError(t, f.ledger.Upsert(context.Background(), boatrace.Race{Key: key}))

	rec := f.do(t, http.MethodGet, "/v1/races")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]map[string]any](t, rec)
	require.Len(t, body["races"], 1)
}

func TestListRacesRejectsBadDate(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/v1/races?date=20260831")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleDay(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	rec := f.do(t, http.MethodPost, "/v1/schedule?date=2026-08-31")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.daySched.dates, 1)
	require.True(t, f.daySched.dates[0].Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}

func TestScheduleDayNoRacesIs404(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	f.daySched.err = scheduler.ErrNoRacesToday

	rec := f.do(t, http.MethodPost, "/v1/schedule?date=2026-08-31")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunBackfill(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	rec := f.do(t, http.MethodPost, "/v1/backfill")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.drainer.calls)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
