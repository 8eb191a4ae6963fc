// Package api exposes the HTTP interface for the crawler service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/boatrace"
	"github.com/metaboatrace/crawler/internal/scheduler"
)

// TaskLister exposes the registry's pending tasks.
type TaskLister interface {
	Pending() []boatrace.ScheduledTask
}

// DayScheduler triggers a day's race scheduling.
type DayScheduler interface {
	ScheduleAllRacesToday(ctx context.Context, date time.Time) error
}

// Drainer runs one backfill sweep.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Server wires HTTP handlers to the scheduler and stores.
type Server struct {
	router    chi.Router
	tasks     TaskLister
	ledger    boatrace.RaceLedger
	scheduler DayScheduler
	backfill  Drainer
	clock     boatrace.Clock
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	tasks TaskLister,
	ledger boatrace.RaceLedger,
	daySched DayScheduler,
	backfill Drainer,
	clock boatrace.Clock,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		tasks:     tasks,
		ledger:    ledger,
		scheduler: daySched,
		backfill:  backfill,
		clock:     clock,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tasks", s.listTasks)
		r.Get("/races", s.listRaces)
		r.Post("/schedule", s.scheduleDay)
		r.Post("/backfill", s.runBackfill)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type taskResponse struct {
	Identity string    `json:"identity"`
	Kind     string    `json:"kind"`
	Race     string    `json:"race"`
	ETA      time.Time `json:"eta"`
}

func (s *Server) listTasks(w http.ResponseWriter, _ *http.Request) {
	pending := s.tasks.Pending()
	out := make([]taskResponse, 0, len(pending))
	for _, t := range pending {
		out = append(out, taskResponse{
			Identity: t.Identity,
			Kind:     string(t.Kind),
			Race:     t.Key.String(),
			ETA:      t.ETA,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

type raceResponse struct {
	Race       string     `json:"race"`
	Title      string     `json:"title"`
	Deadline   *time.Time `json:"betting_deadline_at"`
	IsCanceled bool       `json:"is_canceled"`
}

func (s *Server) listRaces(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	races, err := s.ledger.FindAllByDate(r.Context(), date)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load races")
		return
	}
	out := make([]raceResponse, 0, len(races))
	for _, race := range races {
		out = append(out, raceResponse{
			Race:       race.Key.String(),
			Title:      race.Title,
			Deadline:   race.BettingDeadlineAt,
			IsCanceled: race.IsCanceled,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"races": out})
}

func (s *Server) scheduleDay(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	if err := s.scheduler.ScheduleAllRacesToday(r.Context(), date); err != nil {
		if errors.Is(err, scheduler.ErrNoRacesToday) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"date": date.Format("2006-01-02")})
}

func (s *Server) runBackfill(w http.ResponseWriter, r *http.Request) {
	if err := s.backfill.Drain(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
}

func (s *Server) dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := s.clock.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				s.writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write json failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
