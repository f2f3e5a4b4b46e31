package httpapp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/shelfwise/internal/filecache"
	"github.com/cesargomez89/shelfwise/internal/http/dto"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/sweep"
)

// Scheduler accepts refresh requests without waiting for them to run.
type Scheduler interface {
	ScheduleCommunityContentFetch(bookID int64, subjectID string) bool
	ScheduleAuthorRecommendationRefresh(authorNames []string) bool
	ScheduleFullRecommendationRefresh() bool
}

// SweepReporter exposes the last recorded cache-warming pass.
type SweepReporter interface {
	LastResult(ctx context.Context) (*sweep.Result, time.Time, error)
}

type Handler struct {
	Scheduler Scheduler
	Cache     *filecache.Cache
	Sweeper   SweepReporter
	Logger    *logger.Logger
}

func NewHandler(s Scheduler, cache *filecache.Cache, sweeper SweepReporter, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Scheduler: s,
		Cache:     cache,
		Sweeper:   sweeper,
		Logger:    log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/covers/{name}", h.ServeCover)
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/books/{id}/community", h.ScheduleCommunity)
		r.Post("/recommendations/refresh", h.ScheduleRecommendations)
		r.Get("/sweep", h.SweepStatus)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidationErrors(w http.ResponseWriter, errs []dto.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  dto.ToResponse(errs),
		"errors": dto.ToMap(errs),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
