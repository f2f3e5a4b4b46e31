package httpapp

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/filecache"
	"github.com/cesargomez89/shelfwise/internal/http/dto"
)

// ServeCover streams a cached image by its key.
func (h *Handler) ServeCover(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	file, err := h.Cache.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, filecache.ErrUnsafeName):
			http.Error(w, "invalid file name", http.StatusBadRequest)
		case errors.Is(err, filecache.ErrNotCached):
			http.NotFound(w, r)
		default:
			h.Logger.Error("Failed to open cached file", "name", name, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	f, err := os.Open(file.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		h.Logger.Error("Failed to read cached file", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", constants.CacheControlImmutable)
	w.Header().Set("ETag", file.ETag())
	// ServeContent answers If-None-Match and Range from the ETag set above.
	http.ServeContent(w, r, file.Key, file.LastModified, f)
}

func (h *Handler) ScheduleCommunity(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || bookID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req dto.CommunityRefreshRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		req.SubjectID = r.FormValue("subject_id")
	}
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	if !h.Scheduler.ScheduleCommunityContentFetch(bookID, req.SubjectID) {
		writeError(w, http.StatusServiceUnavailable, "refresh not accepted")
		return
	}
	writeJSON(w, http.StatusAccepted, dto.ScheduleResponse{Status: "queued", Scope: "community"})
}

func (h *Handler) ScheduleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req dto.RecommendationRefreshRequest
	if isJSON(r) {
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Authors = append(r.Form["authors[]"], r.Form["authors"]...)
	}
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var accepted bool
	scope := "authors"
	if req.Full() {
		scope = "full"
		accepted = h.Scheduler.ScheduleFullRecommendationRefresh()
	} else {
		accepted = h.Scheduler.ScheduleAuthorRecommendationRefresh(req.Authors)
	}
	if !accepted {
		writeError(w, http.StatusServiceUnavailable, "recommendations are disabled")
		return
	}
	writeJSON(w, http.StatusAccepted, dto.ScheduleResponse{Status: "queued", Scope: scope})
}

func (h *Handler) SweepStatus(w http.ResponseWriter, r *http.Request) {
	res, at, err := h.Sweeper.LastResult(r.Context())
	if err != nil {
		h.Logger.Error("Failed to read sweep result", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read sweep result")
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, dto.SweepStatusResponse{})
		return
	}
	resp := dto.SweepStatusResponse{
		Candidates: res.Candidates,
		Cached:     res.Cached,
		Fetched:    res.Fetched,
		Failed:     res.Failed,
	}
	if !at.IsZero() {
		resp.LastRunAt = at.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
