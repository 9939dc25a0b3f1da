package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/storage"
)

// handleListRuns returns the persisted runs in the requested time range,
// defaulting to the trailing year.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSONError(w, "invalid start time", http.StatusBadRequest)
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSONError(w, "invalid end time", http.StatusBadRequest)
			return
		}
		end = t
	}
	if !end.After(start) {
		writeJSONError(w, "end must be after start", http.StatusBadRequest)
		return
	}

	runs, err := s.storage.ListRuns(ctx, s.siteID, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list runs", slog.Any("error", err))
		writeJSONError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := s.storage.GetRun(ctx, s.siteID, r.PathValue("id"))
	if errors.Is(err, storage.ErrRunNotFound) {
		writeJSONError(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get run", slog.Any("error", err))
		writeJSONError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := s.storage.GetLatestRun(ctx, s.siteID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get latest run", slog.Any("error", err))
		writeJSONError(w, "failed to get latest run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		writeJSONError(w, "no runs recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}
