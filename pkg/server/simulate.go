package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitemix/sitemix/pkg/cost"
	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/optimizer"
	"github.com/sitemix/sitemix/pkg/sim"
	"github.com/sitemix/sitemix/pkg/types"
)

type simulateRequest struct {
	Scenario   types.Scenario `json:"scenario"`
	FullSeries bool           `json:"fullSeries"`
	// Save persists the run record for later retrieval via /api/runs.
	Save bool `json:"save"`
}

type simulateResponse struct {
	RunID      string           `json:"runID,omitempty"`
	Report     *types.Report    `json:"report"`
	Financials types.Financials `json:"financials"`
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Scenario.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Ctx(ctx).DebugContext(ctx, "simulate requested",
		slog.String("email", requestEmail(r)), slog.Bool("fullSeries", req.FullSeries))

	capex := s.model.Capex(&req.Scenario)
	rep, err := sim.Run(ctx, s.site, &req.Scenario, sim.RunOpts{FullSeries: req.FullSeries, CapexDollars: capex})
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	baseline, err := sim.Run(ctx, s.site, &types.Scenario{TariffOption: req.Scenario.TariffOption}, sim.RunOpts{})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "baseline simulation failed", slog.Any("error", err))
		writeJSONError(w, "baseline simulation failed", http.StatusInternalServerError)
		return
	}

	resp := simulateResponse{
		Report:     rep,
		Financials: cost.Financials(capex, baseline.Summary, rep.Summary),
	}

	if req.Save {
		run := types.RunRecord{
			ID:         newRunID(),
			SiteID:     s.siteID,
			CreatedAt:  time.Now().UTC(),
			Scenario:   req.Scenario,
			Rejected:   rep.Rejected,
			Summary:    rep.Summary,
			Financials: resp.Financials,
		}
		if err := s.storage.SaveRun(ctx, s.siteID, run); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to save run", slog.Any("error", err), slog.String("runID", run.ID))
			writeJSONError(w, "failed to save run", http.StatusInternalServerError)
			return
		}
		resp.RunID = run.ID
	}

	writeJSON(w, resp)
}

type sweepRequest struct {
	Scenarios []types.Scenario `json:"scenarios"`

	// Grid, when set, expands Base across the battery and panel axes and
	// appends the result to Scenarios.
	Grid *struct {
		Base       types.Scenario `json:"base"`
		BatteryKWH []float64      `json:"batteryKWH"`
		Panels     []float64      `json:"panels"`
	} `json:"grid,omitempty"`
}

type sweepResult struct {
	Scenario   types.Scenario   `json:"scenario"`
	Rejected   bool             `json:"rejected"`
	Summary    *types.Summary   `json:"summary,omitempty"`
	Financials types.Financials `json:"financials"`
	Error      string           `json:"error,omitempty"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	scenarios := req.Scenarios
	if req.Grid != nil {
		scenarios = append(scenarios, optimizer.Grid(req.Grid.Base, req.Grid.BatteryKWH, req.Grid.Panels)...)
	}
	if len(scenarios) == 0 {
		writeJSONError(w, "no scenarios to sweep", http.StatusBadRequest)
		return
	}

	results, err := s.opt.Sweep(ctx, s.site, scenarios)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "sweep failed", slog.Any("error", err))
		writeJSONError(w, "sweep failed", http.StatusInternalServerError)
		return
	}

	out := make([]sweepResult, 0, len(results))
	for _, res := range results {
		sr := sweepResult{
			Scenario:   res.Scenario,
			Financials: res.Financials,
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		} else if res.Report != nil {
			sr.Rejected = res.Report.Rejected
			summary := res.Report.Summary
			sr.Summary = &summary
		}
		out = append(out, sr)
	}
	writeJSON(w, out)
}
