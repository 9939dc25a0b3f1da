// Package optimizer sweeps candidate equipment scenarios against one site in
// parallel and ranks the outcomes. Each scenario owns freshly constructed
// simulation state, so the only serialisation point is the results collector.
package optimizer

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/sitemix/sitemix/pkg/cost"
	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/sim"
	"github.com/sitemix/sitemix/pkg/types"
)

// Result is one swept scenario's outcome. Err is set when the scenario's
// configuration was invalid; sibling scenarios are unaffected.
type Result struct {
	Scenario   types.Scenario   `json:"scenario"`
	Report     *types.Report    `json:"report,omitempty"`
	Financials types.Financials `json:"financials"`
	Err        error            `json:"-"`
}

// Optimizer runs scenario sweeps with bounded concurrency and an optional
// wall-clock budget.
type Optimizer struct {
	model       cost.Model
	concurrency int
	budget      time.Duration
	capexMax    float64
}

// New returns an optimizer with the given cost model and worker count.
func New(model cost.Model, concurrency int) *Optimizer {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Optimizer{model: model, concurrency: concurrency}
}

// WithBudget bounds total sweep wall-clock time. Zero means unbounded.
func (o *Optimizer) WithBudget(d time.Duration) *Optimizer {
	o.budget = d
	return o
}

// WithCapexCeiling rejects scenarios above the ceiling without simulating
// them. Zero disables the pre-check.
func (o *Optimizer) WithCapexCeiling(dollars float64) *Optimizer {
	o.capexMax = dollars
	return o
}

// Sweep simulates every scenario and returns results ranked by payback, then
// by annual cost. The baseline for payback is the do-nothing scenario on the
// same site and tariff. A budget timeout is recorded on the results it cuts
// off; the returned error is non-nil only when the caller's context ended.
func (o *Optimizer) Sweep(ctx context.Context, site *types.SiteData, scenarios []types.Scenario) ([]Result, error) {
	parent := ctx
	if o.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	// one do-nothing baseline per tariff option in use, so savings compare
	// against the same tariff the candidate is priced on
	baselines := make(map[int]types.Summary)
	for _, scn := range scenarios {
		if _, ok := baselines[scn.TariffOption]; ok {
			continue
		}
		baseRep, err := sim.Run(ctx, site, &types.Scenario{TariffOption: scn.TariffOption}, sim.RunOpts{})
		if err != nil {
			// an invalid option fails its own scenarios in runOne
			continue
		}
		baselines[scn.TariffOption] = baseRep.Summary
	}

	jobs := make(chan int)
	results := make([]Result, len(scenarios))

	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				jctx := log.Attach(ctx, slog.Int("scenario", i))
				results[i] = o.runOne(jctx, site, scenarios[i], baselines[scenarios[i].TariffOption])
			}
		}()
	}

	var aborted int
dispatch:
	for i := range scenarios {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(scenarios); j++ {
				results[j] = Result{Scenario: scenarios[j], Err: ctx.Err()}
			}
			aborted = len(scenarios) - i
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if aborted > 0 {
		log.Ctx(ctx).WarnContext(ctx, "sweep budget exhausted",
			slog.Int("aborted", aborted), slog.Int("total", len(scenarios)))
	}

	// valid results first, then rejected, then errored
	class := func(r Result) int {
		switch {
		case r.Err != nil:
			return 2
		case r.Report != nil && r.Report.Rejected:
			return 1
		}
		return 0
	}
	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ca, cb := class(ra), class(rb); ca != cb {
			return ca < cb
		}
		if ra.Financials.PaybackYears != rb.Financials.PaybackYears {
			return ra.Financials.PaybackYears < rb.Financials.PaybackYears
		}
		return ra.Financials.AnnualCostDollars < rb.Financials.AnnualCostDollars
	})
	return results, parent.Err()
}

func (o *Optimizer) runOne(ctx context.Context, site *types.SiteData, scn types.Scenario, baseline types.Summary) Result {
	capex := o.model.Capex(&scn)
	rep, err := sim.Run(ctx, site, &scn, sim.RunOpts{
		CapexDollars:        capex,
		CapexCeilingDollars: o.capexMax,
	})
	if err != nil {
		return Result{Scenario: scn, Err: err}
	}
	res := Result{Scenario: scn, Report: rep}
	if !rep.Rejected {
		res.Financials = cost.Financials(capex, baseline, rep.Summary)
	} else {
		res.Financials = types.Financials{CapexDollars: capex, PaybackYears: math.Inf(1)}
	}
	return res
}

// Grid expands a base scenario across battery capacities and panel counts,
// the two axes a sizing sweep most commonly explores.
func Grid(base types.Scenario, batteryKWH, panels []float64) []types.Scenario {
	if len(batteryKWH) == 0 {
		batteryKWH = []float64{0}
	}
	if len(panels) == 0 {
		panels = []float64{0}
	}
	var out []types.Scenario
	for _, kwh := range batteryKWH {
		for _, n := range panels {
			scn := base
			if kwh > 0 {
				bat := types.BatteryConfig{
					CapacityKWH: kwh,
					ChargeKW:    kwh / 2,
					DischargeKW: kwh / 2,
					Efficiency:  0.92,
					Mode:        types.BatteryModeConsume,
				}
				if base.Battery != nil {
					bat = *base.Battery
					bat.CapacityKWH = kwh
				}
				scn.Battery = &bat
			}
			if n > 0 {
				scn.Renewables = &types.RenewablesConfig{PanelsPerArray: []float64{n}}
			}
			out = append(out, scn)
		}
	}
	return out
}

// Configured sets up an optimizer from flags.
func Configured(model *cost.Model) *Optimizer {
	concurrency := lflag.Int("sweep-concurrency", runtime.NumCPU(), "Maximum scenarios simulated in parallel")
	budget := lflag.Duration("sweep-budget", 0, "Wall-clock budget for a whole sweep (0 for unbounded)")
	ceiling := new(float64)
	lflag.JSON(ceiling, "sweep-capex-ceiling", 0.0, "Reject scenarios whose capital cost exceeds this (0 disables)")

	o := &Optimizer{}

	lflag.Do(func() {
		o.model = *model
		o.concurrency = *concurrency
		if o.concurrency <= 0 {
			o.concurrency = runtime.NumCPU()
		}
		o.budget = *budget
		o.capexMax = *ceiling
	})

	return o
}
