package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// FlexPrecedence selects which flexible load claims the shared energy budget
// first within a timestep. FlexAuto is EV first; the explicit values exist so
// a caller can pin either order.
type FlexPrecedence int

const (
	FlexAuto FlexPrecedence = iota
	FlexEVFirst
	FlexDataCentreFirst
)

// RunOpts controls a single scenario simulation.
type RunOpts struct {
	// FullSeries includes the per-timestep report series; when false only the
	// scalar summary is produced.
	FullSeries bool
	// CapexDollars and CapexCeilingDollars enable the pre-check fast path:
	// when the ceiling is > 0 and capex exceeds it, the scenario is rejected
	// without running the per-timestep loop.
	CapexDollars        float64
	CapexCeilingDollars float64
	// Precedence overrides the flexible-load evaluation order.
	Precedence FlexPrecedence
}

// Run simulates one scenario against the site and returns its report.
// Configuration errors surface here, before any simulation work; they never
// interrupt the per-timestep loop.
func Run(ctx context.Context, site *types.SiteData, scn *types.Scenario, opts RunOpts) (*types.Report, error) {
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if err := scn.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if scn.TariffOption >= len(site.ImportTariff) {
		return nil, fmt.Errorf("scenario: tariff option %d out of range (site has %d)",
			scn.TariffOption, len(site.ImportTariff))
	}

	if opts.CapexCeilingDollars > 0 && opts.CapexDollars > opts.CapexCeilingDollars {
		return &types.Report{Rejected: true, Steps: site.Steps}, nil
	}

	r := newRunner(site, scn, opts)
	r.simulate(ctx)
	return r.report(), nil
}

// runner owns one scenario's ledger and freshly constructed components.
// Nothing in it is shared with any other scenario, which is what makes
// scenarios safe to run in parallel.
type runner struct {
	site   *types.SiteData
	scn    *types.Scenario
	opts   RunOpts
	tariff timeseries.Series
	ledger *Ledger

	fixed []fixedComponent
	gas   *gasHeater

	ev   *evFleet
	dc   *dataCentre
	cyl  *cylinder
	hp   *heatPump
	bat  *battery
	grid *grid

	heatShortfallKWH timeseries.Series
}

func newRunner(site *types.SiteData, scn *types.Scenario, opts RunOpts) *runner {
	r := &runner{
		site:             site,
		scn:              scn,
		opts:             opts,
		tariff:           site.Tariff(scn.TariffOption),
		ledger:           NewLedger(site.Steps),
		heatShortfallKWH: timeseries.Zeros(site.Steps),
	}

	r.fixed = append(r.fixed, newBaseLoad(site))
	if scn.Renewables != nil {
		r.fixed = append(r.fixed, newRenewables(site, scn.Renewables))
	}
	if scn.GasHeater != nil {
		r.gas = newGasHeater(site, scn.GasHeater)
		r.fixed = append(r.fixed, r.gas)
	}
	if scn.Offtake != nil {
		r.fixed = append(r.fixed, newOfftake(site, scn.Offtake))
	}

	if scn.EVFleet != nil {
		r.ev = newEVFleet(site, scn.EVFleet)
	}
	if scn.DataCentre != nil {
		r.dc = newDataCentre(site, scn.DataCentre)
	}
	if scn.Cylinder != nil {
		r.cyl = newCylinder(site, scn.Cylinder, r.tariff)
	}
	if scn.HeatPump != nil {
		r.hp = newHeatPump(site, scn.HeatPump, false)
	}
	if scn.Battery != nil {
		r.bat = newBattery(scn.Battery, site.Steps, site.StepHours)
	}
	if scn.Grid != nil {
		r.grid = newGrid(site.Steps, site.StepHours, scn.Grid)
	} else {
		r.grid = newUnlimitedGrid(site.Steps, site.StepHours)
	}
	return r
}

// evBeforeDC resolves the flexible-load order: EV first unless the caller
// pinned the opposite.
func (r *runner) evBeforeDC() bool {
	switch r.opts.Precedence {
	case FlexEVFirst:
		return true
	case FlexDataCentreFirst:
		return false
	}
	return true
}

func (r *runner) simulate(ctx context.Context) {
	for _, c := range r.fixed {
		c.AllCalcs(r.ledger)
	}

	evFirst := r.evBeforeDC()
	for step := 0; step < r.site.Steps; step++ {
		availImport := r.grid.AvailImportKWH()

		// the shared budget signal: what the step can still draw before the
		// grid clamp, given the fixed balance so far
		avail := availImport
		if !math.IsInf(avail, 1) {
			avail -= r.ledger.At(CatElec, step)
		}

		if evFirst {
			if r.ev != nil {
				avail -= r.ev.StepCalc(r.ledger, avail, step)
			}
			if r.dc != nil {
				avail -= r.dc.StepCalc(r.ledger, avail, step)
			}
		} else {
			if r.dc != nil {
				avail -= r.dc.StepCalc(r.ledger, avail, step)
			}
			if r.ev != nil {
				avail -= r.ev.StepCalc(r.ledger, avail, step)
			}
		}

		if r.cyl != nil {
			r.cyl.StepCalc(r.ledger, step)
		}
		if r.hp != nil {
			r.hp.StepCalc(r.ledger, math.Inf(1), step)
		}
		if r.bat != nil {
			r.bat.StepCalc(ctx, r.ledger, availImport, step)
		}

		// heat the balancing stages could not serve stays as shortfall
		shortfall := r.ledger.Demand(CatHeat, step) +
			r.ledger.Demand(CatDHW, step) +
			r.ledger.Demand(CatPool, step)
		r.heatShortfallKWH.Set(step, shortfall)

		r.grid.Finalize(r.ledger, step)
	}
}

func (r *runner) report() *types.Report {
	rep := &types.Report{Steps: r.site.Steps}
	s := &rep.Summary

	s.ImportKWH = r.grid.importKWH.Sum()
	s.ExportKWH = r.grid.exportKWH.Sum()
	s.ImportShortfallKWH = r.grid.shortfallKWH.Sum()
	s.ExportCurtailedKWH = r.grid.curtailedKWH.Sum()
	s.ImportCostDollars = r.grid.importKWH.Mul(r.tariff).Sum()
	s.ExportRevenueDollars = s.ExportKWH * r.site.ExportDollarsPerKWH
	s.CarbonKg = r.grid.importKWH.Mul(r.site.CarbonKgPerKWH).Sum()
	s.HeatShortfallKWH = r.heatShortfallKWH.Sum()

	if r.bat != nil {
		s.BatteryChargeKWH = r.bat.chargeKWH.Sum()
		s.BatteryDischargeKWH = r.bat.dischargeKWH.Sum()
	}

	hpElec := timeseries.Zeros(r.site.Steps)
	hpHeat := timeseries.Zeros(r.site.Steps)
	hpDHW := timeseries.Zeros(r.site.Steps)
	for _, hp := range r.heatPumps() {
		hpElec = hpElec.Add(hp.elecKWH)
		hpHeat = hpHeat.Add(hp.heatKWH)
		hpDHW = hpDHW.Add(hp.dhwKWH)
	}
	s.HeatPumpElecKWH = hpElec.Sum()
	s.HeatPumpHeatKWH = hpHeat.Sum()
	s.HeatPumpDHWKWH = hpDHW.Sum()

	if r.gas != nil {
		s.GasHeatKWH = r.gas.HeatKWH().Sum()
		s.GasFuelKWH = r.gas.FuelKWH().Sum()
	}
	if r.ev != nil {
		s.EVTargetKWH = r.ev.target.Sum()
		s.EVActualKWH = r.ev.actual.Sum()
	}
	if r.dc != nil {
		s.DCTargetKWH = r.dc.target.Sum()
		s.DCActualKWH = r.dc.actual.Sum()
	}
	if r.cyl != nil {
		s.CylinderShortfallKWH = r.cyl.shortfallKWH.Sum()
	}

	if !r.opts.FullSeries {
		return rep
	}

	series := &types.ReportSeries{
		ImportKWH:          r.grid.importKWH,
		ExportKWH:          r.grid.exportKWH,
		ImportShortfallKWH: r.grid.shortfallKWH,
		ExportCurtailedKWH: r.grid.curtailedKWH,
		NetImportKWH:       r.grid.importKWH.Sub(r.grid.exportKWH),
		HeatPumpElecKWH:    hpElec,
		HeatPumpHeatKWH:    hpHeat,
		HeatPumpDHWKWH:     hpDHW,
		HeatShortfallKWH:   r.heatShortfallKWH,
	}
	if r.bat != nil {
		series.BatteryChargeKWH = r.bat.chargeKWH
		series.BatteryDischargeKWH = r.bat.dischargeKWH
		series.BatterySOCKWH = r.bat.socSeries
	}
	if r.ev != nil {
		series.EVTargetKWH = r.ev.target
		series.EVActualKWH = r.ev.actual
	}
	if r.dc != nil {
		series.DCTargetKWH = r.dc.target
		series.DCActualKWH = r.dc.actual
	}
	if r.cyl != nil {
		series.CylinderSOCKWH = r.cyl.socKWH
		series.CylinderShortfallKWH = r.cyl.shortfallKWH
	}
	rep.Series = series
	return rep
}

func (r *runner) heatPumps() []*heatPump {
	var pumps []*heatPump
	if r.hp != nil {
		pumps = append(pumps, r.hp)
	}
	if r.dc != nil && r.dc.hp != nil {
		pumps = append(pumps, r.dc.hp)
	}
	return pumps
}
