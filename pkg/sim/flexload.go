package sim

import (
	"math"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// evFleet is the EV charger bank. When flexible, its charging is throttled
// linearly by the available-energy signal rather than cut off outright.
type evFleet struct {
	cfg    *types.EVFleetConfig
	target timeseries.Series
	actual timeseries.Series
}

func newEVFleet(site *types.SiteData, cfg *types.EVFleetConfig) *evFleet {
	perStepCap := float64(cfg.Chargers) * cfg.ChargerKW * site.StepHours
	target := site.EVBaselineKWH.Scale(float64(cfg.Chargers)).ClampMax(perStepCap)
	return &evFleet{
		cfg:    cfg,
		target: target,
		actual: timeseries.Zeros(site.Steps),
	}
}

// StepCalc serves as much of the target as the available energy allows and
// returns what it consumed.
func (e *evFleet) StepCalc(l *Ledger, availKWH float64, step int) float64 {
	target := e.target.At(step)
	served := throttle(target, 0, availKWH, e.cfg.Flexible)
	if served > 0 {
		l.StepContribute(CatElec, served, step)
		e.actual.Set(step, served)
	}
	return served
}

// dataCentre is a flexible load whose waste heat feeds an optional hot-room
// heat pump. The pump's budget comes out of the same available-energy figure:
// when the load is throttled, whatever the load itself did not consume is
// what the pump may draw.
type dataCentre struct {
	cfg    *types.DataCentreConfig
	target timeseries.Series
	actual timeseries.Series
	hp     *heatPump
}

func newDataCentre(site *types.SiteData, cfg *types.DataCentreConfig) *dataCentre {
	dc := &dataCentre{
		cfg:    cfg,
		target: timeseries.Constant(site.Steps, cfg.MaxLoadKW*site.StepHours),
		actual: timeseries.Zeros(site.Steps),
	}
	if cfg.HeatRecovery != nil {
		dc.hp = newHeatPump(site, cfg.HeatRecovery, true)
	}
	return dc
}

// StepCalc serves the load, publishes its exhaust as recoverable waste heat,
// and runs the attached heat pump within the leftover budget. Returns the
// total electricity consumed by load plus pump.
func (d *dataCentre) StepCalc(l *Ledger, availKWH float64, step int) float64 {
	target := d.target.At(step)
	var hpMax float64
	if d.hp != nil {
		hpMax = d.hp.MaxDrawKWH()
	}

	served := throttle(target, hpMax, availKWH, d.cfg.Flexible)
	consumed := served
	if served > 0 {
		l.StepContribute(CatElec, served, step)
		// served load leaves as recoverable exhaust heat
		l.StepContribute(CatWaste, -served, step)
		d.actual.Set(step, served)
	}

	if d.hp != nil {
		hpBudget := math.Inf(1)
		if d.cfg.Flexible {
			hpBudget = availKWH - served
		}
		consumed += d.hp.StepCalc(l, hpBudget, step)
	}
	return consumed
}

// throttle implements the shared curtailment shape: inflexible loads always
// serve the full target; flexible loads serve nothing when no energy is
// available, the full target when the budget covers target plus the reserved
// companion draw, and a linear scale-down in between.
func throttle(target, reservedKWH, availKWH float64, flexible bool) float64 {
	if !flexible {
		return target
	}
	if availKWH <= 0 {
		return 0
	}
	if availKWH >= target+reservedKWH {
		return target
	}
	return target * availKWH / (target + reservedKWH)
}
