package sim

import (
	"math"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// heatPump serves the ledger's heat demand categories from either the ambient
// air or a fixed hot-room exhaust, converting heat served into electrical load
// via the performance lookup. Within a timestep, domestic hot water is always
// served before space heat, which is served before the pool: hot water has the
// harder deadline.
type heatPump struct {
	cfg    *types.HeatPumpConfig
	site   *types.SiteData
	lookup *perfLookup

	// wasteLimited bounds the heat extracted from the hot room by the waste
	// heat actually available in the ledger (set for the data-centre pump).
	wasteLimited bool

	elecKWH timeseries.Series
	heatKWH timeseries.Series
	dhwKWH  timeseries.Series
}

func newHeatPump(site *types.SiteData, cfg *types.HeatPumpConfig, wasteLimited bool) *heatPump {
	return &heatPump{
		cfg:          cfg,
		site:         site,
		lookup:       newPerfLookup(site.HeatPumpPerf, cfg.PowerKW, cfg.SendTempC),
		wasteLimited: wasteLimited,
		elecKWH:      timeseries.Zeros(site.Steps),
		heatKWH:      timeseries.Zeros(site.Steps),
		dhwKWH:       timeseries.Zeros(site.Steps),
	}
}

// MaxDrawKWH returns the largest electrical draw the pump can make in one
// timestep; a flexible host load reserves this much budget for it.
func (h *heatPump) MaxDrawKWH() float64 {
	return h.lookup.MaxInputKWH()
}

func (h *heatPump) sourceTemp(step int) float64 {
	if h.cfg.Source == types.HeatSourceHotRoom {
		return h.cfg.HotRoomTempC
	}
	return h.site.AmbientC.At(step)
}

// StepCalc serves as much of the remaining heat demand as capacity and the
// external electrical budget allow, writing heat served and electricity drawn
// into the ledger. Pass math.Inf(1) for an unconstrained budget. Returns the
// electricity consumed this timestep.
func (h *heatPump) StepCalc(l *Ledger, budgetKWH float64, step int) float64 {
	capOut, capIn := h.lookup.Lookup(h.sourceTemp(step))
	if capOut <= 0 || capIn <= 0 {
		// no capacity at this source temperature
		return 0
	}
	if budgetKWH < 0 {
		budgetKWH = 0
	}

	loadPerOut := capIn / capOut
	remOut := capOut
	var consumed float64

	for _, cat := range [...]Category{CatDHW, CatHeat, CatPool} {
		if remOut <= 0 || budgetKWH <= 0 {
			break
		}
		demand := l.Demand(cat, step)
		if demand <= 0 {
			continue
		}

		out := math.Min(demand, remOut)
		load := out * loadPerOut

		// an external electrical budget scales output and load down together
		if load > budgetKWH {
			out *= budgetKWH / load
			load = budgetKWH
		}

		// the hot-room pump cannot extract more heat than the exhaust holds
		if h.wasteLimited {
			extract := out - load
			if avail := l.Surplus(CatWaste, step); extract > avail {
				var scale float64
				if extract > 0 {
					scale = avail / extract
				}
				out *= scale
				load *= scale
			}
		}

		if out <= 0 {
			continue
		}

		l.StepContribute(cat, -out, step)
		l.StepContribute(CatElec, load, step)
		if h.wasteLimited {
			l.StepContribute(CatWaste, out-load, step)
		}

		remOut -= out
		budgetKWH -= load
		consumed += load

		h.elecKWH.AddAt(step, load)
		if cat == CatDHW {
			h.dhwKWH.AddAt(step, out)
		} else {
			h.heatKWH.AddAt(step, out)
		}
	}
	return consumed
}
