package sim

import (
	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// kWh to raise one litre of water by one degree C.
const kwhPerLitreC = 4.186 / 3600

// cylinder is a hot-water thermal store with an immersion heater. It is the
// thermal twin of the battery: bounded stored energy, standby losses, and a
// priority-ordered set of competing charge sources.
type cylinder struct {
	cfg        *types.CylinderConfig
	site       *types.SiteData
	tariff     timeseries.Series
	meanTariff float64

	kwhPerC     float64
	capacityKWH float64
	storeKWH    float64

	socKWH       timeseries.Series
	shortfallKWH timeseries.Series
}

func newCylinder(site *types.SiteData, cfg *types.CylinderConfig, tariff timeseries.Series) *cylinder {
	kwhPerC := cfg.VolumeL * kwhPerLitreC
	return &cylinder{
		cfg:          cfg,
		site:         site,
		tariff:       tariff,
		meanTariff:   tariff.Mean(),
		kwhPerC:      kwhPerC,
		capacityKWH:  kwhPerC * (cfg.MaxTempC - cfg.ColdFeedC),
		socKWH:       timeseries.Zeros(site.Steps),
		shortfallKWH: timeseries.Zeros(site.Steps),
	}
}

// tempC is the average tank temperature implied by the stored energy.
func (c *cylinder) tempC() float64 {
	return c.cfg.ColdFeedC + c.storeKWH/c.kwhPerC
}

// StepCalc loses standby heat, serves the step's hot-water draw from store,
// then recharges the heater from (in order) electrical surplus, cheap grid
// electricity, and finally a forced top-up when the next draw would otherwise
// empty the tank. Returns the electricity consumed by the heater.
func (c *cylinder) StepCalc(l *Ledger, step int) float64 {
	loss := c.cfg.LossKWPerC * (c.tempC() - c.site.AmbientC.At(step)) * c.site.StepHours
	if loss < 0 {
		loss = 0
	}
	if loss > c.storeKWH {
		loss = c.storeKWH
	}
	c.storeKWH -= loss

	if draw := l.Demand(CatDHW, step); draw > 0 {
		serve := draw
		if serve > c.storeKWH {
			serve = c.storeKWH
		}
		if serve > 0 {
			c.storeKWH -= serve
			l.StepContribute(CatDHW, -serve, step)
		}
	}

	heaterCap := c.cfg.HeaterKW * c.site.StepHours
	room := c.capacityKWH - c.storeKWH
	if room < 0 {
		room = 0
	}
	maxCharge := heaterCap
	if maxCharge > room {
		maxCharge = room
	}

	var charge float64
	if surplus := l.Surplus(CatElec, step); surplus > 0 {
		charge = surplus
		if charge > maxCharge {
			charge = maxCharge
		}
	}
	if charge < maxCharge && c.tariff.At(step) < c.meanTariff {
		charge = maxCharge
	}
	if charge < maxCharge {
		// forced charge when the next draw-off would empty the tank
		if next := step + 1; next < c.site.Steps {
			if deficit := c.site.DHWDemandKWH.At(next) - (c.storeKWH + charge); deficit > 0 {
				forced := deficit
				if charge+forced > maxCharge {
					forced = maxCharge - charge
				}
				charge += forced
				c.shortfallKWH.Set(step, forced)
			}
		}
	}

	if charge > 0 {
		c.storeKWH += charge
		l.StepContribute(CatElec, charge, step)
	}
	c.socKWH.Set(step, c.storeKWH)
	return charge
}
