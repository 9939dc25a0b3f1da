package sim

import (
	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// A fixedComponent has no cross-timestep state and no dependency on other
// components' choices: it computes its full-horizon contribution once and
// writes it into the ledger in a single pass, before the balancing loop runs.
type fixedComponent interface {
	AllCalcs(l *Ledger)
}

// baseLoad contributes the site's baseline demand: building electricity plus
// each heat demand category.
type baseLoad struct {
	site *types.SiteData
}

func newBaseLoad(site *types.SiteData) *baseLoad {
	return &baseLoad{site: site}
}

func (b *baseLoad) AllCalcs(l *Ledger) {
	l.Contribute(CatElec, b.site.BaseElecKWH)
	l.Contribute(CatHeat, b.site.BaseHeatKWH)
	l.Contribute(CatDHW, b.site.DHWDemandKWH)
	l.Contribute(CatPool, b.site.PoolHeatKWH)
}

// renewables contributes fixed generation: the sum of each array's per-panel
// yield scaled by its panel count, as electrical surplus.
type renewables struct {
	generation timeseries.Series
}

func newRenewables(site *types.SiteData, cfg *types.RenewablesConfig) *renewables {
	gen := timeseries.Zeros(site.Steps)
	for i, panels := range cfg.PanelsPerArray {
		if i >= len(site.SolarYieldKWH) {
			break
		}
		gen = gen.Add(site.SolarYieldKWH[i].Scale(panels))
	}
	// measured yield data can carry small negative artifacts
	return &renewables{generation: gen.ClampMin(0)}
}

func (r *renewables) AllCalcs(l *Ledger) {
	l.Contribute(CatElec, r.generation.Scale(-1))
}

// GenerationKWH returns the precomputed full-horizon generation.
func (r *renewables) GenerationKWH() timeseries.Series {
	return r.generation
}

// gasHeater covers a fixed share of the baseline space-heat demand. The
// remaining share is left in the ledger for the heat pump to serve.
type gasHeater struct {
	heat timeseries.Series
	fuel timeseries.Series
}

func newGasHeater(site *types.SiteData, cfg *types.GasHeaterConfig) *gasHeater {
	heat := site.BaseHeatKWH.Scale(cfg.CoverFraction)
	return &gasHeater{
		heat: heat,
		fuel: heat.Scale(1 / cfg.Efficiency),
	}
}

func (g *gasHeater) AllCalcs(l *Ledger) {
	l.Contribute(CatHeat, g.heat.Scale(-1))
}

// HeatKWH returns the heat delivered per timestep.
func (g *gasHeater) HeatKWH() timeseries.Series { return g.heat }

// FuelKWH returns the gas consumed per timestep.
func (g *gasHeater) FuelKWH() timeseries.Series { return g.fuel }

// offtake is a mandatory constant load that runs every timestep regardless of
// the rest of the balance.
type offtake struct {
	load timeseries.Series
}

func newOfftake(site *types.SiteData, cfg *types.OfftakeConfig) *offtake {
	return &offtake{load: timeseries.Constant(site.Steps, cfg.LoadKW*site.StepHours)}
}

func (o *offtake) AllCalcs(l *Ledger) {
	l.Contribute(CatElec, o.load)
}
