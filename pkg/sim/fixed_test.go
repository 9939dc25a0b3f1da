package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

func TestBaseLoadWritesEveryCategory(t *testing.T) {
	site := testSite(2)
	site.BaseElecKWH = timeseries.Series{1, 2}
	site.BaseHeatKWH = timeseries.Series{3, 4}
	site.DHWDemandKWH = timeseries.Series{5, 6}
	site.PoolHeatKWH = timeseries.Series{7, 8}

	l := NewLedger(2)
	newBaseLoad(site).AllCalcs(l)

	assert.InDelta(t, 3, l.Balance(CatElec).Sum(), 0.0001)
	assert.InDelta(t, 7, l.Balance(CatHeat).Sum(), 0.0001)
	assert.InDelta(t, 11, l.Balance(CatDHW).Sum(), 0.0001)
	assert.InDelta(t, 15, l.Balance(CatPool).Sum(), 0.0001)
}

func TestRenewablesSumsScaledArrays(t *testing.T) {
	site := testSite(2)
	site.SolarYieldKWH = []timeseries.Series{{1, 2}, {3, 4}}

	r := newRenewables(site, &types.RenewablesConfig{PanelsPerArray: []float64{10, 2}})

	assert.InDelta(t, 16, r.GenerationKWH().At(0), 0.0001)
	assert.InDelta(t, 28, r.GenerationKWH().At(1), 0.0001)

	l := NewLedger(2)
	r.AllCalcs(l)
	assert.InDelta(t, -16, l.At(CatElec, 0), 0.0001, "generation is surplus")
}

func TestRenewablesIgnoresExtraPanelCounts(t *testing.T) {
	site := testSite(1)
	site.SolarYieldKWH = []timeseries.Series{{2}}

	// a panel count without a matching yield series contributes nothing
	r := newRenewables(site, &types.RenewablesConfig{PanelsPerArray: []float64{3, 100}})
	assert.InDelta(t, 6, r.GenerationKWH().At(0), 0.0001)
}

func TestGasHeaterCoversFractionOfSpaceHeat(t *testing.T) {
	site := testSite(1)
	site.BaseHeatKWH = timeseries.Constant(1, 10)

	g := newGasHeater(site, &types.GasHeaterConfig{CoverFraction: 0.4, Efficiency: 0.8})

	assert.InDelta(t, 4, g.HeatKWH().At(0), 0.0001)
	assert.InDelta(t, 5, g.FuelKWH().At(0), 0.0001)

	l := NewLedger(1)
	l.Contribute(CatHeat, site.BaseHeatKWH)
	g.AllCalcs(l)
	assert.InDelta(t, 6, l.At(CatHeat, 0), 0.0001, "remaining heat left for the heat pump")
}

func TestOfftakeIsConstantDemand(t *testing.T) {
	site := testSite(3)
	site.StepHours = 0.5

	l := NewLedger(3)
	newOfftake(site, &types.OfftakeConfig{LoadKW: 4}).AllCalcs(l)

	for step := 0; step < 3; step++ {
		assert.InDelta(t, 2, l.At(CatElec, step), 0.0001)
	}
}
