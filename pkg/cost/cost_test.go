package cost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitemix/sitemix/pkg/types"
)

func TestCurveInterpolates(t *testing.T) {
	c := Curve{Sizes: []float64{10, 100}, Dollars: []float64{1000, 5500}}
	require.NoError(t, c.Validate())

	assert.InDelta(t, 1000, c.At(10), 0.0001)
	assert.InDelta(t, 3250, c.At(55), 0.0001)
	assert.InDelta(t, 5500, c.At(100), 0.0001)
}

func TestCurveExtrapolatesEndSegments(t *testing.T) {
	c := Curve{Sizes: []float64{10, 100}, Dollars: []float64{1000, 5500}}
	// $50/unit marginal rate continues past both ends
	assert.InDelta(t, 6000, c.At(110), 0.0001)
	assert.InDelta(t, 750, c.At(5), 0.0001)
}

func TestCurveSinglePointIsUnitRate(t *testing.T) {
	c := Curve{Sizes: []float64{1}, Dollars: []float64{800}}
	assert.InDelta(t, 2400, c.At(3), 0.0001)
}

func TestCurveValidateRejectsBadShape(t *testing.T) {
	assert.Error(t, Curve{}.Validate())
	assert.Error(t, Curve{Sizes: []float64{1, 2}, Dollars: []float64{1}}.Validate())
	assert.Error(t, Curve{Sizes: []float64{2, 2}, Dollars: []float64{1, 2}}.Validate())
}

func TestCapexPricesPresentDescriptorsOnly(t *testing.T) {
	m := Model{
		BatteryByKWH:  Curve{Sizes: []float64{1}, Dollars: []float64{500}},
		HeatPumpByKW:  Curve{Sizes: []float64{1}, Dollars: []float64{1000}},
		SolarPerPanel: 300,
		ChargerEach:   1000,
	}

	assert.InDelta(t, 0, m.Capex(&types.Scenario{}), 0.0001, "empty scenario costs nothing")

	scn := &types.Scenario{
		Battery:    &types.BatteryConfig{CapacityKWH: 20},
		Renewables: &types.RenewablesConfig{PanelsPerArray: []float64{10, 5}},
		EVFleet:    &types.EVFleetConfig{Chargers: 4},
	}
	// 20 kWh x 500 + 15 panels x 300 + 4 chargers x 1000
	assert.InDelta(t, 18500, m.Capex(scn), 0.0001)
}

func TestFinancialsPayback(t *testing.T) {
	baseline := types.Summary{ImportCostDollars: 10000}
	candidate := types.Summary{ImportCostDollars: 6000, ExportRevenueDollars: 1000, CarbonKg: 500}

	f := Financials(25000, baseline, candidate)
	assert.InDelta(t, 5000, f.AnnualCostDollars, 0.0001)
	assert.InDelta(t, 5, f.PaybackYears, 0.0001, "25000 over 5000/yr of savings")
	assert.InDelta(t, 500, f.CarbonKg, 0.0001)
}

func TestFinancialsNoSavingsNeverPaysBack(t *testing.T) {
	baseline := types.Summary{ImportCostDollars: 5000}
	candidate := types.Summary{ImportCostDollars: 7000}

	f := Financials(1000, baseline, candidate)
	assert.True(t, math.IsInf(f.PaybackYears, 1))
}
