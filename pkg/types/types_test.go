package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPerfTable() PerfTable {
	return PerfTable{
		SendTempsC:   []float64{35, 55},
		SourceTempsC: []float64{-10, 0, 10},
		InputKWH: [][]float64{
			{2.0, 2.5},
			{2.0, 2.4},
			{2.0, 2.2},
		},
		OutputKWH: [][]float64{
			{4.0, 3.5},
			{6.0, 5.0},
			{8.0, 7.0},
		},
		ReferenceKW: 10,
	}
}

func validSite(steps int) *SiteData {
	return &SiteData{
		Steps:          steps,
		StepHours:      1,
		AmbientC:       timeseries.Constant(steps, 10),
		BaseElecKWH:    timeseries.Constant(steps, 5),
		BaseHeatKWH:    timeseries.Constant(steps, 2),
		DHWDemandKWH:   timeseries.Constant(steps, 1),
		PoolHeatKWH:    timeseries.Zeros(steps),
		EVBaselineKWH:  timeseries.Constant(steps, 0.5),
		SolarYieldKWH:  []timeseries.Series{timeseries.Constant(steps, 0.25)},
		ImportTariff:   []timeseries.Series{timeseries.Constant(steps, 0.30)},
		CarbonKgPerKWH: timeseries.Constant(steps, 0.2),
		HeatPumpPerf:   validPerfTable(),
	}
}

func TestSiteDataValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validSite(24).Validate())
	})

	t.Run("length mismatch", func(t *testing.T) {
		s := validSite(24)
		s.AmbientC = timeseries.Constant(23, 10)
		assert.Error(t, s.Validate())
	})

	t.Run("tariff mismatch", func(t *testing.T) {
		s := validSite(24)
		s.ImportTariff = []timeseries.Series{timeseries.Constant(25, 0.3)}
		assert.Error(t, s.Validate())
	})

	t.Run("no tariff", func(t *testing.T) {
		s := validSite(24)
		s.ImportTariff = nil
		assert.Error(t, s.Validate())
	})

	t.Run("degenerate perf table", func(t *testing.T) {
		s := validSite(24)
		s.HeatPumpPerf.InputKWH = s.HeatPumpPerf.InputKWH[:1]
		assert.Error(t, s.Validate())
	})

	t.Run("zero steps", func(t *testing.T) {
		s := validSite(24)
		s.Steps = 0
		assert.Error(t, s.Validate())
	})
}

func TestPerfTableValidate(t *testing.T) {
	pt := validPerfTable()
	require.NoError(t, pt.Validate())

	pt.SourceTempsC = []float64{0, 0, 0}
	assert.Error(t, pt.Validate(), "non-increasing source temps must fail")

	pt = validPerfTable()
	pt.ReferenceKW = 0
	assert.Error(t, pt.Validate())
}

func TestScenarioValidate(t *testing.T) {
	t.Run("empty scenario is valid", func(t *testing.T) {
		assert.NoError(t, Scenario{}.Validate())
	})

	t.Run("battery", func(t *testing.T) {
		scn := Scenario{Battery: &BatteryConfig{
			CapacityKWH: 10, ChargeKW: 5, DischargeKW: 5, Efficiency: 0.9, Mode: BatteryModeConsume,
		}}
		require.NoError(t, scn.Validate())

		scn.Battery.Mode = "arbitrage"
		assert.Error(t, scn.Validate(), "unknown mode must fail")

		scn.Battery.Mode = BatteryModeConsume
		scn.Battery.Efficiency = 1.2
		assert.Error(t, scn.Validate())
	})

	t.Run("declared but unsupported modes still validate", func(t *testing.T) {
		scn := Scenario{Battery: &BatteryConfig{
			CapacityKWH: 10, ChargeKW: 5, DischargeKW: 5, Efficiency: 1, Mode: BatteryModePrice,
		}}
		assert.NoError(t, scn.Validate())
	})

	t.Run("data centre heat recovery must be hot room", func(t *testing.T) {
		scn := Scenario{DataCentre: &DataCentreConfig{
			MaxLoadKW: 100,
			HeatRecovery: &HeatPumpConfig{
				PowerKW: 20, Source: HeatSourceAmbient,
			},
		}}
		assert.Error(t, scn.Validate())
	})

	t.Run("grid", func(t *testing.T) {
		scn := Scenario{Grid: &GridConfig{ImportKW: 100, ExportKW: 50, HeadroomFrac: 0.1, MinPowerFactor: 0.95}}
		require.NoError(t, scn.Validate())
		scn.Grid.HeadroomFrac = 1
		assert.Error(t, scn.Validate())
	})
}

func TestFinancialsJSONRoundTrip(t *testing.T) {
	t.Run("finite payback", func(t *testing.T) {
		in := Financials{CapexDollars: 5000, AnnualCostDollars: 1200, PaybackYears: 4.2, CarbonKg: 800}
		b, err := json.Marshal(in)
		require.NoError(t, err)

		var out Financials
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, in, out)
	})

	t.Run("never pays back", func(t *testing.T) {
		in := Financials{CapexDollars: 5000, PaybackYears: math.Inf(1)}
		b, err := json.Marshal(in)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"paybackYears":null`)

		var out Financials
		require.NoError(t, json.Unmarshal(b, &out))
		assert.True(t, math.IsInf(out.PaybackYears, 1))
	})
}

func TestTariffSelection(t *testing.T) {
	s := validSite(4)
	assert.InDelta(t, 0.30, s.Tariff(0).At(0), 0.0001)
	assert.Panics(t, func() { s.Tariff(1) })
}
