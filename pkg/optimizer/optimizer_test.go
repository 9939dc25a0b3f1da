package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitemix/sitemix/pkg/cost"
	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

func sweepSite() *types.SiteData {
	steps := 4
	return &types.SiteData{
		Steps:         steps,
		StepHours:     1,
		AmbientC:      timeseries.Constant(steps, 10),
		BaseElecKWH:   timeseries.Constant(steps, 10),
		BaseHeatKWH:   timeseries.Zeros(steps),
		DHWDemandKWH:  timeseries.Zeros(steps),
		PoolHeatKWH:   timeseries.Zeros(steps),
		EVBaselineKWH: timeseries.Zeros(steps),
		SolarYieldKWH: []timeseries.Series{{0, 15, 15, 0}},
		ImportTariff: []timeseries.Series{
			timeseries.Constant(steps, 0.3),
			timeseries.Constant(steps, 0.6),
		},
		CarbonKgPerKWH: timeseries.Zeros(steps),
		HeatPumpPerf: types.PerfTable{
			SendTempsC:   []float64{35},
			SourceTempsC: []float64{0, 10},
			InputKWH:     [][]float64{{2}, {2}},
			OutputKWH:    [][]float64{{6}, {8}},
			ReferenceKW:  10,
		},
	}
}

func unitModel() cost.Model {
	return cost.Model{
		BatteryByKWH:  cost.Curve{Sizes: []float64{1}, Dollars: []float64{100}},
		HeatPumpByKW:  cost.Curve{Sizes: []float64{1}, Dollars: []float64{100}},
		SolarPerPanel: 50,
	}
}

func TestSweepRanksByPayback(t *testing.T) {
	o := New(unitModel(), 4)
	scenarios := Grid(types.Scenario{}, nil, []float64{0.1, 1, 2})

	results, err := o.Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Financials.PaybackYears, results[i].Financials.PaybackYears)
	}
	// more panels offset more import for the same shaped cost curve here
	assert.NotNil(t, results[0].Report)
}

func TestSweepBaselineFollowsTariffOption(t *testing.T) {
	// same solar scenario on both tariffs: one panel drops the 40 kWh of
	// import to 20, so savings double with the 0.6 tariff
	scenarios := []types.Scenario{
		{TariffOption: 0, Renewables: &types.RenewablesConfig{PanelsPerArray: []float64{1}}},
		{TariffOption: 1, Renewables: &types.RenewablesConfig{PanelsPerArray: []float64{1}}},
	}

	results, err := New(unitModel(), 2).Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byOption := map[int]Result{}
	for _, r := range results {
		require.NoError(t, r.Err)
		byOption[r.Scenario.TariffOption] = r
	}
	assert.InDelta(t, 50.0/6, byOption[0].Financials.PaybackYears, 0.0001)
	assert.InDelta(t, 50.0/12, byOption[1].Financials.PaybackYears, 0.0001)
	// the dearer tariff pays back faster and must rank first
	assert.Equal(t, 1, results[0].Scenario.TariffOption)
}

func TestSweepCapexCeilingRejects(t *testing.T) {
	o := New(unitModel(), 2).WithCapexCeiling(150)
	scenarios := Grid(types.Scenario{}, []float64{1, 50}, nil)

	results, err := o.Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var rejected int
	for _, r := range results {
		require.NoError(t, r.Err)
		if r.Report.Rejected {
			rejected++
			assert.InDelta(t, 5000, r.Financials.CapexDollars, 0.0001)
			assert.InDelta(t, 0, r.Report.Summary.ImportKWH, 0.0001, "rejected runs are never simulated")
		}
	}
	assert.Equal(t, 1, rejected)
}

func TestSweepIsolatesBadScenario(t *testing.T) {
	o := New(unitModel(), 2)
	scenarios := []types.Scenario{
		{Battery: &types.BatteryConfig{CapacityKWH: -5}},
		{},
	}

	results, err := o.Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// valid scenarios sort ahead of failed ones
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Report)
}

func TestSweepBudgetExhaustionIsNotAnError(t *testing.T) {
	o := New(unitModel(), 1).WithBudget(time.Nanosecond)
	scenarios := Grid(types.Scenario{}, []float64{5, 10, 20, 40}, nil)

	results, err := o.Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err, "an exhausted budget is not a sweep failure")
	require.Len(t, results, len(scenarios))

	// a scenario either ran to completion or was cut off, never both
	for _, r := range results {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
			assert.Nil(t, r.Report)
		} else {
			assert.NotNil(t, r.Report)
		}
	}
}

func TestSweepCanceledCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New(unitModel(), 2).Sweep(ctx, sweepSite(), Grid(types.Scenario{}, []float64{5, 10}, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
}

func TestSweepDeterministicAcrossWorkerCounts(t *testing.T) {
	scenarios := Grid(types.Scenario{}, []float64{5, 10, 20}, []float64{0, 1})

	serial, err := New(unitModel(), 1).Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)
	parallel, err := New(unitModel(), 8).Sweep(context.Background(), sweepSite(), scenarios)
	require.NoError(t, err)

	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].Scenario, parallel[i].Scenario, "rank %d", i)
		assert.Equal(t, serial[i].Report, parallel[i].Report, "rank %d", i)
	}
}

func TestGridExpandsBothAxes(t *testing.T) {
	scenarios := Grid(types.Scenario{TariffOption: 0}, []float64{10, 20}, []float64{0, 5, 8})
	require.Len(t, scenarios, 6)

	var withBattery, withSolar int
	for _, s := range scenarios {
		if s.Battery != nil {
			withBattery++
			assert.InDelta(t, s.Battery.CapacityKWH/2, s.Battery.ChargeKW, 0.0001)
		}
		if s.Renewables != nil {
			withSolar++
		}
	}
	assert.Equal(t, 6, withBattery)
	assert.Equal(t, 4, withSolar)
}
