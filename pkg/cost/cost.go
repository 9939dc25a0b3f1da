// Package cost turns an equipment scenario into capital cost and a simulated
// summary into annual operating cost, payback and carbon figures.
package cost

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/levenlabs/go-lflag"

	"github.com/sitemix/sitemix/pkg/types"
)

// Curve is a piecewise-linear cost curve: Dollars[i] is the installed cost at
// size Sizes[i]. Sizes must be strictly increasing. Outside the recorded
// range the curve extrapolates along its end segments, which captures bulk
// discounts without inventing a shape.
type Curve struct {
	Sizes   []float64 `json:"sizes"`
	Dollars []float64 `json:"dollars"`
}

func (c Curve) Validate() error {
	if len(c.Sizes) == 0 || len(c.Sizes) != len(c.Dollars) {
		return fmt.Errorf("curve needs matching non-empty sizes and dollars")
	}
	for i := 1; i < len(c.Sizes); i++ {
		if c.Sizes[i] <= c.Sizes[i-1] {
			return fmt.Errorf("curve sizes must be strictly increasing (index %d)", i)
		}
	}
	return nil
}

// At returns the installed cost at the given size.
func (c Curve) At(size float64) float64 {
	if len(c.Sizes) == 1 {
		// single point: treat as a flat unit rate
		return c.Dollars[0] / c.Sizes[0] * size
	}
	i := 1
	for i < len(c.Sizes)-1 && size > c.Sizes[i] {
		i++
	}
	x0, x1 := c.Sizes[i-1], c.Sizes[i]
	y0, y1 := c.Dollars[i-1], c.Dollars[i]
	return y0 + (size-x0)/(x1-x0)*(y1-y0)
}

// Model holds the site's equipment cost assumptions.
type Model struct {
	BatteryByKWH    Curve   `json:"batteryByKWH"`
	HeatPumpByKW    Curve   `json:"heatPumpByKW"`
	SolarPerPanel   float64 `json:"solarPerPanel"`
	ChargerEach     float64 `json:"chargerEach"`
	CylinderPerL    float64 `json:"cylinderPerL"`
	GridPerImportKW float64 `json:"gridPerImportKW"`
	DataCentrePerKW float64 `json:"dataCentrePerKW"`
}

// DefaultModel returns broadly plausible 2026 installed costs, used when no
// model file is configured.
func DefaultModel() Model {
	return Model{
		BatteryByKWH:    Curve{Sizes: []float64{10, 100, 1000}, Dollars: []float64{8000, 55000, 420000}},
		HeatPumpByKW:    Curve{Sizes: []float64{5, 50, 500}, Dollars: []float64{7000, 45000, 300000}},
		SolarPerPanel:   350,
		ChargerEach:     1200,
		CylinderPerL:    6,
		GridPerImportKW: 120,
		DataCentrePerKW: 900,
	}
}

func (m Model) Validate() error {
	if err := m.BatteryByKWH.Validate(); err != nil {
		return fmt.Errorf("battery curve: %w", err)
	}
	if err := m.HeatPumpByKW.Validate(); err != nil {
		return fmt.Errorf("heat pump curve: %w", err)
	}
	return nil
}

// Capex prices every present descriptor in the scenario.
func (m Model) Capex(scn *types.Scenario) float64 {
	var total float64
	if scn.Battery != nil {
		total += m.BatteryByKWH.At(scn.Battery.CapacityKWH)
	}
	if scn.HeatPump != nil {
		total += m.HeatPumpByKW.At(scn.HeatPump.PowerKW)
	}
	if scn.Renewables != nil {
		var panels float64
		for _, n := range scn.Renewables.PanelsPerArray {
			panels += n
		}
		total += panels * m.SolarPerPanel
	}
	if scn.EVFleet != nil {
		total += float64(scn.EVFleet.Chargers) * m.ChargerEach
	}
	if scn.Cylinder != nil {
		total += scn.Cylinder.VolumeL * m.CylinderPerL
	}
	if scn.Grid != nil {
		total += scn.Grid.ImportKW * m.GridPerImportKW
	}
	if scn.DataCentre != nil {
		total += scn.DataCentre.MaxLoadKW * m.DataCentrePerKW
		if scn.DataCentre.HeatRecovery != nil {
			total += m.HeatPumpByKW.At(scn.DataCentre.HeatRecovery.PowerKW)
		}
	}
	return total
}

// AnnualCost is the net yearly operating cost implied by a summary.
func AnnualCost(s types.Summary) float64 {
	return s.ImportCostDollars - s.ExportRevenueDollars
}

// Financials compares a candidate's summary against the do-nothing baseline.
// Payback is +Inf when the candidate does not save money.
func Financials(capex float64, baseline, candidate types.Summary) types.Financials {
	f := types.Financials{
		CapexDollars:      capex,
		AnnualCostDollars: AnnualCost(candidate),
		CarbonKg:          candidate.CarbonKg,
	}
	savings := AnnualCost(baseline) - f.AnnualCostDollars
	if savings > 0 {
		f.PaybackYears = capex / savings
	} else {
		f.PaybackYears = math.Inf(1)
	}
	return f
}

// Configured sets up the cost model, optionally loaded from a JSON file.
func Configured() *Model {
	path := lflag.String("cost-model", "", "Path to a JSON cost model (defaults to built-in rates)")

	m := DefaultModel()

	lflag.Do(func() {
		if *path == "" {
			return
		}
		b, err := os.ReadFile(*path)
		if err != nil {
			panic(fmt.Sprintf("failed to read cost model: %v", err))
		}
		if err := json.Unmarshal(b, &m); err != nil {
			panic(fmt.Sprintf("failed to parse cost model: %v", err))
		}
		if err := m.Validate(); err != nil {
			panic(fmt.Sprintf("invalid cost model: %v", err))
		}
	})

	return &m
}
