package types

import (
	"fmt"

	"github.com/sitemix/sitemix/pkg/timeseries"
)

// PerfTable is a raw 2-D heat-pump performance table: one row per recorded
// source temperature, one column per send temperature, with the per-timestep
// electrical input and heat output (kWh) measured at ReferenceKW.
type PerfTable struct {
	SendTempsC   []float64   `json:"sendTempsC"`
	SourceTempsC []float64   `json:"sourceTempsC"`
	InputKWH     [][]float64 `json:"inputKWH"`
	OutputKWH    [][]float64 `json:"outputKWH"`
	ReferenceKW  float64     `json:"referenceKW"`
}

// Validate checks the table shape. A degenerate table is a configuration
// error surfaced before any simulation work begins.
func (t PerfTable) Validate() error {
	if len(t.SourceTempsC) == 0 || len(t.SendTempsC) == 0 {
		return fmt.Errorf("performance table is empty")
	}
	if t.ReferenceKW <= 0 {
		return fmt.Errorf("performance table reference power must be > 0 (got %v)", t.ReferenceKW)
	}
	if len(t.InputKWH) != len(t.SourceTempsC) || len(t.OutputKWH) != len(t.SourceTempsC) {
		return fmt.Errorf("performance table has %d source temps but %d input rows and %d output rows",
			len(t.SourceTempsC), len(t.InputKWH), len(t.OutputKWH))
	}
	for i := range t.SourceTempsC {
		if len(t.InputKWH[i]) != len(t.SendTempsC) || len(t.OutputKWH[i]) != len(t.SendTempsC) {
			return fmt.Errorf("performance table row %d does not match %d send temps", i, len(t.SendTempsC))
		}
		if i > 0 && t.SourceTempsC[i] <= t.SourceTempsC[i-1] {
			return fmt.Errorf("performance table source temps must be strictly increasing (row %d)", i)
		}
	}
	return nil
}

// SiteData holds the immutable per-site inputs for a simulation run. All
// per-timestep series have exactly Steps entries; Validate enforces that once
// at load time and the engine trusts it afterwards.
type SiteData struct {
	// Steps is the horizon length (commonly 8760).
	Steps int `json:"steps"`
	// StepHours converts between power (kW) and energy per timestep (kWh).
	StepHours float64 `json:"stepHours"`

	AmbientC      timeseries.Series `json:"ambientC"`
	BaseElecKWH   timeseries.Series `json:"baseElecKWH"`
	BaseHeatKWH   timeseries.Series `json:"baseHeatKWH"`
	DHWDemandKWH  timeseries.Series `json:"dhwDemandKWH"`
	PoolHeatKWH   timeseries.Series `json:"poolHeatKWH"`
	EVBaselineKWH timeseries.Series `json:"evBaselineKWH"`

	// SolarYieldKWH holds one series per panel array: kWh produced per panel
	// per timestep.
	SolarYieldKWH []timeseries.Series `json:"solarYieldKWH"`
	// ImportTariff holds one series per tariff option ($/kWh).
	ImportTariff []timeseries.Series `json:"importTariff"`
	// ExportDollarsPerKWH is the flat export price.
	ExportDollarsPerKWH float64 `json:"exportDollarsPerKWH"`
	// CarbonKgPerKWH is the grid carbon intensity per timestep.
	CarbonKgPerKWH timeseries.Series `json:"carbonKgPerKWH"`

	HeatPumpPerf PerfTable `json:"heatPumpPerf"`
}

func (s *SiteData) checkLen(name string, series timeseries.Series) error {
	if series.Len() != s.Steps {
		return fmt.Errorf("%s has %d steps, site has %d", name, series.Len(), s.Steps)
	}
	return nil
}

// Validate checks every series against the horizon and the performance table
// shape. It must pass before a scenario is simulated.
func (s *SiteData) Validate() error {
	if s.Steps <= 0 {
		return fmt.Errorf("site must have at least one timestep (got %d)", s.Steps)
	}
	if s.StepHours <= 0 {
		return fmt.Errorf("timestep duration must be > 0 hours (got %v)", s.StepHours)
	}
	checks := map[string]timeseries.Series{
		"ambient temperature": s.AmbientC,
		"base electrical":     s.BaseElecKWH,
		"base heat":           s.BaseHeatKWH,
		"DHW demand":          s.DHWDemandKWH,
		"pool heat":           s.PoolHeatKWH,
		"EV baseline":         s.EVBaselineKWH,
		"carbon intensity":    s.CarbonKgPerKWH,
	}
	for name, series := range checks {
		if err := s.checkLen(name, series); err != nil {
			return err
		}
	}
	for i, arr := range s.SolarYieldKWH {
		if err := s.checkLen(fmt.Sprintf("solar yield array %d", i), arr); err != nil {
			return err
		}
	}
	if len(s.ImportTariff) == 0 {
		return fmt.Errorf("site must have at least one import tariff")
	}
	for i, tariff := range s.ImportTariff {
		if err := s.checkLen(fmt.Sprintf("import tariff %d", i), tariff); err != nil {
			return err
		}
	}
	if err := s.HeatPumpPerf.Validate(); err != nil {
		return fmt.Errorf("heat pump performance table: %w", err)
	}
	return nil
}

// Tariff returns the tariff series for the given option, panicking on an
// out-of-range option the same way series access does.
func (s *SiteData) Tariff(option int) timeseries.Series {
	if option < 0 || option >= len(s.ImportTariff) {
		panic(fmt.Sprintf("types: tariff option %d out of range (have %d)", option, len(s.ImportTariff)))
	}
	return s.ImportTariff[option]
}
