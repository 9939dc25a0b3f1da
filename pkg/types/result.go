package types

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sitemix/sitemix/pkg/timeseries"
)

// Summary holds the horizon totals sufficient for cost/carbon post-processing.
type Summary struct {
	ImportKWH            float64 `json:"importKWH"`
	ExportKWH            float64 `json:"exportKWH"`
	ImportShortfallKWH   float64 `json:"importShortfallKWH"`
	ExportCurtailedKWH   float64 `json:"exportCurtailedKWH"`
	BatteryChargeKWH     float64 `json:"batteryChargeKWH"`
	BatteryDischargeKWH  float64 `json:"batteryDischargeKWH"`
	HeatPumpElecKWH      float64 `json:"heatPumpElecKWH"`
	HeatPumpHeatKWH      float64 `json:"heatPumpHeatKWH"`
	HeatPumpDHWKWH       float64 `json:"heatPumpDHWKWH"`
	HeatShortfallKWH     float64 `json:"heatShortfallKWH"`
	GasHeatKWH           float64 `json:"gasHeatKWH"`
	GasFuelKWH           float64 `json:"gasFuelKWH"`
	EVTargetKWH          float64 `json:"evTargetKWH"`
	EVActualKWH          float64 `json:"evActualKWH"`
	DCTargetKWH          float64 `json:"dcTargetKWH"`
	DCActualKWH          float64 `json:"dcActualKWH"`
	CylinderShortfallKWH float64 `json:"cylinderShortfallKWH"`

	ImportCostDollars    float64 `json:"importCostDollars"`
	ExportRevenueDollars float64 `json:"exportRevenueDollars"`
	CarbonKg             float64 `json:"carbonKg"`
}

// ReportSeries is the full per-timestep report, one named series per tracked
// quantity, all of the horizon's length.
type ReportSeries struct {
	ImportKWH          timeseries.Series `json:"importKWH"`
	ExportKWH          timeseries.Series `json:"exportKWH"`
	ImportShortfallKWH timeseries.Series `json:"importShortfallKWH"`
	ExportCurtailedKWH timeseries.Series `json:"exportCurtailedKWH"`
	// NetImportKWH is import minus export per timestep.
	NetImportKWH timeseries.Series `json:"netImportKWH"`

	BatteryChargeKWH    timeseries.Series `json:"batteryChargeKWH"`
	BatteryDischargeKWH timeseries.Series `json:"batteryDischargeKWH"`
	BatterySOCKWH       timeseries.Series `json:"batterySOCKWH"`

	HeatPumpElecKWH  timeseries.Series `json:"heatPumpElecKWH"`
	HeatPumpHeatKWH  timeseries.Series `json:"heatPumpHeatKWH"`
	HeatPumpDHWKWH   timeseries.Series `json:"heatPumpDHWKWH"`
	HeatShortfallKWH timeseries.Series `json:"heatShortfallKWH"`

	EVTargetKWH timeseries.Series `json:"evTargetKWH"`
	EVActualKWH timeseries.Series `json:"evActualKWH"`
	DCTargetKWH timeseries.Series `json:"dcTargetKWH"`
	DCActualKWH timeseries.Series `json:"dcActualKWH"`

	CylinderSOCKWH       timeseries.Series `json:"cylinderSOCKWH"`
	CylinderShortfallKWH timeseries.Series `json:"cylinderShortfallKWH"`
}

// Report is the output of one scenario simulation. Series is nil in
// result-only mode; Rejected reports a configuration that failed the CAPEX
// pre-check without being simulated.
type Report struct {
	Rejected bool          `json:"rejected"`
	Steps    int           `json:"steps"`
	Summary  Summary       `json:"summary"`
	Series   *ReportSeries `json:"series,omitempty"`
}

// Financials is the closed-form cost/carbon post-processing result.
// PaybackYears is +Inf when the configuration never recovers its capex.
type Financials struct {
	CapexDollars      float64 `json:"capexDollars"`
	AnnualCostDollars float64 `json:"annualCostDollars"`
	PaybackYears      float64 `json:"paybackYears"`
	CarbonKg          float64 `json:"carbonKg"`
}

// financialsJSON carries a nullable payback, since encoding/json cannot
// represent +Inf.
type financialsJSON struct {
	CapexDollars      float64  `json:"capexDollars"`
	AnnualCostDollars float64  `json:"annualCostDollars"`
	PaybackYears      *float64 `json:"paybackYears"`
	CarbonKg          float64  `json:"carbonKg"`
}

func (f Financials) MarshalJSON() ([]byte, error) {
	j := financialsJSON{
		CapexDollars:      f.CapexDollars,
		AnnualCostDollars: f.AnnualCostDollars,
		CarbonKg:          f.CarbonKg,
	}
	if !math.IsInf(f.PaybackYears, 0) && !math.IsNaN(f.PaybackYears) {
		v := f.PaybackYears
		j.PaybackYears = &v
	}
	return json.Marshal(j)
}

func (f *Financials) UnmarshalJSON(b []byte) error {
	var j financialsJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	f.CapexDollars = j.CapexDollars
	f.AnnualCostDollars = j.AnnualCostDollars
	f.CarbonKg = j.CarbonKg
	if j.PaybackYears != nil {
		f.PaybackYears = *j.PaybackYears
	} else {
		f.PaybackYears = math.Inf(1)
	}
	return nil
}

// RunRecord is a persisted scenario run: the configuration, its summary and
// its financials, keyed by run ID within a site.
type RunRecord struct {
	ID         string     `json:"id"`
	SiteID     string     `json:"siteID"`
	CreatedAt  time.Time  `json:"createdAt"`
	Scenario   Scenario   `json:"scenario"`
	Rejected   bool       `json:"rejected"`
	Summary    Summary    `json:"summary"`
	Financials Financials `json:"financials"`
}
