package types

import "fmt"

// BatteryMode selects the battery dispatch behaviour.
type BatteryMode string

const (
	// BatteryModeConsume discharges into any net demand and charges from any
	// surplus, up to the physical limits.
	BatteryModeConsume BatteryMode = "consume"
	// BatteryModeThreshold behaves like consume above the SOC threshold and
	// like resilient below it.
	BatteryModeThreshold BatteryMode = "threshold"
	// BatteryModeResilient discharges only to cover demand the grid cannot
	// supply and charges only from surplus.
	BatteryModeResilient BatteryMode = "resilient"
	// BatteryModePrice is declared but not yet supported.
	BatteryModePrice BatteryMode = "price"
	// BatteryModeCarbon is declared but not yet supported.
	BatteryModeCarbon BatteryMode = "carbon"
)

// Valid returns whether the mode is a declared mode (supported or not).
func (m BatteryMode) Valid() bool {
	switch m {
	case BatteryModeConsume, BatteryModeThreshold, BatteryModeResilient, BatteryModePrice, BatteryModeCarbon:
		return true
	}
	return false
}

// BatteryConfig describes an electrical storage system.
type BatteryConfig struct {
	CapacityKWH float64 `json:"capacityKWH"`
	ChargeKW    float64 `json:"chargeKW"`
	DischargeKW float64 `json:"dischargeKW"`
	// Efficiency is the round-trip efficiency in (0,1], applied on charge only.
	Efficiency    float64     `json:"efficiency"`
	InitialSOCKWH float64     `json:"initialSOCKWH"`
	Mode          BatteryMode `json:"mode"`
	// ThresholdFrac is the SOC fraction below which threshold mode switches
	// to resilient behaviour.
	ThresholdFrac float64 `json:"thresholdFrac"`
}

func (c BatteryConfig) Validate() error {
	if c.CapacityKWH <= 0 {
		return fmt.Errorf("battery capacity must be > 0 kWh")
	}
	if c.ChargeKW < 0 || c.DischargeKW < 0 {
		return fmt.Errorf("battery charge/discharge power must be >= 0 kW")
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("battery efficiency must be in (0,1] (got %v)", c.Efficiency)
	}
	if c.InitialSOCKWH < 0 || c.InitialSOCKWH > c.CapacityKWH {
		return fmt.Errorf("battery initial SOC must be within [0, capacity]")
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("unknown battery mode %q", c.Mode)
	}
	if c.Mode == BatteryModeThreshold && (c.ThresholdFrac < 0 || c.ThresholdFrac > 1) {
		return fmt.Errorf("battery threshold fraction must be in [0,1]")
	}
	return nil
}

// HeatPumpSource selects where the heat pump draws its heat from.
type HeatPumpSource string

const (
	// HeatSourceAmbient looks the performance table up at the ambient air
	// temperature every timestep.
	HeatSourceAmbient HeatPumpSource = "ambient"
	// HeatSourceHotRoom uses a fixed exhaust temperature, looked up once.
	HeatSourceHotRoom HeatPumpSource = "hotroom"
)

// HeatPumpConfig describes a heat pump sized against the site's performance table.
type HeatPumpConfig struct {
	PowerKW      float64        `json:"powerKW"`
	Source       HeatPumpSource `json:"source"`
	HotRoomTempC float64        `json:"hotRoomTempC"`
	SendTempC    float64        `json:"sendTempC"`
}

func (c HeatPumpConfig) Validate() error {
	if c.PowerKW <= 0 {
		return fmt.Errorf("heat pump power must be > 0 kW")
	}
	switch c.Source {
	case HeatSourceAmbient, HeatSourceHotRoom:
	default:
		return fmt.Errorf("unknown heat pump source %q", c.Source)
	}
	return nil
}

// GridConfig describes the grid interconnection limits.
type GridConfig struct {
	ImportKW float64 `json:"importKW"`
	ExportKW float64 `json:"exportKW"`
	// HeadroomFrac reduces both capacities by a safety fraction in [0,1).
	HeadroomFrac float64 `json:"headroomFrac"`
	// MinPowerFactor derates the usable capacity, in (0,1].
	MinPowerFactor float64 `json:"minPowerFactor"`
}

func (c GridConfig) Validate() error {
	if c.ImportKW < 0 || c.ExportKW < 0 {
		return fmt.Errorf("grid capacities must be >= 0 kW")
	}
	if c.HeadroomFrac < 0 || c.HeadroomFrac >= 1 {
		return fmt.Errorf("grid headroom fraction must be in [0,1)")
	}
	if c.MinPowerFactor <= 0 || c.MinPowerFactor > 1 {
		return fmt.Errorf("grid power factor must be in (0,1]")
	}
	return nil
}

// EVFleetConfig describes the EV charger bank.
type EVFleetConfig struct {
	Chargers  int     `json:"chargers"`
	ChargerKW float64 `json:"chargerKW"`
	// Flexible charging may be curtailed by the available-energy signal.
	Flexible bool `json:"flexible"`
}

func (c EVFleetConfig) Validate() error {
	if c.Chargers <= 0 {
		return fmt.Errorf("EV fleet must have at least one charger")
	}
	if c.ChargerKW <= 0 {
		return fmt.Errorf("EV charger power must be > 0 kW")
	}
	return nil
}

// RenewablesConfig describes the fixed generation: panel counts per solar array.
type RenewablesConfig struct {
	PanelsPerArray []float64 `json:"panelsPerArray"`
}

func (c RenewablesConfig) Validate() error {
	if len(c.PanelsPerArray) == 0 {
		return fmt.Errorf("renewables must have at least one array")
	}
	for i, n := range c.PanelsPerArray {
		if n < 0 {
			return fmt.Errorf("array %d panel count must be >= 0", i)
		}
	}
	return nil
}

// CylinderConfig describes the domestic hot water cylinder.
type CylinderConfig struct {
	VolumeL   float64 `json:"volumeL"`
	MaxTempC  float64 `json:"maxTempC"`
	ColdFeedC float64 `json:"coldFeedC"`
	HeaterKW  float64 `json:"heaterKW"`
	// LossKWPerC is the standby loss per degree of differential to ambient.
	LossKWPerC float64 `json:"lossKWPerC"`
}

func (c CylinderConfig) Validate() error {
	if c.VolumeL <= 0 {
		return fmt.Errorf("cylinder volume must be > 0 L")
	}
	if c.MaxTempC <= c.ColdFeedC {
		return fmt.Errorf("cylinder max temperature must exceed cold feed temperature")
	}
	if c.HeaterKW <= 0 {
		return fmt.Errorf("cylinder heater power must be > 0 kW")
	}
	if c.LossKWPerC < 0 {
		return fmt.Errorf("cylinder loss coefficient must be >= 0")
	}
	return nil
}

// OfftakeConfig describes a mandatory constant off-take load.
type OfftakeConfig struct {
	LoadKW float64 `json:"loadKW"`
}

func (c OfftakeConfig) Validate() error {
	if c.LoadKW < 0 {
		return fmt.Errorf("offtake load must be >= 0 kW")
	}
	return nil
}

// DataCentreConfig describes a data-centre style load whose waste heat can be
// recovered by an attached hot-room heat pump.
type DataCentreConfig struct {
	MaxLoadKW float64 `json:"maxLoadKW"`
	Flexible  bool    `json:"flexible"`
	// HeatRecovery, when set, attaches a hot-room heat pump fed from the data
	// centre's exhaust.
	HeatRecovery *HeatPumpConfig `json:"heatRecovery,omitempty"`
}

func (c DataCentreConfig) Validate() error {
	if c.MaxLoadKW <= 0 {
		return fmt.Errorf("data centre max load must be > 0 kW")
	}
	if c.HeatRecovery != nil {
		if c.HeatRecovery.Source != HeatSourceHotRoom {
			return fmt.Errorf("data centre heat recovery must use the hot-room source")
		}
		if err := c.HeatRecovery.Validate(); err != nil {
			return fmt.Errorf("data centre heat recovery: %w", err)
		}
	}
	return nil
}

// GasHeaterConfig describes the gas boiler covering a fixed share of space heat.
type GasHeaterConfig struct {
	// CoverFraction of the baseline space-heat demand served by gas, in [0,1].
	CoverFraction float64 `json:"coverFraction"`
	Efficiency    float64 `json:"efficiency"`
}

func (c GasHeaterConfig) Validate() error {
	if c.CoverFraction < 0 || c.CoverFraction > 1 {
		return fmt.Errorf("gas heater cover fraction must be in [0,1]")
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("gas heater efficiency must be in (0,1]")
	}
	return nil
}

// Scenario is one candidate equipment configuration. Every descriptor is
// optional; a nil descriptor means the component is not instantiated at all,
// which is different from a zero-valued component.
type Scenario struct {
	Battery    *BatteryConfig    `json:"battery,omitempty"`
	HeatPump   *HeatPumpConfig   `json:"heatPump,omitempty"`
	Grid       *GridConfig       `json:"grid,omitempty"`
	EVFleet    *EVFleetConfig    `json:"evFleet,omitempty"`
	Renewables *RenewablesConfig `json:"renewables,omitempty"`
	Cylinder   *CylinderConfig   `json:"cylinder,omitempty"`
	Offtake    *OfftakeConfig    `json:"offtake,omitempty"`
	DataCentre *DataCentreConfig `json:"dataCentre,omitempty"`
	GasHeater  *GasHeaterConfig  `json:"gasHeater,omitempty"`

	// TariffOption selects which of the site's import tariffs applies.
	TariffOption int `json:"tariffOption"`
}

// Validate checks every present descriptor.
func (s Scenario) Validate() error {
	if s.Battery != nil {
		if err := s.Battery.Validate(); err != nil {
			return fmt.Errorf("battery: %w", err)
		}
	}
	if s.HeatPump != nil {
		if err := s.HeatPump.Validate(); err != nil {
			return fmt.Errorf("heat pump: %w", err)
		}
	}
	if s.Grid != nil {
		if err := s.Grid.Validate(); err != nil {
			return fmt.Errorf("grid: %w", err)
		}
	}
	if s.EVFleet != nil {
		if err := s.EVFleet.Validate(); err != nil {
			return fmt.Errorf("ev fleet: %w", err)
		}
	}
	if s.Renewables != nil {
		if err := s.Renewables.Validate(); err != nil {
			return fmt.Errorf("renewables: %w", err)
		}
	}
	if s.Cylinder != nil {
		if err := s.Cylinder.Validate(); err != nil {
			return fmt.Errorf("cylinder: %w", err)
		}
	}
	if s.Offtake != nil {
		if err := s.Offtake.Validate(); err != nil {
			return fmt.Errorf("offtake: %w", err)
		}
	}
	if s.DataCentre != nil {
		if err := s.DataCentre.Validate(); err != nil {
			return fmt.Errorf("data centre: %w", err)
		}
	}
	if s.GasHeater != nil {
		if err := s.GasHeater.Validate(); err != nil {
			return fmt.Errorf("gas heater: %w", err)
		}
	}
	if s.TariffOption < 0 {
		return fmt.Errorf("tariff option must be >= 0")
	}
	return nil
}
