package sim

import (
	"context"
	"log/slog"

	"github.com/sitemix/sitemix/pkg/log"
	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// battery is the electrical storage component. State of charge persists
// across timesteps and is mutated only through charge/discharge amounts that
// were capped against the available limits first, so 0 <= SoC <= capacity
// holds without after-the-fact clamping.
type battery struct {
	cfg       *types.BatteryConfig
	stepHours float64
	socKWH    float64

	warnedUnsupported bool

	chargeKWH    timeseries.Series
	dischargeKWH timeseries.Series
	socSeries    timeseries.Series
}

func newBattery(cfg *types.BatteryConfig, steps int, stepHours float64) *battery {
	return &battery{
		cfg:          cfg,
		stepHours:    stepHours,
		socKWH:       cfg.InitialSOCKWH,
		chargeKWH:    timeseries.Zeros(steps),
		dischargeKWH: timeseries.Zeros(steps),
		socSeries:    timeseries.Zeros(steps),
	}
}

// AvailableDischargeKWH is the most the battery could supply next timestep:
// power-limited and bounded by the current state of charge.
func (b *battery) AvailableDischargeKWH() float64 {
	powerLimit := b.cfg.DischargeKW * b.stepHours
	if b.socKWH < powerLimit {
		return b.socKWH
	}
	return powerLimit
}

// AvailableChargeKWH is the most grid-side energy the battery could absorb
// next timestep. Headroom is divided by the charge efficiency because losses
// burn part of what is drawn before it is stored.
func (b *battery) AvailableChargeKWH() float64 {
	powerLimit := b.cfg.ChargeKW * b.stepHours
	headroom := (b.cfg.CapacityKWH - b.socKWH) / b.cfg.Efficiency
	if headroom < powerLimit {
		return headroom
	}
	return powerLimit
}

// StepCalc decides this timestep's charge or discharge per the configured
// mode. gridImportKWH is the import energy the grid can still deliver this
// timestep, used by the resilient behaviour.
func (b *battery) StepCalc(ctx context.Context, l *Ledger, gridImportKWH float64, step int) {
	switch b.cfg.Mode {
	case types.BatteryModeConsume:
		b.stepConsume(l, step)
	case types.BatteryModeThreshold:
		if b.socKWH > b.cfg.ThresholdFrac*b.cfg.CapacityKWH {
			b.stepConsume(l, step)
		} else {
			b.stepResilient(l, gridImportKWH, step)
		}
	case types.BatteryModeResilient:
		b.stepResilient(l, gridImportKWH, step)
	case types.BatteryModePrice, types.BatteryModeCarbon:
		// declared but not yet supported: explicit no-op, never a silent
		// fallthrough into another mode
		if !b.warnedUnsupported {
			log.Ctx(ctx).WarnContext(ctx, "battery mode not supported, battery idle",
				slog.String("mode", string(b.cfg.Mode)))
			b.warnedUnsupported = true
		}
	}
	b.socSeries.Set(step, b.socKWH)
}

// stepConsume discharges into any net demand and charges from any surplus.
func (b *battery) stepConsume(l *Ledger, step int) {
	if demand := l.Demand(CatElec, step); demand > 0 {
		b.discharge(l, demand, step)
		return
	}
	if surplus := l.Surplus(CatElec, step); surplus > 0 {
		b.charge(l, surplus, step)
	}
}

// stepResilient discharges only to cover demand the grid cannot supply and
// charges only from surplus.
func (b *battery) stepResilient(l *Ledger, gridImportKWH float64, step int) {
	if demand := l.Demand(CatElec, step); demand > 0 {
		beyondGrid := demand - gridImportKWH
		if beyondGrid > 0 {
			b.discharge(l, beyondGrid, step)
		}
		return
	}
	if surplus := l.Surplus(CatElec, step); surplus > 0 {
		b.charge(l, surplus, step)
	}
}

func (b *battery) discharge(l *Ledger, wantKWH float64, step int) {
	amount := b.AvailableDischargeKWH()
	if wantKWH < amount {
		amount = wantKWH
	}
	if amount <= 0 {
		return
	}
	b.socKWH -= amount
	l.StepContribute(CatElec, -amount, step)
	b.dischargeKWH.Set(step, amount)
}

func (b *battery) charge(l *Ledger, wantKWH float64, step int) {
	amount := b.AvailableChargeKWH()
	if wantKWH < amount {
		amount = wantKWH
	}
	if amount <= 0 {
		return
	}
	// round-trip loss applies on charge only
	b.socKWH += amount * b.cfg.Efficiency
	l.StepContribute(CatElec, amount, step)
	b.chargeKWH.Set(step, amount)
}
