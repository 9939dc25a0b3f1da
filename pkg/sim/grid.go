package sim

import (
	"math"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// grid clamps the ledger's residual electrical balance into bounded import
// and export. Its per-step import capacity is also the shared budget signal
// handed to the flexible loads at the start of each timestep.
type grid struct {
	cfg       *types.GridConfig
	stepHours float64

	// unlimited marks the synthesized connection used when no grid
	// descriptor is present. A configured descriptor is always a real
	// constraint: a zero capacity means zero flow, not no limit.
	unlimited bool

	importKWH    timeseries.Series
	exportKWH    timeseries.Series
	shortfallKWH timeseries.Series
	curtailedKWH timeseries.Series
}

func newGrid(steps int, stepHours float64, cfg *types.GridConfig) *grid {
	return &grid{
		cfg:          cfg,
		stepHours:    stepHours,
		importKWH:    timeseries.Zeros(steps),
		exportKWH:    timeseries.Zeros(steps),
		shortfallKWH: timeseries.Zeros(steps),
		curtailedKWH: timeseries.Zeros(steps),
	}
}

// newUnlimitedGrid returns a connection with no capacity limits, used when a
// scenario has no grid descriptor. It still records the import/export series.
func newUnlimitedGrid(steps int, stepHours float64) *grid {
	g := newGrid(steps, stepHours, &types.GridConfig{MinPowerFactor: 1})
	g.unlimited = true
	return g
}

func (g *grid) derate(powerKW float64) float64 {
	if g.unlimited {
		return math.Inf(1)
	}
	return powerKW * (1 - g.cfg.HeadroomFrac) * g.cfg.MinPowerFactor * g.stepHours
}

// AvailImportKWH is the energy the connection can deliver in one timestep
// after headroom and power-factor derating.
func (g *grid) AvailImportKWH() float64 { return g.derate(g.cfg.ImportKW) }

func (g *grid) AvailExportKWH() float64 { return g.derate(g.cfg.ExportKW) }

// Finalize settles the step's residual electrical balance against the
// connection limits. Whatever the grid cannot carry stays on the ledger as
// import shortfall (positive) or curtailed export (negative).
func (g *grid) Finalize(l *Ledger, step int) {
	residual := l.At(CatElec, step)
	switch {
	case residual > 0:
		imp := residual
		if lim := g.AvailImportKWH(); imp > lim {
			imp = lim
		}
		g.importKWH.Set(step, imp)
		g.shortfallKWH.Set(step, residual-imp)
		l.StepContribute(CatElec, -imp, step)
	case residual < 0:
		exp := -residual
		if lim := g.AvailExportKWH(); exp > lim {
			exp = lim
		}
		g.exportKWH.Set(step, exp)
		g.curtailedKWH.Set(step, -residual-exp)
		l.StepContribute(CatElec, exp, step)
	}
}
