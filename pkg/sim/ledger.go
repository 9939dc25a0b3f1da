// Package sim implements the per-timestep balancing engine: a shared energy
// ledger, non-balancing components that write their full-horizon series into
// it once, and balancing components evaluated timestep by timestep in a fixed
// precedence order against the grid's available-energy budget.
package sim

import (
	"fmt"

	"github.com/sitemix/sitemix/pkg/timeseries"
)

// Category identifies one energy balance tracked by the ledger.
type Category int

const (
	// CatElec is the electrical balance.
	CatElec Category = iota
	// CatHeat is the space-heating balance.
	CatHeat
	// CatDHW is the domestic hot water balance.
	CatDHW
	// CatPool is the pool-heating balance.
	CatPool
	// CatWaste is recoverable waste heat (data-centre exhaust).
	CatWaste

	numCategories
)

func (c Category) String() string {
	switch c {
	case CatElec:
		return "elec"
	case CatHeat:
		return "heat"
	case CatDHW:
		return "dhw"
	case CatPool:
		return "pool"
	case CatWaste:
		return "waste"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Ledger is the single point of truth for how much energy is still needed or
// still surplus at every timestep, per category. Positive values are unmet
// demand, negative values are surplus. One ledger is owned by exactly one
// scenario run and is only ever mutated by that run's simulation goroutine.
type Ledger struct {
	steps  int
	series [numCategories]timeseries.Series
}

// NewLedger returns a zero-initialised ledger for the given horizon.
func NewLedger(steps int) *Ledger {
	l := &Ledger{steps: steps}
	for i := range l.series {
		l.series[i] = timeseries.Zeros(steps)
	}
	return l
}

// Steps returns the horizon length.
func (l *Ledger) Steps() int { return l.steps }

// Contribute adds a full-horizon series to one category. Used by the
// non-balancing components in their single AllCalcs pass.
func (l *Ledger) Contribute(cat Category, s timeseries.Series) {
	if s.Len() != l.steps {
		panic(fmt.Sprintf("sim: contribute to %s with %d steps, ledger has %d", cat, s.Len(), l.steps))
	}
	for i := range s {
		l.series[cat][i] += s[i]
	}
}

// StepContribute adds a single-timestep amount to one category. Used inside
// the per-timestep balancing loop.
func (l *Ledger) StepContribute(cat Category, amount float64, step int) {
	l.series[cat].AddAt(step, amount)
}

// At returns the current balance for a category at a timestep.
func (l *Ledger) At(cat Category, step int) float64 {
	return l.series[cat].At(step)
}

// Balance returns the category's series. Callers must treat it as read-only;
// all mutation goes through Contribute/StepContribute.
func (l *Ledger) Balance(cat Category) timeseries.Series {
	return l.series[cat]
}

// Demand returns the positive part of the balance at a timestep: how much is
// still unmet.
func (l *Ledger) Demand(cat Category, step int) float64 {
	if v := l.series[cat].At(step); v > 0 {
		return v
	}
	return 0
}

// Surplus returns the magnitude of the negative part of the balance at a
// timestep: how much is still exportable.
func (l *Ledger) Surplus(cat Category, step int) float64 {
	if v := l.series[cat].At(step); v < 0 {
		return -v
	}
	return 0
}
