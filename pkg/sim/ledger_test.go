package sim

import (
	"testing"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStartsZeroed(t *testing.T) {
	l := NewLedger(4)
	require.Equal(t, 4, l.Steps())
	for cat := CatElec; cat < numCategories; cat++ {
		assert.InDelta(t, 0, l.Balance(cat).Sum(), 0.0001, cat.String())
	}
}

func TestContribute(t *testing.T) {
	l := NewLedger(3)
	l.Contribute(CatElec, timeseries.Series{1, 2, 3})
	l.Contribute(CatElec, timeseries.Series{-1, 0, 1})

	assert.InDelta(t, 0, l.At(CatElec, 0), 0.0001)
	assert.InDelta(t, 2, l.At(CatElec, 1), 0.0001)
	assert.InDelta(t, 4, l.At(CatElec, 2), 0.0001)
	// other categories untouched
	assert.InDelta(t, 0, l.Balance(CatHeat).Sum(), 0.0001)
}

func TestStepContribute(t *testing.T) {
	l := NewLedger(2)
	l.StepContribute(CatHeat, 5, 1)
	l.StepContribute(CatHeat, -2, 1)
	assert.InDelta(t, 3, l.At(CatHeat, 1), 0.0001)
	assert.InDelta(t, 0, l.At(CatHeat, 0), 0.0001)
}

func TestDemandSurplus(t *testing.T) {
	l := NewLedger(2)
	l.StepContribute(CatElec, 4, 0)
	l.StepContribute(CatElec, -7, 1)

	assert.InDelta(t, 4, l.Demand(CatElec, 0), 0.0001)
	assert.InDelta(t, 0, l.Surplus(CatElec, 0), 0.0001)
	assert.InDelta(t, 0, l.Demand(CatElec, 1), 0.0001)
	assert.InDelta(t, 7, l.Surplus(CatElec, 1), 0.0001)
}

func TestLedgerPanicsOnBadInput(t *testing.T) {
	l := NewLedger(2)
	assert.Panics(t, func() { l.Contribute(CatElec, timeseries.Zeros(3)) })
	assert.Panics(t, func() { l.StepContribute(CatElec, 1, 5) })
	assert.Panics(t, func() { l.At(CatElec, -1) })
}
