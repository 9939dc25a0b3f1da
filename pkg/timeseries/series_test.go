package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruction(t *testing.T) {
	z := Zeros(4)
	require.Equal(t, 4, z.Len())
	assert.InDelta(t, 0, z.Sum(), 0.0001)

	c := Constant(3, 2.5)
	assert.InDelta(t, 7.5, c.Sum(), 0.0001)
	assert.InDelta(t, 2.5, c.At(2), 0.0001)
}

func TestElementwise(t *testing.T) {
	a := Series{1, 2, 3}
	b := Series{10, 20, 30}

	assert.Equal(t, Series{11, 22, 33}, a.Add(b))
	assert.Equal(t, Series{9, 18, 27}, b.Sub(a))
	assert.Equal(t, Series{10, 40, 90}, a.Mul(b))
	assert.Equal(t, Series{2, 4, 6}, a.Scale(2))

	// operands must not be mutated
	assert.Equal(t, Series{1, 2, 3}, a)
	assert.Equal(t, Series{10, 20, 30}, b)
}

func TestClamping(t *testing.T) {
	s := Series{-5, 0, 5}
	assert.Equal(t, Series{0, 0, 5}, s.ClampMin(0))
	assert.Equal(t, Series{-5, 0, 2}, s.ClampMax(2))

	other := Series{-1, 1, 4}
	assert.Equal(t, Series{-5, 0, 4}, s.Min(other))
	assert.Equal(t, Series{-1, 1, 5}, s.Max(other))
}

func TestReductions(t *testing.T) {
	s := Series{1, 2, 3, 4}
	assert.InDelta(t, 10, s.Sum(), 0.0001)
	assert.InDelta(t, 2.5, s.Mean(), 0.0001)
	assert.InDelta(t, 0, Series{}.Mean(), 0.0001)
}

func TestIndexedAccess(t *testing.T) {
	s := Zeros(3)
	s.Set(1, 7)
	assert.InDelta(t, 7, s.At(1), 0.0001)
	s.AddAt(1, 3)
	assert.InDelta(t, 10, s.At(1), 0.0001)
}

func TestOutOfRangePanics(t *testing.T) {
	s := Zeros(3)
	assert.Panics(t, func() { s.At(3) })
	assert.Panics(t, func() { s.At(-1) })
	assert.Panics(t, func() { s.Set(3, 0) })
	assert.Panics(t, func() { Series{1}.Add(Series{1, 2}) })
}

func TestClone(t *testing.T) {
	a := Series{1, 2}
	b := a.Clone()
	b.Set(0, 9)
	assert.InDelta(t, 1, a.At(0), 0.0001)
}
