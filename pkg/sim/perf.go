package sim

import (
	"math"

	"github.com/sitemix/sitemix/pkg/types"
)

// perfLookup is the precomputed heat-pump performance table for one send
// temperature: per-degree maximum heat output and electrical input for a
// timestep, scaled from the table's reference power to the modelled power.
// Lookups round the source temperature to the nearest degree and saturate at
// the table edges rather than extrapolating.
type perfLookup struct {
	minDeg    int
	maxOutKWH []float64
	maxInKWH  []float64
}

func newPerfLookup(table types.PerfTable, powerKW, sendTempC float64) *perfLookup {
	col := nearestIndex(table.SendTempsC, sendTempC)
	scale := powerKW / table.ReferenceKW

	minDeg := int(math.Round(table.SourceTempsC[0]))
	maxDeg := int(math.Round(table.SourceTempsC[len(table.SourceTempsC)-1]))
	n := maxDeg - minDeg + 1

	p := &perfLookup{
		minDeg:    minDeg,
		maxOutKWH: make([]float64, n),
		maxInKWH:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		deg := float64(minDeg + i)
		p.maxOutKWH[i] = interpRow(table.SourceTempsC, table.OutputKWH, deg, col) * scale
		p.maxInKWH[i] = interpRow(table.SourceTempsC, table.InputKWH, deg, col) * scale
	}
	return p
}

// Lookup returns the maximum heat output and electrical input at the given
// source temperature.
func (p *perfLookup) Lookup(sourceTempC float64) (maxOutKWH, maxInKWH float64) {
	idx := int(math.Round(sourceTempC)) - p.minDeg
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.maxOutKWH) {
		idx = len(p.maxOutKWH) - 1
	}
	return p.maxOutKWH[idx], p.maxInKWH[idx]
}

// MaxInputKWH returns the largest electrical draw anywhere in the table,
// used to size the budget a flexible host load hands to its heat pump.
func (p *perfLookup) MaxInputKWH() float64 {
	var m float64
	for _, v := range p.maxInKWH {
		if v > m {
			m = v
		}
	}
	return m
}

// nearestIndex returns the index of the value in vals closest to target.
func nearestIndex(vals []float64, target float64) int {
	best := 0
	bestDist := math.Abs(vals[0] - target)
	for i, v := range vals[1:] {
		if d := math.Abs(v - target); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}

// interpRow linearly interpolates column col of a table across source
// temperatures, clamping outside the recorded range.
func interpRow(sourceTemps []float64, cells [][]float64, temp float64, col int) float64 {
	if temp <= sourceTemps[0] {
		return cells[0][col]
	}
	last := len(sourceTemps) - 1
	if temp >= sourceTemps[last] {
		return cells[last][col]
	}
	for i := 1; i <= last; i++ {
		if temp <= sourceTemps[i] {
			t0, t1 := sourceTemps[i-1], sourceTemps[i]
			frac := (temp - t0) / (t1 - t0)
			return cells[i-1][col] + frac*(cells[i][col]-cells[i-1][col])
		}
	}
	return cells[last][col]
}
