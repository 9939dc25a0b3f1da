// Package timeseries provides the fixed-length float series every part of the
// balancing engine is built on. One Series holds one value per timestep and all
// series participating in a simulation share the site's horizon length.
package timeseries

import "fmt"

// Series is an ordered sequence of per-timestep values (kWh, °C, $/kWh, ...).
type Series []float64

// Zeros returns a zeroed series of the given length.
func Zeros(n int) Series {
	return make(Series, n)
}

// Constant returns a series of the given length with every slot set to v.
// Used for inputs supplied as a single scalar (flat tariffs, fixed temperatures).
func Constant(n int, v float64) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Len returns the number of timesteps.
func (s Series) Len() int { return len(s) }

// At returns the value at step i. Access outside the horizon is a programming
// error and panics; silently substituting a sentinel would corrupt every
// downstream balance without any visible symptom.
func (s Series) At(i int) float64 {
	if i < 0 || i >= len(s) {
		panic(fmt.Sprintf("timeseries: index %d out of range (len %d)", i, len(s)))
	}
	return s[i]
}

// Set writes the value at step i, panicking outside the horizon like At.
func (s Series) Set(i int, v float64) {
	if i < 0 || i >= len(s) {
		panic(fmt.Sprintf("timeseries: index %d out of range (len %d)", i, len(s)))
	}
	s[i] = v
}

// AddAt adds v to the value at step i in place.
func (s Series) AddAt(i int, v float64) {
	s.Set(i, s.At(i)+v)
}

func (s Series) sameLen(other Series, op string) {
	if len(s) != len(other) {
		panic(fmt.Sprintf("timeseries: %s length mismatch (%d vs %d)", op, len(s), len(other)))
	}
}

// Add returns s + other elementwise.
func (s Series) Add(other Series) Series {
	s.sameLen(other, "add")
	out := make(Series, len(s))
	for i := range s {
		out[i] = s[i] + other[i]
	}
	return out
}

// Sub returns s - other elementwise.
func (s Series) Sub(other Series) Series {
	s.sameLen(other, "sub")
	out := make(Series, len(s))
	for i := range s {
		out[i] = s[i] - other[i]
	}
	return out
}

// Mul returns s * other elementwise.
func (s Series) Mul(other Series) Series {
	s.sameLen(other, "mul")
	out := make(Series, len(s))
	for i := range s {
		out[i] = s[i] * other[i]
	}
	return out
}

// Scale returns s * f.
func (s Series) Scale(f float64) Series {
	out := make(Series, len(s))
	for i := range s {
		out[i] = s[i] * f
	}
	return out
}

// ClampMin returns s with every value raised to at least min.
func (s Series) ClampMin(min float64) Series {
	out := make(Series, len(s))
	for i := range s {
		if s[i] < min {
			out[i] = min
		} else {
			out[i] = s[i]
		}
	}
	return out
}

// ClampMax returns s with every value lowered to at most max.
func (s Series) ClampMax(max float64) Series {
	out := make(Series, len(s))
	for i := range s {
		if s[i] > max {
			out[i] = max
		} else {
			out[i] = s[i]
		}
	}
	return out
}

// Min returns the elementwise minimum of s and other.
func (s Series) Min(other Series) Series {
	s.sameLen(other, "min")
	out := make(Series, len(s))
	for i := range s {
		if other[i] < s[i] {
			out[i] = other[i]
		} else {
			out[i] = s[i]
		}
	}
	return out
}

// Max returns the elementwise maximum of s and other.
func (s Series) Max(other Series) Series {
	s.sameLen(other, "max")
	out := make(Series, len(s))
	for i := range s {
		if other[i] > s[i] {
			out[i] = other[i]
		} else {
			out[i] = s[i]
		}
	}
	return out
}

// Sum returns the horizon total.
func (s Series) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Mean returns the horizon average, or 0 for an empty series.
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s))
}

// Clone returns an independent copy of s.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}
