package loop

import (
	"math"
	"strconv"
	"strings"
)

// XY holds an index-aligned pair of field and moment samples.
// Both slices always have the same length and contain only finite values
// when produced by CleanPair or Dataset.SelectXY.
type XY struct {
	H []float64 `json:"h"`
	M []float64 `json:"m"`
}

// Len returns the number of samples.
func (xy XY) Len() int { return len(xy.H) }

// MaxAbsH returns max(|H|) over the pair, 0 for empty data.
func (xy XY) MaxAbsH() float64 {
	max := 0.0
	for _, h := range xy.H {
		if a := math.Abs(h); a > max {
			max = a
		}
	}
	return max
}

// HRange returns the minimum and maximum field values.
func (xy XY) HRange() (lo, hi float64) {
	if len(xy.H) == 0 {
		return 0, 0
	}
	lo, hi = xy.H[0], xy.H[0]
	for _, h := range xy.H[1:] {
		if h < lo {
			lo = h
		}
		if h > hi {
			hi = h
		}
	}
	return lo, hi
}

// CoerceStrings converts raw cell values to floats. Values that do not parse
// become NaN so row positions stay aligned with sibling columns.
func CoerceStrings(raw []string) []float64 {
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// Clean drops NaN and ±Inf values, preserving the relative order of survivors.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// CleanPair drops a row from both columns when either value is missing or
// non-finite, so the surviving samples remain index-aligned.
func CleanPair(h, m []float64) XY {
	n := len(h)
	if len(m) < n {
		n = len(m)
	}
	out := XY{
		H: make([]float64, 0, n),
		M: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		if isFinite(h[i]) && isFinite(m[i]) {
			out.H = append(out.H, h[i])
			out.M = append(out.M, m[i])
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
