// Package metrics extracts the scalar hysteresis-loop parameters: saturation
// magnetization, coercive field and remanent magnetization.
package metrics

import (
	"math"
	"sort"

	"magfit/analysis/fit"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// MsOptions configures the saturation magnetization fit.
type MsOptions struct {
	// Window overrides the canonical default high-field window, which is the
	// top 10% of the field range by distance from the minimum:
	// [Hmin + 0.9*(Hmax-Hmin), Hmax].
	Window *loop.Window `json:"window,omitempty"`
	// Convert divides Ms by a sample volume when the parameters below allow
	// one to be computed (mass/density first, then thickness*area).
	Convert   bool    `json:"convert"`
	Mass      float64 `json:"mass,omitempty"`
	Density   float64 `json:"density,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
	Area      float64 `json:"area,omitempty"`
}

// MsDetail carries the fit statistics behind a saturation magnetization value.
type MsDetail struct {
	Chi    float64     `json:"chi"`
	StdErr float64     `json:"stderr"`
	Window loop.Window `json:"window"`
	N      int         `json:"n"`
	Unit   string      `json:"unit"`
}

// SaturationMagnetization fits M = Ms + χ·H over a high-field window using a
// sign-folded regression: H and M on the negative wing are both negated so
// that both wings populate a single least-squares fit of y = χ·|H| + Ms.
func SaturationMagnetization(xy loop.XY, opts MsOptions) (float64, MsDetail, error) {
	window := opts.Window
	if window == nil {
		lo, hi := xy.HRange()
		window = &loop.Window{HMin: lo + 0.9*(hi-lo), HMax: hi}
	}

	xf := make([]float64, 0, xy.Len())
	yf := make([]float64, 0, xy.Len())
	for i, h := range xy.H {
		if !window.Contains(h) {
			continue
		}
		sign := 1.0
		if h < 0 {
			sign = -1.0
		}
		xf = append(xf, sign*h)
		yf = append(yf, sign*xy.M[i])
	}
	if len(xf) < 2 {
		return 0, MsDetail{}, core.NewInsufficientDataError("saturation fit", len(xf), 2)
	}

	lf, err := fit.Line(xf, yf)
	if err != nil {
		return 0, MsDetail{}, err
	}
	ms, chi := lf.Intercept, lf.Slope

	stderr := math.NaN()
	if lf.N > 2 {
		ssRes := 0.0
		for i := range xf {
			resid := yf[i] - (chi*xf[i] + ms)
			ssRes += resid * resid
		}
		stderr = math.Sqrt(ssRes / float64(lf.N-2))
	}

	unit := "raw"
	if opts.Convert {
		volume := 0.0
		switch {
		case opts.Mass > 0 && opts.Density > 0:
			volume = opts.Mass / opts.Density
		case opts.Thickness > 0 && opts.Area > 0:
			volume = opts.Thickness * opts.Area
		}
		if volume > 0 {
			ms /= volume
			if !math.IsNaN(stderr) {
				stderr /= volume
			}
			unit = "A/m"
		}
	}

	return ms, MsDetail{
		Chi:    chi,
		StdErr: stderr,
		Window: *window,
		N:      lf.N,
		Unit:   unit,
	}, nil
}

// HcDetail carries the per-side zero crossings behind a coercivity value.
type HcDetail struct {
	HcPos  *float64    `json:"hc_pos,omitempty"`
	HcNeg  *float64    `json:"hc_neg,omitempty"`
	Window loop.Window `json:"window"`
}

// Coercivity computes the coercive field as the mean |H| of the M=0 crossings
// nearest zero on each side. Samples are sorted by H and crossings found by
// linear interpolation between adjacent sign changes. The search window
// defaults to ±2% of max|H|; when it contains no crossing the full field
// range is searched before failing.
func Coercivity(xy loop.XY, window *loop.Window) (float64, HcDetail, error) {
	if xy.Len() < 2 {
		return 0, HcDetail{}, core.NewInsufficientDataError("coercivity", xy.Len(), 2)
	}

	if window == nil {
		w := 0.02 * xy.MaxAbsH()
		window = &loop.Window{HMin: -w, HMax: w}
	}
	detail := HcDetail{Window: *window}

	sorted := sortByH(xy)
	windowed := loop.XY{}
	for i, h := range sorted.H {
		if window.Contains(h) {
			windowed.H = append(windowed.H, h)
			windowed.M = append(windowed.M, sorted.M[i])
		}
	}

	pos, neg := zeroCrossings(windowed)
	if len(pos) == 0 && len(neg) == 0 {
		pos, neg = zeroCrossings(sorted)
	}

	if len(pos) > 0 {
		z := nearestZero(pos)
		detail.HcPos = &z
	}
	if len(neg) > 0 {
		z := nearestZero(neg)
		detail.HcNeg = &z
	}

	switch {
	case detail.HcPos != nil && detail.HcNeg != nil:
		return 0.5 * (math.Abs(*detail.HcPos) + math.Abs(*detail.HcNeg)), detail, nil
	case detail.HcPos != nil:
		return math.Abs(*detail.HcPos), detail, nil
	case detail.HcNeg != nil:
		return math.Abs(*detail.HcNeg), detail, nil
	default:
		return 0, detail, core.ErrNoValidRegion
	}
}

// MrDetail carries the local fit behind a remanence value.
type MrDetail struct {
	Slope float64 `json:"slope"`
	N     int     `json:"n"`
	H0    float64 `json:"h0"`
}

// Remanence interpolates the moment at H = h0 by fitting a local line through
// the windowPts samples nearest h0 (default 4, minimum 2) and reporting the
// intercept evaluated at h0.
func Remanence(xy loop.XY, h0 float64, windowPts int) (float64, MrDetail, error) {
	if xy.Len() < 2 {
		return 0, MrDetail{}, core.NewInsufficientDataError("remanence", xy.Len(), 2)
	}
	lo, hi := xy.HRange()
	if h0 < lo || h0 > hi {
		return 0, MrDetail{}, core.NewDomainRangeError(h0, lo, hi)
	}

	if windowPts <= 0 {
		windowPts = 4
	}
	if windowPts < 2 {
		windowPts = 2
	}
	if windowPts > xy.Len() {
		windowPts = xy.Len()
	}

	order := make([]int, xy.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(xy.H[order[a]]-h0) < math.Abs(xy.H[order[b]]-h0)
	})

	// Fit on H-h0 so the intercept is the moment at the target field.
	x := make([]float64, windowPts)
	y := make([]float64, windowPts)
	for i := 0; i < windowPts; i++ {
		x[i] = xy.H[order[i]] - h0
		y[i] = xy.M[order[i]]
	}
	lf, err := fit.Line(x, y)
	if err != nil {
		return 0, MrDetail{}, err
	}
	return lf.Intercept, MrDetail{Slope: lf.Slope, N: windowPts, H0: h0}, nil
}

// sortByH returns a copy of xy ordered by ascending field.
func sortByH(xy loop.XY) loop.XY {
	order := make([]int, xy.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xy.H[order[a]] < xy.H[order[b]] })
	out := loop.XY{H: make([]float64, xy.Len()), M: make([]float64, xy.Len())}
	for i, j := range order {
		out.H[i] = xy.H[j]
		out.M[i] = xy.M[j]
	}
	return out
}

// zeroCrossings interpolates H where M changes sign between adjacent samples,
// split into non-negative and non-positive crossing fields.
func zeroCrossings(xy loop.XY) (pos, neg []float64) {
	for i := 0; i+1 < xy.Len(); i++ {
		m1, m2 := xy.M[i], xy.M[i+1]
		if sign(m1) == sign(m2) || m1 == m2 {
			continue
		}
		h1, h2 := xy.H[i], xy.H[i+1]
		hz := h1 + (h2-h1)*(-m1)/(m2-m1)
		if hz >= 0 {
			pos = append(pos, hz)
		}
		if hz <= 0 {
			neg = append(neg, hz)
		}
	}
	return pos, neg
}

func nearestZero(zs []float64) float64 {
	best := zs[0]
	for _, z := range zs[1:] {
		if math.Abs(z) < math.Abs(best) {
			best = z
		}
	}
	return best
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
