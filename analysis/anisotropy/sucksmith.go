// Package anisotropy derives the uniaxial anisotropy constant Ku from the
// high-field approach to saturation via the Sucksmith-Thompson construction.
package anisotropy

import (
	"math"

	"magfit/analysis/fit"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// KuDetail carries the fit behind an anisotropy constant.
type KuDetail struct {
	Slope     float64               `json:"slope"`
	Intercept float64               `json:"intercept"`
	Window    loop.Window           `json:"window"`
	N         int                   `json:"n"`
	Notes     []loop.DiagnosticNote `json:"notes,omitempty"`
}

// SucksmithThompson fits M/H versus M² over a high-field window and returns
// Ku = 0.5 / intercept. The default window is the top 10% of the field range
// by distance from the minimum. applyDemag is advisory only: no
// demagnetization correction is implemented, and a diagnostic note flags
// results computed without one.
func SucksmithThompson(xy loop.XY, window *loop.Window, applyDemag bool) (float64, KuDetail, error) {
	if window == nil {
		lo, hi := xy.HRange()
		window = &loop.Window{HMin: lo + 0.9*(hi-lo), HMax: hi}
	}

	x := make([]float64, 0, xy.Len()) // M²
	y := make([]float64, 0, xy.Len()) // M/H
	for i, h := range xy.H {
		if !window.Contains(h) || h == 0 {
			continue
		}
		m := xy.M[i]
		ratio := m / h
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		x = append(x, m*m)
		y = append(y, ratio)
	}
	if len(x) < 2 {
		return 0, KuDetail{}, core.NewInsufficientDataError("anisotropy fit", len(x), 2)
	}

	lf, err := fit.Line(x, y)
	if err != nil {
		return 0, KuDetail{}, err
	}
	if lf.Intercept == 0 {
		return 0, KuDetail{}, core.ErrZeroIntercept
	}

	detail := KuDetail{
		Slope:     lf.Slope,
		Intercept: lf.Intercept,
		Window:    *window,
		N:         lf.N,
	}
	if !applyDemag {
		detail.Notes = append(detail.Notes, loop.DiagnosticNote{
			Code:   loop.ReasonNoDemagCorrection,
			Detail: "Ku computed from raw moments",
		})
	}
	return 0.5 / lf.Intercept, detail, nil
}
