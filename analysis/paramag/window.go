package paramag

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"magfit/analysis/fit"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// SelectWindow restricts xy to an explicit field interval. When both bounds
// are nil the default window is the top 20% of samples by |H|.
func SelectWindow(xy loop.XY, hmin, hmax *float64) loop.XY {
	out := loop.XY{}
	if hmin == nil && hmax == nil {
		threshold := absQuantile(xy.H, 80)
		for i, h := range xy.H {
			if math.Abs(h) >= threshold {
				out.H = append(out.H, h)
				out.M = append(out.M, xy.M[i])
			}
		}
		return out
	}
	for i, h := range xy.H {
		if hmin != nil && h < *hmin {
			continue
		}
		if hmax != nil && h > *hmax {
			continue
		}
		out.H = append(out.H, h)
		out.M = append(out.M, xy.M[i])
	}
	return out
}

// FitLinearTail fits M = χ·H + b over the selected window and returns the
// full fit record, including predicted points for overlay rendering.
func FitLinearTail(xy loop.XY, hmin, hmax *float64) (loop.FitResult, error) {
	window := SelectWindow(xy, hmin, hmax)
	if window.Len() < 2 {
		return loop.FitResult{}, core.NewInsufficientDataError("tail fit", window.Len(), 2)
	}

	lf, err := fit.Line(window.H, window.M)
	if err != nil {
		return loop.FitResult{}, err
	}

	yFit := make([]float64, window.Len())
	for i, h := range window.H {
		yFit[i] = lf.Slope*h + lf.Intercept
	}
	lo, hi := window.HRange()
	return loop.FitResult{
		Chi:       lf.Slope,
		Intercept: lf.Intercept,
		R2:        lf.R2,
		N:         window.Len(),
		Window:    loop.Window{HMin: lo, HMax: hi},
		XFit:      window.H,
		YFit:      yFit,
	}, nil
}

// TailCandidates configures the ordered strategy list of DetectLinearTail.
type TailCandidates struct {
	Quantiles []float64 `json:"quantiles"`  // |H| quantiles tried in order
	MinPoints int       `json:"min_points"` // minimum points per candidate
	MinR2     float64   `json:"min_r2"`     // minimum fit quality per candidate
}

// DefaultTailCandidates returns the candidate chain used when the sliding
// detector is not wanted: top 20%, then top 10% of samples by |H|.
func DefaultTailCandidates() TailCandidates {
	return TailCandidates{
		Quantiles: []float64{0.8, 0.9},
		MinPoints: 20,
		MinR2:     0.7,
	}
}

// DetectLinearTail evaluates an explicit ordered list of candidate windows
// (|H| above each quantile in turn) and returns the first fit meeting the
// size and quality requirements. When every candidate fails the error
// aggregates each candidate's reason.
func DetectLinearTail(xy loop.XY, cand TailCandidates) (loop.FitResult, error) {
	failures := make([]string, 0, len(cand.Quantiles))
	for _, q := range cand.Quantiles {
		threshold := absQuantile(xy.H, q*100)
		window := loop.XY{}
		for i, h := range xy.H {
			if math.Abs(h) >= threshold {
				window.H = append(window.H, h)
				window.M = append(window.M, xy.M[i])
			}
		}
		if window.Len() < 2 {
			failures = append(failures, fmt.Sprintf("q=%.2f: %d points", q, window.Len()))
			continue
		}
		lf, err := fit.Line(window.H, window.M)
		if err != nil {
			failures = append(failures, fmt.Sprintf("q=%.2f: %v", q, err))
			continue
		}
		if window.Len() < cand.MinPoints || lf.R2 < cand.MinR2 {
			failures = append(failures, fmt.Sprintf("q=%.2f: n=%d r2=%.3f", q, window.Len(), lf.R2))
			continue
		}

		yFit := make([]float64, window.Len())
		for i, h := range window.H {
			yFit[i] = lf.Slope*h + lf.Intercept
		}
		lo, hi := window.HRange()
		return loop.FitResult{
			Chi:       lf.Slope,
			Intercept: lf.Intercept,
			R2:        lf.R2,
			N:         window.Len(),
			Window:    loop.Window{HMin: lo, HMax: hi},
			XFit:      window.H,
			YFit:      yFit,
		}, nil
	}
	return loop.FitResult{}, fmt.Errorf("%w: tail auto-detection failed (%s)",
		core.ErrNoValidRegion, strings.Join(failures, "; "))
}

// absQuantile returns the given percentile of |values|, 0 for empty input.
func absQuantile(values []float64, percentile float64) float64 {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	q, err := stats.Percentile(abs, percentile)
	if err != nil {
		return 0
	}
	return q
}
