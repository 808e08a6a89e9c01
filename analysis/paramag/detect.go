package paramag

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"magfit/analysis/fit"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// DetectResult is the outcome of the branch-aware tail detection. Both
// branches are always present; a branch that produced no valid region has a
// nil Fit and an explanatory note.
type DetectResult struct {
	Neg         loop.BranchResult     `json:"neg"`
	Pos         loop.BranchResult     `json:"pos"`
	ChiCombined float64               `json:"chi_combined"` // median of the valid branch slopes
	Notes       []loop.DiagnosticNote `json:"notes,omitempty"`
}

// BranchFits returns the valid branch fits in neg, pos order.
func (r *DetectResult) BranchFits() []loop.BranchFit {
	fits := make([]loop.BranchFit, 0, 2)
	for _, br := range []loop.BranchResult{r.Neg, r.Pos} {
		if br.Fit != nil {
			fits = append(fits, *br.Fit)
		}
	}
	return fits
}

// NoValidRegionError reports that neither branch yielded an acceptable
// high-field linear region. It carries the accumulated diagnostics.
type NoValidRegionError struct {
	Notes []loop.DiagnosticNote
}

func (e *NoValidRegionError) Error() string {
	msg := "no valid high-field tails detected"
	for _, n := range e.Notes {
		msg += fmt.Sprintf("; %s branch: %s", n.Branch, n.Code)
	}
	return msg
}

func (e *NoValidRegionError) Unwrap() error { return core.ErrNoValidRegion }

// AutodetectWindows locates, for each polarity branch, the outermost
// contiguous run of points whose M-H relationship is linear, wide and stable
// enough to serve as a susceptibility estimate. Branches are processed
// independently; the combined χ is the median of the branch slopes that
// succeeded. The reported fits always come from the raw, unsmoothed data.
func AutodetectWindows(xy loop.XY, cfg Config) (*DetectResult, error) {
	if xy.Len() == 0 {
		return nil, core.NewInsufficientDataError("tail detection", 0, 1)
	}

	coreLimit := cfg.CoreExcludeFrac * xy.MaxAbsH()
	result := &DetectResult{
		Neg: loop.BranchResult{Branch: loop.BranchNeg},
		Pos: loop.BranchResult{Branch: loop.BranchPos},
	}

	negX, negY := branchPoints(xy, loop.BranchNeg, coreLimit)
	posX, posY := branchPoints(xy, loop.BranchPos, coreLimit)
	result.Neg.Fit = detectBranch(negX, negY, loop.BranchNeg, cfg, &result.Notes)
	result.Pos.Fit = detectBranch(posX, posY, loop.BranchPos, cfg, &result.Notes)

	chis := make([]float64, 0, 2)
	for _, bf := range result.BranchFits() {
		chis = append(chis, bf.Chi)
	}
	if len(chis) == 0 {
		return nil, &NoValidRegionError{Notes: result.Notes}
	}

	median, err := stats.Median(chis)
	if err != nil {
		return nil, &NoValidRegionError{Notes: result.Notes}
	}
	result.ChiCombined = median
	return result, nil
}

// branchPoints extracts one polarity branch with the ferromagnetic core
// excluded, ordered so that index 0 is the outermost field value and the walk
// proceeds inward toward H=0.
func branchPoints(xy loop.XY, branch loop.Branch, coreLimit float64) ([]float64, []float64) {
	idx := make([]int, 0, xy.Len())
	for i, h := range xy.H {
		if math.Abs(h) <= coreLimit {
			continue
		}
		if branch == loop.BranchNeg && h < 0 {
			idx = append(idx, i)
		}
		if branch == loop.BranchPos && h > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if branch == loop.BranchPos {
			return xy.H[idx[a]] > xy.H[idx[b]]
		}
		return xy.H[idx[a]] < xy.H[idx[b]]
	})

	x := make([]float64, len(idx))
	y := make([]float64, len(idx))
	for i, j := range idx {
		x[i] = xy.H[j]
		y[i] = xy.M[j]
	}
	return x, y
}

// detectBranch runs the sliding-window search over a single branch.
// Returns nil and appends a diagnostic note when the branch is invalid.
func detectBranch(x, y []float64, branch loop.Branch, cfg Config, notes *[]loop.DiagnosticNote) *loop.BranchFit {
	note := func(code loop.ReasonCode, detail string) *loop.BranchFit {
		*notes = append(*notes, loop.DiagnosticNote{Branch: branch, Code: code, Detail: detail})
		return nil
	}

	n := len(x)
	if n == 0 {
		return note(loop.ReasonNoData, "")
	}
	if n < cfg.NMin {
		return note(loop.ReasonInsufficientPoints, fmt.Sprintf("%d < %d", n, cfg.NMin))
	}
	w := cfg.NMin
	if sw := int(cfg.SlideFrac * float64(n)); sw > w {
		w = sw
	}
	if w > n {
		return note(loop.ReasonWindowTooWide, "")
	}

	yDiag := y
	if cfg.SmoothWindow > 1 {
		yDiag = rollingMean(y, cfg.SmoothWindow)
	}

	// Sliding search: grow an accepted run of window positions starting at
	// the branch extreme. The first rejection after acceptance terminates
	// growth; rejections before any acceptance just advance the start.
	slopes := make([]float64, 0, n)
	start := -1
	for i := 0; i+w <= n; {
		lf, err := fit.Line(x[i:i+w], yDiag[i:i+w])
		if err != nil {
			break
		}
		accept := lf.R2 >= cfg.R2Min
		if accept && cfg.QAbsMax > 0 {
			q, err := fit.Curvature(x[i:i+w], yDiag[i:i+w])
			if err != nil {
				break
			}
			accept = math.Abs(q) <= cfg.QAbsMax
		}
		switch {
		case accept:
			if start < 0 {
				start = i
			}
			slopes = append(slopes, lf.Slope)
			i++
		case start < 0:
			i++
		default:
			i = n // terminate
		}
	}
	if start < 0 || len(slopes) == 0 {
		return note(loop.ReasonNoValidWindow, "")
	}

	// Enforce slope stability by trimming positions off the inward end.
	valid := len(slopes)
	for valid > 1 {
		mean, _ := stats.Mean(slopes[:valid])
		std, _ := stats.StandardDeviation(slopes[:valid])
		rel := math.Inf(1)
		if mean != 0 {
			rel = std / math.Abs(mean)
		}
		if rel <= cfg.SlopeStdRelMax {
			break
		}
		valid--
	}
	if valid == 0 {
		return note(loop.ReasonUnstableSlope, "")
	}

	end := start + valid + w - 1
	if end > n-1 {
		end = n - 1
	}
	regionLen := end - start + 1
	if maxLen := int(cfg.MaxFrac * float64(n)); regionLen > maxLen {
		end = start + maxLen - 1
		regionLen = maxLen
	}
	if regionLen < cfg.NMin {
		return note(loop.ReasonWindowTooShort, fmt.Sprintf("%d < %d", regionLen, cfg.NMin))
	}

	xs := x[start : end+1]
	ys := y[start : end+1] // raw data for the reported fit

	dh := math.Abs(xs[len(xs)-1] - xs[0])
	span := math.Abs(x[n-1] - x[0])
	if dh < cfg.DhMinFrac*span {
		return note(loop.ReasonSpanBelowThreshold, fmt.Sprintf("%g < %g", dh, cfg.DhMinFrac*span))
	}

	lf, err := fit.Line(xs, ys)
	if err != nil {
		return note(loop.ReasonNoValidWindow, err.Error())
	}

	hmin, hmax := xs[0], xs[0]
	for _, h := range xs[1:] {
		if h < hmin {
			hmin = h
		}
		if h > hmax {
			hmax = h
		}
	}
	return &loop.BranchFit{
		Window:    loop.Window{HMin: hmin, HMax: hmax},
		Chi:       lf.Slope,
		Intercept: lf.Intercept,
		R2:        lf.R2,
		N:         len(xs),
	}
}

// rollingMean applies a centered moving average with partial windows at the
// edges, matching the diagnostic smoothing of the window search.
func rollingMean(y []float64, window int) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		lo := i - (window-1)/2
		hi := i + window/2
		if lo < 0 {
			lo = 0
		}
		if hi > len(y)-1 {
			hi = len(y) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += y[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
