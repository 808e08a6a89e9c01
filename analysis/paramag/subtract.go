package paramag

import (
	"math"

	"magfit/domain/loop"
)

// CorrectedSuffix is appended to the moment column name by subtraction.
const CorrectedSuffix = "_corr"

// ApplySubtraction removes the linear background χ·H from the moment column
// and returns a new dataset carrying the corrected column. Only the slope
// term is subtracted; the fit intercept is never removed, so the loop's
// vertical placement (and therefore Mr) is unchanged and M at H=0 is
// invariant under correction.
func ApplySubtraction(ds *loop.Dataset, xName, yName string, chi float64) (*loop.Dataset, error) {
	h, err := ds.Column(xName)
	if err != nil {
		return nil, err
	}
	m, err := ds.Column(yName)
	if err != nil {
		return nil, err
	}

	corrected := make([]float64, len(m))
	for i := range m {
		if i < len(h) {
			corrected[i] = m[i] - chi*h[i]
		} else {
			corrected[i] = math.NaN()
		}
	}

	out := ds.WithColumn(yName+CorrectedSuffix, corrected)
	out.Meta["chi"] = chi
	return out, nil
}

// ApplyBranchSubtraction subtracts the combined (median) branch χ from a
// detection result and records the per-branch slopes and intercepts in the
// dataset metadata for diagnostics.
func ApplyBranchSubtraction(ds *loop.Dataset, xName, yName string, det *DetectResult) (*loop.Dataset, error) {
	out, err := ApplySubtraction(ds, xName, yName, det.ChiCombined)
	if err != nil {
		return nil, err
	}
	out.Meta["chi_combined"] = det.ChiCombined
	if det.Neg.Fit != nil {
		out.Meta["chi_neg"] = det.Neg.Fit.Chi
		out.Meta["b_neg"] = det.Neg.Fit.Intercept
	}
	if det.Pos.Fit != nil {
		out.Meta["chi_pos"] = det.Pos.Fit.Chi
		out.Meta["b_pos"] = det.Pos.Fit.Intercept
	}
	return out, nil
}
