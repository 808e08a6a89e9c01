// Package paramag isolates the linear paramagnetic/diamagnetic background of
// a hysteresis loop: it detects the high-field region where M(H) is a straight
// line, fits the susceptibility χ, and subtracts χ·H from the moment while
// preserving the loop's vertical placement.
package paramag

// Config holds the tuning parameters of the branch-aware tail detector.
// Defaults are tuned for typical VSM loops.
type Config struct {
	// CoreExcludeFrac drops points with |H| <= frac*max|H|; the near-zero
	// core is always ferromagnetic and never part of the linear tail.
	CoreExcludeFrac float64 `json:"core_exclude_frac"`
	// SlideFrac sets the sliding window width as a fraction of branch size.
	SlideFrac float64 `json:"slide_frac"`
	// R2Min is the minimum R² for a window position to be accepted.
	R2Min float64 `json:"r2_min"`
	// SlopeStdRelMax bounds std/|mean| of the accepted per-position slopes.
	SlopeStdRelMax float64 `json:"slope_std_rel_max"`
	// QAbsMax bounds the absolute quadratic coefficient of each window.
	// Zero disables the curvature check.
	QAbsMax float64 `json:"q_abs_max,omitempty"`
	// MaxFrac caps the accepted region at frac*branch size points.
	MaxFrac float64 `json:"max_frac"`
	// NMin is the minimum window and region size in points.
	NMin int `json:"n_min"`
	// DhMinFrac is the minimum accepted field span as a fraction of the
	// branch's total span.
	DhMinFrac float64 `json:"dh_min_frac"`
	// SmoothWindow applies a centered rolling mean of this width to guide
	// the window search. The reported fit always uses the raw data.
	// Values below 2 disable smoothing.
	SmoothWindow int `json:"smooth_window,omitempty"`
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		CoreExcludeFrac: 0.2,
		SlideFrac:       0.08,
		R2Min:           0.995,
		SlopeStdRelMax:  0.10,
		QAbsMax:         0,
		MaxFrac:         0.4,
		NMin:            20,
		DhMinFrac:       0.10,
		SmoothWindow:    0,
	}
}
