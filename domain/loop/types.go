package loop

// Branch identifies one polarity half of a hysteresis loop.
// Tail detection treats the H<0 and H>0 subsets independently.
type Branch string

const (
	BranchNeg Branch = "neg" // samples with H < 0
	BranchPos Branch = "pos" // samples with H > 0
)

// Window is an inclusive field interval, HMin <= HMax.
type Window struct {
	HMin float64 `json:"hmin"`
	HMax float64 `json:"hmax"`
}

// Contains reports whether h lies inside the window.
func (w Window) Contains(h float64) bool {
	return h >= w.HMin && h <= w.HMax
}

// Span returns the width of the window.
func (w Window) Span() float64 {
	return w.HMax - w.HMin
}

// BranchFit is the accepted high-field linear fit for a single branch.
// INVARIANTS:
// - N >= 2
// - Window lies within the branch's field span
type BranchFit struct {
	Window    Window  `json:"window"`
	Chi       float64 `json:"chi"` // slope of M vs H, the susceptibility estimate
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// BranchResult pairs a branch id with its fit. Fit is nil when the branch
// produced no valid high-field region; the reason is in the detector notes.
type BranchResult struct {
	Branch Branch     `json:"branch"`
	Fit    *BranchFit `json:"fit,omitempty"`
}

// FitResult is the generic OLS output for an explicit-window tail fit,
// including fitted points for plot overlays.
type FitResult struct {
	Chi       float64   `json:"chi"`
	Intercept float64   `json:"b"`
	R2        float64   `json:"r2"`
	N         int       `json:"npoints"`
	Window    Window    `json:"window"`
	XFit      []float64 `json:"x_fit,omitempty"`
	YFit      []float64 `json:"y_fit,omitempty"`
}

// ReasonCode represents structured diagnostic reasons emitted during detection
type ReasonCode string

const (
	ReasonNoData             ReasonCode = "NO_DATA"             // branch is empty after core exclusion
	ReasonInsufficientPoints ReasonCode = "INSUFFICIENT_POINTS" // fewer than n_min branch points
	ReasonWindowTooWide      ReasonCode = "WINDOW_TOO_WIDE"     // sliding window wider than branch
	ReasonNoValidWindow      ReasonCode = "NO_VALID_WINDOW"     // no window position met quality thresholds
	ReasonUnstableSlope      ReasonCode = "UNSTABLE_SLOPE"      // stability trim consumed the accepted run
	ReasonWindowTooShort     ReasonCode = "WINDOW_TOO_SHORT"    // accepted region shorter than n_min
	ReasonSpanBelowThreshold ReasonCode = "SPAN_BELOW_THRESHOLD"
	ReasonNoDemagCorrection  ReasonCode = "NO_DEMAG_CORRECTION" // anisotropy computed without demag correction
)

// DiagnosticNote records why a branch (or metric) degraded or failed.
type DiagnosticNote struct {
	Branch Branch     `json:"branch,omitempty"`
	Code   ReasonCode `json:"code"`
	Detail string     `json:"detail,omitempty"`
}
