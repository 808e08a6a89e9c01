package paramag

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"magfit/domain/core"
	"magfit/domain/loop"
)

// syntheticLoop builds M = ms*tanh(h/h0) + chi*h + noise over a symmetric
// field sweep.
func syntheticLoop(n int, ms, h0, chi, noise float64, seed int64) loop.XY {
	rng := rand.New(rand.NewSource(seed))
	xy := loop.XY{H: make([]float64, n), M: make([]float64, n)}
	for i := 0; i < n; i++ {
		h := -10 + 20*float64(i)/float64(n-1)
		xy.H[i] = h
		xy.M[i] = ms*math.Tanh(h/h0) + chi*h + noise*rng.NormFloat64()
	}
	return xy
}

func TestAutodetectWindows_SyntheticLoop(t *testing.T) {
	chi := 0.05
	xy := syntheticLoop(1001, 1.0, 2.0, chi, 5e-4, 1)

	res, err := AutodetectWindows(xy, DefaultConfig())
	if err != nil {
		t.Fatalf("AutodetectWindows failed: %v", err)
	}

	if math.Abs(res.ChiCombined-chi) > 0.1*chi {
		t.Errorf("Expected combined chi within 10%% of %g, got %g", chi, res.ChiCombined)
	}

	hmax := xy.MaxAbsH()
	for _, br := range []loop.BranchResult{res.Neg, res.Pos} {
		if br.Fit == nil {
			t.Fatalf("%s branch: expected a valid fit, notes: %v", br.Branch, res.Notes)
		}
		fit := br.Fit
		if fit.R2 < 0.995 {
			t.Errorf("%s branch: R²=%g below 0.995", br.Branch, fit.R2)
		}

		branchSize := 0
		for _, h := range xy.H {
			if (br.Branch == loop.BranchNeg && h < 0) || (br.Branch == loop.BranchPos && h > 0) {
				branchSize++
			}
		}
		if float64(fit.N) > 0.4*float64(branchSize)+1 {
			t.Errorf("%s branch: accepted region %d exceeds cap for branch of %d", br.Branch, fit.N, branchSize)
		}

		// Accepted window must stay outside the excluded ferromagnetic core.
		inner := math.Min(math.Abs(fit.Window.HMin), math.Abs(fit.Window.HMax))
		if inner <= 0.2*hmax {
			t.Errorf("%s branch: window reaches into the core, inner bound %g", br.Branch, inner)
		}

		if fit.Window.Span() < 0.10*(hmax-0.0) {
			t.Errorf("%s branch: span %g below 10%% of branch span", br.Branch, fit.Window.Span())
		}
	}
}

func TestAutodetectWindows_PureNoiseFails(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	xy := loop.XY{H: make([]float64, 400), M: make([]float64, 400)}
	for i := range xy.H {
		xy.H[i] = -10 + 20*float64(i)/399
		xy.M[i] = rng.NormFloat64()
	}

	_, err := AutodetectWindows(xy, DefaultConfig())
	if !errors.Is(err, core.ErrNoValidRegion) {
		t.Fatalf("Expected ErrNoValidRegion for pure noise, got %v", err)
	}

	var nvr *NoValidRegionError
	if !errors.As(err, &nvr) {
		t.Fatalf("Expected NoValidRegionError, got %T", err)
	}
	if len(nvr.Notes) == 0 {
		t.Error("Expected diagnostic notes explaining the failure")
	}
	for _, n := range nvr.Notes {
		if n.Branch != loop.BranchNeg && n.Branch != loop.BranchPos {
			t.Errorf("Note without branch id: %+v", n)
		}
	}
}

func TestAutodetectWindows_EmptyInput(t *testing.T) {
	_, err := AutodetectWindows(loop.XY{}, DefaultConfig())
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestAutodetectWindows_TooFewBranchPoints(t *testing.T) {
	// 10 points per branch is below the default n_min of 20.
	xy := loop.XY{}
	for i := 0; i < 21; i++ {
		h := -10 + float64(i)
		xy.H = append(xy.H, h)
		xy.M = append(xy.M, 0.05*h)
	}

	_, err := AutodetectWindows(xy, DefaultConfig())
	if !errors.Is(err, core.ErrNoValidRegion) {
		t.Fatalf("Expected ErrNoValidRegion, got %v", err)
	}
}

func TestAutodetectWindows_SmoothingDoesNotChangeReportedFit(t *testing.T) {
	// Clean linear data: the smoothed search must still report the fit from
	// the raw samples.
	xy := loop.XY{}
	for i := 0; i < 1001; i++ {
		h := -10 + 20*float64(i)/1000
		xy.H = append(xy.H, h)
		xy.M = append(xy.M, 0.03*h+0.7)
	}

	cfg := DefaultConfig()
	plain, err := AutodetectWindows(xy, cfg)
	if err != nil {
		t.Fatalf("AutodetectWindows failed: %v", err)
	}

	cfg.SmoothWindow = 7
	smoothed, err := AutodetectWindows(xy, cfg)
	if err != nil {
		t.Fatalf("AutodetectWindows with smoothing failed: %v", err)
	}

	if math.Abs(plain.ChiCombined-smoothed.ChiCombined) > 1e-12 {
		t.Errorf("Smoothing changed reported chi: %g vs %g", plain.ChiCombined, smoothed.ChiCombined)
	}
	if math.Abs(plain.ChiCombined-0.03) > 1e-9 {
		t.Errorf("Expected chi 0.03, got %g", plain.ChiCombined)
	}
}

func TestAutodetectWindows_CurvatureBoundRejectsParabola(t *testing.T) {
	// Strongly curved moment everywhere: with a tight curvature bound no
	// window position qualifies even though R² of a parabola segment is high.
	xy := loop.XY{}
	for i := 0; i < 501; i++ {
		h := -10 + 20*float64(i)/500
		xy.H = append(xy.H, h)
		xy.M = append(xy.M, h*h)
	}

	cfg := DefaultConfig()
	cfg.QAbsMax = 1e-6
	cfg.R2Min = 0 // isolate the curvature check
	_, err := AutodetectWindows(xy, cfg)
	if !errors.Is(err, core.ErrNoValidRegion) {
		t.Fatalf("Expected ErrNoValidRegion under curvature bound, got %v", err)
	}
}

func TestAutodetectWindows_SingleBranchStillCombines(t *testing.T) {
	// Linear positive branch, garbage negative branch: the combined chi is
	// the surviving branch's slope.
	rng := rand.New(rand.NewSource(3))
	xy := loop.XY{}
	for i := 0; i < 1001; i++ {
		h := -10 + 20*float64(i)/1000
		xy.H = append(xy.H, h)
		if h < 0 {
			xy.M = append(xy.M, rng.NormFloat64())
		} else {
			xy.M = append(xy.M, 0.04*h)
		}
	}

	res, err := AutodetectWindows(xy, DefaultConfig())
	if err != nil {
		t.Fatalf("AutodetectWindows failed: %v", err)
	}
	if res.Neg.Fit != nil {
		t.Error("Expected no fit on the noise branch")
	}
	if res.Pos.Fit == nil {
		t.Fatal("Expected a fit on the linear branch")
	}
	if math.Abs(res.ChiCombined-0.04) > 0.004 {
		t.Errorf("Expected combined chi ~0.04, got %g", res.ChiCombined)
	}
	if len(res.Notes) == 0 {
		t.Error("Expected a note for the failed branch")
	}
}
