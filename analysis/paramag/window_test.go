package paramag

import (
	"errors"
	"math"
	"strings"
	"testing"

	"magfit/domain/core"
	"magfit/domain/loop"
)

func linearXY(n int, slope, intercept float64) loop.XY {
	xy := loop.XY{H: make([]float64, n), M: make([]float64, n)}
	for i := 0; i < n; i++ {
		h := -10 + 20*float64(i)/float64(n-1)
		xy.H[i] = h
		xy.M[i] = slope*h + intercept
	}
	return xy
}

func TestFitLinearTail_DefaultWindow(t *testing.T) {
	xy := linearXY(101, 0.05, 0.3)

	res, err := FitLinearTail(xy, nil, nil)
	if err != nil {
		t.Fatalf("FitLinearTail failed: %v", err)
	}
	if math.Abs(res.Chi-0.05) > 1e-9 {
		t.Errorf("Expected chi 0.05, got %g", res.Chi)
	}
	if math.Abs(res.Intercept-0.3) > 1e-9 {
		t.Errorf("Expected intercept 0.3, got %g", res.Intercept)
	}
	if res.R2 < 1-1e-12 {
		t.Errorf("Expected R²~1, got %g", res.R2)
	}
	// Default window keeps only the top 20% of samples by |H|.
	if res.N >= xy.Len()/2 {
		t.Errorf("Default window too wide: %d of %d points", res.N, xy.Len())
	}
	for _, h := range res.XFit {
		if math.Abs(h) < 7 {
			t.Errorf("Default window includes low-field point %g", h)
		}
	}
	if len(res.YFit) != res.N {
		t.Errorf("Fitted overlay length %d does not match n=%d", len(res.YFit), res.N)
	}
}

func TestFitLinearTail_ExplicitWindow(t *testing.T) {
	xy := linearXY(101, 0.05, 0.3)
	hmin, hmax := 2.0, 6.0

	res, err := FitLinearTail(xy, &hmin, &hmax)
	if err != nil {
		t.Fatalf("FitLinearTail failed: %v", err)
	}
	if res.Window.HMin < hmin || res.Window.HMax > hmax {
		t.Errorf("Window [%g, %g] escapes requested [%g, %g]",
			res.Window.HMin, res.Window.HMax, hmin, hmax)
	}
}

func TestFitLinearTail_SinglePointWindow(t *testing.T) {
	xy := linearXY(101, 0.05, 0.3)
	// [9.95, 10.05] contains exactly the outermost sample.
	hmin, hmax := 9.95, 10.05

	_, err := FitLinearTail(xy, &hmin, &hmax)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData for 1-point window, got %v", err)
	}
}

// chainXY is linear only beyond |H| > 8.8; inside, the moment oscillates.
func chainXY() loop.XY {
	xy := loop.XY{}
	for i := 0; i < 101; i++ {
		h := -10 + 20*float64(i)/100
		xy.H = append(xy.H, h)
		if math.Abs(h) > 8.8 {
			xy.M = append(xy.M, 0.05*h)
		} else {
			xy.M = append(xy.M, 5*math.Sin(3*h))
		}
	}
	return xy
}

func TestDetectLinearTail_FallbackChain(t *testing.T) {
	cand := TailCandidates{Quantiles: []float64{0.8, 0.9}, MinPoints: 5, MinR2: 0.9}

	res, err := DetectLinearTail(chainXY(), cand)
	if err != nil {
		t.Fatalf("DetectLinearTail failed: %v", err)
	}
	if math.Abs(res.Chi-0.05) > 1e-9 {
		t.Errorf("Expected chi 0.05 from the second candidate, got %g", res.Chi)
	}
}

func TestDetectLinearTail_AllCandidatesFail(t *testing.T) {
	cand := TailCandidates{Quantiles: []float64{0.5, 0.6}, MinPoints: 5, MinR2: 0.9}

	_, err := DetectLinearTail(chainXY(), cand)
	if !errors.Is(err, core.ErrNoValidRegion) {
		t.Fatalf("Expected ErrNoValidRegion, got %v", err)
	}
	// Both candidate failures are aggregated into the message.
	msg := err.Error()
	if !strings.Contains(msg, "q=0.50") || !strings.Contains(msg, "q=0.60") {
		t.Errorf("Expected aggregated candidate failures, got %q", msg)
	}
}
