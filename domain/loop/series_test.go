package loop

import (
	"math"
	"testing"
)

func TestCoerceStrings(t *testing.T) {
	got := CoerceStrings([]string{"1.5", " 2 ", "abc", "", "-3e2"})
	if got[0] != 1.5 || got[1] != 2 || got[4] != -300 {
		t.Errorf("Unexpected parsed values: %v", got)
	}
	if !math.IsNaN(got[2]) || !math.IsNaN(got[3]) {
		t.Errorf("Expected NaN for unparseable cells, got %v", got)
	}
}

func TestCleanPair_DropsRowsFromBothSides(t *testing.T) {
	h := []float64{1, 2, 3, 4, 5}
	m := []float64{10, math.NaN(), 30, math.Inf(1), 50}

	xy := CleanPair(h, m)
	if xy.Len() != 3 {
		t.Fatalf("Expected 3 surviving rows, got %d", xy.Len())
	}
	for i, want := range []float64{1, 3, 5} {
		if xy.H[i] != want {
			t.Errorf("Row %d: expected H=%g, got %g", i, want, xy.H[i])
		}
	}
	for i, want := range []float64{10, 30, 50} {
		if xy.M[i] != want {
			t.Errorf("Row %d: expected M=%g, got %g", i, want, xy.M[i])
		}
	}
}

func TestCleanPair_UnequalLengths(t *testing.T) {
	xy := CleanPair([]float64{1, 2, 3}, []float64{10, 20})
	if xy.Len() != 2 {
		t.Fatalf("Expected truncation to the shorter column, got %d rows", xy.Len())
	}
}

func TestClean(t *testing.T) {
	got := Clean([]float64{1, math.NaN(), 2, math.Inf(-1), 3})
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Unexpected cleaned values: %v", got)
	}
}

func TestMaxAbsHAndHRange(t *testing.T) {
	xy := XY{H: []float64{-7, 2, 5}, M: []float64{0, 0, 0}}
	if xy.MaxAbsH() != 7 {
		t.Errorf("Expected max |H| 7, got %g", xy.MaxAbsH())
	}
	lo, hi := xy.HRange()
	if lo != -7 || hi != 5 {
		t.Errorf("Expected range [-7, 5], got [%g, %g]", lo, hi)
	}

	empty := XY{}
	if empty.MaxAbsH() != 0 {
		t.Errorf("Expected 0 for empty data, got %g", empty.MaxAbsH())
	}
}
