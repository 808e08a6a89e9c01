package loop

import (
	"errors"
	"math"
	"testing"

	"magfit/domain/core"
)

func sampleDataset() *Dataset {
	return NewDataset("sample", []string{"H", "M"}, map[string][]float64{
		"H": {1, 2, 3},
		"M": {10, math.NaN(), 30},
	})
}

func TestSelectXY_AlignsAndCleans(t *testing.T) {
	ds := sampleDataset()

	xy, err := ds.SelectXY("H", "M")
	if err != nil {
		t.Fatalf("SelectXY failed: %v", err)
	}
	if xy.Len() != 2 {
		t.Fatalf("Expected 2 aligned rows, got %d", xy.Len())
	}
	if xy.H[1] != 3 || xy.M[1] != 30 {
		t.Errorf("Row alignment broken: %v / %v", xy.H, xy.M)
	}
}

func TestSelectXY_MissingColumn(t *testing.T) {
	_, err := sampleDataset().SelectXY("H", "moment")
	if !errors.Is(err, core.ErrColumnNotFound) {
		t.Fatalf("Expected ErrColumnNotFound, got %v", err)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	ds := sampleDataset()
	ds.Meta["source"] = "vsm"

	clone := ds.Clone("copy")
	clone.Columns["H"][0] = 99
	clone.Meta["extra"] = true

	if ds.Columns["H"][0] != 1 {
		t.Error("Clone shares column storage with the source")
	}
	if _, ok := ds.Meta["extra"]; ok {
		t.Error("Clone shares metadata with the source")
	}
	if clone.Label != "copy" {
		t.Errorf("Expected relabeled clone, got %q", clone.Label)
	}
}

func TestWithColumn_AppendsOnce(t *testing.T) {
	ds := sampleDataset()
	values := []float64{7, 8, 9}

	out := ds.WithColumn("M_corr", values)
	if !out.HasColumn("M_corr") {
		t.Fatal("Expected the new column on the result")
	}
	if ds.HasColumn("M_corr") {
		t.Error("Source dataset gained the new column")
	}
	if len(out.Fields) != 3 || out.Fields[2] != "M_corr" {
		t.Errorf("Expected M_corr appended to fields, got %v", out.Fields)
	}

	// Replacing an existing column must not duplicate its field entry.
	again := out.WithColumn("M_corr", []float64{1, 2, 3})
	if len(again.Fields) != 3 {
		t.Errorf("Field list grew on replacement: %v", again.Fields)
	}

	values[0] = 1000
	if out.Columns["M_corr"][0] != 7 {
		t.Error("Result shares storage with the caller's slice")
	}
}
