// Package app orchestrates loop analysis over one or many datasets. Every
// metric runs independently: a failing metric becomes a note on the report
// and never aborts the dataset or the batch.
package app

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"magfit/analysis/anisotropy"
	"magfit/analysis/metrics"
	"magfit/analysis/paramag"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// AnalysisOptions selects columns and tunes the individual extractors.
type AnalysisOptions struct {
	XName string `json:"x_name"`
	YName string `json:"y_name"`

	Detect paramag.Config    `json:"detect"`
	Ms     metrics.MsOptions `json:"ms"`

	HcWindow     *loop.Window `json:"hc_window,omitempty"`
	RemanenceH0  float64      `json:"remanence_h0"`
	RemanencePts int          `json:"remanence_pts"`

	KuWindow   *loop.Window `json:"ku_window,omitempty"`
	ApplyDemag bool         `json:"apply_demag"`

	// Subtract attaches a background-corrected dataset to the report when
	// tail detection succeeds.
	Subtract bool `json:"subtract"`
}

// DefaultAnalysisOptions returns options with the canonical defaults and
// the conventional VSM column names.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		XName:        "H",
		YName:        "M",
		Detect:       paramag.DefaultConfig(),
		RemanencePts: 4,
	}
}

// AnalysisService runs the extractors over datasets.
type AnalysisService struct {
	maxParallel int
}

// NewAnalysisService creates an analysis service with bounded batch
// parallelism.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{maxParallel: runtime.NumCPU()}
}

// AnalyzeDataset extracts every metric from one dataset. Failures are
// recorded as notes; the returned report is always usable.
func (s *AnalysisService) AnalyzeDataset(ctx context.Context, ds *loop.Dataset, opts AnalysisOptions) DatasetReport {
	report := DatasetReport{ID: core.DatasetID(core.NewID()), Label: ds.Label}

	xy, err := ds.SelectXY(opts.XName, opts.YName)
	if err != nil {
		report.addNote("select columns: %v", err)
		return report
	}
	if xy.Len() == 0 {
		report.addNote("no valid data in columns %s/%s", opts.XName, opts.YName)
		return report
	}

	det, err := paramag.AutodetectWindows(xy, opts.Detect)
	if err != nil {
		report.addNote("susceptibility: %v", err)
	} else {
		report.Chi = &det.ChiCombined
		report.Detection = det
	}

	if ms, detail, err := metrics.SaturationMagnetization(xy, opts.Ms); err != nil {
		report.addNote("saturation magnetization: %v", err)
	} else {
		report.Ms = &ms
		report.MsDetail = &detail
	}

	if hc, detail, err := metrics.Coercivity(xy, opts.HcWindow); err != nil {
		report.addNote("coercivity: %v", err)
	} else {
		report.Hc = &hc
		report.HcDetail = &detail
	}

	if mr, detail, err := metrics.Remanence(xy, opts.RemanenceH0, opts.RemanencePts); err != nil {
		report.addNote("remanence: %v", err)
	} else {
		report.Mr = &mr
		report.MrDetail = &detail
	}

	if ku, detail, err := anisotropy.SucksmithThompson(xy, opts.KuWindow, opts.ApplyDemag); err != nil {
		report.addNote("anisotropy: %v", err)
	} else {
		report.Ku = &ku
		report.KuDetail = &detail
	}

	if opts.Subtract && report.Detection != nil {
		corrected, err := paramag.ApplyBranchSubtraction(ds, opts.XName, opts.YName, report.Detection)
		if err != nil {
			report.addNote("subtraction: %v", err)
		} else {
			report.Corrected = corrected
		}
	}

	return report
}

// AnalyzeBatch analyzes datasets with bounded fan-out. Dataset order is
// preserved and per-dataset failures stay isolated in their own reports.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, datasets []*loop.Dataset, opts AnalysisOptions) (*Report, error) {
	report := &Report{
		ID:        core.ReportID(core.NewID()),
		CreatedAt: core.Now(),
		Datasets:  make([]DatasetReport, len(datasets)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, ds := range datasets {
		i, ds := i, ds
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Datasets[i] = s.AnalyzeDataset(ctx, ds, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch analysis: %w", err)
	}
	return report, nil
}
