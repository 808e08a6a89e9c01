// Package fit provides the least-squares primitives shared by the loop
// analysis routines: an ordinary line fit and a quadratic curvature probe.
package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"magfit/domain/core"
)

// LineFit is the output of an ordinary least-squares line fit.
type LineFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// Line fits y = slope*x + intercept by ordinary least squares.
// R² is defined as 1 - SSres/SStot and reported as 0 (not NaN) when the
// response is constant (SStot = 0).
func Line(x, y []float64) (LineFit, error) {
	if len(x) != len(y) {
		return LineFit{}, core.ErrIllConditionedFit
	}
	if len(x) < 2 {
		return LineFit{}, core.NewInsufficientDataError("line fit", len(x), 2)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		return LineFit{}, core.ErrIllConditionedFit
	}

	return LineFit{
		Slope:     slope,
		Intercept: intercept,
		R2:        RSquared(x, y, slope, intercept),
		N:         len(x),
	}, nil
}

// RSquared computes the coefficient of determination for a fitted line.
func RSquared(x, y []float64, slope, intercept float64) float64 {
	mean := stat.Mean(y, nil)
	ssRes, ssTot := 0.0, 0.0
	for i := range x {
		resid := y[i] - (slope*x[i] + intercept)
		ssRes += resid * resid
		dev := y[i] - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Curvature fits y = a*x² + b*x + c and returns the quadratic coefficient a.
// It is used only as a stability probe inside the tail detector, never for
// reported slopes.
func Curvature(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, core.ErrIllConditionedFit
	}
	if len(x) < 3 {
		return 0, core.NewInsufficientDataError("quadratic fit", len(x), 3)
	}

	design := mat.NewDense(len(x), 3, nil)
	for i, xi := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, xi)
		design.Set(i, 2, xi*xi)
	}
	rhs := mat.NewVecDense(len(y), append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(design)
	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, rhs); err != nil {
		return 0, core.ErrIllConditionedFit
	}
	a := coeffs.AtVec(2)
	if !isFinite(a) {
		return 0, core.ErrIllConditionedFit
	}
	return a, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
