// Package stats provides small statistical helpers shared by the
// regression cores.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// normal approximation kicks in above this many degrees of freedom
const normalApproxDF = 30

var stdNormal = distuv.Normal{Mu: 0.0, Sigma: 1.0}

// MeanStd computes the population mean and standard deviation of xs,
// dividing by N rather than N-1. Returns (0, 0) for an empty slice.
func MeanStd(xs []float64) (float64, float64) {
	n := len(xs)
	if n == 0 {
		return 0.0, 0.0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n))
}

// MeanSquare computes the mean of the squared values of xs. Returns 0
// for an empty slice.
func MeanSquare(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0.0
	}
	ms := 0.0
	for _, x := range xs {
		ms += x * x
	}
	return ms / float64(n)
}

// PValue computes an approximate two-sided p-value for a t-statistic.
// With more than 30 degrees of freedom this uses the standard normal
// CDF, 2*(1-phi(|t|)). Below that it falls back to a coarse threshold
// table keyed on |t|. This is not an exact Student-t computation;
// callers needing rigorous small-sample p-values should substitute an
// exact CDF.
func PValue(t float64, df int) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 1.0
	}
	at := math.Abs(t)
	if df > normalApproxDF {
		return 2.0 * (1.0 - stdNormal.CDF(at))
	}

	switch {
	case at > 4.0:
		return 0.001
	case at > 3.0:
		return 0.01
	case at > 2.5:
		return 0.02
	case at > 2.0:
		return 0.05
	case at > 1.5:
		return 0.1
	default:
		return 0.2
	}
}
