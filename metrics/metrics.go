// Package metrics provides forecast evaluation scores over paired
// predicted/actual sequences.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/mocaplab/go-jointcaster/stats"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("predicted and actual have different lengths")

func checkLengths(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLengthMismatch)
	}
	return nil
}

// MSE computes the mean squared error. NaN pairs are skipped.
func MSE(predicted, actual []float64) (float64, error) {
	if err := checkLengths(predicted, actual); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAE computes the mean absolute error. NaN pairs are skipped.
func MAE(predicted, actual []float64) (float64, error) {
	if err := checkLengths(predicted, actual); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}

	mae := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mae += math.Abs(actual[i] - predicted[i])
	}
	mae /= float64(len(actual))
	return mae, nil
}

// TheilU computes Theil's U statistic, the root mean squared error
// normalized by the scale of both series. 0 means a perfect forecast.
func TheilU(predicted, actual []float64) (float64, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return 0, err
	}

	denom := math.Sqrt(stats.MeanSquare(predicted)) + math.Sqrt(stats.MeanSquare(actual))
	if denom == 0.0 {
		return 0, nil
	}
	return math.Sqrt(mse) / denom, nil
}

// PearsonCorr computes the Pearson correlation between the two series.
// Returns 0 rather than NaN when either series has zero variance.
func PearsonCorr(predicted, actual []float64) (float64, error) {
	if err := checkLengths(predicted, actual); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}

	r := stat.Correlation(predicted, actual, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, nil
	}
	return r, nil
}
