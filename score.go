package jointcaster

import (
	"fmt"

	"github.com/mocaplab/go-jointcaster/metrics"
)

// Scores tracks forecast evaluation scores over a predicted/actual
// pair in original units.
type Scores struct {
	MSE    float64 `json:"mean_squared_error"`
	MAE    float64 `json:"mean_absolute_error"`
	TheilU float64 `json:"theil_u"`
	Corr   float64 `json:"correlation"`
}

// NewScores calculates the forecast scores for the given predicted and
// actual values.
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := metrics.MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := metrics.MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	theilU, err := metrics.TheilU(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute theil's u, %w", err)
	}
	corr, err := metrics.PearsonCorr(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute correlation, %w", err)
	}
	return &Scores{
		MSE:    mse,
		MAE:    mae,
		TheilU: theilU,
		Corr:   corr,
	}, nil
}
