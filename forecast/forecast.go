// Package forecast runs a trained AR-X model over a normalized test
// matrix and returns predicted/actual pairs in original units.
//
// Static forecasting predicts one step ahead from true observed lag
// values only, measuring pure one-step fit. Dynamic forecasting feeds
// its own predictions back in as lag inputs, so errors compound over
// the horizon. Both expect a test matrix normalized by the same scaler
// that was fit on the training data; that column-layout agreement is a
// caller contract with no runtime check.
package forecast

import (
	"errors"
	"fmt"

	"github.com/mocaplab/go-jointcaster/arx"
	"github.com/mocaplab/go-jointcaster/scaler"
)

var (
	ErrNoModel     = errors.New("no trained model")
	ErrNoScaler    = errors.New("no fitted scaler")
	ErrJaggedData  = errors.New("test rows have inconsistent lengths")
	ErrColOutRange = errors.New("column index out of test matrix range")
)

// the first two dynamic outputs are excluded from evaluation per the
// established comparison convention for seeded rollouts
const dynamicWarmup = 2

// Columns addresses the target and exogenous columns within the
// normalized test matrix.
type Columns struct {
	Target int
	Exog   []int
}

// Result pairs predicted and actual target values index for index, in
// original (denormalized) units.
type Result struct {
	Predicted []float64 `json:"predicted"`
	Actual    []float64 `json:"actual"`
}

func split(test [][]float64, cols Columns) ([]float64, [][]float64, error) {
	width := -1
	for i, row := range test {
		if width >= 0 && len(row) != width {
			return nil, nil, fmt.Errorf("row %d has %d values, expected %d, %w", i, len(row), width, ErrJaggedData)
		}
		width = len(row)
	}
	if len(test) > 0 {
		if cols.Target < 0 || cols.Target >= width {
			return nil, nil, fmt.Errorf("target column %d with %d columns, %w", cols.Target, width, ErrColOutRange)
		}
		for _, c := range cols.Exog {
			if c < 0 || c >= width {
				return nil, nil, fmt.Errorf("exogenous column %d with %d columns, %w", c, width, ErrColOutRange)
			}
		}
	}

	endog := make([]float64, len(test))
	exog := make([][]float64, len(test))
	for i, row := range test {
		endog[i] = row[cols.Target]
		ex := make([]float64, len(cols.Exog))
		for j, c := range cols.Exog {
			ex[j] = row[c]
		}
		exog[i] = ex
	}
	return endog, exog, nil
}

func denormalize(sc scaler.Scaler, col int, predicted, actual []float64) (*Result, error) {
	pred, err := sc.InverseTransformColumn(col, predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to denormalize predicted values, %w", err)
	}
	act, err := sc.InverseTransformColumn(col, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to denormalize actual values, %w", err)
	}
	return &Result{Predicted: pred, Actual: act}, nil
}

// Static predicts every test index from the true observed lag values
// and true current exogenous values. A test series no longer than the
// model order yields an empty result.
func Static(model *arx.Model, test [][]float64, sc scaler.Scaler, cols Columns) (*Result, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if sc == nil {
		return nil, ErrNoScaler
	}
	endog, exog, err := split(test, cols)
	if err != nil {
		return nil, err
	}

	predicted, actual, err := staticRaw(model, endog, exog)
	if err != nil {
		return nil, err
	}
	return denormalize(sc, cols.Target, predicted, actual)
}

func staticRaw(model *arx.Model, endog []float64, exog [][]float64) ([]float64, []float64, error) {
	order := model.Order()
	predicted := []float64{}
	actual := []float64{}
	for t := order; t < len(endog); t++ {
		lags := make([]float64, order)
		for lag := 1; lag <= order; lag++ {
			lags[lag-1] = endog[t-lag]
		}
		pred, err := model.Forecast(exog[t], lags)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to predict index %d, %w", t, err)
		}
		predicted = append(predicted, pred)
		actual = append(actual, endog[t])
	}
	return predicted, actual, nil
}

// Dynamic seeds the lag window with the first `order` true values and
// predicts every later index from previously predicted values, with
// ground-truth exogenous inputs at each step. The first two outputs
// are dropped before returning. A test series no longer than the model
// order yields an empty result.
func Dynamic(model *arx.Model, test [][]float64, sc scaler.Scaler, cols Columns) (*Result, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if sc == nil {
		return nil, ErrNoScaler
	}
	endog, exog, err := split(test, cols)
	if err != nil {
		return nil, err
	}

	predicted, actual, err := dynamicRaw(model, endog, exog)
	if err != nil {
		return nil, err
	}
	if len(predicted) <= dynamicWarmup {
		return &Result{Predicted: []float64{}, Actual: []float64{}}, nil
	}
	return denormalize(sc, cols.Target, predicted[dynamicWarmup:], actual[dynamicWarmup:])
}

func dynamicRaw(model *arx.Model, endog []float64, exog [][]float64) ([]float64, []float64, error) {
	order := model.Order()
	predicted := []float64{}
	actual := []float64{}
	if len(endog) <= order {
		return predicted, actual, nil
	}

	// fixed-size ring of the last `order` values, most recent at head
	window := newLagWindow(endog[:order])
	for t := order; t < len(endog); t++ {
		pred, err := model.Forecast(exog[t], window.lags())
		if err != nil {
			return nil, nil, fmt.Errorf("unable to predict index %d, %w", t, err)
		}
		predicted = append(predicted, pred)
		actual = append(actual, endog[t])
		window.push(pred)
	}
	return predicted, actual, nil
}

// lagWindow is a fixed-length ring buffer over the most recent target
// values.
type lagWindow struct {
	buf  []float64
	head int // index of the most recent value
}

// newLagWindow seeds the window with the chronological values seed[0]
// (oldest) through seed[len-1] (newest).
func newLagWindow(seed []float64) *lagWindow {
	buf := make([]float64, len(seed))
	copy(buf, seed)
	return &lagWindow{buf: buf, head: len(seed) - 1}
}

func (w *lagWindow) push(v float64) {
	w.head = (w.head + 1) % len(w.buf)
	w.buf[w.head] = v
}

// lags returns the window contents most recent first (t-1, t-2, ...).
func (w *lagWindow) lags() []float64 {
	n := len(w.buf)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = w.buf[(w.head-i+n)%n]
	}
	return out
}
