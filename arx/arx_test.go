package arx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLaggedDesign(t *testing.T) {
	endog := []float64{10, 20, 30, 40, 50}

	// first training row's lag features are t-1 then t-2
	x, y := laggedDesign(endog, nil, 0, 2)
	require.Len(t, y, 3)
	assert.Equal(t, []float64{20, 10}, x[:2])
	assert.Equal(t, 30.0, y[0])
	assert.Equal(t, []float64{40, 30}, x[4:6])
	assert.Equal(t, []float64{30, 40, 50}, y)

	// exogenous values lead the row, taken at time t
	exog := [][]float64{{1}, {2}, {3}, {4}, {5}}
	x, y = laggedDesign(endog, exog, 1, 2)
	require.Len(t, y, 3)
	assert.Equal(t, []float64{3, 20, 10}, x[:3])
	assert.Equal(t, 30.0, y[0])
}

func TestNewValidation(t *testing.T) {
	endog := []float64{1, 2, 3, 4}

	testData := map[string]struct {
		endog []float64
		exog  [][]float64
		opt   *Options
		err   error
	}{
		"no endog":     {nil, nil, nil, ErrNoEndog},
		"bad order":    {endog, nil, &Options{Order: 0}, ErrInvalidOrder},
		"exog length":  {endog, [][]float64{{1}}, nil, ErrExogLenMismatch},
		"jagged exog":  {endog, [][]float64{{1}, {1, 2}, {1}, {1}}, nil, ErrJaggedExog},
		"valid no opt": {endog, nil, nil, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := New(td.endog, td.exog, td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestFitInsufficientData(t *testing.T) {
	m, err := New([]float64{1, 2}, nil, &Options{Order: 2, Regularization: 1e-6})
	require.Nil(t, err)
	_, err = m.Fit()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFitCoefficientShape(t *testing.T) {
	n := 40
	endog := make([]float64, n)
	exog := make([][]float64, n)
	for i := 0; i < n; i++ {
		endog[i] = math.Sin(float64(i) / 3.0)
		exog[i] = []float64{math.Cos(float64(i) / 5.0), float64(i % 4)}
	}

	m, err := New(endog, exog, &Options{Order: 3, Regularization: 1e-6})
	require.Nil(t, err)
	res, err := m.Fit()
	require.Nil(t, err)

	// numExogCols + order
	assert.Len(t, res.Coefficients, 5)
	assert.Len(t, res.StdErrors, 5)
	assert.Len(t, res.TStats, 5)
	assert.Len(t, res.PValues, 5)
	assert.Len(t, res.Residuals, n-3)
	assert.Len(t, res.Fitted, n-3)
	assert.Equal(t, n-3, res.NumObs)
}

func TestFitLinearTrend(t *testing.T) {
	endog := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	exog := make([][]float64, len(endog))
	for i := range exog {
		exog[i] = []float64{0}
	}

	m, err := New(endog, exog, &Options{Order: 2, Regularization: 1e-6})
	require.Nil(t, err)
	res, err := m.Fit()
	require.Nil(t, err)

	// the constant-zero exogenous channel contributes nothing
	assert.InDelta(t, 0.0, res.Coefficients[0], 1e-6)

	// y(t) = 2y(t-1) - y(t-2) reproduces the trend exactly; the
	// stability correction pulls the lag sum just under 1
	lagSum := res.Coefficients[1] + res.Coefficients[2]
	assert.InDelta(t, 1.0, lagSum, 0.01)
	assert.LessOrEqual(t, math.Abs(lagSum), 0.999)
	assert.Greater(t, res.RSquared, 0.99)
}

func TestFitStabilityCorrection(t *testing.T) {
	// doubling sequence sits far beyond the unit root
	n := 12
	endog := make([]float64, n)
	for i := 0; i < n; i++ {
		endog[i] = math.Pow(2.0, float64(i))
	}

	core, logs := observer.New(zapcore.WarnLevel)
	m, err := New(endog, nil, &Options{Order: 2, Regularization: 1e-6, Logger: zap.New(core)})
	require.Nil(t, err)
	res, err := m.Fit()
	require.Nil(t, err)

	lagSum := res.Coefficients[0] + res.Coefficients[1]
	assert.LessOrEqual(t, math.Abs(lagSum), 0.999)
	assert.Equal(t, 1, logs.FilterMessage("applying stability correction to lag coefficients").Len())
}

func TestFitNoCorrectionWhenStable(t *testing.T) {
	// decaying AR(1)-like sequence keeps the lag sum well under 1
	n := 30
	endog := make([]float64, n)
	endog[0] = 10.0
	for i := 1; i < n; i++ {
		endog[i] = 0.5 * endog[i-1]
	}

	core, logs := observer.New(zapcore.WarnLevel)
	m, err := New(endog, nil, &Options{Order: 2, Regularization: 1e-6, Logger: zap.New(core)})
	require.Nil(t, err)
	_, err = m.Fit()
	require.Nil(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestFitDeterminism(t *testing.T) {
	n := 50
	endog := make([]float64, n)
	exog := make([][]float64, n)
	for i := 0; i < n; i++ {
		endog[i] = math.Sin(float64(i)/4.0) + 0.1*float64(i%7)
		exog[i] = []float64{math.Cos(float64(i) / 6.0)}
	}

	fit := func() []float64 {
		m, err := New(endog, exog, &Options{Order: 2, Regularization: 1e-6})
		require.Nil(t, err)
		res, err := m.Fit()
		require.Nil(t, err)
		return res.Coefficients
	}

	assert.Equal(t, fit(), fit())
}

func TestFitCollinearExog(t *testing.T) {
	// duplicated exogenous column is perfectly collinear; the ridge
	// term must keep the solve alive with bounded coefficients
	n := 60
	endog := make([]float64, n)
	exog := make([][]float64, n)
	for i := 0; i < n; i++ {
		v := math.Sin(float64(i) / 3.0)
		endog[i] = v + 0.2*math.Cos(float64(i)/7.0)
		exog[i] = []float64{v, v}
	}

	m, err := New(endog, exog, &Options{Order: 2, Regularization: 1e-6})
	require.Nil(t, err)
	res, err := m.Fit()
	require.Nil(t, err)

	for _, c := range res.Coefficients {
		assert.False(t, math.IsNaN(c))
		assert.Less(t, math.Abs(c), 1e6)
	}
}

func TestForecast(t *testing.T) {
	m, err := NewFromParams([]float64{1.5, 0.5, 0.25}, 1, 2, nil)
	require.Nil(t, err)

	pred, err := m.Forecast([]float64{2.0}, []float64{4.0, 8.0})
	require.Nil(t, err)
	// 1.5*2 + 0.5*4 + 0.25*8
	assert.InDelta(t, 7.0, pred, 1e-12)

	_, err = m.Forecast([]float64{2.0, 3.0}, []float64{4.0, 8.0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = m.Forecast([]float64{2.0}, []float64{4.0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNotFitted(t *testing.T) {
	m, err := New([]float64{1, 2, 3, 4, 5}, nil, nil)
	require.Nil(t, err)

	_, err = m.Forecast(nil, []float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = m.Result()
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = m.Summary()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestNewFromParams(t *testing.T) {
	_, err := NewFromParams([]float64{1, 2}, 1, 2, nil)
	assert.ErrorIs(t, err, ErrCoefLenMismatch)

	_, err = NewFromParams([]float64{1}, 1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	m, err := NewFromParams([]float64{1, 2, 3}, 1, 2, nil)
	require.Nil(t, err)
	assert.Equal(t, 2, m.Order())
	assert.Equal(t, 1, m.NumExog())
}

func TestSummary(t *testing.T) {
	n := 50
	endog := make([]float64, n)
	exog := make([][]float64, n)
	for i := 0; i < n; i++ {
		endog[i] = math.Sin(float64(i) / 4.0)
		exog[i] = []float64{float64(i % 5)}
	}

	m, err := New(endog, exog, &Options{Order: 2, Regularization: 1e-6})
	require.Nil(t, err)
	_, err = m.Fit()
	require.Nil(t, err)

	s, err := m.Summary()
	require.Nil(t, err)
	assert.Equal(t, 2, s.Order)
	assert.Equal(t, 1, s.NumExog)
	assert.Equal(t, n-2, s.NumObs)
	assert.Len(t, s.Coefficients, 3)
	assert.False(t, math.IsNaN(s.AIC))
	assert.False(t, math.IsNaN(s.BIC))
	assert.False(t, math.IsNaN(s.RSquared))
	for _, p := range s.PValues {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}
