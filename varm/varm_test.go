package varm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// simulateVAR1 draws from y(t) = A y(t-1) + noise with a fixed seed.
func simulateVAR1(n int, a [2][2]float64, noise float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	data := make([][]float64, n)
	data[0] = []float64{rng.NormFloat64(), rng.NormFloat64()}
	for t := 1; t < n; t++ {
		prev := data[t-1]
		data[t] = []float64{
			a[0][0]*prev[0] + a[0][1]*prev[1] + noise*rng.NormFloat64(),
			a[1][0]*prev[0] + a[1][1]*prev[1] + noise*rng.NormFloat64(),
		}
	}
	return data
}

func TestNewValidation(t *testing.T) {
	_, err := New(&Options{Lags: 0})
	assert.ErrorIs(t, err, ErrInvalidLags)

	m, err := New(nil)
	require.Nil(t, err)
	assert.Equal(t, 2, m.opt.Lags)
}

func TestFitValidation(t *testing.T) {
	testData := map[string]struct {
		data [][]float64
		err  error
	}{
		"no data":      {nil, ErrNoData},
		"zero width":   {[][]float64{{}}, ErrNoData},
		"jagged":       {[][]float64{{1, 2}, {1}}, ErrJaggedData},
		"insufficient": {[][]float64{{1, 2}}, ErrInsufficientData},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := New(&Options{Lags: 1, Regularization: 1e-6, Jitter: 1e-6})
			require.Nil(t, err)
			assert.ErrorIs(t, m.Fit(td.data), td.err)
		})
	}
}

func TestFitRecoversCoefficients(t *testing.T) {
	a := [2][2]float64{
		{0.5, 0.2},
		{-0.3, 0.7},
	}
	data := simulateVAR1(500, a, 0.1, 42)

	m, err := New(&Options{Lags: 1, Regularization: 1e-6, Jitter: 1e-6})
	require.Nil(t, err)
	require.Nil(t, m.Fit(data))

	params, err := m.Params()
	require.Nil(t, err)
	rows, cols := params.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)

	// intercepts near zero, lag block near the generating matrix
	assert.InDelta(t, 0.0, params.At(0, 0), 0.1)
	assert.InDelta(t, 0.0, params.At(0, 1), 0.1)
	assert.InDelta(t, 0.5, params.At(1, 0), 0.1)
	assert.InDelta(t, 0.2, params.At(2, 0), 0.1)
	assert.InDelta(t, -0.3, params.At(1, 1), 0.1)
	assert.InDelta(t, 0.7, params.At(2, 1), 0.1)
}

func TestFitShapes(t *testing.T) {
	data := simulateVAR1(80, [2][2]float64{{0.4, 0.1}, {0.1, 0.4}}, 0.2, 7)

	m, err := New(&Options{Lags: 3, Regularization: 1e-6, Jitter: 1e-6})
	require.Nil(t, err)
	require.Nil(t, m.Fit(data))
	assert.Equal(t, 2, m.NumVars())

	params, err := m.Params()
	require.Nil(t, err)
	rows, cols := params.Dims()
	assert.Equal(t, 1+3*2, rows)
	assert.Equal(t, 2, cols)

	pvals, err := m.PValues()
	require.Nil(t, err)
	rows, cols = pvals.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1+3*2, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.GreaterOrEqual(t, pvals.At(i, j), 0.0)
			assert.LessOrEqual(t, pvals.At(i, j), 1.0)
		}
	}

	res, err := m.Residuals()
	require.Nil(t, err)
	assert.Len(t, res, 80-3)
	assert.Len(t, res[0], 2)

	r2, err := m.RSquared()
	require.Nil(t, err)
	require.Len(t, r2, 2)
	for _, v := range r2 {
		assert.LessOrEqual(t, v, 1.0)
		assert.False(t, math.IsNaN(v))
	}
}

func TestFitJittersConstantColumn(t *testing.T) {
	data := make([][]float64, 30)
	for i := range data {
		data[i] = []float64{math.Sin(float64(i) / 3.0), 5.0}
	}

	core, logs := observer.New(zapcore.WarnLevel)
	m, err := New(&Options{
		Lags:           1,
		Regularization: 1e-6,
		Jitter:         1e-6,
		Rand:           rand.New(rand.NewPCG(1, 0)),
		Logger:         zap.New(core),
	})
	require.Nil(t, err)
	require.Nil(t, m.Fit(data))

	assert.Equal(t, 1, logs.FilterMessage("injecting jitter into constant input column").Len())

	// jitter is applied to a working copy only
	for i := range data {
		assert.Equal(t, 5.0, data[i][1])
	}
}

func TestFitDeterminism(t *testing.T) {
	data := make([][]float64, 40)
	for i := range data {
		data[i] = []float64{float64(i % 3), 2.0}
	}

	fit := func() *Model {
		m, err := New(&Options{
			Lags:           2,
			Regularization: 1e-6,
			Jitter:         1e-6,
			Rand:           rand.New(rand.NewPCG(9, 0)),
		})
		require.Nil(t, err)
		require.Nil(t, m.Fit(data))
		return m
	}

	p1, err := fit().Params()
	require.Nil(t, err)
	p2, err := fit().Params()
	require.Nil(t, err)

	rows, cols := p1.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, p1.At(i, j), p2.At(i, j))
		}
	}
}

func TestPredict(t *testing.T) {
	data := simulateVAR1(200, [2][2]float64{{0.6, 0.1}, {-0.2, 0.5}}, 0.1, 3)

	m, err := New(&Options{Lags: 1, Regularization: 1e-6, Jitter: 1e-6})
	require.Nil(t, err)
	require.Nil(t, m.Fit(data))

	out, err := m.Predict(data, 3)
	require.Nil(t, err)
	require.Len(t, out, 3)
	require.Len(t, out[0], 2)

	// first step from the last observed row, second step from the
	// first prediction fed back into the window
	params, err := m.Params()
	require.Nil(t, err)
	step := func(prev []float64) []float64 {
		next := make([]float64, 2)
		for j := 0; j < 2; j++ {
			next[j] = params.At(0, j) + params.At(1, j)*prev[0] + params.At(2, j)*prev[1]
		}
		return next
	}

	want := step(data[len(data)-1])
	assert.InDeltaSlice(t, want, out[0], 1e-9)
	assert.InDeltaSlice(t, step(want), out[1], 1e-9)
}

func TestPredictValidation(t *testing.T) {
	data := simulateVAR1(50, [2][2]float64{{0.4, 0.0}, {0.0, 0.4}}, 0.1, 5)

	m, err := New(&Options{Lags: 2, Regularization: 1e-6, Jitter: 1e-6})
	require.Nil(t, err)

	_, err = m.Predict(data, 1)
	assert.ErrorIs(t, err, ErrNotFitted)

	require.Nil(t, m.Fit(data))

	_, err = m.Predict(data, 0)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, err = m.Predict([][]float64{{1, 2, 3}, {4, 5, 6}}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = m.Predict(data[:1], 1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = m.Predict([][]float64{{1, 2}, {3}}, 1)
	assert.ErrorIs(t, err, ErrJaggedData)
}

func TestNotFittedAccessors(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	_, err = m.Params()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.PValues()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.Residuals()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.RSquared()
	assert.ErrorIs(t, err, ErrNotFitted)
}
