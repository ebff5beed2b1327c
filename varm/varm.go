// Package varm fits a vector autoregression jointly over every
// channel: each variable is predicted from the lagged values of all
// variables, sharing one design matrix across equations.
package varm

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/mocaplab/go-jointcaster/stats"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoData            = errors.New("no input data")
	ErrJaggedData        = errors.New("input rows have inconsistent lengths")
	ErrInvalidLags       = errors.New("lag count must be positive")
	ErrInsufficientData  = errors.New("not enough rows for the lag count")
	ErrSingularMatrix    = errors.New("design matrix is singular even with regularization")
	ErrDimensionMismatch = errors.New("input column count does not match trained variables")
	ErrInvalidSteps      = errors.New("forecast steps must be positive")
	ErrNotFitted         = errors.New("model has not been fit")
)

// Options configures a vector autoregression fit.
type Options struct {
	// Lags is the number of full lag blocks in the design matrix.
	Lags int
	// Regularization is added to the diagonal of X'X before inversion.
	Regularization float64
	// Jitter is the amplitude of the random perturbation injected into
	// constant input columns to avoid a singular design. A pragmatic
	// workaround, not a statistically principled imputation.
	Jitter float64
	// Rand drives the jitter injection. Seed it for deterministic fits.
	Rand *rand.Rand
	// Logger receives diagnostic events. Defaults to a nop logger.
	Logger *zap.Logger
}

// NewDefaultOptions returns the default vector autoregression options.
func NewDefaultOptions() *Options {
	return &Options{
		Lags:           2,
		Regularization: 1e-6,
		Jitter:         1e-6,
		Logger:         zap.NewNop(),
	}
}

// Model is a fitted vector autoregression. Every equation consumes the
// same lagged-predictor row: a constant followed by all variables at
// t-1 through t-lags.
type Model struct {
	opt *Options

	numVars   int
	params    *mat.Dense // features x numVars
	pvalues   *mat.Dense // numVars x features
	residuals [][]float64
	rsquared  []float64
	trained   bool
}

// New creates an unfitted model. Nil options select defaults.
func New(opt *Options) (*Model, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Lags < 1 {
		return nil, fmt.Errorf("got %d lags, %w", opt.Lags, ErrInvalidLags)
	}
	if opt.Rand == nil {
		opt.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Model{opt: opt}, nil
}

func validate(data [][]float64) (int, error) {
	if len(data) == 0 {
		return 0, ErrNoData
	}
	cols := len(data[0])
	if cols == 0 {
		return 0, ErrNoData
	}
	for i, row := range data {
		if len(row) != cols {
			return 0, fmt.Errorf("row %d has %d values, expected %d, %w", i, len(row), cols, ErrJaggedData)
		}
	}
	return cols, nil
}

// Fit estimates one ordinary-least-squares equation per variable over
// the shared lagged design matrix. Constant input columns are jittered
// before fitting to keep the normal equations invertible.
func (m *Model) Fit(data [][]float64) error {
	numVars, err := validate(data)
	if err != nil {
		return err
	}
	p := m.opt.Lags
	rows := len(data)
	if rows <= p {
		return fmt.Errorf("got %d rows for %d lags, %w", rows, p, ErrInsufficientData)
	}

	// work on a copy so jitter never leaks into caller data
	work := make([][]float64, rows)
	for i, row := range data {
		cp := make([]float64, numVars)
		copy(cp, row)
		work[i] = cp
	}
	m.jitterConstantColumns(work, numVars)

	nobs := rows - p
	features := 1 + p*numVars

	xData := make([]float64, 0, nobs*features)
	yData := make([]float64, 0, nobs*numVars)
	for t := p; t < rows; t++ {
		xData = append(xData, 1.0)
		for lag := 1; lag <= p; lag++ {
			xData = append(xData, work[t-lag]...)
		}
		yData = append(yData, work[t]...)
	}
	x := mat.NewDense(nobs, features, xData)
	y := mat.NewDense(nobs, numVars, yData)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < features; i++ {
		xtx.Set(i, i, xtx.At(i, i)+m.opt.Regularization)
	}

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return fmt.Errorf("unable to invert regularized normal equations, %w", ErrSingularMatrix)
	}

	var xty mat.Dense
	xty.Mul(x.T(), y)
	params := mat.NewDense(features, numVars, nil)
	params.Mul(&xtxInv, &xty)

	var fitted mat.Dense
	fitted.Mul(x, params)

	residuals := make([][]float64, nobs)
	sse := make([]float64, numVars)
	for i := 0; i < nobs; i++ {
		row := make([]float64, numVars)
		for j := 0; j < numVars; j++ {
			row[j] = y.At(i, j) - fitted.At(i, j)
			sse[j] += row[j] * row[j]
		}
		residuals[i] = row
	}

	df := nobs - features
	if df < 1 {
		df = 1
	}

	pvalues := mat.NewDense(numVars, features, nil)
	for j := 0; j < numVars; j++ {
		sigma2 := sse[j] / float64(df)
		for i := 0; i < features; i++ {
			se := math.Sqrt(sigma2 * xtxInv.At(i, i))
			t := 0.0
			if se > 0.0 && !math.IsInf(se, 0) {
				t = params.At(i, j) / se
			}
			if math.IsNaN(t) || math.IsInf(t, 0) {
				t = 0.0
			}
			pvalues.Set(j, i, stats.PValue(t, df))
		}
	}

	rsquared := make([]float64, numVars)
	for j := 0; j < numVars; j++ {
		mean := 0.0
		for i := 0; i < nobs; i++ {
			mean += y.At(i, j)
		}
		mean /= float64(nobs)
		sst := 0.0
		for i := 0; i < nobs; i++ {
			d := y.At(i, j) - mean
			sst += d * d
		}
		rsquared[j] = 1.0
		if sst > 0.0 {
			rsquared[j] = 1.0 - sse[j]/sst
		}
	}

	m.numVars = numVars
	m.params = params
	m.pvalues = pvalues
	m.residuals = residuals
	m.rsquared = rsquared
	m.trained = true
	return nil
}

func (m *Model) jitterConstantColumns(work [][]float64, numVars int) {
	for j := 0; j < numVars; j++ {
		constant := true
		for i := 1; i < len(work); i++ {
			if work[i][j] != work[0][j] {
				constant = false
				break
			}
		}
		if !constant {
			continue
		}
		for i := range work {
			work[i][j] += (m.opt.Rand.Float64()*2.0 - 1.0) * m.opt.Jitter
		}
		m.opt.Logger.Warn("injecting jitter into constant input column",
			zap.Int("column", j),
			zap.Float64("jitter", m.opt.Jitter),
		)
	}
}

// Predict forecasts `steps` rows ahead from the tail of data, feeding
// each full-vector prediction back into the rolling lag window.
func (m *Model) Predict(data [][]float64, steps int) ([][]float64, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("got %d steps, %w", steps, ErrInvalidSteps)
	}
	numVars, err := validate(data)
	if err != nil {
		return nil, err
	}
	if numVars != m.numVars {
		return nil, fmt.Errorf("got %d columns, trained with %d, %w", numVars, m.numVars, ErrDimensionMismatch)
	}
	p := m.opt.Lags
	if len(data) < p {
		return nil, fmt.Errorf("got %d rows for %d lags, %w", len(data), p, ErrInsufficientData)
	}

	// window rows ordered oldest to newest
	window := make([][]float64, p)
	for i := 0; i < p; i++ {
		row := make([]float64, numVars)
		copy(row, data[len(data)-p+i])
		window[i] = row
	}

	out := make([][]float64, 0, steps)
	for step := 0; step < steps; step++ {
		pred := make([]float64, numVars)
		for j := 0; j < numVars; j++ {
			val := m.params.At(0, j)
			idx := 1
			for lag := 1; lag <= p; lag++ {
				prev := window[p-lag]
				for k := 0; k < numVars; k++ {
					val += m.params.At(idx, j) * prev[k]
					idx++
				}
			}
			pred[j] = val
		}
		out = append(out, pred)

		copy(window, window[1:])
		window[p-1] = pred
	}
	return out, nil
}

// NumVars returns the number of jointly modeled variables.
func (m *Model) NumVars() int {
	return m.numVars
}

// Params returns a copy of the coefficient matrix with one column per
// output variable; feature rows are the constant followed by the lag
// blocks.
func (m *Model) Params() (*mat.Dense, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	return mat.DenseCopyOf(m.params), nil
}

// PValues returns a copy of the approximate two-sided p-values, one
// row per output variable.
func (m *Model) PValues() (*mat.Dense, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	return mat.DenseCopyOf(m.pvalues), nil
}

// Residuals returns the per-equation fit residuals, one row per
// training example.
func (m *Model) Residuals() ([][]float64, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(m.residuals))
	for i, row := range m.residuals {
		cp := make([]float64, len(row))
		copy(cp, row)
		out[i] = cp
	}
	return out, nil
}

// RSquared returns the coefficient of determination per equation.
func (m *Model) RSquared() ([]float64, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(m.rsquared))
	copy(out, m.rsquared)
	return out, nil
}
