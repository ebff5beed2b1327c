// Package arx fits a single-target linear autoregressive model with
// exogenous regressors. The target channel is predicted from its own
// last `order` values plus the contemporaneous values of the exogenous
// channels, estimated by regularized ordinary least squares.
package arx

import (
	"errors"
	"fmt"
	"math"

	"github.com/mocaplab/go-jointcaster/stats"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoEndog           = errors.New("no endogenous observations")
	ErrExogLenMismatch   = errors.New("exogenous rows do not match endogenous length")
	ErrJaggedExog        = errors.New("exogenous rows have inconsistent lengths")
	ErrInvalidOrder      = errors.New("autoregressive order must be positive")
	ErrInsufficientData  = errors.New("not enough observations for the autoregressive order")
	ErrSingularMatrix    = errors.New("design matrix is singular even with regularization")
	ErrDimensionMismatch = errors.New("input vector length does not match trained shape")
	ErrNotFitted         = errors.New("model has not been fit")
	ErrCoefLenMismatch   = errors.New("coefficient length does not match exogenous count plus order")
)

const (
	// unit-root guard on the sum of lag coefficients
	stabilityThreshold = 0.999
	stabilityTarget    = 0.995

	seEpsilon = 1e-12
)

// Options configures an AR-X model fit.
type Options struct {
	// Order is the number of autoregressive lags of the target.
	Order int
	// Regularization is added to the diagonal of X'X before inversion
	// to guard against near-singular designs.
	Regularization float64
	// Logger receives diagnostic events such as the stability
	// correction. Defaults to a nop logger.
	Logger *zap.Logger
}

// NewDefaultOptions returns the default AR-X fit options.
func NewDefaultOptions() *Options {
	return &Options{
		Order:          2,
		Regularization: 1e-6,
		Logger:         zap.NewNop(),
	}
}

// Result is the immutable outcome of a fit.
type Result struct {
	// Coefficients are ordered exogenous columns first, then lag-1
	// through lag-order of the target.
	Coefficients []float64 `json:"coefficients"`
	StdErrors    []float64 `json:"std_errors"`
	TStats       []float64 `json:"t_stats"`
	PValues      []float64 `json:"p_values"`
	Residuals    []float64 `json:"residuals"`
	Fitted       []float64 `json:"fitted"`
	RSquared     float64   `json:"r_squared"`
	MSE          float64   `json:"mean_squared_error"`
	AIC          float64   `json:"aic"`
	BIC          float64   `json:"bic"`
	NumObs       int       `json:"num_obs"`
}

// Summary is a flat record of the fit suitable for external rendering.
type Summary struct {
	Order        int       `json:"order"`
	NumExog      int       `json:"num_exog"`
	NumObs       int       `json:"num_obs"`
	Coefficients []float64 `json:"coefficients"`
	StdErrors    []float64 `json:"std_errors"`
	TStats       []float64 `json:"t_stats"`
	PValues      []float64 `json:"p_values"`
	RSquared     float64   `json:"r_squared"`
	MSE          float64   `json:"mean_squared_error"`
	AIC          float64   `json:"aic"`
	BIC          float64   `json:"bic"`
}

// Model owns the training series and, once fit, the estimated
// coefficients. Fit is all-or-nothing; a model is never partially fit.
type Model struct {
	opt *Options

	endog   []float64
	exog    [][]float64
	numExog int

	result  *Result
	trained bool
}

// New creates a model for the given target series and contemporaneous
// exogenous rows. exog may be nil for a pure autoregression; otherwise
// it must be rectangular with one row per endogenous observation.
func New(endog []float64, exog [][]float64, opt *Options) (*Model, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Order < 1 {
		return nil, fmt.Errorf("got order %d, %w", opt.Order, ErrInvalidOrder)
	}
	if len(endog) == 0 {
		return nil, ErrNoEndog
	}

	numExog := 0
	if exog != nil {
		if len(exog) != len(endog) {
			return nil, fmt.Errorf("got %d exogenous rows for %d observations, %w", len(exog), len(endog), ErrExogLenMismatch)
		}
		numExog = len(exog[0])
		for i, row := range exog {
			if len(row) != numExog {
				return nil, fmt.Errorf("row %d has %d values, expected %d, %w", i, len(row), numExog, ErrJaggedExog)
			}
		}
	}

	return &Model{
		opt:     opt,
		endog:   endog,
		exog:    exog,
		numExog: numExog,
	}, nil
}

// NewFromParams reconstructs a trained model handle from serialized
// coefficients for prediction only. The coefficient layout must be
// numExog exogenous weights followed by order lag weights.
func NewFromParams(coefficients []float64, numExog, order int, opt *Options) (*Model, error) {
	if opt == nil {
		opt = NewDefaultOptions()
		opt.Order = order
	}
	if order < 1 {
		return nil, fmt.Errorf("got order %d, %w", order, ErrInvalidOrder)
	}
	if len(coefficients) != numExog+order {
		return nil, fmt.Errorf("got %d coefficients for %d exogenous columns and order %d, %w",
			len(coefficients), numExog, order, ErrCoefLenMismatch)
	}

	coef := make([]float64, len(coefficients))
	copy(coef, coefficients)
	return &Model{
		opt:     opt,
		numExog: numExog,
		result:  &Result{Coefficients: coef},
		trained: true,
	}, nil
}

// Order returns the configured autoregressive order.
func (m *Model) Order() int {
	return m.opt.Order
}

// NumExog returns the number of exogenous columns.
func (m *Model) NumExog() int {
	return m.numExog
}

// Result returns the fit result.
func (m *Model) Result() (*Result, error) {
	if !m.trained {
		return nil, ErrNotFitted
	}
	return m.result, nil
}

// laggedDesign builds one feature row per time index t from order to
// n-1: the exogenous values at t followed by the target values at
// t-1 through t-order, labeled with the target at t.
func laggedDesign(endog []float64, exog [][]float64, numExog, order int) ([]float64, []float64) {
	n := len(endog)
	nobs := n - order
	k := numExog + order

	x := make([]float64, 0, nobs*k)
	y := make([]float64, 0, nobs)
	for t := order; t < n; t++ {
		if numExog > 0 {
			x = append(x, exog[t]...)
		}
		for lag := 1; lag <= order; lag++ {
			x = append(x, endog[t-lag])
		}
		y = append(y, endog[t])
	}
	return x, y
}

// Fit estimates the model by regularized ordinary least squares and
// computes inferential statistics. The lag coefficient sum is rescaled
// below the unit-root threshold when necessary; the correction is a
// heuristic safety valve for iterative forecasting, not a principled
// stability test, and is reported through the configured logger.
func (m *Model) Fit() (*Result, error) {
	p := m.opt.Order
	n := len(m.endog)
	if n <= p {
		return nil, fmt.Errorf("got %d observations for order %d, %w", n, p, ErrInsufficientData)
	}

	nobs := n - p
	k := m.numExog + p
	xData, yData := laggedDesign(m.endog, m.exog, m.numExog, p)
	x := mat.NewDense(nobs, k, xData)
	y := mat.NewVecDense(nobs, yData)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < k; i++ {
		xtx.Set(i, i, xtx.At(i, i)+m.opt.Regularization)
	}

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("unable to invert regularized normal equations, %w", ErrSingularMatrix)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	coef := make([]float64, k)
	copy(coef, beta.RawVector().Data)

	lagSum := 0.0
	for i := m.numExog; i < k; i++ {
		lagSum += coef[i]
	}
	if math.Abs(lagSum) > stabilityThreshold {
		scale := stabilityTarget / math.Abs(lagSum)
		for i := m.numExog; i < k; i++ {
			coef[i] *= scale
		}
		m.opt.Logger.Warn("applying stability correction to lag coefficients",
			zap.Float64("lag_coef_sum", lagSum),
			zap.Float64("scale", scale),
		)
	}

	// fitted values and residuals with the corrected coefficients
	coefVec := mat.NewVecDense(k, coef)
	var fittedVec mat.VecDense
	fittedVec.MulVec(x, coefVec)

	fitted := make([]float64, nobs)
	residuals := make([]float64, nobs)
	sse := 0.0
	for i := 0; i < nobs; i++ {
		fitted[i] = fittedVec.AtVec(i)
		residuals[i] = yData[i] - fitted[i]
		sse += residuals[i] * residuals[i]
	}

	df := nobs - k
	if df < 1 {
		df = 1
	}
	sigma2 := sse / float64(df)

	stdErrors := make([]float64, k)
	tStats := make([]float64, k)
	pValues := make([]float64, k)
	for i := 0; i < k; i++ {
		se := math.Sqrt(sigma2 * xtxInv.At(i, i))
		if math.IsNaN(se) || math.IsInf(se, 0) || se == 0.0 {
			se = seEpsilon
		}
		stdErrors[i] = se

		t := coef[i] / se
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = 0.0
		}
		tStats[i] = t
		pValues[i] = stats.PValue(t, df)
	}

	yMean := 0.0
	for _, v := range yData {
		yMean += v
	}
	yMean /= float64(nobs)
	sst := 0.0
	for _, v := range yData {
		d := v - yMean
		sst += d * d
	}
	rSquared := 1.0
	if sst > 0.0 {
		rSquared = 1.0 - sse/sst
	}

	kf := float64(k)
	nf := float64(nobs)
	aic := 2.0*kf - 2.0*math.Log(sse/nf)
	bic := kf*math.Log(nf) - 2.0*math.Log(sse/nf)

	m.result = &Result{
		Coefficients: coef,
		StdErrors:    stdErrors,
		TStats:       tStats,
		PValues:      pValues,
		Residuals:    residuals,
		Fitted:       fitted,
		RSquared:     rSquared,
		MSE:          sse / nf,
		AIC:          aic,
		BIC:          bic,
		NumObs:       nobs,
	}
	m.trained = true
	return m.result, nil
}

// Forecast computes a single one-step prediction from the current
// exogenous values and the last `order` target values ordered most
// recent first (t-1, t-2, ...).
func (m *Model) Forecast(exog, lags []float64) (float64, error) {
	if !m.trained {
		return 0, ErrNotFitted
	}
	if len(exog) != m.numExog {
		return 0, fmt.Errorf("got %d exogenous values, expected %d, %w", len(exog), m.numExog, ErrDimensionMismatch)
	}
	if len(lags) != m.opt.Order {
		return 0, fmt.Errorf("got %d lag values, expected %d, %w", len(lags), m.opt.Order, ErrDimensionMismatch)
	}

	coef := m.result.Coefficients
	pred := 0.0
	for i, v := range exog {
		pred += v * coef[i]
	}
	for i, v := range lags {
		pred += v * coef[m.numExog+i]
	}
	return pred, nil
}

// Summary returns the flat fit record.
func (m *Model) Summary() (*Summary, error) {
	if !m.trained || m.result.NumObs == 0 {
		return nil, ErrNotFitted
	}
	r := m.result
	return &Summary{
		Order:        m.opt.Order,
		NumExog:      m.numExog,
		NumObs:       r.NumObs,
		Coefficients: r.Coefficients,
		StdErrors:    r.StdErrors,
		TStats:       r.TStats,
		PValues:      r.PValues,
		RSquared:     r.RSquared,
		MSE:          r.MSE,
		AIC:          r.AIC,
		BIC:          r.BIC,
	}, nil
}
