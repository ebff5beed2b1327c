// Package jointcaster fits linear autoregressive models with
// exogenous regressors to motion-capture joint-angle sequences and
// forecasts future joint angles from a trained model.
package jointcaster

import (
	"errors"
	"fmt"

	"github.com/mocaplab/go-jointcaster/arx"
	"github.com/mocaplab/go-jointcaster/forecast"
	"github.com/mocaplab/go-jointcaster/mocap"
	"github.com/mocaplab/go-jointcaster/scaler"
)

var (
	ErrNoDataset      = errors.New("no dataset or uninitialized")
	ErrNotFitted      = errors.New("forecaster has not been fit")
	ErrSchemaMismatch = errors.New("dataset channels do not match the fitted channels")
)

// Forecaster fits a scaler and an AR-X model for one target channel of
// a motion-capture dataset and forecasts the target over test data.
type Forecaster struct {
	opt *Options

	sc    scaler.Scaler
	model *arx.Model

	channels  []string
	cols      forecast.Columns
	fitResult *arx.Result
	trained   bool
}

// New creates a new Forecaster with the provided options. If no
// options are provided a default is used; the default has no target
// channel, which Fit rejects.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = NewDefaultOptions().Logger
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}

	f := &Forecaster{opt: opt}
	switch opt.Scaler {
	case ScalerMinMax:
		f.sc = scaler.NewMinMax()
	default:
		f.sc = scaler.NewStandard()
	}
	return f, nil
}

func (f *Forecaster) resolveColumns(schema *mocap.Schema) (forecast.Columns, error) {
	if f.opt.TargetChannel == "" {
		return forecast.Columns{}, ErrNoTargetChannel
	}
	target, err := schema.Column(f.opt.TargetChannel)
	if err != nil {
		return forecast.Columns{}, fmt.Errorf("unable to resolve target channel, %w", err)
	}
	exog, err := schema.Columns(f.opt.ExogChannels)
	if err != nil {
		return forecast.Columns{}, fmt.Errorf("unable to resolve exogenous channels, %w", err)
	}
	return forecast.Columns{Target: target, Exog: exog}, nil
}

func selectColumns(frames [][]float64, cols forecast.Columns) ([]float64, [][]float64) {
	endog := make([]float64, len(frames))
	exog := make([][]float64, len(frames))
	for i, row := range frames {
		endog[i] = row[cols.Target]
		ex := make([]float64, len(cols.Exog))
		for j, c := range cols.Exog {
			ex[j] = row[c]
		}
		exog[i] = ex
	}
	return endog, exog
}

// Fit normalizes the training dataset, fitting the scaler exactly
// once, and estimates the AR-X model for the configured target
// channel. The scaler must not be refit afterwards; Forecast reuses it
// for test data.
func (f *Forecaster) Fit(d *mocap.Dataset) error {
	if d == nil {
		return ErrNoDataset
	}
	cols, err := f.resolveColumns(d.Schema())
	if err != nil {
		return err
	}

	normalized, err := f.sc.FitTransform(d.Frames())
	if err != nil {
		return fmt.Errorf("unable to normalize training data, %w", err)
	}

	endog, exog := selectColumns(normalized, cols)
	model, err := arx.New(endog, exog, &arx.Options{
		Order:          f.opt.Order,
		Regularization: f.opt.Regularization,
		Logger:         f.opt.Logger,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize regression model, %w", err)
	}
	result, err := model.Fit()
	if err != nil {
		return fmt.Errorf("unable to fit regression model, %w", err)
	}

	f.model = model
	f.fitResult = result
	f.channels = d.Schema().Names()
	f.cols = cols
	f.trained = true
	return nil
}

// Result bundles the forecast output in original units with its
// evaluation scores.
type Result struct {
	Predicted []float64 `json:"predicted"`
	Actual    []float64 `json:"actual"`
	Scores    *Scores   `json:"scores"`
}

// Forecast transforms the test dataset with the already-fit scaler and
// runs the configured forecasting strategy. The test dataset must
// carry the same channel layout the forecaster was fit on.
func (f *Forecaster) Forecast(d *mocap.Dataset) (*Result, error) {
	if !f.trained {
		return nil, ErrNotFitted
	}
	if d == nil {
		return nil, ErrNoDataset
	}
	if err := f.checkSchema(d.Schema()); err != nil {
		return nil, err
	}

	normalized, err := f.sc.Transform(d.Frames())
	if err != nil {
		return nil, fmt.Errorf("unable to normalize test data, %w", err)
	}

	var res *forecast.Result
	switch f.opt.Strategy {
	case StrategyDynamic:
		res, err = forecast.Dynamic(f.model, normalized, f.sc, f.cols)
	default:
		res, err = forecast.Static(f.model, normalized, f.sc, f.cols)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to run %s forecast, %w", f.opt.Strategy, err)
	}

	scores, err := NewScores(res.Predicted, res.Actual)
	if err != nil {
		return nil, err
	}
	return &Result{
		Predicted: res.Predicted,
		Actual:    res.Actual,
		Scores:    scores,
	}, nil
}

func (f *Forecaster) checkSchema(schema *mocap.Schema) error {
	names := schema.Names()
	if len(names) != len(f.channels) {
		return fmt.Errorf("got %d channels, fitted with %d, %w", len(names), len(f.channels), ErrSchemaMismatch)
	}
	for i, name := range names {
		if name != f.channels[i] {
			return fmt.Errorf("channel %d is %q, fitted with %q, %w", i, name, f.channels[i], ErrSchemaMismatch)
		}
	}
	return nil
}

// FitResult returns the immutable regression fit result.
func (f *Forecaster) FitResult() (*arx.Result, error) {
	if !f.trained {
		return nil, ErrNotFitted
	}
	return f.fitResult, nil
}

// Summary is a flat record of the fit suitable for external reporting.
type Summary struct {
	TargetChannel string    `json:"target_channel"`
	Labels        []string  `json:"labels"`
	Coefficients  []float64 `json:"coefficients"`
	StdErrors     []float64 `json:"std_errors"`
	TStats        []float64 `json:"t_stats"`
	PValues       []float64 `json:"p_values"`
	RSquared      float64   `json:"r_squared"`
	MSE           float64   `json:"mean_squared_error"`
	AIC           float64   `json:"aic"`
	BIC           float64   `json:"bic"`
	NumObs        int       `json:"num_obs"`
}

// Summary returns the fit statistics with one label per coefficient:
// the exogenous channel names followed by the target's lag terms.
func (f *Forecaster) Summary() (*Summary, error) {
	if !f.trained {
		return nil, ErrNotFitted
	}
	s, err := f.model.Summary()
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(s.Coefficients))
	labels = append(labels, f.opt.ExogChannels...)
	for lag := 1; lag <= s.Order; lag++ {
		labels = append(labels, fmt.Sprintf("%s.lag%d", f.opt.TargetChannel, lag))
	}

	return &Summary{
		TargetChannel: f.opt.TargetChannel,
		Labels:        labels,
		Coefficients:  s.Coefficients,
		StdErrors:     s.StdErrors,
		TStats:        s.TStats,
		PValues:       s.PValues,
		RSquared:      s.RSquared,
		MSE:           s.MSE,
		AIC:           s.AIC,
		BIC:           s.BIC,
		NumObs:        s.NumObs,
	}, nil
}
