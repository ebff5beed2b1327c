package jointcaster

import (
	"errors"
	"fmt"

	"github.com/mocaplab/go-jointcaster/arx"
	"github.com/mocaplab/go-jointcaster/mocap"
	"github.com/mocaplab/go-jointcaster/scaler"
)

var ErrNoOptionsInModel = errors.New("no options set in model")

// Model is the serializable representation of a fitted forecaster:
// options, channel layout, scaler state, and coefficients. There is no
// schema versioning; this is a plain state-struct round trip.
type Model struct {
	Options      *Options     `json:"options"`
	Channels     []string     `json:"channels"`
	Scaler       scaler.State `json:"scaler"`
	Coefficients []float64    `json:"coefficients"`
}

// Model returns the serializable state of the fitted forecaster. This
// can be used to initialize a new Forecaster for immediate predictions
// skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	if !f.trained {
		return Model{}, ErrNotFitted
	}
	return Model{
		Options:      f.opt,
		Channels:     f.channels,
		Scaler:       f.sc.State(),
		Coefficients: f.fitResult.Coefficients,
	}, nil
}

// NewFromModel creates a Forecaster from a previously serialized
// model, ready for forecasting without refitting.
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	f, err := New(model.Options)
	if err != nil {
		return nil, err
	}

	sc, err := scaler.FromState(model.Scaler)
	if err != nil {
		return nil, fmt.Errorf("unable to restore scaler, %w", err)
	}
	f.sc = sc

	schema, err := mocap.NewSchema(model.Channels)
	if err != nil {
		return nil, fmt.Errorf("unable to restore channel schema, %w", err)
	}
	cols, err := f.resolveColumns(schema)
	if err != nil {
		return nil, err
	}

	m, err := arx.NewFromParams(model.Coefficients, len(cols.Exog), model.Options.Order, &arx.Options{
		Order:          model.Options.Order,
		Regularization: model.Options.Regularization,
		Logger:         model.Options.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to restore regression model, %w", err)
	}

	f.model = m
	f.fitResult = &arx.Result{Coefficients: model.Coefficients}
	f.channels = model.Channels
	f.cols = cols
	f.trained = true
	return f, nil
}
