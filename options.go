package jointcaster

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrUnknownStrategy = errors.New("unknown forecast strategy")
	ErrUnknownScaler   = errors.New("unknown scaler kind")
	ErrNoTargetChannel = errors.New("no target channel configured")
)

// Strategy selects how the test series is forecast.
type Strategy string

const (
	// StrategyStatic predicts one step ahead from true observed values
	// only.
	StrategyStatic Strategy = "static"
	// StrategyDynamic feeds prior predictions back in as lag inputs so
	// forecast errors accumulate over the horizon.
	StrategyDynamic Strategy = "dynamic"
)

// ScalerKind selects the normalization variant.
type ScalerKind string

const (
	ScalerStandard ScalerKind = "standard"
	ScalerMinMax   ScalerKind = "minmax"
)

// Options configures a joint-angle forecaster.
type Options struct {
	// TargetChannel is the name of the channel to predict.
	TargetChannel string `json:"target_channel"`
	// ExogChannels are the contemporaneous predictor channels, in
	// coefficient order.
	ExogChannels []string `json:"exog_channels"`
	// Order is the number of autoregressive lags of the target.
	Order int `json:"order"`
	// Strategy selects static or dynamic forecasting.
	Strategy Strategy `json:"strategy"`
	// Scaler selects the normalization variant fit on training data.
	Scaler ScalerKind `json:"scaler"`
	// Regularization is added to the diagonal of the normal equations.
	Regularization float64 `json:"regularization"`
	// Logger receives diagnostic events from the fit. Defaults to a
	// nop logger.
	Logger *zap.Logger `json:"-"`
}

// NewDefaultOptions returns the default forecaster options. The target
// channel must still be set by the caller.
func NewDefaultOptions() *Options {
	return &Options{
		Order:          2,
		Strategy:       StrategyStatic,
		Scaler:         ScalerStandard,
		Regularization: 1e-6,
		Logger:         zap.NewNop(),
	}
}

func (o *Options) validate() error {
	switch o.Strategy {
	case StrategyStatic, StrategyDynamic:
	default:
		return fmt.Errorf("%q, %w", o.Strategy, ErrUnknownStrategy)
	}
	switch o.Scaler {
	case ScalerStandard, ScalerMinMax:
	default:
		return fmt.Errorf("%q, %w", o.Scaler, ErrUnknownScaler)
	}
	return nil
}
