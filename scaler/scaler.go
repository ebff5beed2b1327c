// Package scaler normalizes per-column observation matrices. A scaler
// is fit once on training data and reused for every transform and
// inverse transform afterwards; refitting on inference data is a
// caller contract violation the scaler cannot detect.
package scaler

import (
	"errors"
	"fmt"

	"github.com/mocaplab/go-jointcaster/stats"
)

var (
	ErrNotFitted   = errors.New("scaler has not been fit")
	ErrNoData      = errors.New("no input data")
	ErrJaggedData  = errors.New("input rows have inconsistent lengths")
	ErrColMismatch = errors.New("input column count does not match fitted columns")
	ErrColRange    = errors.New("column index out of range")
)

// Scaler transforms observation matrices column by column. Implemented
// by Standard and MinMax.
type Scaler interface {
	Fit(data [][]float64) error
	Transform(data [][]float64) ([][]float64, error)
	FitTransform(data [][]float64) ([][]float64, error)
	InverseTransform(data [][]float64) ([][]float64, error)

	// InverseTransformColumn maps a single series back to original
	// units using the scale of one fitted column.
	InverseTransformColumn(col int, values []float64) ([]float64, error)

	// State returns the serializable scaler parameters.
	State() State
}

// State is the serializable form of a fitted scaler. Transform is
// (x - Offset) / Scale per column for both variants.
type State struct {
	Kind   string    `json:"kind"`
	Offset []float64 `json:"offset"`
	Scale  []float64 `json:"scale"`
}

const (
	KindStandard = "standard"
	KindMinMax   = "minmax"
)

// FromState reconstructs a fitted scaler from its serialized state.
func FromState(st State) (Scaler, error) {
	switch st.Kind {
	case KindStandard:
		return &Standard{mean: st.Offset, std: st.Scale}, nil
	case KindMinMax:
		return &MinMax{min: st.Offset, scale: st.Scale}, nil
	default:
		return nil, fmt.Errorf("unknown scaler kind %q", st.Kind)
	}
}

// validate checks for a non-empty rectangular matrix and returns its
// column count.
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

func column(data [][]float64, col int) []float64 {
	xs := make([]float64, len(data))
	for i, row := range data {
		xs[i] = row[col]
	}
	return xs
}

func apply(data [][]float64, offset, scale []float64, inverse bool) ([][]float64, error) {
	if offset == nil {
		return nil, ErrNotFitted
	}
	cols, err := validate(data)
	if err != nil {
		return nil, err
	}
	if cols != len(offset) {
		return nil, fmt.Errorf("got %d columns, fitted with %d, %w", cols, len(offset), ErrColMismatch)
	}

	out := make([][]float64, len(data))
	for i, row := range data {
		outRow := make([]float64, cols)
		for j, x := range row {
			if inverse {
				outRow[j] = x*scale[j] + offset[j]
			} else {
				outRow[j] = (x - offset[j]) / scale[j]
			}
		}
		out[i] = outRow
	}
	return out, nil
}

func applyColumn(col int, values, offset, scale []float64) ([]float64, error) {
	if offset == nil {
		return nil, ErrNotFitted
	}
	if col < 0 || col >= len(offset) {
		return nil, fmt.Errorf("column %d with %d fitted columns, %w", col, len(offset), ErrColRange)
	}
	out := make([]float64, len(values))
	for i, x := range values {
		out[i] = x*scale[col] + offset[col]
	}
	return out, nil
}

// Standard scales each column to zero mean and unit variance using the
// population standard deviation. Zero-variance columns keep a scale of
// 1 so the transform degenerates to a mean shift.
type Standard struct {
	mean []float64
	std  []float64
}

func NewStandard() *Standard {
	return &Standard{}
}

func (s *Standard) Fit(data [][]float64) error {
	cols, err := validate(data)
	if err != nil {
		return err
	}

	mean := make([]float64, cols)
	std := make([]float64, cols)
	for j := 0; j < cols; j++ {
		m, sd := stats.MeanStd(column(data, j))
		if sd == 0.0 {
			sd = 1.0
		}
		mean[j] = m
		std[j] = sd
	}
	s.mean = mean
	s.std = std
	return nil
}

func (s *Standard) Transform(data [][]float64) ([][]float64, error) {
	return apply(data, s.mean, s.std, false)
}

func (s *Standard) FitTransform(data [][]float64) ([][]float64, error) {
	if err := s.Fit(data); err != nil {
		return nil, err
	}
	return s.Transform(data)
}

func (s *Standard) InverseTransform(data [][]float64) ([][]float64, error) {
	return apply(data, s.mean, s.std, true)
}

func (s *Standard) InverseTransformColumn(col int, values []float64) ([]float64, error) {
	return applyColumn(col, values, s.mean, s.std)
}

func (s *Standard) State() State {
	return State{Kind: KindStandard, Offset: s.mean, Scale: s.std}
}

// MinMax scales each column to the [0, 1] range of the training data.
// Zero-range columns keep a scale of 1.
type MinMax struct {
	min   []float64
	scale []float64
}

func NewMinMax() *MinMax {
	return &MinMax{}
}

func (s *MinMax) Fit(data [][]float64) error {
	cols, err := validate(data)
	if err != nil {
		return err
	}

	minv := make([]float64, cols)
	scale := make([]float64, cols)
	for j := 0; j < cols; j++ {
		lo := data[0][j]
		hi := data[0][j]
		for _, row := range data {
			if row[j] < lo {
				lo = row[j]
			}
			if row[j] > hi {
				hi = row[j]
			}
		}
		r := hi - lo
		if r == 0.0 {
			r = 1.0
		}
		minv[j] = lo
		scale[j] = r
	}
	s.min = minv
	s.scale = scale
	return nil
}

func (s *MinMax) Transform(data [][]float64) ([][]float64, error) {
	return apply(data, s.min, s.scale, false)
}

func (s *MinMax) FitTransform(data [][]float64) ([][]float64, error) {
	if err := s.Fit(data); err != nil {
		return nil, err
	}
	return s.Transform(data)
}

func (s *MinMax) InverseTransform(data [][]float64) ([][]float64, error) {
	return apply(data, s.min, s.scale, true)
}

func (s *MinMax) InverseTransformColumn(col int, values []float64) ([]float64, error) {
	return applyColumn(col, values, s.min, s.scale)
}

func (s *MinMax) State() State {
	return State{Kind: KindMinMax, Offset: s.min, Scale: s.scale}
}
