// Package mocap holds the motion-capture data contract consumed by
// the modeling packages: an ordered channel schema and a frame matrix
// of joint-angle values. File-format concerns such as BVH parsing
// live with the producer; this package only validates and addresses
// the resulting sequences.
package mocap

import (
	"errors"
	"fmt"
)

var (
	ErrNoChannels       = errors.New("no channels in schema")
	ErrDuplicateChannel = errors.New("duplicate channel name in schema")
	ErrUnknownChannel   = errors.New("unknown channel name")
	ErrNoFrames         = errors.New("no frames in dataset")
	ErrJaggedFrames     = errors.New("frame has a different length than the schema")
	ErrSplitRatio       = errors.New("split ratio must be within (0, 1)")
)

// Schema is an ordered list of named channels. Channel order defines
// the column layout of every frame, so a schema threads naming through
// scaler, model, and forecast calls and turns positional mismatches
// into named-channel errors.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema creates a schema from an ordered channel name list.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, ErrNoChannels
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("%s, %w", name, ErrDuplicateChannel)
		}
		index[name] = i
	}
	return &Schema{names: names, index: index}, nil
}

// Column resolves a channel name to its column index.
func (s *Schema) Column(name string) (int, error) {
	idx, exists := s.index[name]
	if !exists {
		return 0, fmt.Errorf("%s, %w", name, ErrUnknownChannel)
	}
	return idx, nil
}

// Columns resolves an ordered list of channel names to column indices.
func (s *Schema) Columns(names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		idx, err := s.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = idx
	}
	return cols, nil
}

// Names returns a copy of the ordered channel names.
func (s *Schema) Names() []string {
	dst := make([]string, len(s.names))
	copy(dst, s.names)
	return dst
}

// Len returns the number of channels.
func (s *Schema) Len() int {
	return len(s.names)
}

// Dataset is a time-ordered frame matrix with a channel schema. Row t
// represents a later capture frame than row t-1.
type Dataset struct {
	schema *Schema
	frames [][]float64
}

// NewDataset creates a dataset from channel names and a rectangular
// frame matrix with one value per channel per frame.
func NewDataset(names []string, frames [][]float64) (*Dataset, error) {
	schema, err := NewSchema(names)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	for i, frame := range frames {
		if len(frame) != schema.Len() {
			return nil, fmt.Errorf("frame %d has %d values, expected %d, %w", i, len(frame), schema.Len(), ErrJaggedFrames)
		}
	}

	copied := make([][]float64, len(frames))
	for i, frame := range frames {
		row := make([]float64, len(frame))
		copy(row, frame)
		copied[i] = row
	}
	return &Dataset{schema: schema, frames: copied}, nil
}

// Schema returns the dataset's channel schema.
func (d *Dataset) Schema() *Schema {
	return d.schema
}

// Len returns the number of frames.
func (d *Dataset) Len() int {
	return len(d.frames)
}

// Frames returns a copy of the frame matrix.
func (d *Dataset) Frames() [][]float64 {
	dst := make([][]float64, len(d.frames))
	for i, frame := range d.frames {
		row := make([]float64, len(frame))
		copy(row, frame)
		dst[i] = row
	}
	return dst
}

// Series returns the value sequence of a single named channel.
func (d *Dataset) Series(name string) ([]float64, error) {
	col, err := d.schema.Column(name)
	if err != nil {
		return nil, err
	}
	xs := make([]float64, len(d.frames))
	for i, frame := range d.frames {
		xs[i] = frame[col]
	}
	return xs, nil
}

// Select returns the frame matrix restricted to the named channels, in
// the given order.
func (d *Dataset) Select(names ...string) ([][]float64, error) {
	cols, err := d.schema.Columns(names)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(d.frames))
	for i, frame := range d.frames {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = frame[col]
		}
		out[i] = row
	}
	return out, nil
}

// Split partitions the dataset into a training and test dataset at the
// given ratio of frames, preserving temporal order.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset, error) {
	if ratio <= 0.0 || ratio >= 1.0 {
		return nil, nil, fmt.Errorf("got %f, %w", ratio, ErrSplitRatio)
	}
	cut := int(float64(len(d.frames)) * ratio)
	if cut == 0 || cut == len(d.frames) {
		return nil, nil, fmt.Errorf("ratio %f leaves an empty partition with %d frames, %w", ratio, len(d.frames), ErrSplitRatio)
	}

	train, err := NewDataset(d.schema.Names(), d.frames[:cut])
	if err != nil {
		return nil, nil, err
	}
	test, err := NewDataset(d.schema.Names(), d.frames[cut:])
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
