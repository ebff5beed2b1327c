package mocap

import (
	"math"
	"math/rand/v2"
)

// Series is a mutable value sequence used to compose synthetic joint
// motion for tests and demos.
type Series []float64

func (s Series) Add(src Series) Series {
	for i := 0; i < len(s) && i < len(src); i++ {
		s[i] += src[i]
	}
	return s
}

func (s Series) Scale(f float64) Series {
	for i := range s {
		s[i] *= f
	}
	return s
}

// GenerateConst returns n copies of val.
func GenerateConst(n int, val float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = val
	}
	return Series(y)
}

// GenerateSwing returns a sinusoidal joint swing in degrees with the
// given amplitude, period in frames, and phase offset in frames.
func GenerateSwing(n int, amp, periodFrames, phaseFrames float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = amp * math.Sin(2.0*math.Pi/periodFrames*(float64(i)+phaseFrames))
	}
	return Series(y)
}

// GenerateDrift returns a linear drift of slope degrees per frame.
func GenerateDrift(n int, slope float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = slope * float64(i)
	}
	return Series(y)
}

// GenerateNoise returns gaussian jitter with the given scale drawn
// from rng.
func GenerateNoise(n int, scale float64, rng *rand.Rand) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = rng.NormFloat64() * scale
	}
	return Series(y)
}

// GenerateAR2 returns a second-order autoregressive sequence
// y[t] = a1*y[t-1] + a2*y[t-2] + noise, seeded with two zeros. Useful
// for exercising forecast error accumulation on a known process.
func GenerateAR2(n int, a1, a2, noiseScale float64, rng *rand.Rand) Series {
	y := make([]float64, n)
	for i := 2; i < n; i++ {
		y[i] = a1*y[i-1] + a2*y[i-2] + rng.NormFloat64()*noiseScale
	}
	return Series(y)
}

// NewSimulatedDataset assembles a dataset from named channel series.
// All series must share the same length; shorter series truncate the
// frame count.
func NewSimulatedDataset(names []string, series []Series) (*Dataset, error) {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		n = 0
	}

	frames := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(series))
		for j, s := range series {
			row[j] = s[i]
		}
		frames[i] = row
	}
	return NewDataset(names, frames)
}
