// Package audio implements the I2S capture -> biquad filter cascade -> dB
// SPL pipeline.
package audio

// Filter applies an in-place transform to samples and returns the
// sum-of-squares of the transformed output. In-place operation (writing
// back into the same slice passed in) is required by callers.
type Filter interface {
	Process(samples []float64) float64
}

// biquadSection is one second-order IIR stage, coefficients stored in the
// {b1, b2, -a1, -a2} convention (b0 = a0 = 1, folded into gain).
type biquadSection struct {
	b1, b2 float64
	a1, a2 float64 // pre-negated: applied as +a1*y1 + a2*y2
	gain   float64

	x1, x2 float64
	y1, y2 float64
}

func (s *biquadSection) step(x float64) float64 {
	x *= s.gain
	y := x + s.b1*s.x1 + s.b2*s.x2 + s.a1*s.y1 + s.a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// BiquadCascade chains second-order sections into a higher-order IIR
// filter. State is per-instance and persists across windows: instantiate
// once and reuse it for the process lifetime, or low-frequency components
// will ring at every block boundary.
type BiquadCascade struct {
	sections []*biquadSection
}

// Process filters samples in place and returns the sum of squares of the
// filtered output.
func (f *BiquadCascade) Process(samples []float64) float64 {
	var sumSqr float64
	for i, x := range samples {
		y := x
		for _, s := range f.sections {
			y = s.step(y)
		}
		samples[i] = y
		sumSqr += y * y
	}
	return sumSqr
}

// NewIdentityEqualizer is the default equalizer: no filtering. Swap in a
// microphone-specific correction cascade by constructing a BiquadCascade
// with that microphone's coefficients instead.
func NewIdentityEqualizer() *BiquadCascade {
	return &BiquadCascade{}
}

// NewAWeighting returns the standard A-weighting cascade approximating
// human loudness perception, designed for this pipeline's fixed 16kHz
// sample rate.
func NewAWeighting() *BiquadCascade {
	return &BiquadCascade{sections: []*biquadSection{
		{b1: -2.000000000000000, b2: 1.000000000000000, a1: 1.983886757267979, a2: -0.983951666415814, gain: 0.529092774268152},
		{b1: -2.000000000000000, b2: 1.000000000000000, a1: 1.705509633705290, a2: -0.715987575345399, gain: 1.000000000000000},
		{b1: 2.000000000000000, b2: 1.000000000000000, a1: -0.821563817981106, a2: -0.168741776753923, gain: 1.000000000000000},
	}}
}
