package audio

import "math"

// Microphone calibration constants, matched to the INMP441-class digital
// microphone this pipeline was built against.
const (
	MicOffsetDB      = 2.0103
	MicSensitivityDB = -29.0
	MicRefDB         = 94.0
	MicOverloadDB    = 116.0
	MicNoiseDB       = 29.0
	MicBits          = 24

	// LeqPeriodSec is the averaging window over which LeqMeter reports a
	// single Leq value.
	LeqPeriodSec = 0.25
)

// LeqPeriodSamples is SAMPLE_RATE * LEQ_PERIOD, the number of samples
// folded into each reported Leq value.
const LeqPeriodSamples = int(SampleRateHz * LeqPeriodSec)

// MicRefAmpl is the reference amplitude corresponding to MIC_REF_DB, derived
// from the microphone's rated sensitivity and bit depth.
var MicRefAmpl = math.Pow(10, MicSensitivityDB/20) * (math.Pow(2, MicBits-1) - 1)

// Decibels converts a window's weighted sum-of-squares over n samples into
// an instant dB SPL value, latching to +Inf above the overload threshold
// and to -Inf below the noise floor (or on a non-finite intermediate
// result). This is what the evaluation scheduler classifies pass/fail
// against on every WindowStats — n is ordinarily SamplesShort.
func Decibels(sumSqrWeighted float64, n int) float64 {
	return decibels(sumSqrWeighted, n)
}

// LeqMeter accumulates weighted sum-of-squares across successive windows
// until a full averaging period has elapsed, then reports one smoothed dB
// value and resets. This is the coarser telemetry-facing Leq described
// separately from per-window classification: publishers that want a
// display-stable reading use this instead of the raw per-window Decibels.
type LeqMeter struct {
	sumSqr  float64
	samples int
}

// Add folds one window's weighted sum-of-squares into the accumulator.
// When the accumulator reaches a full averaging period it returns the
// resulting dB value and true. Otherwise it returns (0, false) and the
// caller has no new Leq yet.
func (m *LeqMeter) Add(sumSqrWeighted float64, sampleCount int) (float64, bool) {
	m.sumSqr += sumSqrWeighted
	m.samples += sampleCount
	if m.samples < LeqPeriodSamples {
		return 0, false
	}
	db := decibels(m.sumSqr, m.samples)
	m.sumSqr, m.samples = 0, 0
	return db, true
}

// decibels converts an accumulated sum-of-squares over n samples into a dB
// SPL value, latching to +Inf above the overload threshold and to -Inf
// below the noise floor (or on a non-finite intermediate result).
func decibels(sumSqr float64, n int) float64 {
	if n == 0 || sumSqr <= 0 {
		return math.Inf(-1)
	}
	rms := math.Sqrt(sumSqr / float64(n))
	db := MicOffsetDB + MicRefDB + 20*math.Log10(rms/MicRefAmpl)
	switch {
	case math.IsNaN(db):
		return math.Inf(-1)
	case db > MicOverloadDB:
		return math.Inf(1)
	case db < MicNoiseDB:
		return math.Inf(-1)
	default:
		return db
	}
}
