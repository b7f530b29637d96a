package audio

import (
	"errors"
	"math"
)

// SampleRateHz is the fixed capture rate this pipeline runs at.
const SampleRateHz = 16000

// SamplesShort is the analysis block size: one Filter.Process call and one
// WindowStats per this many samples.
const SamplesShort = 1024

// Sampler produces successive blocks of SamplesShort float64 samples. A
// real implementation blocks on the underlying DMA buffer; ReadBlock must
// not return early with a partial block.
type Sampler interface {
	ReadBlock(buf []float64) error
	Close() error
}

// ScaleRawSample converts one raw 32-bit I2S word into the pipeline's
// working representation: an arithmetic right shift by 8 bits (32 -> 24
// significant bits), widened to float64.
func ScaleRawSample(raw int32) float64 {
	return float64(raw >> 8)
}

// ErrShortRead is returned by a RawReader that filled fewer samples than
// requested.
var ErrShortRead = errors.New("audio: short read from raw sampler")

// RawReader fills buf with exactly len(buf) raw 32-bit I2S samples,
// blocking until the DMA buffer backing it is full.
type RawReader func(buf []int32) error

// I2SSampler adapts a RawReader into a Sampler, applying the fixed
// 32-to-24-bit scaling. Wiring an actual I2S driver behind RawReader is
// left to the hardware build; this package only needs the interface to
// exist so the pipeline can be exercised on any host via ToneSampler.
type I2SSampler struct {
	read RawReader
	raw  []int32
}

// NewI2SSampler constructs a sampler around a blocking raw-word reader.
func NewI2SSampler(read RawReader) *I2SSampler {
	return &I2SSampler{read: read, raw: make([]int32, SamplesShort)}
}

func (s *I2SSampler) ReadBlock(buf []float64) error {
	if len(buf) != len(s.raw) {
		return ErrShortRead
	}
	if err := s.read(s.raw); err != nil {
		return err
	}
	for i, raw := range s.raw {
		buf[i] = ScaleRawSample(raw)
	}
	return nil
}

func (s *I2SSampler) Close() error { return nil }

// ToneSampler is a software-only Sampler generating a pure sine tone. It
// exists for the simulate command and for tests that need a deterministic,
// hardware-free signal source.
type ToneSampler struct {
	freqHz    float64
	amplitude float64
	t         float64
}

// NewToneSampler builds a generator for a sine tone at freqHz with peak
// amplitude in the same units ScaleRawSample produces (roughly +/-2^23).
func NewToneSampler(freqHz, amplitude float64) *ToneSampler {
	return &ToneSampler{freqHz: freqHz, amplitude: amplitude}
}

func (s *ToneSampler) ReadBlock(buf []float64) error {
	step := 1.0 / SampleRateHz
	for i := range buf {
		buf[i] = s.amplitude * math.Sin(2*math.Pi*s.freqHz*s.t)
		s.t += step
	}
	return nil
}

func (s *ToneSampler) Close() error { return nil }

// SilentSampler always yields zero, used by the pipeline cancellation test
// and as the run command's stand-in audio source.
type SilentSampler struct{}

func (SilentSampler) ReadBlock(buf []float64) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (SilentSampler) Close() error { return nil }
