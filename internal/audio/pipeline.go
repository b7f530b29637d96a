package audio

import (
	"context"

	"barkback/internal/logger"
	"barkback/pkg/models"
)

// WindowChannelCapacity bounds the pipeline's output channel. A full
// channel blocks the capture goroutine — deliberate backpressure rather
// than a drop, since silently discarding audio windows would corrupt the
// Leq average.
const WindowChannelCapacity = 8

// Pipeline reads fixed-size blocks from a Sampler, runs them through an
// equalizer stage and a weighting stage, and emits one WindowStats per
// block. The very first block after construction is discarded to let the
// microphone's DC bias settle before any sample reaches a filter.
type Pipeline struct {
	sampler   Sampler
	equalizer Filter
	weighting Filter
	out       chan models.WindowStats
	log       *logger.SystemLogger
}

// NewPipeline wires a sampler to a pair of filters. A nil equalizer or
// weighting filter falls back to NewIdentityEqualizer / NewAWeighting
// respectively.
func NewPipeline(sampler Sampler, equalizer, weighting Filter, log *logger.SystemLogger) *Pipeline {
	if equalizer == nil {
		equalizer = NewIdentityEqualizer()
	}
	if weighting == nil {
		weighting = NewAWeighting()
	}
	return &Pipeline{
		sampler:   sampler,
		equalizer: equalizer,
		weighting: weighting,
		out:       make(chan models.WindowStats, WindowChannelCapacity),
		log:       log,
	}
}

// Out is the channel of successive WindowStats. Callers should drain it
// continuously; a stalled consumer eventually blocks capture.
func (p *Pipeline) Out() <-chan models.WindowStats {
	return p.out
}

// Run blocks reading and filtering windows until ctx is cancelled or the
// sampler returns an error. It closes Out before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.out)

	buf := make([]float64, SamplesShort)
	warmedUp := false

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := p.sampler.ReadBlock(buf); err != nil {
			if p.log != nil {
				p.log.LogCriticalError("audio", "read-block", err)
			}
			return err
		}

		if !warmedUp {
			warmedUp = true
			continue
		}

		// Filters run in series: weighting sees the equalizer's own output.
		sumEqualized := p.equalizer.Process(buf)
		sumWeighted := p.weighting.Process(buf)

		stats := models.WindowStats{
			SumSqrEqualized: sumEqualized,
			SumSqrWeighted:  sumWeighted,
		}

		select {
		case p.out <- stats:
		case <-ctx.Done():
			return nil
		}
	}
}
