package audio

import (
	"context"
	"testing"
	"time"

	"barkback/pkg/models"
)

// countingSampler reports how many ReadBlock calls it served, letting the
// warm-up discard behavior be checked directly.
type countingSampler struct {
	calls int
}

func (s *countingSampler) ReadBlock(buf []float64) error {
	s.calls++
	for i := range buf {
		buf[i] = float64(s.calls)
	}
	return nil
}

func (s *countingSampler) Close() error { return nil }

func TestPipelineDiscardsFirstWarmupBlock(t *testing.T) {
	sampler := &countingSampler{}
	p := NewPipeline(sampler, NewIdentityEqualizer(), NewIdentityEqualizer(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case stats := <-p.Out():
		// The first ReadBlock (call 1, all samples = 1) must be discarded;
		// the first stats delivered should come from call 2 (all samples = 2),
		// giving sumSqrEqualized = SamplesShort * 4.
		want := models.WindowStats{SumSqrEqualized: float64(SamplesShort) * 4, SumSqrWeighted: float64(SamplesShort) * 4}
		if stats != want {
			t.Fatalf("got %+v, want %+v", stats, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for first window")
	}
}

func TestPipelineStopsOnContextCancel(t *testing.T) {
	p := NewPipeline(SilentSampler{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected nil error on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("pipeline did not stop after context cancellation")
	}

	// Out() must be closed so a ranging consumer terminates.
	select {
	case _, open := <-p.Out():
		if open {
			// Draining a stray buffered window is fine; keep reading until closed.
			for open {
				_, open = <-p.Out()
			}
		}
	case <-time.After(time.Second):
		t.Fatalf("Out() was never closed")
	}
}
