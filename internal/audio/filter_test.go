package audio

import "testing"

func TestIdentityEqualizerPassesThrough(t *testing.T) {
	samples := []float64{1, -2, 3, -4}
	want := []float64{1, 4, 9, 16}
	sumSqr := NewIdentityEqualizer().Process(samples)

	var wantSum float64
	for i, w := range want {
		wantSum += w
		if samples[i]*samples[i] != w {
			t.Fatalf("identity filter must not alter samples, index %d", i)
		}
	}
	if sumSqr != wantSum {
		t.Fatalf("sumSqr = %v, want %v", sumSqr, wantSum)
	}
}

func TestBiquadCascadeStatePersistsAcrossCalls(t *testing.T) {
	f := NewAWeighting()

	block1 := make([]float64, SamplesShort)
	block1[0] = 1000
	f.Process(block1)

	block2 := make([]float64, SamplesShort)
	sumSqr := f.Process(block2)

	// With all-zero input on the second call, non-zero output can only come
	// from filter memory carried over from the first call.
	if sumSqr == 0 {
		t.Fatalf("expected filter state from block1 to leak into block2's output")
	}
}

func TestAWeightingAttenuatesLowFrequencyMoreThanIdentity(t *testing.T) {
	const freq = 60.0 // low frequency, should be heavily attenuated by A-weighting
	tone := NewToneSampler(freq, 1000)

	rawBuf := make([]float64, SamplesShort)
	weightedBuf := make([]float64, SamplesShort)
	if err := tone.ReadBlock(rawBuf); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	copy(weightedBuf, rawBuf)

	identitySum := NewIdentityEqualizer().Process(rawBuf)
	weightedSum := NewAWeighting().Process(weightedBuf)

	if weightedSum >= identitySum {
		t.Fatalf("expected A-weighting to attenuate a 60Hz tone relative to identity: weighted=%v identity=%v", weightedSum, identitySum)
	}
}
