package audio

import "testing"

func TestScaleRawSampleShiftsBy8Bits(t *testing.T) {
	cases := []struct {
		raw  int32
		want float64
	}{
		{raw: 0, want: 0},
		{raw: 256, want: 1},
		{raw: -256, want: -1},
		{raw: 1 << 16, want: 1 << 8},
	}
	for _, c := range cases {
		if got := ScaleRawSample(c.raw); got != c.want {
			t.Fatalf("ScaleRawSample(%d) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestI2SSamplerAppliesScaling(t *testing.T) {
	read := func(buf []int32) error {
		for i := range buf {
			buf[i] = 512
		}
		return nil
	}
	s := NewI2SSampler(read)
	out := make([]float64, SamplesShort)
	if err := s.ReadBlock(out); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	for i, v := range out {
		if v != 2 {
			t.Fatalf("sample %d = %v, want 2", i, v)
		}
	}
}

func TestToneSamplerProducesBoundedAmplitude(t *testing.T) {
	tone := NewToneSampler(1000, 500)
	buf := make([]float64, SamplesShort)
	if err := tone.ReadBlock(buf); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	for i, v := range buf {
		if v > 500 || v < -500 {
			t.Fatalf("sample %d = %v exceeds amplitude bound", i, v)
		}
	}
}
