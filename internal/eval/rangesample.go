package eval

import (
	"math/rand"

	"barkback/pkg/models"
)

// sampleRange draws a value from r according to mode. Random draws
// uniform(r[0], r[1]); every other mode (Fixed, Progressive, Redeemable,
// Graded) currently returns r[0] — Progressive/Redeemable/Graded are
// declared for future semantics but not yet implemented, matching the
// reference firmware's valueFromRangeType exactly. passRate is accepted for
// forward compatibility with those modes but unused by every branch today,
// including Random.
func sampleRange(r [2]float64, mode models.RangeMode, passRate float64) float64 {
	_ = passRate
	if mode == models.Random {
		lo, hi := r[0], r[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		return lo + rand.Float64()*(hi-lo)
	}
	return r[0]
}

// randIntRange returns a uniform random integer in [lo, hi], or lo if the
// range is empty or inverted.
func randIntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}

// mapRange maps a fractional sample in [0,1] to a percentage in [0,100]
// then linearly onto [collarMin, collarMax], clamped to a valid uint8.
func mapRange(sample float64, collarMin, collarMax int) uint8 {
	pct := sample * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	v := float64(collarMin) + (pct/100.0)*float64(collarMax-collarMin)
	return clampU8(v)
}

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
