package rf

import "barkback/pkg/models"

// pulseBuilder accumulates (level, duration) segments and coalesces
// consecutive segments at the same level, guaranteeing the strict
// low/high/low.../low alternation every encoder is required to produce.
type pulseBuilder struct {
	pulses []models.Pulse
}

func (b *pulseBuilder) high(ns int64) { b.add(true, ns) }
func (b *pulseBuilder) low(ns int64)  { b.add(false, ns) }

func (b *pulseBuilder) add(high bool, ns int64) {
	if n := len(b.pulses); n > 0 && b.pulses[n-1].High == high {
		b.pulses[n-1].DurationNS += ns
		return
	}
	b.pulses = append(b.pulses, models.Pulse{High: high, DurationNS: ns})
}

// bit emits a rise-then-fall bit encoding: a high pulse of riseNS followed
// by a low pulse filling the remainder of periodNS. Used by CaiXianlin and
// Petrainer, whose bit value only changes the rise/fall split, not the
// total bit period.
func (b *pulseBuilder) bit(periodNS, riseNS int64) {
	b.high(riseNS)
	b.low(periodNS - riseNS)
}

// gapBit emits a space-then-pulse bit encoding: a low pulse of gapNS
// followed by a fixed-width high pulse. Used by Petrainer998DR.
func (b *pulseBuilder) gapBit(gapNS, pulseNS int64) {
	b.low(gapNS)
	b.high(pulseNS)
}

// finish returns the coalesced pulse list, padding with zero-duration
// transitions at either end so the sequence always starts and ends low.
func (b *pulseBuilder) finish() models.PulseList {
	pulses := b.pulses
	if len(pulses) == 0 {
		return models.PulseList{{High: false, DurationNS: 0}}
	}
	if pulses[0].High {
		pulses = append([]models.Pulse{{High: false, DurationNS: 0}}, pulses...)
	}
	if pulses[len(pulses)-1].High {
		pulses = append(pulses, models.Pulse{High: false, DurationNS: 0})
	}
	return pulses
}

func clampU8(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
