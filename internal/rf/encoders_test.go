package rf

import (
	"testing"

	"barkback/pkg/models"
)

func assertAlternatesAndEndsLow(t *testing.T, p models.PulseList) {
	t.Helper()
	if len(p) == 0 {
		t.Fatalf("empty pulse list")
	}
	if p[0].High {
		t.Fatalf("pulse list must start low, got %+v", p[0])
	}
	if p[len(p)-1].High {
		t.Fatalf("pulse list must end low, got %+v", p[len(p)-1])
	}
	for i := 1; i < len(p); i++ {
		if p[i].High == p[i-1].High {
			t.Fatalf("pulse %d does not alternate level from previous: %+v vs %+v", i, p[i-1], p[i])
		}
	}
}

func TestEncodersAlternateAndEndLow(t *testing.T) {
	cases := []struct {
		model models.ShockerModel
		kind  models.CommandKind
	}{
		{models.CaiXianlin, models.Shock},
		{models.CaiXianlin, models.Vibrate},
		{models.CaiXianlin, models.Sound},
		{models.Petrainer, models.Shock},
		{models.Petrainer, models.Vibrate},
		{models.Petrainer, models.Sound},
	}
	for _, c := range cases {
		p := Encode(c.model, 0xCAFE, c.kind, 50)
		assertAlternatesAndEndsLow(t, p)
	}
	p := encodePetrainer998DR(23, 10)
	assertAlternatesAndEndsLow(t, p)
}

func TestCaiXianlinChecksumRoundTrip(t *testing.T) {
	id := uint16(0xCAFE)
	idHi, idLo := uint8(id>>8), uint8(id)
	channel := uint8(caiChannel)
	fn := caiFunction(models.Shock)
	strength := uint8(50)

	want := caiXianlinChecksum(idHi, idLo, channel, fn, strength)

	pulses := encodeCaiXianlin(id, models.Shock, strength)
	// Decode the 40-bit payload back out of the pulse train: every bit is
	// a (high, low) pair whose rise width discriminates 0 from 1, after the
	// leading synthetic zero pad and the preamble.
	bits := decodeCaiXianlinBits(t, pulses)
	if len(bits) != 40 {
		t.Fatalf("expected 40 payload bits, got %d", len(bits))
	}
	gotIDHi := bitsToByte(bits[0:8])
	gotIDLo := bitsToByte(bits[8:16])
	gotChannel := bitsToByte(bits[16:20])
	gotFn := bitsToByte(bits[20:24])
	gotStrength := bitsToByte(bits[24:32])
	gotChecksum := bitsToByte(bits[32:40])

	if gotIDHi != idHi || gotIDLo != idLo {
		t.Fatalf("id mismatch: got (%d,%d) want (%d,%d)", gotIDHi, gotIDLo, idHi, idLo)
	}
	if gotChannel != channel {
		t.Fatalf("channel mismatch: got %d want %d", gotChannel, channel)
	}
	if gotFn != fn {
		t.Fatalf("function mismatch: got %d want %d", gotFn, fn)
	}
	if gotStrength != strength {
		t.Fatalf("strength mismatch: got %d want %d", gotStrength, strength)
	}
	if gotChecksum != want {
		t.Fatalf("checksum mismatch: got %d want %d", gotChecksum, want)
	}
}

// decodeCaiXianlinBits strips the preamble/leading pad and reads back one
// bit per (high, low) pulse pair, distinguishing 0/1 by the high segment's
// duration. The preamble's closing 724ns high is coalesced with the first
// bit's rise, so it is subtracted from the first high segment.
func decodeCaiXianlinBits(t *testing.T, p models.PulseList) []int {
	t.Helper()
	i := 0
	if !p[0].High {
		i++ // skip synthetic leading low pad
	}
	// Skip the preamble's (high 840, low 1440) pair.
	i += 2
	preambleTail := int64(724)
	var bits []int
	for i+1 < len(p) && len(bits) < 40 {
		high, low := p[i], p[i+1]
		if !high.High || low.High {
			break
		}
		rise := high.DurationNS - preambleTail
		preambleTail = 0
		if rise == caiBitOneRiseNS {
			bits = append(bits, 1)
		} else if rise == caiBitZeroRiseNS {
			bits = append(bits, 0)
		} else {
			break
		}
		i += 2
	}
	return bits
}

func bitsToByte(bits []int) uint8 {
	var v uint8
	for _, b := range bits {
		v = v<<1 | uint8(b)
	}
	return v
}

func TestDogTronicChecksumAllStrengths(t *testing.T) {
	for strength := uint8(0); strength <= 15; strength++ {
		got := dogTronicChecksum(strength)
		want := uint8((uint16(0b0100+strength) % 16) + (uint16(0b0100+strength) >> 4))
		if got != want {
			t.Fatalf("strength %d: checksum got %d want %d", strength, got, want)
		}
		// The swap must be its own well-defined permutation of the nibble;
		// reapplying it to the reordered value must restore the checksum, so
		// two distinct checksums never collide onto the same wire nibble.
		wire := dogTronicSwapNibble(got & 0xF)
		if back := dogTronicSwapNibble(wire); back != got&0xF {
			t.Fatalf("strength %d: swap not reversible: %04b -> %04b -> %04b", strength, got&0xF, wire, back)
		}
	}
}

func TestPetrainer998DRIDWhitelistNotEnforcedByEncoder(t *testing.T) {
	// The receiver's ID whitelist (14/23/44/53) is a property of the
	// hardware, not the encoder: any ID must still encode a well-formed
	// frame.
	for _, id := range []uint16{1, 14, 99, 999} {
		p := encodePetrainer998DR(id, 8)
		assertAlternatesAndEndsLow(t, p)
	}
}
