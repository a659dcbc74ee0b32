package difficulty

import (
	"math/big"
	"testing"
)

func TestBigToCompactRoundTrip(t *testing.T) {
	tests := []uint32{
		0x1d00ffff,
		0x207fffff,
		0x1e7fffff,
		0x1c0ffff0,
	}

	for _, bits := range tests {
		got := BigToCompact(CompactToBig(bits))
		if got != bits {
			t.Errorf("BigToCompact(CompactToBig(%08x)) = %08x, want %08x", bits, got, bits)
		}
	}
}

func TestCompactToBigZero(t *testing.T) {
	if BigToCompact(big.NewInt(0)) != 0 {
		t.Errorf("BigToCompact(0) should be 0")
	}
	if CompactToBig(0).Sign() != 0 {
		t.Errorf("CompactToBig(0) should be 0")
	}
}

func TestCalcWork(t *testing.T) {
	// A lower target (harder difficulty) must yield more work.
	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	if hard.Cmp(easy) <= 0 {
		t.Errorf("CalcWork: harder difficulty produced less work: easy=%s hard=%s", easy, hard)
	}

	if CalcWork(0x00800000).Sign() != 0 {
		t.Errorf("CalcWork of a negative target should be zero")
	}
}
