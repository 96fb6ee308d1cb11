package difficulty

import "testing"

func TestFromPowerRoundTrip(t *testing.T) {
	for _, p := range []uint32{0, 1, 20, 80, 255} {
		d := FromPower(p)
		if d.Power() != p {
			t.Fatalf("FromPower(%d).Power() = %d", p, d.Power())
		}
		if got := FromTarget(d.Target()); got.Power() != p {
			t.Fatalf("FromTarget(FromPower(%d).Target()).Power() = %d", p, got.Power())
		}
	}
}

func TestHigherPowerIsHarderTarget(t *testing.T) {
	low := FromPower(10).Target()
	high := FromPower(20).Target()
	if high.Cmp(low) >= 0 {
		t.Fatal("a higher power should produce a smaller (harder) target")
	}
}

func TestMeetsTarget(t *testing.T) {
	d := FromPower(8) // target = 2^248 - 1: any hash with a zero first byte meets it
	var meets [32]byte
	meets[0] = 0x00
	meets[1] = 0xFF
	if !MeetsTarget(meets, d) {
		t.Fatal("a hash with a zero leading byte should meet an 8-bit-power target")
	}

	var fails [32]byte
	fails[0] = 0x01
	if MeetsTarget(fails, d) {
		t.Fatal("a hash with a nonzero leading byte should not meet an 8-bit-power target")
	}
}
