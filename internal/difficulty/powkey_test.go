package difficulty

import "testing"

// TestPowKeyRotationSchedule reproduces the rotation schedule: with a
// 4-block delay and an 8-block interval, blocks [0,4) use the base key,
// [4,12) rotate to block 0's header hash, and [12,20) rotate to block 8's.
func TestPowKeyRotationSchedule(t *testing.T) {
	cfg := Config{PowKeyChangeDelay: 4, PowKeyChangeInterval: 8}

	hashes := map[uint64][32]byte{}
	for h := uint64(0); h < 20; h++ {
		var hash [32]byte
		hash[0] = byte(h + 1)
		hashes[h] = hash
	}
	lookup := func(h uint64) ([32]byte, bool) {
		v, ok := hashes[h]
		return v, ok
	}

	want := func(n uint64) PowKey {
		switch {
		case n < 4:
			return BaseKey
		case n < 12:
			return PowKey(hashes[0])
		default:
			return PowKey(hashes[8])
		}
	}

	for n := uint64(0); n < 20; n++ {
		got, err := PowKeyForHeight(cfg, n, lookup)
		if err != nil {
			t.Fatalf("PowKeyForHeight(%d): %v", n, err)
		}
		if got != want(n) {
			t.Errorf("PowKeyForHeight(%d) = %x, want %x", n, got, want(n))
		}
	}
}

func TestBaseKeyIsStableASCII(t *testing.T) {
	var expect PowKey
	copy(expect[:], "BAZUKA BASE KEY")
	if BaseKey != expect {
		t.Fatal("BaseKey must be the literal ASCII bytes, zero-padded")
	}
}
