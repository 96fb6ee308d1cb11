package difficulty

import "testing"

// TestRetargetScenario reproduces the windowed retarget trajectory: with a
// 2-block window, 60s target spacing, and a power-20 floor, blocks applied
// at t=30,60,120,480 observe powers 20,40,80,80, and a block at t=540
// retargets back down to the floor.
func TestRetargetScenario(t *testing.T) {
	cfg := Config{
		BlockTime:         60,
		DifficultyWindow:  2,
		DifficultyCut:     0,
		DifficultyLag:     0,
		MinimumDifficulty: FromPower(20),
	}

	headers := map[uint64]HeaderInfo{}
	lookup := func(h uint64) (HeaderInfo, bool) {
		info, ok := headers[h]
		return info, ok
	}

	apply := func(height uint64, timestamp int64) Difficulty {
		d := NextDifficulty(cfg, height, timestamp, lookup)
		headers[height] = HeaderInfo{Timestamp: timestamp, Difficulty: d}
		return d
	}

	cases := []struct {
		height    uint64
		timestamp int64
		wantPower uint32
	}{
		{1, 30, 20},
		{2, 60, 40},
		{3, 120, 80},
		{4, 480, 80},
		{5, 540, 20},
	}
	for _, c := range cases {
		got := apply(c.height, c.timestamp)
		if got.Power() != c.wantPower {
			t.Fatalf("block %d (t=%d): power = %d, want %d", c.height, c.timestamp, got.Power(), c.wantPower)
		}
	}
}

func TestRetargetNeverGoesBelowMinimum(t *testing.T) {
	cfg := Config{
		BlockTime:         60,
		DifficultyWindow:  2,
		DifficultyCut:     0,
		DifficultyLag:     0,
		MinimumDifficulty: FromPower(20),
	}
	headers := map[uint64]HeaderInfo{
		1: {Timestamp: 0, Difficulty: FromPower(20)},
		2: {Timestamp: 100000, Difficulty: FromPower(20)},
	}
	lookup := func(h uint64) (HeaderInfo, bool) {
		info, ok := headers[h]
		return info, ok
	}
	d := NextDifficulty(cfg, 3, 200000, lookup)
	if d.Power() != 20 {
		t.Fatalf("a wildly slow window should floor at the minimum, got power %d", d.Power())
	}
}
