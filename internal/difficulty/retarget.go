package difficulty

// Config carries the tunable consensus parameters the retarget and PoW-key
// schedules are parameterized by.
type Config struct {
	BlockTime            int64 // seconds, the target spacing between blocks
	DifficultyWindow     uint64
	DifficultyCut        uint64
	DifficultyLag        uint64
	MinimumDifficulty    Difficulty
	PowKeyChangeDelay    uint64
	PowKeyChangeInterval uint64
}

// HeaderInfo is the slice of a historical header the retarget algorithm
// needs: its timestamp and the difficulty it was mined at.
type HeaderInfo struct {
	Timestamp  int64
	Difficulty Difficulty
}

// HeaderLookup fetches a previously committed header's info by height.
// Height 0 is the genesis block, whose timestamp is defined as 0 for
// retarget purposes and need not be served by the lookup.
type HeaderLookup func(height uint64) (HeaderInfo, bool)

// NextDifficulty computes the difficulty a candidate block at height n with
// the given candidate timestamp must meet, per the windowed median-trimmed
// retarget algorithm: gather the window of prior headers at heights
// [n-lag-window, n-lag-1] (clamped to exclude genesis), drop
// DifficultyCut entries from each end by timestamp, and scale the previous
// block's difficulty by the ratio of expected to actual average block
// spacing across the trimmed window. Returns MinimumDifficulty until at
// least one prior header is available to measure against, and never
// returns anything below MinimumDifficulty.
func NextDifficulty(cfg Config, n uint64, candidateTimestamp int64, lookup HeaderLookup) Difficulty {
	if n == 0 {
		return cfg.MinimumDifficulty
	}
	prevInfo, havePrev := lookupOrGenesis(n-1, lookup)
	if !havePrev {
		return cfg.MinimumDifficulty
	}

	lo, hi := windowBounds(cfg, n)
	if hi < 1 || hi < lo {
		return cfg.MinimumDifficulty
	}

	var window []HeaderInfo
	for h := lo; h <= hi; h++ {
		info, ok := lookupOrGenesis(h, lookup)
		if !ok {
			return cfg.MinimumDifficulty
		}
		window = append(window, info)
	}
	window = trimWindow(window, cfg.DifficultyCut)

	oldest, newest, intervals := windowExtremes(window)
	if intervals == 0 {
		// A single-entry window can't measure a spacing on its own; bridge
		// to the header immediately below it (genesis counts as timestamp
		// 0) to form one interval.
		anchorHeight := lo - 1
		anchor, ok := lookupOrGenesis(anchorHeight, lookup)
		if !ok {
			return cfg.MinimumDifficulty
		}
		oldest = anchor.Timestamp
		intervals = 1
	}

	actual := newest - oldest
	if actual <= 0 {
		actual = 1
	}
	expected := cfg.BlockTime * int64(intervals)

	prevPower := prevInfo.Difficulty.Power()
	newPower := (uint64(prevPower) * uint64(expected)) / uint64(actual)

	if Difficulty(newPower) < cfg.MinimumDifficulty {
		return cfg.MinimumDifficulty
	}
	return Difficulty(newPower)
}

func lookupOrGenesis(height uint64, lookup HeaderLookup) (HeaderInfo, bool) {
	if height == 0 {
		return HeaderInfo{Timestamp: 0}, true
	}
	return lookup(height)
}

func windowBounds(cfg Config, n uint64) (lo, hi uint64) {
	span := cfg.DifficultyLag + cfg.DifficultyWindow
	if n > span {
		lo = n - span
	} else {
		lo = 0
	}
	if lo < 1 {
		lo = 1
	}
	if n > cfg.DifficultyLag+1 {
		hi = n - cfg.DifficultyLag - 1
	} else {
		hi = 0
	}
	return lo, hi
}

func trimWindow(window []HeaderInfo, cut uint64) []HeaderInfo {
	if cut == 0 || uint64(len(window)) <= 2*cut {
		return window
	}
	sorted := append([]HeaderInfo(nil), window...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Timestamp > sorted[j].Timestamp; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[cut : uint64(len(sorted))-cut]
}

func windowExtremes(window []HeaderInfo) (oldest, newest int64, intervals uint64) {
	if len(window) == 0 {
		return 0, 0, 0
	}
	oldest, newest = window[0].Timestamp, window[0].Timestamp
	for _, w := range window[1:] {
		if w.Timestamp < oldest {
			oldest = w.Timestamp
		}
		if w.Timestamp > newest {
			newest = w.Timestamp
		}
	}
	if len(window) < 2 {
		return oldest, newest, 0
	}
	return oldest, newest, uint64(len(window) - 1)
}
