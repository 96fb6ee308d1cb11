package chain

import (
	"github.com/ziesha-network/bazuka-go/internal/difficulty"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// Config carries the tunable consensus parameters the chain engine enforces,
// mirroring the teacher's small constructor-parameter-struct convention
// (sharechain's DifficultyCalculator{targetTime}) rather than a generic
// config-file loader.
type Config struct {
	Difficulty difficulty.Config

	// MedianTimeSpan is how many of the most recent block timestamps a
	// candidate block's own timestamp must not fall below the median of.
	MedianTimeSpan int

	// BlockReward is the fixed subsidy minted to the miner by every
	// block's coinbase, on top of collected fees. Monetary-policy
	// governance (a reward schedule/halving curve) is a spec Non-goal;
	// this repo ships a single constant, defaulting to zero so the whole
	// native-token supply is accounted for at genesis and conservation
	// holds trivially.
	BlockReward amount.Amount

	// GenesisSupply is the total Ziesha minted to the genesis coinbase
	// recipient at height 0.
	GenesisSupply amount.Amount
}

// DefaultMainnetConfig returns the reference mainnet-shaped parameters.
func DefaultMainnetConfig() Config {
	return Config{
		Difficulty: difficulty.Config{
			BlockTime:            60,
			DifficultyWindow:     128,
			DifficultyCut:        16,
			DifficultyLag:        16,
			MinimumDifficulty:    difficulty.FromPower(20),
			PowKeyChangeDelay:    64,
			PowKeyChangeInterval: 1024,
		},
		MedianTimeSpan: 10,
		BlockReward:    0,
		GenesisSupply:  2_000_000_000_000_000_000,
	}
}

// DefaultTestConfig returns small parameters suited to the bit-exact test
// vectors in spec.md §8 (difficulty_window=2, block_time=60,
// minimum_power=20, pow_key_change_delay=4, pow_key_change_interval=8).
func DefaultTestConfig() Config {
	return Config{
		Difficulty: difficulty.Config{
			BlockTime:            60,
			DifficultyWindow:     2,
			DifficultyCut:        0,
			DifficultyLag:        0,
			MinimumDifficulty:    difficulty.FromPower(20),
			PowKeyChangeDelay:    4,
			PowKeyChangeInterval: 8,
		},
		MedianTimeSpan: 10,
		BlockReward:    0,
		GenesisSupply:  2_000_000_000_000_000_000,
	}
}
