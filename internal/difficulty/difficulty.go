// Package difficulty implements the chain's proof-of-work target encoding,
// windowed median-trimmed difficulty retargeting, and the PoW-key rotation
// schedule miners must hash headers against.
package difficulty

import "math/big"

// Difficulty is the compact power encoding of a PoW target: the target is
// canonically (2^256 - 1) >> power, so a higher Difficulty means more
// leading zero bits and a harder-to-meet target.
type Difficulty uint32

// Power returns the leading-zero-bit count this difficulty encodes.
func (d Difficulty) Power() uint32 { return uint32(d) }

// FromPower constructs the canonical Difficulty for a given power.
func FromPower(power uint32) Difficulty { return Difficulty(power) }

var maxTarget = func() *big.Int {
	t := new(big.Int).Lsh(big.NewInt(1), 256)
	return t.Sub(t, big.NewInt(1))
}()

// Target computes the 256-bit PoW target this difficulty encodes.
func (d Difficulty) Target() *big.Int {
	return new(big.Int).Rsh(maxTarget, uint(d))
}

// FromTarget derives the Difficulty whose canonical target has the same
// leading-zero-bit count as target (an approximation for targets that are
// not themselves canonical all-ones-after-leading-zeros values).
func FromTarget(target *big.Int) Difficulty {
	bitLen := target.BitLen()
	if bitLen > 256 {
		return 0
	}
	return Difficulty(256 - bitLen)
}

// MeetsTarget reports whether a header hash, read as a big-endian 256-bit
// integer, is at or below d's target.
func MeetsTarget(headerHash [32]byte, d Difficulty) bool {
	h := new(big.Int).SetBytes(headerHash[:])
	return h.Cmp(d.Target()) <= 0
}
