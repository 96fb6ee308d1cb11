package difficulty

import "fmt"

// PowKey is the 32-byte value miners mix into their hashing input; it
// rotates on a schedule so stale mining hardware locked to an old key
// cannot silently keep hashing against a retired epoch.
type PowKey [32]byte

// BaseKey is the hard-coded key used before any rotation has occurred.
var BaseKey = func() PowKey {
	var k PowKey
	copy(k[:], "BAZUKA BASE KEY")
	return k
}()

// HeaderHashLookup fetches a previously committed header's hash by height.
type HeaderHashLookup func(height uint64) ([32]byte, bool)

// PowKeyForHeight returns the key block n must be hashed against. Within
// each rotation epoch, the switch to that epoch's key is delayed by
// PowKeyChangeDelay blocks (folded into the epoch boundary itself) so
// miners have time to observe the new key before it takes effect.
func PowKeyForHeight(cfg Config, n uint64, lookup HeaderHashLookup) (PowKey, error) {
	epoch := (n + cfg.PowKeyChangeDelay) / cfg.PowKeyChangeInterval
	if epoch == 0 || n < cfg.PowKeyChangeDelay {
		return BaseKey, nil
	}
	refHeight := (epoch - 1) * cfg.PowKeyChangeInterval
	hash, ok := lookup(refHeight)
	if !ok {
		return PowKey{}, fmt.Errorf("difficulty: missing header at reference height %d for pow-key rotation", refHeight)
	}
	return PowKey(hash), nil
}
