package kvstore

import "bytes"

// overlay is the write-buffering layer Mirror() returns. Reads check the
// overlay first (including tombstones for removed keys) and fall through to
// the base store; writes land only in the overlay until ToOps() is applied
// to the base in one Update call.
type overlay struct {
	base    Store
	writes  map[string][]byte // nil value means "removed"
	touched []string          // insertion order, for deterministic ToOps
}

func newOverlay(base Store) *overlay {
	return &overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (o *overlay) Get(key []byte) ([]byte, bool, error) {
	if v, hit := o.writes[string(key)]; hit {
		if v == nil {
			return nil, false, nil
		}
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}
	return o.base.Get(key)
}

func (o *overlay) Pairs(prefix []byte) ([]KV, error) {
	basePairs, err := o.base.Pairs(prefix)
	if err != nil {
		return nil, err
	}

	merged := make(map[string][]byte, len(basePairs))
	for _, kv := range basePairs {
		merged[string(kv.Key)] = kv.Value
	}
	for k, v := range o.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	out := make([]KV, 0, len(merged))
	for k, v := range merged {
		out = append(out, KV{Key: []byte(k), Value: append([]byte(nil), v...)})
	}
	sortPairs(out)
	return out, nil
}

func (o *overlay) Update(ops []Op) error {
	for _, op := range ops {
		key := string(op.Key)
		if _, isNew := o.writes[key]; !isNew {
			o.touched = append(o.touched, key)
		}
		if op.Remove {
			o.writes[key] = nil
		} else {
			v := make([]byte, len(op.Value))
			copy(v, op.Value)
			o.writes[key] = v
		}
	}
	return nil
}

// Mirror layers a fresh overlay over this overlay, so nested mirroring
// (e.g. drafting inside an already-mirrored fork) works without touching
// the ultimate base.
func (o *overlay) Mirror() Store {
	return newOverlay(o)
}

// ToOps returns the overlay's accumulated writes as an ops batch, in the
// order keys were first touched, with the final value of each key (earlier
// writes to the same key are superseded, matching ordinary map semantics).
func (o *overlay) ToOps() []Op {
	ops := make([]Op, 0, len(o.touched))
	for _, key := range o.touched {
		v := o.writes[key]
		if v == nil {
			ops = append(ops, Remove([]byte(key)))
		} else {
			ops = append(ops, Put([]byte(key), v))
		}
	}
	return ops
}

func (o *overlay) Checksum() ([32]byte, error) {
	pairs, err := o.Pairs(nil)
	if err != nil {
		return [32]byte{}, err
	}
	return checksumPairs(pairs), nil
}
