package statetree

import (
	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/zk"
)

// UpdateContract applies delta (a batch of leaf writes) to cid's state,
// recording a rollback record capturing every touched locator's pre-image,
// advances the contract to height, and trims any rollback record older than
// MaxRollbacks. It is the only way ordinary block application should mutate
// contract state; RollbackContract is its exact inverse.
func (m *Manager) UpdateContract(store kvstore.Store, cid ContractId, contract *Contract, delta []DeltaEntry, height uint64) error {
	root, err := m.GetRoot(store, cid)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(delta))
	var record []rollbackEntry
	var sizeDelta int64
	newRoot := root.StateHash

	for _, d := range delta {
		key := string(encodeLocator(d.Locator))
		if !seen[key] {
			seen[key] = true
			old, err := m.GetData(store, cid, d.Locator, contract.StateModel)
			if err != nil {
				return err
			}
			if old.IsZero() {
				record = append(record, rollbackEntry{Locator: d.Locator, Present: false})
			} else {
				record = append(record, rollbackEntry{Locator: d.Locator, Present: true, Value: old})
			}
		}
		root, delta1, err := m.SetData(store, cid, d.Locator, contract.StateModel, d.Value)
		if err != nil {
			return err
		}
		sizeDelta += delta1
		newRoot = root
	}

	if height > 0 {
		if err := store.Update([]kvstore.Op{
			kvstore.Put(keyRollback(cid, height-1), encodeRollbackRecord(record)),
		}); err != nil {
			return err
		}
		if height > MaxRollbacks {
			if err := store.Update([]kvstore.Op{kvstore.Remove(keyRollback(cid, height-1-MaxRollbacks))}); err != nil {
				return err
			}
		}
	}

	newSize := uint64(int64(root.StateSize) + sizeDelta)
	return store.Update([]kvstore.Op{
		kvstore.Put(keyRoot(cid), encodeCompressedState(CompressedState{StateHash: newRoot, StateSize: newSize})),
		kvstore.Put(keyHeight(cid), encodeHeight(height)),
	})
}

// RollbackContract undoes the most recent UpdateContract, restoring every
// touched locator to its pre-image and dropping the contract's height back
// to currentHeight-1. It fails with ErrNoRollbackRecord once a contract's
// history has been rolled back past its retained window.
func (m *Manager) RollbackContract(store kvstore.Store, cid ContractId, contract *Contract, currentHeight uint64) error {
	if currentHeight == 0 {
		return ErrNoRollbackRecord
	}
	recordKey := keyRollback(cid, currentHeight-1)
	blob, ok, err := store.Get(recordKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRollbackRecord
	}
	record, err := decodeRollbackRecord(blob)
	if err != nil {
		return err
	}

	root, err := m.GetRoot(store, cid)
	if err != nil {
		return err
	}
	newRoot := root.StateHash
	var sizeDelta int64
	for _, e := range record {
		value := zk.Zero
		if e.Present {
			value = e.Value
		}
		r, d, err := m.SetData(store, cid, e.Locator, contract.StateModel, value)
		if err != nil {
			return err
		}
		sizeDelta += d
		newRoot = r
	}

	newSize := uint64(int64(root.StateSize) + sizeDelta)
	if err := store.Update([]kvstore.Op{
		kvstore.Remove(recordKey),
		kvstore.Put(keyRoot(cid), encodeCompressedState(CompressedState{StateHash: newRoot, StateSize: newSize})),
		kvstore.Put(keyHeight(cid), encodeHeight(currentHeight-1)),
	}); err != nil {
		return err
	}
	return nil
}
