package statetree

import (
	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/metrics"
	"github.com/ziesha-network/bazuka-go/internal/zk"
)

// ResetContract bulk-loads an externally supplied snapshot (e.g. fetched
// from a peer instead of replayed transaction-by-transaction) and then
// trust-but-verifies it: it replays up to len(expectedTargets) rollback
// records backward from height, checking the resulting root against the
// caller-supplied target at each step, and stops at the first mismatch
// without undoing any replay already applied, the mismatching one included. A caller that supplies
// no expectedTargets accepts the snapshot on faith.
func (m *Manager) ResetContract(store kvstore.Store, cid ContractId, contract *Contract, height uint64, state ContractState, expectedTargets []zk.Scalar) error {
	if err := m.wipeContractState(store, cid); err != nil {
		return err
	}

	var size uint64
	for _, d := range state.Data {
		if _, _, err := m.SetData(store, cid, d.Locator, contract.StateModel, d.Value); err != nil {
			return err
		}
		if !d.Value.IsZero() {
			size++
		}
	}
	if err := store.Update([]kvstore.Op{
		kvstore.Put(keyRoot(cid), encodeCompressedState(CompressedState{StateHash: state.Root.StateHash, StateSize: size})),
		kvstore.Put(keyHeight(cid), encodeHeight(height)),
	}); err != nil {
		return err
	}

	curHeight := height
	for i := 0; i < len(expectedTargets) && i < MaxRollbacks; i++ {
		if err := m.RollbackContract(store, cid, contract, curHeight); err != nil {
			return err
		}
		curHeight--
		root, err := m.GetRoot(store, cid)
		if err != nil {
			return err
		}
		if !root.StateHash.Equal(expectedTargets[i]) {
			return ErrRollbackRootMismatch
		}
	}
	return nil
}

// DeleteContract permanently removes a contract's entire footprint: its
// definition, current root/height, and all leaf/aux/rollback storage. Used
// when a chain rollback undoes the block that deployed the contract in the
// first place, so no trace of it survives the rollback.
func (m *Manager) DeleteContract(store kvstore.Store, cid ContractId) error {
	if err := m.wipeContractState(store, cid); err != nil {
		return err
	}
	if err := store.Update([]kvstore.Op{
		kvstore.Remove(keyContract(cid)),
		kvstore.Remove(keyRoot(cid)),
		kvstore.Remove(keyHeight(cid)),
	}); err != nil {
		return err
	}
	metrics.ContractCount.Dec()
	return nil
}

// wipeContractState removes every leaf, internal node and rollback record
// previously stored for cid, leaving its contract definition untouched.
func (m *Manager) wipeContractState(store kvstore.Store, cid ContractId) error {
	var ops []kvstore.Op
	for _, prefix := range [][]byte{
		append([]byte(prefixValue), cid[:]...),
		append([]byte(prefixAux), cid[:]...),
		append([]byte(prefixRollback), cid[:]...),
	} {
		pairs, err := store.Pairs(prefix)
		if err != nil {
			return err
		}
		for _, kv := range pairs {
			ops = append(ops, kvstore.Remove(kv.Key))
		}
	}
	if len(ops) == 0 {
		return nil
	}
	return store.Update(ops)
}
