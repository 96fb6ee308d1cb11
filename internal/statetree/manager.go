package statetree

import (
	"errors"
	"fmt"

	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/metrics"
	"github.com/ziesha-network/bazuka-go/internal/zk"
)

// MaxRollbacks bounds how many historical rollback records a contract
// retains, mirroring the chain's own bounded rollback history.
const MaxRollbacks = 5

var (
	ErrContractNotFound     = errors.New("statetree: contract not found")
	ErrNoRollbackRecord     = errors.New("statetree: no rollback record at that height")
	ErrRollbackRootMismatch = errors.New("statetree: replayed root does not match expected target")
)

// Manager implements the sparse 4-ary Merkle tree state machine every
// deployed contract's storage is kept in. It is stateless itself; all state
// lives in the kvstore.Store passed to each call, so callers can run it
// against a Mirror() overlay to draft speculatively.
type Manager struct{}

// NewManager constructs a state manager. It holds no state of its own.
func NewManager() *Manager { return &Manager{} }

// PutContract records a newly deployed contract's definition and seeds its
// root/height from InitialState.
func (m *Manager) PutContract(store kvstore.Store, cid ContractId, c *Contract) error {
	blob := encodeContract(c)
	if err := store.Update([]kvstore.Op{kvstore.Put(keyContract(cid), blob)}); err != nil {
		return err
	}
	if err := store.Update([]kvstore.Op{
		kvstore.Put(keyRoot(cid), encodeCompressedState(c.InitialState)),
		kvstore.Put(keyHeight(cid), encodeHeight(0)),
	}); err != nil {
		return err
	}
	metrics.ContractCount.Inc()
	return nil
}

// GetContract fetches a previously deployed contract's definition.
func (m *Manager) GetContract(store kvstore.Store, cid ContractId) (*Contract, error) {
	v, ok, err := store.Get(keyContract(cid))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrContractNotFound
	}
	return decodeContract(v)
}

// GetRoot returns a contract's current compressed state.
func (m *Manager) GetRoot(store kvstore.Store, cid ContractId) (CompressedState, error) {
	v, ok, err := store.Get(keyRoot(cid))
	if err != nil {
		return CompressedState{}, err
	}
	if !ok {
		return CompressedState{}, ErrContractNotFound
	}
	return decodeCompressedState(v)
}

// GetHeight returns the height a contract's state was last updated at.
func (m *Manager) GetHeight(store kvstore.Store, cid ContractId) (uint64, error) {
	v, ok, err := store.Get(keyHeight(cid))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrContractNotFound
	}
	return decodeHeight(v), nil
}

// GetData reads the scalar stored at locator, or the model's default if
// nothing has ever been written there. model is either the contract's root
// model, which loc is validated against, or the Scalar leaf model itself (as
// the tree's own recomputation passes it), in which case loc is not
// validated.
func (m *Manager) GetData(store kvstore.Store, cid ContractId, loc Locator, model *StateModel) (zk.Scalar, error) {
	leafModel := model
	if model.Kind != KindScalar {
		var err error
		if leafModel, err = Locate(model, loc); err != nil {
			return zk.Zero, err
		}
	}
	v, ok, err := store.Get(keyValue(cid, loc, true))
	if err != nil {
		return zk.Zero, err
	}
	if !ok {
		return DefaultHash(leafModel), nil
	}
	return zk.ScalarFromBytes([32]byte(v)), nil
}

// getAncestorValue reads the compressed value of a non-leaf locator (a List
// or Struct subtree), or that subtree's default compression if it has never
// diverged from default.
func (m *Manager) getAncestorValue(store kvstore.Store, cid ContractId, loc Locator, model *StateModel) (zk.Scalar, error) {
	v, ok, err := store.Get(keyValue(cid, loc, false))
	if err != nil {
		return zk.Zero, err
	}
	if !ok {
		return DefaultHash(model), nil
	}
	return zk.ScalarFromBytes([32]byte(v)), nil
}

// SetData writes a single scalar leaf and incrementally recomputes every
// ancestor's compressed value up to (but not including) the contract root,
// returning the contract's new overall root and the signed change in
// non-default leaf count this write caused. It does not touch local_root or
// local_height; callers batch those through UpdateContract.
func (m *Manager) SetData(store kvstore.Store, cid ContractId, loc Locator, model *StateModel, value zk.Scalar) (zk.Scalar, int64, error) {
	leafModel, err := Locate(model, loc)
	if err != nil {
		return zk.Zero, 0, err
	}

	old, err := m.GetData(store, cid, loc, model)
	if err != nil {
		return zk.Zero, 0, err
	}
	var sizeDelta int64
	if old.IsZero() && !value.IsZero() {
		sizeDelta = 1
	} else if !old.IsZero() && value.IsZero() {
		sizeDelta = -1
	}

	leafDefault := DefaultHash(leafModel)
	if err := m.writeValue(store, cid, loc, true, value, leafDefault); err != nil {
		return zk.Zero, 0, err
	}

	cur := append(Locator(nil), loc...)
	curValue := value
	for len(cur) > 0 {
		childIdx := cur[len(cur)-1]
		parentLoc := cur[:len(cur)-1]
		// parentLoc ends at a List or Struct, which Locate rejects; loc was
		// validated above, so walk the model directly.
		parentModel := model
		for _, idx := range parentLoc {
			if parentModel.Kind == KindList {
				parentModel = parentModel.ItemType
			} else {
				parentModel = parentModel.Fields[idx]
			}
		}
		newVal, err := m.recomputeAncestor(store, cid, parentLoc, parentModel, childIdx, curValue)
		if err != nil {
			return zk.Zero, 0, err
		}
		if err := m.writeValue(store, cid, parentLoc, false, newVal, DefaultHash(parentModel)); err != nil {
			return zk.Zero, 0, err
		}
		cur = parentLoc
		curValue = newVal
	}
	return curValue, sizeDelta, nil
}

func (m *Manager) writeValue(store kvstore.Store, cid ContractId, loc Locator, isLeaf bool, value, defaultValue zk.Scalar) error {
	key := keyValue(cid, loc, isLeaf)
	if value.Equal(defaultValue) {
		return store.Update([]kvstore.Op{kvstore.Remove(key)})
	}
	b := value.Bytes()
	return store.Update([]kvstore.Op{kvstore.Put(key, b[:])})
}

// recomputeAncestor computes parentModel's new compressed value given that
// its child at childIdx just changed to childValue.
func (m *Manager) recomputeAncestor(store kvstore.Store, cid ContractId, parentLoc Locator, parentModel *StateModel, childIdx uint32, childValue zk.Scalar) (zk.Scalar, error) {
	switch parentModel.Kind {
	case KindStruct:
		vals := make([]zk.Scalar, len(parentModel.Fields))
		for i, f := range parentModel.Fields {
			if uint32(i) == childIdx {
				vals[i] = childValue
				continue
			}
			siblingLoc := append(append(Locator(nil), parentLoc...), uint32(i))
			var err error
			if f.Kind == KindScalar {
				vals[i], err = m.GetData(store, cid, siblingLoc, mustLocate(parentModel, Locator{uint32(i)}))
			} else {
				vals[i], err = m.getAncestorValue(store, cid, siblingLoc, f)
			}
			if err != nil {
				return zk.Zero, err
			}
		}
		return zk.H(vals...), nil
	case KindList:
		return m.recomputeList(store, cid, parentLoc, parentModel.Log4Size, parentModel.ItemType, childIdx, childValue)
	default:
		return zk.Zero, fmt.Errorf("statetree: cannot recompute ancestor of kind %d", parentModel.Kind)
	}
}

func mustLocate(root *StateModel, loc Locator) *StateModel {
	m, err := Locate(root, loc)
	if err != nil {
		// Locator was just built from a validated path; a failure here means
		// the state model itself is malformed, not bad input.
		panic(err)
	}
	return m
}

// recomputeList recomputes the internal 4-ary Merkle tree of a List whose
// item at itemIndex just changed to itemValue, returning the List's new
// overall root (the value to propagate to the List's own ancestor).
func (m *Manager) recomputeList(store kvstore.Store, cid ContractId, listLoc Locator, log4Size uint8, itemType *StateModel, itemIndex uint32, itemValue zk.Scalar) (zk.Scalar, error) {
	if log4Size == 0 {
		return itemValue, nil
	}

	digits := make([]uint64, log4Size)
	x := uint64(itemIndex)
	for i := int(log4Size) - 1; i >= 0; i-- {
		digits[i] = x % 4
		x /= 4
	}

	leafDefault := DefaultHash(itemType)
	current := itemValue

	for layer := int(log4Size) - 1; layer >= 0; layer-- {
		nodeAddr := prefixBase4(digits[:layer])
		var children [4]zk.Scalar
		for slot := uint64(0); slot < 4; slot++ {
			if slot == digits[layer] {
				children[slot] = current
				continue
			}
			if layer == int(log4Size)-1 {
				leafIdx := nodeAddr*4 + slot
				leafLoc := append(append(Locator(nil), listLoc...), uint32(leafIdx))
				v, err := m.GetData(store, cid, leafLoc, itemType)
				if err != nil {
					return zk.Zero, err
				}
				children[slot] = v
			} else {
				childAddr := nodeAddr*4 + slot
				v, err := m.getAux(store, cid, listLoc, layer+1, childAddr, itemType, log4Size)
				if err != nil {
					return zk.Zero, err
				}
				children[slot] = v
			}
		}
		newNode := zk.H(children[0], children[1], children[2], children[3])
		defaultAtThisLayer := defaultAtListLayer(itemType, log4Size, layer)
		if err := m.writeAux(store, cid, listLoc, layer, nodeAddr, newNode, defaultAtThisLayer); err != nil {
			return zk.Zero, err
		}
		current = newNode
	}
	return current, nil
}

func prefixBase4(digits []uint64) uint64 {
	var v uint64
	for _, d := range digits {
		v = v*4 + d
	}
	return v
}

func (m *Manager) getAux(store kvstore.Store, cid ContractId, listLoc Locator, layer int, addr uint64, itemType *StateModel, log4Size uint8) (zk.Scalar, error) {
	v, ok, err := store.Get(keyAux(cid, listLoc, layer, addr))
	if err != nil {
		return zk.Zero, err
	}
	if !ok {
		return defaultAtListLayer(itemType, log4Size, layer), nil
	}
	return zk.ScalarFromBytes([32]byte(v)), nil
}

func (m *Manager) writeAux(store kvstore.Store, cid ContractId, listLoc Locator, layer int, addr uint64, value, defaultValue zk.Scalar) error {
	key := keyAux(cid, listLoc, layer, addr)
	if value.Equal(defaultValue) {
		return store.Update([]kvstore.Op{kvstore.Remove(key)})
	}
	b := value.Bytes()
	return store.Update([]kvstore.Op{kvstore.Put(key, b[:])})
}
