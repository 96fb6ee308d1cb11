package statetree

import (
	"errors"

	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/zk"
)

var errNotAList = errors.New("statetree: locator does not address a list")

// ProofStep is one layer of a List inclusion proof: the three sibling
// hashes (in ascending slot order, excluding the slot the proven path
// passes through) needed to recompute that layer's node hash from the
// layer below.
type ProofStep struct {
	Siblings [3]zk.Scalar
}

// Prove returns an inclusion proof for the item at leafIndex within the
// List found at listLoc (which must locate a List-kind node in model),
// bottom-up: proof[0] is adjacent to the leaves, the last step is adjacent
// to the List's own root.
func (m *Manager) Prove(store kvstore.Store, cid ContractId, model *StateModel, listLoc Locator, leafIndex uint32) ([]ProofStep, error) {
	_, log4Size, itemType, err := locateList(model, listLoc)
	if err != nil {
		return nil, err
	}

	digits := make([]uint64, log4Size)
	x := uint64(leafIndex)
	for i := int(log4Size) - 1; i >= 0; i-- {
		digits[i] = x % 4
		x /= 4
	}

	steps := make([]ProofStep, 0, log4Size)
	for layer := int(log4Size) - 1; layer >= 0; layer-- {
		nodeAddr := prefixBase4(digits[:layer])
		var step ProofStep
		j := 0
		for slot := uint64(0); slot < 4; slot++ {
			if slot == digits[layer] {
				continue
			}
			var v zk.Scalar
			var err error
			if layer == int(log4Size)-1 {
				leafIdx := nodeAddr*4 + slot
				leafLoc := append(append(Locator(nil), listLoc...), uint32(leafIdx))
				v, err = m.GetData(store, cid, leafLoc, itemType)
			} else {
				childAddr := nodeAddr*4 + slot
				v, err = m.getAux(store, cid, listLoc, layer+1, childAddr, itemType, log4Size)
			}
			if err != nil {
				return nil, err
			}
			step.Siblings[j] = v
			j++
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// VerifyProof recomputes a List's root from a leaf value and its inclusion
// proof, reporting whether it matches the List's currently stored root.
func (m *Manager) VerifyProof(store kvstore.Store, cid ContractId, model *StateModel, listLoc Locator, leafIndex uint32, leafValue zk.Scalar, proof []ProofStep) (bool, error) {
	listModel, log4Size, _, err := locateList(model, listLoc)
	if err != nil {
		return false, err
	}
	if len(proof) != int(log4Size) {
		return false, nil
	}

	digits := make([]uint64, log4Size)
	x := uint64(leafIndex)
	for i := int(log4Size) - 1; i >= 0; i-- {
		digits[i] = x % 4
		x /= 4
	}

	current := leafValue
	if log4Size == 0 {
		// no internal layers; the single item IS the list's root.
	} else {
		for layer := int(log4Size) - 1; layer >= 0; layer-- {
			var children [4]zk.Scalar
			j := 0
			for slot := uint64(0); slot < 4; slot++ {
				if slot == digits[layer] {
					children[slot] = current
					continue
				}
				children[slot] = proof[int(log4Size)-1-layer].Siblings[j]
				j++
			}
			current = zk.H(children[0], children[1], children[2], children[3])
		}
	}

	root, err := m.getAncestorValue(store, cid, listLoc, listModel)
	if err != nil {
		return false, err
	}
	return current.Equal(root), nil
}

// locateList walks model by listLoc and returns the List node found there
// along with its log4Size/item type, without requiring the path to
// continue all the way to a scalar the way Locate does.
func locateList(model *StateModel, listLoc Locator) (*StateModel, uint8, *StateModel, error) {
	cur := model
	for _, idx := range listLoc {
		switch cur.Kind {
		case KindList:
			cur = cur.ItemType
		case KindStruct:
			if int(idx) >= len(cur.Fields) {
				return nil, 0, nil, errNotAList
			}
			cur = cur.Fields[idx]
		default:
			return nil, 0, nil, errNotAList
		}
	}
	if cur.Kind != KindList {
		return nil, 0, nil, errNotAList
	}
	return cur, cur.Log4Size, cur.ItemType, nil
}
