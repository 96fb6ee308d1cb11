// Package statetree implements the per-contract sparse 4-ary Merkle tree
// state manager: a typed, recursive state model, incremental root
// recomputation on writes, bounded rollback history, and inclusion proofs.
package statetree

import (
	"fmt"

	"github.com/ziesha-network/bazuka-go/internal/zk"
)

// ModelKind tags the recursive state model union.
type ModelKind uint8

const (
	KindScalar ModelKind = iota
	KindList
	KindStruct
)

// StateModel is the recursive type every contract's storage is shaped by:
// a bare scalar leaf, a fixed-size 4-ary list of a single item type, or a
// struct of heterogeneously-typed fields.
type StateModel struct {
	Kind ModelKind

	// List only: the tree has 4^Log4Size items, each of type ItemType.
	Log4Size uint8
	ItemType *StateModel

	// Struct only.
	Fields []*StateModel
}

// Scalar constructs a leaf model.
func Scalar() *StateModel { return &StateModel{Kind: KindScalar} }

// List constructs a fixed 4^log4Size-item list model.
func List(log4Size uint8, itemType *StateModel) *StateModel {
	return &StateModel{Kind: KindList, Log4Size: log4Size, ItemType: itemType}
}

// Struct constructs a struct model over the given field types, in order.
func Struct(fields ...*StateModel) *StateModel {
	return &StateModel{Kind: KindStruct, Fields: fields}
}

// Locator is a path of indices navigating a StateModel: one entry is
// consumed per List or Struct level, and the path must bottom out at a
// Scalar.
type Locator []uint32

// Locate walks model by path, consuming one level per step, and returns the
// StateModel found at the end. It is an error for the walk to run out of
// structure before the path does, to index a Struct field out of range, or
// to land anywhere but a Scalar.
func Locate(model *StateModel, path Locator) (*StateModel, error) {
	cur := model
	for i, idx := range path {
		switch cur.Kind {
		case KindList:
			cur = cur.ItemType
		case KindStruct:
			if int(idx) >= len(cur.Fields) {
				return nil, fmt.Errorf("statetree: locator[%d]=%d out of range for struct with %d fields", i, idx, len(cur.Fields))
			}
			cur = cur.Fields[idx]
		default:
			return nil, fmt.Errorf("statetree: locator has %d unused steps but reached a scalar", len(path)-i)
		}
	}
	if cur.Kind != KindScalar {
		return nil, fmt.Errorf("statetree: locator underspecified, ended at non-scalar")
	}
	return cur, nil
}

// DefaultHash is the canonical compression of an entirely-zero subtree
// shaped like model: zero for a Scalar, recursively Poseidon-hashed for
// List/Struct.
func DefaultHash(model *StateModel) zk.Scalar {
	switch model.Kind {
	case KindScalar:
		return zk.Zero
	case KindList:
		cur := DefaultHash(model.ItemType)
		for i := uint8(0); i < model.Log4Size; i++ {
			cur = zk.H(cur, cur, cur, cur)
		}
		return cur
	case KindStruct:
		vals := make([]zk.Scalar, len(model.Fields))
		for i, f := range model.Fields {
			vals[i] = DefaultHash(f)
		}
		return zk.H(vals...)
	default:
		panic("statetree: unknown model kind")
	}
}

// defaultAtListLayer is the default hash of a node at internal layer
// `layer` of a List with the given log4Size/itemType (layer == log4Size
// means "the leaf itself", for callers that want a uniform index space).
func defaultAtListLayer(itemType *StateModel, log4Size uint8, layer int) zk.Scalar {
	cur := DefaultHash(itemType)
	levels := int(log4Size) - layer
	for i := 0; i < levels; i++ {
		cur = zk.H(cur, cur, cur, cur)
	}
	return cur
}
