package statetree

import (
	"fmt"

	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

func encodeHeight(h uint64) []byte {
	w := codec.NewWriter()
	w.PutUint64(h)
	return w.Bytes()
}

func decodeHeight(b []byte) uint64 {
	v, _ := codec.NewReader(b).Uint64()
	return v
}

func encodeCompressedState(cs CompressedState) []byte {
	w := codec.NewWriter()
	hb := cs.StateHash.Bytes()
	w.PutFixed(hb[:])
	w.PutUint64(cs.StateSize)
	return w.Bytes()
}

func decodeCompressedState(b []byte) (CompressedState, error) {
	r := codec.NewReader(b)
	hb, err := r.Fixed(32)
	if err != nil {
		return CompressedState{}, err
	}
	size, err := r.Uint64()
	if err != nil {
		return CompressedState{}, err
	}
	return CompressedState{StateHash: zk.ScalarFromBytes([32]byte(hb)), StateSize: size}, nil
}

func encodeStateModel(w *codec.Writer, model *StateModel) {
	w.PutUint8(uint8(model.Kind))
	switch model.Kind {
	case KindScalar:
	case KindList:
		w.PutUint8(model.Log4Size)
		encodeStateModel(w, model.ItemType)
	case KindStruct:
		codec.PutVarInt(w, uint64(len(model.Fields)))
		for _, f := range model.Fields {
			encodeStateModel(w, f)
		}
	}
}

func decodeStateModel(r *codec.Reader) (*StateModel, error) {
	kind, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	switch ModelKind(kind) {
	case KindScalar:
		return Scalar(), nil
	case KindList:
		log4Size, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		item, err := decodeStateModel(r)
		if err != nil {
			return nil, err
		}
		return List(log4Size, item), nil
	case KindStruct:
		n, err := codec.VarInt(r)
		if err != nil {
			return nil, err
		}
		fields := make([]*StateModel, n)
		for i := range fields {
			fields[i], err = decodeStateModel(r)
			if err != nil {
				return nil, err
			}
		}
		return Struct(fields...), nil
	default:
		return nil, fmt.Errorf("statetree: unknown encoded model kind %d", kind)
	}
}

func encodeFunctionSpecs(w *codec.Writer, fns []FunctionSpec) {
	codec.PutVarInt(w, uint64(len(fns)))
	for _, f := range fns {
		w.PutBytes([]byte(f.CircuitId))
	}
}

func decodeFunctionSpecs(r *codec.Reader) ([]FunctionSpec, error) {
	n, err := codec.VarInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionSpec, n)
	for i := range out {
		id, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		out[i] = FunctionSpec{CircuitId: string(id)}
	}
	return out, nil
}

// EncodeContract serializes a contract definition, for embedding in a
// CreateContract transaction's wire encoding as well as its own KV storage.
func EncodeContract(c *Contract) []byte { return encodeContract(c) }

// DecodeContract inverts EncodeContract.
func DecodeContract(b []byte) (*Contract, error) { return decodeContract(b) }

func encodeContract(c *Contract) []byte {
	w := codec.NewWriter()
	encodeStateModel(w, c.StateModel)
	hb := c.InitialState.StateHash.Bytes()
	w.PutFixed(hb[:])
	w.PutUint64(c.InitialState.StateSize)
	encodeFunctionSpecs(w, c.DepositFunctions)
	encodeFunctionSpecs(w, c.WithdrawFunctions)
	encodeFunctionSpecs(w, c.Functions)
	return w.Bytes()
}

func decodeContract(b []byte) (*Contract, error) {
	r := codec.NewReader(b)
	model, err := decodeStateModel(r)
	if err != nil {
		return nil, err
	}
	hb, err := r.Fixed(32)
	if err != nil {
		return nil, err
	}
	size, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	deposit, err := decodeFunctionSpecs(r)
	if err != nil {
		return nil, err
	}
	withdraw, err := decodeFunctionSpecs(r)
	if err != nil {
		return nil, err
	}
	fns, err := decodeFunctionSpecs(r)
	if err != nil {
		return nil, err
	}
	return &Contract{
		StateModel:        model,
		InitialState:      CompressedState{StateHash: zk.ScalarFromBytes([32]byte(hb)), StateSize: size},
		DepositFunctions:  deposit,
		WithdrawFunctions: withdraw,
		Functions:         fns,
	}, nil
}

// encodeRollbackRecord/decodeRollbackRecord serialize a rollback record's
// pre-images: one entry per touched locator, with a present-flag. A
// non-zero pre-image is stored present with its value; a zero pre-image
// (whether written or never written) is stored absent, and rollback writes
// zero there, which removes the leaf's key.
type rollbackEntry struct {
	Locator Locator
	Present bool
	Value   zk.Scalar
}

func encodeRollbackRecord(entries []rollbackEntry) []byte {
	w := codec.NewWriter()
	codec.PutVarInt(w, uint64(len(entries)))
	for _, e := range entries {
		w.PutFixed(encodeLocator(e.Locator))
		if e.Present {
			w.PutUint8(1)
			hb := e.Value.Bytes()
			w.PutFixed(hb[:])
		} else {
			w.PutUint8(0)
		}
	}
	return w.Bytes()
}

func decodeRollbackRecord(b []byte) ([]rollbackEntry, error) {
	r := codec.NewReader(b)
	n, err := codec.VarInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]rollbackEntry, n)
	for i := range out {
		locLen, err := codec.VarInt(r)
		if err != nil {
			return nil, err
		}
		loc := make(Locator, locLen)
		for j := range loc {
			v, err := r.Uint32()
			if err != nil {
				return nil, err
			}
			loc[j] = v
		}
		flag, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		e := rollbackEntry{Locator: loc}
		if flag == 1 {
			hb, err := r.Fixed(32)
			if err != nil {
				return nil, err
			}
			e.Present = true
			e.Value = zk.ScalarFromBytes([32]byte(hb))
		}
		out[i] = e
	}
	return out, nil
}
