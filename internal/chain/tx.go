package chain

import (
	"crypto/sha256"

	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

// TxDataKind tags the Transaction.Data union.
type TxDataKind uint8

const (
	KindRegularSend TxDataKind = iota
	KindCreateToken
	KindCreateContract
	KindUpdateContract
)

// RegularSendEntry is one payment within a RegularSend transaction.
type RegularSendEntry struct {
	Dst   Address
	Money amount.Money
}

// RegularSend moves money from the transaction's source to one or more
// destinations in a single atomic transaction body.
type RegularSend struct {
	Entries []RegularSendEntry
}

// TokenInfo is the metadata recorded for a newly minted token.
type TokenInfo struct {
	Name     string
	Symbol   string
	Supply   amount.Amount
	Decimals uint8
}

// CreateToken mints Token.Supply atomic units of a freshly derived TokenId
// to the transaction's source.
type CreateToken struct {
	Token TokenInfo
}

// CreateContract deploys a new zk contract with the given definition and
// initial state, under a freshly derived ContractId.
type CreateContract struct {
	Contract *statetree.Contract
}

// ContractUpdateKind tags one entry of an UpdateContract transaction.
type ContractUpdateKind uint8

const (
	UpdateKindDeposit ContractUpdateKind = iota
	UpdateKindWithdraw
	UpdateKindFunctionCall
)

// ContractUpdateEntry is one state transition applied to a contract: a
// zk-proof-gated delta, optionally moving Money between the transaction's
// source and the contract's own held balance (Deposit/Withdraw); a plain
// FunctionCall moves no money.
type ContractUpdateEntry struct {
	Kind         ContractUpdateKind
	CircuitId    string
	PublicInputs []zk.Scalar
	Proof        []byte
	Delta        []statetree.DeltaEntry
	Money        amount.Money
}

// UpdateContract applies a sequence of proof-gated updates to one deployed
// contract.
type UpdateContract struct {
	ContractId statetree.ContractId
	Updates    []ContractUpdateEntry
}

// TxData is the tagged union of transaction bodies spec.md §3 describes.
// Exactly one of the pointer fields matching Kind is non-nil.
type TxData struct {
	Kind           TxDataKind
	RegularSend    *RegularSend
	CreateToken    *CreateToken
	CreateContract *CreateContract
	UpdateContract *UpdateContract
}

// Signature is either Unsigned (valid only for treasury/coinbase
// transactions) or Signed with a DER-encoded classical signature.
type Signature struct {
	Signed bool
	Sig    []byte
}

// Transaction is a single ledger mutation: a memo, an optional source
// account, a typed body, a strictly-incrementing nonce (when sourced), a
// fee, and an authorizing signature.
type Transaction struct {
	Memo  string
	Src   *Address // nil denotes the treasury/coinbase sender
	Data  TxData
	Nonce uint32
	Fee   amount.Money
	Sig   Signature
}

// serialize encodes the transaction deterministically. When
// forSigning is true, the signature field is encoded as Unsigned
// regardless of tx.Sig, matching the "serialize(tx with sig=Unsigned)"
// rule signatures are verified against.
func (tx *Transaction) serialize(forSigning bool) []byte {
	w := codec.NewWriter()
	w.PutBytes([]byte(tx.Memo))
	if tx.Src == nil {
		w.PutUint8(0)
	} else {
		w.PutUint8(1)
		w.PutFixed(tx.Src[:])
	}
	encodeTxData(w, &tx.Data)
	w.PutUint32(tx.Nonce)
	w.PutFixed(tx.Fee.TokenId[:])
	w.PutUint64(uint64(tx.Fee.Amount))
	if forSigning || !tx.Sig.Signed {
		w.PutUint8(0)
	} else {
		w.PutUint8(1)
		w.PutBytes(tx.Sig.Sig)
	}
	return w.Bytes()
}

// Bytes returns the full deterministic encoding of tx, signature included,
// used for its identity hash and the block wire format.
func (tx *Transaction) Bytes() []byte { return tx.serialize(false) }

// SigningBytes returns the encoding a signature is produced/verified over.
func (tx *Transaction) SigningBytes() []byte { return tx.serialize(true) }

// Hash returns the transaction's identity hash: SHA-256 of its full
// encoding (signature included), used for ContractId derivation and the
// block's Merkle root. TokenIds are derived by amount.NewTokenId instead.
func (tx *Transaction) Hash() [32]byte {
	return sha256.Sum256(tx.Bytes())
}

// IsSelfPayment reports whether any RegularSend entry pays the source
// itself — forbidden by spec.md §3.
func (tx *Transaction) IsSelfPayment() bool {
	if tx.Data.Kind != KindRegularSend || tx.Src == nil {
		return false
	}
	for _, e := range tx.Data.RegularSend.Entries {
		if e.Dst == *tx.Src {
			return true
		}
	}
	return false
}

func encodeTxData(w *codec.Writer, d *TxData) {
	w.PutUint8(uint8(d.Kind))
	switch d.Kind {
	case KindRegularSend:
		rs := d.RegularSend
		codec.PutVarInt(w, uint64(len(rs.Entries)))
		for _, e := range rs.Entries {
			w.PutFixed(e.Dst[:])
			w.PutFixed(e.Money.TokenId[:])
			w.PutUint64(uint64(e.Money.Amount))
		}
	case KindCreateToken:
		t := d.CreateToken.Token
		w.PutBytes([]byte(t.Name))
		w.PutBytes([]byte(t.Symbol))
		w.PutUint64(uint64(t.Supply))
		w.PutUint8(t.Decimals)
	case KindCreateContract:
		w.PutBytes(statetree.EncodeContract(d.CreateContract.Contract))
	case KindUpdateContract:
		u := d.UpdateContract
		w.PutFixed(u.ContractId[:])
		codec.PutVarInt(w, uint64(len(u.Updates)))
		for _, up := range u.Updates {
			w.PutUint8(uint8(up.Kind))
			w.PutBytes([]byte(up.CircuitId))
			codec.PutVarInt(w, uint64(len(up.PublicInputs)))
			for _, s := range up.PublicInputs {
				b := s.Bytes()
				w.PutFixed(b[:])
			}
			w.PutBytes(up.Proof)
			codec.PutVarInt(w, uint64(len(up.Delta)))
			for _, de := range up.Delta {
				encodeLocatorInto(w, de.Locator)
				b := de.Value.Bytes()
				w.PutFixed(b[:])
			}
			w.PutFixed(up.Money.TokenId[:])
			w.PutUint64(uint64(up.Money.Amount))
		}
	}
}

func encodeLocatorInto(w *codec.Writer, loc statetree.Locator) {
	codec.PutVarInt(w, uint64(len(loc)))
	for _, idx := range loc {
		w.PutUint32(idx)
	}
}

func decodeLocatorFrom(r *codec.Reader) (statetree.Locator, error) {
	n, err := codec.VarInt(r)
	if err != nil {
		return nil, err
	}
	loc := make(statetree.Locator, n)
	for i := range loc {
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		loc[i] = v
	}
	return loc, nil
}

func decodeTxData(r *codec.Reader) (TxData, error) {
	kindB, err := r.Uint8()
	if err != nil {
		return TxData{}, err
	}
	kind := TxDataKind(kindB)
	switch kind {
	case KindRegularSend:
		n, err := codec.VarInt(r)
		if err != nil {
			return TxData{}, err
		}
		entries := make([]RegularSendEntry, n)
		for i := range entries {
			dst, err := r.Fixed(33)
			if err != nil {
				return TxData{}, err
			}
			tok, err := r.Fixed(32)
			if err != nil {
				return TxData{}, err
			}
			amt, err := r.Uint64()
			if err != nil {
				return TxData{}, err
			}
			var d Address
			copy(d[:], dst)
			var t amount.TokenId
			copy(t[:], tok)
			entries[i] = RegularSendEntry{Dst: d, Money: amount.Money{TokenId: t, Amount: amount.Amount(amt)}}
		}
		return TxData{Kind: kind, RegularSend: &RegularSend{Entries: entries}}, nil
	case KindCreateToken:
		name, err := r.Bytes()
		if err != nil {
			return TxData{}, err
		}
		symbol, err := r.Bytes()
		if err != nil {
			return TxData{}, err
		}
		supply, err := r.Uint64()
		if err != nil {
			return TxData{}, err
		}
		decimals, err := r.Uint8()
		if err != nil {
			return TxData{}, err
		}
		return TxData{Kind: kind, CreateToken: &CreateToken{Token: TokenInfo{
			Name: string(name), Symbol: string(symbol), Supply: amount.Amount(supply), Decimals: decimals,
		}}}, nil
	case KindCreateContract:
		b, err := r.Bytes()
		if err != nil {
			return TxData{}, err
		}
		c, err := statetree.DecodeContract(b)
		if err != nil {
			return TxData{}, err
		}
		return TxData{Kind: kind, CreateContract: &CreateContract{Contract: c}}, nil
	case KindUpdateContract:
		cidB, err := r.Fixed(32)
		if err != nil {
			return TxData{}, err
		}
		var cid statetree.ContractId
		copy(cid[:], cidB)
		n, err := codec.VarInt(r)
		if err != nil {
			return TxData{}, err
		}
		updates := make([]ContractUpdateEntry, n)
		for i := range updates {
			kb, err := r.Uint8()
			if err != nil {
				return TxData{}, err
			}
			circuitID, err := r.Bytes()
			if err != nil {
				return TxData{}, err
			}
			npi, err := codec.VarInt(r)
			if err != nil {
				return TxData{}, err
			}
			inputs := make([]zk.Scalar, npi)
			for j := range inputs {
				b, err := r.Fixed(32)
				if err != nil {
					return TxData{}, err
				}
				inputs[j] = zk.ScalarFromBytes([32]byte(b))
			}
			proof, err := r.Bytes()
			if err != nil {
				return TxData{}, err
			}
			nd, err := codec.VarInt(r)
			if err != nil {
				return TxData{}, err
			}
			delta := make([]statetree.DeltaEntry, nd)
			for j := range delta {
				loc, err := decodeLocatorFrom(r)
				if err != nil {
					return TxData{}, err
				}
				vb, err := r.Fixed(32)
				if err != nil {
					return TxData{}, err
				}
				delta[j] = statetree.DeltaEntry{Locator: loc, Value: zk.ScalarFromBytes([32]byte(vb))}
			}
			tokB, err := r.Fixed(32)
			if err != nil {
				return TxData{}, err
			}
			amt, err := r.Uint64()
			if err != nil {
				return TxData{}, err
			}
			var tok amount.TokenId
			copy(tok[:], tokB)
			updates[i] = ContractUpdateEntry{
				Kind: ContractUpdateKind(kb), CircuitId: string(circuitID), PublicInputs: inputs,
				Proof: proof, Delta: delta, Money: amount.Money{TokenId: tok, Amount: amount.Amount(amt)},
			}
		}
		return TxData{Kind: kind, UpdateContract: &UpdateContract{ContractId: cid, Updates: updates}}, nil
	default:
		return TxData{}, &BlockchainError{Kind: ErrInconsistency, Reason: "unknown tx data kind"}
	}
}

func encodeTransaction(w *codec.Writer, tx *Transaction) {
	w.PutBytes([]byte(tx.Memo))
	if tx.Src == nil {
		w.PutUint8(0)
	} else {
		w.PutUint8(1)
		w.PutFixed(tx.Src[:])
	}
	encodeTxData(w, &tx.Data)
	w.PutUint32(tx.Nonce)
	w.PutFixed(tx.Fee.TokenId[:])
	w.PutUint64(uint64(tx.Fee.Amount))
	if tx.Sig.Signed {
		w.PutUint8(1)
		w.PutBytes(tx.Sig.Sig)
	} else {
		w.PutUint8(0)
	}
}

func decodeTransaction(r *codec.Reader) (*Transaction, error) {
	memo, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	hasSrc, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	var src *Address
	if hasSrc == 1 {
		b, err := r.Fixed(33)
		if err != nil {
			return nil, err
		}
		var a Address
		copy(a[:], b)
		src = &a
	}
	data, err := decodeTxData(r)
	if err != nil {
		return nil, err
	}
	nonce, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	tokB, err := r.Fixed(32)
	if err != nil {
		return nil, err
	}
	feeAmt, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	var tok amount.TokenId
	copy(tok[:], tokB)
	sigFlag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	var sig Signature
	if sigFlag == 1 {
		s, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		sig = Signature{Signed: true, Sig: s}
	}
	return &Transaction{
		Memo: string(memo), Src: src, Data: data, Nonce: nonce,
		Fee: amount.Money{TokenId: tok, Amount: amount.Amount(feeAmt)}, Sig: sig,
	}, nil
}
