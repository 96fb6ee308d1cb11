package wallet

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/ziesha-network/bazuka-go/internal/chain"
	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// Circuit identifiers the MPN contract's deposit/withdraw/transfer
// functions are registered under.
const (
	DepositCircuit  = "mpn-deposit"
	WithdrawCircuit = "mpn-withdraw"
	TransferCircuit = "mpn-transfer"
)

// mpnOpKind tags the calldata envelope carried in an MPN ContractUpdateEntry's
// Proof field.
type mpnOpKind uint8

const (
	mpnOpDeposit mpnOpKind = iota
	mpnOpWithdraw
	mpnOpTransfer
)

// mpnCalldata is the CBOR-encoded witness an MPN circuit verifier checks: a
// keyasint-tagged wire struct. Fields irrelevant to a given Kind are left
// zero.
type mpnCalldata struct {
	Kind            mpnOpKind `cbor:"1,keyasint"`
	AccountIndex    uint64    `cbor:"2,keyasint"`
	DstAccountIndex uint64    `cbor:"3,keyasint"`
	Nonce           uint64    `cbor:"4,keyasint"`
	Amount          uint64    `cbor:"5,keyasint"`
	PubKeyX         []byte    `cbor:"6,keyasint"`
	PubKeyY         []byte    `cbor:"7,keyasint"`
	DstPubKeyX      []byte    `cbor:"8,keyasint"`
	DstPubKeyY      []byte    `cbor:"9,keyasint"`
	DstAddress      []byte    `cbor:"10,keyasint"`
	SigBytes        []byte    `cbor:"11,keyasint"`
}

// mpnAccountLocator addresses the leaf an MPN account's compressed state
// (pubkey hash, balance) lives at within the MPN contract's tree.
func mpnAccountLocator(index uint64) statetree.Locator {
	return statetree.Locator{uint32(index)}
}

func amountScalar(a amount.Amount) zk.Scalar {
	return zk.NewScalar(new(big.Int).SetUint64(uint64(a)))
}

func marshalCalldata(c mpnCalldata) []byte {
	b, err := cbor.Marshal(c)
	if err != nil {
		panic("wallet: marshal mpn calldata: " + err.Error())
	}
	return b
}

// DepositMpn builds a classically-signed transaction that moves depositAmt
// of the native token from this wallet into the MPN contract, crediting
// accountIndex's leaf with this wallet's MPN public key and the deposited
// balance. No MPN signature is required since the account is being funded,
// not drained.
func (w *Wallet) DepositMpn(memo string, chainNonce uint32, fee amount.Money, cid statetree.ContractId, accountIndex uint64, depositAmt amount.Amount) *chain.Transaction {
	x, y := w.MpnPublicKey()
	xb, yb := x.Bytes(), y.Bytes()
	proof := marshalCalldata(mpnCalldata{
		Kind: mpnOpDeposit, AccountIndex: accountIndex, Amount: uint64(depositAmt),
		PubKeyX: xb[:], PubKeyY: yb[:],
	})
	leaf := zk.H(x, y, amountScalar(depositAmt))

	src := w.Address()
	tx := &chain.Transaction{
		Memo: memo, Src: &src, Nonce: chainNonce, Fee: fee,
		Data: chain.TxData{Kind: chain.KindUpdateContract, UpdateContract: &chain.UpdateContract{
			ContractId: cid,
			Updates: []chain.ContractUpdateEntry{{
				Kind:         chain.UpdateKindDeposit,
				CircuitId:    DepositCircuit,
				PublicInputs: []zk.Scalar{x, y, zk.ScalarFromUint64(accountIndex)},
				Proof:        proof,
				Delta:        []statetree.DeltaEntry{{Locator: mpnAccountLocator(accountIndex), Value: leaf}},
				Money:        amount.Money{TokenId: amount.Ziesha, Amount: depositAmt},
			}},
		}},
	}
	return w.sign(tx)
}

// WithdrawMpn builds a classically-signed transaction draining withdrawAmt
// from accountIndex's MPN leaf back to dst on the base layer. The envelope
// carries an EdDSA signature over (accountIndex, mpnNonce, amount, dst) made
// with this wallet's MPN key, proving the off-chain account owner authorized
// the exit; the chain-level Src submitting the transaction need not be the
// same party. newLeaf is the caller-computed post-withdrawal leaf value
// (typically zk.Zero for a full exit).
func (w *Wallet) WithdrawMpn(memo string, chainNonce uint32, fee amount.Money, cid statetree.ContractId, accountIndex, mpnNonce uint64, withdrawAmt amount.Amount, dst chain.Address, newLeaf zk.Scalar) (*chain.Transaction, error) {
	x, y := w.MpnPublicKey()
	dstScalar := zk.NewScalar(new(big.Int).SetBytes(dst[:]))
	msg := zk.H(zk.ScalarFromUint64(accountIndex), zk.ScalarFromUint64(mpnNonce), amountScalar(withdrawAmt), dstScalar)
	sig, err := w.mpn.Sign(msg)
	if err != nil {
		return nil, err
	}
	proof := marshalCalldata(mpnCalldata{
		Kind: mpnOpWithdraw, AccountIndex: accountIndex, Nonce: mpnNonce, Amount: uint64(withdrawAmt),
		DstAddress: dst[:], SigBytes: zk.EncodeSignature(sig),
	})

	src := w.Address()
	tx := &chain.Transaction{
		Memo: memo, Src: &src, Nonce: chainNonce, Fee: fee,
		Data: chain.TxData{Kind: chain.KindUpdateContract, UpdateContract: &chain.UpdateContract{
			ContractId: cid,
			Updates: []chain.ContractUpdateEntry{{
				Kind:         chain.UpdateKindWithdraw,
				CircuitId:    WithdrawCircuit,
				PublicInputs: []zk.Scalar{x, y, zk.ScalarFromUint64(accountIndex), zk.ScalarFromUint64(mpnNonce)},
				Proof:        proof,
				Delta:        []statetree.DeltaEntry{{Locator: mpnAccountLocator(accountIndex), Value: newLeaf}},
				Money:        amount.Money{TokenId: amount.Ziesha, Amount: withdrawAmt},
			}},
		}},
	}
	return w.sign(tx), nil
}

// CreateMpnTransaction builds a classically-signed transaction that moves
// transferAmt entirely within the MPN contract, from this wallet's
// srcIndex leaf to dstIndex under the given destination public key. It
// moves no base-layer money (UpdateKindFunctionCall); the contract's own
// circuit is responsible for checking the signature embedded in the
// calldata against the two resulting leaves. srcNewLeaf/dstNewLeaf are the
// caller-computed post-transfer leaf values for both accounts.
func (w *Wallet) CreateMpnTransaction(memo string, chainNonce uint32, fee amount.Money, cid statetree.ContractId, srcIndex, dstIndex, mpnNonce uint64, transferAmt amount.Amount, dstX, dstY zk.Scalar, srcNewLeaf, dstNewLeaf zk.Scalar) (*chain.Transaction, error) {
	x, y := w.MpnPublicKey()
	xb, yb := x.Bytes(), y.Bytes()
	dxb, dyb := dstX.Bytes(), dstY.Bytes()

	msg := zk.H(zk.ScalarFromUint64(srcIndex), zk.ScalarFromUint64(dstIndex), zk.ScalarFromUint64(mpnNonce), amountScalar(transferAmt), dstX, dstY)
	sig, err := w.mpn.Sign(msg)
	if err != nil {
		return nil, err
	}
	proof := marshalCalldata(mpnCalldata{
		Kind: mpnOpTransfer, AccountIndex: srcIndex, DstAccountIndex: dstIndex, Nonce: mpnNonce, Amount: uint64(transferAmt),
		PubKeyX: xb[:], PubKeyY: yb[:], DstPubKeyX: dxb[:], DstPubKeyY: dyb[:], SigBytes: zk.EncodeSignature(sig),
	})

	src := w.Address()
	tx := &chain.Transaction{
		Memo: memo, Src: &src, Nonce: chainNonce, Fee: fee,
		Data: chain.TxData{Kind: chain.KindUpdateContract, UpdateContract: &chain.UpdateContract{
			ContractId: cid,
			Updates: []chain.ContractUpdateEntry{{
				Kind:         chain.UpdateKindFunctionCall,
				CircuitId:    TransferCircuit,
				PublicInputs: []zk.Scalar{x, y, dstX, dstY, zk.ScalarFromUint64(srcIndex), zk.ScalarFromUint64(dstIndex), zk.ScalarFromUint64(mpnNonce)},
				Proof:        proof,
				Delta: []statetree.DeltaEntry{
					{Locator: mpnAccountLocator(srcIndex), Value: srcNewLeaf},
					{Locator: mpnAccountLocator(dstIndex), Value: dstNewLeaf},
				},
			}},
		}},
	}
	return w.sign(tx), nil
}
