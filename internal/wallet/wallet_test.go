package wallet

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/ziesha-network/bazuka-go/internal/chain"
	"github.com/ziesha-network/bazuka-go/internal/crypto"
	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

func verifyClassicalSig(t *testing.T, w *Wallet, tx *chain.Transaction) {
	t.Helper()
	if !tx.Sig.Signed {
		t.Fatalf("transaction not marked signed")
	}
	hash := crypto.HashForSigning(tx.SigningBytes())
	if !crypto.Verify(w.Address(), hash, tx.Sig.Sig) {
		t.Fatalf("classical signature does not verify")
	}
}

func decodeCalldata(t *testing.T, proof []byte) mpnCalldata {
	t.Helper()
	var c mpnCalldata
	if err := cbor.Unmarshal(proof, &c); err != nil {
		t.Fatalf("decode calldata: %v", err)
	}
	return c
}

func TestCreateTransactionSigns(t *testing.T) {
	w := New([]byte("alice-seed"))
	var dst chain.Address
	dst[0] = 0xAB
	tx := w.CreateTransaction("hi", 1, amount.Money{TokenId: amount.Ziesha, Amount: 10}, chain.RegularSendEntry{
		Dst:   dst,
		Money: amount.Money{TokenId: amount.Ziesha, Amount: 100},
	})
	verifyClassicalSig(t, w, tx)
	if tx.Data.Kind != chain.KindRegularSend {
		t.Fatalf("kind = %v, want KindRegularSend", tx.Data.Kind)
	}
	if *tx.Src != w.Address() {
		t.Fatalf("src = %x, want wallet address", *tx.Src)
	}
	if len(tx.Data.RegularSend.Entries) != 1 || tx.Data.RegularSend.Entries[0].Dst != dst {
		t.Fatalf("entries not preserved: %+v", tx.Data.RegularSend)
	}
}

func TestCreateTokenSigns(t *testing.T) {
	w := New([]byte("bob-seed"))
	info := chain.TokenInfo{Name: "Gold", Symbol: "GLD", Supply: 1000}
	tx := w.CreateToken("mint", 0, amount.Money{TokenId: amount.Ziesha, Amount: 5}, info)
	verifyClassicalSig(t, w, tx)
	if tx.Data.Kind != chain.KindCreateToken {
		t.Fatalf("kind = %v, want KindCreateToken", tx.Data.Kind)
	}
	if tx.Data.CreateToken.Token != info {
		t.Fatalf("token info not preserved: %+v", tx.Data.CreateToken.Token)
	}
}

func TestCreateContractSigns(t *testing.T) {
	w := New([]byte("carol-seed"))
	contract := &statetree.Contract{
		StateModel: statetree.Scalar(),
	}
	tx := w.CreateContract("deploy", 2, amount.Money{TokenId: amount.Ziesha, Amount: 5}, contract)
	verifyClassicalSig(t, w, tx)
	if tx.Data.Kind != chain.KindCreateContract {
		t.Fatalf("kind = %v, want KindCreateContract", tx.Data.Kind)
	}
	if tx.Data.CreateContract.Contract != contract {
		t.Fatalf("contract pointer not preserved")
	}
}

func TestDepositMpnCalldata(t *testing.T) {
	w := New([]byte("dave-seed"))
	var cid statetree.ContractId
	cid[0] = 0x01
	tx := w.DepositMpn("deposit", 0, amount.Money{TokenId: amount.Ziesha, Amount: 1}, cid, 7, 500)
	verifyClassicalSig(t, w, tx)

	if tx.Data.Kind != chain.KindUpdateContract {
		t.Fatalf("kind = %v, want KindUpdateContract", tx.Data.Kind)
	}
	up := tx.Data.UpdateContract
	if up.ContractId != cid {
		t.Fatalf("contract id mismatch")
	}
	if len(up.Updates) != 1 {
		t.Fatalf("want 1 update entry, got %d", len(up.Updates))
	}
	entry := up.Updates[0]
	if entry.Kind != chain.UpdateKindDeposit {
		t.Fatalf("entry kind = %v, want UpdateKindDeposit", entry.Kind)
	}
	if entry.Money.Amount != 500 || entry.Money.TokenId != amount.Ziesha {
		t.Fatalf("deposit money = %+v", entry.Money)
	}
	wantLocator := mpnAccountLocator(7)
	if len(entry.Delta) != 1 || len(entry.Delta[0].Locator) != len(wantLocator) || entry.Delta[0].Locator[0] != wantLocator[0] {
		t.Fatalf("delta locator mismatch: %+v", entry.Delta)
	}

	calldata := decodeCalldata(t, entry.Proof)
	if calldata.Kind != mpnOpDeposit || calldata.AccountIndex != 7 || calldata.Amount != 500 {
		t.Fatalf("calldata mismatch: %+v", calldata)
	}
	x, y := w.MpnPublicKey()
	xb, yb := x.Bytes(), y.Bytes()
	if !bytes.Equal(calldata.PubKeyX, xb[:]) || !bytes.Equal(calldata.PubKeyY, yb[:]) {
		t.Fatalf("calldata pubkey mismatch")
	}

	wantLeaf := zk.H(x, y, amountScalar(500))
	if !entry.Delta[0].Value.Equal(wantLeaf) {
		t.Fatalf("leaf value = %+v, want %+v", entry.Delta[0].Value, wantLeaf)
	}
}

func TestWithdrawMpnSignatureVerifies(t *testing.T) {
	w := New([]byte("erin-seed"))
	var cid statetree.ContractId
	cid[1] = 0x02
	var dst chain.Address
	dst[2] = 0xCD

	tx, err := w.WithdrawMpn("withdraw", 3, amount.Money{TokenId: amount.Ziesha, Amount: 1}, cid, 9, 4, 250, dst, zk.Zero)
	if err != nil {
		t.Fatalf("WithdrawMpn: %v", err)
	}
	verifyClassicalSig(t, w, tx)

	entry := tx.Data.UpdateContract.Updates[0]
	if entry.Kind != chain.UpdateKindWithdraw {
		t.Fatalf("entry kind = %v, want UpdateKindWithdraw", entry.Kind)
	}
	if entry.Money.Amount != 250 {
		t.Fatalf("withdraw amount = %d, want 250", entry.Money.Amount)
	}

	calldata := decodeCalldata(t, entry.Proof)
	if calldata.Kind != mpnOpWithdraw || calldata.AccountIndex != 9 || calldata.Nonce != 4 {
		t.Fatalf("calldata mismatch: %+v", calldata)
	}
	if !bytes.Equal(calldata.DstAddress, dst[:]) {
		t.Fatalf("calldata dst address mismatch")
	}

	sig, err := zk.DecodeSignature(calldata.SigBytes)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	dstScalar := zk.NewScalar(new(big.Int).SetBytes(dst[:]))
	msg := zk.H(zk.ScalarFromUint64(9), zk.ScalarFromUint64(4), amountScalar(250), dstScalar)
	if !zk.VerifySignature(w.mpn.PublicKey(), msg, sig) {
		t.Fatalf("mpn signature does not verify")
	}
}

func TestCreateMpnTransactionSignatureVerifies(t *testing.T) {
	w := New([]byte("frank-seed"))
	var cid statetree.ContractId
	cid[3] = 0x03
	dstX, dstY := zk.NewScalar(big.NewInt(11)), zk.NewScalar(big.NewInt(22))

	tx, err := w.CreateMpnTransaction("xfer", 1, amount.Money{TokenId: amount.Ziesha, Amount: 1}, cid, 1, 2, 5, 30, dstX, dstY, zk.Zero, zk.NewScalar(big.NewInt(30)))
	if err != nil {
		t.Fatalf("CreateMpnTransaction: %v", err)
	}
	verifyClassicalSig(t, w, tx)

	entry := tx.Data.UpdateContract.Updates[0]
	if entry.Kind != chain.UpdateKindFunctionCall {
		t.Fatalf("entry kind = %v, want UpdateKindFunctionCall", entry.Kind)
	}
	if entry.Money != (amount.Money{}) {
		t.Fatalf("function call must move no money, got %+v", entry.Money)
	}
	if len(entry.Delta) != 2 {
		t.Fatalf("want 2 delta entries (src+dst), got %d", len(entry.Delta))
	}

	calldata := decodeCalldata(t, entry.Proof)
	if calldata.Kind != mpnOpTransfer || calldata.AccountIndex != 1 || calldata.DstAccountIndex != 2 {
		t.Fatalf("calldata mismatch: %+v", calldata)
	}

	sig, err := zk.DecodeSignature(calldata.SigBytes)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	msg := zk.H(zk.ScalarFromUint64(1), zk.ScalarFromUint64(2), zk.ScalarFromUint64(5), amountScalar(30), dstX, dstY)
	if !zk.VerifySignature(w.mpn.PublicKey(), msg, sig) {
		t.Fatalf("mpn signature does not verify")
	}
}
