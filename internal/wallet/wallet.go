// Package wallet builds signed transactions from a single derived seed: a
// classical (secp256k1) keypair for ordinary ledger transactions and a
// BabyJubJub keypair for the zk-friendly MPN side, mirroring the teacher's
// job-builder convention (internal/work.BuildJobFromTemplate assembling a
// typed result from component parts) applied to transaction construction
// instead of Stratum job assembly.
package wallet

import (
	"github.com/ziesha-network/bazuka-go/internal/chain"
	"github.com/ziesha-network/bazuka-go/internal/crypto"
	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// Wallet derives both the classical and zk keypairs from one seed, signing
// on behalf of the address they control.
type Wallet struct {
	classical *crypto.PrivateKey
	mpn       *zk.Signer
}

// New derives a wallet deterministically from seed. Real deployments should
// source seed from a CSPRNG and keep it secret; this mirrors
// crypto.GeneratePrivateKey's own "reproducible derivation from a seed"
// convention rather than inventing a second one.
func New(seed []byte) *Wallet {
	return &Wallet{
		classical: crypto.GeneratePrivateKey(seed),
		mpn:       zk.NewSigner(seed),
	}
}

// Address returns the classical-scheme address this wallet signs
// RegularSend/CreateToken/CreateContract transactions as.
func (w *Wallet) Address() chain.Address {
	return w.classical.Address()
}

// MpnPublicKey returns the affine coordinates of this wallet's BabyJubJub
// public key, the form MPN calldata and contract leaves store accounts
// under.
func (w *Wallet) MpnPublicKey() (x, y zk.Scalar) {
	return w.mpn.PublicKeyScalars()
}

func (w *Wallet) sign(tx *chain.Transaction) *chain.Transaction {
	hash := crypto.HashForSigning(tx.SigningBytes())
	tx.Sig = chain.Signature{Signed: true, Sig: w.classical.Sign(hash)}
	return tx
}

// CreateTransaction builds and signs a RegularSend moving money to one or
// more destinations.
func (w *Wallet) CreateTransaction(memo string, nonce uint32, fee amount.Money, entries ...chain.RegularSendEntry) *chain.Transaction {
	src := w.Address()
	tx := &chain.Transaction{
		Memo:  memo,
		Src:   &src,
		Nonce: nonce,
		Fee:   fee,
		Data:  chain.TxData{Kind: chain.KindRegularSend, RegularSend: &chain.RegularSend{Entries: entries}},
	}
	return w.sign(tx)
}

// CreateToken builds and signs a CreateToken transaction minting info.Supply
// of a freshly derived token id to this wallet's address.
func (w *Wallet) CreateToken(memo string, nonce uint32, fee amount.Money, info chain.TokenInfo) *chain.Transaction {
	src := w.Address()
	tx := &chain.Transaction{
		Memo:  memo,
		Src:   &src,
		Nonce: nonce,
		Fee:   fee,
		Data:  chain.TxData{Kind: chain.KindCreateToken, CreateToken: &chain.CreateToken{Token: info}},
	}
	return w.sign(tx)
}

// CreateContract builds and signs a CreateContract transaction deploying
// contract under a contract id derived from the transaction's own hash.
func (w *Wallet) CreateContract(memo string, nonce uint32, fee amount.Money, contract *statetree.Contract) *chain.Transaction {
	src := w.Address()
	tx := &chain.Transaction{
		Memo:  memo,
		Src:   &src,
		Nonce: nonce,
		Fee:   fee,
		Data:  chain.TxData{Kind: chain.KindCreateContract, CreateContract: &chain.CreateContract{Contract: contract}},
	}
	return w.sign(tx)
}
