// Package zk implements the zk-friendly primitives the contract state
// manager and the MPN (mini payment network) transactions build on: a
// Poseidon hash over the BabyJubJub scalar field and a BabyJubJub/EdDSA
// signature scheme. The actual zk-SNARK circuit verifier is out of scope
// (spec.md §1); VerifyProof is the opaque boolean oracle callers plug a real
// verifier into.
package zk

import (
	"crypto/sha256"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Scalar is an element of the BabyJubJub scalar field, the unit of value the
// sparse Merkle contract tree stores at every leaf and internal node.
type Scalar struct {
	v *big.Int
}

// Zero is the default/empty scalar — the value of any leaf that has never
// been written, and the compression of any empty subtree.
var Zero = Scalar{v: big.NewInt(0)}

// NewScalar wraps a big.Int as given, without reducing it into the field,
// so exact leaf values (e.g. token amounts) survive round trips.
func NewScalar(v *big.Int) Scalar {
	return Scalar{v: new(big.Int).Set(v)}
}

// ScalarFromUint64 wraps a small non-negative integer.
func ScalarFromUint64(v uint64) Scalar {
	return Scalar{v: new(big.Int).SetUint64(v)}
}

// BigInt returns the underlying big.Int (never nil; Zero's is 0).
func (s Scalar) BigInt() *big.Int {
	if s.v == nil {
		return big.NewInt(0)
	}
	return s.v
}

// IsZero reports whether this scalar is the default/empty value.
func (s Scalar) IsZero() bool {
	return s.BigInt().Sign() == 0
}

// Equal compares two scalars by value.
func (s Scalar) Equal(o Scalar) bool {
	return s.BigInt().Cmp(o.BigInt()) == 0
}

// Bytes returns a fixed 32-byte big-endian encoding, used for KV storage and
// the classical Hasher's header mixing.
func (s Scalar) Bytes() [32]byte {
	var out [32]byte
	b := s.BigInt().Bytes()
	copy(out[32-len(b):], b)
	return out
}

// ScalarFromBytes inverts Bytes.
func ScalarFromBytes(b [32]byte) Scalar {
	return Scalar{v: new(big.Int).SetBytes(b[:])}
}

// H is the zk-friendly hash (Poseidon) used throughout the contract state
// tree: List nodes hash exactly four children; Struct nodes hash one input
// per field, and nothing here caps the field count.
func H(inputs ...Scalar) Scalar {
	if len(inputs) == 0 {
		return Zero
	}
	args := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		args[i] = in.BigInt()
	}
	out, err := poseidon.Hash(args)
	if err != nil {
		// poseidon.Hash errors on arity > 16; List nodes always pass four
		// inputs, but a Struct model with more than 16 fields panics here.
		panic("zk: poseidon hash: " + err.Error())
	}
	return Scalar{v: out}
}

// VerifyProof is the opaque zk-SNARK verification oracle spec.md §9
// describes: a pure predicate over a circuit identifier, its public inputs,
// and a proof blob. The real prover/verifier is out of scope; production
// wiring plugs in a circuit-specific verifier here. The zero-value
// implementation used by the chain engine's tests always returns the given
// bool, letting tests exercise both the accept and reject paths without a
// real circuit.
type ProofVerifier interface {
	VerifyProof(circuitID string, publicInputs []Scalar, proof []byte) bool
}

// AlwaysVerifier is a ProofVerifier stub that accepts or rejects every proof
// according to a fixed answer, for use in tests and in development nodes
// that have not wired in a real circuit verifier.
type AlwaysVerifier bool

// VerifyProof implements ProofVerifier.
func (a AlwaysVerifier) VerifyProof(string, []Scalar, []byte) bool {
	return bool(a)
}

// Signer is a BabyJubJub EdDSA-over-Poseidon keypair, used to authorize MPN
// transactions (the zk-friendly counterpart to internal/crypto's classical
// scheme).
type Signer struct {
	priv babyjub.PrivateKey
}

// NewSigner derives a deterministic BabyJubJub key from a seed, domain
// separated from the classical scheme's derivation so the same wallet seed
// never yields a reused raw key across the two schemes.
func NewSigner(seed []byte) *Signer {
	h := sha256.Sum256(append([]byte("mpn-signing-key:"), seed...))
	var priv babyjub.PrivateKey
	copy(priv[:], h[:])
	return &Signer{priv: priv}
}

// PublicKey returns the BabyJubJub public key point.
func (s *Signer) PublicKey() *babyjub.PublicKey {
	return s.priv.Public()
}

// PublicKeyScalars returns the public key's affine coordinates as scalars,
// the form MPN calldata and contract leaves store them in.
func (s *Signer) PublicKeyScalars() (x, y Scalar) {
	pub := s.PublicKey()
	return NewScalar(pub.X), NewScalar(pub.Y)
}

// Sign signs a scalar message (e.g. the Poseidon hash of a transaction body)
// with Poseidon-based EdDSA.
func (s *Signer) Sign(msg Scalar) (*babyjub.Signature, error) {
	return s.priv.SignPoseidon(msg.BigInt())
}

// VerifySignature checks an MPN signature against a public key and message.
func VerifySignature(pub *babyjub.PublicKey, msg Scalar, sig *babyjub.Signature) bool {
	return pub.VerifyPoseidon(msg.BigInt(), sig)
}

// EncodeSignature compresses an EdDSA signature to its canonical 64-byte
// form, the shape MPN calldata envelopes carry it in.
func EncodeSignature(sig *babyjub.Signature) []byte {
	comp := sig.Compress()
	return comp[:]
}

// DecodeSignature inverts EncodeSignature.
func DecodeSignature(b []byte) (*babyjub.Signature, error) {
	var comp babyjub.SignatureComp
	copy(comp[:], b)
	return comp.Decompress()
}

// EncodePublicKey compresses a BabyJubJub public key to its canonical
// 32-byte form.
func EncodePublicKey(pub *babyjub.PublicKey) []byte {
	comp := pub.Compress()
	return comp[:]
}

// DecodePublicKey inverts EncodePublicKey.
func DecodePublicKey(b []byte) (*babyjub.PublicKey, error) {
	var comp babyjub.PublicKeyComp
	copy(comp[:], b)
	return comp.Decompress()
}
