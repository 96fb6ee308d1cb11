// Package crypto implements the classical signature scheme used to
// authorize regular transactions: secp256k1/ECDSA over the transaction's
// deterministic encoding with its signature field blanked out.
package crypto

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidSignature is returned when a signature fails to verify.
var ErrInvalidSignature = errors.New("crypto: invalid signature")

// Address is a classical-scheme public key, compressed encoding. The zero
// value (all-zero bytes) never corresponds to a real key.
type Address [33]byte

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GeneratePrivateKey derives a deterministic private key from a seed. Real
// nodes should prefer a CSPRNG; the wallet uses this for reproducible
// derivation from a mnemonic-equivalent seed.
func GeneratePrivateKey(seed []byte) *PrivateKey {
	h := sha256.Sum256(seed)
	key := secp256k1.PrivKeyFromBytes(h[:])
	return &PrivateKey{key: key}
}

// Address returns the public address (compressed public key) for this key.
func (p *PrivateKey) Address() Address {
	var addr Address
	copy(addr[:], p.key.PubKey().SerializeCompressed())
	return addr
}

// Sign signs a message hash (already-hashed transaction bytes) and returns a
// DER-encoded signature.
func (p *PrivateKey) Sign(messageHash [32]byte) []byte {
	sig := ecdsa.Sign(p.key, messageHash[:])
	return sig.Serialize()
}

// Verify checks a DER-encoded signature against a message hash and address.
func Verify(addr Address, messageHash [32]byte, sig []byte) bool {
	pub, err := secp256k1.ParsePubKey(addr[:])
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(messageHash[:], pub)
}

// HashForSigning returns the digest a Sign/Verify call should operate over:
// SHA-256 of the caller-supplied deterministic encoding.
func HashForSigning(serializedWithUnsignedSig []byte) [32]byte {
	return sha256.Sum256(serializedWithUnsignedSig)
}
