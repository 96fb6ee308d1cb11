package zk

import (
	"math/big"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	a := H(ScalarFromUint64(1), ScalarFromUint64(2), ScalarFromUint64(3), ScalarFromUint64(4))
	b := H(ScalarFromUint64(1), ScalarFromUint64(2), ScalarFromUint64(3), ScalarFromUint64(4))
	if !a.Equal(b) {
		t.Fatal("H should be deterministic for identical inputs")
	}
}

func TestHashOrderSensitive(t *testing.T) {
	a := H(ScalarFromUint64(1), ScalarFromUint64(2))
	b := H(ScalarFromUint64(2), ScalarFromUint64(1))
	if a.Equal(b) {
		t.Fatal("H should be sensitive to input order")
	}
}

func TestScalarBytesRoundTrip(t *testing.T) {
	s := NewScalar(big.NewInt(123456789))
	rt := ScalarFromBytes(s.Bytes())
	if !s.Equal(rt) {
		t.Fatal("Scalar Bytes/ScalarFromBytes should round-trip")
	}
}

func TestZeroScalar(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero should be zero")
	}
	if !ScalarFromUint64(0).Equal(Zero) {
		t.Fatal("ScalarFromUint64(0) should equal Zero")
	}
}

func TestSignerSignVerify(t *testing.T) {
	signer := NewSigner([]byte("seed"))
	msg := H(ScalarFromUint64(42))
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !VerifySignature(signer.PublicKey(), msg, sig) {
		t.Fatal("valid MPN signature failed to verify")
	}
}

func TestSignerRejectsTamperedMessage(t *testing.T) {
	signer := NewSigner([]byte("seed"))
	msg := H(ScalarFromUint64(42))
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := H(ScalarFromUint64(43))
	if VerifySignature(signer.PublicKey(), tampered, sig) {
		t.Fatal("signature verified against tampered message")
	}
}

func TestAlwaysVerifier(t *testing.T) {
	if !AlwaysVerifier(true).VerifyProof("circuit", nil, nil) {
		t.Fatal("AlwaysVerifier(true) should accept")
	}
	if AlwaysVerifier(false).VerifyProof("circuit", nil, nil) {
		t.Fatal("AlwaysVerifier(false) should reject")
	}
}
