package crypto

import "testing"

func TestSignAndVerify(t *testing.T) {
	priv := GeneratePrivateKey([]byte("alice seed"))
	addr := priv.Address()

	msg := HashForSigning([]byte("transaction payload"))
	sig := priv.Sign(msg)

	if !Verify(addr, msg, sig) {
		t.Fatal("valid signature failed to verify")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv := GeneratePrivateKey([]byte("alice seed"))
	other := GeneratePrivateKey([]byte("bob seed"))

	msg := HashForSigning([]byte("transaction payload"))
	sig := priv.Sign(msg)

	if Verify(other.Address(), msg, sig) {
		t.Fatal("signature verified against the wrong address")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv := GeneratePrivateKey([]byte("alice seed"))
	addr := priv.Address()

	msg := HashForSigning([]byte("transaction payload"))
	sig := priv.Sign(msg)

	tampered := HashForSigning([]byte("different payload"))
	if Verify(addr, tampered, sig) {
		t.Fatal("signature verified against a tampered message")
	}
}

func TestDeterministicDerivation(t *testing.T) {
	a := GeneratePrivateKey([]byte("same seed"))
	b := GeneratePrivateKey([]byte("same seed"))
	if a.Address() != b.Address() {
		t.Fatal("identical seeds should derive identical addresses")
	}
}
