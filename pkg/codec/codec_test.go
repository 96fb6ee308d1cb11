package codec

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutUint8(7)
	w.PutUint32(1234)
	w.PutUint64(9876543210)
	w.PutBytes([]byte("hello"))
	PutVarInt(w, 0)
	PutVarInt(w, 0xfc)
	PutVarInt(w, 0xfffe)
	PutVarInt(w, 0xfffffffe)
	PutVarInt(w, 1<<40)

	r := NewReader(w.Bytes())

	if v, err := r.Uint8(); err != nil || v != 7 {
		t.Fatalf("Uint8 = %d, %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 1234 {
		t.Fatalf("Uint32 = %d, %v", v, err)
	}
	if v, err := r.Uint64(); err != nil || v != 9876543210 {
		t.Fatalf("Uint64 = %d, %v", v, err)
	}
	if v, err := r.Bytes(); err != nil || string(v) != "hello" {
		t.Fatalf("Bytes = %q, %v", v, err)
	}
	for _, want := range []uint64{0, 0xfc, 0xfffe, 0xfffffffe, 1 << 40} {
		got, err := VarInt(r)
		if err != nil {
			t.Fatalf("VarInt: %v", err)
		}
		if got != want {
			t.Fatalf("VarInt = %d, want %d", got, want)
		}
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderErrorsOnShortInput(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.Uint32(); err == nil {
		t.Error("expected error reading Uint32 from 2 bytes")
	}
}
