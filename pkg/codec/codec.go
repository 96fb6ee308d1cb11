// Package codec implements the deterministic, platform-independent binary
// encoding used for KV-store values and the block wire format: fixed-width
// little-endian integers and length-prefixed byte strings.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates a deterministic byte encoding.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutUint32 appends a 4-byte little-endian integer.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint64 appends an 8-byte little-endian integer.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutBytes appends a 4-byte little-endian length prefix followed by data.
func (w *Writer) PutBytes(data []byte) {
	w.PutUint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
}

// PutFixed appends raw bytes with no length prefix (the caller guarantees a
// fixed, known width on both ends, e.g. a 32-byte hash).
func (w *Writer) PutFixed(data []byte) {
	w.buf = append(w.buf, data...)
}

// Reader consumes a deterministic byte encoding produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("codec: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Uint32 reads a 4-byte little-endian integer.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Uint64 reads an 8-byte little-endian integer.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// Bytes reads a length-prefixed byte string.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return v, nil
}

// Fixed reads exactly n raw bytes.
func (r *Reader) Fixed(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v, nil
}

// PutVarInt writes a minimal-width length-prefixed unsigned integer, mirroring
// the teacher's Bitcoin-style varint but namespaced for our own wire format.
func PutVarInt(w *Writer, v uint64) {
	switch {
	case v < 0xfd:
		w.PutUint8(uint8(v))
	case v <= 0xffff:
		w.PutUint8(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		w.buf = append(w.buf, b[:]...)
	case v <= 0xffffffff:
		w.PutUint8(0xfe)
		w.PutUint32(uint32(v))
	default:
		w.PutUint8(0xff)
		w.PutUint64(v)
	}
}

// VarInt reads a value written by PutVarInt.
func VarInt(r *Reader) (uint64, error) {
	tag, err := r.Uint8()
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		if err := r.need(2); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint16(r.buf[r.pos : r.pos+2])
		r.pos += 2
		return uint64(v), nil
	case tag == 0xfe:
		return uint64FromUint32Reader(r)
	default:
		return r.Uint64()
	}
}

func uint64FromUint32Reader(r *Reader) (uint64, error) {
	v, err := r.Uint32()
	return uint64(v), err
}
