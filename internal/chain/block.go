package chain

import (
	"crypto/sha256"

	"github.com/ziesha-network/bazuka-go/internal/difficulty"
	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

// ProofOfWork is the mutable mining portion of a header: the timestamp the
// miner claims, the target it must meet, and the nonce it searches over.
type ProofOfWork struct {
	Timestamp int64
	Target    difficulty.Difficulty
	Nonce     uint64
}

// Header is a block's fixed-size consensus envelope.
type Header struct {
	Number     uint64
	ParentHash [32]byte
	BlockRoot  [32]byte
	PoW        ProofOfWork
}

// Block pairs a header with its ordered transaction body. body[0] is always
// the coinbase (src == nil).
type Block struct {
	Header Header
	Body   []*Transaction
}

func doubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

func encodeHeader(w *codec.Writer, h *Header) {
	w.PutUint64(h.Number)
	w.PutFixed(h.ParentHash[:])
	w.PutFixed(h.BlockRoot[:])
	w.PutUint64(uint64(h.PoW.Timestamp))
	w.PutUint32(uint32(h.PoW.Target))
	w.PutUint64(h.PoW.Nonce)
}

func decodeHeader(r *codec.Reader) (Header, error) {
	var h Header
	n, err := r.Uint64()
	if err != nil {
		return h, err
	}
	parent, err := r.Fixed(32)
	if err != nil {
		return h, err
	}
	root, err := r.Fixed(32)
	if err != nil {
		return h, err
	}
	ts, err := r.Uint64()
	if err != nil {
		return h, err
	}
	target, err := r.Uint32()
	if err != nil {
		return h, err
	}
	nonce, err := r.Uint64()
	if err != nil {
		return h, err
	}
	h.Number = n
	copy(h.ParentHash[:], parent)
	copy(h.BlockRoot[:], root)
	h.PoW = ProofOfWork{Timestamp: int64(ts), Target: difficulty.Difficulty(target), Nonce: nonce}
	return h, nil
}

// HeaderBytes returns the header's deterministic encoding, without the
// PoW-key salt (callers needing the mining hash use HeaderHash).
func HeaderBytes(h Header) []byte {
	w := codec.NewWriter()
	encodeHeader(w, &h)
	return w.Bytes()
}

// HashHeader returns the classical double-SHA256 hash of a header's bare
// encoding, with no PoW-key salt mixed in. This is the hash used for
// parent-linkage checks (block.header.parent_hash == hash(previous_header)).
func HashHeader(h Header) [32]byte {
	return doubleSHA256(HeaderBytes(h))
}

// HeaderHash returns the hash a header's nonce must be mined against: the
// classical hash of the PoW key concatenated with the header's bare
// encoding, mixing in the per-epoch rotating salt spec.md §4.3 describes.
func HeaderHash(h Header, powKey difficulty.PowKey) [32]byte {
	w := codec.NewWriter()
	w.PutFixed(powKey[:])
	encodeHeader(w, &h)
	return doubleSHA256(w.Bytes())
}

// MerkleRoot computes the Bitcoin-style binary Merkle root of a block's
// transaction hashes, in order (order-sensitive: reordering the body
// changes the root — spec.md §8 "Merkle injectivity").
func MerkleRoot(txHashes [][32]byte) [32]byte {
	if len(txHashes) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(txHashes))
	copy(level, txHashes)
	for len(level) > 1 {
		var next [][32]byte
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			buf := make([]byte, 64)
			copy(buf[:32], left[:])
			copy(buf[32:], right[:])
			next = append(next, doubleSHA256(buf))
		}
		level = next
	}
	return level[0]
}

// BodyRoot computes the Merkle root of a block body's transaction hashes.
func BodyRoot(body []*Transaction) [32]byte {
	hashes := make([][32]byte, len(body))
	for i, tx := range body {
		hashes[i] = tx.Hash()
	}
	return MerkleRoot(hashes)
}

func encodeBlock(w *codec.Writer, b *Block) {
	encodeHeader(w, &b.Header)
	codec.PutVarInt(w, uint64(len(b.Body)))
	for _, tx := range b.Body {
		encodeTransaction(w, tx)
	}
}

func decodeBlock(r *codec.Reader) (*Block, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	n, err := codec.VarInt(r)
	if err != nil {
		return nil, err
	}
	body := make([]*Transaction, n)
	for i := range body {
		tx, err := decodeTransaction(r)
		if err != nil {
			return nil, err
		}
		body[i] = tx
	}
	return &Block{Header: h, Body: body}, nil
}

// EncodeBlock returns the block wire format: header then a length-prefixed
// sequence of tagged transactions (spec.md §6).
func EncodeBlock(b *Block) []byte {
	w := codec.NewWriter()
	encodeBlock(w, b)
	return w.Bytes()
}

// DecodeBlock inverts EncodeBlock.
func DecodeBlock(data []byte) (*Block, error) {
	return decodeBlock(codec.NewReader(data))
}
