package statetree

import (
	"encoding/binary"

	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

// Key layout (written to the same store as the chain engine's own keys; the
// prefixes keep the two apart). Parts after the prefix are concatenated
// without separators:
//
//	CONTRACT-<cid>                          contract definition
//	LROOT-<cid>                             current CompressedState
//	LHEIGHT-<cid>                           current height
//	LVAL-<cid><L|N><locator>                a leaf scalar (L) or an ancestor's
//	                                         non-default compressed value (N)
//	LAUX-<cid><locator><layer><addr>        a cached non-default internal
//	                                         List-tree node
//	LRB-<cid><height>                       rollback record for that height
const (
	prefixContract = "CONTRACT-"
	prefixRoot     = "LROOT-"
	prefixHeight   = "LHEIGHT-"
	prefixValue    = "LVAL-"
	prefixAux      = "LAUX-"
	prefixRollback = "LRB-"
)

func encodeLocator(loc Locator) []byte {
	w := codec.NewWriter()
	codec.PutVarInt(w, uint64(len(loc)))
	for _, idx := range loc {
		w.PutUint32(idx)
	}
	return w.Bytes()
}

func keyContract(cid ContractId) []byte {
	return append([]byte(prefixContract), cid[:]...)
}

func keyRoot(cid ContractId) []byte {
	return append([]byte(prefixRoot), cid[:]...)
}

func keyHeight(cid ContractId) []byte {
	return append([]byte(prefixHeight), cid[:]...)
}

func keyValue(cid ContractId, loc Locator, isLeaf bool) []byte {
	k := append([]byte(prefixValue), cid[:]...)
	if isLeaf {
		k = append(k, 'L')
	} else {
		k = append(k, 'N')
	}
	return append(k, encodeLocator(loc)...)
}

// keyAux addresses one cached internal List-tree node: listLocator is the
// locator of the List itself (the node's ancestor path up to but excluding
// the item index), layer is the internal level (0 = the single top node,
// whose hash is the List's own root value, log4Size-1 = just above the
// leaves), and addr is the node's
// address within that layer (its path digits above the layer, as a base-4
// integer).
func keyAux(cid ContractId, listLocator Locator, layer int, addr uint64) []byte {
	k := append([]byte(prefixAux), cid[:]...)
	k = append(k, encodeLocator(listLocator)...)
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(layer))
	binary.BigEndian.PutUint64(buf[4:], addr)
	return append(k, buf[:]...)
}

func keyRollback(cid ContractId, height uint64) []byte {
	k := append([]byte(prefixRollback), cid[:]...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return append(k, buf[:]...)
}
