package chain

import (
	"encoding/binary"

	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// Key layout, per spec.md §6:
//
//	HGT                          canonical chain height (big-endian u64)
//	BH<n>                        header of block n (big-endian u64 n)
//	BK<n>                        full block n
//	ACB-<address>-<token>        account balance
//	CAB-<contract>-<token>       contract-held balance
//	ACN-<address>                account nonce
//	TOK-<token>                  token metadata (name/symbol/decimals)
//	RB-<height>                  per-block rollback record
const (
	keyHeightLit   = "HGT"
	prefixHeader   = "BH"
	prefixBlock    = "BK"
	prefixAcctBal  = "ACB-"
	prefixAcctNon  = "ACN-"
	prefixContrBal = "CAB-"
	prefixToken    = "TOK-"
	prefixRollback = "RB-"
)

func beU64(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}

func keyHeight() []byte { return []byte(keyHeightLit) }

func keyHeader(n uint64) []byte { return append([]byte(prefixHeader), beU64(n)...) }

func keyBlock(n uint64) []byte { return append([]byte(prefixBlock), beU64(n)...) }

func keyAccountBalance(addr Address, token amount.TokenId) []byte {
	k := append([]byte(prefixAcctBal), addr[:]...)
	k = append(k, '-')
	return append(k, token[:]...)
}

func keyAccountNonce(addr Address) []byte {
	return append([]byte(prefixAcctNon), addr[:]...)
}

func keyContractBalance(cid statetree.ContractId, token amount.TokenId) []byte {
	k := append([]byte(prefixContrBal), cid[:]...)
	k = append(k, '-')
	return append(k, token[:]...)
}

func keyToken(id amount.TokenId) []byte { return append([]byte(prefixToken), id[:]...) }

func keyRollback(height uint64) []byte { return append([]byte(prefixRollback), beU64(height)...) }
