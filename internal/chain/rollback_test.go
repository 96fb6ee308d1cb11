package chain

import (
	"bytes"
	"testing"

	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// TestBlockRollbackRecordDeterministic guards against the map-iteration-order
// bug: toRecord/encodeBlockRollback must produce identical bytes every time
// for the same journal contents, regardless of Go's randomized map iteration
// order (spec.md §8's Determinism property, and Store.Checksum() consistency
// across nodes that applied the same block).
func TestBlockRollbackRecordDeterministic(t *testing.T) {
	var addrs [4]Address
	for i := range addrs {
		addrs[i][0] = byte(i + 1)
	}
	var toks [3]amount.TokenId
	for i := range toks {
		toks[i][0] = byte(i + 1)
	}
	var cids [2]statetree.ContractId
	for i := range cids {
		cids[i][0] = byte(i + 1)
	}

	build := func() []byte {
		j := newJournal()
		for i, a := range addrs {
			for _, tok := range toks {
				j.noteBalance(a, tok, amount.Amount(i))
			}
			j.noteNonce(a, uint32(i))
		}
		for i, cid := range cids {
			for _, tok := range toks {
				j.noteContractBalance(cid, tok, amount.Amount(i))
			}
			j.updatedConts[cid] = uint32(i + 1)
		}
		return encodeBlockRollback(j.toRecord())
	}

	want := build()
	for i := 0; i < 50; i++ {
		got := build()
		if !bytes.Equal(got, want) {
			t.Fatalf("iteration %d: rollback record bytes differ across runs with identical journal contents", i)
		}
	}
}
