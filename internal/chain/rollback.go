package chain

import (
	"bytes"
	"sort"

	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

// journal accumulates the pre-images a single block application touches,
// the chain-level analogue of statetree's rollback record (spec.md §3
// "Rollback record"). Every balance/nonce is captured the first time it is
// touched during a block's application; re-touching the same key within
// the same block does not overwrite the recorded pre-image.
type journal struct {
	balances      map[string]amount.Amount
	touchedBal    map[string]bool
	nonces        map[Address]uint32
	touchedNonce  map[Address]bool
	contractBal   map[string]amount.Amount
	touchedCBal   map[string]bool
	createdTokens []amount.TokenId
	createdConts  []statetree.ContractId
	// updatedConts counts, per contract, how many times UpdateContract was
	// called on it during the block: each call advances the contract's own
	// height by one, so rolling the block back must replay RollbackContract
	// that many times to undo them all.
	updatedConts map[statetree.ContractId]uint32
}

func newJournal() *journal {
	return &journal{
		balances:     make(map[string]amount.Amount),
		touchedBal:   make(map[string]bool),
		nonces:       make(map[Address]uint32),
		touchedNonce: make(map[Address]bool),
		contractBal:  make(map[string]amount.Amount),
		touchedCBal:  make(map[string]bool),
		updatedConts: make(map[statetree.ContractId]uint32),
	}
}

func balanceJournalKey(addr Address, tok amount.TokenId) string {
	return string(addr[:]) + string(tok[:])
}

func contractBalanceJournalKey(cid statetree.ContractId, tok amount.TokenId) string {
	return string(cid[:]) + string(tok[:])
}

func (j *journal) noteBalance(addr Address, tok amount.TokenId, prior amount.Amount) {
	key := balanceJournalKey(addr, tok)
	if j.touchedBal[key] {
		return
	}
	j.touchedBal[key] = true
	j.balances[key] = prior
}

func (j *journal) noteNonce(addr Address, prior uint32) {
	if j.touchedNonce[addr] {
		return
	}
	j.touchedNonce[addr] = true
	j.nonces[addr] = prior
}

func (j *journal) noteContractBalance(cid statetree.ContractId, tok amount.TokenId, prior amount.Amount) {
	key := contractBalanceJournalKey(cid, tok)
	if j.touchedCBal[key] {
		return
	}
	j.touchedCBal[key] = true
	j.contractBal[key] = prior
}

// blockRollback is the persisted inverse patch for one applied block.
type blockRollback struct {
	Balances      []balanceEntry
	Nonces        []nonceEntry
	ContractBal   []contractBalanceEntry
	CreatedTokens []amount.TokenId
	CreatedConts  []statetree.ContractId
	UpdatedConts  []contractUpdateCount
}

// contractUpdateCount records how many times a single contract's state was
// advanced within the block being described, so Rollback knows how many
// RollbackContract steps undo it completely.
type contractUpdateCount struct {
	Cid   statetree.ContractId
	Count uint32
}

type balanceEntry struct {
	Addr  Address
	Token amount.TokenId
	Prior amount.Amount
}

type nonceEntry struct {
	Addr  Address
	Prior uint32
}

type contractBalanceEntry struct {
	Cid   statetree.ContractId
	Token amount.TokenId
	Prior amount.Amount
}

func (j *journal) toRecord() blockRollback {
	rec := blockRollback{
		CreatedTokens: j.createdTokens,
		CreatedConts:  j.createdConts,
	}
	for key, prior := range j.balances {
		var addr Address
		var tok amount.TokenId
		copy(addr[:], key[:33])
		copy(tok[:], key[33:])
		rec.Balances = append(rec.Balances, balanceEntry{Addr: addr, Token: tok, Prior: prior})
	}
	for addr, prior := range j.nonces {
		rec.Nonces = append(rec.Nonces, nonceEntry{Addr: addr, Prior: prior})
	}
	for key, prior := range j.contractBal {
		var cid statetree.ContractId
		var tok amount.TokenId
		copy(cid[:], key[:32])
		copy(tok[:], key[32:])
		rec.ContractBal = append(rec.ContractBal, contractBalanceEntry{Cid: cid, Token: tok, Prior: prior})
	}
	for cid, count := range j.updatedConts {
		rec.UpdatedConts = append(rec.UpdatedConts, contractUpdateCount{Cid: cid, Count: count})
	}

	// Map iteration order is randomized; sort every slice by a stable key so
	// encodeBlockRollback produces identical bytes for the same block across
	// runs (spec.md §8 determinism, and Store.Checksum() consistency).
	sort.Slice(rec.Balances, func(i, k int) bool {
		return bytes.Compare(balanceJournalKeyBytes(rec.Balances[i].Addr, rec.Balances[i].Token),
			balanceJournalKeyBytes(rec.Balances[k].Addr, rec.Balances[k].Token)) < 0
	})
	sort.Slice(rec.Nonces, func(i, k int) bool {
		return bytes.Compare(rec.Nonces[i].Addr[:], rec.Nonces[k].Addr[:]) < 0
	})
	sort.Slice(rec.ContractBal, func(i, k int) bool {
		return bytes.Compare(contractBalanceJournalKeyBytes(rec.ContractBal[i].Cid, rec.ContractBal[i].Token),
			contractBalanceJournalKeyBytes(rec.ContractBal[k].Cid, rec.ContractBal[k].Token)) < 0
	})
	sort.Slice(rec.UpdatedConts, func(i, k int) bool {
		return bytes.Compare(rec.UpdatedConts[i].Cid[:], rec.UpdatedConts[k].Cid[:]) < 0
	})
	return rec
}

func balanceJournalKeyBytes(addr Address, tok amount.TokenId) []byte {
	return append(append([]byte(nil), addr[:]...), tok[:]...)
}

func contractBalanceJournalKeyBytes(cid statetree.ContractId, tok amount.TokenId) []byte {
	return append(append([]byte(nil), cid[:]...), tok[:]...)
}

func encodeBlockRollback(rec blockRollback) []byte {
	w := codec.NewWriter()
	codec.PutVarInt(w, uint64(len(rec.Balances)))
	for _, b := range rec.Balances {
		w.PutFixed(b.Addr[:])
		w.PutFixed(b.Token[:])
		w.PutUint64(uint64(b.Prior))
	}
	codec.PutVarInt(w, uint64(len(rec.Nonces)))
	for _, n := range rec.Nonces {
		w.PutFixed(n.Addr[:])
		w.PutUint32(n.Prior)
	}
	codec.PutVarInt(w, uint64(len(rec.ContractBal)))
	for _, c := range rec.ContractBal {
		w.PutFixed(c.Cid[:])
		w.PutFixed(c.Token[:])
		w.PutUint64(uint64(c.Prior))
	}
	codec.PutVarInt(w, uint64(len(rec.CreatedTokens)))
	for _, t := range rec.CreatedTokens {
		w.PutFixed(t[:])
	}
	codec.PutVarInt(w, uint64(len(rec.CreatedConts)))
	for _, c := range rec.CreatedConts {
		w.PutFixed(c[:])
	}
	codec.PutVarInt(w, uint64(len(rec.UpdatedConts)))
	for _, c := range rec.UpdatedConts {
		w.PutFixed(c.Cid[:])
		w.PutUint32(c.Count)
	}
	return w.Bytes()
}

func decodeBlockRollback(data []byte) (blockRollback, error) {
	r := codec.NewReader(data)
	var rec blockRollback

	n, err := codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.Balances = make([]balanceEntry, n)
	for i := range rec.Balances {
		addr, err := r.Fixed(33)
		if err != nil {
			return rec, err
		}
		tok, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		amt, err := r.Uint64()
		if err != nil {
			return rec, err
		}
		var a Address
		copy(a[:], addr)
		var t amount.TokenId
		copy(t[:], tok)
		rec.Balances[i] = balanceEntry{Addr: a, Token: t, Prior: amount.Amount(amt)}
	}

	n, err = codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.Nonces = make([]nonceEntry, n)
	for i := range rec.Nonces {
		addr, err := r.Fixed(33)
		if err != nil {
			return rec, err
		}
		nonce, err := r.Uint32()
		if err != nil {
			return rec, err
		}
		var a Address
		copy(a[:], addr)
		rec.Nonces[i] = nonceEntry{Addr: a, Prior: nonce}
	}

	n, err = codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.ContractBal = make([]contractBalanceEntry, n)
	for i := range rec.ContractBal {
		cid, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		tok, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		amt, err := r.Uint64()
		if err != nil {
			return rec, err
		}
		var c statetree.ContractId
		copy(c[:], cid)
		var t amount.TokenId
		copy(t[:], tok)
		rec.ContractBal[i] = contractBalanceEntry{Cid: c, Token: t, Prior: amount.Amount(amt)}
	}

	n, err = codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.CreatedTokens = make([]amount.TokenId, n)
	for i := range rec.CreatedTokens {
		b, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		copy(rec.CreatedTokens[i][:], b)
	}

	n, err = codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.CreatedConts = make([]statetree.ContractId, n)
	for i := range rec.CreatedConts {
		b, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		copy(rec.CreatedConts[i][:], b)
	}

	n, err = codec.VarInt(r)
	if err != nil {
		return rec, err
	}
	rec.UpdatedConts = make([]contractUpdateCount, n)
	for i := range rec.UpdatedConts {
		b, err := r.Fixed(32)
		if err != nil {
			return rec, err
		}
		count, err := r.Uint32()
		if err != nil {
			return rec, err
		}
		var cid statetree.ContractId
		copy(cid[:], b)
		rec.UpdatedConts[i] = contractUpdateCount{Cid: cid, Count: count}
	}

	return rec, nil
}
