// Package chain implements the chain state machine at the heart of the
// ledger engine: drafting, applying, extending and rolling back blocks
// atomically against a kvstore.Store, enforcing difficulty retargeting,
// PoW-key rotation, nonce/signature/balance validation, and driving the
// contract state manager for UpdateContract transactions.
package chain

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ziesha-network/bazuka-go/internal/crypto"
	"github.com/ziesha-network/bazuka-go/internal/difficulty"
	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/metrics"
	"github.com/ziesha-network/bazuka-go/internal/statetree"
	"github.com/ziesha-network/bazuka-go/internal/zk"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
	"github.com/ziesha-network/bazuka-go/pkg/codec"
)

// Chain is the stateless engine driving a kvstore.Store through the block
// lifecycle. It holds no mutable state of its own — every call takes the
// store (or one of its Mirror() overlays) explicitly, so tests and forks
// can run several chains concurrently over independent stores.
type Chain struct {
	cfg      Config
	tree     *statetree.Manager
	verifier zk.ProofVerifier
	logger   *zap.Logger
}

// New constructs a chain engine bound to cfg and verifier. logger may be
// nil, in which case a no-op logger is used (matching the teacher's
// constructor-injected *zap.Logger convention).
func New(cfg Config, verifier zk.ProofVerifier, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{cfg: cfg, tree: statetree.NewManager(), verifier: verifier, logger: logger}
}

// GetHeight returns the chain's reported height: the next block number
// expected to be applied (0 before genesis, last_number+1 after).
func (c *Chain) GetHeight(store kvstore.Store) (uint64, error) {
	v, ok, err := store.Get(keyHeight())
	if err != nil {
		return 0, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return 0, nil
	}
	r := codec.NewReader(v)
	n, err := r.Uint64()
	if err != nil {
		return 0, wrapErr(ErrInconsistency, err)
	}
	return n, nil
}

func (c *Chain) setHeight(store kvstore.Store, h uint64) error {
	w := codec.NewWriter()
	w.PutUint64(h)
	return store.Update([]kvstore.Op{kvstore.Put(keyHeight(), w.Bytes())})
}

// GetHeader fetches the header of block n.
func (c *Chain) GetHeader(store kvstore.Store, n uint64) (*Header, error) {
	v, ok, err := store.Get(keyHeader(n))
	if err != nil {
		return nil, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return nil, newErr(ErrBlockNotFound, "no header at height %d", n)
	}
	h, err := decodeHeader(codec.NewReader(v))
	if err != nil {
		return nil, wrapErr(ErrInconsistency, err)
	}
	return &h, nil
}

// GetBlock fetches the full block n.
func (c *Chain) GetBlock(store kvstore.Store, n uint64) (*Block, error) {
	v, ok, err := store.Get(keyBlock(n))
	if err != nil {
		return nil, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return nil, newErr(ErrBlockNotFound, "no block at height %d", n)
	}
	b, err := decodeBlock(codec.NewReader(v))
	if err != nil {
		return nil, wrapErr(ErrInconsistency, err)
	}
	return b, nil
}

func (c *Chain) getNonce(store kvstore.Store, addr Address) (uint32, error) {
	v, ok, err := store.Get(keyAccountNonce(addr))
	if err != nil {
		return 0, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return 0, nil
	}
	r := codec.NewReader(v)
	n, err := r.Uint32()
	if err != nil {
		return 0, wrapErr(ErrInconsistency, err)
	}
	return n, nil
}

func (c *Chain) setNonce(store kvstore.Store, addr Address, nonce uint32) error {
	if nonce == 0 {
		return store.Update([]kvstore.Op{kvstore.Remove(keyAccountNonce(addr))})
	}
	w := codec.NewWriter()
	w.PutUint32(nonce)
	return store.Update([]kvstore.Op{kvstore.Put(keyAccountNonce(addr), w.Bytes())})
}

func (c *Chain) getBalance(store kvstore.Store, addr Address, tok amount.TokenId) (amount.Amount, error) {
	v, ok, err := store.Get(keyAccountBalance(addr, tok))
	if err != nil {
		return 0, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return 0, nil
	}
	r := codec.NewReader(v)
	n, err := r.Uint64()
	if err != nil {
		return 0, wrapErr(ErrInconsistency, err)
	}
	return amount.Amount(n), nil
}

func (c *Chain) setBalance(store kvstore.Store, addr Address, tok amount.TokenId, val amount.Amount) error {
	if val == 0 {
		return store.Update([]kvstore.Op{kvstore.Remove(keyAccountBalance(addr, tok))})
	}
	w := codec.NewWriter()
	w.PutUint64(uint64(val))
	return store.Update([]kvstore.Op{kvstore.Put(keyAccountBalance(addr, tok), w.Bytes())})
}

func (c *Chain) getContractBalance(store kvstore.Store, cid statetree.ContractId, tok amount.TokenId) (amount.Amount, error) {
	v, ok, err := store.Get(keyContractBalance(cid, tok))
	if err != nil {
		return 0, wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return 0, nil
	}
	r := codec.NewReader(v)
	n, err := r.Uint64()
	if err != nil {
		return 0, wrapErr(ErrInconsistency, err)
	}
	return amount.Amount(n), nil
}

func (c *Chain) setContractBalance(store kvstore.Store, cid statetree.ContractId, tok amount.TokenId, val amount.Amount) error {
	if val == 0 {
		return store.Update([]kvstore.Op{kvstore.Remove(keyContractBalance(cid, tok))})
	}
	w := codec.NewWriter()
	w.PutUint64(uint64(val))
	return store.Update([]kvstore.Op{kvstore.Put(keyContractBalance(cid, tok), w.Bytes())})
}

// GetAccount assembles the full account view: nonce plus every non-zero
// token balance.
func (c *Chain) GetAccount(store kvstore.Store, addr Address) (Account, error) {
	nonce, err := c.getNonce(store, addr)
	if err != nil {
		return Account{}, err
	}
	prefix := append(append([]byte(prefixAcctBal), addr[:]...), '-')
	pairs, err := store.Pairs(prefix)
	if err != nil {
		return Account{}, wrapErr(ErrKvStoreError, err)
	}
	acct := NewAccount()
	acct.Nonce = nonce
	for _, kv := range pairs {
		var tok amount.TokenId
		copy(tok[:], kv.Key[len(prefix):])
		r := codec.NewReader(kv.Value)
		v, err := r.Uint64()
		if err != nil {
			return Account{}, wrapErr(ErrInconsistency, err)
		}
		acct.Balances[tok] = amount.Amount(v)
	}
	return acct, nil
}

// adjustBalance applies delta (positive credit, negative debit) to addr's
// tok balance, journaling the pre-image on first touch and rejecting a
// debit that would underflow.
func (c *Chain) adjustBalance(store kvstore.Store, j *journal, addr Address, tok amount.TokenId, delta int64) error {
	cur, err := c.getBalance(store, addr, tok)
	if err != nil {
		return err
	}
	j.noteBalance(addr, tok, cur)
	next := int64(cur) + delta
	if next < 0 {
		return newErr(ErrBalanceInsufficient, "address has %s of token, needs %d more", cur, -delta-int64(cur))
	}
	return c.setBalance(store, addr, tok, amount.Amount(next))
}

func (c *Chain) adjustContractBalance(store kvstore.Store, j *journal, cid statetree.ContractId, tok amount.TokenId, delta int64) error {
	cur, err := c.getContractBalance(store, cid, tok)
	if err != nil {
		return err
	}
	j.noteContractBalance(cid, tok, cur)
	next := int64(cur) + delta
	if next < 0 {
		return newErr(ErrBalanceInsufficient, "contract has %s of token, needs %d more", cur, -delta-int64(cur))
	}
	return c.setContractBalance(store, cid, tok, amount.Amount(next))
}

// applyTx validates and applies a single signed transaction against store
// (always a mirror), journaling every touched pre-image. The coinbase entry
// is never routed through applyTx: ApplyBlock credits it directly once the
// real fee total is known.
func (c *Chain) applyTx(store kvstore.Store, tx *Transaction, j *journal) error {
	if tx.Src == nil {
		return newErr(ErrSignatureError, "unsigned transaction outside coinbase")
	}
	if !tx.Sig.Signed {
		return newErr(ErrSignatureError, "missing signature")
	}
	hash := crypto.HashForSigning(tx.SigningBytes())
	if !crypto.Verify(*tx.Src, hash, tx.Sig.Sig) {
		return newErr(ErrSignatureError, "signature does not verify")
	}

	nonce, err := c.getNonce(store, *tx.Src)
	if err != nil {
		return err
	}
	j.noteNonce(*tx.Src, nonce)
	if tx.Nonce != nonce+1 {
		return newErr(ErrInvalidTransactionNonce, "tx nonce %d, expected %d", tx.Nonce, nonce+1)
	}

	if tx.IsSelfPayment() {
		return newErr(ErrSelfPayment, "regular send entry pays its own source")
	}

	if tx.Fee.Amount != 0 {
		if err := c.adjustBalance(store, j, *tx.Src, tx.Fee.TokenId, -int64(tx.Fee.Amount)); err != nil {
			return err
		}
	}

	switch tx.Data.Kind {
	case KindRegularSend:
		for _, e := range tx.Data.RegularSend.Entries {
			if err := c.adjustBalance(store, j, *tx.Src, e.Money.TokenId, -int64(e.Money.Amount)); err != nil {
				return err
			}
			if err := c.adjustBalance(store, j, e.Dst, e.Money.TokenId, int64(e.Money.Amount)); err != nil {
				return err
			}
		}
	case KindCreateToken:
		t := tx.Data.CreateToken.Token
		tokenID := amount.NewTokenId((*tx.Src)[:], tx.Nonce, t.Name, t.Symbol)
		w := codec.NewWriter()
		w.PutBytes([]byte(t.Name))
		w.PutBytes([]byte(t.Symbol))
		w.PutUint8(t.Decimals)
		if err := store.Update([]kvstore.Op{kvstore.Put(keyToken(tokenID), w.Bytes())}); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
		j.createdTokens = append(j.createdTokens, tokenID)
		if err := c.adjustBalance(store, j, *tx.Src, tokenID, int64(t.Supply)); err != nil {
			return err
		}
	case KindCreateContract:
		contract := tx.Data.CreateContract.Contract
		cid := statetree.ContractId(tx.Hash())
		if err := c.tree.PutContract(store, cid, contract); err != nil {
			return wrapErr(ErrStateManagerError, err)
		}
		j.createdConts = append(j.createdConts, cid)
	case KindUpdateContract:
		u := tx.Data.UpdateContract
		contract, err := c.tree.GetContract(store, u.ContractId)
		if err != nil {
			return wrapErr(ErrStateManagerError, err)
		}
		for _, up := range u.Updates {
			if !c.verifier.VerifyProof(up.CircuitId, up.PublicInputs, up.Proof) {
				return newErr(ErrStateManagerError, "proof rejected for circuit %s", up.CircuitId)
			}
			switch up.Kind {
			case UpdateKindDeposit:
				if up.Money.Amount != 0 {
					if err := c.adjustBalance(store, j, *tx.Src, up.Money.TokenId, -int64(up.Money.Amount)); err != nil {
						return err
					}
					if err := c.adjustContractBalance(store, j, u.ContractId, up.Money.TokenId, int64(up.Money.Amount)); err != nil {
						return err
					}
				}
			case UpdateKindWithdraw:
				if up.Money.Amount != 0 {
					if err := c.adjustContractBalance(store, j, u.ContractId, up.Money.TokenId, -int64(up.Money.Amount)); err != nil {
						return err
					}
					if err := c.adjustBalance(store, j, *tx.Src, up.Money.TokenId, int64(up.Money.Amount)); err != nil {
						return err
					}
				}
			case UpdateKindFunctionCall:
				// no token movement
			}
			if len(up.Delta) > 0 {
				curHeight, err := c.tree.GetHeight(store, u.ContractId)
				if err != nil {
					return wrapErr(ErrStateManagerError, err)
				}
				if err := c.tree.UpdateContract(store, u.ContractId, contract, up.Delta, curHeight+1); err != nil {
					return wrapErr(ErrStateManagerError, err)
				}
				if !j.createdContractTouched(u.ContractId) {
					j.updatedConts[u.ContractId]++
				}
			}
		}
	}

	if err := c.setNonce(store, *tx.Src, tx.Nonce); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	return nil
}

func (j *journal) createdContractTouched(cid statetree.ContractId) bool {
	for _, c := range j.createdConts {
		if c == cid {
			return true
		}
	}
	return false
}

// headerLookup adapts the store into a difficulty.HeaderLookup.
func (c *Chain) headerLookup(store kvstore.Store) difficulty.HeaderLookup {
	return func(height uint64) (difficulty.HeaderInfo, bool) {
		h, err := c.GetHeader(store, height)
		if err != nil {
			return difficulty.HeaderInfo{}, false
		}
		return difficulty.HeaderInfo{Timestamp: h.PoW.Timestamp, Difficulty: h.PoW.Target}, true
	}
}

// headerHashLookup adapts the store into a difficulty.HeaderHashLookup,
// using the classical bare header hash (no PoW-key salt) as the value
// mixed into subsequent epochs' PoW key, matching parent-linkage hashing.
func (c *Chain) headerHashLookup(store kvstore.Store) difficulty.HeaderHashLookup {
	return func(height uint64) ([32]byte, bool) {
		h, err := c.GetHeader(store, height)
		if err != nil {
			return [32]byte{}, false
		}
		return HashHeader(*h), true
	}
}

func (c *Chain) validateHeader(store kvstore.Store, h Header, height uint64, checkPoW bool) error {
	if h.Number != height {
		return newErr(ErrInvalidBlockNumber, "block number %d, expected %d", h.Number, height)
	}

	if h.Number == 0 {
		var zero [32]byte
		if h.ParentHash != zero {
			return newErr(ErrInvalidParentHash, "genesis must have a zero parent hash")
		}
	} else {
		parent, err := c.GetHeader(store, h.Number-1)
		if err != nil {
			return err
		}
		if h.ParentHash != HashHeader(*parent) {
			return newErr(ErrInvalidParentHash, "parent hash mismatch at height %d", h.Number)
		}

		span := c.cfg.MedianTimeSpan
		var lo uint64
		if int(h.Number) > span {
			lo = h.Number - uint64(span)
		}
		var timestamps []int64
		for height := lo; height < h.Number; height++ {
			hdr, err := c.GetHeader(store, height)
			if err != nil {
				return err
			}
			timestamps = append(timestamps, hdr.PoW.Timestamp)
		}
		if median := medianInt64(timestamps); h.PoW.Timestamp < median {
			return newErr(ErrInvalidTimestamp, "timestamp %d below median %d", h.PoW.Timestamp, median)
		}
	}

	expected := difficulty.NextDifficulty(c.cfg.Difficulty, h.Number, h.PoW.Timestamp, c.headerLookup(store))
	if h.PoW.Target != expected {
		return newErr(ErrDifficultyTargetWrong, "target %d, expected %d", h.PoW.Target, expected)
	}

	if checkPoW {
		powKey, err := difficulty.PowKeyForHeight(c.cfg.Difficulty, h.Number, c.headerHashLookup(store))
		if err != nil {
			return wrapErr(ErrInconsistency, err)
		}
		hash := HeaderHash(h, powKey)
		if !difficulty.MeetsTarget(hash, h.PoW.Target) {
			return newErr(ErrDifficultyTargetUnmet, "header hash does not meet target")
		}
	}

	return nil
}

func medianInt64(vals []int64) int64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]int64(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

// ApplyBlock validates and applies block at the chain's current expected
// height, atomically: on any error, store is left byte-identical to its
// pre-call state (every mutation happens on a Mirror() that is discarded
// unless every check and every transaction succeeds).
func (c *Chain) ApplyBlock(store kvstore.Store, block *Block, checkPoW bool) error {
	height, err := c.GetHeight(store)
	if err != nil {
		return err
	}
	if err := c.validateHeader(store, block.Header, height, checkPoW); err != nil {
		return err
	}
	if len(block.Body) == 0 {
		return newErr(ErrInconsistency, "block body missing coinbase entry")
	}
	coinbase := block.Body[0]
	if coinbase.Src != nil {
		return newErr(ErrInconsistency, "coinbase must have a nil source")
	}
	if coinbase.Data.Kind != KindRegularSend || len(coinbase.Data.RegularSend.Entries) == 0 {
		return newErr(ErrInconsistency, "coinbase must be a non-empty RegularSend")
	}
	if expected := BodyRoot(block.Body); expected != block.Header.BlockRoot {
		return newErr(ErrInvalidMerkleRoot, "block root mismatch")
	}
	minerAddr := coinbase.Data.RegularSend.Entries[0].Dst

	mirror := store.Mirror()
	j := newJournal()
	feeTotals := make(map[amount.TokenId]amount.Amount)
	for _, tx := range block.Body[1:] {
		if err := c.applyTx(mirror, tx, j); err != nil {
			recordRejected(err)
			return err
		}
		feeTotals[tx.Fee.TokenId] += tx.Fee.Amount
	}
	feeTotals[amount.Ziesha] += c.cfg.BlockReward
	if block.Header.Number == 0 {
		feeTotals[amount.Ziesha] += c.cfg.GenesisSupply
	}
	for _, tok := range sortedTokens(feeTotals) {
		amt := feeTotals[tok]
		if amt == 0 {
			continue
		}
		if err := c.adjustBalance(mirror, j, minerAddr, tok, int64(amt)); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
	}

	rec := j.toRecord()
	if err := mirror.Update([]kvstore.Op{kvstore.Put(keyRollback(block.Header.Number), encodeBlockRollback(rec))}); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	headerW := codec.NewWriter()
	encodeHeader(headerW, &block.Header)
	if err := mirror.Update([]kvstore.Op{
		kvstore.Put(keyHeader(block.Header.Number), headerW.Bytes()),
		kvstore.Put(keyBlock(block.Header.Number), EncodeBlock(block)),
	}); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	if err := c.setHeight(mirror, block.Header.Number+1); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}

	if err := store.Update(mirror.ToOps()); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}

	metrics.ChainHeight.Set(float64(block.Header.Number + 1))
	metrics.DifficultyPower.Set(float64(block.Header.PoW.Target.Power()))
	metrics.BlocksApplied.Inc()
	metrics.RollbackDepth.Set(float64(block.Header.Number + 1))
	c.logger.Debug("applied block", zap.Uint64("height", block.Header.Number), zap.Int("txs", len(block.Body)))
	return nil
}

// recordRejected increments the TransactionsRejected counter for err's
// BlockchainError kind, or "unknown" if err isn't one (defensive; every
// applyTx failure path returns a *BlockchainError).
func recordRejected(err error) {
	kind := "unknown"
	if be, ok := err.(*BlockchainError); ok {
		kind = be.Kind.String()
	}
	metrics.TransactionsRejected.WithLabelValues(kind).Inc()
}

func sortedTokens(m map[amount.TokenId]amount.Amount) []amount.TokenId {
	out := make([]amount.TokenId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		for b := 0; b < 32; b++ {
			if out[i][b] != out[j][b] {
				return out[i][b] < out[j][b]
			}
		}
		return false
	})
	return out
}

// Extend verifies and applies a contiguous run of blocks starting at
// fromHeight. It rejects fromHeight == 0 (ExtendFromGenesis): a segment
// must always build on at least the genesis block already present.
func (c *Chain) Extend(store kvstore.Store, fromHeight uint64, blocks []*Block) error {
	if fromHeight == 0 {
		return KindError(ErrExtendFromGenesis)
	}
	height, err := c.GetHeight(store)
	if err != nil {
		return err
	}
	if fromHeight != height {
		return newErr(ErrInvalidBlockNumber, "extend from %d, chain at %d", fromHeight, height)
	}
	for _, b := range blocks {
		if err := c.ApplyBlock(store, b, true); err != nil {
			return err
		}
	}
	return nil
}

// Rollback inverts the most recently applied block, restoring every
// account/contract touched to its pre-block state and decrementing the
// chain's height by one.
func (c *Chain) Rollback(store kvstore.Store) error {
	height, err := c.GetHeight(store)
	if err != nil {
		return err
	}
	if height == 0 {
		return KindError(ErrNoBlocksToRollback)
	}
	number := height - 1

	blob, ok, err := store.Get(keyRollback(number))
	if err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	if !ok {
		return newErr(ErrInconsistency, "no rollback record for height %d", number)
	}
	rec, err := decodeBlockRollback(blob)
	if err != nil {
		return wrapErr(ErrInconsistency, err)
	}

	mirror := store.Mirror()
	for _, b := range rec.Balances {
		if err := c.setBalance(mirror, b.Addr, b.Token, b.Prior); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
	}
	for _, n := range rec.Nonces {
		if err := c.setNonce(mirror, n.Addr, n.Prior); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
	}
	for _, cb := range rec.ContractBal {
		if err := c.setContractBalance(mirror, cb.Cid, cb.Token, cb.Prior); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
	}
	for _, tok := range rec.CreatedTokens {
		if err := mirror.Update([]kvstore.Op{kvstore.Remove(keyToken(tok))}); err != nil {
			return wrapErr(ErrKvStoreError, err)
		}
	}
	for _, cid := range rec.CreatedConts {
		if err := c.tree.DeleteContract(mirror, cid); err != nil {
			return wrapErr(ErrStateManagerError, err)
		}
	}
	for _, u := range rec.UpdatedConts {
		contract, err := c.tree.GetContract(mirror, u.Cid)
		if err != nil {
			return wrapErr(ErrStateManagerError, err)
		}
		for i := uint32(0); i < u.Count; i++ {
			curHeight, err := c.tree.GetHeight(mirror, u.Cid)
			if err != nil {
				return wrapErr(ErrStateManagerError, err)
			}
			if err := c.tree.RollbackContract(mirror, u.Cid, contract, curHeight); err != nil {
				return wrapErr(ErrStateManagerError, err)
			}
		}
	}

	if err := mirror.Update([]kvstore.Op{
		kvstore.Remove(keyRollback(number)),
		kvstore.Remove(keyHeader(number)),
		kvstore.Remove(keyBlock(number)),
	}); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	if err := c.setHeight(mirror, number); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}

	if err := store.Update(mirror.ToOps()); err != nil {
		return wrapErr(ErrKvStoreError, err)
	}
	metrics.ChainHeight.Set(float64(number))
	metrics.BlocksRolledBack.Inc()
	metrics.RollbackDepth.Set(float64(number))
	return nil
}

// ForkOnRam returns a Store backed by a Mirror() of base: every write stays
// in memory until the caller explicitly promotes ToOps() into base.
func (c *Chain) ForkOnRam(base kvstore.Store) kvstore.Store {
	return base.Mirror()
}

// InitGenesis applies the genesis block directly: a single coinbase
// transaction minting cfg.GenesisSupply of the native token to miner. It is
// a thin wrapper over ApplyBlock, which special-cases Number == 0 in two
// places only: validateHeader skips the parent/median-time checks (still
// enforcing the minimum-difficulty target), and the coinbase credit adds
// cfg.GenesisSupply.
func (c *Chain) InitGenesis(store kvstore.Store, miner Address, timestamp int64) (*Block, error) {
	height, err := c.GetHeight(store)
	if err != nil {
		return nil, err
	}
	if height != 0 {
		return nil, newErr(ErrInconsistency, "chain already initialized at height %d", height)
	}
	target := difficulty.NextDifficulty(c.cfg.Difficulty, 0, timestamp, c.headerLookup(store))
	coinbase := &Transaction{
		Data: TxData{Kind: KindRegularSend, RegularSend: &RegularSend{
			Entries: []RegularSendEntry{{Dst: miner, Money: amount.Money{TokenId: amount.Ziesha, Amount: c.cfg.GenesisSupply}}},
		}},
	}
	block := &Block{
		Header: Header{
			Number:     0,
			ParentHash: [32]byte{},
			PoW:        ProofOfWork{Timestamp: timestamp, Target: target, Nonce: 0},
		},
		Body: []*Transaction{coinbase},
	}
	block.Header.BlockRoot = BodyRoot(block.Body)
	if err := c.ApplyBlock(store, block, false); err != nil {
		return nil, err
	}
	return block, nil
}

// DraftBlock greedily assembles a candidate block from mempool: each
// transaction is attempted in its own nested mirror, kept on success and
// silently dropped on failure (spec.md §9's Open Question, resolved to
// keep this reference behavior — §8 scenario 6 and the round-trip property
// both depend on it). The returned block's PoW.Nonce is always zero; a
// miner must search it before ApplyBlock(checkPoW=true) will accept it.
func (c *Chain) DraftBlock(store kvstore.Store, timestamp int64, mempool []*Transaction, miner Address) (*Block, error) {
	height, err := c.GetHeight(store)
	if err != nil {
		return nil, err
	}
	if height == 0 {
		return nil, newErr(ErrInconsistency, "cannot draft before genesis")
	}
	number := height
	parent, err := c.GetHeader(store, number-1)
	if err != nil {
		return nil, err
	}

	draftMirror := store.Mirror()
	var body []*Transaction
	feeTotals := make(map[amount.TokenId]amount.Amount)
	for _, tx := range mempool {
		txMirror := draftMirror.Mirror()
		j := newJournal()
		if err := c.applyTx(txMirror, tx, j); err != nil {
			recordRejected(err)
			c.logger.Debug("dropping invalid transaction while drafting", zap.Error(err))
			continue
		}
		if err := draftMirror.Update(txMirror.ToOps()); err != nil {
			return nil, wrapErr(ErrKvStoreError, err)
		}
		body = append(body, tx)
		feeTotals[tx.Fee.TokenId] += tx.Fee.Amount
	}
	feeTotals[amount.Ziesha] += c.cfg.BlockReward

	var entries []RegularSendEntry
	for _, tok := range sortedTokens(feeTotals) {
		amt := feeTotals[tok]
		if amt == 0 && tok != amount.Ziesha {
			continue
		}
		entries = append(entries, RegularSendEntry{Dst: miner, Money: amount.Money{TokenId: tok, Amount: amt}})
	}
	coinbase := &Transaction{Data: TxData{Kind: KindRegularSend, RegularSend: &RegularSend{Entries: entries}}}
	fullBody := append([]*Transaction{coinbase}, body...)

	target := difficulty.NextDifficulty(c.cfg.Difficulty, number, timestamp, c.headerLookup(store))
	header := Header{
		Number:     number,
		ParentHash: HashHeader(*parent),
		BlockRoot:  BodyRoot(fullBody),
		PoW:        ProofOfWork{Timestamp: timestamp, Target: target, Nonce: 0},
	}
	return &Block{Header: header, Body: fullBody}, nil
}

// Mine searches the nonce space starting at 0 until header's hash meets
// its target under the PoW key for its height, returning the mined
// ProofOfWork. The only error it returns is Inconsistency, when the header
// that the height's PoW key is derived from is missing; the search itself
// has no bound and runs until a valid nonce is found.
func (c *Chain) Mine(store kvstore.Store, header Header) (ProofOfWork, error) {
	powKey, err := difficulty.PowKeyForHeight(c.cfg.Difficulty, header.Number, c.headerHashLookup(store))
	if err != nil {
		return ProofOfWork{}, wrapErr(ErrInconsistency, err)
	}
	for nonce := uint64(0); ; nonce++ {
		header.PoW.Nonce = nonce
		if difficulty.MeetsTarget(HeaderHash(header, powKey), header.PoW.Target) {
			return header.PoW, nil
		}
	}
}
