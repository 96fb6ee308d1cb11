package statetree

import (
	"testing"

	"github.com/ziesha-network/bazuka-go/internal/kvstore"
	"github.com/ziesha-network/bazuka-go/internal/zk"
)

func testContract() (*Contract, ContractId) {
	model := Struct(
		Scalar(),           // 0: a simple counter
		List(2, Scalar()),  // 1: a 16-slot balance table
		List(1, Struct(Scalar(), Scalar())), // 2: a 4-slot table of (key,value) pairs
	)
	c := &Contract{
		StateModel:   model,
		InitialState: CompressedState{StateHash: DefaultHash(model), StateSize: 0},
	}
	var cid ContractId
	cid[0] = 0xAB
	return c, cid
}

func newManagerStore() kvstore.Store {
	return kvstore.NewMemStore()
}

func TestPutContractSeedsDefaultRoot(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()

	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}
	root, err := m.GetRoot(store, cid)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if !root.StateHash.Equal(DefaultHash(c.StateModel)) {
		t.Fatalf("fresh contract root should equal the model's default hash")
	}
	if root.StateSize != 0 {
		t.Fatalf("fresh contract state size = %d, want 0", root.StateSize)
	}
}

func TestSetDataChangesRootAndRevertsOnDefault(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}
	defaultRoot := DefaultHash(c.StateModel)

	loc := Locator{0}
	newRoot, sizeDelta, err := m.SetData(store, cid, loc, c.StateModel, zk.ScalarFromUint64(42))
	if err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if sizeDelta != 1 {
		t.Fatalf("sizeDelta = %d, want 1", sizeDelta)
	}
	if newRoot.Equal(defaultRoot) {
		t.Fatal("root should change after a non-default write")
	}

	got, err := m.GetData(store, cid, loc, c.StateModel)
	if err != nil || got.BigInt().Uint64() != 42 {
		t.Fatalf("GetData after SetData = %v, %v, want 42", got.BigInt(), err)
	}

	// Writing the default value back should restore the exact default root.
	revertedRoot, sizeDelta2, err := m.SetData(store, cid, loc, c.StateModel, zk.Zero)
	if err != nil {
		t.Fatalf("SetData revert: %v", err)
	}
	if sizeDelta2 != -1 {
		t.Fatalf("revert sizeDelta = %d, want -1", sizeDelta2)
	}
	if !revertedRoot.Equal(defaultRoot) {
		t.Fatal("reverting the only write should restore the default root")
	}
}

func TestSetDataWithinListLeavesSiblingsUntouched(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	if _, _, err := m.SetData(store, cid, Locator{1, 3}, c.StateModel, zk.ScalarFromUint64(7)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	for _, idx := range []uint32{0, 1, 2, 4, 15} {
		v, err := m.GetData(store, cid, Locator{1, idx}, c.StateModel)
		if err != nil {
			t.Fatalf("GetData(%d): %v", idx, err)
		}
		if !v.IsZero() {
			t.Fatalf("sibling slot %d should remain default, got %v", idx, v.BigInt())
		}
	}
	v, err := m.GetData(store, cid, Locator{1, 3}, c.StateModel)
	if err != nil || v.BigInt().Uint64() != 7 {
		t.Fatalf("GetData(3) = %v, %v, want 7", v.BigInt(), err)
	}
}

func TestUpdateContractOrderSensitivity(t *testing.T) {
	store1 := newManagerStore()
	store2 := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store1, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}
	if err := m.PutContract(store2, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	deltaA := []DeltaEntry{
		{Locator: Locator{1, 0}, Value: zk.ScalarFromUint64(1)},
		{Locator: Locator{1, 1}, Value: zk.ScalarFromUint64(2)},
	}
	deltaB := []DeltaEntry{
		{Locator: Locator{1, 1}, Value: zk.ScalarFromUint64(2)},
		{Locator: Locator{1, 0}, Value: zk.ScalarFromUint64(1)},
	}

	if err := m.UpdateContract(store1, cid, c, deltaA, 1); err != nil {
		t.Fatalf("UpdateContract A: %v", err)
	}
	if err := m.UpdateContract(store2, cid, c, deltaB, 1); err != nil {
		t.Fatalf("UpdateContract B: %v", err)
	}

	rootA, _ := m.GetRoot(store1, cid)
	rootB, _ := m.GetRoot(store2, cid)
	if !rootA.StateHash.Equal(rootB.StateHash) {
		t.Fatal("applying the same final values in a different order should reach the same root")
	}
}

func TestRollbackContractRestoresRoot(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	rootBefore, _ := m.GetRoot(store, cid)

	delta := []DeltaEntry{
		{Locator: Locator{0}, Value: zk.ScalarFromUint64(100)},
		{Locator: Locator{1, 5}, Value: zk.ScalarFromUint64(9)},
	}
	if err := m.UpdateContract(store, cid, c, delta, 1); err != nil {
		t.Fatalf("UpdateContract: %v", err)
	}
	rootAfter, _ := m.GetRoot(store, cid)
	if rootAfter.StateHash.Equal(rootBefore.StateHash) {
		t.Fatal("update should have changed the root")
	}

	if err := m.RollbackContract(store, cid, c, 1); err != nil {
		t.Fatalf("RollbackContract: %v", err)
	}
	rootRestored, err := m.GetRoot(store, cid)
	if err != nil {
		t.Fatalf("GetRoot after rollback: %v", err)
	}
	if !rootRestored.StateHash.Equal(rootBefore.StateHash) {
		t.Fatal("rollback should restore the pre-update root exactly")
	}
	if rootRestored.StateSize != rootBefore.StateSize {
		t.Fatalf("rollback should restore state size: got %d want %d", rootRestored.StateSize, rootBefore.StateSize)
	}

	if err := m.RollbackContract(store, cid, c, 1); err != ErrNoRollbackRecord {
		t.Fatalf("second rollback of the same height should fail with ErrNoRollbackRecord, got %v", err)
	}
}

func TestRollbackBeyondWindowFails(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	for h := uint64(1); h <= MaxRollbacks+2; h++ {
		delta := []DeltaEntry{{Locator: Locator{0}, Value: zk.ScalarFromUint64(h)}}
		if err := m.UpdateContract(store, cid, c, delta, h); err != nil {
			t.Fatalf("UpdateContract height %d: %v", h, err)
		}
	}
	latestHeight := uint64(MaxRollbacks + 2)
	if err := m.RollbackContract(store, cid, c, latestHeight-MaxRollbacks); err != ErrNoRollbackRecord {
		t.Fatalf("rollback beyond the retained window should fail with ErrNoRollbackRecord, got %v", err)
	}
	if err := m.RollbackContract(store, cid, c, latestHeight-MaxRollbacks+1); err != nil {
		t.Fatalf("rollback within window should succeed: %v", err)
	}
}

func TestProveAndVerifyInclusion(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	if _, _, err := m.SetData(store, cid, Locator{1, 12}, c.StateModel, zk.ScalarFromUint64(77)); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	proof, err := m.Prove(store, cid, c.StateModel, Locator{1}, 12)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if len(proof) != 2 {
		t.Fatalf("proof has %d steps, want 2 (log4Size=2)", len(proof))
	}

	ok, err := m.VerifyProof(store, cid, c.StateModel, Locator{1}, 12, zk.ScalarFromUint64(77), proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !ok {
		t.Fatal("proof for the written value should verify")
	}

	ok, err = m.VerifyProof(store, cid, c.StateModel, Locator{1}, 12, zk.ScalarFromUint64(78), proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if ok {
		t.Fatal("proof should not verify against a different leaf value")
	}
}

func TestResetContractReplaysAndVerifiesTargets(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	var rootsByHeight []zk.Scalar
	root0, _ := m.GetRoot(store, cid)
	rootsByHeight = append(rootsByHeight, root0.StateHash)
	for h := uint64(1); h <= 3; h++ {
		delta := []DeltaEntry{{Locator: Locator{0}, Value: zk.ScalarFromUint64(h * 10)}}
		if err := m.UpdateContract(store, cid, c, delta, h); err != nil {
			t.Fatalf("UpdateContract height %d: %v", h, err)
		}
		r, _ := m.GetRoot(store, cid)
		rootsByHeight = append(rootsByHeight, r.StateHash)
	}

	finalRoot := rootsByHeight[3]
	snapshot := ContractState{
		Data: []DeltaEntry{{Locator: Locator{0}, Value: zk.ScalarFromUint64(30)}},
		Root: CompressedState{StateHash: finalRoot, StateSize: 1},
	}
	expectedTargets := []zk.Scalar{rootsByHeight[2], rootsByHeight[1], rootsByHeight[0]}

	fresh := newManagerStore()
	if err := m.PutContract(fresh, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}
	if err := m.ResetContract(fresh, cid, c, 3, snapshot, expectedTargets); err != nil {
		t.Fatalf("ResetContract: %v", err)
	}
	height, err := m.GetHeight(fresh, cid)
	if err != nil || height != 0 {
		t.Fatalf("height after replaying all 3 rollback targets = %d, %v, want 0", height, err)
	}
}

func TestResetContractStopsAtFirstMismatch(t *testing.T) {
	store := newManagerStore()
	m := NewManager()
	c, cid := testContract()
	if err := m.PutContract(store, cid, c); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	for h := uint64(1); h <= 2; h++ {
		delta := []DeltaEntry{{Locator: Locator{0}, Value: zk.ScalarFromUint64(h * 10)}}
		if err := m.UpdateContract(store, cid, c, delta, h); err != nil {
			t.Fatalf("UpdateContract height %d: %v", h, err)
		}
	}
	finalRoot, _ := m.GetRoot(store, cid)
	snapshot := ContractState{
		Data: []DeltaEntry{{Locator: Locator{0}, Value: zk.ScalarFromUint64(20)}},
		Root: CompressedState{StateHash: finalRoot.StateHash, StateSize: 1},
	}
	wrongTarget := zk.ScalarFromUint64(999999)

	if err := m.ResetContract(store, cid, c, 2, snapshot, []zk.Scalar{wrongTarget}); err != ErrRollbackRootMismatch {
		t.Fatalf("ResetContract with a wrong target = %v, want ErrRollbackRootMismatch", err)
	}
}
