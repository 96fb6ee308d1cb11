package statetree

import "github.com/ziesha-network/bazuka-go/internal/zk"

// ContractId identifies a deployed zk contract (the hash of its deployment
// transaction, mirroring pkg/amount.TokenId's derivation pattern).
type ContractId [32]byte

// FunctionSpec names one of a contract's update/deposit/withdraw circuits by
// the identifier its zk.ProofVerifier expects.
type FunctionSpec struct {
	CircuitId string
}

// Contract is a deployed contract's immutable definition: the shape of its
// storage and the circuits that may transition it.
type Contract struct {
	StateModel        *StateModel
	InitialState      CompressedState
	DepositFunctions  []FunctionSpec
	WithdrawFunctions []FunctionSpec
	Functions         []FunctionSpec
}

// CompressedState is the pair every height snapshots a contract down to: the
// Merkle root of its full state and the number of non-default scalar leaves
// (the "state size" the fee schedule charges against).
type CompressedState struct {
	StateHash zk.Scalar
	StateSize uint64
}

// DeltaEntry is one leaf write: set the scalar at Locator (under model) to
// Value.
type DeltaEntry struct {
	Locator Locator
	Value   zk.Scalar
}

// ContractState is a full snapshot of a contract's non-default leaves, as
// used by ResetContract to bulk-load state from an external source (e.g. an
// untrusted peer) without replaying every historical transaction.
type ContractState struct {
	Data []DeltaEntry
	Root CompressedState
}
