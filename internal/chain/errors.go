package chain

import "fmt"

// ErrorKind enumerates the BlockchainError taxonomy of spec.md §7.
type ErrorKind uint8

const (
	ErrBlockNotFound ErrorKind = iota
	ErrInconsistency
	ErrNoBlocksToRollback
	ErrExtendFromGenesis
	ErrInvalidBlockNumber
	ErrInvalidParentHash
	ErrInvalidTimestamp
	ErrInvalidMerkleRoot
	ErrDifficultyTargetWrong
	ErrDifficultyTargetUnmet
	ErrSignatureError
	ErrInvalidTransactionNonce
	ErrBalanceInsufficient
	ErrSelfPayment
	ErrDuplicateTransaction
	ErrKvStoreError
	ErrStateManagerError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBlockNotFound:
		return "BlockNotFound"
	case ErrInconsistency:
		return "Inconsistency"
	case ErrNoBlocksToRollback:
		return "NoBlocksToRollback"
	case ErrExtendFromGenesis:
		return "ExtendFromGenesis"
	case ErrInvalidBlockNumber:
		return "InvalidBlockNumber"
	case ErrInvalidParentHash:
		return "InvalidParentHash"
	case ErrInvalidTimestamp:
		return "InvalidTimestamp"
	case ErrInvalidMerkleRoot:
		return "InvalidMerkleRoot"
	case ErrDifficultyTargetWrong:
		return "DifficultyTargetWrong"
	case ErrDifficultyTargetUnmet:
		return "DifficultyTargetUnmet"
	case ErrSignatureError:
		return "SignatureError"
	case ErrInvalidTransactionNonce:
		return "InvalidTransactionNonce"
	case ErrBalanceInsufficient:
		return "BalanceInsufficient"
	case ErrSelfPayment:
		return "SelfPayment"
	case ErrDuplicateTransaction:
		return "DuplicateTransaction"
	case ErrKvStoreError:
		return "KvStoreError"
	case ErrStateManagerError:
		return "StateManagerError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// BlockchainError is the single error type every chain engine operation
// returns, following the teacher's typed-sentinel-struct convention
// (p2p's BlockRejectedError, sharechain's ValidationError): a Kind callers
// can switch on plus an optional human Reason and wrapped Cause.
type BlockchainError struct {
	Kind   ErrorKind
	Reason string
	Cause  error
}

func (e *BlockchainError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("chain: %s: %s", e.Kind, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("chain: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("chain: %s", e.Kind)
}

func (e *BlockchainError) Unwrap() error { return e.Cause }

// Is reports whether target is a *BlockchainError with the same Kind,
// so callers can use errors.Is(err, chain.KindError(chain.ErrSelfPayment)).
func (e *BlockchainError) Is(target error) bool {
	other, ok := target.(*BlockchainError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func newErr(kind ErrorKind, reason string, args ...any) *BlockchainError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &BlockchainError{Kind: kind, Reason: reason}
}

func wrapErr(kind ErrorKind, cause error) *BlockchainError {
	return &BlockchainError{Kind: kind, Cause: cause}
}

// KindError constructs a bare BlockchainError of the given kind, useful as
// an errors.Is comparison target.
func KindError(kind ErrorKind) *BlockchainError {
	return &BlockchainError{Kind: kind}
}
