package chain

import (
	"github.com/ziesha-network/bazuka-go/internal/crypto"
	"github.com/ziesha-network/bazuka-go/pkg/amount"
)

// Address is a classical-scheme public key, the chain's account identifier.
type Address = crypto.Address

// Account is the per-address ledger entry: a strictly increasing nonce and
// a multi-token balance map. Created implicitly on first credit, never
// deleted (spec.md §3).
type Account struct {
	Nonce    uint32
	Balances map[amount.TokenId]amount.Amount
}

// NewAccount returns an empty account (nonce 0, no balances).
func NewAccount() Account {
	return Account{Balances: make(map[amount.TokenId]amount.Amount)}
}

// Balance returns the account's balance of token, defaulting to zero.
func (a Account) Balance(token amount.TokenId) amount.Amount {
	if a.Balances == nil {
		return 0
	}
	return a.Balances[token]
}
