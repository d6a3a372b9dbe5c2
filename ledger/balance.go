package ledger

import (
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
)

// BalanceTable maps token symbol to amount. A missing key means zero; no entry is negative.
type BalanceTable map[string]types.Amount

func (bt BalanceTable) Get(token string) types.Amount {
	return bt[token]
}

func (bt BalanceTable) Copy() BalanceTable {
	c := make(BalanceTable, len(bt))
	for k, v := range bt {
		c[k] = v
	}
	return c
}

// Credit returns the new balance of token without modifying bt.
func (bt BalanceTable) Credit(token string, amount types.Amount) (types.Amount, error) {
	if amount.Sign() < 0 {
		return 0, walleterrors.ErrInvalidAmount
	}
	return bt[token].Add(amount)
}

// Debit returns the new balance of token without modifying bt.
func (bt BalanceTable) Debit(token string, amount types.Amount) (types.Amount, error) {
	if amount.Sign() < 0 {
		return 0, walleterrors.ErrInvalidAmount
	}
	cur := bt[token]
	if cur < amount {
		return 0, errors.Wrapf(walleterrors.ErrInsufficientFunds, "have %s %s, need %s",
			cur.Format(types.GetTokenInfo(token).Decimals), token, amount.Format(types.GetTokenInfo(token).Decimals))
	}
	return cur.Sub(amount)
}

// Set stores v, dropping zero entries.
func (bt BalanceTable) Set(token string, v types.Amount) {
	if v == 0 {
		delete(bt, token)
		return
	}
	bt[token] = v
}

// Validate reports a negative or malformed entry.
func (bt BalanceTable) Validate() error {
	for token, v := range bt {
		if !types.IsValidTokenSymbol(token) {
			return errors.Wrapf(walleterrors.ErrCorruptState, "token %q", token)
		}
		if v.Sign() < 0 {
			return errors.Wrapf(walleterrors.ErrCorruptState, "negative balance for %s", token)
		}
	}
	return nil
}
