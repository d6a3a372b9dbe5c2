package wallet

import (
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// DonationAddress receives Donate transfers.
const DonationAddress = "lumina_559016d772b664c47ad7c8792ab47a8a29c7514ccb4185e083"

// Balance returns the balance of token, zero for tokens the wallet never held.
func (w *Wallet) Balance(token string) types.Amount {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances.Get(token)
}

func (w *Wallet) Balances() ledger.BalanceTable {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances.Copy()
}

// History returns copies of all records, oldest first.
func (w *Wallet) History() []*ledger.Transaction {
	w.mu.RLock()
	defer w.mu.RUnlock()
	list := make([]*ledger.Transaction, len(w.history))
	for i, tx := range w.history {
		list[i] = tx.Copy()
	}
	return list
}

func (w *Wallet) Transaction(id types.Hash) (*ledger.Transaction, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i, ok := w.index[id]
	if !ok {
		return nil, walleterrors.NotFound
	}
	return w.history[i].Copy(), nil
}

// PendingTransfers returns the signed outgoing records still waiting for the ledger.
func (w *Wallet) PendingTransfers() []*ledger.Transaction {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var list []*ledger.Transaction
	for _, tx := range w.history {
		if tx.Kind == ledger.KindTransfer && tx.Status == ledger.TxPending && len(tx.Signature) > 0 {
			list = append(list, tx.Copy())
		}
	}
	return list
}

func (w *Wallet) PendingCount() int {
	return w.pending.Cardinality()
}

// AppliedHeight is the height of the next block the wallet expects.
func (w *Wallet) AppliedHeight() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.appliedHeight
}

// Transfer signs a Pending transfer of amount token to the address to and debits the
// balance. The debit and the new record are persisted together before either is visible.
func (w *Wallet) Transfer(to string, amount types.Amount, token string) (types.Hash, error) {
	if amount.Sign() <= 0 {
		return types.Hash{}, errors.Wrapf(walleterrors.ErrInvalidAmount, "amount must be positive, got %d", amount)
	}
	toAddr, err := types.HexToAddress(to)
	if err != nil {
		return types.Hash{}, errors.Wrap(walleterrors.ErrInvalidAddress, err.Error())
	}
	if !types.IsValidTokenSymbol(token) {
		return types.Hash{}, errors.Wrapf(walleterrors.ErrInvalidToken, "%q", token)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.identity == nil {
		return types.Hash{}, walleterrors.ErrWalletNotInitialized
	}
	if toAddr == w.identity.Address {
		return types.Hash{}, errors.Wrap(walleterrors.ErrInvalidAddress, "cannot transfer to self")
	}

	newBalance, err := w.balances.Debit(token, amount)
	if err != nil {
		return types.Hash{}, err
	}

	tx := &ledger.Transaction{
		Kind:      ledger.KindTransfer,
		From:      w.identity.Address,
		To:        toAddr,
		Amount:    amount,
		Token:     token,
		Timestamp: w.now().Unix(),
		Nonce:     w.nonce + 1,
		Status:    ledger.TxPending,
	}
	if err := tx.Sign(w.km.SignData); err != nil {
		return types.Hash{}, err
	}
	if _, ok := w.index[tx.ID]; ok {
		return tx.ID, nil
	}

	batch := w.store.NewBatch()
	batch.PutBalance(token, newBalance)
	if err := batch.PutTx(len(w.history), tx); err != nil {
		return types.Hash{}, err
	}
	if err := w.store.Write(batch); err != nil {
		return types.Hash{}, err
	}

	w.balances.Set(token, newBalance)
	w.append(tx)
	w.nonce = tx.Nonce

	w.log.Info("transfer created", "id", tx.ID, "to", toAddr, "amount", amount.Format(types.GetTokenInfo(token).Decimals), "token", token)
	w.events.Emit(TopicBalance, token, newBalance)
	return tx.ID, nil
}

// Donate transfers amount LMT to the development fund.
func (w *Wallet) Donate(amount types.Amount) (types.Hash, error) {
	return w.Transfer(DonationAddress, amount, types.LumaTokenSymbol)
}

func (w *Wallet) append(tx *ledger.Transaction) {
	w.index[tx.ID] = len(w.history)
	w.history = append(w.history, tx)
	if tx.Kind == ledger.KindContract && tx.Ref != "" {
		w.refs[tx.Ref] = w.index[tx.ID]
	}
	if tx.Status == ledger.TxPending {
		w.pending.Add(tx.ID)
	}
	w.events.Emit(TopicTxNew, tx.Copy())
}
