package wallet

import (
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// pendingChanges stages the effect of one block or ack so it can be persisted before
// it is committed to memory.
type pendingChanges struct {
	balances ledger.BalanceTable
	touched  map[string]struct{}
	updated  map[int]*ledger.Transaction
	added    []*ledger.Transaction
	addedIdx map[types.Hash]int
}

func (w *Wallet) newChanges() *pendingChanges {
	return &pendingChanges{
		balances: w.balances.Copy(),
		touched:  make(map[string]struct{}),
		updated:  make(map[int]*ledger.Transaction),
		addedIdx: make(map[types.Hash]int),
	}
}

func (c *pendingChanges) credit(token string, amount types.Amount) error {
	v, err := c.balances.Credit(token, amount)
	if err != nil {
		return err
	}
	c.balances.Set(token, v)
	c.touched[token] = struct{}{}
	return nil
}

func (c *pendingChanges) debit(token string, amount types.Amount) error {
	v, err := c.balances.Debit(token, amount)
	if err != nil {
		return err
	}
	c.balances.Set(token, v)
	c.touched[token] = struct{}{}
	return nil
}

// lookup returns the staged version of a known record.
func (w *Wallet) lookup(c *pendingChanges, id types.Hash) (*ledger.Transaction, int, bool) {
	if i, ok := w.index[id]; ok {
		if tx, ok := c.updated[i]; ok {
			return tx, i, true
		}
		return w.history[i], i, true
	}
	if i, ok := c.addedIdx[id]; ok {
		return c.added[i], len(w.history) + i, true
	}
	// contract records are known to the ledger by the interpreter's id
	if i, ok := w.refs[id.Hex()]; ok {
		if tx, ok := c.updated[i]; ok {
			return tx, i, true
		}
		return w.history[i], i, true
	}
	return nil, 0, false
}

func (w *Wallet) settle(c *pendingChanges, tx *ledger.Transaction, pos int, status ledger.TxStatus, height uint64) error {
	settled := tx.Copy()
	settled.Status = status
	settled.BlockHeight = height
	if status == ledger.TxFailed && settled.Kind == ledger.KindTransfer {
		if err := c.credit(settled.Token, settled.Amount); err != nil {
			return err
		}
	}
	if pos < len(w.history) {
		c.updated[pos] = settled
	} else {
		c.added[pos-len(w.history)] = settled
	}
	return nil
}

func (w *Wallet) commit(c *pendingChanges, appliedHeight uint64) error {
	batch := w.store.NewBatch()
	for token := range c.touched {
		batch.PutBalance(token, c.balances.Get(token))
	}
	for i, tx := range c.updated {
		if err := batch.PutTx(i, tx); err != nil {
			return err
		}
	}
	for i, tx := range c.added {
		if err := batch.PutTx(len(w.history)+i, tx); err != nil {
			return err
		}
	}
	if appliedHeight > w.appliedHeight {
		batch.PutAppliedHeight(appliedHeight)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := w.store.Write(batch); err != nil {
		return err
	}

	w.balances = c.balances
	for i, tx := range c.updated {
		w.history[i] = tx
		if tx.Status.Final() {
			w.pending.Remove(tx.ID)
		}
		w.events.Emit(TopicTxStatus, tx.ID, tx.Status)
	}
	for _, tx := range c.added {
		w.append(tx)
	}
	if appliedHeight > w.appliedHeight {
		w.appliedHeight = appliedHeight
	}
	for token := range c.touched {
		w.events.Emit(TopicBalance, token, w.balances.Get(token))
	}
	return nil
}

// ApplyBlock reconciles the wallet with one block. Blocks below AppliedHeight were
// already applied and are ignored, so re-delivery never double-credits. The block's
// effects and the new applied height are persisted in one batch.
func (w *Wallet) ApplyBlock(block *ledger.Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.identity == nil {
		return walleterrors.ErrWalletNotInitialized
	}
	if block.Height < w.appliedHeight {
		w.log.Debug("skip applied block", "height", block.Height, "applied", w.appliedHeight)
		return nil
	}
	if block.Height > w.appliedHeight {
		return errors.Wrapf(walleterrors.ErrInvalidInput, "block height gap: got %d, next is %d", block.Height, w.appliedHeight)
	}

	self := w.identity.Address
	c := w.newChanges()
	for _, btx := range block.Transactions {
		if btx.From != self && btx.To != self {
			continue
		}
		if !btx.Status.Final() {
			continue
		}
		if btx.Amount.Sign() < 0 || !types.IsValidTokenSymbol(btx.Token) {
			return errors.Wrapf(walleterrors.ErrCorruptState, "block %d tx %s: bad amount or token", block.Height, btx.ID)
		}

		if tx, pos, ok := w.lookup(c, btx.ID); ok {
			if tx.Status.Final() {
				continue
			}
			if err := w.settle(c, tx, pos, btx.Status, block.Height); err != nil {
				return errors.Wrapf(err, "block %d tx %s", block.Height, btx.ID)
			}
			continue
		}

		if btx.Status != ledger.TxConfirmed || btx.Amount == 0 || btx.From == btx.To {
			continue
		}
		record := &ledger.Transaction{
			ID:          btx.ID,
			From:        btx.From,
			To:          btx.To,
			Amount:      btx.Amount,
			Token:       btx.Token,
			Timestamp:   block.Timestamp,
			Status:      ledger.TxConfirmed,
			BlockHeight: block.Height,
		}
		if btx.To == self {
			record.Kind = ledger.KindIncoming
			if err := c.credit(btx.Token, btx.Amount); err != nil {
				return errors.Wrapf(err, "block %d tx %s", block.Height, btx.ID)
			}
		} else {
			// sent from this address by another installation of the same seed
			record.Kind = ledger.KindTransfer
			if err := c.debit(btx.Token, btx.Amount); err != nil {
				return errors.Wrapf(walleterrors.ErrCorruptState, "block %d tx %s: %v", block.Height, btx.ID, err)
			}
		}
		c.addedIdx[record.ID] = len(c.added)
		c.added = append(c.added, record)
	}

	if err := w.commit(c, block.Height+1); err != nil {
		return err
	}
	w.log.Debug("block applied", "height", block.Height, "updated", len(c.updated), "added", len(c.added))
	return nil
}

// ApplyAck settles a submitted transfer the ledger rejected. Acceptance is final only
// once the transfer appears in a block.
func (w *Wallet) ApplyAck(ack *ledger.TxAck) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.newChanges()
	tx, pos, ok := w.lookup(c, ack.ID)
	if !ok {
		return errors.Wrapf(walleterrors.ErrInvalidInput, "unknown transaction %s", ack.ID)
	}
	if ack.Accepted || tx.Status.Final() {
		return nil
	}
	if err := w.settle(c, tx, pos, ledger.TxFailed, 0); err != nil {
		return err
	}
	if err := w.commit(c, 0); err != nil {
		return err
	}
	w.log.Warn("transaction rejected", "id", ack.ID, "reason", ack.Reason)
	return nil
}

// RecordContractCall appends a Pending contract record referencing the interpreter's
// transaction id ref. Recording the same ref twice returns the existing record.
func (w *Wallet) RecordContractCall(contract types.Address, function string, ref string) (types.Hash, error) {
	if ref == "" {
		return types.Hash{}, errors.Wrap(walleterrors.ErrInvalidInput, "empty transaction reference")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.identity == nil {
		return types.Hash{}, walleterrors.ErrWalletNotInitialized
	}
	if i, ok := w.refs[ref]; ok {
		return w.history[i].ID, nil
	}
	tx := &ledger.Transaction{
		Kind:      ledger.KindContract,
		From:      w.identity.Address,
		To:        contract,
		Token:     types.LumaTokenSymbol,
		Timestamp: w.now().Unix(),
		Ref:       ref,
		Status:    ledger.TxPending,
	}
	tx.ID = tx.ComputeID()

	batch := w.store.NewBatch()
	if err := batch.PutTx(len(w.history), tx); err != nil {
		return types.Hash{}, err
	}
	if err := w.store.Write(batch); err != nil {
		return types.Hash{}, err
	}
	w.append(tx)
	w.log.Info("contract call recorded", "id", tx.ID, "contract", contract, "function", function, "ref", ref)
	return tx.ID, nil
}
