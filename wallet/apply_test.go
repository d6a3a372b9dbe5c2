package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

func TestWallet_ApplyBlockIdempotent(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()

	block := fund(t, w, lmt(t, "10"))
	balances, history := w.Balances(), w.History()
	height := w.AppliedHeight()
	assert.Equal(t, block.Height+1, height)

	require.NoError(t, w.ApplyBlock(block))
	assert.Equal(t, balances, w.Balances())
	assert.Equal(t, history, w.History())
	assert.Equal(t, height, w.AppliedHeight())

	// re-delivered at a later height the same tx id is still not credited twice
	again := *block
	again.Height = height
	require.NoError(t, w.ApplyBlock(&again))
	assert.Equal(t, balances, w.Balances())
	assert.Equal(t, history, w.History())
	assert.Equal(t, height+1, w.AppliedHeight())
}

func TestWallet_ApplyBlockSettlesTransfers(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()
	fund(t, w, lmt(t, "10"))

	okID, err := w.Transfer(newOtherAddress(t).String(), lmt(t, "3"), types.LumaTokenSymbol)
	require.NoError(t, err)
	failID, err := w.Transfer(newOtherAddress(t).String(), lmt(t, "2"), types.LumaTokenSymbol)
	require.NoError(t, err)
	assert.Equal(t, lmt(t, "5"), w.Balance(types.LumaTokenSymbol))

	okTx, _ := w.Transaction(okID)
	failTx, _ := w.Transaction(failID)
	block := &ledger.Block{
		Height: w.AppliedHeight(),
		Transactions: []*ledger.BlockTx{
			ledger.NewBlockTx(okTx, ledger.TxConfirmed),
			ledger.NewBlockTx(failTx, ledger.TxFailed),
		},
	}
	require.NoError(t, w.ApplyBlock(block))

	okTx, _ = w.Transaction(okID)
	failTx, _ = w.Transaction(failID)
	assert.Equal(t, ledger.TxConfirmed, okTx.Status)
	assert.Equal(t, block.Height, okTx.BlockHeight)
	assert.Equal(t, ledger.TxFailed, failTx.Status)
	assert.Equal(t, lmt(t, "7"), w.Balance(types.LumaTokenSymbol))
	assert.Equal(t, 0, w.PendingCount())

	// terminal states never move again
	block.Height = w.AppliedHeight()
	block.Transactions[1].Status = ledger.TxConfirmed
	require.NoError(t, w.ApplyBlock(block))
	failTx, _ = w.Transaction(failID)
	assert.Equal(t, ledger.TxFailed, failTx.Status)
	assert.Equal(t, lmt(t, "7"), w.Balance(types.LumaTokenSymbol))
}

func TestWallet_ApplyBlockForeignOutgoing(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()
	fund(t, w, lmt(t, "10"))

	out := &ledger.BlockTx{
		ID:     newTestHash(),
		From:   w.Address(),
		To:     newOtherAddress(t),
		Amount: lmt(t, "4"),
		Token:  types.LumaTokenSymbol,
		Status: ledger.TxConfirmed,
	}
	require.NoError(t, w.ApplyBlock(&ledger.Block{Height: w.AppliedHeight(), Transactions: []*ledger.BlockTx{out}}))
	assert.Equal(t, lmt(t, "6"), w.Balance(types.LumaTokenSymbol))

	tx, err := w.Transaction(out.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindTransfer, tx.Kind)
	assert.Equal(t, ledger.TxConfirmed, tx.Status)

	overdraft := *out
	overdraft.ID = newTestHash()
	overdraft.Amount = lmt(t, "100")
	height := w.AppliedHeight()
	err = w.ApplyBlock(&ledger.Block{Height: height, Transactions: []*ledger.BlockTx{&overdraft}})
	assert.True(t, errors.Is(err, walleterrors.ErrCorruptState))
	assert.Equal(t, lmt(t, "6"), w.Balance(types.LumaTokenSymbol))
	assert.Equal(t, height, w.AppliedHeight())
}

func TestWallet_ApplyBlockIgnoresOthers(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()

	block := &ledger.Block{Height: 0, Transactions: []*ledger.BlockTx{{
		ID:     newTestHash(),
		From:   newOtherAddress(t),
		To:     newOtherAddress(t),
		Amount: 5,
		Token:  types.LumaTokenSymbol,
		Status: ledger.TxConfirmed,
	}}}
	require.NoError(t, w.ApplyBlock(block))
	assert.Empty(t, w.History())
	assert.Empty(t, w.Balances())
	assert.Equal(t, uint64(1), w.AppliedHeight())
}

func TestWallet_ApplyBlockRejectsGap(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()

	block := &ledger.Block{Height: 3, Transactions: []*ledger.BlockTx{{
		ID:     newTestHash(),
		From:   newOtherAddress(t),
		To:     w.Address(),
		Amount: 5,
		Token:  types.LumaTokenSymbol,
		Status: ledger.TxConfirmed,
	}}}
	err := w.ApplyBlock(block)
	assert.True(t, errors.Is(err, walleterrors.ErrInvalidInput))
	assert.Empty(t, w.Balances())
	assert.Equal(t, uint64(0), w.AppliedHeight())

	for h := uint64(0); h < 3; h++ {
		require.NoError(t, w.ApplyBlock(&ledger.Block{Height: h}))
	}
	require.NoError(t, w.ApplyBlock(block))
	assert.Equal(t, types.Amount(5), w.Balance(types.LumaTokenSymbol))
	assert.Equal(t, uint64(4), w.AppliedHeight())
}

func TestWallet_ApplyBlockStorageFailure(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()

	store.fail = true
	block := &ledger.Block{Height: 0, Transactions: []*ledger.BlockTx{{
		ID:     newTestHash(),
		From:   newOtherAddress(t),
		To:     w.Address(),
		Amount: 5,
		Token:  types.LumaTokenSymbol,
		Status: ledger.TxConfirmed,
	}}}
	assert.True(t, errors.Is(w.ApplyBlock(block), walleterrors.ErrStorage))
	assert.Empty(t, w.Balances())
	assert.Equal(t, uint64(0), w.AppliedHeight())

	store.fail = false
	require.NoError(t, w.ApplyBlock(block))
	assert.Equal(t, types.Amount(5), w.Balance(types.LumaTokenSymbol))
}

func TestWallet_ApplyAck(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()
	fund(t, w, lmt(t, "10"))

	id, err := w.Transfer(newOtherAddress(t).String(), lmt(t, "3"), types.LumaTokenSymbol)
	require.NoError(t, err)

	require.NoError(t, w.ApplyAck(&ledger.TxAck{ID: id, Accepted: true}))
	tx, _ := w.Transaction(id)
	assert.Equal(t, ledger.TxPending, tx.Status)

	require.NoError(t, w.ApplyAck(&ledger.TxAck{ID: id, Reason: "nonce too low"}))
	tx, _ = w.Transaction(id)
	assert.Equal(t, ledger.TxFailed, tx.Status)
	assert.Equal(t, lmt(t, "10"), w.Balance(types.LumaTokenSymbol))

	// a second rejection does not refund again
	require.NoError(t, w.ApplyAck(&ledger.TxAck{ID: id}))
	assert.Equal(t, lmt(t, "10"), w.Balance(types.LumaTokenSymbol))

	err = w.ApplyAck(&ledger.TxAck{ID: newTestHash()})
	assert.True(t, errors.Is(err, walleterrors.ErrInvalidInput))
}

func TestWallet_RecordContractCall(t *testing.T) {
	w, store := newTestWallet(t)
	defer store.Clean()
	contract := newOtherAddress(t)
	ref := newTestHash()

	id, err := w.RecordContractCall(contract, "mint", ref.Hex())
	require.NoError(t, err)
	again, err := w.RecordContractCall(contract, "mint", ref.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, again)
	require.Len(t, w.History(), 1)

	tx, _ := w.Transaction(id)
	assert.Equal(t, ledger.KindContract, tx.Kind)
	assert.Equal(t, ledger.TxPending, tx.Status)
	assert.Equal(t, ref.Hex(), tx.Ref)
	assert.Equal(t, contract, tx.To)

	// the ledger knows the call by the interpreter's id
	block := &ledger.Block{Height: 0, Transactions: []*ledger.BlockTx{{
		ID:     ref,
		From:   w.Address(),
		To:     contract,
		Token:  types.LumaTokenSymbol,
		Status: ledger.TxConfirmed,
	}}}
	require.NoError(t, w.ApplyBlock(block))
	tx, _ = w.Transaction(id)
	assert.Equal(t, ledger.TxConfirmed, tx.Status)
	assert.Empty(t, w.Balances())

	_, err = w.RecordContractCall(contract, "mint", "")
	assert.True(t, errors.Is(err, walleterrors.ErrInvalidInput))

	store = store.reopen(t)
	defer store.Clean()
	reloaded, err := New(store, testConfig())
	require.NoError(t, err)
	again, err = reloaded.RecordContractCall(contract, "mint", ref.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
