// Package memledger is an in-process ledger used by devnet mode and tests.
package memledger

import (
	"context"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// FaucetAddress funds devnet wallets.
const FaucetAddress = "lumina_d10d0f442d2c770e885ee30fa0445a288275ea1eb9b94d888a"

var errNotConnected = errors.New("not connected")

type Ledger struct {
	mu        sync.Mutex
	endpoint  string
	blocks    []*ledger.Block
	mempool   []*ledger.BlockTx
	known     map[types.Hash]struct{}
	balances  map[types.Address]ledger.BalanceTable
	faucet    types.Address
	faucetSeq uint64

	now func() time.Time
	log log15.Logger
}

func New() *Ledger {
	faucet, _ := types.HexToAddress(FaucetAddress)
	return &Ledger{
		known:    make(map[types.Hash]struct{}),
		balances: make(map[types.Address]ledger.BalanceTable),
		faucet:   faucet,
		now:      time.Now,
		log:      log15.New("module", "net/memledger"),
	}
}

func (l *Ledger) Connect(ctx context.Context, endpoint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if endpoint == "" {
		return errors.New("empty endpoint")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endpoint = endpoint
	return nil
}

func (l *Ledger) FetchLatestHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.endpoint == "" {
		return 0, errNotConnected
	}
	return uint64(len(l.blocks)), nil
}

func (l *Ledger) FetchBlocks(ctx context.Context, from, to uint64) ([]*ledger.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.endpoint == "" {
		return nil, errNotConnected
	}
	if from > to || to > uint64(len(l.blocks)) {
		return nil, errors.Errorf("range [%d, %d) outside [0, %d)", from, to, len(l.blocks))
	}
	blocks := make([]*ledger.Block, 0, to-from)
	for _, b := range l.blocks[from:to] {
		blocks = append(blocks, copyBlock(b))
	}
	return blocks, nil
}

// SubmitTransaction queues a signed transfer for the next sealed block. Invalid
// signatures and overdrafts are rejected in the ack.
func (l *Ledger) SubmitTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.TxAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.endpoint == "" {
		return nil, errNotConnected
	}

	ack := &ledger.TxAck{ID: tx.ID, Accepted: true}
	if _, ok := l.known[tx.ID]; ok {
		return ack, nil
	}
	if !tx.VerifySignature() {
		ack.Accepted, ack.Reason = false, "invalid signature"
		return ack, nil
	}
	if l.available(tx.From, tx.Token) < tx.Amount {
		ack.Accepted, ack.Reason = false, walleterrors.ErrInsufficientFunds.Error()
		return ack, nil
	}

	l.known[tx.ID] = struct{}{}
	l.mempool = append(l.mempool, ledger.NewBlockTx(tx, ledger.TxPending))
	return ack, nil
}

// available is the confirmed balance minus what is already queued.
func (l *Ledger) available(addr types.Address, token string) types.Amount {
	v := l.balances[addr].Get(token)
	for _, q := range l.mempool {
		if q.From == addr && q.Token == token {
			v -= q.Amount
		}
	}
	return v
}

// Mint queues a faucet transfer of amount token to addr.
func (l *Ledger) Mint(to types.Address, amount types.Amount, token string) types.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.faucetSeq++
	faucetTx := &ledger.Transaction{
		Kind:      ledger.KindTransfer,
		From:      l.faucet,
		To:        to,
		Amount:    amount,
		Token:     token,
		Timestamp: l.now().Unix(),
		Nonce:     l.faucetSeq,
	}
	faucetTx.ID = faucetTx.ComputeID()
	l.known[faucetTx.ID] = struct{}{}
	l.mempool = append(l.mempool, ledger.NewBlockTx(faucetTx, ledger.TxPending))
	return faucetTx.ID
}

// Seal packs the mempool into a new block. A transfer the sender cannot cover any more
// is included as Failed.
func (l *Ledger) Seal() *ledger.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	block := &ledger.Block{
		Height:    uint64(len(l.blocks)),
		Timestamp: l.now().Unix(),
	}
	for _, tx := range l.mempool {
		tx.Status = ledger.TxConfirmed
		if tx.From != l.faucet {
			if err := l.move(tx); err != nil {
				l.log.Info("transfer failed at seal", "id", tx.ID, "err", err)
				tx.Status = ledger.TxFailed
			}
		} else {
			l.credit(tx.To, tx.Token, tx.Amount)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	l.mempool = nil
	block.Hash = ledger.ComputeBlockHash(block.Height, block.Transactions)
	l.blocks = append(l.blocks, block)
	return copyBlock(block)
}

// SealEmpty appends n blocks without transactions.
func (l *Ledger) SealEmpty(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < n; i++ {
		height := uint64(len(l.blocks))
		l.blocks = append(l.blocks, &ledger.Block{
			Height:    height,
			Hash:      ledger.ComputeBlockHash(height, nil),
			Timestamp: l.now().Unix(),
		})
	}
}

func (l *Ledger) move(tx *ledger.BlockTx) error {
	from := l.table(tx.From)
	v, err := from.Debit(tx.Token, tx.Amount)
	if err != nil {
		return err
	}
	from.Set(tx.Token, v)
	l.credit(tx.To, tx.Token, tx.Amount)
	return nil
}

func (l *Ledger) credit(addr types.Address, token string, amount types.Amount) {
	t := l.table(addr)
	v, err := t.Credit(token, amount)
	if err != nil {
		l.log.Error("credit overflow", "addr", addr, "err", err)
		return
	}
	t.Set(token, v)
}

func (l *Ledger) table(addr types.Address) ledger.BalanceTable {
	t, ok := l.balances[addr]
	if !ok {
		t = ledger.BalanceTable{}
		l.balances[addr] = t
	}
	return t
}

// BalanceOf is the confirmed balance of addr.
func (l *Ledger) BalanceOf(addr types.Address, token string) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr].Get(token)
}

func copyBlock(b *ledger.Block) *ledger.Block {
	c := *b
	c.Transactions = make([]*ledger.BlockTx, len(b.Transactions))
	for i, tx := range b.Transactions {
		t := *tx
		c.Transactions[i] = &t
	}
	return &c
}
