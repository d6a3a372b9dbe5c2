package net

import (
	"context"

	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

//go:generate mockgen -destination=mock_ledger_client.go -package=net github.com/luminachain/go-lumina/net LedgerClient

// LedgerClient is the remote ledger. Implementations honor ctx deadlines.
type LedgerClient interface {
	Connect(ctx context.Context, endpoint string) error
	FetchLatestHeight(ctx context.Context) (uint64, error)
	// FetchBlocks returns the blocks with heights in [from, to).
	FetchBlocks(ctx context.Context, from, to uint64) ([]*ledger.Block, error)
	SubmitTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.TxAck, error)
}

// Wallet is the part of the wallet aggregate the syncer drives.
type Wallet interface {
	AppliedHeight() uint64
	ApplyBlock(block *ledger.Block) error
	ApplyAck(ack *ledger.TxAck) error
	Transaction(id types.Hash) (*ledger.Transaction, error)
	PendingTransfers() []*ledger.Transaction
}
