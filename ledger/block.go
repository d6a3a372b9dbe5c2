package ledger

import (
	"fmt"

	"github.com/luminachain/go-lumina/common/types"
)

// BlockTx is a transfer as it was included in a block.
type BlockTx struct {
	ID     types.Hash    `json:"id"`
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
	Token  string        `json:"token"`
	Status TxStatus      `json:"status"`
}

// Block is the slice of remote ledger state the syncer applies to the wallet.
type Block struct {
	Height       uint64     `json:"height"`
	Hash         types.Hash `json:"hash"`
	Timestamp    int64      `json:"timestamp"`
	Transactions []*BlockTx `json:"transactions"`
}

func (b *Block) String() string {
	return fmt.Sprintf("block %d %s (%d txs)", b.Height, b.Hash, len(b.Transactions))
}

// TxAck is the ledger's answer to a submitted transaction.
type TxAck struct {
	ID       types.Hash `json:"id"`
	Accepted bool       `json:"accepted"`
	Reason   string     `json:"reason,omitempty"`
}

// NewBlockTx is how a confirmed local record appears on chain.
func NewBlockTx(tx *Transaction, status TxStatus) *BlockTx {
	return &BlockTx{
		ID:     tx.ID,
		From:   tx.From,
		To:     tx.To,
		Amount: tx.Amount,
		Token:  tx.Token,
		Status: status,
	}
}

// ComputeBlockHash hashes the height and included tx ids.
func ComputeBlockHash(height uint64, txs []*BlockTx) types.Hash {
	source := putUint64(nil, height)
	for _, tx := range txs {
		source = append(source, tx.ID.Bytes()...)
		source = append(source, byte(tx.Status))
	}
	return types.DataHash(source)
}
