package wallet

import (
	"github.com/olebedev/emitter"
)

// Event topics published on Wallet.Events.
const (
	// TopicBalance carries (token string, balance types.Amount).
	TopicBalance = "balance"
	// TopicTxStatus carries (id types.Hash, status ledger.TxStatus).
	TopicTxStatus = "tx.status"
	// TopicTxNew carries (*ledger.Transaction).
	TopicTxNew = "tx.new"
	// TopicLock carries (unlocked bool).
	TopicLock = "lock"

	eventCapacity = 64
)

func newEmitter() *emitter.Emitter {
	e := emitter.New(eventCapacity)
	// a slow listener loses events instead of stalling the writer
	e.Use("*", emitter.Skip)
	return e
}

// Events is the bus balance and transaction changes are published on.
func (w *Wallet) Events() *emitter.Emitter {
	return w.events
}
