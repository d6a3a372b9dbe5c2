package node

import (
	"fmt"

	"github.com/olebedev/emitter"

	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
	"github.com/luminachain/go-lumina/wallet"
)

// Notice is a wallet change worth telling the user about.
type Notice struct {
	Topic   string
	Message string
}

// SetNotifier installs fn to receive notices; nil only logs them. fn runs on the
// node's event goroutine.
func (n *Node) SetNotifier(fn func(Notice)) {
	n.notifyMu.Lock()
	defer n.notifyMu.Unlock()
	n.notify = fn
}

func (n *Node) publish(notice Notice) {
	log.Info("wallet notice", "topic", notice.Topic, "msg", notice.Message)
	n.notifyMu.Lock()
	fn := n.notify
	n.notifyMu.Unlock()
	if fn != nil {
		fn(notice)
	}
}

// watchWallet forwards settled transactions and lock changes until the returned
// func is called.
func (n *Node) watchWallet(events *emitter.Emitter) (stop func()) {
	txCh := events.On(wallet.TopicTxStatus)
	lockCh := events.On(wallet.TopicLock)
	done := make(chan struct{})

	go func() {
		defer close(done)
		txs, locks := txCh, lockCh
		for txs != nil || locks != nil {
			select {
			case e, ok := <-txs:
				if !ok {
					txs = nil
					continue
				}
				if notice, ok := txNotice(e); ok {
					n.publish(notice)
				}
			case e, ok := <-locks:
				if !ok {
					locks = nil
					continue
				}
				if unlocked, _ := e.Args[0].(bool); !unlocked {
					n.publish(Notice{Topic: wallet.TopicLock, Message: "Wallet locked."})
				}
			}
		}
	}()

	return func() {
		events.Off(wallet.TopicTxStatus, txCh)
		events.Off(wallet.TopicLock, lockCh)
		<-done
	}
}

func txNotice(e emitter.Event) (Notice, bool) {
	if len(e.Args) < 2 {
		return Notice{}, false
	}
	id, _ := e.Args[0].(types.Hash)
	status, _ := e.Args[1].(ledger.TxStatus)
	var verb string
	switch status {
	case ledger.TxConfirmed:
		verb = "confirmed"
	case ledger.TxFailed:
		verb = "failed"
	default:
		return Notice{}, false
	}
	return Notice{
		Topic:   wallet.TopicTxStatus,
		Message: fmt.Sprintf("Transaction %s %s.", id, verb),
	}, true
}
