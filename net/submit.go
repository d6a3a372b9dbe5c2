package net

import (
	"context"

	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// Connect opens the client outside a sync run, for submitting without syncing.
func (s *Syncer) Connect(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.client.Connect(reqCtx, s.cfg.Endpoint); err != nil {
		s.metrics.syncErrors.WithLabelValues("connect").Inc()
		return classify(err, walleterrors.ErrConnection, "connect "+s.cfg.Endpoint)
	}
	return nil
}

// Submit sends a Pending transfer to the ledger and settles the wallet record when the
// ledger rejects it.
func (s *Syncer) Submit(ctx context.Context, id types.Hash) (*ledger.TxAck, error) {
	tx, err := s.wallet.Transaction(id)
	if err != nil {
		return nil, errors.Wrapf(walleterrors.ErrInvalidInput, "unknown transaction %s", id)
	}
	if tx.Kind != ledger.KindTransfer || tx.Status != ledger.TxPending || len(tx.Signature) == 0 {
		return nil, errors.Wrapf(walleterrors.ErrInvalidInput, "transaction %s is not a pending transfer", id)
	}
	return s.submit(ctx, tx)
}

func (s *Syncer) submit(ctx context.Context, tx *ledger.Transaction) (*ledger.TxAck, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	ack, err := s.client.SubmitTransaction(reqCtx, tx)
	cancel()
	if err != nil {
		s.metrics.submittedTotal.WithLabelValues("error").Inc()
		return nil, classify(err, walleterrors.ErrSubmit, "submit "+tx.ID.String())
	}
	if ack == nil || ack.ID != tx.ID {
		s.metrics.submittedTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrapf(walleterrors.ErrSubmit, "ack does not match %s", tx.ID)
	}

	if ack.Accepted {
		s.metrics.submittedTotal.WithLabelValues("accepted").Inc()
	} else {
		s.metrics.submittedTotal.WithLabelValues("rejected").Inc()
	}
	if err := s.wallet.ApplyAck(ack); err != nil {
		return ack, err
	}
	s.log.Info("transaction submitted", "id", tx.ID, "accepted", ack.Accepted, "reason", ack.Reason)
	return ack, nil
}

// SubmitPending submits every pending transfer and returns how many the ledger answered.
// It stops at the first error.
func (s *Syncer) SubmitPending(ctx context.Context) (int, error) {
	n := 0
	for _, tx := range s.wallet.PendingTransfers() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := s.submit(ctx, tx); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
