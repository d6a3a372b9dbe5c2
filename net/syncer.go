package net

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/helper"
	"github.com/luminachain/go-lumina/ledger"
)

const (
	DefaultBatchSize      = 100
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 500 * time.Millisecond

	seenBlocksCacheSize = 1024
)

type Config struct {
	Endpoint       string
	BatchSize      uint64
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration

	// Registerer receives the sync metrics; nil disables registration.
	Registerer prometheus.Registerer
}

func (c *Config) fill() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
}

// Syncer pulls blocks from a LedgerClient in bounded batches and applies them to the
// wallet. It runs NotSynced -> Syncing -> Synced; Stop or a failure returns it to
// NotSynced without undoing blocks already applied.
type Syncer struct {
	cfg    Config
	client LedgerClient
	wallet Wallet

	state    *atomic.Int32
	canceled *atomic.Bool
	current  *atomic.Uint64
	latest   *atomic.Uint64
	progress *atomic.Float64
	lastErr  *atomic.Error

	mu      sync.Mutex // serializes Start and Stop
	stopRun context.CancelFunc
	done    chan struct{}

	seen    *lru.Cache
	metrics *syncMetrics
	log     log15.Logger
}

func NewSyncer(client LedgerClient, wallet Wallet, cfg Config) *Syncer {
	cfg.fill()
	seen, _ := lru.New(seenBlocksCacheSize)

	done := make(chan struct{})
	close(done)

	return &Syncer{
		cfg:      cfg,
		client:   client,
		wallet:   wallet,
		state:    atomic.NewInt32(int32(NotSynced)),
		canceled: atomic.NewBool(false),
		current:  atomic.NewUint64(wallet.AppliedHeight()),
		latest:   atomic.NewUint64(0),
		progress: atomic.NewFloat64(0),
		lastErr:  atomic.NewError(nil),
		done:     done,
		seen:     seen,
		metrics:  newSyncMetrics(cfg.Registerer),
		log:      log15.New("module", "net/syncer"),
	}
}

func (s *Syncer) Status() SyncState {
	return SyncState(s.state.Load())
}

func (s *Syncer) Progress() float64 {
	return s.progress.Load()
}

func (s *Syncer) Cursor() Cursor {
	return Cursor{
		CurrentHeight:     s.current.Load(),
		LatestKnownHeight: s.latest.Load(),
		Status:            s.Status(),
	}
}

// LastError is the error that ended the last sync run, nil if it completed or was stopped.
func (s *Syncer) LastError() error {
	return s.lastErr.Load()
}

// Wait blocks until the current sync run exits and returns its error.
func (s *Syncer) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	<-done
	return s.LastError()
}

// Start connects, fetches the remote height and launches the batch loop. It returns
// once the syncer is Syncing; cb is invoked from the loop after every batch.
func (s *Syncer) Start(cb ProgressCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() == Syncing {
		return walleterrors.ErrAlreadySyncing
	}
	if cb == nil {
		cb = func(float64, string) {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	err := s.client.Connect(ctx, s.cfg.Endpoint)
	cancel()
	if err != nil {
		s.metrics.syncErrors.WithLabelValues("connect").Inc()
		return classify(err, walleterrors.ErrConnection, "connect "+s.cfg.Endpoint)
	}

	var latest uint64
	ctx, cancel = context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	latest, err = s.client.FetchLatestHeight(ctx)
	cancel()
	if err != nil {
		s.metrics.syncErrors.WithLabelValues("latest").Inc()
		return classify(err, walleterrors.ErrFetch, "fetch latest height")
	}

	cur := s.wallet.AppliedHeight()
	s.current.Store(cur)
	s.latest.Store(latest)
	s.metrics.currentHeight.Set(float64(cur))
	s.metrics.latestHeight.Set(float64(latest))
	s.progress.Store(0)
	s.canceled.Store(false)
	s.lastErr.Store(nil)
	s.state.Store(int32(Syncing))

	runCtx, stopRun := context.WithCancel(context.Background())
	s.stopRun = stopRun
	s.done = make(chan struct{})

	s.log.Info("sync started", "from", cur, "latest", latest, "batch", s.cfg.BatchSize)
	go s.loop(runCtx, stopRun, cb, s.done)
	return nil
}

// Stop requests cancellation and waits for the loop to leave at the next batch boundary.
func (s *Syncer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() != Syncing {
		return walleterrors.ErrNotSyncing
	}
	s.canceled.Store(true)
	s.stopRun()
	<-s.done
	s.log.Info("sync stopped", "height", s.current.Load(), "status", s.Status())
	return nil
}

func (s *Syncer) loop(ctx context.Context, stopRun context.CancelFunc, cb ProgressCallback, done chan struct{}) {
	defer close(done)
	defer stopRun()

	// progress reported within one run never decreases
	floor := 0.0

	if s.current.Load() >= s.latest.Load() {
		s.finishSynced(cb, "wallet is up to date")
		return
	}

	for {
		if s.canceled.Load() {
			s.finish(nil)
			return
		}

		cur, latest := s.current.Load(), s.latest.Load()
		to := helper.Min(cur+s.cfg.BatchSize, latest)

		blocks, err := s.fetchBlocks(ctx, cur, to)
		if err != nil {
			s.finish(err)
			return
		}
		next, err := s.applyBatch(blocks, cur, to)
		if err != nil {
			s.current.Store(s.wallet.AppliedHeight())
			s.finish(err)
			return
		}
		if next == cur {
			s.finish(errors.Wrapf(walleterrors.ErrFetch, "ledger returned no block at height %d", cur))
			return
		}
		if next < to {
			// the rest of the range is requested again on the next pass
			s.log.Debug("partial batch", "from", cur, "to", to, "applied", next)
			to = next
		}
		s.current.Store(to)
		s.metrics.batches.Inc()
		s.metrics.currentHeight.Set(float64(to))

		if to == latest {
			// the ledger may have grown while we were catching up
			newLatest, err := s.fetchLatestHeight(ctx)
			if err != nil {
				s.finish(err)
				return
			}
			if newLatest > latest {
				s.log.Info("sync target extended", "from", latest, "to", newLatest)
				latest = newLatest
				s.latest.Store(latest)
				s.metrics.latestHeight.Set(float64(latest))
			}
		}

		if to == latest {
			if s.canceled.Load() {
				s.progress.Store(1)
				cb(1, fmt.Sprintf("applied blocks up to %d/%d", to, latest))
				s.finish(nil)
				return
			}
			s.finishSynced(cb, fmt.Sprintf("synchronization complete at height %d", latest))
			return
		}

		progress := float64(to) / float64(latest)
		if progress < floor {
			progress = floor
		}
		floor = progress
		s.progress.Store(progress)
		cb(progress, fmt.Sprintf("applied blocks up to %d/%d", to, latest))
	}
}

func (s *Syncer) finishSynced(cb ProgressCallback, msg string) {
	s.progress.Store(1)
	s.state.Store(int32(Synced))
	s.log.Info("sync done", "height", s.current.Load())
	cb(1, msg)
}

// finish leaves Syncing. A context error caused by Stop is not a failure.
func (s *Syncer) finish(err error) {
	if err != nil && s.canceled.Load() && errors.Cause(err) == context.Canceled {
		err = nil
	}
	if err != nil {
		s.lastErr.Store(err)
		s.log.Error("sync failed", "height", s.current.Load(), "err", err)
	}
	s.state.Store(int32(NotSynced))
}

// applyBatch applies the contiguous run of blocks starting at from and returns the
// height after the last one applied. It stops at the first height the ledger left out.
func (s *Syncer) applyBatch(blocks []*ledger.Block, from, to uint64) (uint64, error) {
	byHeight := make(map[uint64]*ledger.Block, len(blocks))
	for _, block := range blocks {
		if block == nil || block.Height < from || block.Height >= to {
			s.log.Warn("drop block outside requested range", "from", from, "to", to)
			continue
		}
		if _, ok := byHeight[block.Height]; !ok {
			byHeight[block.Height] = block
		}
	}

	next := from
	for ; next < to; next++ {
		block, ok := byHeight[next]
		if !ok {
			break
		}
		if height, ok := s.seen.Get(block.Hash); ok && height.(uint64) == block.Height {
			s.log.Debug("skip duplicated block", "height", block.Height, "hash", block.Hash)
			continue
		}
		if err := s.wallet.ApplyBlock(block); err != nil {
			return next, errors.Wrapf(err, "apply block %d", block.Height)
		}
		s.seen.Add(block.Hash, block.Height)
		s.metrics.blocksApplied.Inc()
	}
	return next, nil
}

func (s *Syncer) fetchBlocks(ctx context.Context, from, to uint64) (blocks []*ledger.Block, err error) {
	start := time.Now()
	defer s.metrics.observeFetch(start)

	err = s.retry(ctx, "blocks", func(ctx context.Context) error {
		var e error
		blocks, e = s.client.FetchBlocks(ctx, from, to)
		if e != nil {
			return classify(e, walleterrors.ErrFetch, fmt.Sprintf("fetch blocks [%d, %d)", from, to))
		}
		return nil
	})
	return blocks, err
}

func (s *Syncer) fetchLatestHeight(ctx context.Context) (latest uint64, err error) {
	err = s.retry(ctx, "latest", func(ctx context.Context) error {
		var e error
		latest, e = s.client.FetchLatestHeight(ctx)
		if e != nil {
			return classify(e, walleterrors.ErrFetch, "fetch latest height")
		}
		return nil
	})
	return latest, err
}

// retry runs fn with a per-request timeout, retrying network errors with exponential backoff.
func (s *Syncer) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := s.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		err := fn(reqCtx)
		cancel()
		if err == nil {
			return nil
		}
		s.metrics.syncErrors.WithLabelValues(op).Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= s.cfg.MaxRetries || !walleterrors.KindOf(err).Retryable() {
			return err
		}

		s.log.Warn("ledger request failed, retrying", "op", op, "attempt", attempt+1, "backoff", backoff, "err", err)
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		backoff *= 2
	}
}

// classify keeps errors that already carry a non-network kind and reports everything
// else, including deadline expiry, as base.
func classify(err error, base *walleterrors.Error, msg string) error {
	if kind := walleterrors.KindOf(err); kind != walleterrors.KindUnknown && !kind.Retryable() {
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(base, "%s: %v", msg, err)
}
