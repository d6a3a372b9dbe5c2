package node

import (
	"context"
	"io"
	"path/filepath"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"

	"github.com/luminachain/go-lumina/common"
	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/fileutils"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/config"
	"github.com/luminachain/go-lumina/contracts"
	"github.com/luminachain/go-lumina/contracts/jsvm"
	"github.com/luminachain/go-lumina/ledger"
	"github.com/luminachain/go-lumina/net"
	"github.com/luminachain/go-lumina/net/memledger"
	"github.com/luminachain/go-lumina/wallet"
	"github.com/luminachain/go-lumina/walletdb"
)

// DevnetEndpoint is used when devnet runs without a configured endpoint.
const DevnetEndpoint = "memledger://devnet"

var log = log15.New("module", "node")

// Node owns the wallet and the services around it: storage, sync, contracts and the
// periodic sync job.
type Node struct {
	cfg    *config.Config
	status common.LifecycleStatus

	logCloser io.Closer
	store     *walletdb.Store
	wallet    *wallet.Wallet
	client    net.LedgerClient
	devnet    *memledger.Ledger
	syncer    *net.Syncer
	gateway   *contracts.Gateway
	cron      *cron.Cron
	registry  *prometheus.Registry

	syncMu sync.Mutex

	notifyMu sync.Mutex
	notify   func(Notice)
	unwatch  func()
}

// New prepares a node. A nil client selects the in-process ledger.
func New(cfg *config.Config, client net.LedgerClient) (*Node, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Node{
		cfg:      cfg,
		client:   client,
		registry: prometheus.NewRegistry(),
	}
	if client == nil {
		n.devnet = memledger.New()
		n.client = n.devnet
	}
	return n, nil
}

func (n *Node) endpoint() string {
	if n.cfg.NetworkEndpoint == "" && n.devnet != nil {
		return DevnetEndpoint
	}
	return n.cfg.NetworkEndpoint
}

func (n *Node) Start() (err error) {
	if !n.status.PreStart() {
		return errors.New("node already started")
	}
	defer func() {
		if err != nil {
			n.release()
			n.status.Reset()
		}
	}()

	if err := fileutils.EnsureDir(n.cfg.DataDir, 0700); err != nil {
		return err
	}
	n.logCloser, err = common.SetupLogging(n.cfg.DataDir, n.cfg.LogFile, n.cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "setup logging")
	}
	log.Info("starting node", "datadir", n.cfg.DataDir, "endpoint", n.endpoint(), "devnet", n.cfg.Devnet)

	n.store, err = walletdb.Open(filepath.Join(n.cfg.DataDir, "wallet"))
	if err != nil {
		return err
	}
	n.wallet, err = wallet.New(n.store, wallet.Config{
		UnlockTimeout:  n.cfg.Wallet.UnlockTimeout,
		UseLightScrypt: n.cfg.Wallet.LightScrypt,
	})
	if err != nil {
		return err
	}
	n.unwatch = n.watchWallet(n.wallet.Events())

	n.syncer = net.NewSyncer(n.client, n.wallet, net.Config{
		Endpoint:       n.endpoint(),
		BatchSize:      uint64(n.cfg.Sync.BatchSize),
		RequestTimeout: n.cfg.Sync.RequestTimeout,
		MaxRetries:     n.cfg.Sync.MaxRetries,
		RetryBackoff:   n.cfg.Sync.RetryBackoff,
		Registerer:     n.registry,
	})
	n.gateway = contracts.NewGateway(jsvm.New(), contracts.FileLoader{Dir: n.cfg.ContractDir()}, n.wallet, n.cfg.Contract.Timeout)

	if n.cfg.Sync.AutoInterval != "" {
		n.cron = cron.New()
		if err := n.cron.AddFunc(n.cfg.Sync.AutoInterval, n.autoSync); err != nil {
			return errors.Wrapf(err, "invalid sync.auto_interval %q", n.cfg.Sync.AutoInterval)
		}
		n.cron.Start()
	}

	if n.wallet.Initialized() {
		if _, err := n.FundFromFaucet(); err != nil {
			log.Warn("devnet faucet failed", "err", err)
		}
	}

	n.status.PostStart()
	log.Info("node started", "initialized", n.wallet.Initialized(), "height", n.wallet.AppliedHeight())
	return nil
}

func (n *Node) Stop() error {
	if !n.status.PreStop() {
		return errors.New("node not started")
	}
	log.Info("stopping node")
	n.release()
	n.status.PostStop()
	return nil
}

func (n *Node) release() {
	if n.cron != nil {
		n.cron.Stop()
		n.cron = nil
	}
	if n.syncer != nil {
		if err := n.syncer.Stop(); err != nil && !errors.Is(err, walleterrors.ErrNotSyncing) {
			log.Error("stop sync", "err", err)
		}
	}
	if n.unwatch != nil {
		n.unwatch()
		n.unwatch = nil
	}
	if n.wallet != nil {
		n.wallet.Lock()
	}
	if n.store != nil {
		if err := n.store.Close(); err != nil {
			log.Error("close wallet store", "err", err)
		}
		n.store = nil
	}
	if n.logCloser != nil {
		n.logCloser.Close()
		n.logCloser = nil
	}
}

func (n *Node) Config() *config.Config {
	return n.cfg
}

func (n *Node) Wallet() *wallet.Wallet {
	return n.wallet
}

func (n *Node) Syncer() *net.Syncer {
	return n.syncer
}

func (n *Node) Gateway() *contracts.Gateway {
	return n.gateway
}

// Registry holds the node's prometheus metrics.
func (n *Node) Registry() *prometheus.Registry {
	return n.registry
}

// Devnet is the in-process ledger, nil when a remote client was supplied.
func (n *Node) Devnet() *memledger.Ledger {
	return n.devnet
}

// FundFromFaucet mints devnet.faucet LMT to an unfunded devnet wallet and seals a block.
// It returns the faucet transaction id, or a zero hash when nothing was minted.
func (n *Node) FundFromFaucet() (types.Hash, error) {
	if !n.cfg.Devnet || n.devnet == nil || n.cfg.DevnetFaucet <= 0 {
		return types.Hash{}, nil
	}
	addr := n.wallet.Address()
	if addr.IsZero() {
		return types.Hash{}, walleterrors.ErrWalletNotInitialized
	}
	if n.devnet.BalanceOf(addr, types.LumaTokenSymbol) > 0 || n.wallet.Balance(types.LumaTokenSymbol) > 0 {
		return types.Hash{}, nil
	}
	id := n.devnet.Mint(addr, types.Amount(n.cfg.DevnetFaucet), types.LumaTokenSymbol)
	n.devnet.Seal()
	log.Info("devnet faucet", "to", addr, "amount", n.cfg.DevnetFaucet, "tx", id)
	return id, nil
}

// Refresh submits pending transfers, seals them into a block on devnet and starts a sync
// run. It does not wait for the run to finish.
func (n *Node) Refresh(cb net.ProgressCallback) error {
	n.syncMu.Lock()
	defer n.syncMu.Unlock()

	if !n.wallet.Initialized() {
		return walleterrors.ErrWalletNotInitialized
	}
	if n.syncer.Status() == net.Syncing {
		return walleterrors.ErrAlreadySyncing
	}
	if err := n.submitPending(); err != nil {
		log.Warn("submit pending transfers", "err", err)
	}
	return n.syncer.Start(cb)
}

func (n *Node) submitPending() error {
	if n.wallet.PendingCount() == 0 {
		return nil
	}
	if err := n.syncer.Connect(context.Background()); err != nil {
		return err
	}
	submitted, err := n.syncer.SubmitPending(context.Background())
	if submitted > 0 && n.devnet != nil {
		n.devnet.Seal()
	}
	return err
}

func (n *Node) autoSync() {
	err := n.Refresh(nil)
	if errors.Is(err, walleterrors.ErrAlreadySyncing) || errors.Is(err, walleterrors.ErrWalletNotInitialized) {
		return
	}
	if err != nil {
		log.Warn("auto sync failed to start", "err", err)
		return
	}
	if err := n.syncer.Wait(); err != nil {
		log.Warn("auto sync failed", "err", err)
	}
}

// Status summarizes the node for the console's status command.
type Status struct {
	Address       string
	Initialized   bool
	Unlocked      bool
	SyncState     net.SyncState
	Progress      float64
	Cursor        net.Cursor
	PendingCount  int
	Balances      ledger.BalanceTable
	LastSyncError error
}

func (n *Node) Status() Status {
	s := Status{
		Initialized:   n.wallet.Initialized(),
		Unlocked:      n.wallet.IsUnlocked(),
		SyncState:     n.syncer.Status(),
		Progress:      n.syncer.Progress(),
		Cursor:        n.syncer.Cursor(),
		PendingCount:  n.wallet.PendingCount(),
		Balances:      n.wallet.Balances(),
		LastSyncError: n.syncer.LastError(),
	}
	if s.Initialized {
		s.Address = n.wallet.Address().String()
	}
	return s
}
