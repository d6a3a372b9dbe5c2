package wallet

import (
	"bytes"
	"io"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/inconshreveable/log15"
	"github.com/olebedev/emitter"
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	vcrypto "github.com/luminachain/go-lumina/crypto"
	"github.com/luminachain/go-lumina/ledger"
	"github.com/luminachain/go-lumina/wallet/entropystore"
	"github.com/luminachain/go-lumina/walletdb"
)

// Store is the persistence the wallet writes through.
type Store interface {
	Load() (*walletdb.State, error)
	NewBatch() *walletdb.Batch
	Write(batch *walletdb.Batch) error
}

type Config struct {
	// UnlockTimeout is how long the signing key stays cached after create, recover or unlock.
	UnlockTimeout  time.Duration
	UseLightScrypt bool

	// Random is the secure source for seeds, salts and nonces; nil means crypto/rand.
	Random io.Reader
	Clock  func() time.Time
}

// Wallet is the aggregate owning identity, balances and history. Every mutation goes
// through mu and is persisted in a single batch before it becomes visible in memory.
type Wallet struct {
	cfg   Config
	store Store
	rand  io.Reader
	now   func() time.Time

	mu            sync.RWMutex
	identity      *walletdb.Identity
	km            *entropystore.Manager
	balances      ledger.BalanceTable
	history       []*ledger.Transaction
	index         map[types.Hash]int
	refs          map[string]int
	pending       mapset.Set
	appliedHeight uint64
	nonce         uint64

	events *emitter.Emitter
	log    log15.Logger
}

// New loads the wallet state from store. An empty store yields an uninitialized wallet.
func New(store Store, cfg Config) (*Wallet, error) {
	w := &Wallet{
		cfg:     cfg,
		store:   store,
		rand:    cfg.Random,
		now:     cfg.Clock,
		index:   make(map[types.Hash]int),
		refs:    make(map[string]int),
		pending: mapset.NewSet(),
		events:  newEmitter(),
		log:     log15.New("module", "wallet"),
	}
	if w.rand == nil {
		w.rand = vcrypto.SecureRandom
	}
	if w.now == nil {
		w.now = time.Now
	}

	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := w.restore(state); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Wallet) restore(state *walletdb.State) error {
	w.balances = state.Balances
	w.history = state.History
	w.appliedHeight = state.AppliedHeight

	if state.Identity != nil {
		sealedAddr, err := entropystore.SealedAddress(state.Identity.EncryptedSeed)
		if err != nil {
			return err
		}
		if sealedAddr != state.Identity.Address {
			return errors.Wrapf(walleterrors.ErrCorruptState, "sealed seed belongs to %v", sealedAddr)
		}
		w.setIdentity(state.Identity)
	}

	for i, tx := range w.history {
		w.index[tx.ID] = i
		if tx.Kind == ledger.KindContract && tx.Ref != "" {
			w.refs[tx.Ref] = i
		}
		if tx.Status == ledger.TxPending {
			w.pending.Add(tx.ID)
		}
		if tx.Kind == ledger.KindTransfer && tx.Nonce > w.nonce {
			w.nonce = tx.Nonce
		}
	}
	w.log.Info("wallet loaded", "initialized", w.identity != nil, "txs", len(w.history),
		"pending", w.pending.Cardinality(), "height", w.appliedHeight)
	return nil
}

func (w *Wallet) setIdentity(id *walletdb.Identity) {
	w.identity = id
	w.km = entropystore.NewManager(id.EncryptedSeed, id.Address, w.cfg.UseLightScrypt)
	w.km.SetRandom(w.rand)
	w.km.AddLockEventListener(func(e entropystore.UnlockEvent) {
		w.events.Emit(TopicLock, e.Unlocked())
	})
}

func (w *Wallet) Initialized() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity != nil
}

// Address is the wallet's single spendable address, zero when uninitialized.
func (w *Wallet) Address() types.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.identity == nil {
		return types.ZERO_ADDRESS
	}
	return w.identity.Address
}

// CreatedAt is when the identity was created or recovered, zero when uninitialized.
func (w *Wallet) CreatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.identity == nil {
		return time.Time{}
	}
	return time.Unix(w.identity.CreatedAt, 0)
}

// Create generates a new seed, stores it sealed under password and returns the phrase.
// The phrase is shown once and never persisted in plain text.
func (w *Wallet) Create(password string) (mnemonic string, addr types.Address, err error) {
	if password == "" {
		return "", types.Address{}, errors.Wrap(walleterrors.ErrInvalidInput, "empty password")
	}
	mnemonic, _, err = entropystore.NewMnemonic(w.rand)
	if err != nil {
		return "", types.Address{}, err
	}
	addr, err = w.initialize(mnemonic, password)
	if err != nil {
		return "", types.Address{}, err
	}
	return mnemonic, addr, nil
}

// Recover restores the identity of phrase. It derives the same address Create would have.
func (w *Wallet) Recover(phrase, password string) (types.Address, error) {
	if password == "" {
		return types.Address{}, errors.Wrap(walleterrors.ErrInvalidInput, "empty password")
	}
	return w.initialize(phrase, password)
}

func (w *Wallet) initialize(phrase, password string) (types.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.identity != nil {
		return types.Address{}, walleterrors.ErrWalletExists
	}

	sealed, addr, entropy, err := entropystore.NewSealedEntropy(w.rand, phrase, password, w.cfg.UseLightScrypt)
	if err != nil {
		return types.Address{}, err
	}

	id := &walletdb.Identity{Address: addr, EncryptedSeed: sealed, CreatedAt: w.now().Unix()}
	batch := w.store.NewBatch()
	if err := batch.PutIdentity(id); err != nil {
		return types.Address{}, err
	}
	if err := w.store.Write(batch); err != nil {
		return types.Address{}, err
	}

	w.setIdentity(id)
	if err := w.km.UnlockWithEntropy(entropy, w.cfg.UnlockTimeout); err != nil {
		return types.Address{}, err
	}
	w.log.Info("wallet initialized", "addr", addr)
	return addr, nil
}

// SeedPhrase re-verifies password and discloses the phrase.
func (w *Wallet) SeedPhrase(password string) (string, error) {
	km, err := w.manager()
	if err != nil {
		return "", err
	}
	return km.ExtractMnemonic(password)
}

// ChangePassword re-encrypts the seed under newPassword. The key stretching runs
// outside the wallet lock; the result is installed only if no other change won the race.
func (w *Wallet) ChangePassword(oldPassword, newPassword string) error {
	if newPassword == "" {
		return errors.Wrap(walleterrors.ErrInvalidInput, "empty password")
	}
	km, err := w.manager()
	if err != nil {
		return err
	}
	base := km.Sealed()
	sealed, err := km.Reseal(oldPassword, newPassword)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !bytes.Equal(w.identity.EncryptedSeed, base) {
		return errors.Wrap(walleterrors.ErrAuthenticationFailed, "password changed concurrently")
	}
	id := *w.identity
	id.EncryptedSeed = sealed
	batch := w.store.NewBatch()
	if err := batch.PutIdentity(&id); err != nil {
		return err
	}
	if err := w.store.Write(batch); err != nil {
		return err
	}

	w.identity = &id
	w.km.SetSealed(sealed)
	w.log.Info("password changed", "addr", id.Address)
	return nil
}

// Unlock caches the signing key for ttl; a non-positive ttl uses the configured timeout.
func (w *Wallet) Unlock(password string, ttl time.Duration) error {
	km, err := w.manager()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = w.cfg.UnlockTimeout
	}
	return km.Unlock(password, ttl)
}

func (w *Wallet) Lock() {
	if km, err := w.manager(); err == nil {
		km.Lock()
	}
}

func (w *Wallet) IsUnlocked() bool {
	km, err := w.manager()
	return err == nil && km.IsUnlocked()
}

func (w *Wallet) manager() (*entropystore.Manager, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.km == nil {
		return nil, walleterrors.ErrWalletNotInitialized
	}
	return w.km, nil
}
