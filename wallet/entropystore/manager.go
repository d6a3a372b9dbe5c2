package entropystore

import (
	"io"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	vcrypto "github.com/luminachain/go-lumina/crypto"
	"github.com/luminachain/go-lumina/wallet/hd-bip/derivation"
)

const (
	Locked   = "Locked"
	UnLocked = "Unlocked"

	signingKey      = "signing"
	janitorInterval = time.Second
)

type UnlockEvent struct {
	PrimaryAddr types.Address
	event       string // "Unlocked Locked"
}

func (ue UnlockEvent) String() string {
	return ue.PrimaryAddr.String() + " " + ue.event
}

func (ue UnlockEvent) Unlocked() bool {
	return ue.event == UnLocked
}

// Manager owns the sealed entropy of one wallet and, while unlocked, its signing key.
// The key lives in a TTL cache and is dropped when the entry expires or Lock is called.
type Manager struct {
	primaryAddr    types.Address
	sealed         []byte
	useLightScrypt bool
	rand           io.Reader

	unlocked *cache.Cache
	mutex    sync.Mutex

	unlockChangedLis   map[int]func(event UnlockEvent)
	unlockChangedIndex int
	log                log15.Logger
}

func NewManager(sealed []byte, primaryAddr types.Address, useLightScrypt bool) *Manager {
	km := &Manager{
		primaryAddr:        primaryAddr,
		sealed:             sealed,
		useLightScrypt:     useLightScrypt,
		rand:               vcrypto.SecureRandom,
		unlocked:           cache.New(cache.NoExpiration, janitorInterval),
		unlockChangedLis:   make(map[int]func(event UnlockEvent)),
		unlockChangedIndex: 100,

		log: log15.New("module", "wallet/entropystore/Manager"),
	}
	km.unlocked.OnEvicted(func(string, interface{}) {
		km.log.Info("signing key evicted", "addr", km.primaryAddr)
		km.notify(UnlockEvent{PrimaryAddr: km.primaryAddr, event: Locked})
	})
	return km
}

// SetRandom replaces the secure random source used when resealing.
func (km *Manager) SetRandom(rand io.Reader) {
	km.mutex.Lock()
	defer km.mutex.Unlock()
	km.rand = rand
}

// NewSealedEntropy validates mnemonic, seals its entropy under password and returns the
// sealed document together with the derived primary address.
func NewSealedEntropy(rand io.Reader, mnemonic, password string, useLightScrypt bool) (sealed []byte, primaryAddr types.Address, entropy []byte, err error) {
	mnemonic, entropy, err = ParseMnemonic(mnemonic)
	if err != nil {
		return nil, types.Address{}, nil, err
	}
	addr, err := MnemonicToPrimaryAddr(mnemonic)
	if err != nil {
		return nil, types.Address{}, nil, err
	}
	sealed, err = EncryptEntropy(rand, entropy, *addr, password, useLightScrypt)
	if err != nil {
		return nil, types.Address{}, nil, err
	}
	return sealed, *addr, entropy, nil
}

func (km *Manager) IsUnlocked() bool {
	_, ok := km.unlocked.Get(signingKey)
	return ok
}

// Unlock verifies password against the sealed entropy and keeps the signing key for ttl.
// A non-positive ttl keeps the key until Lock.
func (km *Manager) Unlock(password string, ttl time.Duration) error {
	entropy, e := DecryptEntropy(km.Sealed(), password)
	if e != nil {
		return e
	}
	return km.UnlockWithEntropy(entropy, ttl)
}

func (km *Manager) UnlockWithEntropy(entropy []byte, ttl time.Duration) error {
	key, e := km.primaryKey(entropy)
	if e != nil {
		return e
	}
	priv, e := key.PrivateKey()
	if e != nil {
		return e
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	km.unlocked.Set(signingKey, priv, ttl)

	km.notify(UnlockEvent{PrimaryAddr: km.primaryAddr, event: UnLocked})
	return nil
}

func (km *Manager) Lock() {
	if _, ok := km.unlocked.Get(signingKey); !ok {
		return
	}
	// eviction callback emits the Locked event
	km.unlocked.Delete(signingKey)
}

// SignData signs data with the primary key; the manager must be unlocked.
func (km *Manager) SignData(data []byte) (pubkey ed25519.PublicKey, signedData []byte, err error) {
	v, ok := km.unlocked.Get(signingKey)
	if !ok {
		return nil, nil, walleterrors.ErrLocked
	}
	priv := v.(ed25519.PrivateKey)
	return priv.Public().(ed25519.PublicKey), ed25519.Sign(priv, data), nil
}

// ExtractMnemonic re-verifies password and returns the seed phrase.
func (km *Manager) ExtractMnemonic(password string) (string, error) {
	entropy, e := DecryptEntropy(km.Sealed(), password)
	if e != nil {
		return "", e
	}
	return EntropyToMnemonic(entropy)
}

// Reseal re-encrypts the entropy under newPassword and returns the new document without
// installing it; callers persist first and then call SetSealed.
func (km *Manager) Reseal(oldPassword, newPassword string) ([]byte, error) {
	entropy, e := DecryptEntropy(km.Sealed(), oldPassword)
	if e != nil {
		return nil, e
	}
	km.mutex.Lock()
	rand := km.rand
	km.mutex.Unlock()
	return EncryptEntropy(rand, entropy, km.primaryAddr, newPassword, km.useLightScrypt)
}

func (km *Manager) SetSealed(sealed []byte) {
	km.mutex.Lock()
	defer km.mutex.Unlock()
	km.sealed = sealed
}

func (km *Manager) Sealed() []byte {
	km.mutex.Lock()
	defer km.mutex.Unlock()
	return km.sealed
}

func (km *Manager) GetPrimaryAddr() (primaryAddr types.Address) {
	return km.primaryAddr
}

func (km *Manager) primaryKey(entropy []byte) (*derivation.Key, error) {
	seed, e := EntropyToSeed(entropy)
	if e != nil {
		return nil, e
	}
	key, e := derivation.DeriveWithIndex(0, seed)
	if e != nil {
		return nil, e
	}
	addr, e := key.Address()
	if e != nil {
		return nil, e
	}
	if *addr != km.primaryAddr {
		return nil, errors.Wrapf(walleterrors.ErrCorruptState, "sealed entropy derives %v, want %v", addr, km.primaryAddr)
	}
	return key, nil
}

func (km *Manager) notify(event UnlockEvent) {
	km.mutex.Lock()
	lis := make([]func(UnlockEvent), 0, len(km.unlockChangedLis))
	for _, f := range km.unlockChangedLis {
		lis = append(lis, f)
	}
	km.mutex.Unlock()

	for _, f := range lis {
		f(event)
	}
}

func (km *Manager) AddLockEventListener(lis func(event UnlockEvent)) int {
	km.mutex.Lock()
	defer km.mutex.Unlock()

	km.unlockChangedIndex++
	km.unlockChangedLis[km.unlockChangedIndex] = lis

	return km.unlockChangedIndex
}

func (km *Manager) RemoveLockEventListener(id int) {
	km.mutex.Lock()
	defer km.mutex.Unlock()
	delete(km.unlockChangedLis, id)
}
