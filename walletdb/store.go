package walletdb

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/golang/snappy"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// State is everything a wallet persists.
type State struct {
	Identity      *Identity
	Balances      ledger.BalanceTable
	History       []*ledger.Transaction
	AppliedHeight uint64
}

type Store struct {
	dbDir string
	db    *leveldb.DB
	log   log15.Logger
}

// Open opens or creates the wallet database in dataDir. A fresh database gets the
// current version header; an existing one must carry it.
func Open(dataDir string) (*Store, error) {
	diskStore, err := leveldb.OpenFile(dataDir, nil)
	if err != nil {
		return nil, errors.Wrapf(walleterrors.ErrStorage, "open %s: %v", dataDir, err)
	}

	store := &Store{
		dbDir: dataDir,
		db:    diskStore,
		log:   log15.New("module", "walletdb"),
	}
	if err := store.checkVersion(); err != nil {
		diskStore.Close()
		return nil, err
	}
	return store, nil
}

func (store *Store) checkVersion() error {
	value, err := store.db.Get(versionKey, nil)
	if err == leveldb.ErrNotFound {
		iter := store.db.NewIterator(nil, nil)
		empty := !iter.Next()
		iter.Release()
		if !empty {
			return errors.Wrap(walleterrors.ErrCorruptState, "missing version header")
		}
		if err := store.db.Put(versionKey, []byte(strconv.FormatUint(Version, 10)), nil); err != nil {
			return errors.Wrap(walleterrors.ErrStorage, err.Error())
		}
		store.log.Info("initialized wallet database", "dir", store.dbDir, "version", Version)
		return nil
	}
	if err != nil {
		return errors.Wrap(walleterrors.ErrStorage, err.Error())
	}

	v, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil || v != Version {
		return errors.Wrapf(walleterrors.ErrCorruptState, "unsupported format version %q", value)
	}
	return nil
}

// Write applies batch atomically.
func (store *Store) Write(batch *Batch) error {
	if err := store.db.Write(batch.b, nil); err != nil {
		return errors.Wrap(walleterrors.ErrStorage, err.Error())
	}
	return nil
}

// Load reads and validates the persisted state. Anything that does not decode or
// breaks a balance/history invariant is reported as ErrCorruptState.
func (store *Store) Load() (*State, error) {
	state := &State{Balances: ledger.BalanceTable{}}

	value, err := store.db.Get(identityKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
	case err != nil:
		return nil, errors.Wrap(walleterrors.ErrStorage, err.Error())
	default:
		id := new(Identity)
		if err := json.Unmarshal(value, id); err != nil {
			return nil, errors.Wrapf(walleterrors.ErrCorruptState, "identity: %v", err)
		}
		if id.Address.IsZero() || len(id.EncryptedSeed) == 0 {
			return nil, errors.Wrap(walleterrors.ErrCorruptState, "identity is incomplete")
		}
		state.Identity = id
	}

	value, err = store.db.Get(appliedHeightKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
	case err != nil:
		return nil, errors.Wrap(walleterrors.ErrStorage, err.Error())
	default:
		if state.AppliedHeight, err = bytesUint64(value); err != nil {
			return nil, errors.Wrapf(walleterrors.ErrCorruptState, "applied height: %v", err)
		}
	}

	if err := store.loadBalances(state); err != nil {
		return nil, err
	}
	if err := store.loadHistory(state); err != nil {
		return nil, err
	}

	if state.Identity == nil && (len(state.Balances) > 0 || len(state.History) > 0) {
		return nil, errors.Wrap(walleterrors.ErrCorruptState, "wallet data without identity")
	}
	return state, nil
}

func (store *Store) loadBalances(state *State) error {
	iter := store.db.NewIterator(util.BytesPrefix(balancePrefix), nil)
	defer iter.Release()

	for iter.Next() {
		token := string(bytes.TrimPrefix(iter.Key(), balancePrefix))
		v, err := bytesUint64(iter.Value())
		if err != nil {
			return errors.Wrapf(walleterrors.ErrCorruptState, "balance %s: %v", token, err)
		}
		state.Balances[token] = types.Amount(int64(v))
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(walleterrors.ErrStorage, err.Error())
	}
	return state.Balances.Validate()
}

func (store *Store) loadHistory(state *State) error {
	iter := store.db.NewIterator(util.BytesPrefix(txPrefix), nil)
	defer iter.Release()

	seen := make(map[types.Hash]struct{})
	for iter.Next() {
		index, err := txIndex(iter.Key())
		if err != nil {
			return errors.Wrap(walleterrors.ErrCorruptState, err.Error())
		}
		if index != uint64(len(state.History)) {
			return errors.Wrapf(walleterrors.ErrCorruptState, "history gap at %d", len(state.History))
		}

		buf, err := snappy.Decode(nil, iter.Value())
		if err != nil {
			return errors.Wrapf(walleterrors.ErrCorruptState, "tx %d: %v", index, err)
		}
		tx := new(ledger.Transaction)
		if err := tx.Deserialize(buf); err != nil {
			return errors.Wrapf(walleterrors.ErrCorruptState, "tx %d: %v", index, err)
		}
		if err := validateTx(tx); err != nil {
			return errors.Wrapf(err, "tx %d", index)
		}
		if _, ok := seen[tx.ID]; ok {
			return errors.Wrapf(walleterrors.ErrCorruptState, "duplicate tx %s", tx.ID)
		}
		seen[tx.ID] = struct{}{}
		state.History = append(state.History, tx)
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(walleterrors.ErrStorage, err.Error())
	}
	return nil
}

func validateTx(tx *ledger.Transaction) error {
	if tx.Amount.Sign() < 0 || (tx.Amount == 0 && tx.Kind != ledger.KindContract) || !types.IsValidTokenSymbol(tx.Token) {
		return errors.Wrap(walleterrors.ErrCorruptState, "bad amount or token")
	}
	switch tx.Status {
	case ledger.TxPending, ledger.TxConfirmed, ledger.TxFailed:
	default:
		return errors.Wrap(walleterrors.ErrCorruptState, "bad status")
	}
	if tx.Kind == ledger.KindTransfer && len(tx.Signature) > 0 && !tx.VerifySignature() {
		return errors.Wrap(walleterrors.ErrCorruptState, "bad signature")
	}
	return nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

// Clean closes the store and removes its files.
func (store *Store) Clean() error {
	if err := store.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(store.dbDir); err != nil && !os.IsNotExist(err) {
		return errors.New("Remove " + store.dbDir + " failed, error is " + err.Error())
	}
	return nil
}
