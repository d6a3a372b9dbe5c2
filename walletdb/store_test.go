package walletdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/ed25519"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/fileutils"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

func newTestStore(t *testing.T) (*Store, string) {
	dir := filepath.Join(fileutils.CreateTempDir(), "wallet")
	store, err := Open(dir)
	require.NoError(t, err)
	return store, dir
}

func newSignedTx(t *testing.T) *ledger.Transaction {
	priv := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	to := types.PubkeyToAddress(ed25519.NewKeyFromSeed(append(make([]byte, 31), 1)).Public().(ed25519.PublicKey))
	tx := &ledger.Transaction{
		Kind:      ledger.KindTransfer,
		From:      types.PrikeyToAddress(priv),
		To:        to,
		Amount:    3,
		Token:     types.LumaTokenSymbol,
		Timestamp: 1700000000,
		Nonce:     1,
		Status:    ledger.TxPending,
	}
	require.NoError(t, tx.Sign(func(data []byte) (ed25519.PublicKey, []byte, error) {
		return priv.Public().(ed25519.PublicKey), ed25519.Sign(priv, data), nil
	}))
	return tx
}

func TestStore_FreshLoad(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Clean()

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state.Identity)
	assert.Empty(t, state.Balances)
	assert.Empty(t, state.History)
	assert.Equal(t, uint64(0), state.AppliedHeight)
}

func TestStore_WriteReopen(t *testing.T) {
	store, dir := newTestStore(t)
	tx := newSignedTx(t)

	batch := store.NewBatch()
	require.NoError(t, batch.PutIdentity(&Identity{Address: tx.From, EncryptedSeed: []byte("{}"), CreatedAt: 1}))
	batch.PutBalance("LMT", 7)
	batch.PutBalance("ABC", 0)
	require.NoError(t, batch.PutTx(0, tx))
	batch.PutAppliedHeight(42)
	require.NoError(t, store.Write(batch))
	require.NoError(t, store.Close())

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Clean()

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tx.From, state.Identity.Address)
	assert.Equal(t, ledger.BalanceTable{"LMT": 7}, state.Balances)
	require.Len(t, state.History, 1)
	assert.Equal(t, tx, state.History[0])
	assert.Equal(t, uint64(42), state.AppliedHeight)

	// status update rewrites the same position
	confirmed := tx.Copy()
	confirmed.Status = ledger.TxConfirmed
	batch = store.NewBatch()
	require.NoError(t, batch.PutTx(0, confirmed))
	require.NoError(t, store.Write(batch))

	state, err = store.Load()
	require.NoError(t, err)
	require.Len(t, state.History, 1)
	assert.Equal(t, ledger.TxConfirmed, state.History[0].Status)
}

func corrupt(t *testing.T, mutate func(db *leveldb.DB)) error {
	store, dir := newTestStore(t)
	tx := newSignedTx(t)
	batch := store.NewBatch()
	require.NoError(t, batch.PutIdentity(&Identity{Address: tx.From, EncryptedSeed: []byte("{}")}))
	require.NoError(t, batch.PutTx(0, tx))
	require.NoError(t, store.Write(batch))

	mutate(store.db)
	require.NoError(t, store.Close())

	store, err := Open(dir)
	if err != nil {
		return err
	}
	defer store.Clean()
	_, err = store.Load()
	return err
}

func TestStore_Corrupt(t *testing.T) {
	cases := map[string]func(db *leveldb.DB){
		"version": func(db *leveldb.DB) {
			db.Put(versionKey, []byte("99"), nil)
		},
		"no version": func(db *leveldb.DB) {
			db.Delete(versionKey, nil)
		},
		"identity": func(db *leveldb.DB) {
			db.Put(identityKey, []byte("{"), nil)
		},
		"negative balance": func(db *leveldb.DB) {
			db.Put(balanceKey("LMT"), uint64Bytes(uint64(1)<<63), nil)
		},
		"balance length": func(db *leveldb.DB) {
			db.Put(balanceKey("LMT"), []byte{1}, nil)
		},
		"tx encoding": func(db *leveldb.DB) {
			db.Put(txKey(0), []byte("not snappy"), nil)
		},
		"tx gap": func(db *leveldb.DB) {
			v, _ := db.Get(txKey(0), nil)
			db.Put(txKey(2), v, nil)
		},
		"duplicate tx": func(db *leveldb.DB) {
			v, _ := db.Get(txKey(0), nil)
			db.Put(txKey(1), v, nil)
		},
		"tx signature": func(db *leveldb.DB) {
			v, _ := db.Get(txKey(0), nil)
			buf, _ := snappy.Decode(nil, v)
			tx := new(ledger.Transaction)
			tx.Deserialize(buf)
			tx.Amount = 1000
			buf, _ = tx.Serialize()
			db.Put(txKey(0), snappy.Encode(nil, buf), nil)
		},
		"orphan data": func(db *leveldb.DB) {
			db.Delete(identityKey, nil)
		},
	}
	for name, mutate := range cases {
		err := corrupt(t, mutate)
		assert.True(t, errors.Is(err, walleterrors.ErrCorruptState), "%s: %v", name, err)
	}
}
