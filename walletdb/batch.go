package walletdb

import (
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
)

// Identity is the single owner record of a wallet store.
type Identity struct {
	Address       types.Address `json:"address"`
	EncryptedSeed []byte        `json:"encryptedSeed"`
	CreatedAt     int64         `json:"createdAt"`
}

// Batch collects the writes of one wallet mutation. Nothing reaches disk until Store.Write.
type Batch struct {
	b *leveldb.Batch
}

func (store *Store) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

func (batch *Batch) PutIdentity(id *Identity) error {
	buf, err := json.Marshal(id)
	if err != nil {
		return err
	}
	batch.b.Put(identityKey, buf)
	return nil
}

// PutBalance stores a balance; zero removes the entry.
func (batch *Batch) PutBalance(token string, amount types.Amount) {
	if amount == 0 {
		batch.b.Delete(balanceKey(token))
		return
	}
	batch.b.Put(balanceKey(token), uint64Bytes(uint64(amount)))
}

// PutTx stores tx at its position in the history.
func (batch *Batch) PutTx(index int, tx *ledger.Transaction) error {
	buf, err := tx.Serialize()
	if err != nil {
		return err
	}
	batch.b.Put(txKey(uint64(index)), snappy.Encode(nil, buf))
	return nil
}

func (batch *Batch) PutAppliedHeight(height uint64) {
	batch.b.Put(appliedHeightKey, uint64Bytes(height))
}

func (batch *Batch) Len() int {
	return batch.b.Len()
}
