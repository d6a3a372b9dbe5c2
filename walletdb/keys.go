package walletdb

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// Version is the on-disk format this package reads and writes.
	Version uint64 = 1
)

var (
	versionKey       = []byte("meta.version")
	identityKey      = []byte("identity")
	appliedHeightKey = []byte("sync.height")

	balancePrefix = []byte("balance.")
	txPrefix      = []byte("tx.")
)

func balanceKey(token string) []byte {
	return append(append([]byte(nil), balancePrefix...), token...)
}

func txKey(index uint64) []byte {
	key := make([]byte, len(txPrefix)+8)
	copy(key, txPrefix)
	binary.BigEndian.PutUint64(key[len(txPrefix):], index)
	return key
}

func txIndex(key []byte) (uint64, error) {
	if len(key) != len(txPrefix)+8 {
		return 0, errors.Errorf("bad tx key length %d", len(key))
	}
	return binary.BigEndian.Uint64(key[len(txPrefix):]), nil
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesUint64(buf []byte) (uint64, error) {
	if len(buf) != 8 {
		return 0, errors.Errorf("bad uint64 length %d", len(buf))
	}
	return binary.BigEndian.Uint64(buf), nil
}
