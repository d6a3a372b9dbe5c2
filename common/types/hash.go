package types

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/luminachain/go-lumina/crypto"
)

const HashSize = 32

// Hash identifies transactions and blocks. Its text form is bare lowercase hex.
type Hash [HashSize]byte

func BytesToHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errors.Errorf("error hash size %v", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func HexToHash(s string) (Hash, error) {
	if len(s) != 2*HashSize {
		return Hash{}, errors.Errorf("error hex hash size %v", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, errors.Wrap(err, "hex hash")
	}
	return BytesToHash(b)
}

// DataListHash is blake2b-256 over the concatenation of data.
func DataListHash(data ...[]byte) Hash {
	var h Hash
	copy(h[:], crypto.Hash256(data...))
	return h
}

func DataHash(data []byte) Hash { return DataListHash(data) }

func (h Hash) Hex() string        { return hex.EncodeToString(h[:]) }
func (h Hash) String() string     { return h.Hex() }
func (h Hash) Bytes() []byte      { return h[:] }
func (h Hash) IsZero() bool       { return h == Hash{} }
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(input []byte) error {
	parsed, err := HexToHash(string(input))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
