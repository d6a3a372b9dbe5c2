package types

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	vcrypto "github.com/luminachain/go-lumina/crypto"
)

// An address renders as "lumina_" + hex(blake2b-160(pubkey)) + hex(5 byte checksum).
const (
	AddressPrefix = "lumina_"
	AddressSize   = 20

	checksumSize     = 5
	hexAddressLength = len(AddressPrefix) + 2*(AddressSize+checksumSize)
)

type Address [AddressSize]byte

var ZERO_ADDRESS = Address{}

func addressChecksum(body []byte) []byte {
	return vcrypto.Hash(checksumSize, body)
}

// decodeAddress splits a textual address into body and checksum and verifies both.
func decodeAddress(s string) (Address, error) {
	var addr Address
	if len(s) != hexAddressLength || !strings.HasPrefix(s, AddressPrefix) {
		return addr, errors.Errorf("not valid hex address %q", s)
	}
	raw, err := hex.DecodeString(s[len(AddressPrefix):])
	if err != nil {
		return addr, errors.Wrapf(err, "not valid hex address %q", s)
	}
	copy(addr[:], raw[:AddressSize])
	if !bytes.Equal(addressChecksum(addr[:]), raw[AddressSize:]) {
		return addr, errors.Errorf("address checksum mismatch %q", s)
	}
	return addr, nil
}

func BytesToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, errors.Errorf("address bytes length error %v", len(b))
	}
	copy(a[:], b)
	return a, nil
}

func HexToAddress(s string) (Address, error) {
	return decodeAddress(s)
}

func IsValidHexAddress(s string) bool {
	_, err := decodeAddress(s)
	return err == nil
}

func PubkeyToAddress(pubkey []byte) Address {
	var a Address
	copy(a[:], vcrypto.Hash(AddressSize, pubkey))
	return a
}

func PrikeyToAddress(key ed25519.PrivateKey) Address {
	return PubkeyToAddress(key.Public().(ed25519.PublicKey))
}

func (addr Address) Bytes() []byte { return addr[:] }
func (addr Address) IsZero() bool  { return addr == ZERO_ADDRESS }

func (addr Address) String() string {
	return AddressPrefix + hex.EncodeToString(addr[:]) + hex.EncodeToString(addressChecksum(addr[:]))
}

func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

func (addr *Address) UnmarshalText(input []byte) error {
	a, err := decodeAddress(string(input))
	if err != nil {
		return err
	}
	*addr = a
	return nil
}
