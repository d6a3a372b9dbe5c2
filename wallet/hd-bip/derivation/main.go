// Package derivation implements SLIP-0010 hardened key derivation for ed25519.
package derivation

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	"github.com/luminachain/go-lumina/common/types"
)

const (
	LuminaAccountPrefix      = "m/44'/888888'"
	LuminaPrimaryAccountPath = "m/44'/888888'/0'"
	LuminaAccountPathFormat  = "m/44'/888888'/%d'"

	// FirstHardenedIndex is 2^31; ed25519 children are all hardened.
	FirstHardenedIndex = 1 << 31

	seedModifier = "ed25519 seed"
)

var (
	ErrInvalidPath        = errors.New("invalid derivation path")
	ErrNoPublicDerivation = errors.New("no public derivation for ed25519")

	pathRegex = regexp.MustCompile(`^m(/[0-9]+')+$`)
)

// Key is an extended private key: a 32 byte ed25519 seed plus its chain code.
type Key struct {
	Key       []byte
	ChainCode []byte
}

func splitSum(sum []byte) *Key {
	return &Key{Key: sum[:32], ChainCode: sum[32:]}
}

func hmacSHA512(key []byte, data ...[]byte) []byte {
	mac := hmac.New(sha512.New, key)
	for _, d := range data {
		mac.Write(d)
	}
	return mac.Sum(nil)
}

func NewMasterKey(seed []byte) (*Key, error) {
	if len(seed) == 0 {
		return nil, errors.New("empty seed")
	}
	return splitSum(hmacSHA512([]byte(seedModifier), seed)), nil
}

// Derive returns child i, which must be a hardened index.
func (k *Key) Derive(i uint32) (*Key, error) {
	if i < FirstHardenedIndex {
		return nil, ErrNoPublicDerivation
	}
	var index [4]byte
	binary.BigEndian.PutUint32(index[:], i)
	return splitSum(hmacSHA512(k.ChainCode, []byte{0x0}, k.Key, index[:])), nil
}

// parsePath turns "m/44'/0'" into hardened child indexes.
func parsePath(path string) ([]uint32, error) {
	if !pathRegex.MatchString(path) {
		return nil, ErrInvalidPath
	}
	segments := strings.Split(path, "/")[1:]
	indexes := make([]uint32, len(segments))
	for n, segment := range segments {
		i, err := strconv.ParseUint(strings.TrimSuffix(segment, "'"), 10, 31)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPath, "segment %q", segment)
		}
		indexes[n] = uint32(i) + FirstHardenedIndex
	}
	return indexes, nil
}

func isValidPath(path string) bool {
	_, err := parsePath(path)
	return err == nil
}

// DeriveForPath walks path from the master key of seed.
func DeriveForPath(path string, seed []byte) (*Key, error) {
	indexes, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	key, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	for _, i := range indexes {
		if key, err = key.Derive(i); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func DeriveWithIndex(i uint32, seed []byte) (*Key, error) {
	return DeriveForPath(fmt.Sprintf(LuminaAccountPathFormat, i), seed)
}

// GetPrimaryAddress is the single spendable address of a wallet seed.
func GetPrimaryAddress(seed []byte) (*types.Address, error) {
	key, err := DeriveWithIndex(0, seed)
	if err != nil {
		return nil, err
	}
	return key.Address()
}

func (k Key) PrivateKey() (ed25519.PrivateKey, error) {
	if len(k.Key) != ed25519.SeedSize {
		return nil, errors.Errorf("key length %d", len(k.Key))
	}
	return ed25519.NewKeyFromSeed(k.Key), nil
}

func (k Key) PublicKey() (ed25519.PublicKey, error) {
	priv, err := k.PrivateKey()
	if err != nil {
		return nil, err
	}
	return priv.Public().(ed25519.PublicKey), nil
}

func (k Key) Address() (*types.Address, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}
	addr := types.PubkeyToAddress(pub)
	return &addr, nil
}

func (k Key) SignData(message []byte) (ed25519.PublicKey, []byte, error) {
	priv, err := k.PrivateKey()
	if err != nil {
		return nil, nil, err
	}
	return priv.Public().(ed25519.PublicKey), ed25519.Sign(priv, message), nil
}
