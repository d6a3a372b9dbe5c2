package entropystore

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	vcrypto "github.com/luminachain/go-lumina/crypto"
	"github.com/luminachain/go-lumina/wallet/hd-bip/derivation"
)

const (
	MnemonicWords = 12
	entropyBytes  = 16
)

var dictionary = func() map[string]struct{} {
	m := make(map[string]struct{}, len(wordlists.English))
	for _, w := range wordlists.English {
		m[w] = struct{}{}
	}
	return m
}()

// NewMnemonic draws 128 bits from rand and encodes them as a 12 word phrase.
func NewMnemonic(rand io.Reader) (mnemonic string, entropy []byte, err error) {
	entropy, err = vcrypto.GetEntropy(rand, entropyBytes)
	if err != nil {
		return "", nil, errors.Wrap(walleterrors.ErrInsufficientEntropy, err.Error())
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, entropy, nil
}

// ParseMnemonic normalizes whitespace and checks word count, dictionary membership and checksum.
func ParseMnemonic(phrase string) (mnemonic string, entropy []byte, err error) {
	words := strings.Fields(phrase)
	if len(words) != MnemonicWords {
		return "", nil, errors.Wrapf(walleterrors.ErrInvalidSeedPhrase, "expected %d words, got %d", MnemonicWords, len(words))
	}
	for i, w := range words {
		if _, ok := dictionary[w]; !ok {
			return "", nil, errors.Wrapf(walleterrors.ErrInvalidSeedPhrase, "word %d is not in the dictionary", i+1)
		}
	}

	mnemonic = strings.Join(words, " ")
	entropy, err = bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return "", nil, errors.Wrap(walleterrors.ErrInvalidSeedPhrase, "bad checksum")
	}
	return mnemonic, entropy, nil
}

func EntropyToMnemonic(entropy []byte) (string, error) {
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(walleterrors.ErrCorruptState, err.Error())
	}
	return m, nil
}

func EntropyToSeed(entropy []byte) ([]byte, error) {
	m, err := EntropyToMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return bip39.NewSeed(m, ""), nil
}

func MnemonicToPrimaryAddr(mnemonic string) (primaryAddress *types.Address, e error) {
	seed := bip39.NewSeed(mnemonic, "")
	primaryAddress, e = derivation.GetPrimaryAddress(seed)
	if e != nil {
		return nil, e
	}
	return primaryAddress, nil
}
