package entropystore_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/wallet/entropystore"
)

func TestNewMnemonic(t *testing.T) {
	m, entropy, err := entropystore.NewMnemonic(nil)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), entropystore.MnemonicWords)
	assert.Len(t, entropy, 16)

	parsed, parsedEntropy, err := entropystore.ParseMnemonic(m)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
	assert.Equal(t, entropy, parsedEntropy)
}

func TestNewMnemonic_Deterministic(t *testing.T) {
	m, entropy, err := entropystore.NewMnemonic(bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, m)
	assert.Equal(t, make([]byte, 16), entropy)
}

func TestNewMnemonic_InsufficientEntropy(t *testing.T) {
	_, _, err := entropystore.NewMnemonic(bytes.NewReader([]byte{1, 2, 3}))
	assert.True(t, errors.Is(err, walleterrors.ErrInsufficientEntropy))
}

func TestParseMnemonic_Normalizes(t *testing.T) {
	m, _, err := entropystore.ParseMnemonic("  abandon abandon\tabandon abandon abandon abandon abandon abandon abandon abandon abandon\n about ")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, m)
}

func TestParseMnemonic_Invalid(t *testing.T) {
	cases := map[string]string{
		"short":    "abandon abandon abandon",
		"long":     testMnemonic + " abandon",
		"unknown":  strings.Replace(testMnemonic, "about", "lumina", 1),
		"checksum": strings.Replace(testMnemonic, "about", "abandon", 1),
		"empty":    "",
	}
	for name, phrase := range cases {
		_, _, err := entropystore.ParseMnemonic(phrase)
		assert.True(t, errors.Is(err, walleterrors.ErrInvalidSeedPhrase), name)
	}
}

func TestMnemonicToPrimaryAddr_RoundTrip(t *testing.T) {
	m, entropy, err := entropystore.NewMnemonic(nil)
	require.NoError(t, err)

	created, err := entropystore.MnemonicToPrimaryAddr(m)
	require.NoError(t, err)

	recovered, _, err := entropystore.ParseMnemonic(m)
	require.NoError(t, err)
	again, err := entropystore.MnemonicToPrimaryAddr(recovered)
	require.NoError(t, err)
	assert.Equal(t, *created, *again)

	back, err := entropystore.EntropyToMnemonic(entropy)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}
