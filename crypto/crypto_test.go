package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gcm_dummy_plain_text = "112233445566778899AAABBCCBC"
	gcm_dummy_key_32     = "11112222333344445555666677778888"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestHash256(t *testing.T) {
	assert.Len(t, Hash256([]byte{1, 2, 3}), 32)
	assert.Equal(t, Hash256([]byte{1, 2}, []byte{3}), Hash256([]byte{1, 2, 3}))
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		hex.EncodeToString(Hash256(nil)))
	assert.Len(t, Hash(5, []byte("lumina")), 5)
}

func TestAesGCMEncrypt(t *testing.T) {
	key := []byte(gcm_dummy_key_32)
	plain := []byte(gcm_dummy_plain_text)

	out, nonce, err := AesGCMEncrypt(nil, key, plain)
	require.NoError(t, err)
	assert.Len(t, nonce, gcmNonceSize)

	plain1, err := AesGCMDecrypt(key, out, nonce)
	require.NoError(t, err)
	if !bytes.Equal(plain1, plain) {
		t.Fatal("Mis content")
	}

	wrong := []byte("88887777666655554444333322221111")
	_, err = AesGCMDecrypt(wrong, out, nonce)
	assert.Error(t, err)

	out[0] ^= 0xff
	_, err = AesGCMDecrypt(key, out, nonce)
	assert.Error(t, err)
}

func TestGetEntropy_Failure(t *testing.T) {
	_, err := GetEntropy(failingReader{}, 16)
	assert.Error(t, err)

	_, _, err = AesGCMEncrypt(failingReader{}, []byte(gcm_dummy_key_32), []byte("x"))
	assert.Error(t, err)
}
