package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"io"

	"github.com/pkg/errors"
)

const (
	gcmAdditionData = "lumina"
	gcmNonceSize    = 12
)

// SecureRandom is the default source of key material, salts and nonces.
var SecureRandom io.Reader = crand.Reader

func AesGCMEncrypt(rand io.Reader, key, inText []byte) (outText, nonce []byte, err error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	stream, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, nil, err
	}

	nonce, err = GetEntropy(rand, gcmNonceSize)
	if err != nil {
		return nil, nil, err
	}

	outText = stream.Seal(nil, nonce, inText, []byte(gcmAdditionData))
	return outText, nonce, nil
}

// AesGCMDecrypt fails when the key is wrong or the cipher text was tampered with.
func AesGCMDecrypt(key, cipherText, nonce []byte) ([]byte, error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	stream, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, err
	}
	if len(nonce) != stream.NonceSize() {
		return nil, errors.Errorf("nonce size %d", len(nonce))
	}

	return stream.Open(nil, nonce, cipherText, []byte(gcmAdditionData))
}

// GetEntropy reads n bytes from rand, nil rand means SecureRandom.
func GetEntropy(rand io.Reader, n int) ([]byte, error) {
	if rand == nil {
		rand = SecureRandom
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, errors.Wrap(err, "reading entropy")
	}
	return buf, nil
}
