package entropystore

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	vcrypto "github.com/luminachain/go-lumina/crypto"
)

const (
	// StandardScryptN is the N parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptN = 1 << 18

	// StandardScryptP is the P parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptP = 1

	// LightScryptN is the N parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptN = 1 << 12

	// LightScryptP is the P parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptP = 6

	scryptR      = 8
	scryptKeyLen = 32
	saltSize     = 32

	aesMode      = "aes-256-gcm"
	scryptName   = "scrypt"
	storeVersion = 1
)

type scryptParams struct {
	N      int    `json:"n"`
	R      int    `json:"r"`
	P      int    `json:"p"`
	KeyLen int    `json:"keylen"`
	Salt   string `json:"salt"`
}

type cryptoJSON struct {
	CipherName   string       `json:"ciphername"`
	CipherText   string       `json:"ciphertext"`
	Nonce        string       `json:"nonce"`
	KDF          string       `json:"kdf"`
	ScryptParams scryptParams `json:"scryptparams"`
}

type entropyJSON struct {
	PrimaryAddress string     `json:"primaryAddress"`
	Crypto         cryptoJSON `json:"crypto"`
	Version        int        `json:"version"`
	Timestamp      int64      `json:"timestamp"`
}

// EncryptEntropy seals the wallet entropy under a key stretched from passphrase with scrypt.
// The salt and the GCM nonce are drawn from rand.
func EncryptEntropy(rand io.Reader, entropy []byte, primaryAddr types.Address, passphrase string, useLightScrypt bool) ([]byte, error) {
	n := StandardScryptN
	p := StandardScryptP
	if useLightScrypt {
		n = LightScryptN
		p = LightScryptP
	}

	salt, err := vcrypto.GetEntropy(rand, saltSize)
	if err != nil {
		return nil, errors.Wrap(walleterrors.ErrInsufficientEntropy, err.Error())
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, n, scryptR, p, scryptKeyLen)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := vcrypto.AesGCMEncrypt(rand, derivedKey[:32], entropy)
	if err != nil {
		return nil, errors.Wrap(walleterrors.ErrInsufficientEntropy, err.Error())
	}

	sealed := entropyJSON{
		PrimaryAddress: primaryAddr.String(),
		Crypto: cryptoJSON{
			CipherName: aesMode,
			CipherText: hex.EncodeToString(ciphertext),
			Nonce:      hex.EncodeToString(nonce),
			KDF:        scryptName,
			ScryptParams: scryptParams{
				N:      n,
				R:      scryptR,
				P:      p,
				KeyLen: scryptKeyLen,
				Salt:   hex.EncodeToString(salt),
			},
		},
		Version:   storeVersion,
		Timestamp: time.Now().UTC().Unix(),
	}

	return json.Marshal(sealed)
}

// DecryptEntropy fails with ErrAuthenticationFailed on a wrong passphrase and with
// ErrCorruptState when the sealed document itself cannot be understood.
func DecryptEntropy(sealed []byte, passphrase string) ([]byte, error) {
	k, cipherData, nonce, salt, err := parseJson(sealed)
	if err != nil {
		return nil, err
	}
	params := k.Crypto.ScryptParams

	derivedKey, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, errors.Wrapf(walleterrors.ErrCorruptState, "scrypt params: %v", err)
	}

	entropy, err := vcrypto.AesGCMDecrypt(derivedKey[:32], cipherData, nonce)
	if err != nil {
		return nil, walleterrors.ErrAuthenticationFailed
	}

	return entropy, nil
}

// SealedAddress returns the primary address recorded in a sealed document without decrypting it.
func SealedAddress(sealed []byte) (types.Address, error) {
	k, _, _, _, err := parseJson(sealed)
	if err != nil {
		return types.Address{}, err
	}
	return types.HexToAddress(k.PrimaryAddress)
}

func parseJson(sealed []byte) (k *entropyJSON, cipherData, nonce, salt []byte, err error) {
	k = new(entropyJSON)
	if err := json.Unmarshal(sealed, k); err != nil {
		return nil, nil, nil, nil, errors.Wrap(walleterrors.ErrCorruptState, err.Error())
	}
	if k.Version != storeVersion {
		return nil, nil, nil, nil, errors.Wrapf(walleterrors.ErrCorruptState, "version number error : %v", k.Version)
	}

	if !types.IsValidHexAddress(k.PrimaryAddress) {
		return nil, nil, nil, nil, errors.Wrapf(walleterrors.ErrCorruptState, "address invalid : %v", k.PrimaryAddress)
	}

	if k.Crypto.CipherName != aesMode {
		return nil, nil, nil, nil, errors.Wrapf(walleterrors.ErrCorruptState, "cipherName error : %v", k.Crypto.CipherName)
	}
	if k.Crypto.KDF != scryptName {
		return nil, nil, nil, nil, errors.Wrapf(walleterrors.ErrCorruptState, "kdf error : %v", k.Crypto.KDF)
	}
	if k.Crypto.ScryptParams.KeyLen < 32 {
		return nil, nil, nil, nil, errors.Wrapf(walleterrors.ErrCorruptState, "keylen error : %v", k.Crypto.ScryptParams.KeyLen)
	}

	if cipherData, err = hex.DecodeString(k.Crypto.CipherText); err != nil {
		return nil, nil, nil, nil, errors.Wrap(walleterrors.ErrCorruptState, err.Error())
	}
	if nonce, err = hex.DecodeString(k.Crypto.Nonce); err != nil {
		return nil, nil, nil, nil, errors.Wrap(walleterrors.ErrCorruptState, err.Error())
	}
	if salt, err = hex.DecodeString(k.Crypto.ScryptParams.Salt); err != nil {
		return nil, nil, nil, nil, errors.Wrap(walleterrors.ErrCorruptState, err.Error())
	}

	return k, cipherData, nonce, salt, nil
}
