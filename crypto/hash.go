package crypto

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// digest feeds every part into a blake2b of the given size. Sizes outside
// 1..64 fall back to 32 bytes.
func digest(size int, parts [][]byte) []byte {
	var h hash.Hash
	var err error
	if size == blake2b.Size256 {
		h, err = blake2b.New256(nil)
	} else {
		h, err = blake2b.New(size, nil)
	}
	if err != nil {
		h, _ = blake2b.New256(nil)
	}
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Hash256 is the 32 byte blake2b digest used for ids and block hashes.
func Hash256(data ...[]byte) []byte { return digest(blake2b.Size256, data) }

// Hash is a blake2b digest truncated to size bytes, used for addresses.
func Hash(size int, data ...[]byte) []byte { return digest(size, data) }
