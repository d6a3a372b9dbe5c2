package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCmp(t *testing.T) {
	hash1, err := HexToHash("0000000000000000000000000000000000000000000000000000000000000001")
	assert.NoError(t, err)
	hash2, err := HexToHash("0000000000000000000000000000000000000000000000000000000000000002")
	assert.NoError(t, err)

	assert.Equal(t, -1, hash1.Cmp(hash2))
	assert.Equal(t, 0, hash1.Cmp(hash1))
}

func TestHash_JSON(t *testing.T) {
	h := DataListHash([]byte("lumina"), []byte("wallet"))

	data, err := json.Marshal(h)
	assert.NoError(t, err)
	assert.Equal(t, `"`+h.Hex()+`"`, string(data))

	var h2 Hash
	assert.NoError(t, json.Unmarshal(data, &h2))
	assert.Equal(t, h, h2)

	assert.Error(t, json.Unmarshal([]byte(`"abcd"`), &h2))
}
