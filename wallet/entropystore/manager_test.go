package entropystore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/wallet/entropystore"
)

func newTestManager(t *testing.T) *entropystore.Manager {
	sealed, _ := sealTestEntropy(t, "123456")
	addr, err := entropystore.SealedAddress(sealed)
	require.NoError(t, err)
	return entropystore.NewManager(sealed, addr, true)
}

func TestManager_UnlockSignLock(t *testing.T) {
	km := newTestManager(t)

	var events []entropystore.UnlockEvent
	id := km.AddLockEventListener(func(e entropystore.UnlockEvent) {
		events = append(events, e)
	})

	_, _, err := km.SignData([]byte("data"))
	assert.True(t, errors.Is(err, walleterrors.ErrLocked))

	assert.True(t, errors.Is(km.Unlock("bad", 0), walleterrors.ErrAuthenticationFailed))
	assert.False(t, km.IsUnlocked())

	require.NoError(t, km.Unlock("123456", 0))
	assert.True(t, km.IsUnlocked())

	pub, sig, err := km.SignData([]byte("data"))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("data"), sig))
	assert.Equal(t, km.GetPrimaryAddr(), types.PubkeyToAddress(pub))

	km.Lock()
	assert.False(t, km.IsUnlocked())

	require.Len(t, events, 2)
	assert.True(t, events[0].Unlocked())
	assert.False(t, events[1].Unlocked())

	km.RemoveLockEventListener(id)
	require.NoError(t, km.Unlock("123456", 0))
	assert.Len(t, events, 2)
}

func TestManager_UnlockExpires(t *testing.T) {
	km := newTestManager(t)
	require.NoError(t, km.Unlock("123456", 20*time.Millisecond))
	assert.True(t, km.IsUnlocked())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, km.IsUnlocked())
	_, _, err := km.SignData([]byte("data"))
	assert.True(t, errors.Is(err, walleterrors.ErrLocked))
}

func TestManager_ExtractMnemonic(t *testing.T) {
	km := newTestManager(t)

	m, err := km.ExtractMnemonic("123456")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, m)

	m, err = km.ExtractMnemonic("nope")
	assert.Empty(t, m)
	assert.True(t, errors.Is(err, walleterrors.ErrAuthenticationFailed))
}

func TestManager_Reseal(t *testing.T) {
	km := newTestManager(t)

	_, err := km.Reseal("wrong", "new")
	assert.True(t, errors.Is(err, walleterrors.ErrAuthenticationFailed))

	sealed, err := km.Reseal("123456", "new")
	require.NoError(t, err)
	assert.Error(t, km.Unlock("new", 0))

	km.SetSealed(sealed)
	require.NoError(t, km.Unlock("new", 0))
	assert.True(t, errors.Is(km.Unlock("123456", 0), walleterrors.ErrAuthenticationFailed))
}

func TestManager_UnlockWithForeignEntropy(t *testing.T) {
	km := newTestManager(t)
	err := km.UnlockWithEntropy([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, 0)
	assert.True(t, errors.Is(err, walleterrors.ErrCorruptState))
	assert.False(t, km.IsUnlocked())
}
