package console

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminachain/go-lumina/common/fileutils"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/config"
	"github.com/luminachain/go-lumina/crypto"
	"github.com/luminachain/go-lumina/node"
	"github.com/luminachain/go-lumina/wallet"
	"github.com/luminachain/go-lumina/wallet/hd-bip/derivation"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type fakePrompter struct {
	answers []string
	asked   []string
}

func (p *fakePrompter) PasswordPrompt(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", os.ErrClosed
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

// syncBuffer collects output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestHandler(t *testing.T) (*Handler, *fakePrompter, *node.Node) {
	return newTestHandlerTo(t, ioutil.Discard)
}

func newTestHandlerTo(t *testing.T, out io.Writer) (*Handler, *fakePrompter, *node.Node) {
	dir := fileutils.CreateTempDir()
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.LogFile = "wallet.log"
	cfg.Wallet.LightScrypt = true
	cfg.Devnet = true
	cfg.DevnetFaucet = 500000000

	n, err := node.New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	t.Cleanup(func() { n.Stop() })

	p := &fakePrompter{}
	return NewHandler(n, p, out), p, n
}

func syncWallet(t *testing.T, h *Handler, n *node.Node) {
	res := h.Execute("refresh", nil)
	require.True(t, res.Success, res.Message)
	require.NoError(t, n.Syncer().Wait())
}

func TestParseLine(t *testing.T) {
	name, args, ok := ParseLine("  transfer  lumina_x   1.5 ")
	assert.True(t, ok)
	assert.Equal(t, "transfer", name)
	assert.Equal(t, []string{"lumina_x", "1.5"}, args)

	_, _, ok = ParseLine("   ")
	assert.False(t, ok)
}

func TestHandler_UnknownAndHelp(t *testing.T) {
	h, _, _ := newTestHandler(t)

	res := h.Execute("fly", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown command: fly. Type 'help' for a list of commands.", res.Message)

	res = h.Execute("help", nil)
	assert.True(t, res.Success)
	for _, name := range []string{"welcome", "help", "version", "wallet_info", "balance", "transfer",
		"history", "seed", "execute", "refresh", "stop", "status", "donate", "unlock", "lock"} {
		assert.True(t, h.IsRegistered(name), name)
		assert.Contains(t, res.Message, name)
	}
	assert.True(t, strings.Index(res.Message, "Basic commands") < strings.Index(res.Message, "Misc commands"))

	res = h.Execute("help", []string{"seed"})
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "seed: "))

	assert.False(t, h.Execute("help", []string{"fly"}).Success)
	assert.Contains(t, h.Execute("version", nil).Message, "LuminaChain Wallet v")
}

func TestHandler_PanicIsReported(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.Register("boom", "Misc", "panics", func([]string) Result { panic("kaboom") })

	res := h.Execute("boom", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Command execution failed: kaboom", res.Message)
}

func TestHandler_Uninitialized(t *testing.T) {
	h, _, _ := newTestHandler(t)

	assert.Contains(t, h.Execute("welcome", nil).Message, "No wallet found")
	for _, name := range []string{"wallet_info", "balance", "history", "seed", "lock", "refresh"} {
		res := h.Execute(name, nil)
		assert.False(t, res.Success, name)
		assert.Contains(t, res.Message, "not initialized", name)
	}
}

func TestHandler_CreateFundTransfer(t *testing.T) {
	h, p, n := newTestHandler(t)

	p.answers = []string{"pw", "other"}
	res := h.Execute("create", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "passwords do not match", res.Message)

	p.answers = []string{"pw", "pw"}
	res = h.Execute("create", nil)
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, n.Wallet().Address().String())
	assert.Contains(t, res.Message, "Devnet faucet sent 5.00000000 LMT")

	syncWallet(t, h, n)
	res = h.Execute("balance", nil)
	assert.True(t, res.Success)
	assert.Equal(t, "Balance:\n  5.00000000 LMT", res.Message)

	other := testAddress(t)
	res = h.Execute("transfer", []string{other, "abc"})
	assert.Equal(t, "Invalid amount: abc", res.Message)
	res = h.Execute("transfer", []string{other, "0"})
	assert.Equal(t, "Amount must be positive", res.Message)
	res = h.Execute("transfer", []string{other, "9"})
	assert.False(t, res.Success)
	assert.Equal(t, "Transfer failed: Insufficient funds.", res.Message)

	res = h.Execute("transfer", []string{other, "1.5"})
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "Transferred 1.50000000 LMT to "+other)
	assert.Equal(t, types.Amount(350000000), n.Wallet().Balance(types.LumaTokenSymbol))

	syncWallet(t, h, n)
	assert.Equal(t, 0, n.Wallet().PendingCount())

	res = h.Execute("history", nil)
	require.True(t, res.Success)
	lines := strings.Split(res.Message, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "-1.50000000 LMT")
	assert.Contains(t, lines[1], "Confirmed")
	assert.Contains(t, lines[2], "+5.00000000 LMT")

	res = h.Execute("history", []string{"1"})
	assert.Len(t, strings.Split(res.Message, "\n"), 2)

	res = h.Execute("status", nil)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Synchronized: Yes")
	assert.Contains(t, res.Message, "Pending transfers: 0")
}

func TestHandler_LockedTransferPrompts(t *testing.T) {
	h, p, n := newTestHandler(t)
	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)
	syncWallet(t, h, n)

	assert.True(t, h.Execute("lock", nil).Success)
	assert.False(t, n.Wallet().IsUnlocked())

	p.answers = []string{"wrong"}
	res := h.Execute("transfer", []string{testAddress(t), "1"})
	assert.Equal(t, "Incorrect password.", res.Message)

	p.answers = []string{"pw"}
	res = h.Execute("transfer", []string{testAddress(t), "1"})
	assert.True(t, res.Success, res.Message)
	assert.True(t, n.Wallet().IsUnlocked())

	h.Execute("lock", nil)
	p.answers = []string{"pw"}
	assert.True(t, h.Execute("unlock", []string{"2"}).Success)
	assert.True(t, n.Wallet().IsUnlocked())
	assert.False(t, h.Execute("unlock", []string{"soon"}).Success)
}

func TestHandler_SeedRequiresConfirm(t *testing.T) {
	h, p, _ := newTestHandler(t)

	p.answers = []string{"pw", "pw"}
	res := h.Execute("recover", strings.Fields(testMnemonic))
	require.True(t, res.Success, res.Message)

	res = h.Execute("seed", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "seed confirm")
	assert.Empty(t, p.answers)

	p.answers = []string{"bad"}
	assert.Equal(t, "Incorrect password.", h.Execute("seed", []string{"confirm"}).Message)

	p.answers = []string{"pw"}
	res = h.Execute("seed", []string{"confirm"})
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, testMnemonic)

	p.answers = []string{"pw", "pw"}
	res = h.Execute("recover", strings.Fields(testMnemonic))
	assert.Equal(t, "A wallet already exists in this data directory.", res.Message)
}

func TestHandler_RecoverInvalidPhrase(t *testing.T) {
	h, p, n := newTestHandler(t)
	p.answers = []string{"pw", "pw"}
	res := h.Execute("recover", []string{"abandon", "about"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid seed phrase")
	assert.False(t, n.Wallet().Initialized())
}

func TestHandler_Donate(t *testing.T) {
	h, p, n := newTestHandler(t)
	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)
	syncWallet(t, h, n)

	res := h.Execute("donate", nil)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "donate 1.00000000 confirm")
	assert.Equal(t, 0, n.Wallet().PendingCount())

	assert.Equal(t, "Donation amount must be positive", h.Execute("donate", []string{"-1"}).Message)

	res = h.Execute("donate", []string{"2", "confirm"})
	require.True(t, res.Success, res.Message)
	pending := n.Wallet().PendingTransfers()
	require.Len(t, pending, 1)
	assert.Equal(t, wallet.DonationAddress, pending[0].To.String())
	assert.Equal(t, types.Amount(200000000), pending[0].Amount)
}

func TestHandler_Execute(t *testing.T) {
	h, p, n := newTestHandler(t)
	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)

	contract := testAddress(t)
	dir := n.Config().ContractDir()
	require.NoError(t, os.MkdirAll(dir, 0700))
	code := "function add(a, b) { return Number(a) + Number(b); }\nfunction bad() { return missing; }"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, contract+".js"), []byte(code), 0600))

	res := h.Execute("execute", []string{contract, "add", "2", "3"})
	require.True(t, res.Success, res.Message)
	assert.True(t, strings.HasPrefix(res.Message, "Contract execution result: 5\n"))

	res = h.Execute("execute", []string{contract, "bad"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Contract execution failed: ReferenceError")

	assert.False(t, h.Execute("execute", []string{contract}).Success)
	assert.Len(t, n.Wallet().History(), 1)
}

func TestHandler_StopWithoutSync(t *testing.T) {
	h, _, _ := newTestHandler(t)
	res := h.Execute("stop", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Synchronization is not running.", res.Message)
}

func TestHandler_RefreshProgress(t *testing.T) {
	var progress syncBuffer
	h, p, n := newTestHandlerTo(t, &progress)

	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)
	syncWallet(t, h, n)
	assert.Contains(t, progress.String(), "100.0%")
}

func TestHandler_UnsyncedTransferWarns(t *testing.T) {
	var out syncBuffer
	h, p, n := newTestHandlerTo(t, &out)
	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)

	res := h.Execute("transfer", []string{testAddress(t), "1"})
	assert.Equal(t, "Transfer failed: Insufficient funds.", res.Message)
	assert.Contains(t, out.String(), "Warning: Wallet is not synchronized with the network.")

	syncWallet(t, h, n)
	before := strings.Count(out.String(), "Warning:")
	res = h.Execute("transfer", []string{testAddress(t), "1"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, before, strings.Count(out.String(), "Warning:"))
}

func TestHandler_PrintsWalletNotices(t *testing.T) {
	var out syncBuffer
	h, p, n := newTestHandlerTo(t, &out)
	p.answers = []string{"pw", "pw"}
	require.True(t, h.Execute("create", nil).Success)
	syncWallet(t, h, n)

	res := h.Execute("transfer", []string{testAddress(t), "1"})
	require.True(t, res.Success, res.Message)
	pending := n.Wallet().PendingTransfers()
	require.Len(t, pending, 1)
	id := pending[0].ID

	syncWallet(t, h, n)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Transaction "+id.String()+" confirmed.")
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, h.Execute("lock", nil).Success)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Wallet locked.")
	}, 5*time.Second, 10*time.Millisecond)
}

func testAddress(t *testing.T) string {
	seed, err := crypto.GetEntropy(nil, 64)
	require.NoError(t, err)
	addr, err := derivation.GetPrimaryAddress(seed)
	require.NoError(t, err)
	return addr.String()
}
