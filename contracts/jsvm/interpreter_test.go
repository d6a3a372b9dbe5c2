package jsvm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/contracts"
	"github.com/luminachain/go-lumina/wallet/hd-bip/derivation"
)

func testParams(t *testing.T, function string, args ...string) *contracts.Params {
	seed := make([]byte, 64)
	caller, err := derivation.GetPrimaryAddress(seed)
	require.NoError(t, err)
	seed[0] = 1
	contract, err := derivation.GetPrimaryAddress(seed)
	require.NoError(t, err)
	return &contracts.Params{
		Caller:   *caller,
		Contract: *contract,
		Function: function,
		Args:     args,
	}
}

const counterCode = `
var greeting = "hello";
function greet(name) { return greeting + " " + name; }
function whoami() { return caller; }
function nothing() {}
function spin() { while (true) {} }
`

func TestRun_CallsFunction(t *testing.T) {
	interp := New()
	res, err := interp.Run(context.Background(), counterCode, testParams(t, "greet", "lumina"))
	require.NoError(t, err)
	assert.Equal(t, "hello lumina", res.Output)
	assert.Len(t, res.TxID, 2*types.HashSize)
}

func TestRun_Globals(t *testing.T) {
	params := testParams(t, "whoami")
	res, err := New().Run(context.Background(), counterCode, params)
	require.NoError(t, err)
	assert.Equal(t, params.Caller.String(), res.Output)
}

func TestRun_UndefinedResult(t *testing.T) {
	res, err := New().Run(context.Background(), counterCode, testParams(t, "nothing"))
	require.NoError(t, err)
	assert.Equal(t, "", res.Output)
}

func TestRun_UnknownFunction(t *testing.T) {
	_, err := New().Run(context.Background(), counterCode, testParams(t, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestRun_ScriptError(t *testing.T) {
	_, err := New().Run(context.Background(), "function f() { return foo; }", testParams(t, "f"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceError")
}

func TestRun_SyntaxError(t *testing.T) {
	_, err := New().Run(context.Background(), "function (", testParams(t, "f"))
	require.Error(t, err)
}

func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New().Run(ctx, counterCode, testParams(t, "spin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestRun_DistinctTxIDs(t *testing.T) {
	interp := New()
	tick := time.Unix(1600000000, 0)
	interp.now = func() time.Time {
		tick = tick.Add(time.Nanosecond)
		return tick
	}
	a, err := interp.Run(context.Background(), counterCode, testParams(t, "greet", "a"))
	require.NoError(t, err)
	b, err := interp.Run(context.Background(), counterCode, testParams(t, "greet", "a"))
	require.NoError(t, err)
	assert.NotEqual(t, a.TxID, b.TxID)
}
