package contracts

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
)

const (
	// GasPerByte prices contract code in LMT minor units.
	GasPerByte types.Amount = 100

	DefaultTimeout = 2 * time.Second
)

var functionRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

//go:generate mockgen -destination=mock_interpreter.go -package=contracts github.com/luminachain/go-lumina/contracts Interpreter

// Interpreter executes contract code.
type Interpreter interface {
	Run(ctx context.Context, code string, params *Params) (*RunResult, error)
}

type Params struct {
	Caller   types.Address
	Contract types.Address
	Function string
	Args     []string
}

type RunResult struct {
	TxID   string
	Output string
}

// CodeLoader resolves the code deployed at a contract address.
type CodeLoader interface {
	Load(contract types.Address) (string, error)
}

// Recorder is the wallet side of a contract call.
type Recorder interface {
	Address() types.Address
	RecordContractCall(contract types.Address, function string, ref string) (types.Hash, error)
}

type ExecuteResult struct {
	TxID        string       `json:"txId"`
	Output      string       `json:"output"`
	RecordID    types.Hash   `json:"recordId"`
	GasEstimate types.Amount `json:"gasEstimate"`
}

// FileLoader reads <Dir>/<address>.js.
type FileLoader struct {
	Dir string
}

func (l FileLoader) Load(contract types.Address) (string, error) {
	code, err := ioutil.ReadFile(filepath.Join(l.Dir, contract.String()+".js"))
	if os.IsNotExist(err) {
		return "", errors.Wrapf(walleterrors.ErrInvalidInput, "no code deployed at %s", contract)
	}
	if err != nil {
		return "", errors.Wrap(walleterrors.ErrStorage, err.Error())
	}
	return string(code), nil
}

type Gateway struct {
	interp   Interpreter
	loader   CodeLoader
	recorder Recorder
	timeout  time.Duration
	log      log15.Logger
}

func NewGateway(interp Interpreter, loader CodeLoader, recorder Recorder, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		interp:   interp,
		loader:   loader,
		recorder: recorder,
		timeout:  timeout,
		log:      log15.New("module", "contracts/gateway"),
	}
}

// Execute runs function of the contract at contractAddress and records the call in the
// wallet. Interpreter failures surface as ErrContractExecutionFailed carrying the
// interpreter's message unchanged.
func (g *Gateway) Execute(ctx context.Context, contractAddress string, function string, args []string) (*ExecuteResult, error) {
	contract, err := types.HexToAddress(contractAddress)
	if err != nil {
		return nil, errors.Wrap(walleterrors.ErrInvalidAddress, err.Error())
	}
	if !functionRegex.MatchString(function) {
		return nil, errors.Wrapf(walleterrors.ErrInvalidInput, "invalid function name %q", function)
	}
	caller := g.recorder.Address()
	if caller.IsZero() {
		return nil, walleterrors.ErrWalletNotInitialized
	}

	code, err := g.loader.Load(contract)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	res, err := g.interp.Run(runCtx, code, &Params{
		Caller:   caller,
		Contract: contract,
		Function: function,
		Args:     args,
	})
	if err != nil {
		g.log.Warn("contract execution failed", "contract", contract, "function", function, "err", err)
		return nil, walleterrors.Derive(walleterrors.ErrContractExecutionFailed, err.Error())
	}

	id, err := g.recorder.RecordContractCall(contract, function, res.TxID)
	if err != nil {
		return nil, err
	}
	return &ExecuteResult{
		TxID:        res.TxID,
		Output:      res.Output,
		RecordID:    id,
		GasEstimate: EstimateGas(code),
	}, nil
}

// EstimateGas is advisory only.
func EstimateGas(code string) types.Amount {
	return types.Amount(len(code)) * GasPerByte
}
