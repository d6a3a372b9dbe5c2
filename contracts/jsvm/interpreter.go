// Package jsvm runs contract code written in JavaScript with otto.
package jsvm

import (
	"context"
	"strconv"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"

	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/contracts"
)

var errHalt = errors.New("execution interrupted")

type Interpreter struct {
	now func() time.Time
	log log15.Logger
}

func New() *Interpreter {
	return &Interpreter{
		now: time.Now,
		log: log15.New("module", "contracts/jsvm"),
	}
}

// Run evaluates code, then calls params.Function with the string args. The globals
// caller and contract hold the respective addresses. Execution stops when ctx is done.
func (i *Interpreter) Run(ctx context.Context, code string, params *contracts.Params) (res *contracts.RunResult, err error) {
	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt <- func() {
				panic(errHalt)
			}
		case <-done:
		}
	}()

	defer func() {
		if caught := recover(); caught != nil {
			if caught == errHalt {
				i.log.Warn("contract interrupted", "function", params.Function, "err", ctx.Err())
				res, err = nil, errors.Errorf("%s: %v", errHalt, ctx.Err())
				return
			}
			panic(caught)
		}
	}()

	if err := vm.Set("caller", params.Caller.String()); err != nil {
		return nil, err
	}
	if err := vm.Set("contract", params.Contract.String()); err != nil {
		return nil, err
	}
	if _, err := vm.Run(code); err != nil {
		return nil, err
	}

	fn, err := vm.Get(params.Function)
	if err != nil {
		return nil, err
	}
	if !fn.IsFunction() {
		return nil, errors.Errorf("ReferenceError: '%s' is not a function", params.Function)
	}

	args := make([]interface{}, len(params.Args))
	for k, a := range params.Args {
		args[k] = a
	}
	value, err := fn.Call(otto.UndefinedValue(), args...)
	if err != nil {
		return nil, err
	}

	output := ""
	if value.IsDefined() && !value.IsNull() {
		output = value.String()
	}

	return &contracts.RunResult{
		TxID:   i.txID(params),
		Output: output,
	}, nil
}

func (i *Interpreter) txID(params *contracts.Params) string {
	data := [][]byte{
		params.Caller.Bytes(),
		params.Contract.Bytes(),
		[]byte(params.Function),
	}
	for _, a := range params.Args {
		data = append(data, []byte(a))
	}
	data = append(data, []byte(strconv.FormatInt(i.now().UnixNano(), 10)))
	return types.DataListHash(data...).Hex()
}
