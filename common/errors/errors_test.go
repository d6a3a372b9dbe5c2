package errors

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := pkgerrors.Wrap(ErrInsufficientFunds, "transfer 5 LMT")

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assert.Equal(t, "transfer 5 LMT: insufficient funds", err.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestDerive(t *testing.T) {
	err := Derive(ErrContractExecutionFailed, "ReferenceError: 'foo' is not defined")

	assert.Equal(t, "ReferenceError: 'foo' is not defined", err.Error())
	assert.True(t, errors.Is(err, ErrContractExecutionFailed))
	assert.False(t, errors.Is(err, ErrFetch))
	assert.Equal(t, KindContract, KindOf(pkgerrors.WithStack(err)))
}

func TestKind_Retryable(t *testing.T) {
	assert.True(t, KindOf(ErrFetch).Retryable())
	assert.True(t, KindOf(ErrStorage).Retryable())
	assert.False(t, KindOf(ErrInvalidAmount).Retryable())
	assert.False(t, KindOf(ErrCorruptState).Retryable())
	assert.Equal(t, "CorruptStateError", KindCorruptState.String())
}
