package errors

import (
	"errors"
)

// Kind classifies wallet errors by how a caller is expected to react.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInsufficientFunds
	KindAuthentication
	KindSigning
	KindEntropy
	KindStorage
	KindNetwork
	KindCorruptState
	KindSync
	KindContract
	KindState
)

var kindNames = [...]string{
	KindUnknown:           "Unknown",
	KindInvalidInput:      "InvalidInput",
	KindInsufficientFunds: "InsufficientFunds",
	KindAuthentication:    "AuthenticationFailed",
	KindSigning:           "SigningFailed",
	KindEntropy:           "InsufficientEntropy",
	KindStorage:           "StorageError",
	KindNetwork:           "NetworkError",
	KindCorruptState:      "CorruptStateError",
	KindSync:              "SyncError",
	KindContract:          "ContractExecutionFailed",
	KindState:             "StateError",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Retryable reports whether an operation failing with this kind may succeed when retried.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindStorage
}

// Error is a classified wallet error. Derived errors keep the identity of their base,
// so errors.Is(derived, base) holds while the message can be replaced.
type Error struct {
	kind Kind
	msg  string
	base *Error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Derive returns an error of the same kind as base carrying msg verbatim.
func Derive(base *Error, msg string) *Error {
	return &Error{kind: base.kind, msg: msg, base: base}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Is(target error) bool {
	for b := e.base; b != nil; b = b.base {
		if b == target {
			return true
		}
	}
	return false
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Common errors.
var (
	NotFound = errors.New("error: Not Found")
	NotMatch = errors.New("error: Not Match")
)

// Input errors, reported immediately and never retried.
var (
	ErrInvalidInput      = New(KindInvalidInput, "invalid input")
	ErrInvalidAmount     = New(KindInvalidInput, "invalid amount")
	ErrInvalidAddress    = New(KindInvalidInput, "invalid address")
	ErrInvalidSeedPhrase = New(KindInvalidInput, "invalid seed phrase")
	ErrInvalidToken      = New(KindInvalidInput, "invalid token symbol")
	ErrAmountOverflow    = New(KindInvalidInput, "amount overflow")
)

var (
	ErrInsufficientFunds    = New(KindInsufficientFunds, "insufficient funds")
	ErrAuthenticationFailed = New(KindAuthentication, "authentication failed")
	ErrSigningFailed        = New(KindSigning, "signing failed")
	ErrLocked               = New(KindSigning, "wallet is locked")
	ErrInsufficientEntropy  = New(KindEntropy, "insufficient entropy")
	ErrStorage              = New(KindStorage, "storage error")
	ErrCorruptState         = New(KindCorruptState, "corrupt wallet state")
)

// Network errors, retried by the syncer with backoff.
var (
	ErrConnection = New(KindNetwork, "connection error")
	ErrFetch      = New(KindNetwork, "fetch error")
	ErrSubmit     = New(KindNetwork, "submit error")
)

var (
	ErrAlreadySyncing = New(KindSync, "synchronization is already in progress")
	ErrNotSyncing     = New(KindSync, "synchronization is not in progress")

	ErrContractExecutionFailed = New(KindContract, "contract execution failed")

	ErrWalletExists         = New(KindState, "wallet is already initialized")
	ErrWalletNotInitialized = New(KindState, "wallet is not initialized")
)
