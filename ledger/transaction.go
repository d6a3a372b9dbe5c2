package ledger

import (
	"encoding/binary"
	"encoding/json"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/crypto"
)

var txLog = log15.New("module", "ledger/transaction")

type TxStatus byte

const (
	TxPending TxStatus = iota + 1
	TxConfirmed
	TxFailed
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "Pending"
	case TxConfirmed:
		return "Confirmed"
	case TxFailed:
		return "Failed"
	}
	return "Unknown"
}

// Final reports whether s is terminal.
func (s TxStatus) Final() bool {
	return s == TxConfirmed || s == TxFailed
}

func (s TxStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TxStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Pending":
		*s = TxPending
	case "Confirmed":
		*s = TxConfirmed
	case "Failed":
		*s = TxFailed
	default:
		return errors.Errorf("unknown tx status %q", b)
	}
	return nil
}

type TxKind byte

const (
	KindTransfer TxKind = iota + 1 // outgoing, signed locally
	KindIncoming
	KindContract
)

func (k TxKind) String() string {
	switch k {
	case KindTransfer:
		return "Transfer"
	case KindIncoming:
		return "Incoming"
	case KindContract:
		return "Contract"
	}
	return "Unknown"
}

func (k TxKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TxKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Transfer":
		*k = KindTransfer
	case "Incoming":
		*k = KindIncoming
	case "Contract":
		*k = KindContract
	default:
		return errors.Errorf("unknown tx kind %q", b)
	}
	return nil
}

// Transaction is one entry of the wallet history.
type Transaction struct {
	ID        types.Hash    `json:"id"`
	Kind      TxKind        `json:"kind"`
	From      types.Address `json:"from"`
	To        types.Address `json:"to"`
	Amount    types.Amount  `json:"amount"`
	Token     string        `json:"token"`
	Timestamp int64         `json:"timestamp"`
	Nonce     uint64        `json:"nonce"`
	Ref       string        `json:"ref,omitempty"`
	Status    TxStatus      `json:"status"`

	PublicKey []byte `json:"publicKey,omitempty"`
	Signature []byte `json:"signature,omitempty"`

	BlockHeight uint64 `json:"blockHeight,omitempty"`
}

func (tx *Transaction) Copy() *Transaction {
	c := *tx
	if tx.PublicKey != nil {
		c.PublicKey = append([]byte(nil), tx.PublicKey...)
	}
	if tx.Signature != nil {
		c.Signature = append([]byte(nil), tx.Signature...)
	}
	return &c
}

func putUint64(source []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(source, buf[:]...)
}

func putString(source []byte, s string) []byte {
	source = putUint64(source, uint64(len(s)))
	return append(source, s...)
}

func (tx *Transaction) idSource() []byte {
	source := make([]byte, 0, 128+len(tx.Token)+len(tx.Ref))
	// From
	source = append(source, byte(1))
	source = append(source, tx.From.Bytes()...)
	// To
	source = append(source, byte(2))
	source = append(source, tx.To.Bytes()...)
	// Amount
	source = append(source, byte(3))
	source = putUint64(source, uint64(tx.Amount))
	// Token
	source = append(source, byte(4))
	source = putString(source, tx.Token)
	// Timestamp
	source = append(source, byte(5))
	source = putUint64(source, uint64(tx.Timestamp))
	// Nonce
	source = append(source, byte(6))
	source = putUint64(source, tx.Nonce)
	// Ref
	source = append(source, byte(7))
	source = putString(source, tx.Ref)
	return source
}

// ComputeID derives the record id from its content, so rebuilding the same record yields the same id.
func (tx *Transaction) ComputeID() types.Hash {
	hash, _ := types.BytesToHash(crypto.Hash256(tx.idSource()))
	return hash
}

// SigningBytes is the canonical encoding of {id, from, to, amount, token, timestamp}.
func (tx *Transaction) SigningBytes() []byte {
	source := make([]byte, 0, 128+len(tx.Token))
	source = append(source, byte(1))
	source = append(source, tx.ID.Bytes()...)
	source = append(source, byte(2))
	source = append(source, tx.From.Bytes()...)
	source = append(source, byte(3))
	source = append(source, tx.To.Bytes()...)
	source = append(source, byte(4))
	source = putUint64(source, uint64(tx.Amount))
	source = append(source, byte(5))
	source = putString(source, tx.Token)
	source = append(source, byte(6))
	source = putUint64(source, uint64(tx.Timestamp))
	return source
}

// Signer signs with the key behind a wallet address.
type Signer func(data []byte) (pubkey ed25519.PublicKey, signature []byte, err error)

// Sign fills ID, PublicKey and Signature. Any signer failure becomes ErrSigningFailed.
func (tx *Transaction) Sign(signer Signer) error {
	tx.ID = tx.ComputeID()
	pub, sig, err := signer(tx.SigningBytes())
	if err != nil {
		return errors.Wrap(walleterrors.ErrSigningFailed, err.Error())
	}
	if types.PubkeyToAddress(pub) != tx.From {
		return errors.Wrap(walleterrors.ErrSigningFailed, "signer key does not match sender")
	}
	tx.PublicKey = pub
	tx.Signature = sig
	return nil
}

// VerifySignature recomputes id and signing bytes and checks the signature against
// the public key, which must also hash to From.
func (tx *Transaction) VerifySignature() bool {
	if len(tx.PublicKey) != ed25519.PublicKeySize || len(tx.Signature) != ed25519.SignatureSize {
		return false
	}
	if tx.ComputeID() != tx.ID {
		txLog.Debug("id mismatch", "id", tx.ID)
		return false
	}
	if types.PubkeyToAddress(tx.PublicKey) != tx.From {
		return false
	}
	return ed25519.Verify(tx.PublicKey, tx.SigningBytes(), tx.Signature)
}

func (tx *Transaction) Serialize() ([]byte, error) {
	return json.Marshal(tx)
}

func (tx *Transaction) Deserialize(buf []byte) error {
	return json.Unmarshal(buf, tx)
}
