// Package tx defines the transaction data model and its canonical wire
// encoding.
//
// Wire format (all integers little-endian, counts and lengths as compact-size
// varints):
//
//	version (int32) ||
//	n_in || (prev_hash (32) || prev_index (u32) || len || script || sequence (u32))* ||
//	n_out || (value (i64) || len || script)* ||
//	lock_time (u32)
package tx

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// TxVersion is the version of transactions produced by the builder.
	TxVersion = 2

	// MaxTxInSequenceNum is the sequence number of a final input.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// txidHexLen is the length of a hex encoded transaction id.
	txidHexLen = chainhash.HashSize * 2
)

// OutPoint identifies a previous transaction output. It is comparable and used
// as a map key for signer lookup.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns an outpoint for the provided hash and index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// String returns the outpoint as txid:index with the txid in display order.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// ParseTxID decodes a 64 character hex transaction id given in display order
// (byte-reversed relative to the wire).
func ParseTxID(txid string) (chainhash.Hash, error) {
	if len(txid) != txidHexLen {
		return chainhash.Hash{}, fmt.Errorf("txid must be %d hex characters, got %d", txidHexLen, len(txid))
	}
	if _, err := hex.DecodeString(txid); err != nil {
		return chainhash.Hash{}, fmt.Errorf("txid is not hex: %w", err)
	}
	h, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *h, nil
}

// TxIn is a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// NewTxIn returns an input spending prevOut with a final sequence number.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// TxOut is a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns an output paying value to pkScript.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// Tx is a transaction.
type Tx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewTx returns an empty transaction with the given version.
func NewTx(version int32) *Tx {
	return &Tx{Version: version}
}

// AddTxIn appends an input.
func (t *Tx) AddTxIn(in *TxIn) {
	t.TxIn = append(t.TxIn, in)
}

// AddTxOut appends an output.
func (t *Tx) AddTxOut(out *TxOut) {
	t.TxOut = append(t.TxOut, out)
}

// Copy returns a deep copy of the transaction.
func (t *Tx) Copy() *Tx {
	c := &Tx{
		Version:  t.Version,
		TxIn:     make([]*TxIn, 0, len(t.TxIn)),
		TxOut:    make([]*TxOut, 0, len(t.TxOut)),
		LockTime: t.LockTime,
	}
	for _, in := range t.TxIn {
		var script []byte
		if in.SignatureScript != nil {
			script = append([]byte{}, in.SignatureScript...)
		}
		c.TxIn = append(c.TxIn, &TxIn{
			PreviousOutPoint: in.PreviousOutPoint,
			SignatureScript:  script,
			Sequence:         in.Sequence,
		})
	}
	for _, out := range t.TxOut {
		c.TxOut = append(c.TxOut, &TxOut{
			Value:    out.Value,
			PkScript: append([]byte{}, out.PkScript...),
		})
	}
	return c
}

// TxHash returns the double SHA-256 of the serialized transaction. Its
// String form is the txid in display order.
func (t *Tx) TxHash() chainhash.Hash {
	return chainhash.DoubleHashH(t.Bytes())
}
