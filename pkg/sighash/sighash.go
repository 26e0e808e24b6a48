// Package sighash computes the digest a transaction input signature commits
// to, using the fork-id signature hash algorithm.
//
// The preimage for input i is
//
//	version (i32) ||
//	hashPrevOuts (32) || hashSequence (32) ||
//	outpoint_i (36) || len(script) || script || amount (i64) || sequence_i (u32) ||
//	hashOutputs (32) || lock_time (u32) ||
//	hash_type | fork_id<<8 (u32)
//
// and the digest is its double SHA-256. The three transaction-wide sub-hashes
// come from a Cache so a transaction with N inputs hashes its inputs and
// outputs once rather than N times.
package sighash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btgtx/pkg/tx"
)

// Type is a signature hash flag set.
type Type uint32

// Signature hash flags.
const (
	All          Type = 0x01
	None         Type = 0x02
	Single       Type = 0x03
	ForkID       Type = 0x40
	AnyOneCanPay Type = 0x80

	// baseMask selects All, None or Single.
	baseMask Type = 0x1f
)

// AllForkID is the flag set used to sign every input the builder produces.
const AllForkID = All | ForkID

var (
	// ErrUnsupportedHashType is returned for flag sets other than All|ForkID
	// and None|ForkID.
	ErrUnsupportedHashType = errors.New("unsupported signature hash type")

	// ErrInputIndex is returned when the input index is out of range.
	ErrInputIndex = errors.New("input index out of range")

	// ErrCacheMismatch is returned when a Cache built for another
	// transaction is supplied.
	ErrCacheMismatch = errors.New("sighash cache belongs to a different transaction")
)

// String returns the flag names joined with |.
func (t Type) String() string {
	var base string
	switch t & baseMask {
	case All:
		base = "ALL"
	case None:
		base = "NONE"
	case Single:
		base = "SINGLE"
	default:
		base = fmt.Sprintf("0x%02x", uint32(t&baseMask))
	}
	if t&ForkID != 0 {
		base += "|FORKID"
	}
	if t&AnyOneCanPay != 0 {
		base += "|ANYONECANPAY"
	}
	return base
}

// Validate reports whether the flag set is one this package signs with.
func (t Type) Validate() error {
	if t > 0xff || t&^(baseMask|ForkID|AnyOneCanPay) != 0 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedHashType, uint32(t))
	}
	if t&ForkID == 0 {
		return fmt.Errorf("%w: %s lacks FORKID", ErrUnsupportedHashType, t)
	}
	if t&AnyOneCanPay != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedHashType, t)
	}
	switch t & baseMask {
	case All, None:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedHashType, t)
	}
}

// CalcSignatureHash returns the digest input idx of t signs under hashType.
// script is the locking script of the output being spent and amount its
// value. When cache is nil a fresh one is used for this call only.
func CalcSignatureHash(t *tx.Tx, idx int, script []byte, amount int64,
	hashType Type, forkID uint32, cache *Cache) (chainhash.Hash, error) {

	preimage, err := Preimage(t, idx, script, amount, hashType, forkID, cache)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(preimage), nil
}

// Preimage returns the bytes CalcSignatureHash digests.
func Preimage(t *tx.Tx, idx int, script []byte, amount int64,
	hashType Type, forkID uint32, cache *Cache) ([]byte, error) {

	if err := hashType.Validate(); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(t.TxIn) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInputIndex, idx, len(t.TxIn))
	}
	if cache == nil {
		cache = NewCache(t)
	} else if cache.tx != t {
		return nil, ErrCacheMismatch
	}

	var b bytes.Buffer
	b.Grow(4 + 32 + 32 + 36 + tx.CompactSizeLen(uint64(len(script))) + len(script) + 8 + 4 + 32 + 4 + 4)
	if err := writePreimage(&b, t, idx, script, amount, hashType, forkID, cache); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// writePreimage writes the preimage of a validated flag set. NONE commits to
// neither the sequence numbers nor the outputs.
func writePreimage(w io.Writer, t *tx.Tx, idx int, script []byte, amount int64,
	hashType Type, forkID uint32, cache *Cache) error {

	var hashSequence, hashOutputs chainhash.Hash
	if hashType&baseMask == All {
		hashSequence = cache.HashSequence()
		hashOutputs = cache.HashOutputs()
	}
	hashPrevOuts := cache.HashPrevOuts()
	in := t.TxIn[idx]

	if err := binary.Write(w, binary.LittleEndian, t.Version); err != nil {
		return err
	}
	if _, err := w.Write(hashPrevOuts[:]); err != nil {
		return err
	}
	if _, err := w.Write(hashSequence[:]); err != nil {
		return err
	}

	if err := tx.WriteOutPoint(w, &in.PreviousOutPoint); err != nil {
		return err
	}
	if err := tx.WriteVarBytes(w, script); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, amount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, in.Sequence); err != nil {
		return err
	}

	if _, err := w.Write(hashOutputs[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, t.LockTime); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint32(hashType)|forkID<<8)
}
