package tx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// minTxInSize is outpoint + empty script length + sequence.
	minTxInSize = 32 + 4 + 1 + 4

	// minTxOutSize is value + empty script length.
	minTxOutSize = 8 + 1
)

var (
	// ErrNonCanonicalVarInt is returned for a compact-size integer that was
	// not encoded in its shortest form.
	ErrNonCanonicalVarInt = errors.New("non-canonical compact size")

	// ErrTrailingBytes is returned when data remains after the lock time.
	ErrTrailingBytes = errors.New("trailing bytes after transaction")
)

// ParseHex decodes a hex encoded transaction.
func ParseHex(s string) (*Tx, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction hex: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a serialized transaction. The whole buffer must be consumed.
func Parse(data []byte) (*Tx, error) {
	r := bytes.NewReader(data)
	t := &Tx{}

	if err := binary.Read(r, binary.LittleEndian, &t.Version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}

	numInputs, err := readCount(r, minTxInSize)
	if err != nil {
		return nil, fmt.Errorf("reading input count: %w", err)
	}
	t.TxIn = make([]*TxIn, numInputs)
	for i := range t.TxIn {
		in := &TxIn{}
		if err := readTxIn(r, in); err != nil {
			return nil, fmt.Errorf("parsing input %d: %w", i, err)
		}
		t.TxIn[i] = in
	}

	numOutputs, err := readCount(r, minTxOutSize)
	if err != nil {
		return nil, fmt.Errorf("reading output count: %w", err)
	}
	t.TxOut = make([]*TxOut, numOutputs)
	for i := range t.TxOut {
		out := &TxOut{}
		if err := readTxOut(r, out); err != nil {
			return nil, fmt.Errorf("parsing output %d: %w", i, err)
		}
		t.TxOut[i] = out
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock_time: %w", err)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d bytes: %w", r.Len(), ErrTrailingBytes)
	}

	return t, nil
}

// readCount reads an element count and rejects counts the remaining buffer
// cannot possibly hold.
func readCount(r *bytes.Reader, minElemSize int) (int, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len()/minElemSize) {
		return 0, fmt.Errorf("count %d exceeds remaining %d bytes", n, r.Len())
	}
	return int(n), nil
}

func readTxIn(r *bytes.Reader, in *TxIn) error {
	if _, err := io.ReadFull(r, in.PreviousOutPoint.Hash[:]); err != nil {
		return fmt.Errorf("reading prevout txid: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &in.PreviousOutPoint.Index); err != nil {
		return fmt.Errorf("reading prevout index: %w", err)
	}

	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading signature script: %w", err)
	}
	in.SignatureScript = script

	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}
	return nil
}

func readTxOut(r *bytes.Reader, out *TxOut) error {
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return fmt.Errorf("reading value: %w", err)
	}

	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading pk script: %w", err)
	}
	out.PkScript = script
	return nil
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes: %w", n, r.Len(), io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadCompactSize reads a Bitcoin-style variable-length integer and rejects
// encodings that are longer than necessary.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, err
	}

	var (
		v     uint64
		floor uint64
	)
	switch first[0] {
	case 0xfd:
		var x uint16
		if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
			return 0, err
		}
		v, floor = uint64(x), 0xfd
	case 0xfe:
		var x uint32
		if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
			return 0, err
		}
		v, floor = uint64(x), 0x10000
	case 0xff:
		var x uint64
		if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
			return 0, err
		}
		v, floor = x, 0x100000000
	default:
		return uint64(first[0]), nil
	}

	if v < floor {
		return 0, fmt.Errorf("value %d with prefix 0x%02x: %w", v, first[0], ErrNonCanonicalVarInt)
	}
	return v, nil
}
