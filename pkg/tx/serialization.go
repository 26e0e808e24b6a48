package tx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
)

// Serialize writes the canonical wire encoding of the transaction to w.
func (t *Tx) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, t.Version); err != nil {
		return err
	}

	if err := WriteCompactSize(w, uint64(len(t.TxIn))); err != nil {
		return err
	}
	for _, in := range t.TxIn {
		if err := writeTxIn(w, in); err != nil {
			return err
		}
	}

	if err := WriteCompactSize(w, uint64(len(t.TxOut))); err != nil {
		return err
	}
	for _, out := range t.TxOut {
		if err := WriteTxOut(w, out); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.LittleEndian, t.LockTime)
}

// Bytes returns the serialized transaction.
func (t *Tx) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, t.SerializeSize()))
	// bytes.Buffer writes do not fail.
	_ = t.Serialize(buf)
	return buf.Bytes()
}

// Hex returns the serialized transaction as lowercase hex.
func (t *Tx) Hex() string {
	return hex.EncodeToString(t.Bytes())
}

// SerializeSize returns the number of bytes Serialize writes.
func (t *Tx) SerializeSize() int {
	n := 4 + CompactSizeLen(uint64(len(t.TxIn))) + CompactSizeLen(uint64(len(t.TxOut))) + 4
	for _, in := range t.TxIn {
		n += 32 + 4 + CompactSizeLen(uint64(len(in.SignatureScript))) + len(in.SignatureScript) + 4
	}
	for _, out := range t.TxOut {
		n += 8 + CompactSizeLen(uint64(len(out.PkScript))) + len(out.PkScript)
	}
	return n
}

// WriteOutPoint writes the 36-byte outpoint encoding.
func WriteOutPoint(w io.Writer, op *OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, op.Index)
}

func writeTxIn(w io.Writer, in *TxIn) error {
	if err := WriteOutPoint(w, &in.PreviousOutPoint); err != nil {
		return err
	}
	if err := WriteVarBytes(w, in.SignatureScript); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, in.Sequence)
}

// WriteTxOut writes value || len || script.
func WriteTxOut(w io.Writer, out *TxOut) error {
	if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, out.PkScript)
}

// WriteVarBytes writes a compact-size length prefix followed by b.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteCompactSize(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// WriteCompactSize writes a Bitcoin-style variable-length integer.
func WriteCompactSize(w io.Writer, n uint64) error {
	switch {
	case n < 0xfd:
		_, err := w.Write([]byte{byte(n)})
		return err
	case n <= 0xffff:
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint32(n))
	default:
		if _, err := w.Write([]byte{0xff}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, n)
	}
}

// CompactSizeLen returns the encoded length of n as a compact-size varint.
func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
