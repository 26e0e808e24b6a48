package roles

import (
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/sighash"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

// Modification flags.
const (
	FlagInputsModifiable  uint8 = 0x01 // Constructor may add inputs
	FlagOutputsModifiable uint8 = 0x02 // Constructor may add outputs
)

// Draft is a transaction under construction plus the per-input data the
// roles need to sign it. Inputs is parallel to Tx.TxIn.
type Draft struct {
	Tx         *tx.Tx
	Params     *chaincfg.Params
	Inputs     []InputMeta
	Modifiable uint8
}

// InputMeta describes the output an input spends and carries its signature
// until the SpendFinalizer moves it into the unlocking script.
type InputMeta struct {
	Amount      int64        // value of the spent output
	PkScript    []byte       // locking script of the spent output
	SigHashType sighash.Type // flags the input is signed with

	Signature []byte // DER signature || hash type byte
	PubKey    []byte // serialized public key matching Signature
}

// Signed reports whether the input carries a signature.
func (m *InputMeta) Signed() bool {
	return len(m.Signature) > 0
}

// Copy returns a deep copy of the draft.
func (d *Draft) Copy() *Draft {
	c := &Draft{
		Tx:         d.Tx.Copy(),
		Params:     d.Params,
		Inputs:     make([]InputMeta, len(d.Inputs)),
		Modifiable: d.Modifiable,
	}
	for i, in := range d.Inputs {
		c.Inputs[i] = InputMeta{
			Amount:      in.Amount,
			PkScript:    append([]byte(nil), in.PkScript...),
			SigHashType: in.SigHashType,
			Signature:   append([]byte(nil), in.Signature...),
			PubKey:      append([]byte(nil), in.PubKey...),
		}
	}
	return c
}

// skeletonHash is the txid of the draft with every unlocking script removed.
// Drafts of the same transaction share it regardless of signing progress.
func (d *Draft) skeletonHash() [32]byte {
	bare := d.Tx.Copy()
	for _, in := range bare.TxIn {
		in.SignatureScript = nil
	}
	return bare.TxHash()
}
