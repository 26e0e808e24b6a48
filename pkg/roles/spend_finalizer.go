package roles

import (
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/script"
)

// SpendFinalizer builds the unlocking script of every input from the
// signature the Signer stored.
//
// P2PKH unlocking script format: <signature> <pubkey>
type SpendFinalizer struct {
	draft *Draft
}

// NewSpendFinalizer creates a new Spend Finalizer.
func NewSpendFinalizer(d *Draft) *SpendFinalizer {
	return &SpendFinalizer{draft: d}
}

// Finalize finalizes all inputs. Returns an error if any input is unsigned.
func (f *SpendFinalizer) Finalize() error {
	for i := range f.draft.Inputs {
		meta := &f.draft.Inputs[i]
		if !meta.Signed() {
			return fmt.Errorf("input %d has no signature", i)
		}

		sigScript, err := script.SignatureScript(meta.Signature, meta.PubKey)
		if err != nil {
			return fmt.Errorf("failed to finalize input %d: %w", i, err)
		}
		f.draft.Tx.TxIn[i].SignatureScript = sigScript
	}
	return nil
}

// Finish returns the finalized draft.
func (f *SpendFinalizer) Finish() *Draft {
	return f.draft
}
