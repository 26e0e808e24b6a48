package roles

import "errors"

// IoFinalizer freezes the input and output set, preparing for signing.
//
// After this role executes the draft structure is locked: signature hashes
// commit to every input and output, so nothing may be added afterwards.
type IoFinalizer struct {
	draft *Draft
}

// NewIoFinalizer creates a new IO Finalizer.
func NewIoFinalizer(d *Draft) *IoFinalizer {
	return &IoFinalizer{draft: d}
}

// Finalize clears all modification flags. A draft without inputs cannot be
// finalized.
func (f *IoFinalizer) Finalize() error {
	if len(f.draft.Tx.TxIn) == 0 {
		return errors.New("transaction has no inputs")
	}
	if len(f.draft.Inputs) != len(f.draft.Tx.TxIn) {
		return errors.New("input metadata does not match transaction inputs")
	}

	f.draft.Modifiable = 0
	log.Debugf("Finalized %d inputs and %d outputs", len(f.draft.Tx.TxIn), len(f.draft.Tx.TxOut))
	return nil
}

// Finish returns the finalized draft.
func (f *IoFinalizer) Finish() *Draft {
	return f.draft
}
