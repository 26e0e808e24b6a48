package roles

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/script"
	"github.com/suffix-labs/btgtx/pkg/sighash"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

var (
	// ErrInputsFrozen is returned when adding an input after IO finalization.
	ErrInputsFrozen = errors.New("inputs not modifiable")

	// ErrOutputsFrozen is returned when adding an output after IO finalization.
	ErrOutputsFrozen = errors.New("outputs not modifiable")
)

// Constructor adds inputs and outputs to a draft.
type Constructor struct {
	draft *Draft
}

// NewConstructor creates a new Constructor from an existing draft.
//
// The draft should have been created by the Creator role.
func NewConstructor(d *Draft) *Constructor {
	return &Constructor{draft: d}
}

// AddInput adds an output to spend.
//
// Parameters:
//   - prevOut: Outpoint of the spent output
//   - amount: Value of the spent output
//   - pkScript: Locking script of the spent output
//   - sequence: Sequence number (nil uses 0xffffffff)
//
// The input is added with an empty unlocking script and is signed with
// ALL|FORKID by the Signer role later.
func (c *Constructor) AddInput(prevOut tx.OutPoint, amount int64, pkScript []byte, sequence *uint32) error {
	if c.draft.Modifiable&FlagInputsModifiable == 0 {
		return ErrInputsFrozen
	}
	if amount < 0 {
		return fmt.Errorf("input amount must not be negative, got %d", amount)
	}
	if len(pkScript) == 0 {
		return errors.New("input locking script is empty")
	}

	in := tx.NewTxIn(&prevOut, nil)
	if sequence != nil {
		in.Sequence = *sequence
	}
	c.draft.Tx.AddTxIn(in)
	c.draft.Inputs = append(c.draft.Inputs, InputMeta{
		Amount:      amount,
		PkScript:    pkScript,
		SigHashType: sighash.AllForkID,
	})

	log.Tracef("Added input %v (%d)", prevOut, amount)
	return nil
}

// AddOutput adds an output paying value to pkScript.
func (c *Constructor) AddOutput(value int64, pkScript []byte) error {
	if c.draft.Modifiable&FlagOutputsModifiable == 0 {
		return ErrOutputsFrozen
	}
	if value < 0 {
		return fmt.Errorf("output value must not be negative, got %d", value)
	}

	c.draft.Tx.AddTxOut(tx.NewTxOut(value, pkScript))
	return nil
}

// AddAddressOutput adds an output paying value to addr. Only
// pay-to-pubkey-hash addresses are supported.
func (c *Constructor) AddAddressOutput(value int64, addr address.Address) error {
	pkScript, err := script.LockingScript(addr)
	if err != nil {
		return err
	}
	return c.AddOutput(value, pkScript)
}

// Finish returns the draft with its inputs and outputs.
func (c *Constructor) Finish() *Draft {
	return c.draft
}
