package roles

import (
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/tx"
)

// TxExtractor extracts the final transaction from a finalized draft.
type TxExtractor struct {
	draft *Draft
}

// NewTxExtractor creates a new Transaction Extractor.
func NewTxExtractor(d *Draft) *TxExtractor {
	return &TxExtractor{draft: d}
}

// Extract validates the draft and returns the signed transaction.
func (e *TxExtractor) Extract() (*tx.Tx, error) {
	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}
	log.Tracef("Extracted transaction: %v", newLogClosure(func() string {
		return spewConfig.Sdump(e.draft.Tx)
	}))
	return e.draft.Tx, nil
}

// ExtractHex returns the serialized transaction as lowercase hex.
func (e *TxExtractor) ExtractHex() (string, error) {
	t, err := e.Extract()
	if err != nil {
		return "", err
	}
	return t.Hex(), nil
}

// validate checks that:
//   - No modification flags are set (tx is locked)
//   - Every input has an unlocking script
func (e *TxExtractor) validate() error {
	if e.draft.Modifiable != 0 {
		return fmt.Errorf("transaction still modifiable (flags: 0x%x)", e.draft.Modifiable)
	}
	for i, in := range e.draft.Tx.TxIn {
		if len(in.SignatureScript) == 0 {
			return fmt.Errorf("input %d missing unlocking script (not finalized)", i)
		}
	}
	return nil
}
