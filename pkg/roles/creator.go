// Package roles splits transaction construction into distinct steps:
//   - Creator: Initializes an empty draft with version and lock time
//   - Constructor: Adds inputs and outputs
//   - IO Finalizer: Freezes the input and output set
//   - Signer: Computes fork-id signature hashes and signs inputs
//   - Spend Finalizer: Builds unlocking scripts from signatures
//   - Transaction Extractor: Produces the final transaction bytes
//   - Combiner: Merges independently signed copies of a draft
//
// Each role can be executed by different parties or at different times.
package roles

import (
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

// Creator initializes a draft with no inputs or outputs.
//
// The Creator sets up the transaction-wide fields (version, lock time,
// network) that all parties must agree on.
type Creator struct {
	params   *chaincfg.Params
	version  int32
	lockTime uint32
}

// NewCreator creates a new Creator for the network in params.
func NewCreator(params *chaincfg.Params) *Creator {
	return &Creator{
		params:  params,
		version: tx.TxVersion,
	}
}

// WithLockTime sets nLockTime. It is either a block height (< 500000000) or
// a UNIX timestamp.
func (c *Creator) WithLockTime(lockTime uint32) *Creator {
	c.lockTime = lockTime
	return c
}

// Create creates the base draft with all modification flags set.
func (c *Creator) Create() *Draft {
	t := tx.NewTx(c.version)
	t.LockTime = c.lockTime

	return &Draft{
		Tx:         t,
		Params:     c.params,
		Inputs:     []InputMeta{},
		Modifiable: FlagInputsModifiable | FlagOutputsModifiable,
	}
}
