package roles

import (
	"bytes"
	"errors"
	"fmt"
)

// Combiner merges drafts of the same transaction that were signed
// independently, for example by different parties each holding the keys to
// some of the inputs.
type Combiner struct {
	drafts []*Draft
}

// NewCombiner creates a new Combiner.
//
// Parameters:
//   - drafts: Drafts to combine (must all represent the same transaction)
func NewCombiner(drafts []*Draft) *Combiner {
	return &Combiner{drafts: drafts}
}

// Combine merges all drafts into a copy of the first one.
//
// Returns an error if:
//   - The drafts describe different transactions
//   - Two drafts carry different signatures for the same input
func (c *Combiner) Combine() (*Draft, error) {
	if len(c.drafts) == 0 {
		return nil, errors.New("no drafts to combine")
	}

	result := c.drafts[0].Copy()
	for i := 1; i < len(c.drafts); i++ {
		if err := c.mergeInto(result, c.drafts[i]); err != nil {
			return nil, fmt.Errorf("failed to merge draft %d: %w", i, err)
		}
	}
	return result, nil
}

func (c *Combiner) mergeInto(dst, src *Draft) error {
	if dst.skeletonHash() != src.skeletonHash() {
		return errors.New("drafts describe different transactions")
	}
	if dst.Params.Net != src.Params.Net {
		return fmt.Errorf("network mismatch: %s != %s", dst.Params.Net, src.Params.Net)
	}
	if len(dst.Inputs) != len(src.Inputs) {
		return errors.New("input metadata length mismatch")
	}

	for i := range src.Inputs {
		s := &src.Inputs[i]
		d := &dst.Inputs[i]
		if d.Amount != s.Amount || !bytes.Equal(d.PkScript, s.PkScript) {
			return fmt.Errorf("input %d spends a different output", i)
		}

		if s.Signed() {
			if d.Signed() && (!bytes.Equal(d.Signature, s.Signature) || !bytes.Equal(d.PubKey, s.PubKey)) {
				return fmt.Errorf("conflicting signatures for input %d", i)
			}
			d.Signature = append([]byte(nil), s.Signature...)
			d.PubKey = append([]byte(nil), s.PubKey...)
		}

		srcScript := src.Tx.TxIn[i].SignatureScript
		if len(srcScript) > 0 {
			dstScript := dst.Tx.TxIn[i].SignatureScript
			if len(dstScript) > 0 && !bytes.Equal(dstScript, srcScript) {
				return fmt.Errorf("conflicting unlocking scripts for input %d", i)
			}
			dst.Tx.TxIn[i].SignatureScript = append([]byte(nil), srcScript...)
		}
	}

	dst.Modifiable &= src.Modifiable
	return nil
}
