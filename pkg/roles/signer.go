package roles

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/crypto"
	"github.com/suffix-labs/btgtx/pkg/sighash"
)

// ErrNotFinalized is returned when signing a draft whose inputs or outputs
// may still change.
var ErrNotFinalized = errors.New("draft inputs and outputs are not finalized")

// Signer adds signatures to inputs.
//
// The Signer role:
//   - Computes the fork-id signature hash for each input
//   - Signs the digests with private keys
//   - Stores signature and public key in the input metadata
//
// One Signer owns one sighash.Cache, so signing every input of a draft with
// the same Signer hashes the inputs and outputs once. Multiple Signers can
// sign different inputs of copies of the same draft; the Combiner merges
// the results.
type Signer struct {
	draft  *Draft
	signer crypto.Signer
	cache  *sighash.Cache
}

// NewSigner creates a new Signer. A nil signer uses deterministic nonces.
func NewSigner(d *Draft, signer crypto.Signer) *Signer {
	if signer == nil {
		signer = crypto.DeterministicSigner{}
	}
	return &Signer{
		draft:  d,
		signer: signer,
		cache:  sighash.NewCache(d.Tx),
	}
}

// SignInput signs a specific input.
//
// Parameters:
//   - inputIndex: Index of the input to sign (0-based)
//   - key: secp256k1 private key for signing
//   - compressed: Whether the unlocking script carries the compressed public key
//
// The stored signature format is: DER-encoded ECDSA signature || hash type byte
//
// Returns an error if:
//   - The draft is not finalized
//   - Input index is out of bounds
//   - Sighash computation fails
//   - Signing fails or yields a malformed signature
func (s *Signer) SignInput(inputIndex int, key *crypto.PrivateKey, compressed bool) error {
	if s.draft.Modifiable != 0 {
		return ErrNotFinalized
	}
	if inputIndex < 0 || inputIndex >= len(s.draft.Inputs) {
		return fmt.Errorf("input index %d out of bounds (have %d inputs)",
			inputIndex, len(s.draft.Inputs))
	}
	if key == nil {
		return errors.New("nil private key")
	}

	meta := &s.draft.Inputs[inputIndex]

	digest, err := sighash.CalcSignatureHash(s.draft.Tx, inputIndex, meta.PkScript,
		meta.Amount, meta.SigHashType, s.draft.Params.ForkID, s.cache)
	if err != nil {
		return fmt.Errorf("failed to compute sighash: %w", err)
	}

	der, err := s.signer.Sign(digest, key)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	if err := crypto.CheckSignature(der); err != nil {
		return err
	}

	sig := make([]byte, 0, len(der)+1)
	sig = append(sig, der...)
	sig = append(sig, byte(meta.SigHashType))

	meta.Signature = sig
	meta.PubKey = key.PublicKey().Serialize(compressed)

	log.Tracef("Signed input %d with %v: digest %x", inputIndex, meta.SigHashType, digest[:])
	return nil
}

// CacheStats returns the sub-hash computation counters of this Signer's cache.
func (s *Signer) CacheStats() sighash.Stats {
	return s.cache.Stats()
}

// Finish returns the signed draft.
func (s *Signer) Finish() *Draft {
	return s.draft
}
