package crypto

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"lukechampine.com/frand"
)

const (
	// minSigLen and maxSigLen bound a DER signature without its hash type byte.
	minSigLen = 8
	maxSigLen = 72
)

// ErrInvalidSignature is returned by CheckSignature.
var ErrInvalidSignature = errors.New("invalid signature")

// Signer produces a DER encoded ECDSA signature over a 32-byte digest.
type Signer interface {
	Sign(digest [32]byte, key *PrivateKey) ([]byte, error)
}

// DeterministicSigner signs with an RFC6979 nonce. The same key and digest
// always yield the same signature.
type DeterministicSigner struct{}

// Sign implements Signer.
func (DeterministicSigner) Sign(digest [32]byte, key *PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}
	der := ecdsa.Sign(key.key, digest[:]).Serialize()
	if err := CheckSignature(der); err != nil {
		return nil, err
	}
	return der, nil
}

// EntropySigner mixes 32 fresh random bytes into the RFC6979 nonce derivation
// as additional data, so repeated signatures of the same digest differ. S is
// normalized to the lower half of the group order.
type EntropySigner struct {
	rand io.Reader
}

// NewEntropySigner returns a signer reading extra nonce data from rand. A nil
// rand uses frand.
func NewEntropySigner(rand io.Reader) *EntropySigner {
	if rand == nil {
		rand = frand.Reader
	}
	return &EntropySigner{rand: rand}
}

// Sign implements Signer.
func (s *EntropySigner) Sign(digest [32]byte, key *PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}

	var extra [32]byte
	if _, err := io.ReadFull(s.rand, extra[:]); err != nil {
		return nil, fmt.Errorf("failed to read nonce entropy: %w", err)
	}

	var privKeyBytes [32]byte
	key.key.Key.PutBytes(&privKeyBytes)
	defer func() {
		for i := range privKeyBytes {
			privKeyBytes[i] = 0
		}
	}()

	for iteration := uint32(0); ; iteration++ {
		k := secp256k1.NonceRFC6979(privKeyBytes[:], digest[:], extra[:], nil, iteration)
		sig, ok := signWithNonce(&key.key.Key, k, digest[:])
		k.Zero()
		if !ok {
			continue
		}

		der := sig.Serialize()
		if err := CheckSignature(der); err != nil {
			return nil, err
		}
		return der, nil
	}
}

// signWithNonce computes r = (kG).x mod N and s = k^-1(e + dr) mod N,
// negating s when it is above half the order. It reports false when r or s
// is zero and another nonce is needed.
func signWithNonce(privKey, k *secp256k1.ModNScalar, hash []byte) (*ecdsa.Signature, bool) {
	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &kG)
	kG.ToAffine()

	var xBytes [32]byte
	kG.X.PutBytes(&xBytes)
	var r secp256k1.ModNScalar
	r.SetBytes(&xBytes)
	if r.IsZero() {
		return nil, false
	}

	var e secp256k1.ModNScalar
	e.SetByteSlice(hash)

	kinv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	sv := new(secp256k1.ModNScalar).Mul2(privKey, &r).Add(&e).Mul(kinv)
	if sv.IsZero() {
		return nil, false
	}
	if sv.IsOverHalfOrder() {
		sv.Negate()
	}

	return ecdsa.NewSignature(&r, sv), true
}

// CheckSignature validates a DER signature produced by a Signer: between 8
// and 72 bytes, strictly DER encoded, with a low S value.
func CheckSignature(der []byte) error {
	if len(der) < minSigLen || len(der) > maxSigLen {
		return fmt.Errorf("%w: length %d outside [%d, %d]", ErrInvalidSignature, len(der), minSigLen, maxSigLen)
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	sv := sig.S()
	if sv.IsOverHalfOrder() {
		return fmt.Errorf("%w: high S value", ErrInvalidSignature)
	}
	return nil
}
