// Package script builds the two script templates the transaction builder
// supports and parses the push-only scripts it produces.
//
// Locking script (pay-to-pubkey-hash):
//
//	OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
//
// Unlocking script:
//
//	<signature || hash type> <public key>
package script

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/address"
)

// Opcodes used by the templates.
const (
	OpData20      = 0x14
	OpData75      = 0x4b
	OpPushData1   = 0x4c
	OpPushData2   = 0x4d
	OpPushData4   = 0x4e
	OpDup         = 0x76
	OpEqualVerify = 0x88
	OpHash160     = 0xa9
	OpCheckSig    = 0xac
)

// P2PKHSize is the length of a pay-to-pubkey-hash locking script.
const P2PKHSize = 25

// maxPushData1 is the largest element OP_PUSHDATA1 can carry.
const maxPushData1 = 0xff

var (
	// ErrNotSupportedAddressForm is returned for address kinds that have no
	// template here.
	ErrNotSupportedAddressForm = errors.New("address form not supported")

	// ErrNotPushOnly is returned by PushedData for scripts that contain
	// non-push opcodes.
	ErrNotPushOnly = errors.New("script is not push-only")

	// ErrMalformedPush is returned when a push runs past the end of a script.
	ErrMalformedPush = errors.New("malformed data push")
)

// PayToPubKeyHash returns the locking script paying to a 20-byte public key hash.
func PayToPubKeyHash(hash160 []byte) ([]byte, error) {
	if len(hash160) != address.HashSize {
		return nil, fmt.Errorf("pubkey hash must be %d bytes, got %d", address.HashSize, len(hash160))
	}

	script := make([]byte, 0, P2PKHSize)
	script = append(script, OpDup, OpHash160, OpData20)
	script = append(script, hash160...)
	script = append(script, OpEqualVerify, OpCheckSig)
	return script, nil
}

// LockingScript returns the locking script for an address. Only
// pay-to-pubkey-hash addresses are supported.
func LockingScript(addr address.Address) ([]byte, error) {
	if addr.Payload == nil {
		return nil, fmt.Errorf("address has no payload: %w", ErrNotSupportedAddressForm)
	}

	switch addr.Payload.Kind() {
	case address.KindPubKeyHash:
		hash := addr.Payload.Hash160()
		return PayToPubKeyHash(hash[:])
	case address.KindScriptHash:
		return nil, fmt.Errorf("%s address %s: %w", addr.Payload.Kind(), addr, ErrNotSupportedAddressForm)
	default:
		return nil, fmt.Errorf("%s: %w", addr.Payload.Kind(), ErrNotSupportedAddressForm)
	}
}

// SignatureScript returns the unlocking script for a pay-to-pubkey-hash input:
// a push of the signature (with its trailing hash type byte) followed by a
// push of the serialized public key.
func SignatureScript(sigWithType, pubKey []byte) ([]byte, error) {
	if len(sigWithType) == 0 {
		return nil, errors.New("empty signature")
	}
	if len(pubKey) == 0 {
		return nil, errors.New("empty public key")
	}

	script := make([]byte, 0, len(sigWithType)+len(pubKey)+4)
	var err error
	if script, err = appendPush(script, sigWithType); err != nil {
		return nil, fmt.Errorf("failed to push signature: %w", err)
	}
	if script, err = appendPush(script, pubKey); err != nil {
		return nil, fmt.Errorf("failed to push public key: %w", err)
	}
	return script, nil
}

// appendPush appends the smallest push opcode for data followed by data.
func appendPush(script, data []byte) ([]byte, error) {
	switch n := len(data); {
	case n <= OpData75:
		script = append(script, byte(n))
	case n <= maxPushData1:
		script = append(script, OpPushData1, byte(n))
	default:
		return nil, fmt.Errorf("push of %d bytes exceeds %d", n, maxPushData1)
	}
	return append(script, data...), nil
}

// PushedData returns the data elements of a push-only script in order.
func PushedData(script []byte) ([][]byte, error) {
	var pushes [][]byte
	for i := 0; i < len(script); {
		op := script[i]
		i++

		var n int
		switch {
		case op == 0:
			pushes = append(pushes, []byte{})
			continue
		case op <= OpData75:
			n = int(op)
		case op == OpPushData1:
			if i+1 > len(script) {
				return nil, ErrMalformedPush
			}
			n = int(script[i])
			i++
		case op == OpPushData2:
			if i+2 > len(script) {
				return nil, ErrMalformedPush
			}
			n = int(script[i]) | int(script[i+1])<<8
			i += 2
		case op == OpPushData4:
			if i+4 > len(script) {
				return nil, ErrMalformedPush
			}
			n = int(script[i]) | int(script[i+1])<<8 | int(script[i+2])<<16 | int(script[i+3])<<24
			i += 4
		default:
			return nil, fmt.Errorf("opcode 0x%02x at offset %d: %w", op, i-1, ErrNotPushOnly)
		}

		if n < 0 || i+n > len(script) {
			return nil, ErrMalformedPush
		}
		pushes = append(pushes, script[i:i+n])
		i += n
	}
	return pushes, nil
}

// ExtractPubKeyHash returns the hash a pay-to-pubkey-hash locking script pays
// to, or false if the script is not that template.
func ExtractPubKeyHash(script []byte) (address.PubKeyHash, bool) {
	var h address.PubKeyHash
	if len(script) != P2PKHSize ||
		script[0] != OpDup ||
		script[1] != OpHash160 ||
		script[2] != OpData20 ||
		script[23] != OpEqualVerify ||
		script[24] != OpCheckSig {
		return h, false
	}
	copy(h[:], script[3:23])
	return h, true
}
