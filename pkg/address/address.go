// Package address implements the Base58Check address codec.
//
// An address string is the base58 encoding of
//
//	version (1 byte) || hash160 (20 bytes) || checksum (4 bytes)
//
// where the version byte is selected by the payload kind and the network, and
// the checksum is the first four bytes of the double SHA-256 of the version
// byte and hash.
package address

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

// HashSize is the length of every address payload hash.
const HashSize = 20

// encodedSize is version + hash + checksum.
const encodedSize = 1 + HashSize + 4

// Kind identifies which template an address payload commits to.
type Kind uint8

const (
	KindPubKeyHash Kind = iota // pay-to-pubkey-hash
	KindScriptHash             // pay-to-script-hash
)

func (k Kind) String() string {
	switch k {
	case KindPubKeyHash:
		return "pubkeyhash"
	case KindScriptHash:
		return "scripthash"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Payload is the hash an address commits to. The set of implementations is
// closed: only PubKeyHash and ScriptHash satisfy it.
type Payload interface {
	Kind() Kind
	Hash160() [HashSize]byte
	payload()
}

// PubKeyHash is the HASH160 of a serialized public key.
type PubKeyHash [HashSize]byte

func (PubKeyHash) Kind() Kind                { return KindPubKeyHash }
func (h PubKeyHash) Hash160() [HashSize]byte { return h }
func (PubKeyHash) payload()                  {}

// ScriptHash is the HASH160 of a serialized script.
type ScriptHash [HashSize]byte

func (ScriptHash) Kind() Kind                { return KindScriptHash }
func (h ScriptHash) Hash160() [HashSize]byte { return h }
func (ScriptHash) payload()                  {}

// NewPubKeyHash wraps a 20-byte public key hash.
func NewPubKeyHash(hash []byte) (PubKeyHash, error) {
	var h PubKeyHash
	if len(hash) != HashSize {
		return h, &FormatError{Message: fmt.Sprintf("pubkey hash must be %d bytes, got %d", HashSize, len(hash))}
	}
	copy(h[:], hash)
	return h, nil
}

// NewScriptHash wraps a 20-byte script hash.
func NewScriptHash(hash []byte) (ScriptHash, error) {
	var h ScriptHash
	if len(hash) != HashSize {
		return h, &FormatError{Message: fmt.Sprintf("script hash must be %d bytes, got %d", HashSize, len(hash))}
	}
	copy(h[:], hash)
	return h, nil
}

// Hash160 computes RIPEMD160(SHA256(b)).
func Hash160(b []byte) [HashSize]byte {
	sha := sha256.Sum256(b)

	rip := ripemd160.New()
	_, _ = rip.Write(sha[:])

	var out [HashSize]byte
	copy(out[:], rip.Sum(nil))
	return out
}

// Address is a payload bound to the network it is valid on.
type Address struct {
	Payload Payload
	Network chaincfg.Network
}

// FromPublicKey builds a pay-to-pubkey-hash address for a serialized public key.
func FromPublicKey(pubKey []byte, net chaincfg.Network) Address {
	return Address{Payload: PubKeyHash(Hash160(pubKey)), Network: net}
}

// FromScript builds a pay-to-script-hash address for a serialized script.
func FromScript(script []byte, net chaincfg.Network) Address {
	return Address{Payload: ScriptHash(Hash160(script)), Network: net}
}

// String returns the Base58Check encoding of the address.
func (a Address) String() string {
	s, err := Encode(a.Payload, a.Network)
	if err != nil {
		return "<invalid address>"
	}
	return s
}

// Encode returns the Base58Check string for a payload on a network.
func Encode(p Payload, net chaincfg.Network) (string, error) {
	if p == nil {
		return "", &FormatError{Message: "nil payload"}
	}
	version, err := versionByte(p.Kind(), net)
	if err != nil {
		return "", err
	}
	hash := p.Hash160()
	return base58.CheckEncode(hash[:], version), nil
}

// Decode parses a Base58Check address string. When expected is non-nil the
// decoded network must match it.
func Decode(s string, expected *chaincfg.Network) (Address, error) {
	decoded := base58.Decode(s)
	if len(decoded) != encodedSize {
		return Address{}, &FormatError{
			Message: fmt.Sprintf("decoded address is %d bytes, want %d", len(decoded), encodedSize),
		}
	}

	var want [4]byte
	copy(want[:], chainhash.DoubleHashB(decoded[:1+HashSize])[:4])
	var got [4]byte
	copy(got[:], decoded[1+HashSize:])
	if want != got {
		return Address{}, &ChecksumError{Address: s, Expected: want, Actual: got}
	}

	kind, net, err := lookupVersion(decoded[0])
	if err != nil {
		return Address{}, err
	}
	if expected != nil && *expected != net {
		return Address{}, &NetworkMismatchError{Expected: *expected, Actual: net}
	}

	var hash [HashSize]byte
	copy(hash[:], decoded[1:1+HashSize])

	var p Payload
	switch kind {
	case KindPubKeyHash:
		p = PubKeyHash(hash)
	case KindScriptHash:
		p = ScriptHash(hash)
	default:
		return Address{}, &UnknownVersionError{Version: decoded[0]}
	}

	return Address{Payload: p, Network: net}, nil
}

// versionByte selects the version byte for a (kind, network) pair.
func versionByte(kind Kind, net chaincfg.Network) (byte, error) {
	params := net.Params()
	switch kind {
	case KindPubKeyHash:
		return params.PubKeyHashAddrID, nil
	case KindScriptHash:
		return params.ScriptHashAddrID, nil
	default:
		return 0, &FormatError{Message: fmt.Sprintf("unsupported payload %s", kind)}
	}
}

var knownNetworks = []chaincfg.Network{chaincfg.Mainnet, chaincfg.Testnet}

// lookupVersion is the inverse of versionByte.
func lookupVersion(version byte) (Kind, chaincfg.Network, error) {
	for _, net := range knownNetworks {
		params := net.Params()
		switch version {
		case params.PubKeyHashAddrID:
			return KindPubKeyHash, net, nil
		case params.ScriptHashAddrID:
			return KindScriptHash, net, nil
		}
	}
	return 0, 0, &UnknownVersionError{Version: version}
}
