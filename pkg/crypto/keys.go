// Package crypto implements secp256k1 key handling and ECDSA signing for
// transaction inputs.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: compressed 33-byte or uncompressed 65-byte SEC encoding
//   - Signatures: strict DER with a low S value
package crypto

import (
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

const (
	// PrivateKeySize is the length of a raw private key.
	PrivateKeySize = 32

	// compressMagic marks a WIF payload whose public key is compressed.
	compressMagic = 0x01
)

// PrivateKey wraps secp256k1 private key
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps secp256k1 public key
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GeneratePrivateKey returns a new private key drawn from rand.
func GeneratePrivateKey(rand io.Reader) (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKeyFromRand(rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a private key from raw bytes
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(keyBytes))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(keyBytes); overflow || scalar.IsZero() {
		return nil, errors.New("private key is not in [1, N-1]")
	}

	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// Zero clears the key material. It is a no-op on a nil key.
func (pk *PrivateKey) Zero() {
	if pk == nil || pk.key == nil {
		return
	}
	pk.key.Zero()
}

// SerializeCompressed returns the 33-byte compressed public key
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// SerializeUncompressed returns the 65-byte uncompressed public key
func (pub *PublicKey) SerializeUncompressed() [65]byte {
	var result [65]byte
	copy(result[:], pub.key.SerializeUncompressed())
	return result
}

// Serialize returns the compressed or uncompressed encoding.
func (pub *PublicKey) Serialize(compressed bool) []byte {
	if compressed {
		return pub.key.SerializeCompressed()
	}
	return pub.key.SerializeUncompressed()
}

// IsEqual reports whether both keys are the same point.
func (pub *PublicKey) IsEqual(other *PublicKey) bool {
	return pub.key.IsEqual(other.key)
}

// ParsePublicKey parses a 33-byte compressed or 65-byte uncompressed public key
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != secp256k1.PubKeyBytesLenCompressed &&
		len(pubKeyBytes) != secp256k1.PubKeyBytesLenUncompressed {
		return nil, fmt.Errorf("public key must be 33 or 65 bytes, got %d", len(pubKeyBytes))
	}

	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &PublicKey{key: pubKey}, nil
}

// VerifySignature verifies an ECDSA signature
func VerifySignature(pubkey *PublicKey, hash [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}

	return sig.Verify(hash[:], pubkey.key)
}

// WIF is a decoded Wallet Import Format private key.
type WIF struct {
	PrivateKey *PrivateKey
	Compressed bool
	Network    chaincfg.Network
}

// ParsePrivateKeyWIF parses a WIF-encoded private key
// WIF format: version_byte || private_key (32 bytes) || [compression_flag] || checksum (4 bytes)
func ParsePrivateKeyWIF(wif string) (*WIF, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("failed to decode WIF: %w", err)
	}

	var net chaincfg.Network
	switch version {
	case chaincfg.MainNetParams.PrivateKeyID:
		net = chaincfg.Mainnet
	case chaincfg.TestNetParams.PrivateKeyID:
		net = chaincfg.Testnet
	default:
		return nil, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	var compressed bool
	switch {
	case len(payload) == PrivateKeySize:
	case len(payload) == PrivateKeySize+1 && payload[PrivateKeySize] == compressMagic:
		compressed = true
	default:
		return nil, errors.New("invalid WIF length")
	}

	key, err := PrivateKeyFromBytes(payload[:PrivateKeySize])
	if err != nil {
		return nil, err
	}

	return &WIF{PrivateKey: key, Compressed: compressed, Network: net}, nil
}

// EncodeWIF encodes a private key to WIF format
func EncodeWIF(key *PrivateKey, compressed bool, net chaincfg.Network) string {
	payload := make([]byte, 0, PrivateKeySize+1)
	payload = append(payload, key.Bytes()...)
	if compressed {
		payload = append(payload, compressMagic)
	}
	return base58.CheckEncode(payload, net.Params().PrivateKeyID)
}

// String returns the WIF encoding.
func (w *WIF) String() string {
	return EncodeWIF(w.PrivateKey, w.Compressed, w.Network)
}

// SerializePubKey returns the public key in the encoding the WIF selects.
func (w *WIF) SerializePubKey() []byte {
	return w.PrivateKey.PublicKey().Serialize(w.Compressed)
}
