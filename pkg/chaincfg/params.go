// Package chaincfg defines the networks the builder can produce transactions
// for and the per-network constants that select address version bytes, the
// signature-hash fork id and the private key import format.
package chaincfg

import (
	"fmt"
	"strings"
)

// Network identifies a ledger the builder targets.
type Network uint8

const (
	// Mainnet is the production network.
	Mainnet Network = iota

	// Testnet is the public test network.
	Testnet
)

// String returns the lowercase network name.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// Params returns the constants for the network.
func (n Network) Params() *Params {
	switch n {
	case Testnet:
		return &TestNetParams
	default:
		return &MainNetParams
	}
}

// ParseNetwork maps a network name to its Network value.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	default:
		return 0, fmt.Errorf("unknown network %q", name)
	}
}

// Params holds the per-network constants.
type Params struct {
	Net  Network
	Name string

	// Address encoding version bytes
	PubKeyHashAddrID byte
	ScriptHashAddrID byte

	// WIF private key version byte
	PrivateKeyID byte

	// ForkID is mixed into the upper bytes of the signature-hash type field.
	ForkID uint32

	// URIScheme prefixes payment request URIs.
	URIScheme string
}

// MainNetParams are the Bitcoin Gold main network constants.
var MainNetParams = Params{
	Net:              Mainnet,
	Name:             "mainnet",
	PubKeyHashAddrID: 38, // starts with G
	ScriptHashAddrID: 23, // starts with A
	PrivateKeyID:     0x80,
	ForkID:           79,
	URIScheme:        "bitcoingold",
}

// TestNetParams are the Bitcoin Gold test network constants.
var TestNetParams = Params{
	Net:              Testnet,
	Name:             "testnet",
	PubKeyHashAddrID: 111, // starts with m or n
	ScriptHashAddrID: 196, // starts with 2
	PrivateKeyID:     0xef,
	ForkID:           79,
	URIScheme:        "bitcoingold",
}
