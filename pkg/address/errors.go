package address

import (
	"fmt"

	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

// FormatError is returned when a string is not base58 or does not decode to
// the expected number of bytes.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("address format error: %s", e.Message)
}

// ChecksumError is returned when the trailing four bytes of a decoded address
// do not match the double SHA-256 of its body.
type ChecksumError struct {
	Address  string
	Expected [4]byte
	Actual   [4]byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("address checksum mismatch for %s: expected %x, got %x",
		e.Address, e.Expected, e.Actual)
}

// UnknownVersionError is returned for a version byte outside the network table.
type UnknownVersionError struct {
	Version byte
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown address version byte %d", e.Version)
}

// NetworkMismatchError is returned when an address decodes for a network other
// than the one the caller required.
type NetworkMismatchError struct {
	Expected chaincfg.Network
	Actual   chaincfg.Network
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("address is for %s, expected %s", e.Actual, e.Expected)
}
