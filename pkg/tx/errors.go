package tx

import "fmt"

// Build error codes.
const (
	CodeNotEnoughAmount         = "NOT_ENOUGH_AMOUNT"          // credits do not cover outputs
	CodeTxidParse               = "TXID_PARSE"                 // funding txid is not a 64 char hex hash
	CodeAddressParse            = "ADDRESS_PARSE"              // address failed Base58Check decoding
	CodeNotSupportedAddressForm = "NOT_SUPPORTED_ADDRESS_FORM" // address kind has no template
	CodeSignRawTx               = "SIGN_RAW_TX"                // signing or signature validation failed
	CodeSignerMismatch          = "SIGNER_MISMATCH"            // signer set does not cover the inputs
)

// NoInput is the InputIndex of errors not tied to a specific input.
const NoInput = -1

// BuildError is returned when assembling or signing a transaction fails.
//
// Errors compare equal under errors.Is when their codes match, so callers can
// test against the sentinel values below:
//
//	if errors.Is(err, tx.ErrNotEnoughAmount) { ... }
type BuildError struct {
	Code       string // One of the Code* constants
	InputIndex int    // Index of the offending input or output, NoInput if none
	Message    string // Human-readable error message
	Cause      error  // Underlying error (if any)
}

func (e *BuildError) Error() string {
	where := ""
	if e.InputIndex != NoInput {
		where = fmt.Sprintf(" at index %d", e.InputIndex)
	}
	if e.Cause != nil {
		return fmt.Sprintf("build error [%s]%s: %s: %v", e.Code, where, e.Message, e.Cause)
	}
	return fmt.Sprintf("build error [%s]%s: %s", e.Code, where, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *BuildError with the same code.
func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	return ok && t.Code == e.Code
}

// NewBuildError returns a BuildError not tied to an input.
func NewBuildError(code, message string, cause error) *BuildError {
	return &BuildError{Code: code, InputIndex: NoInput, Message: message, Cause: cause}
}

// NewIndexedError returns a BuildError for the input or output at index.
func NewIndexedError(code string, index int, message string, cause error) *BuildError {
	return &BuildError{Code: code, InputIndex: index, Message: message, Cause: cause}
}

// Sentinels for errors.Is.
var (
	ErrNotEnoughAmount         = &BuildError{Code: CodeNotEnoughAmount, InputIndex: NoInput, Message: "not enough amount"}
	ErrTxidParse               = &BuildError{Code: CodeTxidParse, InputIndex: NoInput, Message: "txid parse error"}
	ErrAddressParse            = &BuildError{Code: CodeAddressParse, InputIndex: NoInput, Message: "address parse error"}
	ErrNotSupportedAddressForm = &BuildError{Code: CodeNotSupportedAddressForm, InputIndex: NoInput, Message: "address form not supported"}
	ErrSignRawTx               = &BuildError{Code: CodeSignRawTx, InputIndex: NoInput, Message: "failed to sign raw transaction"}
	ErrSignerMismatch          = &BuildError{Code: CodeSignerMismatch, InputIndex: NoInput, Message: "signer set does not match inputs"}
)
