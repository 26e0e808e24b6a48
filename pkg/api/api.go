// Package api provides the high-level entry point for building signed
// transactions.
//
// A build runs the roles pipeline end to end:
//
//  1. Validate amounts and the signer set
//  2. Creator and Constructor assemble the skeleton
//  3. IO Finalizer freezes inputs and outputs
//  4. Signer signs every input with ALL|FORKID over one sighash cache
//  5. Spend Finalizer and Transaction Extractor produce the raw transaction
//
// Every failure is a *tx.BuildError and no transaction is returned with it.
package api

import (
	"errors"
	"fmt"
	"math"

	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/crypto"
	"github.com/suffix-labs/btgtx/pkg/roles"
	"github.com/suffix-labs/btgtx/pkg/script"
	"github.com/suffix-labs/btgtx/pkg/sighash"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

// ErrAmountRange is returned when a credit or value cannot be carried by the
// signed 64-bit amount field of the wire format.
var ErrAmountRange = errors.New("amount out of range")

// FundingRequest describes an output being spent.
type FundingRequest struct {
	TxID    string `json:"txid" mapstructure:"txid"`       // Source transaction id, display order hex
	Index   uint32 `json:"index" mapstructure:"index"`     // Output index in the source transaction
	Address string `json:"address" mapstructure:"address"` // Address the output pays
	Credit  uint64 `json:"credit" mapstructure:"credit"`   // Output value in satoshis
}

// OutputRequest describes a new output.
type OutputRequest struct {
	Address string `json:"address" mapstructure:"address"` // Destination address
	Value   uint64 `json:"value" mapstructure:"value"`     // Value in satoshis
}

// Identity is the key that signs one input.
type Identity struct {
	PrivateKey *crypto.PrivateKey
	Compressed bool // Put the compressed public key in the unlocking script
}

// SignerSet maps each funding outpoint to the identity that signs it.
type SignerSet map[tx.OutPoint]Identity

// PositionalSigners builds a SignerSet where identities[i] signs funding[i].
//
// Returns ErrSignerMismatch when the lengths differ or two funding requests
// name the same outpoint, and ErrTxidParse when a funding txid is malformed.
func PositionalSigners(funding []FundingRequest, identities []Identity) (SignerSet, error) {
	if err := checkSignerCount(len(funding), len(identities)); err != nil {
		return nil, err
	}

	set := make(SignerSet, len(funding))
	for i, f := range funding {
		op, err := fundingOutPoint(i, f)
		if err != nil {
			return nil, err
		}
		if _, dup := set[op]; dup {
			return nil, duplicateOutPointError(i, op)
		}
		set[op] = identities[i]
	}
	return set, nil
}

// CheckAmounts reports whether the funding credits cover the output values.
//
// It touches no txid, address or key, so callers holding key material in an
// encoded form can run it before decoding anything. Returns ErrAmountRange
// or ErrNotEnoughAmount.
func CheckAmounts(funding []FundingRequest, outputs []OutputRequest) error {
	_, _, err := checkAmounts(funding, outputs)
	return err
}

// Builder turns funding and output requests into signed transactions for
// one network.
//
// A Builder holds no per-build state and is safe for concurrent use.
type Builder struct {
	params *chaincfg.Params
	signer crypto.Signer
}

// NewBuilder creates a Builder. A nil params selects mainnet and a nil signer
// selects deterministic RFC6979 signing.
func NewBuilder(params *chaincfg.Params, signer crypto.Signer) *Builder {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	if signer == nil {
		signer = crypto.DeterministicSigner{}
	}
	return &Builder{params: params, signer: signer}
}

// Params returns the network parameters of the builder.
func (b *Builder) Params() *chaincfg.Params {
	return b.params
}

// ============================================================================
// BuildAndSign
// ============================================================================

// BuildAndSign assembles, signs and serializes a transaction.
//
// Parameters:
//   - funding: Outputs to spend, in input order
//   - outputs: Outputs to create, in output order
//   - signers: Identity for every funding outpoint
//
// Returns:
//   - Lowercase hex of the signed transaction
//   - *tx.BuildError if any step fails; the string is empty in that case
func (b *Builder) BuildAndSign(funding []FundingRequest, outputs []OutputRequest, signers SignerSet) (string, error) {
	t, err := b.Build(funding, outputs, signers)
	if err != nil {
		return "", err
	}
	return t.Hex(), nil
}

// BuildAndSignPositional is BuildAndSign where identities[i] signs
// funding[i].
//
// Amounts and the identity count are checked before any txid is parsed, so
// the error order matches BuildAndSign.
func (b *Builder) BuildAndSignPositional(funding []FundingRequest, outputs []OutputRequest, identities []Identity) (string, error) {
	t, err := b.BuildPositional(funding, outputs, identities)
	if err != nil {
		return "", err
	}
	return t.Hex(), nil
}

// BuildPositional is BuildAndSignPositional returning the transaction.
func (b *Builder) BuildPositional(funding []FundingRequest, outputs []OutputRequest, identities []Identity) (*tx.Tx, error) {
	if err := CheckAmounts(funding, outputs); err != nil {
		return nil, err
	}
	signers, err := PositionalSigners(funding, identities)
	if err != nil {
		return nil, err
	}
	return b.Build(funding, outputs, signers)
}

// Build is BuildAndSign returning the transaction instead of its encoding.
func (b *Builder) Build(funding []FundingRequest, outputs []OutputRequest, signers SignerSet) (*tx.Tx, error) {
	// Step 1: amounts, before any key material is touched
	credits, values, err := checkAmounts(funding, outputs)
	if err != nil {
		return nil, err
	}

	if err := checkSignerCount(len(funding), len(signers)); err != nil {
		return nil, err
	}

	// Step 2: Creator + inputs
	d := roles.NewCreator(b.params).Create()
	constructor := roles.NewConstructor(d)

	outPoints := make([]tx.OutPoint, len(funding))
	seen := make(map[tx.OutPoint]struct{}, len(funding))
	for i, f := range funding {
		op, err := fundingOutPoint(i, f)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[op]; dup {
			return nil, duplicateOutPointError(i, op)
		}
		seen[op] = struct{}{}
		if _, ok := signers[op]; !ok {
			return nil, tx.NewIndexedError(tx.CodeSignerMismatch, i,
				fmt.Sprintf("no signer identity for %v", op), nil)
		}
		outPoints[i] = op
	}

	// Step 3: outputs
	for i, o := range outputs {
		addr, err := b.decodeAddress(i, o.Address)
		if err != nil {
			return nil, err
		}
		if err := constructor.AddAddressOutput(values[i], addr); err != nil {
			return nil, addressFormError(i, o.Address, err)
		}
	}

	// Funding addresses give each input its placeholder locking script.
	for i, f := range funding {
		pkScript, err := b.fundingScript(i, f.Address)
		if err != nil {
			return nil, err
		}
		if err := constructor.AddInput(outPoints[i], credits[i], pkScript, nil); err != nil {
			return nil, tx.NewIndexedError(tx.CodeSignRawTx, i, "failed to add input", err)
		}
	}

	d = constructor.Finish()

	// Step 4: freeze
	ioFinalizer := roles.NewIoFinalizer(d)
	if err := ioFinalizer.Finalize(); err != nil {
		return nil, tx.NewBuildError(tx.CodeSignRawTx, "IO finalization failed", err)
	}
	d = ioFinalizer.Finish()

	// Step 5: one Signer, one cache, every input in order
	signer := roles.NewSigner(d, b.signer)
	for i, op := range outPoints {
		id := signers[op]
		if err := signer.SignInput(i, id.PrivateKey, id.Compressed); err != nil {
			return nil, tx.NewIndexedError(tx.CodeSignRawTx, i, "signing failed", err)
		}
	}
	log.Debugf("Signed %d inputs, sighash cache %+v", len(outPoints), signer.CacheStats())
	d = signer.Finish()

	spendFinalizer := roles.NewSpendFinalizer(d)
	if err := spendFinalizer.Finalize(); err != nil {
		return nil, tx.NewBuildError(tx.CodeSignRawTx, "spend finalization failed", err)
	}
	d = spendFinalizer.Finish()

	// Step 6: extract
	t, err := roles.NewTxExtractor(d).Extract()
	if err != nil {
		return nil, tx.NewBuildError(tx.CodeSignRawTx, "transaction extraction failed", err)
	}

	log.Infof("Built transaction %v (%d inputs, %d outputs, %d bytes)",
		t.TxHash(), len(t.TxIn), len(t.TxOut), t.SerializeSize())
	return t, nil
}

// ============================================================================
// VerifyTransaction
// ============================================================================

// ErrVerification is returned by VerifyTransaction when an input does not
// carry a valid signature.
var ErrVerification = errors.New("signature verification failed")

// VerifyTransaction parses a raw transaction and checks the signature of
// every input against the output it spends.
//
// Parameters:
//   - rawHex: Serialized transaction
//   - funding: The spent outputs; matched to inputs by outpoint
//
// Returns:
//   - The parsed transaction
//   - Error if parsing fails or any input does not verify
func (b *Builder) VerifyTransaction(rawHex string, funding []FundingRequest) (*tx.Tx, error) {
	t, err := tx.ParseHex(rawHex)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	type prevOut struct {
		amount   int64
		pkScript []byte
	}
	prevOuts := make(map[tx.OutPoint]prevOut, len(funding))
	for i, f := range funding {
		op, err := fundingOutPoint(i, f)
		if err != nil {
			return nil, err
		}
		if f.Credit > math.MaxInt64 {
			return nil, fmt.Errorf("funding %d: %w", i, ErrAmountRange)
		}
		pkScript, err := b.fundingScript(i, f.Address)
		if err != nil {
			return nil, err
		}
		prevOuts[op] = prevOut{amount: int64(f.Credit), pkScript: pkScript}
	}

	cache := sighash.NewCache(t)
	for i, in := range t.TxIn {
		prev, ok := prevOuts[in.PreviousOutPoint]
		if !ok {
			return nil, fmt.Errorf("input %d: no funding data for %v", i, in.PreviousOutPoint)
		}
		if err := verifyInput(t, i, prev.pkScript, prev.amount, b.params.ForkID, cache); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return t, nil
}

func verifyInput(t *tx.Tx, idx int, pkScript []byte, amount int64, forkID uint32, cache *sighash.Cache) error {
	pushes, err := script.PushedData(t.TxIn[idx].SignatureScript)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if len(pushes) != 2 || len(pushes[0]) == 0 {
		return fmt.Errorf("%w: unlocking script is not <sig> <pubkey>", ErrVerification)
	}
	sigWithType, pubKeyBytes := pushes[0], pushes[1]

	wantHash, ok := script.ExtractPubKeyHash(pkScript)
	if !ok {
		return fmt.Errorf("%w: spent output is not pay-to-pubkey-hash", ErrVerification)
	}
	if address.PubKeyHash(address.Hash160(pubKeyBytes)) != wantHash {
		return fmt.Errorf("%w: public key does not match spent output", ErrVerification)
	}

	pub, err := crypto.ParsePublicKey(pubKeyBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}

	hashType := sighash.Type(sigWithType[len(sigWithType)-1])
	der := sigWithType[:len(sigWithType)-1]

	digest, err := sighash.CalcSignatureHash(t, idx, pkScript, amount, hashType, forkID, cache)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if !crypto.VerifySignature(pub, digest, der) {
		return ErrVerification
	}
	return nil
}

// ============================================================================
// Helper functions
// ============================================================================

func checkSignerCount(funding, identities int) error {
	if funding == identities {
		return nil
	}
	return tx.NewBuildError(tx.CodeSignerMismatch,
		fmt.Sprintf("%d funding requests but %d signer identities", funding, identities), nil)
}

func duplicateOutPointError(i int, op tx.OutPoint) error {
	return tx.NewIndexedError(tx.CodeSignerMismatch, i,
		fmt.Sprintf("outpoint %v is funded more than once", op), nil)
}

// checkAmounts converts credits and values to wire amounts and checks that
// the credits cover the values.
func checkAmounts(funding []FundingRequest, outputs []OutputRequest) ([]int64, []int64, error) {
	credits := make([]int64, len(funding))
	var totalIn uint64
	for i, f := range funding {
		if f.Credit > math.MaxInt64 || totalIn+f.Credit < totalIn {
			return nil, nil, fmt.Errorf("funding %d credit %d: %w", i, f.Credit, ErrAmountRange)
		}
		credits[i] = int64(f.Credit)
		totalIn += f.Credit
	}

	values := make([]int64, len(outputs))
	var totalOut uint64
	for i, o := range outputs {
		if o.Value > math.MaxInt64 || totalOut+o.Value < totalOut {
			return nil, nil, fmt.Errorf("output %d value %d: %w", i, o.Value, ErrAmountRange)
		}
		values[i] = int64(o.Value)
		totalOut += o.Value
	}

	if totalIn < totalOut {
		return nil, nil, tx.NewBuildError(tx.CodeNotEnoughAmount,
			fmt.Sprintf("credits %d do not cover outputs %d", totalIn, totalOut), nil)
	}
	return credits, values, nil
}

func fundingOutPoint(i int, f FundingRequest) (tx.OutPoint, error) {
	hash, err := tx.ParseTxID(f.TxID)
	if err != nil {
		return tx.OutPoint{}, tx.NewIndexedError(tx.CodeTxidParse, i,
			fmt.Sprintf("invalid txid %q", f.TxID), err)
	}
	return tx.OutPoint{Hash: hash, Index: f.Index}, nil
}

// decodeAddress decodes an address that must belong to the builder's network.
func (b *Builder) decodeAddress(i int, s string) (address.Address, error) {
	net := b.params.Net
	addr, err := address.Decode(s, &net)
	if err != nil {
		return address.Address{}, tx.NewIndexedError(tx.CodeAddressParse, i,
			fmt.Sprintf("invalid address %q", s), err)
	}
	return addr, nil
}

func (b *Builder) fundingScript(i int, s string) ([]byte, error) {
	addr, err := b.decodeAddress(i, s)
	if err != nil {
		return nil, err
	}
	pkScript, err := script.LockingScript(addr)
	if err != nil {
		return nil, addressFormError(i, s, err)
	}
	return pkScript, nil
}

func addressFormError(i int, s string, err error) error {
	if errors.Is(err, script.ErrNotSupportedAddressForm) {
		return tx.NewIndexedError(tx.CodeNotSupportedAddressForm, i,
			fmt.Sprintf("address %q", s), err)
	}
	return tx.NewIndexedError(tx.CodeAddressParse, i, fmt.Sprintf("address %q", s), err)
}
