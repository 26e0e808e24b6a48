// Package payuri implements payment request URIs.
//
// URI Format:
//
//	bitcoingold:<address>?amount=<amount>&label=<label>&message=<message>
//
// Multiple recipients are supported with indexed parameters:
//
//	bitcoingold:?address.1=<addr1>&amount.1=<amt1>&address.2=<addr2>&amount.2=<amt2>
//
// Amounts are decimal coins with at most 8 fractional digits and are held as
// satoshis once parsed.
package payuri

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/suffix-labs/btgtx/pkg/api"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

// Scheme is the URI scheme of payment requests. It is shared by every network.
var Scheme = chaincfg.MainNetParams.URIScheme

// SatoshiPerCoin is the number of satoshis in one coin.
const SatoshiPerCoin = 100_000_000

const (
	coinDecimals = 8
	maxIndex     = 9999
)

// ErrMissingAmount is returned by OutputRequests when a payment leaves the
// amount to the payer.
var ErrMissingAmount = errors.New("payment has no amount")

// PaymentRequest is a parsed payment request with one or more recipients.
type PaymentRequest struct {
	Payments []Payment
}

// Payment is a single recipient within a request.
type Payment struct {
	Address string  // Destination address
	Amount  *uint64 // Amount in satoshis (nil = payer specifies)
	Label   *string // Optional label for the recipient
	Message *string // Optional message to display to the payer
}

// Parse parses a payment request URI.
//
// URI formats supported:
//  1. Single recipient: bitcoingold:<address>?amount=1.5&label=shop
//  2. Multiple recipients: bitcoingold:?address.1=addr1&amount.1=1.0&address.2=addr2&amount.2=2.0
//
// The scheme is optional and case-insensitive.
func Parse(uri string) (*PaymentRequest, error) {
	if scheme, rest, ok := strings.Cut(uri, ":"); ok && !strings.ContainsAny(scheme, "?&=") {
		if !strings.EqualFold(scheme, Scheme) {
			return nil, fmt.Errorf("unsupported scheme %q", scheme)
		}
		uri = rest
	}

	baseAddress, query, _ := strings.Cut(uri, "?")

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	var payments []Payment
	if hasIndexedParams(params) {
		if baseAddress != "" {
			return nil, errors.New("indexed parameters cannot be combined with a base address")
		}
		payments, err = parseIndexedPayments(params)
		if err != nil {
			return nil, err
		}
	} else {
		payment, err := parsePayment(baseAddress, params, 0)
		if err != nil {
			return nil, err
		}
		payments = []Payment{payment}
	}

	return &PaymentRequest{Payments: payments}, nil
}

// parsePayment reads the parameters of the payment at index. A non-empty
// address is the base address of a single recipient request.
func parsePayment(address string, params url.Values, index int) (Payment, error) {
	payment := Payment{Address: address}
	if addr := getIndexedParam(params, "address", index); addr != "" {
		payment.Address = addr
	}
	if payment.Address == "" {
		return payment, fmt.Errorf("payment %d missing address", index)
	}

	if amountStr := getIndexedParam(params, "amount", index); amountStr != "" {
		amount, err := ParseAmount(amountStr)
		if err != nil {
			return payment, fmt.Errorf("payment %d invalid amount: %w", index, err)
		}
		payment.Amount = &amount
	}
	if label := getIndexedParam(params, "label", index); label != "" {
		payment.Label = &label
	}
	if message := getIndexedParam(params, "message", index); message != "" {
		payment.Message = &message
	}
	return payment, nil
}

// parseIndexedPayments parses multiple recipients, ordered by index.
func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := make(map[int]struct{})
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = struct{}{}
		}
	}

	payments := make([]Payment, 0, len(indices))
	for _, idx := range slices.Sorted(maps.Keys(indices)) {
		payment, err := parsePayment("", params, idx)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

// hasIndexedParams checks if the query contains "name.N" parameters.
func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if strings.Contains(key, ".") {
			return true
		}
	}
	return false
}

// extractIndex returns N for a "name.N" parameter, 0 for a bare "address"
// and -1 otherwise.
func extractIndex(paramName string) int {
	_, suffix, ok := strings.Cut(paramName, ".")
	if !ok {
		if paramName == "address" {
			return 0
		}
		return -1
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || idx > maxIndex {
		return -1
	}
	return idx
}

// getIndexedParam gets a parameter value for a specific index. Index 0 may
// be written without a suffix.
func getIndexedParam(params url.Values, name string, index int) string {
	if index == 0 {
		if val := params.Get(name); val != "" {
			return val
		}
	}
	return params.Get(fmt.Sprintf("%s.%d", name, index))
}

// ParseAmount converts a decimal coin amount such as "0.5" to satoshis.
//
// The conversion is exact: more than 8 fractional digits, signs, exponents
// and values that overflow an int64 are rejected.
func ParseAmount(s string) (uint64, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, errors.New("empty amount")
	}
	if len(frac) > coinDecimals {
		return 0, fmt.Errorf("more than %d decimal places", coinDecimals)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%q is not a decimal amount", s)
	}

	var coins uint64
	if whole != "" {
		var err error
		coins, err = strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a valid number: %w", err)
		}
	}
	if coins > math.MaxInt64/SatoshiPerCoin {
		return 0, errors.New("amount too large")
	}

	var sats uint64
	if frac != "" {
		padded := frac + strings.Repeat("0", coinDecimals-len(frac))
		sats, _ = strconv.ParseUint(padded, 10, 64)
	}

	total := coins*SatoshiPerCoin + sats
	if total > math.MaxInt64 {
		return 0, errors.New("amount too large")
	}
	return total, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatAmount formats satoshis as a decimal coin amount without trailing
// zeros.
func FormatAmount(sats uint64) string {
	str := fmt.Sprintf("%d.%08d", sats/SatoshiPerCoin, sats%SatoshiPerCoin)
	str = strings.TrimRight(str, "0")
	return strings.TrimSuffix(str, ".")
}

// ============================================================================
// Conversion and encoding
// ============================================================================

// OutputRequests converts the payments to builder output requests. Every
// payment must carry an amount.
func (req *PaymentRequest) OutputRequests() ([]api.OutputRequest, error) {
	outputs := make([]api.OutputRequest, 0, len(req.Payments))
	for i, p := range req.Payments {
		if p.Amount == nil {
			return nil, fmt.Errorf("payment %d to %s: %w", i, p.Address, ErrMissingAmount)
		}
		outputs = append(outputs, api.OutputRequest{Address: p.Address, Value: *p.Amount})
	}
	return outputs, nil
}

// Encode creates a URI from a PaymentRequest. It is the inverse of Parse.
func (req *PaymentRequest) Encode() string {
	switch len(req.Payments) {
	case 0:
		return Scheme + ":"
	case 1:
		return encodeSinglePayment(req.Payments[0])
	default:
		return encodeMultiplePayments(req.Payments)
	}
}

// encodeSinglePayment encodes a single payment as a URI.
func encodeSinglePayment(p Payment) string {
	uri := Scheme + ":" + p.Address

	params := url.Values{}
	addOptional(params, "", p)
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	return uri
}

// encodeMultiplePayments encodes multiple payments with indexed parameters
// starting at 1.
func encodeMultiplePayments(payments []Payment) string {
	params := url.Values{}
	for i, p := range payments {
		suffix := fmt.Sprintf(".%d", i+1)
		params.Add("address"+suffix, p.Address)
		addOptional(params, suffix, p)
	}
	return Scheme + ":?" + params.Encode()
}

func addOptional(params url.Values, suffix string, p Payment) {
	if p.Amount != nil {
		params.Add("amount"+suffix, FormatAmount(*p.Amount))
	}
	if p.Label != nil {
		params.Add("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Add("message"+suffix, *p.Message)
	}
}
