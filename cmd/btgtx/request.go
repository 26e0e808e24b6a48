package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/suffix-labs/btgtx/pkg/api"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/crypto"
	"github.com/suffix-labs/btgtx/pkg/payuri"
)

// inputSpec is a funding request plus the WIF of the key that signs it.
type inputSpec struct {
	api.FundingRequest `mapstructure:",squash"`
	WIF                string `mapstructure:"wif"`
}

// buildRequest is the document read by the build and decode-tx commands.
//
//	{
//	  "inputs":  [{"txid": "...", "index": 0, "address": "...", "credit": 100000, "wif": "..."}],
//	  "outputs": [{"address": "...", "value": 50000}],
//	  "payment_uri": "bitcoingold:...?amount=0.0005"
//	}
//
// Outputs requested by payment_uri are appended after outputs.
type buildRequest struct {
	Inputs     []inputSpec         `mapstructure:"inputs"`
	Outputs    []api.OutputRequest `mapstructure:"outputs"`
	PaymentURI string              `mapstructure:"payment_uri"`
}

// readRequest decodes the request file at path. "-" reads standard input.
func readRequest(path string, stdin io.Reader) (*buildRequest, error) {
	if path == "-" {
		return decodeRequest(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open request: %w", err)
	}
	defer f.Close()
	return decodeRequest(f)
}

// decodeRequest decodes a JSON request. Numbers are kept as json.Number so
// satoshi amounts above 2^53 survive decoding.
func decodeRequest(r io.Reader) (*buildRequest, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	var req buildRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &req,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// funding returns the funding requests in input order.
func (r *buildRequest) funding() []api.FundingRequest {
	funding := make([]api.FundingRequest, len(r.Inputs))
	for i, in := range r.Inputs {
		funding[i] = in.FundingRequest
	}
	return funding
}

// outputs returns the explicit outputs followed by those of the payment URI.
func (r *buildRequest) outputs() ([]api.OutputRequest, error) {
	outputs := append([]api.OutputRequest(nil), r.Outputs...)
	if r.PaymentURI == "" {
		return outputs, nil
	}

	pr, err := payuri.Parse(r.PaymentURI)
	if err != nil {
		return nil, fmt.Errorf("invalid payment_uri: %w", err)
	}
	uriOutputs, err := pr.OutputRequests()
	if err != nil {
		return nil, fmt.Errorf("invalid payment_uri: %w", err)
	}
	return append(outputs, uriOutputs...), nil
}

// identities parses every input's WIF in input order. Keys for a different
// network are rejected. On error no parsed key is left unzeroed.
func (r *buildRequest) identities(net chaincfg.Network) ([]api.Identity, error) {
	ids := make([]api.Identity, 0, len(r.Inputs))
	for i, in := range r.Inputs {
		wif, err := crypto.ParsePrivateKeyWIF(in.WIF)
		if err != nil {
			zeroIdentities(ids)
			return nil, fmt.Errorf("input %d: invalid wif: %w", i, err)
		}
		if wif.Network != net {
			wif.PrivateKey.Zero()
			zeroIdentities(ids)
			return nil, fmt.Errorf("input %d: wif is for %v, not %v", i, wif.Network, net)
		}
		ids = append(ids, api.Identity{PrivateKey: wif.PrivateKey, Compressed: wif.Compressed})
	}
	return ids, nil
}

// zeroIdentities clears the key material of ids.
func zeroIdentities(ids []api.Identity) {
	for _, id := range ids {
		id.PrivateKey.Zero()
	}
}
