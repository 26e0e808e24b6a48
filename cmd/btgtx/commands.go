package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/btgtx/pkg/account"
	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/api"
	"github.com/suffix-labs/btgtx/pkg/payuri"
	"github.com/suffix-labs/btgtx/pkg/script"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

// ============================================================================
// build
// ============================================================================

func (c *cli) buildCmd() *cobra.Command {
	var requestFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and sign a transaction",
		Long: `Build and sign a transaction from a JSON request file and print its
hex encoding. Use "-" to read the request from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(requestFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			rawHex, err := c.build(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rawHex)
			return nil
		},
	}
	cmd.Flags().StringVarP(&requestFile, "request", "r", "-", "Request file")
	return cmd
}

func (c *cli) build(req *buildRequest) (string, error) {
	params := c.cfg.Params()

	outputs, err := req.outputs()
	if err != nil {
		return "", err
	}
	funding := req.funding()

	// Underfunded requests fail before any WIF is decoded.
	if err := api.CheckAmounts(funding, outputs); err != nil {
		return "", err
	}
	ids, err := req.identities(params.Net)
	if err != nil {
		return "", err
	}
	defer zeroIdentities(ids)

	b := api.NewBuilder(params, c.cfg.NewSigner())
	return b.BuildAndSignPositional(funding, outputs, ids)
}

// ============================================================================
// generate
// ============================================================================

// generatedAccount is the JSON form of a generated account.
type generatedAccount struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	WIF       string `json:"wif"`
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		count        int
		uncompressed bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate key pairs",
		Long:  "Generate key pairs and print one JSON object per account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := account.Generate(cmd.Context(), c.cfg.Params(), count, account.Options{
				Workers:    c.cfg.Workers,
				Compressed: !uncompressed,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, a := range accounts {
				err := enc.Encode(generatedAccount{
					Address:   a.Address,
					PublicKey: hex.EncodeToString(a.PublicKey),
					WIF:       a.WIF,
				})
				a.PrivateKey.Zero()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of accounts")
	cmd.Flags().BoolVar(&uncompressed, "uncompressed", false, "Use uncompressed public keys")
	return cmd
}

// ============================================================================
// decode-address
// ============================================================================

func (c *cli) decodeAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-address <address>",
		Short: "Decode a Base58Check address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := address.Decode(args[0], nil)
			if err != nil {
				return err
			}
			hash := addr.Payload.Hash160()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Address: %s\n", addr)
			fmt.Fprintf(out, "Kind:    %s\n", addr.Payload.Kind())
			fmt.Fprintf(out, "Network: %s\n", addr.Network)
			fmt.Fprintf(out, "Hash160: %x\n", hash[:])
			return nil
		},
	}
}

// ============================================================================
// decode-tx
// ============================================================================

func (c *cli) decodeTxCmd() *cobra.Command {
	var verifyRequest string

	cmd := &cobra.Command{
		Use:   "decode-tx <hex>",
		Short: "Decode a raw transaction",
		Long: `Decode a raw transaction. With --verify-request, the signature of every
input is checked against the inputs of the request file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := c.cfg.Params()

			var (
				t   *tx.Tx
				err error
			)
			if verifyRequest != "" {
				req, err := readRequest(verifyRequest, cmd.InOrStdin())
				if err != nil {
					return err
				}
				t, err = api.NewBuilder(params, nil).VerifyTransaction(args[0], req.funding())
				if err != nil {
					return err
				}
			} else {
				t, err = tx.ParseHex(args[0])
				if err != nil {
					return err
				}
			}

			printTx(cmd.OutOrStdout(), t, c.cfg)
			if verifyRequest != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Signatures: valid")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&verifyRequest, "verify-request", "", "Request file with the spent outputs")
	return cmd
}

func printTx(w io.Writer, t *tx.Tx, cfg Config) {
	net := cfg.Params().Net

	fmt.Fprintf(w, "TxID:     %v\n", t.TxHash())
	fmt.Fprintf(w, "Version:  %d\n", t.Version)
	fmt.Fprintf(w, "LockTime: %d\n", t.LockTime)
	fmt.Fprintf(w, "Size:     %d bytes\n\n", t.SerializeSize())

	for i, in := range t.TxIn {
		fmt.Fprintf(w, "Input %d:\n", i)
		fmt.Fprintf(w, "  Outpoint: %v\n", in.PreviousOutPoint)
		fmt.Fprintf(w, "  Sequence: %#x\n", in.Sequence)
		if pushes, err := script.PushedData(in.SignatureScript); err == nil && len(pushes) == 2 {
			fmt.Fprintf(w, "  Signer:   %s\n", address.FromPublicKey(pushes[1], net))
		}
	}
	for i, out := range t.TxOut {
		fmt.Fprintf(w, "Output %d:\n", i)
		if out.Value < 0 {
			fmt.Fprintf(w, "  Value:    %d (negative)\n", out.Value)
		} else {
			fmt.Fprintf(w, "  Value:    %d (%s)\n", out.Value, payuri.FormatAmount(uint64(out.Value)))
		}
		if hash, ok := script.ExtractPubKeyHash(out.PkScript); ok {
			fmt.Fprintf(w, "  Address:  %s\n", address.Address{Payload: hash, Network: net})
		} else {
			fmt.Fprintf(w, "  Script:   %x\n", out.PkScript)
		}
	}
}

// ============================================================================
// parse-uri
// ============================================================================

func (c *cli) parseURICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-uri <uri>",
		Short: "Parse a payment request URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := payuri.Parse(args[0])
			if err != nil {
				return err
			}

			net := c.cfg.Params().Net
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Payments: %d\n\n", len(req.Payments))
			for i, p := range req.Payments {
				fmt.Fprintf(out, "Payment %d:\n", i+1)
				fmt.Fprintf(out, "  Address: %s\n", p.Address)
				if _, err := address.Decode(p.Address, &net); err != nil {
					var mismatch *address.NetworkMismatchError
					if errors.As(err, &mismatch) {
						fmt.Fprintf(out, "  Warning: address is for %v\n", mismatch.Actual)
					} else {
						fmt.Fprintf(out, "  Warning: %v\n", err)
					}
				}
				if p.Amount != nil {
					fmt.Fprintf(out, "  Amount:  %s BTG\n", payuri.FormatAmount(*p.Amount))
				} else {
					fmt.Fprintln(out, "  Amount:  (user specified)")
				}
				if p.Label != nil {
					fmt.Fprintf(out, "  Label:   %s\n", *p.Label)
				}
				if p.Message != nil {
					fmt.Fprintf(out, "  Message: %s\n", *p.Message)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Re-encoded URI:\n%s\n", req.Encode())
			return nil
		},
	}
}
