// btgtx builds and signs Bitcoin Gold transactions.
//
// Example usage:
//
//	# Build and sign a transaction described by a request file
//	btgtx build --request request.json
//
//	# Generate key pairs
//	btgtx generate --count 10 --network testnet
//
//	# Inspect addresses, transactions and payment URIs
//	btgtx decode-address GUXByHDZLvU4DnVH9imSFckt3HEQ5cFgE5
//	btgtx decode-tx <hex> --verify-request request.json
//	btgtx parse-uri "bitcoingold:GUXByHDZLvU4DnVH9imSFckt3HEQ5cFgE5?amount=1.5"
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version of the btgtx program.
const Version = "0.2.0"

// cli carries the configuration of one invocation.
type cli struct {
	configFile string
	cfg        Config

	// Flag overrides, applied when set on the command line.
	network  string
	logLevel string
	logDir   string
	signer   string
	workers  int
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "btgtx",
		Short:         "Bitcoin Gold transaction builder v" + Version,
		Long:          "Build, sign and inspect Bitcoin Gold pay-to-pubkey-hash transactions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLogRotator()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "C", "", "JSON config file")
	flags.StringVarP(&c.network, "network", "n", "", "Network: mainnet or testnet")
	flags.StringVar(&c.logLevel, "loglevel", "", "Log level: trace, debug, info, warn, error, critical, off")
	flags.StringVar(&c.logDir, "logdir", "", "Directory for rotated log files")
	flags.StringVar(&c.signer, "signer", "", "Nonce mode: deterministic or entropy")
	flags.IntVar(&c.workers, "workers", 0, "Goroutines used by generate")

	root.AddCommand(
		c.buildCmd(),
		c.generateCmd(),
		c.decodeAddressCmd(),
		c.decodeTxCmd(),
		c.parseURICmd(),
		versionCmd(),
	)
	return root
}

// setup loads the config file, applies flag overrides and starts logging.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(c.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("network") {
		cfg.Network = c.network
	}
	if flags.Changed("loglevel") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("logdir") {
		cfg.LogDir = c.logDir
	}
	if flags.Changed("signer") {
		cfg.Signer = c.signer
	}
	if flags.Changed("workers") {
		cfg.Workers = c.workers
	}

	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	c.cfg = cfg

	if cfg.LogDir != "" {
		if err := initLogRotator(filepath.Join(cfg.LogDir, "btgtx.log")); err != nil {
			return err
		}
	}
	setLogLevels(cfg.LogLevel)
	mainLog.Debugf("Using %s network, %s signer", cfg.Network, cfg.Signer)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "btgtx v%s\n", Version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLogRotator()
		os.Exit(1)
	}
}
