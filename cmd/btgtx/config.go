package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/crypto"
)

const (
	signerDeterministic = "deterministic"
	signerEntropy       = "entropy"

	maxWorkers = 1024
)

// Config holds the settings shared by every command.
type Config struct {
	Network  string `json:"network"`
	LogLevel string `json:"log_level"`
	LogDir   string `json:"log_dir"`
	Signer   string `json:"signer"`
	Workers  int    `json:"workers"`
}

var allowedLogLevels = map[string]struct{}{
	"trace":    {},
	"debug":    {},
	"info":     {},
	"warn":     {},
	"error":    {},
	"critical": {},
	"off":      {},
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Network:  chaincfg.Mainnet.String(),
		LogLevel: "warn",
		Signer:   signerDeterministic,
		Workers:  4,
	}
}

// LoadConfig reads a JSON config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidateConfig checks every field of cfg.
func ValidateConfig(cfg Config) error {
	if _, err := chaincfg.ParseNetwork(cfg.Network); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	switch cfg.Signer {
	case signerDeterministic, signerEntropy:
	default:
		return fmt.Errorf("invalid signer %q (want %s or %s)", cfg.Signer, signerDeterministic, signerEntropy)
	}
	if cfg.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if cfg.Workers > maxWorkers {
		return fmt.Errorf("workers must be <= %d", maxWorkers)
	}
	return nil
}

// Params returns the network parameters selected by cfg. The config must
// have been validated.
func (cfg Config) Params() *chaincfg.Params {
	net, _ := chaincfg.ParseNetwork(cfg.Network)
	return net.Params()
}

// NewSigner returns the signer selected by cfg.
func (cfg Config) NewSigner() crypto.Signer {
	if cfg.Signer == signerEntropy {
		return crypto.NewEntropySigner(nil)
	}
	return crypto.DeterministicSigner{}
}
