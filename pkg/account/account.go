// Package account generates pay-to-pubkey-hash key pairs in bulk.
//
// Generation shards the requested count across workers. Each worker owns an
// independent frand generator, so workers share no mutable state.
package account

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/crypto"
)

// Account is a generated key pair and its address.
type Account struct {
	PrivateKey *crypto.PrivateKey
	PublicKey  []byte // serialized per Options.Compressed
	Address    string
	WIF        string
}

// Options controls generation.
type Options struct {
	// Workers is the number of goroutines. Zero means runtime.NumCPU().
	Workers int

	// Compressed selects 33-byte public keys. The default is 65-byte
	// uncompressed keys.
	Compressed bool
}

// Generate returns n accounts for the network in params. Accounts are
// returned in a stable order: the shards are concatenated by worker index.
func Generate(ctx context.Context, params *chaincfg.Params, n int, opts Options) ([]Account, error) {
	if params == nil {
		return nil, errors.New("nil network params")
	}
	if n < 0 {
		return nil, fmt.Errorf("account count must not be negative, got %d", n)
	}
	if n == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	log.Debugf("Generating %d %s accounts across %d workers", n, params.Name, workers)

	accounts := make([]Account, n)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start, end := shard(n, workers, w)
		g.Go(func() error {
			rng := frand.New()
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				acct, err := newAccount(rng, params, opts.Compressed)
				if err != nil {
					return fmt.Errorf("failed to generate account %d: %w", i, err)
				}
				accounts[i] = acct
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Infof("Generated %d accounts", n)
	return accounts, nil
}

// shard returns the half-open range of indices worker w of workers handles.
func shard(n, workers, w int) (int, int) {
	size := n / workers
	rem := n % workers
	start := w*size + min(w, rem)
	end := start + size
	if w < rem {
		end++
	}
	return start, end
}

func newAccount(rng *frand.RNG, params *chaincfg.Params, compressed bool) (Account, error) {
	key, err := crypto.GeneratePrivateKey(rng)
	if err != nil {
		return Account{}, err
	}

	pub := key.PublicKey().Serialize(compressed)
	addr := address.FromPublicKey(pub, params.Net)

	return Account{
		PrivateKey: key,
		PublicKey:  pub,
		Address:    addr.String(),
		WIF:        crypto.EncodeWIF(key, compressed, params.Net),
	}, nil
}
