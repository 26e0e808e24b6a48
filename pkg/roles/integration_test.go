package roles

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
	"github.com/suffix-labs/btgtx/pkg/crypto"
	"github.com/suffix-labs/btgtx/pkg/script"
	"github.com/suffix-labs/btgtx/pkg/sighash"
	"github.com/suffix-labs/btgtx/pkg/tx"
)

func testKey(t *testing.T, last byte) *crypto.PrivateKey {
	t.Helper()
	privateKeyBytes := [32]byte{
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
		0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
		0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, last,
	}
	key, err := crypto.PrivateKeyFromBytes(privateKeyBytes[:])
	require.NoError(t, err)
	return key
}

func p2pkhFor(t *testing.T, key *crypto.PrivateKey, compressed bool) []byte {
	t.Helper()
	hash := address.Hash160(key.PublicKey().Serialize(compressed))
	pkScript, err := script.PayToPubKeyHash(hash[:])
	require.NoError(t, err)
	return pkScript
}

// buildDraft creates a finalized draft with one input per key and a single
// output.
func buildDraft(t *testing.T, keys []*crypto.PrivateKey) *Draft {
	t.Helper()

	draft := NewCreator(&chaincfg.TestNetParams).Create()
	c := NewConstructor(draft)
	for i, key := range keys {
		hash := chainhash.Hash{byte(i + 1), 0xab}
		require.NoError(t, c.AddInput(tx.OutPoint{Hash: hash, Index: uint32(i)}, 60000, p2pkhFor(t, key, true), nil))
	}

	dest := address.FromPublicKey(keys[0].PublicKey().Serialize(true), chaincfg.Testnet)
	require.NoError(t, c.AddAddressOutput(50000*int64(len(keys)), dest))

	f := NewIoFinalizer(c.Finish())
	require.NoError(t, f.Finalize())
	return f.Finish()
}

// verifyInput checks input i's unlocking script against a freshly computed
// digest.
func verifyInput(t *testing.T, d *Draft, i int) {
	t.Helper()

	pushes, err := script.PushedData(d.Tx.TxIn[i].SignatureScript)
	require.NoError(t, err)
	require.Len(t, pushes, 2)

	sig, pubBytes := pushes[0], pushes[1]
	require.Equal(t, byte(sighash.AllForkID), sig[len(sig)-1])

	digest, err := sighash.CalcSignatureHash(d.Tx, i, d.Inputs[i].PkScript, d.Inputs[i].Amount,
		sighash.AllForkID, d.Params.ForkID, nil)
	require.NoError(t, err)

	pub, err := crypto.ParsePublicKey(pubBytes)
	require.NoError(t, err)
	assert.True(t, crypto.VerifySignature(pub, digest, sig[:len(sig)-1]), "input %d", i)

	hash, ok := script.ExtractPubKeyHash(d.Inputs[i].PkScript)
	require.True(t, ok)
	assert.Equal(t, address.Hash160(pubBytes), hash.Hash160())
}

func TestSignAndExtract(t *testing.T) {
	keys := []*crypto.PrivateKey{testKey(t, 0x01), testKey(t, 0x02), testKey(t, 0x03)}
	draft := buildDraft(t, keys)

	signer := NewSigner(draft, nil)
	for i, key := range keys {
		require.NoError(t, signer.SignInput(i, key, true))
	}
	assert.Equal(t, sighash.Stats{PrevOuts: 1, Sequence: 1, Outputs: 1}, signer.CacheStats())

	sf := NewSpendFinalizer(signer.Finish())
	require.NoError(t, sf.Finalize())

	extracted, err := NewTxExtractor(sf.Finish()).Extract()
	require.NoError(t, err)
	assert.Equal(t, int32(tx.TxVersion), extracted.Version)
	assert.Equal(t, uint32(0), extracted.LockTime)
	require.Len(t, extracted.TxIn, 3)
	require.Len(t, extracted.TxOut, 1)

	for i := range keys {
		verifyInput(t, draft, i)
	}

	hexTx, err := NewTxExtractor(draft).ExtractHex()
	require.NoError(t, err)
	reparsed, err := tx.ParseHex(hexTx)
	require.NoError(t, err)
	assert.Equal(t, extracted.TxHash(), reparsed.TxHash())
}

func TestConstructorFrozen(t *testing.T) {
	draft := buildDraft(t, []*crypto.PrivateKey{testKey(t, 0x01)})
	c := NewConstructor(draft)

	err := c.AddInput(tx.OutPoint{}, 1, []byte{script.OpDup}, nil)
	assert.True(t, errors.Is(err, ErrInputsFrozen))

	err = c.AddOutput(1, []byte{script.OpDup})
	assert.True(t, errors.Is(err, ErrOutputsFrozen))
}

func TestConstructorValidation(t *testing.T) {
	c := NewConstructor(NewCreator(&chaincfg.MainNetParams).WithLockTime(500).Create())

	require.Error(t, c.AddInput(tx.OutPoint{}, -1, []byte{script.OpDup}, nil))
	require.Error(t, c.AddInput(tx.OutPoint{}, 1, nil, nil))
	require.Error(t, c.AddOutput(-5, []byte{script.OpDup}))

	seq := uint32(7)
	require.NoError(t, c.AddInput(tx.OutPoint{Index: 3}, 1, []byte{script.OpDup}, &seq))
	d := c.Finish()
	assert.Equal(t, seq, d.Tx.TxIn[0].Sequence)
	assert.Equal(t, uint32(500), d.Tx.LockTime)
	assert.Empty(t, d.Tx.TxIn[0].SignatureScript)

	var sh address.ScriptHash
	err := c.AddAddressOutput(1, address.Address{Payload: sh, Network: chaincfg.Mainnet})
	assert.True(t, errors.Is(err, script.ErrNotSupportedAddressForm))
}

func TestIoFinalizerRequiresInputs(t *testing.T) {
	f := NewIoFinalizer(NewCreator(&chaincfg.MainNetParams).Create())
	require.Error(t, f.Finalize())
}

func TestSignerErrors(t *testing.T) {
	key := testKey(t, 0x01)

	unfinished := NewCreator(&chaincfg.MainNetParams).Create()
	require.NoError(t, NewConstructor(unfinished).AddInput(tx.OutPoint{}, 1, p2pkhFor(t, key, true), nil))
	err := NewSigner(unfinished, nil).SignInput(0, key, true)
	assert.True(t, errors.Is(err, ErrNotFinalized))

	draft := buildDraft(t, []*crypto.PrivateKey{key})
	s := NewSigner(draft, crypto.NewEntropySigner(nil))
	require.Error(t, s.SignInput(1, key, true))
	require.Error(t, s.SignInput(-1, key, true))
	require.Error(t, s.SignInput(0, nil, true))

	draft.Inputs[0].SigHashType = sighash.Single | sighash.ForkID
	err = s.SignInput(0, key, true)
	assert.True(t, errors.Is(err, sighash.ErrUnsupportedHashType))
}

type brokenSigner struct{}

func (brokenSigner) Sign([32]byte, *crypto.PrivateKey) ([]byte, error) {
	return []byte{0x30, 0x01}, nil
}

func TestSignerRejectsMalformedSignature(t *testing.T) {
	key := testKey(t, 0x01)
	draft := buildDraft(t, []*crypto.PrivateKey{key})

	err := NewSigner(draft, brokenSigner{}).SignInput(0, key, true)
	assert.True(t, errors.Is(err, crypto.ErrInvalidSignature))
	assert.False(t, draft.Inputs[0].Signed())
}

func TestSpendFinalizerAndExtractorRequireSignatures(t *testing.T) {
	draft := buildDraft(t, []*crypto.PrivateKey{testKey(t, 0x01)})

	require.Error(t, NewSpendFinalizer(draft).Finalize())
	_, err := NewTxExtractor(draft).Extract()
	require.Error(t, err)

	open := NewCreator(&chaincfg.MainNetParams).Create()
	_, err = NewTxExtractor(open).Extract()
	require.Error(t, err)
}

func TestCombiner(t *testing.T) {
	keys := []*crypto.PrivateKey{testKey(t, 0x01), testKey(t, 0x02)}
	base := buildDraft(t, keys)

	first := base.Copy()
	require.NoError(t, NewSigner(first, nil).SignInput(0, keys[0], true))
	second := base.Copy()
	require.NoError(t, NewSigner(second, nil).SignInput(1, keys[1], true))

	combined, err := NewCombiner([]*Draft{first, second}).Combine()
	require.NoError(t, err)
	assert.True(t, combined.Inputs[0].Signed())
	assert.True(t, combined.Inputs[1].Signed())

	sf := NewSpendFinalizer(combined)
	require.NoError(t, sf.Finalize())
	for i := range keys {
		verifyInput(t, combined, i)
	}

	t.Run("conflicting signatures", func(t *testing.T) {
		other := base.Copy()
		require.NoError(t, NewSigner(other, crypto.NewEntropySigner(nil)).SignInput(0, keys[0], true))
		_, err := NewCombiner([]*Draft{first, other}).Combine()
		require.Error(t, err)
	})

	t.Run("different transaction", func(t *testing.T) {
		other := buildDraft(t, []*crypto.PrivateKey{keys[1]})
		_, err := NewCombiner([]*Draft{first, other}).Combine()
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewCombiner(nil).Combine()
		require.Error(t, err)
	})
}
