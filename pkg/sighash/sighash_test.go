package sighash

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btgtx/pkg/tx"
)

const btgForkID = 79

// twoInputRaw spends two outpoints (the second with sequence 0xfffffffe) to
// two pay-to-pubkey-hash outputs of 50000 and 1234.
const twoInputRaw = "0200000002000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f" +
	"0000000000ffffffffaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" +
	"0500000000feffffff0250c30000000000001976a914111111111111111111111111111111111111111188" +
	"acd2040000000000001976a914111111111111111111111111111111111111111188ac00000000"

// fundingScript is the locking script both inputs are signed against.
const fundingScript = "76a914222222222222222222222222222222222222222288ac"

func mustTx(t *testing.T, raw string) *tx.Tx {
	t.Helper()
	parsed, err := tx.ParseHex(raw)
	require.NoError(t, err)
	return parsed
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// TestBIP143Vector checks the preimage layout against the native P2WPKH
// example from BIP143, which is the same algorithm with a zero fork id.
func TestBIP143Vector(t *testing.T) {
	unsigned := mustTx(t, "010000000199dffb02e8f3e3f8053eecf6110a95f77ba658690dfc3a447b7e52cf34ca135e"+
		"0000000000ffffffff02581b000000000000160014d849b1e1cede2ac7d7188cf8700e97d6975c91c4"+
		"e8030000000000001976a914d849b1e1cede2ac7d7188cf8700e97d6975c91c488ac00000000")
	scriptCode := mustHex(t, "76a914d849b1e1cede2ac7d7188cf8700e97d6975c91c488ac")

	var b bytes.Buffer
	err := writePreimage(&b, unsigned, 0, scriptCode, 9000, All, 0, NewCache(unsigned))
	require.NoError(t, err)

	digest := chainhash.DoubleHashH(b.Bytes())
	assert.Equal(t, "cc493a708e6ec962f2be8dc0a24c35966ee46f563de8bf219b9c5313a3b24e58", hex.EncodeToString(digest[:]))
}

func TestForkIDDigests(t *testing.T) {
	unsigned := mustTx(t, twoInputRaw)
	script := mustHex(t, fundingScript)

	tests := []struct {
		name     string
		idx      int
		hashType Type
		want     string
	}{
		{"input 0 all", 0, All | ForkID, "4f4b3f826d5b7f943eeef183a322b375f5215a1253bd7dd87b035cca275b61cf"},
		{"input 0 none", 0, None | ForkID, "db51c57beb87c7471e94794f95e3b0f18185c5795edcd8186b85027e3275a555"},
		{"input 1 all", 1, All | ForkID, "9bb0d25b38ab5c3bd9d0922fe43e1411065f1646b9dfb74b6bda7f809562cdec"},
		{"input 1 none", 1, None | ForkID, "7a6689a0ebec2e73df1ac00615f30d761ce4e243eeff4ee5dbb0c5f83e396db2"},
	}

	cache := NewCache(unsigned)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := CalcSignatureHash(unsigned, tt.idx, script, 100000, tt.hashType, btgForkID, cache)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(digest[:]))

			uncached, err := CalcSignatureHash(unsigned, tt.idx, script, 100000, tt.hashType, btgForkID, nil)
			require.NoError(t, err)
			assert.Equal(t, digest, uncached)
		})
	}
}

func TestPreimageLayout(t *testing.T) {
	unsigned := mustTx(t, twoInputRaw)
	script := mustHex(t, fundingScript)

	preimage, err := Preimage(unsigned, 0, script, 100000, AllForkID, btgForkID, nil)
	require.NoError(t, err)

	want := "02000000" +
		"94f8a8c7eb43ef1d29c8a42afefc9e8e02634f7644d2aea08de7b7d9b45755a9" +
		"9a9ce82897468e42685eb3e0d509dd5039530c4bcc11e453fd5eda5ca5c9490d" +
		"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f00000000" +
		"19" + fundingScript +
		"a086010000000000" +
		"ffffffff" +
		"3e4f246e64735eaf336ac1d1e2160ec64cdf05bf28f02b1978900641ce7c0244" +
		"00000000" +
		"414f0000"
	assert.Equal(t, want, hex.EncodeToString(preimage))
}

func TestCacheComputesOnce(t *testing.T) {
	unsigned := tx.NewTx(tx.TxVersion)
	for i := 0; i < 5; i++ {
		hash := chainhash.Hash{byte(i + 1)}
		unsigned.AddTxIn(tx.NewTxIn(tx.NewOutPoint(&hash, uint32(i)), nil))
	}
	unsigned.AddTxOut(tx.NewTxOut(1000, mustHex(t, fundingScript)))

	cache := NewCache(unsigned)
	assert.Equal(t, Stats{}, cache.Stats())

	script := mustHex(t, fundingScript)
	seen := make(map[chainhash.Hash]bool)
	for i := range unsigned.TxIn {
		digest, err := CalcSignatureHash(unsigned, i, script, 2000, AllForkID, btgForkID, cache)
		require.NoError(t, err)
		seen[digest] = true
	}

	assert.Len(t, seen, len(unsigned.TxIn))
	assert.Equal(t, Stats{PrevOuts: 1, Sequence: 1, Outputs: 1}, cache.Stats())
}

func TestNoneSkipsSequenceAndOutputs(t *testing.T) {
	unsigned := mustTx(t, twoInputRaw)
	cache := NewCache(unsigned)

	_, err := CalcSignatureHash(unsigned, 0, nil, 1, None|ForkID, btgForkID, cache)
	require.NoError(t, err)
	assert.Equal(t, Stats{PrevOuts: 1}, cache.Stats())

	preimage, err := Preimage(unsigned, 0, nil, 1, None|ForkID, btgForkID, cache)
	require.NoError(t, err)
	require.Len(t, preimage, 4+32+32+36+1+8+4+32+4+4)

	var zero [32]byte
	prevOuts := cache.HashPrevOuts()
	assert.Equal(t, prevOuts[:], preimage[4:36])
	assert.Equal(t, zero[:], preimage[36:68], "hashSequence")
	assert.Equal(t, zero[:], preimage[117:149], "hashOutputs")
}

func TestUnsupportedHashTypes(t *testing.T) {
	unsigned := mustTx(t, twoInputRaw)

	for _, ht := range []Type{
		All,
		None,
		Single | ForkID,
		All | ForkID | AnyOneCanPay,
		None | ForkID | AnyOneCanPay,
		ForkID,
		All | ForkID | 0x20,
		0x141,
	} {
		t.Run(ht.String(), func(t *testing.T) {
			_, err := CalcSignatureHash(unsigned, 0, nil, 1, ht, btgForkID, nil)
			assert.True(t, errors.Is(err, ErrUnsupportedHashType), "got %v", err)
		})
	}
}

func TestInputIndexAndCacheErrors(t *testing.T) {
	unsigned := mustTx(t, twoInputRaw)

	for _, idx := range []int{-1, 2, 10} {
		_, err := CalcSignatureHash(unsigned, idx, nil, 1, AllForkID, btgForkID, nil)
		assert.True(t, errors.Is(err, ErrInputIndex), "index %d: %v", idx, err)
	}

	other := mustTx(t, twoInputRaw)
	_, err := CalcSignatureHash(unsigned, 0, nil, 1, AllForkID, btgForkID, NewCache(other))
	assert.True(t, errors.Is(err, ErrCacheMismatch))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "ALL|FORKID", AllForkID.String())
	assert.Equal(t, "NONE|FORKID|ANYONECANPAY", (None | ForkID | AnyOneCanPay).String())
	assert.Equal(t, "SINGLE", Single.String())
}
