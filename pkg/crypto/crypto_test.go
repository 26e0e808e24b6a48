package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"

	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

const generatorX = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func keyOne(t *testing.T) *PrivateKey {
	t.Helper()
	raw := make([]byte, PrivateKeySize)
	raw[31] = 1
	key, err := PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return key
}

func TestPublicKeyEncodings(t *testing.T) {
	pub := keyOne(t).PublicKey()

	compressed := pub.SerializeCompressed()
	assert.Equal(t, "02"+generatorX, hex.EncodeToString(compressed[:]))

	uncompressed := pub.SerializeUncompressed()
	assert.Equal(t, "04"+generatorX+"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8",
		hex.EncodeToString(uncompressed[:]))

	assert.Equal(t, compressed[:], pub.Serialize(true))
	assert.Equal(t, uncompressed[:], pub.Serialize(false))

	for _, enc := range [][]byte{compressed[:], uncompressed[:]} {
		parsed, err := ParsePublicKey(enc)
		require.NoError(t, err)
		assert.True(t, parsed.IsEqual(pub))
	}

	_, err := ParsePublicKey(compressed[:32])
	require.Error(t, err)
	_, err = ParsePublicKey(append([]byte{0x05}, compressed[1:]...))
	require.Error(t, err)
}

func TestPrivateKeyFromBytesRejects(t *testing.T) {
	_, err := PrivateKeyFromBytes(make([]byte, 31))
	require.Error(t, err)

	_, err = PrivateKeyFromBytes(make([]byte, 32))
	require.Error(t, err, "zero key")

	_, err = PrivateKeyFromBytes(bytes.Repeat([]byte{0xff}, 32))
	require.Error(t, err, "key above the group order")
}

func TestPrivateKeyZero(t *testing.T) {
	key := keyOne(t)
	require.NotEqual(t, make([]byte, PrivateKeySize), key.Bytes())

	key.Zero()
	assert.Equal(t, make([]byte, PrivateKeySize), key.Bytes())

	var missing *PrivateKey
	assert.NotPanics(t, missing.Zero)
}

func TestWIF(t *testing.T) {
	tests := []struct {
		name       string
		wif        string
		compressed bool
		net        chaincfg.Network
	}{
		{"mainnet compressed", "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", true, chaincfg.Mainnet},
		{"mainnet uncompressed", "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf", false, chaincfg.Mainnet},
		{"testnet compressed", "cMahea7zqjxrtgAbB7LSGbcQUr1uX1ojuat9jZodMN87JcbXMTcA", true, chaincfg.Testnet},
	}

	one := keyOne(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParsePrivateKeyWIF(tt.wif)
			require.NoError(t, err)
			assert.Equal(t, one.Bytes(), w.PrivateKey.Bytes())
			assert.Equal(t, tt.compressed, w.Compressed)
			assert.Equal(t, tt.net, w.Network)
			assert.Equal(t, tt.wif, w.String())
			assert.Equal(t, tt.wif, EncodeWIF(one, tt.compressed, tt.net))
			assert.Equal(t, one.PublicKey().Serialize(tt.compressed), w.SerializePubKey())
		})
	}

	t.Run("bad checksum", func(t *testing.T) {
		_, err := ParsePrivateKeyWIF("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWo")
		require.Error(t, err)
	})

	t.Run("address is not a WIF", func(t *testing.T) {
		_, err := ParsePrivateKeyWIF("GUXByHDZLvU4DnVH9imSFckt3HEQ5cFgE5")
		require.Error(t, err)
	})
}

func TestDeterministicSigner(t *testing.T) {
	key := keyOne(t)
	digest := sha256.Sum256([]byte("deterministic"))

	first, err := DeterministicSigner{}.Sign(digest, key)
	require.NoError(t, err)
	second, err := DeterministicSigner{}.Sign(digest, key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NoError(t, CheckSignature(first))
	assert.True(t, VerifySignature(key.PublicKey(), digest, first))

	other := sha256.Sum256([]byte("other"))
	assert.False(t, VerifySignature(key.PublicKey(), other, first))
}

func TestEntropySigner(t *testing.T) {
	key, err := GeneratePrivateKey(frand.New())
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("entropy"))

	signer := NewEntropySigner(nil)
	first, err := signer.Sign(digest, key)
	require.NoError(t, err)
	second, err := signer.Sign(digest, key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, sig := range [][]byte{first, second} {
		require.NoError(t, CheckSignature(sig))
		assert.True(t, VerifySignature(key.PublicKey(), digest, sig))
	}

	deterministic, err := DeterministicSigner{}.Sign(digest, key)
	require.NoError(t, err)
	assert.NotEqual(t, deterministic, first)
}

func TestEntropySignerFixedSeed(t *testing.T) {
	key := keyOne(t)
	digest := sha256.Sum256([]byte("seeded"))
	seed := make([]byte, 32)

	a, err := NewEntropySigner(frand.NewCustom(seed, 64, 12)).Sign(digest, key)
	require.NoError(t, err)
	b, err := NewEntropySigner(frand.NewCustom(seed, 64, 12)).Sign(digest, key)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, VerifySignature(key.PublicKey(), digest, a))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestSignerErrors(t *testing.T) {
	digest := sha256.Sum256(nil)

	_, err := NewEntropySigner(failingReader{}).Sign(digest, keyOne(t))
	require.Error(t, err)

	_, err = DeterministicSigner{}.Sign(digest, nil)
	require.Error(t, err)
	_, err = NewEntropySigner(nil).Sign(digest, nil)
	require.Error(t, err)
}

func TestCheckSignature(t *testing.T) {
	assert.True(t, errors.Is(CheckSignature(nil), ErrInvalidSignature))
	assert.True(t, errors.Is(CheckSignature(make([]byte, 7)), ErrInvalidSignature))
	assert.True(t, errors.Is(CheckSignature(make([]byte, 73)), ErrInvalidSignature))
	assert.True(t, errors.Is(CheckSignature(bytes.Repeat([]byte{0x30}, 70)), ErrInvalidSignature))
}
