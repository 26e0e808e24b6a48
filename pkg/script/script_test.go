package script

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btgtx/pkg/address"
	"github.com/suffix-labs/btgtx/pkg/chaincfg"
)

func TestPayToPubKeyHash(t *testing.T) {
	hash, _ := hex.DecodeString("d849b1e1cede2ac7d7188cf8700e97d6975c91c4")

	script, err := PayToPubKeyHash(hash)
	require.NoError(t, err)
	assert.Equal(t, "76a914d849b1e1cede2ac7d7188cf8700e97d6975c91c488ac", hex.EncodeToString(script))

	got, ok := ExtractPubKeyHash(script)
	require.True(t, ok)
	assert.Equal(t, hash, got[:])

	_, err = PayToPubKeyHash(hash[:19])
	require.Error(t, err)
}

func TestLockingScript(t *testing.T) {
	var hash [address.HashSize]byte
	copy(hash[:], bytes.Repeat([]byte{0xab}, address.HashSize))

	t.Run("pubkeyhash", func(t *testing.T) {
		addr := address.Address{Payload: address.PubKeyHash(hash), Network: chaincfg.Mainnet}
		script, err := LockingScript(addr)
		require.NoError(t, err)
		assert.Len(t, script, P2PKHSize)

		got, ok := ExtractPubKeyHash(script)
		require.True(t, ok)
		assert.Equal(t, address.PubKeyHash(hash), got)
	})

	t.Run("scripthash rejected", func(t *testing.T) {
		addr := address.Address{Payload: address.ScriptHash(hash), Network: chaincfg.Testnet}
		_, err := LockingScript(addr)
		require.True(t, errors.Is(err, ErrNotSupportedAddressForm), "got %v", err)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, err := LockingScript(address.Address{})
		require.True(t, errors.Is(err, ErrNotSupportedAddressForm))
	})
}

func TestSignatureScript(t *testing.T) {
	sig := bytes.Repeat([]byte{0x30}, 71)
	pub := bytes.Repeat([]byte{0x02}, 33)

	script, err := SignatureScript(sig, pub)
	require.NoError(t, err)
	require.Len(t, script, 1+71+1+33)
	assert.Equal(t, byte(71), script[0])
	assert.Equal(t, byte(33), script[72])

	pushes, err := PushedData(script)
	require.NoError(t, err)
	require.Len(t, pushes, 2)
	assert.Equal(t, sig, pushes[0])
	assert.Equal(t, pub, pushes[1])

	_, err = SignatureScript(nil, pub)
	require.Error(t, err)
	_, err = SignatureScript(sig, nil)
	require.Error(t, err)
}

func TestSignatureScriptPushData1(t *testing.T) {
	long := bytes.Repeat([]byte{0x01}, 80)
	pub := bytes.Repeat([]byte{0x04}, 65)

	script, err := SignatureScript(long, pub)
	require.NoError(t, err)
	assert.Equal(t, []byte{OpPushData1, 80}, script[:2])

	pushes, err := PushedData(script)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{long, pub}, pushes)

	_, err = SignatureScript(bytes.Repeat([]byte{0x01}, 256), pub)
	require.Error(t, err)
}

func TestPushedDataErrors(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		target error
	}{
		{"non-push opcode", []byte{OpDup}, ErrNotPushOnly},
		{"truncated direct push", []byte{0x05, 0x01}, ErrMalformedPush},
		{"truncated pushdata1 length", []byte{OpPushData1}, ErrMalformedPush},
		{"truncated pushdata2 body", []byte{OpPushData2, 0x10, 0x00, 0x01}, ErrMalformedPush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PushedData(tt.script)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}

	pushes, err := PushedData([]byte{0x00, 0x01, 0xaa})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{}, {0xaa}}, pushes)
}

func TestExtractPubKeyHashRejects(t *testing.T) {
	_, ok := ExtractPubKeyHash([]byte{OpDup})
	assert.False(t, ok)

	script, err := PayToPubKeyHash(make([]byte, address.HashSize))
	require.NoError(t, err)
	script[24] = OpEqualVerify
	_, ok = ExtractPubKeyHash(script)
	assert.False(t, ok)
}
