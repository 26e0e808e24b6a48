package sighash

import (
	"bytes"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btgtx/pkg/tx"
)

// Cache holds the transaction-wide sub-hashes shared by the digests of every
// input of one transaction. Each sub-hash is computed at most once, on first
// use. A Cache is bound to the transaction it was created for and must not be
// reused after the transaction's inputs or outputs change.
type Cache struct {
	tx *tx.Tx

	prevOutsOnce sync.Once
	sequenceOnce sync.Once
	outputsOnce  sync.Once

	hashPrevOuts chainhash.Hash
	hashSequence chainhash.Hash
	hashOutputs  chainhash.Hash

	prevOutsComputed atomic.Int32
	sequenceComputed atomic.Int32
	outputsComputed  atomic.Int32
}

// Stats reports how many times each sub-hash was computed.
type Stats struct {
	PrevOuts int
	Sequence int
	Outputs  int
}

// NewCache returns an empty cache for t.
func NewCache(t *tx.Tx) *Cache {
	return &Cache{tx: t}
}

// Stats returns the computation counters.
func (c *Cache) Stats() Stats {
	return Stats{
		PrevOuts: int(c.prevOutsComputed.Load()),
		Sequence: int(c.sequenceComputed.Load()),
		Outputs:  int(c.outputsComputed.Load()),
	}
}

// HashPrevOuts is the double SHA-256 of every input's outpoint.
func (c *Cache) HashPrevOuts() chainhash.Hash {
	c.prevOutsOnce.Do(func() {
		var b bytes.Buffer
		for _, in := range c.tx.TxIn {
			_ = tx.WriteOutPoint(&b, &in.PreviousOutPoint)
		}
		c.hashPrevOuts = chainhash.DoubleHashH(b.Bytes())
		c.prevOutsComputed.Add(1)
		log.Tracef("Computed hashPrevOuts %v over %d inputs", c.hashPrevOuts, len(c.tx.TxIn))
	})
	return c.hashPrevOuts
}

// HashSequence is the double SHA-256 of every input's sequence number.
func (c *Cache) HashSequence() chainhash.Hash {
	c.sequenceOnce.Do(func() {
		var b bytes.Buffer
		var seq [4]byte
		for _, in := range c.tx.TxIn {
			binary.LittleEndian.PutUint32(seq[:], in.Sequence)
			b.Write(seq[:])
		}
		c.hashSequence = chainhash.DoubleHashH(b.Bytes())
		c.sequenceComputed.Add(1)
		log.Tracef("Computed hashSequence %v over %d inputs", c.hashSequence, len(c.tx.TxIn))
	})
	return c.hashSequence
}

// HashOutputs is the double SHA-256 of every serialized output.
func (c *Cache) HashOutputs() chainhash.Hash {
	c.outputsOnce.Do(func() {
		var b bytes.Buffer
		for _, out := range c.tx.TxOut {
			_ = tx.WriteTxOut(&b, out)
		}
		c.hashOutputs = chainhash.DoubleHashH(b.Bytes())
		c.outputsComputed.Add(1)
		log.Tracef("Computed hashOutputs %v over %d outputs", c.hashOutputs, len(c.tx.TxOut))
	})
	return c.hashOutputs
}
