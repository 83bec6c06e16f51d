package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
)

func sampleTx() model.Transaction {
	return model.Transaction{
		Inputs:  []model.Input{{TxHash: "deadbeef", OutputIndex: 0}},
		Outputs: []model.Output{{Address: "addrA", Amount: 100}},
	}
}

// TestTxHashStability is universal property 3 of SPEC_FULL.md §8:
// constructing a transaction twice with equal inputs/outputs yields equal
// tx_hash.
func TestTxHashStability(t *testing.T) {
	a, err := codec.TxHash(sampleTx())
	require.NoError(t, err)
	b, err := codec.TxHash(sampleTx())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestTxHashSensitiveToOutputOrder(t *testing.T) {
	tx1 := model.Transaction{
		Outputs: []model.Output{{Address: "A", Amount: 1}, {Address: "B", Amount: 2}},
	}
	tx2 := model.Transaction{
		Outputs: []model.Output{{Address: "B", Amount: 2}, {Address: "A", Amount: 1}},
	}
	h1, err := codec.TxHash(tx1)
	require.NoError(t, err)
	h2, err := codec.TxHash(tx2)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2, "output order is semantically significant for output_index addressing")
}

func TestEncodeDecodeTransactionRoundTrip(t *testing.T) {
	tx := sampleTx()
	tx.Signature = []byte{1, 2, 3}
	tx.VerifyingKey = []byte{4, 5, 6}
	hash, err := codec.TxHash(tx)
	require.NoError(t, err)
	tx.TxHash = hash

	raw, err := codec.EncodeTransaction(tx)
	require.NoError(t, err)
	decoded, err := codec.DecodeTransaction(raw)
	require.NoError(t, err)
	require.Equal(t, tx, decoded)
}

func TestEncodeDecodeChainRoundTrip(t *testing.T) {
	tx := sampleTx()
	h, err := codec.TxHash(tx)
	require.NoError(t, err)
	tx.TxHash = h

	contentHash, err := codec.ContentHash([]model.Transaction{tx})
	require.NoError(t, err)

	chain := model.Chain{{
		Contents: []model.Transaction{tx},
		Header:   model.Header{ID: 0, PrevBlockHash: "0", BlockContentHash: contentHash},
	}}

	raw, err := codec.EncodeChain(chain)
	require.NoError(t, err)
	decoded, err := codec.DecodeChain(raw)
	require.NoError(t, err)
	require.Equal(t, chain, decoded)
}

func TestHeaderHashDeterministic(t *testing.T) {
	h := model.Header{ID: 1, PrevBlockHash: "abc", Nonce: 42, BlockContentHash: "def"}
	a, err := codec.HeaderHash(h)
	require.NoError(t, err)
	b, err := codec.HeaderHash(h)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
