package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
	"github.com/kilimbaDaniel/ledgerd/internal/miner"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/store"
	"github.com/kilimbaDaniel/ledgerd/internal/validate"
)

// harness bootstraps a fresh store + chain API + validator with a genesis
// block paying genesis_address, matching scenario S1 of SPEC_FULL.md §8.
type harness struct {
	api       *chain.API
	validator *validate.Validator
	genesisTx model.Transaction
	seedA     string
	addrA     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := store.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	api := chain.New(s)

	seedA, err := crypto.NewSeed()
	require.NoError(t, err)
	addrA, err := crypto.Address(seedA)
	require.NoError(t, err)

	genesisTx := model.Transaction{
		Outputs: []model.Output{{Address: addrA, Amount: 100}},
	}
	hash, err := codec.TxHash(genesisTx)
	require.NoError(t, err)
	genesisTx.TxHash = hash

	contentHash, err := codec.ContentHash([]model.Transaction{genesisTx})
	require.NoError(t, err)

	genesis := model.Block{
		Contents: []model.Transaction{genesisTx},
		Header:   model.Header{ID: 0, PrevBlockHash: "0", BlockContentHash: contentHash},
	}
	require.NoError(t, api.AddGenesis(genesis))

	return &harness{
		api:       api,
		validator: validate.New(api),
		genesisTx: genesisTx,
		seedA:     seedA,
		addrA:     addrA,
	}
}

// buildAndMine assembles a block spending the given input with seed,
// paying outputs, mines it, and returns the mined block without appending
// it — letting each test decide whether/how to call ValidateBlock.
func (h *harness) buildAndMine(t *testing.T, seed string, in model.Input, outputs []model.Output) model.Block {
	t.Helper()
	tx := model.Transaction{Inputs: []model.Input{in}, Outputs: outputs}
	hash, err := codec.TxHash(tx)
	require.NoError(t, err)
	tx.TxHash = hash

	sig, verKey, err := crypto.Sign(seed, hash)
	require.NoError(t, err)
	tx.Signature = sig
	tx.VerifyingKey = verKey

	tip, err := h.api.Tip()
	require.NoError(t, err)
	tipHash, err := codec.HeaderHash(tip.Header)
	require.NoError(t, err)

	contentHash, err := codec.ContentHash([]model.Transaction{tx})
	require.NoError(t, err)

	header := model.Header{
		ID:               tip.Header.ID + 1,
		PrevBlockHash:    tipHash,
		BlockContentHash: contentHash,
	}
	minedHeader, _, err := miner.Mine(header)
	require.NoError(t, err)

	return model.Block{Contents: []model.Transaction{tx}, Header: minedHeader}
}

// TestS1GenesisBootstrap is scenario S1 of SPEC_FULL.md §8.
func TestS1GenesisBootstrap(t *testing.T) {
	h := newHarness(t)
	c, err := h.api.Chain()
	require.NoError(t, err)
	require.Len(t, c, 1)
	require.Equal(t, h.genesisTx.TxHash, c[0].Contents[0].TxHash)
}

// TestS2SimpleSpend is scenario S2 of SPEC_FULL.md §8.
func TestS2SimpleSpend(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	block1 := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})

	require.NoError(t, h.validator.ValidateBlock(block1))
	require.NoError(t, h.api.AppendBlock(block1))

	c, err := h.api.Chain()
	require.NoError(t, err)
	require.Equal(t, uint64(100), h.api.Balance(c, addrB))
}

// TestS3DoubleSpendRejection is scenario S3 of SPEC_FULL.md §8.
func TestS3DoubleSpendRejection(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	block1 := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})
	require.NoError(t, h.validator.ValidateBlock(block1))
	require.NoError(t, h.api.AppendBlock(block1))

	seedC, err := crypto.NewSeed()
	require.NoError(t, err)
	addrC, err := crypto.Address(seedC)
	require.NoError(t, err)

	block2 := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrC, Amount: 100}})

	err = h.validator.ValidateBlock(block2)
	require.Error(t, err)
}

// TestS4ValueMismatchRejection is scenario S4 of SPEC_FULL.md §8.
func TestS4ValueMismatchRejection(t *testing.T) {
	h := newHarness(t)
	seedC, err := crypto.NewSeed()
	require.NoError(t, err)
	addrC, err := crypto.Address(seedC)
	require.NoError(t, err)

	block := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrC, Amount: 101}})

	require.Error(t, h.validator.ValidateBlock(block))
}

// TestS5WrongOwnerRejection is scenario S5 of SPEC_FULL.md §8.
func TestS5WrongOwnerRejection(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	block1 := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})
	require.NoError(t, h.validator.ValidateBlock(block1))
	require.NoError(t, h.api.AppendBlock(block1))

	seedC, err := crypto.NewSeed()
	require.NoError(t, err)
	addrC, err := crypto.Address(seedC)
	require.NoError(t, err)

	// Block1's output pays addrB, but the spend below is signed with
	// seedA — the wrong owner.
	block2 := h.buildAndMine(t, h.seedA, model.Input{TxHash: block1.Contents[0].TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrC, Amount: 100}})

	require.Error(t, h.validator.ValidateBlock(block2))
}

// TestS6MissingInputRejection is scenario S6 of SPEC_FULL.md §8.
func TestS6MissingInputRejection(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	block1 := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})
	require.NoError(t, h.validator.ValidateBlock(block1))
	require.NoError(t, h.api.AppendBlock(block1))

	seedC, err := crypto.NewSeed()
	require.NoError(t, err)
	addrC, err := crypto.Address(seedC)
	require.NoError(t, err)

	// block1's transaction only has output index 0.
	block2 := h.buildAndMine(t, seedB, model.Input{TxHash: block1.Contents[0].TxHash, OutputIndex: 1},
		[]model.Output{{Address: addrC, Amount: 100}})

	err = h.validator.ValidateBlock(block2)
	require.Error(t, err)
}

// TestPoWProperty is universal property 5 of SPEC_FULL.md §8: every mined
// block's header hash starts with "0000".
func TestPoWProperty(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	block := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})

	hash, err := codec.HeaderHash(block.Header)
	require.NoError(t, err)
	require.True(t, miner.HasValidPrefix(hash))
}

// TestBlockLinkageProperty is universal property 4 of SPEC_FULL.md §8.
func TestBlockLinkageProperty(t *testing.T) {
	h := newHarness(t)
	seedB, err := crypto.NewSeed()
	require.NoError(t, err)
	addrB, err := crypto.Address(seedB)
	require.NoError(t, err)

	tip, err := h.api.Tip()
	require.NoError(t, err)

	block := h.buildAndMine(t, h.seedA, model.Input{TxHash: h.genesisTx.TxHash, OutputIndex: 0},
		[]model.Output{{Address: addrB, Amount: 100}})
	require.NoError(t, h.api.AppendBlock(block))

	tipHash, err := codec.HeaderHash(tip.Header)
	require.NoError(t, err)
	require.Equal(t, tipHash, block.Header.PrevBlockHash)
	require.Equal(t, tip.Header.ID+1, block.Header.ID)
}
