package fullnode

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/netconn"
	"github.com/kilimbaDaniel/ledgerd/internal/store"
	"github.com/kilimbaDaniel/ledgerd/internal/validate"
)

func testGenesis(t *testing.T) model.Block {
	t.Helper()
	tx := model.Transaction{Outputs: []model.Output{{Address: "addr-a", Amount: 100}}}
	hash, err := codec.TxHash(tx)
	require.NoError(t, err)
	tx.TxHash = hash
	contentHash, err := codec.ContentHash([]model.Transaction{tx})
	require.NoError(t, err)
	return model.Block{
		Contents: []model.Transaction{tx},
		Header:   model.Header{ID: 0, PrevBlockHash: "0", BlockContentHash: contentHash},
	}
}

func newTestNode(t *testing.T, genesis model.Block) *Node {
	t.Helper()
	st, err := store.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	api := chain.New(st)
	require.NoError(t, api.AddGenesis(genesis))

	return New(Config{Threshold: 1}, api, validate.New(api), zerolog.Nop())
}

// TestHandleNeighborEventReplacesStrictlyLongerChain is universal property 7
// (consensus monotonicity) and scenario S7 (SPEC_FULL.md §8): a neighbor
// chain strictly longer than the local one replaces it.
func TestHandleNeighborEventReplacesStrictlyLongerChain(t *testing.T) {
	genesis := testGenesis(t)
	n := newTestNode(t, genesis)

	longer := model.Chain{genesis, model.Block{Header: model.Header{ID: 1, PrevBlockHash: "whatever"}}}
	raw, err := codec.EncodeChain(longer)
	require.NoError(t, err)

	n.handleNeighborEvent(neighborEvent{outcome: netconn.NeighborOutcome{DatabaseReceived: raw}})

	got, err := n.api.Chain()
	require.NoError(t, err)
	require.Len(t, got, 2)
}

// TestHandleNeighborEventIgnoresNonLongerChain is the other half of property
// 7: a neighbor chain no longer than the local one never replaces it,
// covering both the equal-length and strictly-shorter cases.
func TestHandleNeighborEventIgnoresNonLongerChain(t *testing.T) {
	cases := []struct {
		name    string
		peer    model.Chain
		wantLen int
	}{
		{"equal length", model.Chain{testGenesis(t)}, 1},
		{"shorter", model.Chain{}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			genesis := testGenesis(t)
			n := newTestNode(t, genesis)

			raw, err := codec.EncodeChain(tc.peer)
			require.NoError(t, err)

			n.handleNeighborEvent(neighborEvent{outcome: netconn.NeighborOutcome{DatabaseReceived: raw}})

			got, err := n.api.Chain()
			require.NoError(t, err)
			require.Len(t, got, tc.wantLen)
		})
	}
}
