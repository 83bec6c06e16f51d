// Package fullnode implements the full-node reactor and processor of
// SPEC_FULL.md §4.9/§5: accept light-node and neighbor connections, stage
// transactions into a mempool, form and mine blocks at a configurable
// threshold, gossip the resulting chain, and replace the local chain on a
// strictly-longer neighbor delivery.
//
// It is grounded on original_source/network/fullnode_processing.py
// (process) and fullnode_socket_manager.py (accept/gossip registration),
// translated from a single-threaded selectors loop into goroutines and
// channels: every accepted connection runs in its own goroutine driving a
// transport-agnostic netconn state machine, and reports its outcome at most
// once (nothing, if it fails before completing) to a single processor
// goroutine that dials and writes outbound gossip itself and owns the
// mempool, the incoming-chain stack, and the chain store — the Go-idiomatic
// analogue of "no inter-thread shared state; the mempool stack and
// incoming-chain stack are owned by the reactor" (SPEC_FULL.md §5). See
// SPEC_FULL.md §4.9's design-decision note for the full rationale.
package fullnode

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/validate"
)

// Config holds everything the reactor needs beyond the chain store itself.
type Config struct {
	ClientListenAddr   string
	NeighborListenAddr string
	NeighborDialAddr   string
	// Threshold is the mempool size that triggers block formation
	// (SPEC_FULL.md §4.9's "B"); default 1 for tests, >=5 suggested for
	// production (SPEC_FULL.md §9).
	Threshold int
}

// Node is the explicit, non-global context SPEC_FULL.md §9 calls for in
// place of the source's module-level received_transactions_stack /
// received_databases_stack globals: one value, owned and mutated only by
// the processor goroutine.
type Node struct {
	cfg       Config
	api       *chain.API
	validator *validate.Validator
	log       zerolog.Logger

	mempool         []pendingTx
	incomingLengths []int // lengths of chains staged for consensus comparison
	incomingChains  [][]byte

	clientOutcomes   chan clientEvent
	neighborOutcomes chan neighborEvent
}

type pendingTx struct {
	raw []byte
}

// New constructs a Node bound to api/validator/logger and ready to Run.
func New(cfg Config, api *chain.API, validator *validate.Validator, log zerolog.Logger) *Node {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1
	}
	return &Node{
		cfg:              cfg,
		api:              api,
		validator:        validator,
		log:              log,
		clientOutcomes:   make(chan clientEvent, 64),
		neighborOutcomes: make(chan neighborEvent, 64),
	}
}

// Run starts the client and neighbor accept loops and the processor
// goroutine, and blocks until ctx is cancelled (process-level cancellation,
// SPEC_FULL.md §5's SIGINT unwind).
func (n *Node) Run(ctx context.Context) error {
	clientLn, err := net.Listen("tcp", n.cfg.ClientListenAddr)
	if err != nil {
		return err
	}
	defer clientLn.Close()

	neighborLn, err := net.Listen("tcp", n.cfg.NeighborListenAddr)
	if err != nil {
		return err
	}
	defer neighborLn.Close()

	go n.acceptClients(ctx, clientLn)
	go n.acceptNeighbors(ctx, neighborLn)

	n.processLoop(ctx)
	return nil
}
