package fullnode

import (
	"context"

	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/miner"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
)

func encodeChain(c model.Chain) ([]byte, error) {
	return codec.EncodeChain(c)
}

// processLoop is the single goroutine that owns the mempool, the
// incoming-chain stack, and the chain store — SPEC_FULL.md §4.9's
// process(), realized as one consumer draining two channels instead of a
// selector loop iterating two registries.
func (n *Node) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-n.clientOutcomes:
			n.handleClientEvent(ev)

		case ev := <-n.neighborOutcomes:
			n.handleNeighborEvent(ev)
		}
	}
}

func (n *Node) handleClientEvent(ev clientEvent) {
	if ev.outcome.TransactionReceived == nil {
		return
	}
	tx, err := codec.DecodeTransaction(ev.outcome.TransactionReceived)
	if err != nil {
		n.log.Warn().Str("conn", ev.id).Err(err).Msg("discarding malformed transaction")
		return
	}
	n.mempool = append(n.mempool, pendingTx{raw: ev.outcome.TransactionReceived})
	n.log.Info().Str("tx", tx.TxHash).Int("mempool", len(n.mempool)).Msg("staged transaction")

	if len(n.mempool) >= n.cfg.Threshold {
		n.formBlock()
	}
}

// formBlock assembles a block from the staged mempool in arrival order,
// validates it before mining, mines and appends on success, and clears the
// mempool afterward. It gossips after a successful append and after a batch
// dropped by validation (SPEC_FULL.md §4.9 and §14.2); on a store, hashing
// or mining error it clears the mempool without gossiping.
func (n *Node) formBlock() {
	txs := make([]model.Transaction, 0, len(n.mempool))
	for _, p := range n.mempool {
		tx, err := codec.DecodeTransaction(p.raw)
		if err != nil {
			continue
		}
		txs = append(txs, tx)
	}

	tip, err := n.api.Tip()
	if err != nil {
		n.log.Error().Err(err).Msg("reading tip to form block")
		n.mempool = nil
		return
	}
	tipHash, err := codec.HeaderHash(tip.Header)
	if err != nil {
		n.log.Error().Err(err).Msg("hashing tip header")
		n.mempool = nil
		return
	}
	contentHash, err := codec.ContentHash(txs)
	if err != nil {
		n.log.Error().Err(err).Msg("hashing block contents")
		n.mempool = nil
		return
	}

	candidate := model.Block{
		Contents: txs,
		Header: model.Header{
			ID:               tip.Header.ID + 1,
			PrevBlockHash:    tipHash,
			BlockContentHash: contentHash,
		},
	}

	local, err := n.api.Chain()
	if err != nil {
		n.log.Error().Err(err).Msg("reading chain to validate prospective block")
		n.mempool = nil
		return
	}
	if err := n.validator.ValidateTransactions(local, candidate.Contents); err != nil {
		n.log.Warn().Err(err).Msg("prospective block failed validation, dropping batch")
		n.mempool = nil
		n.gossip()
		return
	}

	minedHeader, hash, err := miner.Mine(candidate.Header)
	if err != nil {
		n.log.Error().Err(err).Msg("mining failed")
		n.mempool = nil
		return
	}
	candidate.Header = minedHeader

	if err := n.api.AppendBlock(candidate); err != nil {
		n.log.Error().Err(err).Msg("appending mined block")
		n.mempool = nil
		return
	}
	n.log.Info().Str("header_hash", hash).Int("id", candidate.Header.ID).Msg("appended block")

	n.mempool = nil
	n.gossip()
}

func (n *Node) handleNeighborEvent(ev neighborEvent) {
	if ev.outcome.DatabaseReceived == nil {
		return
	}
	n.incomingChains = append(n.incomingChains, ev.outcome.DatabaseReceived)

	if len(n.incomingChains) < 1 {
		return
	}

	for _, raw := range n.incomingChains {
		received, err := codec.DecodeChain(raw)
		if err != nil {
			n.log.Warn().Err(err).Msg("discarding malformed neighbor chain")
			continue
		}
		local, err := n.api.Chain()
		if err != nil {
			n.log.Error().Err(err).Msg("reading local chain for consensus comparison")
			continue
		}
		if len(received) > len(local) {
			if err := n.api.ReplaceChain(received); err != nil {
				n.log.Error().Err(err).Msg("replacing chain")
				continue
			}
			n.log.Info().Int("new_len", len(received)).Msg("replaced local chain with longer neighbor chain")
		}
	}
	n.incomingChains = nil
}
