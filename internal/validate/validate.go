// Package validate implements the block validation engine of
// SPEC_FULL.md §4.5. It is grounded on original_source/tools/validation.py
// (_is_spendable, _has_valid_signature, _is_owned, _has_correct_hash,
// _validate_transactions_of_block), with two bugs documented in that
// source and in SPEC_FULL.md §9/§14.5 deliberately fixed rather than
// carried forward:
//
//   - the source's `if block.metadata["id"] == 1: return True` bypass,
//     which skipped transaction-level checks entirely for the block
//     immediately following genesis — here id==1 is checked like any
//     other block, except that inputs sourced from genesis outputs are
//     permitted (the only special case genesis sourcing requires);
//   - the source's `# TODO : implement double-spend check within same
//     block`, left unimplemented — here a transaction within the same
//     block spending an input already spent earlier in that same block is
//     rejected, in addition to the cross-chain spent check.
package validate

import (
	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/miner"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// Validator checks blocks and transactions against a Chain API bound to
// the current persisted chain.
type Validator struct {
	api *chain.API
}

// New returns a Validator bound to api.
func New(api *chain.API) *Validator {
	return &Validator{api: api}
}

// ValidateBlock checks block against the chain currently persisted behind
// v's Chain API: block-level linkage/content-hash/PoW checks, then each
// transaction's hash, signature, spendability (including intra-block
// double-spend), ownership, and value-conservation checks, in that order.
//
// The genesis block (id 0) is not passed through this function — genesis
// is valid by definition (SPEC_FULL.md §4.5) and is installed directly via
// the Chain API's AddGenesis.
func (v *Validator) ValidateBlock(block model.Block) error {
	c, err := v.api.Chain()
	if err != nil {
		return err
	}
	tip := c.Tip()

	tipHash, err := codec.HeaderHash(tip.Header)
	if err != nil {
		return err
	}
	if block.Header.ID != tip.Header.ID+1 {
		return &xerrors.ValidationError{Reason: "block id does not follow tip"}
	}
	if block.Header.PrevBlockHash != tipHash {
		return &xerrors.ValidationError{Reason: "prev_block_hash does not match tip"}
	}

	contentHash, err := codec.ContentHash(block.Contents)
	if err != nil {
		return err
	}
	if block.Header.BlockContentHash != contentHash {
		return &xerrors.ValidationError{Reason: "block_content_hash does not match contents"}
	}

	headerHash, err := codec.HeaderHash(block.Header)
	if err != nil {
		return err
	}
	if !miner.HasValidPrefix(headerHash) {
		return &xerrors.ValidationError{Reason: "header hash does not satisfy difficulty prefix"}
	}

	return v.ValidateTransactions(c, block.Contents)
}

// ValidateTransactions applies spec.md §4.5's five per-transaction checks,
// in order, to contents against the already-materialized chain c —
// hash integrity, signature, spendability (cross-chain and intra-batch
// double-spend), ownership, value conservation — without any block-level
// linkage or proof-of-work check.
//
// This is what the reactor's formBlock (SPEC_FULL.md §4.9) calls before
// mining: a prospective block has no valid nonce yet, so its header hash
// cannot satisfy the difficulty prefix, and ValidateBlock's block-level
// checks would always and meaninglessly fail pre-mining. The reactor
// builds the block's own id/prev_block_hash/block_content_hash itself
// immediately before mining, so those need no independent re-check; only
// the transaction rules — which a malicious or buggy mempool entry could
// violate — need checking before spending time on a nonce search.
func (v *Validator) ValidateTransactions(c model.Chain, contents []model.Transaction) error {
	spentBeforeBlock := spentInChain(c)
	spentWithinBlock := make(map[model.Input]bool)

	for _, tx := range contents {
		if err := v.validateTransaction(c, tx, spentBeforeBlock, spentWithinBlock); err != nil {
			return err
		}
		for _, in := range tx.Inputs {
			spentWithinBlock[in] = true
		}
	}
	return nil
}

// validateTransaction applies spec.md §4.5's five per-transaction checks
// in order: hash integrity, signature, spendability of each input
// (existence, not spent earlier in the chain, not spent earlier within
// this same block), ownership, value conservation.
func (v *Validator) validateTransaction(
	c model.Chain,
	tx model.Transaction,
	spentBeforeBlock map[model.Input]bool,
	spentWithinBlock map[model.Input]bool,
) error {
	// 1. Hash integrity.
	recomputed, err := codec.TxHash(tx)
	if err != nil {
		return err
	}
	if recomputed != tx.TxHash {
		return &xerrors.ValidationError{Reason: "tx_hash does not match recomputation", TxHash: tx.TxHash}
	}

	// 2. Signature.
	if !crypto.VerifySignature(tx.TxHash, tx.Signature, tx.VerifyingKey) {
		return &xerrors.ValidationError{Reason: "invalid signature", TxHash: tx.TxHash}
	}

	var sumIn uint64
	for _, in := range tx.Inputs {
		// 3. Spendability: the referenced output must exist...
		amount, err := v.api.AmountAt(c, in.TxHash, in.OutputIndex)
		if err != nil {
			return err
		}
		// ...and must not already be consumed, either earlier in the
		// chain or earlier within this same block.
		if spentBeforeBlock[in] {
			return &xerrors.ValidationError{Reason: "input already spent in chain", TxHash: tx.TxHash}
		}
		if spentWithinBlock[in] {
			return &xerrors.ValidationError{Reason: "input double-spent within block", TxHash: tx.TxHash}
		}

		// 4. Ownership: the referenced output's address must equal the
		// address derivable from the spending transaction's verifying key.
		owner, err := outputAddress(c, in)
		if err != nil {
			return err
		}
		if !crypto.VerifyAddress(owner, tx.VerifyingKey) {
			return &xerrors.ValidationError{Reason: "signer does not own referenced output", TxHash: tx.TxHash}
		}

		sumIn += amount
	}

	// 5. Value conservation.
	if sumIn != sumOutputs(tx) {
		return &xerrors.ValidationError{Reason: "sum(inputs) != sum(outputs)", TxHash: tx.TxHash}
	}
	return nil
}

func sumOutputs(tx model.Transaction) uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Amount
	}
	return total
}

// outputAddress resolves the address that owns the output referenced by
// in, by locating its transaction and reading the address at that
// position.
func outputAddress(c model.Chain, in model.Input) (string, error) {
	for _, b := range c {
		for _, tx := range b.Contents {
			if tx.TxHash != in.TxHash {
				continue
			}
			if in.OutputIndex < 0 || in.OutputIndex >= len(tx.Outputs) {
				return "", &xerrors.ApiError{Reason: "output position out of range"}
			}
			return tx.Outputs[in.OutputIndex].Address, nil
		}
	}
	return "", &xerrors.ApiError{Reason: "transaction does not exist: " + in.TxHash}
}

// spentInChain mirrors chain.spentSet (unexported there) over the already
// materialized chain, excluding genesis, for use by the validator — kept
// as a small local copy rather than exporting chain's internal helper,
// since the validator's double-spend bookkeeping also needs the
// within-block overlay chain.spentSet knows nothing about.
func spentInChain(c model.Chain) map[model.Input]bool {
	spent := make(map[model.Input]bool)
	for i, b := range c {
		if i == 0 {
			continue
		}
		for _, tx := range b.Contents {
			for _, in := range tx.Inputs {
				spent[in] = true
			}
		}
	}
	return spent
}
