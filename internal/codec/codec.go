// Package codec defines the one canonical, deterministic byte encoding
// used everywhere a hash or a wire payload is computed: transaction
// internals, block headers, block contents, verifying-key bytes, and
// whole chains. It is the Go-native replacement for the source's
// language-native pickler (see SPEC_FULL.md §4.1/§13): fxamacker/cbor's
// Core Deterministic Encoding mode, with ordered maps (transaction
// inputs/outputs) represented as arrays of pairs rather than Go maps, so
// that insertion order — semantically significant for output_index
// addressing — is never reshuffled by the encoder.
package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/kilimbaDaniel/ledgerd/internal/model"
)

var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: bad cbor encoding options: %v", err))
	}
	encMode = m
}

// inputPair and outputPair are the wire shape of a single Input/Output:
// a 2-element array, so cbor's deterministic mode encodes them as a CBOR
// array rather than risk map-key reordering.
type inputPair struct {
	_           struct{} `cbor:",toarray"`
	TxHash      string
	OutputIndex int
}

type outputPair struct {
	_       struct{} `cbor:",toarray"`
	Address string
	Amount  uint64
}

type txInternals struct {
	_       struct{} `cbor:",toarray"`
	Inputs  []inputPair
	Outputs []outputPair
}

// TransactionInternals returns the canonical encoding of the part of a
// transaction that tx_hash commits to: inputs and outputs, in order.
// Signature and VerifyingKey are deliberately excluded — they are produced
// from (and verified against) this encoding's hash, not folded into it.
func TransactionInternals(tx model.Transaction) ([]byte, error) {
	internals := txInternals{
		Inputs:  make([]inputPair, len(tx.Inputs)),
		Outputs: make([]outputPair, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		internals.Inputs[i] = inputPair{TxHash: in.TxHash, OutputIndex: in.OutputIndex}
	}
	for i, out := range tx.Outputs {
		internals.Outputs[i] = outputPair{Address: out.Address, Amount: out.Amount}
	}
	return encMode.Marshal(internals)
}

// TxHash computes the hex SHA-256 of a transaction's canonical internals.
func TxHash(tx model.Transaction) (string, error) {
	raw, err := TransactionInternals(tx)
	if err != nil {
		return "", err
	}
	return HexSHA256(raw), nil
}

type headerArr struct {
	_                struct{} `cbor:",toarray"`
	ID               int
	PrevBlockHash    string
	Nonce            uint64
	BlockContentHash string
}

// HeaderBytes returns the canonical encoding of a block header, the
// exact input hashed for chain linkage and proof-of-work.
func HeaderBytes(h model.Header) ([]byte, error) {
	return encMode.Marshal(headerArr{
		ID:               h.ID,
		PrevBlockHash:    h.PrevBlockHash,
		Nonce:            h.Nonce,
		BlockContentHash: h.BlockContentHash,
	})
}

// HeaderHash computes the hex SHA-256 of a block header's canonical
// encoding — the value used as prev_block_hash by the following block and
// as the subject of the proof-of-work prefix check.
func HeaderHash(h model.Header) (string, error) {
	raw, err := HeaderBytes(h)
	if err != nil {
		return "", err
	}
	return HexSHA256(raw), nil
}

type wireTx struct {
	_            struct{} `cbor:",toarray"`
	Inputs       []inputPair
	Outputs      []outputPair
	TxHash       string
	Signature    []byte
	VerifyingKey []byte
}

// ContentsBytes returns the canonical encoding of a block's ordered
// transaction list — the value block_content_hash commits to.
func ContentsBytes(contents []model.Transaction) ([]byte, error) {
	wire := make([]wireTx, len(contents))
	for i, tx := range contents {
		wire[i] = wireTx{
			Inputs:       toInputPairs(tx.Inputs),
			Outputs:      toOutputPairs(tx.Outputs),
			TxHash:       tx.TxHash,
			Signature:    tx.Signature,
			VerifyingKey: tx.VerifyingKey,
		}
	}
	return encMode.Marshal(wire)
}

// ContentHash computes the hex SHA-256 of a block's canonical contents
// encoding.
func ContentHash(contents []model.Transaction) (string, error) {
	raw, err := ContentsBytes(contents)
	if err != nil {
		return "", err
	}
	return HexSHA256(raw), nil
}

// EncodeTransaction returns the full canonical wire encoding of a single
// transaction (internals plus signature/verifying_key), used for the
// transaction_content wire payload (SPEC_FULL §4.7).
func EncodeTransaction(tx model.Transaction) ([]byte, error) {
	return encMode.Marshal(wireTx{
		Inputs:       toInputPairs(tx.Inputs),
		Outputs:      toOutputPairs(tx.Outputs),
		TxHash:       tx.TxHash,
		Signature:    tx.Signature,
		VerifyingKey: tx.VerifyingKey,
	})
}

// DecodeTransaction parses the canonical encoding produced by
// EncodeTransaction.
func DecodeTransaction(raw []byte) (model.Transaction, error) {
	var wire wireTx
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return model.Transaction{}, fmt.Errorf("codec: decode transaction: %w", err)
	}
	return model.Transaction{
		Inputs:       fromInputPairs(wire.Inputs),
		Outputs:      fromOutputPairs(wire.Outputs),
		TxHash:       wire.TxHash,
		Signature:    wire.Signature,
		VerifyingKey: wire.VerifyingKey,
	}, nil
}

type wireBlock struct {
	_        struct{} `cbor:",toarray"`
	Contents []wireTx
	Header   headerArr
}

// EncodeChain returns the full canonical wire encoding of an ordered
// chain of blocks, used both for the persisted chain-file snapshot and for
// the database_content wire payload.
func EncodeChain(chain model.Chain) ([]byte, error) {
	wire := make([]wireBlock, len(chain))
	for i, b := range chain {
		txs := make([]wireTx, len(b.Contents))
		for j, tx := range b.Contents {
			txs[j] = wireTx{
				Inputs:       toInputPairs(tx.Inputs),
				Outputs:      toOutputPairs(tx.Outputs),
				TxHash:       tx.TxHash,
				Signature:    tx.Signature,
				VerifyingKey: tx.VerifyingKey,
			}
		}
		wire[i] = wireBlock{
			Contents: txs,
			Header: headerArr{
				ID:               b.Header.ID,
				PrevBlockHash:    b.Header.PrevBlockHash,
				Nonce:            b.Header.Nonce,
				BlockContentHash: b.Header.BlockContentHash,
			},
		}
	}
	return encMode.Marshal(wire)
}

// DecodeChain parses the canonical encoding produced by EncodeChain.
func DecodeChain(raw []byte) (model.Chain, error) {
	var wire []wireBlock
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("codec: decode chain: %w", err)
	}
	chain := make(model.Chain, len(wire))
	for i, wb := range wire {
		txs := make([]model.Transaction, len(wb.Contents))
		for j, wt := range wb.Contents {
			txs[j] = model.Transaction{
				Inputs:       fromInputPairs(wt.Inputs),
				Outputs:      fromOutputPairs(wt.Outputs),
				TxHash:       wt.TxHash,
				Signature:    wt.Signature,
				VerifyingKey: wt.VerifyingKey,
			}
		}
		chain[i] = model.Block{
			Contents: txs,
			Header: model.Header{
				ID:               wb.Header.ID,
				PrevBlockHash:    wb.Header.PrevBlockHash,
				Nonce:            wb.Header.Nonce,
				BlockContentHash: wb.Header.BlockContentHash,
			},
		}
	}
	return chain, nil
}

// VerifyingKeyAddress returns the hex SHA-256 digest of the canonical
// encoding of a raw public-key byte string — the address() operation of
// SPEC_FULL.md §4.2, expressed here since it shares the same canonical
// encoder as every other hash in the system.
func VerifyingKeyAddress(verifyingKey []byte) (string, error) {
	raw, err := encMode.Marshal(verifyingKey)
	if err != nil {
		return "", err
	}
	return HexSHA256(raw), nil
}

// HexSHA256 returns the lowercase hex SHA-256 digest of data.
func HexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func toInputPairs(in []model.Input) []inputPair {
	out := make([]inputPair, len(in))
	for i, v := range in {
		out[i] = inputPair{TxHash: v.TxHash, OutputIndex: v.OutputIndex}
	}
	return out
}

func fromInputPairs(in []inputPair) []model.Input {
	out := make([]model.Input, len(in))
	for i, v := range in {
		out[i] = model.Input{TxHash: v.TxHash, OutputIndex: v.OutputIndex}
	}
	return out
}

func toOutputPairs(in []model.Output) []outputPair {
	out := make([]outputPair, len(in))
	for i, v := range in {
		out[i] = outputPair{Address: v.Address, Amount: v.Amount}
	}
	return out
}

func fromOutputPairs(in []outputPair) []model.Output {
	out := make([]model.Output, len(in))
	for i, v := range in {
		out[i] = model.Output{Address: v.Address, Amount: v.Amount}
	}
	return out
}
