// Package miner implements the proof-of-work nonce search of
// SPEC_FULL.md §4.6. It is grounded on the teacher's blockchain/proof.go
// (ProofOfWork, NewProof, Run, Validate), with the difficulty rule
// reinterpreted from the teacher's 256-bit shifted big.Int target at
// Difficulty=12 to the spec's literal requirement that the hex SHA-256 of
// the header begin with four zero characters (equivalently, a target with
// the top 16 bits clear).
package miner

import (
	"crypto/rand"
	"math/big"

	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
)

// prefix is the fixed difficulty string every valid header hash must
// begin with (SPEC_FULL.md §4.6/GLOSSARY "Difficulty prefix").
const prefix = "0000"

// maxNonce bounds the uniform random draw at 10^6, matching
// SPEC_FULL.md §4.6's "[0, 10^6]" range.
var maxNonce = big.NewInt(1_000_001)

// HasValidPrefix reports whether hash (lowercase hex) begins with the
// difficulty prefix.
func HasValidPrefix(hash string) bool {
	if len(hash) < len(prefix) {
		return false
	}
	return hash[:len(prefix)] == prefix
}

// Mine repeatedly draws a random nonce, installs it on header, and checks
// whether the resulting canonical header hash satisfies the difficulty
// prefix, returning the first header/hash pair that does.
//
// Termination is probabilistic; there is no iteration cap, matching
// SPEC_FULL.md §4.6. The random draw (rather than a monotonic increment)
// is an explicit, preserved choice — the spec permits substituting
// monotonic increment without changing correctness; Mine keeps the
// teacher's original style of search but swaps its 256-bit target
// comparison for the spec's direct hex-prefix check.
func Mine(header model.Header) (minedHeader model.Header, hash string, err error) {
	for {
		nonce, rerr := randomNonce()
		if rerr != nil {
			return model.Header{}, "", rerr
		}
		header.Nonce = nonce

		h, herr := codec.HeaderHash(header)
		if herr != nil {
			return model.Header{}, "", herr
		}
		if HasValidPrefix(h) {
			return header, h, nil
		}
	}
}

func randomNonce() (uint64, error) {
	n, err := rand.Int(rand.Reader, maxNonce)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}
