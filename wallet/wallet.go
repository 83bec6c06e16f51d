// Package wallet gives a light node a local place to keep the seeds it
// signs with between runs. SPEC_FULL.md only specifies the Seed/Address
// data model (§3) and the crypto operations over it (§4.2) — it says
// nothing about where a light node's seeds live on disk, since that is
// peripheral to the core system. This package fills that gap, adapted
// from the teacher's Wallet/MakeWallet/Address: the teacher held a full
// ECDSA keypair per wallet and derived a Bitcoin-style Base58 checksummed
// address from it (PublicKeyHash via SHA256+RIPEMD160, a version byte, a
// double-SHA256 checksum). None of that survives here — SPEC_FULL.md
// §4.2's address is a plain SHA-256 hex digest of the canonical
// verifying-key encoding, and a keypair is always re-derivable from its
// seed (internal/crypto.DeriveSigningKey), so a Wallet need only remember
// its seed.
package wallet

import (
	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
)

// Wallet is a single seed and the address it derives.
type Wallet struct {
	Seed    string
	Address string
}

// MakeWallet generates a fresh seed and derives its address, the
// replacement for the teacher's NewKeyPair-backed constructor of the same
// name.
func MakeWallet() (Wallet, error) {
	seed, err := crypto.NewSeed()
	if err != nil {
		return Wallet{}, err
	}
	addr, err := crypto.Address(seed)
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{Seed: seed, Address: addr}, nil
}

// FromSeed rebuilds a Wallet's Address from an already-known seed, used
// when loading a wallet file back from disk.
func FromSeed(seed string) (Wallet, error) {
	addr, err := crypto.Address(seed)
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{Seed: seed, Address: addr}, nil
}

// ValidateAddress reports whether address could plausibly be the address
// of some seed: a well-formed hex SHA-256 digest. It cannot (and, per
// SPEC_FULL.md §4.2, need not) confirm a real key produced it — that is
// what verify_address(address, verifying_key) is for, once a transaction
// carries a verifying key to check against.
func ValidateAddress(address string) bool {
	if len(address) != 64 {
		return false
	}
	for _, r := range address {
		isHexDigit := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHexDigit {
			return false
		}
	}
	return true
}
