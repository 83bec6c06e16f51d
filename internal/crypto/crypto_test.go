package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
)

// TestAddressKeyBinding is universal property 1 of SPEC_FULL.md §8.
func TestAddressKeyBinding(t *testing.T) {
	seed, err := crypto.NewSeed()
	require.NoError(t, err)

	addr, err := crypto.Address(seed)
	require.NoError(t, err)

	priv, err := crypto.DeriveSigningKey(seed)
	require.NoError(t, err)
	pubBytes := crypto.PublicKeyBytes(&priv.PublicKey)

	require.True(t, crypto.VerifyAddress(addr, pubBytes))
}

// TestSignatureRoundTrip is universal property 2 of SPEC_FULL.md §8.
func TestSignatureRoundTrip(t *testing.T) {
	seed, err := crypto.NewSeed()
	require.NoError(t, err)

	sig, verKey, err := crypto.Sign(seed, "deadbeef")
	require.NoError(t, err)

	require.True(t, crypto.VerifySignature("deadbeef", sig, verKey))
}

func TestVerifySignatureRejectsTamperedHash(t *testing.T) {
	seed, err := crypto.NewSeed()
	require.NoError(t, err)

	sig, verKey, err := crypto.Sign(seed, "deadbeef")
	require.NoError(t, err)

	require.False(t, crypto.VerifySignature("tampered", sig, verKey))
}

func TestVerifySignatureNeverPanicsOnGarbage(t *testing.T) {
	require.False(t, crypto.VerifySignature("x", []byte("short"), []byte("also-short")))
	require.False(t, crypto.VerifySignature("x", nil, nil))
}

func TestDeriveSigningKeyDeterministic(t *testing.T) {
	seed, err := crypto.NewSeed()
	require.NoError(t, err)

	a, err := crypto.DeriveSigningKey(seed)
	require.NoError(t, err)
	b, err := crypto.DeriveSigningKey(seed)
	require.NoError(t, err)

	require.Equal(t, a.D, b.D)
}
