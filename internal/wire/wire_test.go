package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/wire"
)

// TestFrameRoundTrip is universal property 6 of SPEC_FULL.md §8.
func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		name        string
		contentType wire.ContentType
		payload     []byte
	}{
		{"transaction", wire.TransactionContent, []byte("some-transaction-bytes")},
		{"database", wire.DatabaseContent, []byte("some-chain-bytes")},
		{"db-request", wire.DBRequest, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			framed, err := wire.Frame(tc.contentType, tc.payload)
			require.NoError(t, err)

			headerLen, err := wire.HeaderLen(framed[:2])
			require.NoError(t, err)

			header, err := wire.ParseHeader(framed[2 : 2+headerLen])
			require.NoError(t, err)
			require.Equal(t, tc.contentType, header.ContentType)

			payload := framed[2+headerLen:]
			require.Len(t, payload, header.ContentLength)
			if tc.contentType != wire.DBRequest {
				require.Equal(t, tc.payload, payload)
			}
		})
	}
}

func TestParseHeaderRejectsMissingKeys(t *testing.T) {
	_, err := wire.ParseHeader([]byte(`{"content-type":"transaction_content","content-length":1}`))
	require.Error(t, err)
}

// TestParseHeaderRejectsMissingContentLength guards against the
// content-length key being silently defaulted to 0 by json.Unmarshal when
// omitted, which would otherwise still pass the non-negative check.
func TestParseHeaderRejectsMissingContentLength(t *testing.T) {
	_, err := wire.ParseHeader([]byte(`{"byteorder":"big","content-type":"transaction_content"}`))
	require.Error(t, err)
}

func TestParseHeaderRejectsUnknownContentType(t *testing.T) {
	_, err := wire.ParseHeader([]byte(`{"byteorder":"big","content-type":"mystery","content-length":1}`))
	require.Error(t, err)
}
