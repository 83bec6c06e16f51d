package netconn_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilimbaDaniel/ledgerd/internal/netconn"
	"github.com/kilimbaDaniel/ledgerd/internal/wire"
)

func TestClientConnectionTransactionContent(t *testing.T) {
	frame, err := wire.Frame(wire.TransactionContent, []byte("tx-bytes"))
	require.NoError(t, err)

	c := netconn.NewClientConnection()
	// Feed the frame in two chunks, to exercise that Feed tolerates
	// partial reads the way the real EWOULDBLOCK-driven reader would.
	require.NoError(t, c.Feed(frame[:3]))
	require.False(t, c.Done())
	require.NoError(t, c.Feed(frame[3:]))
	require.True(t, c.Done())

	out := c.Outcome()
	require.Equal(t, []byte("tx-bytes"), out.TransactionReceived)
}

func TestClientConnectionDBRequest(t *testing.T) {
	frame, err := wire.Frame(wire.DBRequest, nil)
	require.NoError(t, err)

	c := netconn.NewClientConnection()
	require.NoError(t, c.Feed(frame))
	require.True(t, c.AwaitingDatabaseResponse())
	require.False(t, c.Done())

	resp, err := c.BuildDatabaseResponse([]byte("chain-bytes"))
	require.NoError(t, err)
	require.True(t, c.Done())

	header, err := wire.ParseHeader(resp[2 : 2+int(resp[1])])
	require.NoError(t, err)
	require.Equal(t, wire.DatabaseContent, header.ContentType)

	// A served db_request must not be reported back as a received
	// transaction: its outcome is empty, not the 1-byte db_request
	// sentinel payload.
	out := c.Outcome()
	require.Nil(t, out.TransactionReceived)
	require.False(t, out.DBRequested)
}

func TestNeighborConnectionReceive(t *testing.T) {
	frame, err := wire.Frame(wire.DatabaseContent, []byte("peer-chain"))
	require.NoError(t, err)

	n := netconn.NewNeighborConnectionReceive()
	require.NoError(t, n.Feed(frame))
	require.True(t, n.Done())
	require.Equal(t, []byte("peer-chain"), n.Outcome().DatabaseReceived)
}

func TestNeighborConnectionSend(t *testing.T) {
	n := netconn.NewNeighborConnectionSend([]byte("my-chain"))
	frame, err := n.OutgoingFrame()
	require.NoError(t, err)
	require.NotEmpty(t, frame)

	require.False(t, n.Done())
	n.MarkSent()
	require.True(t, n.Done())
	require.True(t, n.Outcome().DatabaseSent)
}

func TestFullNodeConnectionTransactionBroadcast(t *testing.T) {
	f := netconn.NewTransactionBroadcast([]byte("tx-bytes"))
	require.True(t, f.AwaitingWrite())
	frame, err := f.OutgoingFrame()
	require.NoError(t, err)
	require.NotEmpty(t, frame)

	f.MarkFrameSent()
	require.True(t, f.Done())
}

func TestFullNodeConnectionDatabaseRequest(t *testing.T) {
	f := netconn.NewDatabaseRequest()
	frame, err := f.OutgoingFrame()
	require.NoError(t, err)
	require.NotEmpty(t, frame)
	f.MarkFrameSent()
	require.False(t, f.Done())

	respFrame, err := wire.Frame(wire.DatabaseContent, []byte("server-chain"))
	require.NoError(t, err)
	require.NoError(t, f.Feed(respFrame))
	require.True(t, f.Done())
	require.Equal(t, []byte("server-chain"), f.Outcome().DatabaseReceived)
}
