// Package netconn implements the three connection state machines of
// SPEC_FULL.md §4.8 as transport-agnostic types: each consumes bytes via
// Feed and, once its reception is complete, exposes an outcome struct
// (SPEC_FULL.md §4.8's Go pin on the source's ClientOutcome/
// NeighborOutcome) rather than Python's attribute-presence idiom
// (hasattr(connection, "transaction_received")). None of these types touch
// a socket; internal/fullnode and internal/lightnode drive them over
// net.Conn in their own connection goroutines (SPEC_FULL.md §4.9's Go
// pin), matching the separation original_source/network/
// fullnode_connections.py already draws between buffering (_read/_write)
// and protocol interpretation (process_events/read/write).
package netconn

import (
	"github.com/kilimbaDaniel/ledgerd/internal/wire"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

type clientState int

const (
	clientAwaitHeaderLen clientState = iota
	clientAwaitHeader
	clientAwaitPayload
	clientAwaitDBWrite
	clientDone
	clientDBResponded
)

// ClientOutcome is the discriminated result of a completed ClientConnection,
// grounded on SPEC_FULL.md §4.8's Go pin.
type ClientOutcome struct {
	// TransactionReceived holds the canonical-encoded transaction payload
	// when the connection carried a transaction_content message.
	TransactionReceived []byte
	// DBRequested is true when the connection carried a db_request and is
	// now awaiting a database_content response to be written back.
	DBRequested bool
}

// ClientConnection is the full-node side of a connection to a light node
// (SPEC_FULL.md §4.8's ClientConnection): INIT is folded into
// clientAwaitHeaderLen, since no bytes have been read yet in either state.
type ClientConnection struct {
	state     clientState
	buf       []byte
	headerLen int
	header    wire.Header
	payload   []byte
}

// NewClientConnection returns a ClientConnection ready to receive its first
// chunk.
func NewClientConnection() *ClientConnection {
	return &ClientConnection{state: clientAwaitHeaderLen}
}

// Feed appends newly read bytes to the connection's receive buffer and
// advances through AWAIT_HEADER_LEN -> AWAIT_HEADER -> AWAIT_PAYLOAD,
// mirroring ClientConnection._read()'s incremental buffering: Feed may be
// called with any number of bytes, including fewer than a full field, and
// simply waits for more on the next call.
func (c *ClientConnection) Feed(chunk []byte) error {
	c.buf = append(c.buf, chunk...)

	for {
		switch c.state {
		case clientAwaitHeaderLen:
			if len(c.buf) < 2 {
				return nil
			}
			n, err := wire.HeaderLen(c.buf[:2])
			if err != nil {
				return err
			}
			c.headerLen = n
			c.buf = c.buf[2:]
			c.state = clientAwaitHeader

		case clientAwaitHeader:
			if len(c.buf) < c.headerLen {
				return nil
			}
			h, err := wire.ParseHeader(c.buf[:c.headerLen])
			if err != nil {
				return err
			}
			c.header = h
			c.buf = c.buf[c.headerLen:]
			c.state = clientAwaitPayload

		case clientAwaitPayload:
			if len(c.buf) < c.header.ContentLength {
				return nil
			}
			c.payload = c.buf[:c.header.ContentLength]
			c.buf = nil

			switch c.header.ContentType {
			case wire.TransactionContent:
				c.state = clientDone
			case wire.DBRequest:
				c.state = clientAwaitDBWrite
			default:
				return &xerrors.ProtocolError{Reason: "unexpected content-type on client connection: " + string(c.header.ContentType)}
			}
			return nil

		case clientAwaitDBWrite, clientDone:
			return nil
		}
	}
}

// AwaitingDatabaseResponse reports whether Feed has completed a db_request
// and the caller must now write a database_content response.
func (c *ClientConnection) AwaitingDatabaseResponse() bool {
	return c.state == clientAwaitDBWrite
}

// Done reports whether the connection has nothing further to do and may be
// closed.
func (c *ClientConnection) Done() bool {
	return c.state == clientDone || c.state == clientDBResponded
}

// Outcome returns the discriminated result once reception completed.
// Calling it before the header/payload fully arrived returns a zero value.
//
// A served db_request ends in clientDBResponded, not clientDone: the
// caller already wrote the database_content response itself via
// BuildDatabaseResponse, so there is nothing left for the processor to act
// on, and Outcome must not report the db_request's 1-byte sentinel payload
// as a received transaction.
func (c *ClientConnection) Outcome() ClientOutcome {
	switch c.state {
	case clientDone:
		return ClientOutcome{TransactionReceived: c.payload}
	case clientAwaitDBWrite:
		return ClientOutcome{DBRequested: true}
	default:
		return ClientOutcome{}
	}
}

// BuildDatabaseResponse frames chainBytes as a database_content message and
// marks the connection done; the caller then writes the returned frame, matching
// ClientConnection.write()'s behavior of closing immediately after the
// response to a db_request drains fully.
func (c *ClientConnection) BuildDatabaseResponse(chainBytes []byte) ([]byte, error) {
	frame, err := wire.Frame(wire.DatabaseContent, chainBytes)
	if err != nil {
		return nil, err
	}
	c.state = clientDBResponded
	return frame, nil
}
