package netconn

import (
	"github.com/kilimbaDaniel/ledgerd/internal/wire"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// FullNodeMode selects which of a light node's two outbound connection
// shapes a FullNodeConnection drives, per SPEC_FULL.md §4.8 and
// original_source/network/lightnode_connections.py's connection_type.
type FullNodeMode int

const (
	// TransactionBroadcast sends a transaction_content frame, then closes.
	TransactionBroadcast FullNodeMode = iota
	// DatabaseRequest sends a db_request frame, then awaits a
	// database_content response.
	DatabaseRequest
)

type fullNodeConnState int

const (
	fnAwaitWriteFrame fullNodeConnState = iota
	fnAwaitReadHeaderLen
	fnAwaitReadHeader
	fnAwaitReadPayload
	fnDone
)

// FullNodeOutcome is the discriminated result of a completed
// FullNodeConnection.
type FullNodeOutcome struct {
	DatabaseReceived []byte
}

// FullNodeConnection is the light-node side of a connection to a full node
// (SPEC_FULL.md §4.8's FullNodeConnection).
type FullNodeConnection struct {
	mode      FullNodeMode
	state     fullNodeConnState
	payload   []byte // transaction bytes to send, for TransactionBroadcast
	buf       []byte
	headerLen int
	header    wire.Header
	received  []byte
}

// NewTransactionBroadcast returns a FullNodeConnection that will send
// txBytes as a transaction_content frame then close.
func NewTransactionBroadcast(txBytes []byte) *FullNodeConnection {
	return &FullNodeConnection{mode: TransactionBroadcast, state: fnAwaitWriteFrame, payload: txBytes}
}

// NewDatabaseRequest returns a FullNodeConnection that will send a
// db_request frame, then await a database_content response.
func NewDatabaseRequest() *FullNodeConnection {
	return &FullNodeConnection{mode: DatabaseRequest, state: fnAwaitWriteFrame}
}

// OutgoingFrame returns the single frame this connection must write before
// anything else happens: a transaction_content frame for
// TransactionBroadcast, a db_request frame for DatabaseRequest.
func (f *FullNodeConnection) OutgoingFrame() ([]byte, error) {
	switch f.mode {
	case TransactionBroadcast:
		return wire.Frame(wire.TransactionContent, f.payload)
	case DatabaseRequest:
		return wire.Frame(wire.DBRequest, nil)
	default:
		return nil, &xerrors.ProtocolError{Reason: "unknown full-node connection mode"}
	}
}

// MarkFrameSent records that OutgoingFrame fully drained. A
// TransactionBroadcast connection is then done; a DatabaseRequest
// connection flips to awaiting a database_content response.
func (f *FullNodeConnection) MarkFrameSent() {
	switch f.mode {
	case TransactionBroadcast:
		f.state = fnDone
	case DatabaseRequest:
		f.state = fnAwaitReadHeaderLen
	}
}

// Feed advances a DatabaseRequest connection's response reception.
func (f *FullNodeConnection) Feed(chunk []byte) error {
	if f.mode != DatabaseRequest {
		return &xerrors.ProtocolError{Reason: "Feed called on a transaction-broadcast connection"}
	}
	f.buf = append(f.buf, chunk...)

	for {
		switch f.state {
		case fnAwaitReadHeaderLen:
			if len(f.buf) < 2 {
				return nil
			}
			l, err := wire.HeaderLen(f.buf[:2])
			if err != nil {
				return err
			}
			f.headerLen = l
			f.buf = f.buf[2:]
			f.state = fnAwaitReadHeader

		case fnAwaitReadHeader:
			if len(f.buf) < f.headerLen {
				return nil
			}
			h, err := wire.ParseHeader(f.buf[:f.headerLen])
			if err != nil {
				return err
			}
			if h.ContentType != wire.DatabaseContent {
				return &xerrors.ProtocolError{Reason: "expected database_content response"}
			}
			f.header = h
			f.buf = f.buf[f.headerLen:]
			f.state = fnAwaitReadPayload

		case fnAwaitReadPayload:
			if len(f.buf) < f.header.ContentLength {
				return nil
			}
			f.received = f.buf[:f.header.ContentLength]
			f.buf = nil
			f.state = fnDone
			return nil

		case fnAwaitWriteFrame, fnDone:
			return nil
		}
	}
}

// Done reports whether the connection has finished its one job.
func (f *FullNodeConnection) Done() bool {
	return f.state == fnDone
}

// AwaitingWrite reports whether the caller must still write (and then call
// MarkFrameSent on) the outgoing frame.
func (f *FullNodeConnection) AwaitingWrite() bool {
	return f.state == fnAwaitWriteFrame
}

// Outcome returns the discriminated result.
func (f *FullNodeConnection) Outcome() FullNodeOutcome {
	if f.mode == DatabaseRequest && f.state == fnDone {
		return FullNodeOutcome{DatabaseReceived: f.received}
	}
	return FullNodeOutcome{}
}
