package netconn

import (
	"github.com/kilimbaDaniel/ledgerd/internal/wire"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// NeighborMode selects which of the two roles a NeighborConnection plays,
// chosen once at construction per SPEC_FULL.md §4.8: a full node either
// receives a neighbor's chain (receive-only) or sends its own
// (send-only). A single connection is never both.
type NeighborMode int

const (
	NeighborReceive NeighborMode = iota
	NeighborSend
)

type neighborState int

const (
	neighborAwaitHeaderLen neighborState = iota
	neighborAwaitHeader
	neighborAwaitPayload
	neighborAwaitWrite
	neighborDone
)

// NeighborOutcome is the discriminated result of a completed
// NeighborConnection.
type NeighborOutcome struct {
	DatabaseReceived []byte
	DatabaseSent     bool
}

// NeighborConnection is the full↔full connection state machine of
// SPEC_FULL.md §4.8.
type NeighborConnection struct {
	mode      NeighborMode
	state     neighborState
	buf       []byte
	headerLen int
	header    wire.Header
	payload   []byte
	toSend    []byte // send-only mode: the chain bytes to frame and drain
}

// NewNeighborConnectionReceive returns a NeighborConnection in receive-only
// mode, ready for Feed.
func NewNeighborConnectionReceive() *NeighborConnection {
	return &NeighborConnection{mode: NeighborReceive, state: neighborAwaitHeaderLen}
}

// NewNeighborConnectionSend returns a NeighborConnection in send-only mode,
// carrying chainBytes to be framed and written by the driver.
func NewNeighborConnectionSend(chainBytes []byte) *NeighborConnection {
	return &NeighborConnection{mode: NeighborSend, state: neighborAwaitWrite, toSend: chainBytes}
}

// Mode reports which role this connection plays.
func (n *NeighborConnection) Mode() NeighborMode { return n.mode }

// OutgoingFrame returns the single database_content frame a send-only
// connection must write, once. The driver writes it fully, then calls
// MarkSent.
func (n *NeighborConnection) OutgoingFrame() ([]byte, error) {
	return wire.Frame(wire.DatabaseContent, n.toSend)
}

// MarkSent records that the outgoing frame fully drained. Per
// SPEC_FULL.md §4.8, a send-only NeighborConnection does not self-close —
// the driver closes it explicitly after observing DatabaseSent.
func (n *NeighborConnection) MarkSent() {
	n.state = neighborDone
}

// Feed advances a receive-only connection through the same
// AWAIT_HEADER_LEN -> AWAIT_HEADER -> AWAIT_PAYLOAD states as
// ClientConnection.
func (n *NeighborConnection) Feed(chunk []byte) error {
	if n.mode != NeighborReceive {
		return &xerrors.ProtocolError{Reason: "Feed called on a send-only neighbor connection"}
	}
	n.buf = append(n.buf, chunk...)

	for {
		switch n.state {
		case neighborAwaitHeaderLen:
			if len(n.buf) < 2 {
				return nil
			}
			l, err := wire.HeaderLen(n.buf[:2])
			if err != nil {
				return err
			}
			n.headerLen = l
			n.buf = n.buf[2:]
			n.state = neighborAwaitHeader

		case neighborAwaitHeader:
			if len(n.buf) < n.headerLen {
				return nil
			}
			h, err := wire.ParseHeader(n.buf[:n.headerLen])
			if err != nil {
				return err
			}
			if h.ContentType != wire.DatabaseContent {
				return &xerrors.ProtocolError{Reason: "expected database_content on neighbor connection"}
			}
			n.header = h
			n.buf = n.buf[n.headerLen:]
			n.state = neighborAwaitPayload

		case neighborAwaitPayload:
			if len(n.buf) < n.header.ContentLength {
				return nil
			}
			n.payload = n.buf[:n.header.ContentLength]
			n.buf = nil
			n.state = neighborDone
			return nil

		case neighborAwaitWrite, neighborDone:
			return nil
		}
	}
}

// Done reports whether this connection has finished its one job.
func (n *NeighborConnection) Done() bool {
	return n.state == neighborDone
}

// Outcome returns the discriminated result.
func (n *NeighborConnection) Outcome() NeighborOutcome {
	switch {
	case n.mode == NeighborReceive && n.state == neighborDone:
		return NeighborOutcome{DatabaseReceived: n.payload}
	case n.mode == NeighborSend && n.state == neighborDone:
		return NeighborOutcome{DatabaseSent: true}
	default:
		return NeighborOutcome{}
	}
}
