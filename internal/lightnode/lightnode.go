// Package lightnode implements the light-node driver of SPEC_FULL.md
// §4.9's counterpart and §6: Broadcast(transaction) and
// RequestChain() -> chain, each a short-lived outbound connection driven
// by a netconn.FullNodeConnection. Grounded on
// original_source/network/lightnode.py and lightnode_connections.py.
package lightnode

import (
	"net"

	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/netconn"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

const recvChunkSize = 4096

// Driver talks to exactly one full node, addr, per SPEC_FULL.md's
// single-outbound-peer scope.
type Driver struct {
	addr string
}

// New returns a Driver dialing addr (host:port) for every call.
func New(addr string) *Driver {
	return &Driver{addr: addr}
}

// Broadcast sends tx to the full node as a transaction_content message and
// closes, matching FullNodeConnection's transaction_broadcast mode.
func (d *Driver) Broadcast(tx model.Transaction) error {
	conn, err := net.Dial("tcp", d.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	raw, err := codec.EncodeTransaction(tx)
	if err != nil {
		return err
	}

	fc := netconn.NewTransactionBroadcast(raw)
	frame, err := fc.OutgoingFrame()
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return err
	}
	fc.MarkFrameSent()
	return nil
}

// RequestChain opens a database_request connection, drains the response,
// and decodes it into a Chain.
func (d *Driver) RequestChain() (model.Chain, error) {
	conn, err := net.Dial("tcp", d.addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	fc := netconn.NewDatabaseRequest()
	frame, err := fc.OutgoingFrame()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(frame); err != nil {
		return nil, err
	}
	fc.MarkFrameSent()

	buf := make([]byte, recvChunkSize)
	for !fc.Done() {
		n, err := conn.Read(buf)
		if n > 0 {
			if ferr := fc.Feed(buf[:n]); ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			if fc.Done() {
				break
			}
			return nil, &xerrors.ProtocolError{Reason: "connection closed before database_content completed"}
		}
	}

	return codec.DecodeChain(fc.Outcome().DatabaseReceived)
}
