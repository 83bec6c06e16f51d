package fullnode

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/kilimbaDaniel/ledgerd/internal/netconn"
)

const recvChunkSize = 4096

// clientEvent and neighborEvent carry a connection's discriminated
// outcome to the processor goroutine, tagged with a correlation id for
// logging — the Go realization of SPEC_FULL.md §4.8's ClientOutcome /
// NeighborOutcome.
type clientEvent struct {
	id      string
	conn    net.Conn
	outcome netconn.ClientOutcome
}

type neighborEvent struct {
	id      string
	conn    net.Conn
	outcome netconn.NeighborOutcome
}

// acceptClients runs the client-facing accept loop. Each accepted
// connection gets its own goroutine; SPEC_FULL.md §5's "1-second timeout
// on select" is realized per-connection as a refreshed 1-second read
// deadline, since Go has no single shared selector to apply the timeout
// to.
func (n *Node) acceptClients(ctx context.Context, ln net.Listener) {
	go closeOnDone(ctx, ln)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.Error().Err(err).Msg("client accept failed")
			continue
		}
		go n.serveClient(conn)
	}
}

// acceptNeighbors runs the neighbor-facing accept loop, driven with no
// read deadline — SPEC_FULL.md §5's "neighbor select polls
// non-blockingly" realized as an unbounded blocking read on a connection
// the local node fully controls the lifetime of.
func (n *Node) acceptNeighbors(ctx context.Context, ln net.Listener) {
	go closeOnDone(ctx, ln)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.Error().Err(err).Msg("neighbor accept failed")
			continue
		}
		go n.serveNeighborReceive(conn)
	}
}

func closeOnDone(ctx context.Context, ln net.Listener) {
	<-ctx.Done()
	_ = ln.Close()
}

func (n *Node) serveClient(conn net.Conn) {
	id := uuid.NewString()
	c := netconn.NewClientConnection()
	defer conn.Close()

	buf := make([]byte, recvChunkSize)
	for !c.Done() {
		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		read, err := conn.Read(buf)
		if read > 0 {
			if ferr := c.Feed(buf[:read]); ferr != nil {
				n.log.Warn().Str("conn", id).Err(ferr).Msg("client connection protocol error")
				return
			}
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			n.log.Warn().Str("conn", id).Err(err).Msg("client connection read error")
			return
		}

		if c.AwaitingDatabaseResponse() {
			chainBytes := n.currentChainBytes()
			frame, ferr := c.BuildDatabaseResponse(chainBytes)
			if ferr != nil {
				n.log.Warn().Str("conn", id).Err(ferr).Msg("building database response")
				return
			}
			if _, werr := conn.Write(frame); werr != nil {
				n.log.Warn().Str("conn", id).Err(werr).Msg("writing database response")
				return
			}
		}
	}

	n.clientOutcomes <- clientEvent{id: id, conn: conn, outcome: c.Outcome()}
}

func (n *Node) serveNeighborReceive(conn net.Conn) {
	id := uuid.NewString()
	nc := netconn.NewNeighborConnectionReceive()
	defer conn.Close()

	buf := make([]byte, recvChunkSize)
	for !nc.Done() {
		read, err := conn.Read(buf)
		if read > 0 {
			if ferr := nc.Feed(buf[:read]); ferr != nil {
				n.log.Warn().Str("conn", id).Err(ferr).Msg("neighbor connection protocol error")
				return
			}
		}
		if err != nil {
			n.log.Warn().Str("conn", id).Err(err).Msg("neighbor connection read error")
			return
		}
	}

	n.neighborOutcomes <- neighborEvent{id: id, conn: conn, outcome: nc.Outcome()}
}

// gossip opens an outbound connection to the configured neighbor and sends
// the current chain as a database_content message, matching
// fullnode_processing.py's unconditional post-processing call to
// fsm.start_gossip (SPEC_FULL.md §14.2).
func (n *Node) gossip() {
	conn, err := net.Dial("tcp", n.cfg.NeighborDialAddr)
	if err != nil {
		n.log.Warn().Err(err).Msg("gossip dial failed")
		return
	}

	nc := netconn.NewNeighborConnectionSend(n.currentChainBytes())
	frame, err := nc.OutgoingFrame()
	if err != nil {
		n.log.Warn().Err(err).Msg("framing gossip chain")
		_ = conn.Close()
		return
	}
	if _, err := conn.Write(frame); err != nil {
		n.log.Warn().Err(err).Msg("writing gossip chain")
		_ = conn.Close()
		return
	}
	nc.MarkSent()
	// The driver closes a send-only NeighborConnection explicitly once
	// DatabaseSent is observed (SPEC_FULL.md §4.8); here that happens
	// immediately after the single write completes.
	_ = conn.Close()
}

func (n *Node) currentChainBytes() []byte {
	c, err := n.api.Chain()
	if err != nil {
		n.log.Error().Err(err).Msg("reading chain for gossip/response")
		return nil
	}
	raw, err := encodeChain(c)
	if err != nil {
		n.log.Error().Err(err).Msg("encoding chain for gossip/response")
		return nil
	}
	return raw
}
