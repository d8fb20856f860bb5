// Package stcp implements the per-connection STCP state machine: the
// three-way handshake, windowed data transfer with cumulative ACKs and
// Go-Back-N retransmission, and the four-way FIN teardown, driven by a
// single cooperative event loop. The lower-layer datagram transport, the
// application-facing byte-stream API, and the event multiplexer are
// external collaborators, consumed through the transport package's
// interfaces rather than implemented here.
package stcp

import (
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	rp "github.com/Clouded-Sabre/ringpool/lib"
	"github.com/go-netstacks/stcp/config"
	"github.com/go-netstacks/stcp/transport"
)

// Connection is the per-connection context: state variable, sequence
// bookkeeping, peer/local window sizes, and the queues and buffers the
// data model assigns exclusive ownership of to the connection for its
// lifetime.
type Connection struct {
	cfg *config.Config
	log *log.Logger

	net transport.NetIO
	app transport.AppIO
	mux transport.Multiplexer

	srcPort, dstPort uint16

	state    State
	iss      uint32
	sndNxt   uint32
	sndUna   uint32
	rcvNxt   uint32
	rcvWnd   uint32
	sndWnd   uint32
	done     bool
	doneFlag atomic.Bool // mirrors done for safe cross-goroutine polling (e.g. by a demo/CLI)

	bufs    *stagingBuffers
	rtq     *retransmitQueue
	reorder *reorderBuffer
	pool    *payloadPool
}

// newConnection allocates the shared plumbing common to active and
// passive open; callers set state and iss afterward.
func newConnection(cfg *config.Config, net transport.NetIO, app transport.AppIO, mux transport.Multiplexer, srcPort, dstPort uint16, logger *log.Logger) *Connection {
	if logger == nil {
		logger = log.Default()
	}
	return &Connection{
		cfg:     cfg,
		log:     logger,
		net:     net,
		app:     app,
		mux:     mux,
		srcPort: srcPort,
		dstPort: dstPort,
		rcvWnd:  uint32(cfg.LocalRecvWindow),
		sndWnd:  uint32(cfg.CongestionCeiling),
		bufs:    newStagingBuffers(cfg.LocalRecvWindow),
		rtq:     newRetransmitQueue(),
		reorder: newReorderBuffer(),
		pool:    newPayloadPool(cfg.CongestionCeiling/cfg.PayloadCeiling() + 2),
	}
}

func generateISS(cfg *config.Config) uint32 {
	if cfg.DeterministicISS {
		return 1
	}
	return uint32(rand.Intn(256))
}

// NewActiveConnection creates a connection that begins the handshake as
// the active opener, in SYN_SENT, per the handshake driver's "start in
// SYN_SENT, skip LISTEN→SYN_SENT" instruction.
func NewActiveConnection(cfg *config.Config, net transport.NetIO, app transport.AppIO, mux transport.Multiplexer, srcPort, dstPort uint16, logger *log.Logger) *Connection {
	c := newConnection(cfg, net, app, mux, srcPort, dstPort, logger)
	c.iss = generateISS(cfg)
	c.state = SynSent
	return c
}

// NewPassiveConnection creates a connection that begins in LISTEN,
// awaiting an inbound SYN.
func NewPassiveConnection(cfg *config.Config, net transport.NetIO, app transport.AppIO, mux transport.Multiplexer, srcPort, dstPort uint16, logger *log.Logger) *Connection {
	c := newConnection(cfg, net, app, mux, srcPort, dstPort, logger)
	c.iss = generateISS(cfg)
	c.state = Listen
	return c
}

// State returns the current connection state, chiefly for tests.
func (c *Connection) State() State { return c.state }

// Done reports whether the connection has reached its terminal flag.
// Safe to call from another goroutine while Run executes, unlike every
// other Connection method.
func (c *Connection) Done() bool { return c.doneFlag.Load() }

func (c *Connection) markDone() {
	c.done = true
	c.doneFlag.Store(true)
}

// advanceSndUna moves snd_una forward to a cumulative ack number, the
// companion to rtq.sweepAck: marking retransmit-queue entries acked
// tracks what can be purged, while snd_una tracks how much window the
// sender has free, and the two must move together on every ACK.
func (c *Connection) advanceSndUna(ack uint32) {
	if seqGreater(ack, c.sndUna) {
		c.sndUna = ack
	}
}

func (c *Connection) setState(s State) {
	if s != c.state {
		c.log.Printf("stcp: %s -> %s", c.state, s)
	}
	c.state = s
}

func (c *Connection) now() time.Time { return time.Now() }

func (c *Connection) rto() time.Duration {
	return time.Duration(c.cfg.RTOMillis) * time.Millisecond
}

// sendSegment marshals and transmits a segment, returning its wire bytes
// so the caller can enqueue them onto the retransmit queue when the
// segment carries sequence-space that needs acknowledgment.
func (c *Connection) sendSegment(seg Segment) []byte {
	seg.SrcPort, seg.DstPort = c.srcPort, c.dstPort
	wire := seg.Marshal()
	if err := c.net.NetSend(wire); err != nil {
		c.log.Printf("stcp: net_send error: %v", err)
	}
	return wire
}

// enqueueRetransmit adds a sent segment to the retransmit queue with a
// fresh RTO deadline.
func (c *Connection) enqueueRetransmit(seg Segment, wire []byte) {
	c.enqueueRetransmitChunk(seg, wire, nil)
}

func (c *Connection) enqueueRetransmitChunk(seg Segment, wire []byte, chunk *rp.Element) {
	c.rtq.add(&retransmitEntry{
		seq:         seg.Seq,
		ackExpected: seg.AckExpected(),
		segment:     wire,
		deadline:    c.now().Add(c.rto()),
		chunk:       chunk,
	})
}

// purgeAckedEntries removes every acked entry from the retransmit queue,
// releases any pooled payload chunk it was holding, and applies the FIN
// acknowledged state transition (§4.6) if a FIN entry was among them.
func (c *Connection) purgeAckedEntries() []*retransmitEntry {
	acked := c.rtq.purgeAcked()
	finAcked := false
	for _, e := range acked {
		if e.chunk != nil {
			c.pool.release(e.chunk)
		}
		if e.isFin {
			finAcked = true
		}
	}
	if finAcked {
		c.onFinAcked()
	}
	return acked
}
