package stcp

import (
	"time"

	"github.com/go-netstacks/stcp/transport"
)

// Run drives the event loop (§4.7) until the connection's done flag is
// set: sweep the retransmit queue, compute the soonest deadline, wait on
// the multiplexer, dispatch to exactly one sub-handler per signaled
// event, repeat. The loop owns all connection state exclusively; nothing
// else touches it concurrently, per the concurrency model.
func (c *Connection) Run() {
	c.Open()
	for !c.done {
		c.stepOnce()
	}
}

// stepOnce runs a single loop iteration, kept as its own method so
// tests can single-step a connection instead of running Run to
// completion.
func (c *Connection) stepOnce() {
	if c.done {
		return
	}

	c.sweep()

	deadline, hasDeadline := c.rtq.earliestDeadline()
	var wait time.Time
	if hasDeadline {
		wait = deadline
	}

	events := c.mux.WaitForEvent(wait)

	if events&transport.NetworkData != 0 {
		c.onNetworkData()
	}
	if events&transport.AppData != 0 {
		if err := c.trySend(); err != nil {
			c.log.Printf("stcp: app_send ignored: %v", err)
		}
	}
	if events&transport.AppCloseRequested != 0 {
		_ = c.RequestClose()
	}
	if events&transport.Timeout != 0 {
		c.onTimeout(c.now())
	}
}

// sweep applies ACK-driven state transitions and purges the entries that
// triggered them — the event loop's own step 1, kept distinct from the
// ACK processor's marking step (§4.4) so a FIN-acknowledged transition
// is always applied on a loop boundary rather than mid-receive. Purging
// is also the moment snd_wnd - in_flight can have grown, so this is
// where buffered-but-unsent application bytes get a chance to flush
// per §4.2's "emitted when ACKs widen the window" — trySend is a no-op
// whenever there's no room or nothing staged.
func (c *Connection) sweep() {
	c.purgeAckedEntries()
	_ = c.trySend()
}

func (c *Connection) onNetworkData() {
	wire, ok := c.net.NetRecv()
	if !ok {
		return
	}
	seg, err := ParseSegment(wire)
	if err != nil {
		c.log.Printf("stcp: dropping malformed segment: %v", err)
		return
	}

	switch c.state {
	case Listen, SynSent, SynReceived:
		c.handleHandshakeSegment(seg)
	default:
		c.handleInboundSegment(seg)
	}
}

// onTimeout is the retransmission scheduler (§4.5): it takes the
// lowest-seq expired retransmit-queue entry and either drops it and
// abandons the connection outright — if the connection is already winding down, or
// this entry has exhausted its retries — or resends everything from
// that entry onward and reschedules.
func (c *Connection) onTimeout(now time.Time) {
	entry := c.rtq.expired(now)
	if entry == nil {
		return
	}

	dead := c.state.terminalLeaning() || entry.retries >= c.cfg.MaxRetries
	if dead {
		c.rtq.remove(entry)
		if entry.chunk != nil {
			c.pool.release(entry.chunk)
		}
		c.log.Printf("stcp: abandoning connection after seq=%d retries=%d", entry.seq, entry.retries)
		c.setState(Closed)
		c.markDone()
		return
	}

	toResend := c.rtq.fromSeqOnward(entry.seq)
	deadline := now.Add(c.rto())
	for _, e := range toResend {
		c.net.NetSend(e.segment)
		e.deadline = deadline
	}
	entry.retries++
}
