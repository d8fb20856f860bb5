package stcp

// Open begins the handshake: for an active opener this sends the initial
// SYN and enqueues it on the retransmit queue, so it is resent on the
// same RTO/retries schedule as any data segment; for a passive opener it
// merely leaves the connection in LISTEN, waiting for
// handleHandshakeSegment to see an inbound SYN.
func (c *Connection) Open() {
	if c.state != SynSent {
		return
	}
	seg := Segment{Header: Header{Seq: c.iss, Flags: FlagSYN, Window: uint16(c.rcvWnd)}}
	wire := c.sendSegment(seg)
	c.enqueueRetransmit(seg, wire)
}

// handleHandshakeSegment runs the handshake driver's per-state logic
// (§4.1): active open's SYN_SENT, passive open's LISTEN/SYN_RECEIVED,
// and the simultaneous-open tolerance of a bare SYN arriving in
// SYN_SENT.
func (c *Connection) handleHandshakeSegment(seg Segment) {
	switch c.state {
	case Listen:
		if seg.SYN() && !seg.ACK() {
			c.rcvNxt = seqAdd(seg.Seq, 1)
			reply := Segment{Header: Header{Seq: c.iss, Ack: c.rcvNxt, Flags: FlagSYN | FlagACK, Window: uint16(c.rcvWnd)}}
			wire := c.sendSegment(reply)
			c.enqueueRetransmit(reply, wire)
			c.setState(SynReceived)
		}

	case SynSent:
		switch {
		case seg.SYN() && seg.ACK() && seg.Ack == seqAdd(c.iss, 1):
			c.completeActiveHandshake(seg)

		case seg.SYN() && !seg.ACK():
			// Simultaneous open: respond SYN+ACK, move to SYN_RECEIVED;
			// the peer's subsequent ACK completes it like passive open.
			c.rcvNxt = seqAdd(seg.Seq, 1)
			reply := Segment{Header: Header{Seq: c.iss, Ack: c.rcvNxt, Flags: FlagSYN | FlagACK, Window: uint16(c.rcvWnd)}}
			wire := c.sendSegment(reply)
			c.enqueueRetransmit(reply, wire)
			c.setState(SynReceived)
		}

	case SynReceived:
		if seg.ACK() && seg.Ack == seqAdd(c.iss, 1) {
			if seg.SYN() {
				// peer's ACK arrived combined with a SYN retransmit; rcvNxt
				// already accounts for the original SYN, nothing to redo.
			}
			c.rtq.sweepAck(seg.Ack)
			c.advanceSndUna(seg.Ack)
			c.completeHandshake()
		}
	}
}

func (c *Connection) completeActiveHandshake(seg Segment) {
	c.rcvNxt = seqAdd(seg.Seq, 1)
	c.sndWnd = clampWindow(seg.Window, c.cfg.CongestionCeiling)
	c.rtq.sweepAck(seg.Ack)
	c.advanceSndUna(seg.Ack)

	reply := Segment{Header: Header{Seq: seqAdd(c.iss, 1), Ack: c.rcvNxt, Flags: FlagACK, Window: uint16(c.rcvWnd)}}
	c.sendSegment(reply)
	c.completeHandshake()
}

func (c *Connection) completeHandshake() {
	c.sndUna = seqAdd(c.iss, 1)
	c.sndNxt = seqAdd(c.iss, 1)
	c.setState(Established)
	c.app.AppUnblock()
}

func clampWindow(peerWindow uint16, ceiling int) uint32 {
	w := uint32(peerWindow)
	if int(w) > ceiling {
		return uint32(ceiling)
	}
	return w
}
