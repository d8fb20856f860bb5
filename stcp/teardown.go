package stcp

// RequestClose drives the application-requested half of the teardown
// driver (§4.6): from ESTABLISHED, send FIN and move to FIN_WAIT_1; from
// CLOSE_WAIT (peer already half-closed), send FIN and move to LAST_ACK.
// Closing before the handshake completes or after it has already begun
// is a caller error, surfaced rather than silently ignored.
func (c *Connection) RequestClose() error {
	switch c.state {
	case Established:
		c.sendFin()
		c.setState(FinWait1)
		return nil
	case CloseWait:
		c.sendFin()
		c.setState(LastAck)
		return nil
	case Listen, SynSent, SynReceived:
		return ErrNotEstablished
	default:
		return ErrAlreadyClosing
	}
}

func (c *Connection) sendFin() {
	seg := Segment{Header: Header{Seq: c.sndNxt, Ack: c.rcvNxt, Flags: FlagFIN | FlagACK, Window: uint16(c.rcvWnd)}}
	wire := c.sendSegment(seg)
	c.rtq.add(&retransmitEntry{
		seq:         seg.Seq,
		ackExpected: seg.AckExpected(),
		segment:     wire,
		deadline:    c.now().Add(c.rto()),
		isFin:       true,
	})
	c.sndNxt = seqAdd(c.sndNxt, 1)
}

// onFinReceived applies the "received FIN" half of §4.6, called once the
// FIN has been delivered in order (its sequence number already consumed
// into rcv_nxt by deliverInOrder).
func (c *Connection) onFinReceived() {
	switch c.state {
	case Established:
		c.setState(CloseWait)
		c.app.AppFin()
	case FinWait1, FinWait2:
		c.setState(Closed)
		c.markDone()
	}
}

// onFinAcked applies the "FIN acknowledged" half of §4.6, called from the
// ACK-sweep once a FIN entry has been purged from the retransmit queue.
// The source's immediate close after LAST_ACK (no TIME_WAIT) is carried
// here unchanged.
func (c *Connection) onFinAcked() {
	switch c.state {
	case FinWait1:
		c.setState(FinWait2)
	case LastAck:
		c.setState(Closed)
		c.markDone()
	}
}
