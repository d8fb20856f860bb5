package stcp

// trySend is the segmenter (§4.2): it pulls any newly-queued application
// bytes into the send-staging buffer, then emits as many ≤MSS-header
// segments as the window allows. It MUST NOT transmit more than
// snd_wnd - in_flight; any surplus stays buffered until an ACK widens
// the window. Sending is only done in ESTABLISHED and CLOSE_WAIT. In
// every other state — the handshake states as well as the states after
// the local FIN — nothing is pulled or sent, the application's queued
// bytes stay where they are, and ErrSendAfterClose is returned.
func (c *Connection) trySend() error {
	if c.state != Established && c.state != CloseWait {
		return ErrSendAfterClose
	}

	c.bufs.pullFromApp(c.app)

	for {
		inFlight := c.sndNxt - c.sndUna
		room := int(c.sndWnd) - int(inFlight)
		if room <= 0 {
			break
		}

		n := c.cfg.PayloadCeiling()
		if n > room {
			n = room
		}
		if n > c.bufs.pending() {
			n = c.bufs.pending()
		}
		if n <= 0 {
			break
		}

		payload := c.bufs.takeSendable(n)
		c.sendDataSegment(payload)
	}
	return nil
}

// sendDataSegment builds, pools, transmits and enqueues one pure-data
// segment: ACK is its only flag (no SYN, no FIN), so it is distinguished
// from a pure ACK only by its non-empty payload (the decided alternative
// to the source's SYN-as-data-marker convention).
func (c *Connection) sendDataSegment(payload []byte) {
	pooled, chunk := c.pool.checkout(payload)

	seg := Segment{
		Header:  Header{Seq: c.sndNxt, Ack: c.rcvNxt, Flags: FlagACK, Window: uint16(c.rcvWnd)},
		Payload: pooled,
	}
	wire := c.sendSegment(seg)
	c.enqueueRetransmitChunk(seg, wire, chunk)
	c.sndNxt = seqAdd(c.sndNxt, uint32(len(payload)))
}
