package stcp

// handleInboundSegment is the receiver's entry point once the connection
// is past the handshake (§4.3-4.4). ACK processing runs on every inbound
// segment that carries the ACK flag, independent of whether it also
// carries data — this implementation's own sender always sets ACK, so
// pure-ack and data-bearing segments share the same ack-sweep step
// before branching on payload/control content.
func (c *Connection) handleInboundSegment(seg Segment) {
	c.sndWnd = clampWindow(seg.Window, c.cfg.CongestionCeiling)

	if seg.ACK() {
		c.rtq.sweepAck(seg.Ack)
		c.advanceSndUna(seg.Ack)
	}

	pureAck := !seg.SYN() && !seg.FIN() && len(seg.Payload) == 0
	if pureAck {
		return
	}

	c.receiveDataOrFin(seg)
}

// receiveDataOrFin implements the data-bearing/control branch of the
// receiver (§4.3 steps 3-6): stale discard, duplicate discard,
// out-of-order buffering, and in-order delivery with reorder-buffer
// drain.
func (c *Connection) receiveDataOrFin(seg Segment) {
	switch {
	case seqLess(seg.Seq, c.rcvNxt):
		// Stale: already delivered. Discard payload, re-ack rcvNxt.
		c.emitAck()

	case c.reorder.has(seg.Seq):
		// Duplicate of a segment already buffered out of order.
		c.emitAck()

	case seqGreater(seg.Seq, c.rcvNxt):
		// Out-of-order: buffer it only if it actually falls inside the
		// advertised window (rcv_nxt, rcv_nxt+rcv_wnd) -- a segment at or
		// beyond the window boundary is discarded outright, per the
		// window-boundary scenario, rather than buffered and subtracted
		// from rcv_wnd regardless of how far out it lands.
		if seqInRange(seg.Seq, c.rcvNxt, seqAdd(c.rcvNxt, c.rcvWnd)) {
			c.reorder.insert(seg)
			if n := seg.SeqSpaceLen(); n < c.rcvWnd {
				c.rcvWnd -= n
			} else {
				c.rcvWnd = 0
			}
		}
		c.emitAck()

	default:
		// In-order.
		c.deliverInOrder(seg)
		c.drainReorderBuffer()
		c.emitAck()
	}
}

// deliverInOrder advances rcv_nxt past one in-order segment, delivering
// its payload to the application and applying any FIN it carries.
func (c *Connection) deliverInOrder(seg Segment) {
	if len(seg.Payload) > 0 {
		c.bufs.stageForDelivery(c.app, seg.Payload)
	}
	c.rcvNxt = seqAdd(c.rcvNxt, seg.SeqSpaceLen())

	if seg.FIN() {
		c.onFinReceived()
	}
}

// drainReorderBuffer repeatedly pops the buffered entry whose seq equals
// the new rcv_nxt, delivering each in turn and returning its
// sequence-space to rcv_wnd, until no contiguous entry remains.
func (c *Connection) drainReorderBuffer() {
	for {
		seg, ok := c.reorder.popInOrder(c.rcvNxt)
		if !ok {
			return
		}
		c.rcvWnd += seg.SeqSpaceLen()
		c.deliverInOrder(seg)
	}
}

// emitAck sends a cumulative, payload-less ACK for the current rcv_nxt
// and advertised window.
func (c *Connection) emitAck() {
	seg := Segment{Header: Header{Seq: c.sndNxt, Ack: c.rcvNxt, Flags: FlagACK, Window: uint16(c.rcvWnd)}}
	c.sendSegment(seg)
}
