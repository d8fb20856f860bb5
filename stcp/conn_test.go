package stcp

import (
	"testing"
	"time"

	"github.com/go-netstacks/stcp/config"
	"github.com/go-netstacks/stcp/transport"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DeterministicISS = true
	cfg.RTOMillis = 30 // keep scenario tests fast; behavior is RTO-duration agnostic
	return cfg
}

func newTestPair(t *testing.T) (active, passive *Connection, aPipe, pPipe *transport.LoopbackPipe) {
	t.Helper()
	aPipe, pPipe = transport.NewLoopbackPair()
	cfg := testConfig()
	active = NewActiveConnection(cfg, aPipe, aPipe, aPipe, 40000, 7080, nil)
	passive = NewPassiveConnection(cfg, pPipe, pPipe, pPipe, 7080, 40000, nil)
	return active, passive, aPipe, pPipe
}

// runUntil steps the given connections in round-robin until cond is
// satisfied or a deadline elapses, to keep a hung scenario from blocking
// a test run. A connection with nothing left to do (empty retransmit
// queue, no pending segments) blocks in its own WaitForEvent, so callers
// pass only the connections that still have work to do for the
// condition being awaited.
func runUntil(t *testing.T, cond func() bool, conns ...*Connection) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		for _, c := range conns {
			c.stepOnce()
		}
	}
}

func TestCleanActiveOpenAndClose(t *testing.T) {
	active, passive, _, _ := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	if err := active.RequestClose(); err != nil {
		t.Fatalf("RequestClose: %v", err)
	}

	// The passive side's application reacts to the peer half-close by
	// closing its own send side too, completing the four-way teardown.
	runUntil(t, func() bool {
		return passive.State() == CloseWait
	}, active, passive)
	if err := passive.RequestClose(); err != nil {
		t.Fatalf("passive RequestClose: %v", err)
	}

	runUntil(t, func() bool {
		return active.Done() && passive.Done()
	}, active, passive)

	if active.State() != Closed || passive.State() != Closed {
		t.Errorf("expected both CLOSED, got active=%s passive=%s", active.State(), passive.State())
	}
}

func TestPassiveOpenReceivingData(t *testing.T) {
	active, passive, aPipe, pPipe := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	payload := []byte("hello from the active opener")
	aPipe.QueueAppSend(payload)

	runUntil(t, func() bool {
		return string(pPipe.Delivered()) == string(payload)
	}, active, passive)
}

func TestDuplicateAckIsHarmless(t *testing.T) {
	active, passive, _, _ := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	ackSeg := Segment{Header: Header{Seq: passive.sndNxt, Ack: active.sndNxt, Flags: FlagACK, Window: 3072}}

	// Deliver the same ACK twice directly into the active side's
	// inbound handling and confirm queue state is identical after both.
	active.handleInboundSegment(ackSeg)
	afterFirst := active.rtq.len()
	active.handleInboundSegment(ackSeg)
	afterSecond := active.rtq.len()

	if afterFirst != afterSecond {
		t.Errorf("retransmit queue length changed between duplicate ACKs: %d vs %d", afterFirst, afterSecond)
	}
}

func TestOutOfOrderSegmentBeyondWindowIsDiscarded(t *testing.T) {
	active, passive, _, _ := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	beforeWnd := passive.rcvWnd

	// A segment sitting exactly at the window boundary (rcv_nxt+rcv_wnd)
	// must be discarded outright, not buffered.
	atBoundary := Segment{
		Header:  Header{Seq: seqAdd(passive.rcvNxt, passive.rcvWnd), Ack: active.sndNxt, Flags: FlagACK},
		Payload: []byte("x"),
	}
	passive.handleInboundSegment(atBoundary)
	if passive.reorder.len() != 0 {
		t.Errorf("expected segment at the window boundary to be discarded, reorder buffer has %d entries", passive.reorder.len())
	}
	if passive.rcvWnd != beforeWnd {
		t.Errorf("rcv_wnd changed for a discarded out-of-window segment: before=%d after=%d", beforeWnd, passive.rcvWnd)
	}

	// One byte past rcv_nxt, safely inside the window, is buffered.
	inWindow := Segment{
		Header:  Header{Seq: seqAdd(passive.rcvNxt, 1), Ack: active.sndNxt, Flags: FlagACK},
		Payload: []byte("x"),
	}
	passive.handleInboundSegment(inWindow)
	if passive.reorder.len() != 1 {
		t.Errorf("expected in-window out-of-order segment to be buffered, reorder buffer has %d entries", passive.reorder.len())
	}
}

func TestRequestCloseBeforeEstablishedIsRejected(t *testing.T) {
	active, _, _, _ := newTestPair(t)
	// active starts in SYN_SENT until Open/handshake runs.
	if err := active.RequestClose(); err != ErrNotEstablished {
		t.Errorf("RequestClose before handshake completion: got %v, want ErrNotEstablished", err)
	}
}

func TestSendAfterCloseIsRejected(t *testing.T) {
	active, passive, aPipe, _ := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	if err := active.RequestClose(); err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	runUntil(t, func() bool { return active.State() == FinWait1 }, active)

	aPipe.QueueAppSend([]byte("too late"))
	if err := active.trySend(); err != ErrSendAfterClose {
		t.Errorf("trySend after FIN sent: got %v, want ErrSendAfterClose", err)
	}
}

// lossyNet wraps a LoopbackPipe's NetIO, swallowing any outbound segment
// that matches drop, to simulate network loss for the Go-Back-N and
// max-retries scenarios.
type lossyNet struct {
	inner transport.NetIO
	drop  func(seg Segment) bool
}

func (l *lossyNet) NetSend(wire []byte) error {
	if seg, err := ParseSegment(wire); err == nil && l.drop(seg) {
		return nil
	}
	return l.inner.NetSend(wire)
}

func (l *lossyNet) NetRecv() ([]byte, bool) { return l.inner.NetRecv() }

func TestLostSegmentTriggersGoBackN(t *testing.T) {
	aPipe, pPipe := transport.NewLoopbackPair()
	cfg := testConfig()
	cfg.MSS = 120 // payload ceiling 100 bytes, so 300 bytes splits into three segments

	active := NewActiveConnection(cfg, aPipe, aPipe, aPipe, 40000, 7080, nil)
	passive := NewPassiveConnection(cfg, pPipe, pPipe, pPipe, 7080, 40000, nil)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	// Drop exactly the second 100-byte data segment the active side sends.
	dropCount := 0
	active.net = &lossyNet{inner: aPipe, drop: func(seg Segment) bool {
		if len(seg.Payload) != 100 {
			return false
		}
		dropCount++
		return dropCount == 2
	}}

	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte('A' + i%26)
	}
	aPipe.QueueAppSend(payload)

	// Once the passive side has nothing queued it blocks in WaitForEvent
	// with no deadline, and only the active side's RTO can produce the
	// retransmission it is waiting for. So the passive side runs its own
	// loop here, and only the active side is single-stepped.
	go passive.Run()

	runUntil(t, func() bool {
		return string(pPipe.Delivered()) == string(payload)
	}, active)
}

// TestWindowLimitedTransferDrainsAfterAcks forces a transfer whose total
// size exceeds the advertised window, so the sender must rely on
// ACK-driven window-opening (via sweep's post-purge trySend) to flush
// the remainder rather than sending it all in one burst.
func TestWindowLimitedTransferDrainsAfterAcks(t *testing.T) {
	aPipe, pPipe := transport.NewLoopbackPair()
	cfg := testConfig()
	cfg.MSS = 120               // 100-byte payload ceiling
	cfg.CongestionCeiling = 200 // room for only ~2 segments in flight at once
	cfg.LocalRecvWindow = 200

	active := NewActiveConnection(cfg, aPipe, aPipe, aPipe, 40000, 7080, nil)
	passive := NewPassiveConnection(cfg, pPipe, pPipe, pPipe, 7080, 40000, nil)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	payload := make([]byte, 500)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	aPipe.QueueAppSend(payload)

	runUntil(t, func() bool {
		return string(pPipe.Delivered()) == string(payload)
	}, active, passive)
}

func TestSimultaneousFinReachesClosed(t *testing.T) {
	active, passive, _, _ := newTestPair(t)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	if err := active.RequestClose(); err != nil {
		t.Fatalf("active RequestClose: %v", err)
	}
	if err := passive.RequestClose(); err != nil {
		t.Fatalf("passive RequestClose: %v", err)
	}

	runUntil(t, func() bool {
		return active.Done() && passive.Done()
	}, active, passive)

	if active.State() != Closed || passive.State() != Closed {
		t.Errorf("expected both CLOSED after simultaneous close, got active=%s passive=%s", active.State(), passive.State())
	}
}

func TestMaxRetriesAbandonsConnection(t *testing.T) {
	aPipe, pPipe := transport.NewLoopbackPair()
	cfg := testConfig()

	active := NewActiveConnection(cfg, aPipe, aPipe, aPipe, 40000, 7080, nil)
	passive := NewPassiveConnection(cfg, pPipe, pPipe, pPipe, 7080, 40000, nil)

	active.Open()
	runUntil(t, func() bool {
		return active.State() == Established && passive.State() == Established
	}, active, passive)

	// Silence the peer entirely and push one data segment; it should be
	// retransmitted MaxRetries times and then abandon the connection.
	// Only active needs to keep stepping: passive has nothing to do and
	// would otherwise block forever waiting for a segment that never
	// arrives.
	active.net = &lossyNet{inner: aPipe, drop: func(Segment) bool { return true }}
	aPipe.QueueAppSend([]byte("never arrives"))

	runUntil(t, func() bool { return active.Done() }, active)

	if active.State() != Closed {
		t.Errorf("expected active to reach CLOSED after exhausting retries, got %s", active.State())
	}
}
