package transport

import (
	"bytes"
	"sync"
	"time"
)

// LoopbackPipe is a minimal in-memory NetIO+AppIO+Multiplexer, wiring two
// endpoints directly together through buffered queues instead of a real
// socket. It makes no attempt to behave like a production network link —
// no loss, reordering, or latency — it is a deterministic transport for
// driving the core end to end.
//
// A small mailbox guarded by a mutex, with a buffered "something
// changed" channel waking up the blocked waiter, stands in for the
// channel-plus-select idiom a real per-connection goroutine pair would
// use, collapsed onto a single goroutine's worth of state since the
// core itself is required to stay single-threaded.
type LoopbackPipe struct {
	mu sync.Mutex

	peer *LoopbackPipe

	netQueue     [][]byte
	appSendQueue [][]byte
	delivered    bytes.Buffer

	established    bool
	peerHalfClosed bool
	closeRequested bool

	notify chan struct{}
}

// NewLoopbackPair returns two endpoints wired to each other: segments
// sent on one arrive on the other's NetRecv.
func NewLoopbackPair() (a, b *LoopbackPipe) {
	a = &LoopbackPipe{notify: make(chan struct{}, 1)}
	b = &LoopbackPipe{notify: make(chan struct{}, 1)}
	a.peer, b.peer = b, a
	return a, b
}

func (p *LoopbackPipe) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// NetSend delivers segment to the peer endpoint's inbound queue.
func (p *LoopbackPipe) NetSend(segment []byte) error {
	cp := make([]byte, len(segment))
	copy(cp, segment)

	peer := p.peer
	peer.mu.Lock()
	peer.netQueue = append(peer.netQueue, cp)
	peer.mu.Unlock()
	peer.wake()
	return nil
}

// NetRecv pops the oldest buffered inbound segment, if any.
func (p *LoopbackPipe) NetRecv() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.netQueue) == 0 {
		return nil, false
	}
	seg := p.netQueue[0]
	p.netQueue = p.netQueue[1:]
	return seg, true
}

// QueueAppSend enqueues bytes as if the local application had called
// send(2); the core picks them up via AppRecv on its next APP_DATA event.
func (p *LoopbackPipe) QueueAppSend(b []byte) {
	if len(b) == 0 {
		return
	}
	cp := make([]byte, len(b))
	copy(cp, b)

	p.mu.Lock()
	p.appSendQueue = append(p.appSendQueue, cp)
	p.mu.Unlock()
	p.wake()
}

// RequestClose simulates the application calling close(2).
func (p *LoopbackPipe) RequestClose() {
	p.mu.Lock()
	p.closeRequested = true
	p.mu.Unlock()
	p.wake()
}

// AppRecv drains queued outbound application bytes, up to max.
func (p *LoopbackPipe) AppRecv(max int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []byte
	for len(p.appSendQueue) > 0 && len(out) < max {
		chunk := p.appSendQueue[0]
		room := max - len(out)
		if room >= len(chunk) {
			out = append(out, chunk...)
			p.appSendQueue = p.appSendQueue[1:]
		} else {
			out = append(out, chunk[:room]...)
			p.appSendQueue[0] = chunk[room:]
		}
	}
	return out
}

// AppSend appends delivered bytes to the local "received by application"
// buffer, readable back out via Delivered for test/demo assertions.
func (p *LoopbackPipe) AppSend(b []byte) {
	p.mu.Lock()
	p.delivered.Write(b)
	p.mu.Unlock()
}

// AppUnblock marks the connection established.
func (p *LoopbackPipe) AppUnblock() {
	p.mu.Lock()
	p.established = true
	p.mu.Unlock()
}

// AppFin marks that the peer half-closed its send side.
func (p *LoopbackPipe) AppFin() {
	p.mu.Lock()
	p.peerHalfClosed = true
	p.mu.Unlock()
}

// Delivered returns a copy of the bytes delivered to the application so
// far.
func (p *LoopbackPipe) Delivered() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, p.delivered.Len())
	copy(out, p.delivered.Bytes())
	return out
}

// Established reports whether AppUnblock has fired.
func (p *LoopbackPipe) Established() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.established
}

// PeerHalfClosed reports whether AppFin has fired, i.e. the peer has
// closed its send side.
func (p *LoopbackPipe) PeerHalfClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peerHalfClosed
}

func (p *LoopbackPipe) pollEvents() Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ev Event
	if len(p.netQueue) > 0 {
		ev |= NetworkData
	}
	if len(p.appSendQueue) > 0 {
		ev |= AppData
	}
	if p.closeRequested {
		ev |= AppCloseRequested
		p.closeRequested = false
	}
	return ev
}

// WaitForEvent blocks until a segment arrives, the application queues
// data or a close, or deadline elapses. A wake-up that finds nothing
// pending (its event already consumed by an earlier poll) returns an
// empty mask instead of waiting again, so unlike the Multiplexer
// contract it can return with no event signalled.
func (p *LoopbackPipe) WaitForEvent(deadline time.Time) Event {
	if ev := p.pollEvents(); ev != 0 {
		return ev
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return Timeout
		}
		timer = time.NewTimer(d)
		timerC = timer.C
		defer timer.Stop()
	}

	select {
	case <-p.notify:
		if ev := p.pollEvents(); ev != 0 {
			return ev
		}
		return 0
	case <-timerC:
		return Timeout
	}
}
