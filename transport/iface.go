// Package transport fixes the Go shape of STCP's external collaborators:
// the lower-layer datagram service, the application-facing byte-stream
// service, and the event multiplexer the core's event loop blocks on.
// None of these is a production network stack — they are the narrow
// interfaces the stcp package consumes, plus one minimal in-memory
// implementation for tests and the demo program.
package transport

import "time"

// Event is a bitmask of the four sources the event loop multiplexes.
type Event uint8

const (
	NetworkData       Event = 1 << iota // a segment arrived on the wire
	AppData                             // the application has bytes to send
	AppCloseRequested                   // the application requested a close
	Timeout                             // the wait deadline elapsed
)

// NetIO is the lower-layer datagram service. Implementations are
// best-effort: no ordering or delivery guarantee is assumed by the core.
type NetIO interface {
	// NetSend emits one segment. It must not block the caller
	// indefinitely; a slow sink becomes a serialization point, not a
	// correctness problem, per the concurrency model.
	NetSend(segment []byte) error

	// NetRecv returns exactly one buffered segment, or ok=false if none
	// is currently available.
	NetRecv() (segment []byte, ok bool)
}

// AppIO is the application-facing byte-stream service.
type AppIO interface {
	// AppRecv drains up to max bytes the application has queued to
	// send, returning the bytes actually taken.
	AppRecv(max int) []byte

	// AppSend delivers bytes to the application, in order.
	AppSend(b []byte)

	// AppUnblock signals that the connection has reached ESTABLISHED.
	AppUnblock()

	// AppFin signals a peer half-close.
	AppFin()
}

// Multiplexer is the event-wait primitive the event loop blocks on.
type Multiplexer interface {
	// WaitForEvent blocks until at least one of NetworkData, AppData,
	// or AppCloseRequested is signaled, or deadline elapses (Timeout is
	// then included in the returned mask). A zero deadline means wait
	// indefinitely.
	WaitForEvent(deadline time.Time) Event
}
