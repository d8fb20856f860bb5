package stcp

import "github.com/pkg/errors"

// Sentinel errors for application misuse at the API boundary. Malformed
// wire data has no sentinel; ParseSegment reports it with its own error
// value. Protocol-level conditions the ACK
// processor and receiver absorb silently (stale segment, unknown ACK,
// unexpected flags in a state) are not errors at all — they return early
// with no value, mirroring the source's discard-and-return style.
var (
	ErrNotEstablished = errors.New("stcp: connection is not established")
	ErrAlreadyClosing = errors.New("stcp: close already requested")
	ErrSendAfterClose = errors.New("stcp: send after close requested")
)
