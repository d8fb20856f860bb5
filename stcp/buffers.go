package stcp

import "github.com/smallnest/ringbuffer"

// stagingBuffers holds the two fixed-size application staging regions:
// bytes pulled from the application waiting to be segmented, and bytes
// reassembled from the network waiting to be flushed to the
// application. Backed by a fixed-capacity ring buffer so neither region
// ever grows past its configured ceiling.
type stagingBuffers struct {
	send *ringbuffer.RingBuffer
	recv *ringbuffer.RingBuffer
}

func newStagingBuffers(capacity int) *stagingBuffers {
	return &stagingBuffers{
		send: ringbuffer.New(capacity),
		recv: ringbuffer.New(capacity),
	}
}

// pullFromApp moves up to the buffer's free space from AppIO into the
// send-staging ring, returning how many bytes were pulled.
func (s *stagingBuffers) pullFromApp(app appSource) int {
	free := s.send.Free()
	if free <= 0 {
		return 0
	}
	b := app.AppRecv(free)
	if len(b) == 0 {
		return 0
	}
	n, _ := s.send.Write(b)
	return n
}

// takeSendable consumes up to n bytes from the send-staging ring for the
// segmenter to build its next segment from.
func (s *stagingBuffers) takeSendable(n int) []byte {
	avail := s.send.Length()
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return nil
	}
	b := make([]byte, n)
	rn, _ := s.send.Read(b)
	return b[:rn]
}

// stageForDelivery writes delivered bytes into the recv-staging ring and
// immediately flushes them to AppIO; delivery to the application is
// non-blocking and does not wait for the application to drain it.
func (s *stagingBuffers) stageForDelivery(app appSink, b []byte) {
	if len(b) == 0 {
		return
	}
	s.recv.Write(b)
	flushed := make([]byte, s.recv.Length())
	n, _ := s.recv.Read(flushed)
	app.AppSend(flushed[:n])
}

// pending reports how many bytes are staged and ready to segment.
func (s *stagingBuffers) pending() int {
	return s.send.Length()
}

type appSource interface {
	AppRecv(max int) []byte
}

type appSink interface {
	AppSend(b []byte)
}
