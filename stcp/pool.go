package stcp

import (
	"fmt"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// segmentPayload is the pooled element type handed out by a connection's
// payload pool: a fixed-size byte slice plus the length actually in use.
type segmentPayload struct {
	bytes  []byte
	length int
}

// newSegmentPayload is the ringpool factory function; ringpool calls it
// for every element it pre-allocates, passing along the extra arguments
// given to NewRingPool (newPayloadPool passes defaultPayloadCap). An
// optional single int argument sets the buffer size; without one it is
// defaultPayloadCap.
func newSegmentPayload(params ...interface{}) rp.DataInterface {
	cap := defaultPayloadCap
	if len(params) == 1 {
		if n, ok := params[0].(int); ok {
			cap = n
		}
	}
	return &segmentPayload{bytes: make([]byte, cap)}
}

// defaultPayloadCap is the pooled buffer size, the payload ceiling for
// MSS=536 with a 20-byte header.
const defaultPayloadCap = 516

func (p *segmentPayload) Reset() {
	p.length = 0
}

func (p *segmentPayload) Copy(src []byte) error {
	n := copy(p.bytes, src)
	p.length = n
	return nil
}

func (p *segmentPayload) Slice() []byte {
	return p.bytes[:p.length]
}

func (p *segmentPayload) PrintContent() {
	fmt.Println("Content:", string(p.bytes[:p.length]))
}

// payloadPool checks out and reclaims fixed-size payload byte buffers for
// one connection's outgoing segments: the sender copies each segment's
// payload into a pooled chunk, the retransmit queue entry holds its own
// value-owned copy of the marshalled segment, and the chunk is returned
// once that entry is purged or abandoned.
type payloadPool struct {
	pool *rp.RingPool
}

func newPayloadPool(size int) *payloadPool {
	return &payloadPool{
		pool: rp.NewRingPool("stcp segment payload pool: ", size, newSegmentPayload, defaultPayloadCap),
	}
}

// checkout borrows a chunk, copies src into it, and returns the usable
// slice view plus the element to return later.
func (p *payloadPool) checkout(src []byte) ([]byte, *rp.Element) {
	el := p.pool.GetElement()
	payload := el.Data.(*segmentPayload)
	payload.Reset()
	_ = payload.Copy(src)
	return payload.Slice(), el
}

func (p *payloadPool) release(el *rp.Element) {
	if el != nil {
		p.pool.ReturnElement(el)
	}
}
