package stcp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Header is the fixed 20-byte STCP segment header: source/dest port,
// sequence and acknowledgment numbers, data offset, flags, advertised
// window, checksum (always zero, per the wire format section) and
// urgent pointer (always zero, unused).
type Header struct {
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Flags   uint8
	Window  uint16
}

// Segment is a parsed header plus its payload.
type Segment struct {
	Header
	Payload []byte
}

func (h Header) hasFlag(f uint8) bool { return h.Flags&f != 0 }

func (h Header) SYN() bool { return h.hasFlag(FlagSYN) }
func (h Header) ACK() bool { return h.hasFlag(FlagACK) }
func (h Header) FIN() bool { return h.hasFlag(FlagFIN) }

// AckExpected is the ack number a receiver must return to acknowledge
// this entire segment: seq advanced by its sequence-space length.
func (s Segment) AckExpected() uint32 {
	return seqAdd(s.Seq, s.SeqSpaceLen())
}

// SeqSpaceLen is the number of sequence numbers this segment consumes:
// one for SYN, one for FIN, plus one per payload byte. SYN+data (the
// "data present" marker source behavior, not used by this
// implementation's own sender but still parseable on the wire) would
// consume both.
func (s Segment) SeqSpaceLen() uint32 {
	n := uint32(len(s.Payload))
	if s.SYN() {
		n++
	}
	if s.FIN() {
		n++
	}
	return n
}

// Marshal encodes the header and payload into the fixed wire format:
// 20-byte header, big-endian fields, checksum and urgent pointer zeroed.
func (s Segment) Marshal() []byte {
	buf := make([]byte, HeaderLength+len(s.Payload))
	binary.BigEndian.PutUint16(buf[0:2], s.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], s.DstPort)
	binary.BigEndian.PutUint32(buf[4:8], s.Seq)
	binary.BigEndian.PutUint32(buf[8:12], s.Ack)
	buf[12] = DataOffsetWords << 4
	buf[13] = s.Flags & 0x3f
	binary.BigEndian.PutUint16(buf[14:16], s.Window)
	// buf[16:18] checksum, buf[18:20] urgent pointer: left zero.
	copy(buf[HeaderLength:], s.Payload)
	return buf
}

// ParseSegment decodes a wire-format byte slice into a Segment.
func ParseSegment(buf []byte) (Segment, error) {
	if len(buf) < HeaderLength {
		return Segment{}, errors.Errorf("stcp: segment too short: %d bytes", len(buf))
	}
	h := Header{
		SrcPort: binary.BigEndian.Uint16(buf[0:2]),
		DstPort: binary.BigEndian.Uint16(buf[2:4]),
		Seq:     binary.BigEndian.Uint32(buf[4:8]),
		Ack:     binary.BigEndian.Uint32(buf[8:12]),
		Flags:   buf[13] & 0x3f,
		Window:  binary.BigEndian.Uint16(buf[14:16]),
	}
	payload := make([]byte, len(buf)-HeaderLength)
	copy(payload, buf[HeaderLength:])
	return Segment{Header: h, Payload: payload}, nil
}
