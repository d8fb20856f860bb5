package stcp

import "testing"

func TestMarshalFlagBitsAndDataOffset(t *testing.T) {
	seg := Segment{
		Header:  Header{SrcPort: 1, DstPort: 2, Seq: 100, Ack: 500, Flags: FlagSYN | FlagACK, Window: 3072},
		Payload: nil,
	}
	wire := seg.Marshal()

	if len(wire) != HeaderLength {
		t.Fatalf("expected a bare header to be %d bytes, got %d", HeaderLength, len(wire))
	}
	if got := wire[12] >> 4; got != DataOffsetWords {
		t.Errorf("data offset nibble = %d, want %d", got, DataOffsetWords)
	}
	if got := wire[13] & 0x3f; got != FlagSYN|FlagACK {
		t.Errorf("flags byte = %#x, want %#x", got, FlagSYN|FlagACK)
	}
	if wire[16] != 0 || wire[17] != 0 {
		t.Error("checksum field must be zeroed, per the wire format spec")
	}
}

func TestParseSegmentRejectsShortBuffer(t *testing.T) {
	_, err := ParseSegment(make([]byte, HeaderLength-1))
	if err == nil {
		t.Fatal("expected an error parsing a too-short buffer")
	}
}

func TestParseSegmentRecoversFields(t *testing.T) {
	seg := Segment{
		Header:  Header{SrcPort: 7080, DstPort: 32768, Seq: 101, Ack: 501, Flags: FlagACK, Window: 3072},
		Payload: []byte("hello"),
	}
	got, err := ParseSegment(seg.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Seq != 101 || got.Ack != 501 || !got.ACK() || got.SYN() {
		t.Errorf("parsed header mismatch: %+v", got.Header)
	}
	if string(got.Payload) != "hello" {
		t.Errorf("payload = %q, want %q", got.Payload, "hello")
	}
}

func TestAckExpectedAccountsForControlFlags(t *testing.T) {
	data := Segment{Header: Header{Seq: 100, Flags: FlagACK}, Payload: []byte("abc")}
	if got, want := data.AckExpected(), uint32(103); got != want {
		t.Errorf("data segment AckExpected = %d, want %d", got, want)
	}

	fin := Segment{Header: Header{Seq: 200, Flags: FlagFIN}}
	if got, want := fin.AckExpected(), uint32(201); got != want {
		t.Errorf("FIN segment AckExpected = %d, want %d", got, want)
	}

	synAck := Segment{Header: Header{Seq: 1, Flags: FlagSYN | FlagACK}}
	if got, want := synAck.AckExpected(), uint32(2); got != want {
		t.Errorf("SYN segment AckExpected = %d, want %d", got, want)
	}
}
