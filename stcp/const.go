package stcp

// Flag bits occupy the low 6 bits of header byte 13, matching the
// host TCP header convention named in the wire format section.
const (
	FlagFIN uint8 = 1 << 0
	FlagSYN uint8 = 1 << 1
	FlagRST uint8 = 1 << 2
	FlagPSH uint8 = 1 << 3
	FlagACK uint8 = 1 << 4
	FlagURG uint8 = 1 << 5
)

// HeaderLength is the fixed STCP segment header size (no options).
const HeaderLength = 20

// DataOffsetWords is the data-offset value (in 32-bit words) for a
// no-options header.
const DataOffsetWords = 5
