package stcp

// Sequence-number comparisons, wrap-aware: a precedes b iff (a-b) mod
// 2^32 has the high bit set, so comparisons keep working correctly
// across a 32-bit wraparound instead of breaking at the 0/2^32-1 edge.

func seqAdd(seq, n uint32) uint32 {
	return seq + n // wraps implicitly
}

// seqLess reports whether a precedes b in sequence-number space.
func seqLess(a, b uint32) bool {
	return uint32(a-b)&0x80000000 != 0
}

func seqLessEq(a, b uint32) bool {
	return a == b || seqLess(a, b)
}

func seqGreater(a, b uint32) bool {
	return a != b && !seqLess(a, b)
}

func seqGreaterEq(a, b uint32) bool {
	return !seqLess(a, b)
}

// seqInRange reports whether seq lies strictly between lo and hi, the
// interval the reorder buffer invariant is stated over: a segment at
// rcv_nxt is handled by the in-order path before this is ever consulted,
// and a segment at exactly rcv_nxt+rcv_wnd sits one byte past the last
// one the advertised window actually covers, so both endpoints are
// excluded.
func seqInRange(seq, lo, hi uint32) bool {
	return seqGreater(seq, lo) && seqLess(seq, hi)
}
