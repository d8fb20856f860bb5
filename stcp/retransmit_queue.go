package stcp

import (
	"time"

	rp "github.com/Clouded-Sabre/ringpool/lib"
	"github.com/google/btree"
)

// retransmitEntry is one in-flight segment: its wire bytes owned by
// value (per the design note on avoiding raw pointers into shared
// packet memory), its sequence-space bookkeeping, and its retry state.
type retransmitEntry struct {
	seq         uint32
	ackExpected uint32
	segment     []byte // owned copy, header+payload, ready to retransmit verbatim
	deadline    time.Time
	retries     int
	acked       bool
	isFin       bool        // true if this entry is the connection's own FIN
	chunk       *rp.Element // pooled payload chunk to release once purged, if any
}

// Less orders entries by seq for btree storage. Sequence numbers in one
// connection's queue never span a full wraparound in practice (the queue
// is bounded by the congestion ceiling), so plain uint32 ordering is
// sufficient here — unlike seqLess, which must handle arbitrary wrap.
func (e *retransmitEntry) Less(than btree.Item) bool {
	return e.seq < than.(*retransmitEntry).seq
}

// retransmitQueue is the ordered set of unacknowledged outgoing segments
// described in the data model, backed by a google/btree keyed by seq so
// that the Go-Back-N retransmit-from-seq sweep is an ordered range
// iteration. The tree is not keyed by deadline: earliestDeadline and
// expired each walk the entries in seq order.
type retransmitQueue struct {
	tree *btree.BTree
}

func newRetransmitQueue() *retransmitQueue {
	return &retransmitQueue{tree: btree.New(8)}
}

func (q *retransmitQueue) add(e *retransmitEntry) {
	q.tree.ReplaceOrInsert(e)
}

func (q *retransmitQueue) len() int { return q.tree.Len() }

// sweepAck marks acked every entry whose AckExpected is covered by
// cumulative ack number A: entries strictly below A have been fully
// received, per the ACK processor's cumulative semantics.
func (q *retransmitQueue) sweepAck(a uint32) {
	var toMark []*retransmitEntry
	q.tree.Ascend(func(i btree.Item) bool {
		e := i.(*retransmitEntry)
		if seqLessEq(e.ackExpected, a) {
			toMark = append(toMark, e)
			return true
		}
		return false
	})
	for _, e := range toMark {
		e.acked = true
	}
}

// purgeAcked removes every acked entry from the queue, returning them so
// the caller can apply any state transition they trigger (e.g. FIN
// acknowledged) and return pooled buffers.
func (q *retransmitQueue) purgeAcked() []*retransmitEntry {
	var acked []*retransmitEntry
	q.tree.Ascend(func(i btree.Item) bool {
		e := i.(*retransmitEntry)
		if e.acked {
			acked = append(acked, e)
		}
		return true
	})
	for _, e := range acked {
		q.tree.Delete(e)
	}
	return acked
}

// earliestDeadline returns the soonest deadline among non-acked entries,
// and ok=false if the queue is empty.
func (q *retransmitQueue) earliestDeadline() (time.Time, bool) {
	var best time.Time
	found := false
	q.tree.Ascend(func(i btree.Item) bool {
		e := i.(*retransmitEntry)
		if !e.acked && (!found || e.deadline.Before(best)) {
			best = e.deadline
			found = true
		}
		return true
	})
	return best, found
}

// expired returns the lowest-seq entry whose deadline is at or before
// now, or nil if none has expired.
func (q *retransmitQueue) expired(now time.Time) *retransmitEntry {
	var hit *retransmitEntry
	q.tree.Ascend(func(i btree.Item) bool {
		e := i.(*retransmitEntry)
		if !e.acked && !e.deadline.After(now) {
			hit = e
			return false
		}
		return true
	})
	return hit
}

// fromSeqOnward returns every entry with seq >= from, in seq order — the
// Go-Back-N retransmit set.
func (q *retransmitQueue) fromSeqOnward(from uint32) []*retransmitEntry {
	var out []*retransmitEntry
	pivot := &retransmitEntry{seq: from}
	q.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		out = append(out, i.(*retransmitEntry))
		return true
	})
	return out
}

// remove deletes e from the queue directly, used when a single entry
// (e.g. an abandoned one) must be dropped outside the ack-sweep path.
func (q *retransmitQueue) remove(e *retransmitEntry) {
	q.tree.Delete(e)
}

// all returns every entry in seq order.
func (q *retransmitQueue) all() []*retransmitEntry {
	var out []*retransmitEntry
	q.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(*retransmitEntry))
		return true
	})
	return out
}
