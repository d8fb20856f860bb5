package stcp

import "github.com/google/btree"

// reorderEntry holds one out-of-order segment buffered ahead of rcv_nxt.
type reorderEntry struct {
	seq     uint32
	segment Segment
}

func (e *reorderEntry) Less(than btree.Item) bool {
	return e.seq < than.(*reorderEntry).seq
}

// reorderBuffer is the set of received segments with seq > rcv_nxt,
// keyed by seq with no duplicates, as required by the data model.
// Backed by google/btree for the same reason as the retransmit queue:
// the drain step needs ordered "pop while seq == rcv_nxt" iteration.
type reorderBuffer struct {
	tree *btree.BTree
}

func newReorderBuffer() *reorderBuffer {
	return &reorderBuffer{tree: btree.New(8)}
}

func (b *reorderBuffer) len() int { return b.tree.Len() }

func (b *reorderBuffer) has(seq uint32) bool {
	return b.tree.Get(&reorderEntry{seq: seq}) != nil
}

func (b *reorderBuffer) insert(seg Segment) {
	b.tree.ReplaceOrInsert(&reorderEntry{seq: seg.Seq, segment: seg})
}

// popInOrder removes and returns the buffered entry at seq, if any.
func (b *reorderBuffer) popInOrder(seq uint32) (Segment, bool) {
	item := b.tree.Delete(&reorderEntry{seq: seq})
	if item == nil {
		return Segment{}, false
	}
	return item.(*reorderEntry).segment, true
}
