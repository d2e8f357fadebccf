// Package heaptoken implements the doubly-linked-list-plus-priority-queue
// BPE merge frontier sketched in spec.md §9 as the production-grade
// alternative to the reference O(n²) adjacent rescan: a min-heap of
// candidate merges ordered by (priority, left-position), with stale
// entries discarded by revalidating against the live list instead of
// being eagerly removed from the heap.
package heaptoken

import (
	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// Node is one token in the live chain. Seq is assigned once, at
// construction, in left-to-right order; because merges only ever delete
// a node (never reorder the survivors), a surviving node's Seq always
// reflects its original position relative to every other surviving
// node, which is exactly what "leftmost" means even after the id it
// holds has changed under repeated merges.
type Node struct {
	ID      int32
	Seq     int64
	Version int
	Prev    *Node
	Next    *Node
	Dead    bool
}

// List is the live doubly-linked chain of tokens.
type List struct {
	Head *Node
	Tail *Node
}

func newList(ids []int32) *List {
	l := &List{}
	var prev *Node
	for i, id := range ids {
		n := &Node{ID: id, Seq: int64(i)}
		if prev == nil {
			l.Head = n
		} else {
			prev.Next = n
			n.Prev = prev
		}
		prev = n
	}
	l.Tail = prev
	return l
}

func (l *List) toSlice() []int32 {
	out := make([]int32, 0, 4)
	for n := l.Head; n != nil; n = n.Next {
		out = append(out, n.ID)
	}
	return out
}

// candidate is one pending (left, right) → newID merge, captured with
// the versions its endpoints held when the candidate was pushed.
type candidate struct {
	priority int32
	seq      int64
	left     *Node
	right    *Node
	newID    int32
	leftVer  int
	rightVer int
}

// stale reports whether either endpoint has moved on since this
// candidate was queued: already removed, already merged elsewhere
// (version bump), or no longer adjacent.
func (c *candidate) stale() bool {
	return c.left.Dead || c.right.Dead ||
		c.left.Version != c.leftVer || c.right.Version != c.rightVer ||
		c.left.Next != c.right
}

func compareCandidates(a, b *candidate) int {
	if a.priority != b.priority {
		if a.priority < b.priority {
			return -1
		}
		return 1
	}
	if a.seq != b.seq {
		if a.seq < b.seq {
			return -1
		}
		return 1
	}
	return 0
}

// LookupFunc mirrors MergeTable.Lookup: given adjacent (left, right)
// token ids, it reports the merged id and its priority, or false if no
// rule applies.
type LookupFunc func(left, right int32) (newID int32, priority int32, ok bool)

// Merge repeatedly applies the single highest-priority (lowest
// priority value), leftmost-on-tie adjacent merge until none remain,
// exactly like the reference O(n²) scan in spec.md §4.5 — but backed by
// a linked list and a binary heap so each step is O(log n) instead of
// O(n).
func Merge(ids []int32, lookup LookupFunc) []int32 {
	if len(ids) < 2 {
		out := make([]int32, len(ids))
		copy(out, ids)
		return out
	}

	list := newList(ids)
	heap := binaryheap.NewWith(compareCandidates)

	push := func(left, right *Node) {
		if left == nil || right == nil {
			return
		}
		newID, priority, ok := lookup(left.ID, right.ID)
		if !ok {
			return
		}
		heap.Push(&candidate{
			priority: priority,
			seq:      left.Seq,
			left:     left,
			right:    right,
			newID:    newID,
			leftVer:  left.Version,
			rightVer: right.Version,
		})
	}

	for n := list.Head; n != nil && n.Next != nil; n = n.Next {
		push(n, n.Next)
	}

	for {
		c, ok := heap.Pop()
		if !ok {
			break
		}
		if c.stale() {
			continue
		}

		left, right := c.left, c.right
		left.ID = c.newID
		left.Version++
		left.Next = right.Next
		if right.Next != nil {
			right.Next.Prev = left
		} else {
			list.Tail = left
		}
		right.Dead = true

		if left.Prev != nil {
			push(left.Prev, left)
		}
		if left.Next != nil {
			push(left, left.Next)
		}
	}

	return list.toSlice()
}
