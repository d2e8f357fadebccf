package bbpe

import "github.com/nwdxlgzs/bbpe-go/internal/heaptoken"

// mergeHeap is the default merger: a doubly-linked list plus a binary
// min-heap of candidate merges (internal/heaptoken), the production
// variant spec.md §9 describes as an alternative to the reference
// O(n²) scan. It must produce bit-identical output to mergeNaive; see
// bpe_test.go's differential test.
func mergeHeap(merges *MergeTable, ids []int32) []int32 {
	return heaptoken.Merge(ids, merges.Lookup)
}

// mergeNaive is the reference O(n²) adjacent-pair rescan from spec.md
// §4.5: repeatedly find the single highest-priority (lowest priority
// value) adjacent pair with a rule, breaking ties leftmost, and apply
// it, until no adjacent pair has a rule. Kept as the correctness oracle
// for mergeHeap and exercised directly by the tie-break property test.
func mergeNaive(merges *MergeTable, ids []int32) []int32 {
	out := append([]int32(nil), ids...)
	for len(out) > 1 {
		bestIdx := -1
		var bestPriority, bestNewID int32
		for i := 0; i < len(out)-1; i++ {
			newID, priority, ok := merges.Lookup(out[i], out[i+1])
			if !ok {
				continue
			}
			// Strict less-than keeps the first (leftmost) index on ties.
			if bestIdx == -1 || priority < bestPriority {
				bestIdx = i
				bestPriority = priority
				bestNewID = newID
			}
		}
		if bestIdx == -1 {
			break
		}
		out[bestIdx] = bestNewID
		out = append(out[:bestIdx+1], out[bestIdx+2:]...)
	}
	return out
}
