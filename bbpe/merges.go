package bbpe

import "sort"

// mergeEntry is one rule in a left-id's row: adjacent tokens
// (leftID, rightID) collapse into newID, with priority equal to the
// zero-based index of the rule in the JSON merges list (spec.md §3).
type mergeEntry struct {
	rightID  int32
	newID    int32
	priority int32
}

// MergeTable holds, for every left-id, an ordered-by-right-id row of
// merge rules (spec.md §3, §4.7). A left-id with no rules has a nil
// row, which behaves identically to an empty one under Lookup — there
// is no need to eagerly allocate one row per vocabulary id.
type MergeTable struct {
	rows [][]mergeEntry
}

func newMergeTable(size int) *MergeTable {
	if size < 0 {
		size = 0
	}
	return &MergeTable{rows: make([][]mergeEntry, size)}
}

func (m *MergeTable) grow(size int) {
	if size <= len(m.rows) {
		return
	}
	grown := make([][]mergeEntry, size)
	copy(grown, m.rows)
	m.rows = grown
}

// setRow installs leftID's row, already sorted by rightID.
func (m *MergeTable) setRow(leftID int32, row []mergeEntry) {
	if int(leftID) >= len(m.rows) {
		m.grow(int(leftID) + 1)
	}
	m.rows[leftID] = row
}

// Lookup finds the merge rule for adjacent tokens (left, right), if any,
// via an O(1) row fetch and an O(log k) binary search within the row
// (spec.md §4.7).
func (m *MergeTable) Lookup(left, right int32) (newID int32, priority int32, ok bool) {
	if left < 0 || int(left) >= len(m.rows) {
		return 0, 0, false
	}
	row := m.rows[left]
	i := sort.Search(len(row), func(i int) bool { return row[i].rightID >= right })
	if i < len(row) && row[i].rightID == right {
		e := row[i]
		return e.newID, e.priority, true
	}
	return 0, 0, false
}
