// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "sort"

// Extent describes a run of contiguous file bytes backed by contiguous
// bytes inside one object.
type Extent struct {
	ObjectID  uint32
	ObjOffset uint32
	Length    uint32
}

// end returns the object-relative byte immediately past this extent.
func (e Extent) end() uint32 { return e.ObjOffset + e.Length }

// extentEntry pairs a file offset (the map key) with its extent.
type extentEntry struct {
	base   int64
	extent Extent
}

// ExtentMap is a per-file, non-overlapping interval map from file offset
// to extent. Keys are kept sorted; all operations run in O(n) over the
// number of extents touched, which in practice is small and bounded by
// how fragmented a file's writes have been.
//
// The zero value is an empty map ready to use.
type ExtentMap struct {
	entries []extentEntry
}

// Len returns the number of extents currently stored.
func (m *ExtentMap) Len() int { return len(m.entries) }

// search returns the index of the first entry with base >= offset
// (Go's equivalent of std::map::lower_bound).
func (m *ExtentMap) search(offset int64) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].base >= offset
	})
}

// Lookup returns the extent containing offset, or the lowest extent
// whose base exceeds offset, along with whether an entry was found at
// all (false means offset is past every extent).
func (m *ExtentMap) Lookup(offset int64) (base int64, extent Extent, ok bool) {
	i := m.search(offset)
	if (i == len(m.entries) || m.entries[i].base > offset) && i > 0 {
		pred := m.entries[i-1]
		if offset < pred.base+int64(pred.extent.Length) {
			return pred.base, pred.extent, true
		}
	}
	if i == len(m.entries) {
		return 0, Extent{}, false
	}
	return m.entries[i].base, m.entries[i].extent, true
}

// Update inserts e at key offset, splicing or erasing any overlapping
// entries so the non-overlap invariant holds afterwards. See the
// extent-map component design for the step-by-step algorithm; the order
// of these steps is load-bearing and must not be reshuffled.
func (m *ExtentMap) Update(offset int64, e Extent) {
	// Fast path: empty map.
	if len(m.entries) == 0 {
		m.entries = append(m.entries, extentEntry{base: offset, extent: e})
		return
	}

	// Fast path: tail append with adjacent object bytes.
	last := m.entries[len(m.entries)-1]
	if offset == last.base+int64(last.extent.Length) &&
		e.ObjOffset == last.extent.end() &&
		e.ObjectID == last.extent.ObjectID {
		m.entries[len(m.entries)-1].extent.Length += e.Length
		return
	}

	i := m.search(offset)
	if i == len(m.entries) && offset >= last.base+int64(last.extent.Length) {
		m.entries = append(m.entries, extentEntry{base: offset, extent: e})
		m.sortTail()
		return
	}

	// Erase every entry fully overlapped by [offset, offset+e.Length).
	end := offset + int64(e.Length)
	j := i
	for j < len(m.entries) {
		entry := m.entries[j]
		if entry.base >= offset && entry.base+int64(entry.extent.Length) <= end {
			j++
			continue
		}
		break
	}
	m.entries = append(m.entries[:i], m.entries[j:]...)

	// Right-overlap trim: the surviving entry at i (if any) may still
	// start inside [offset, end).
	if i < len(m.entries) {
		entry := m.entries[i]
		if entry.base < end {
			advance := uint32(end - entry.base)
			newEntry := extentEntry{
				base: end,
				extent: Extent{
					ObjectID:  entry.extent.ObjectID,
					ObjOffset: entry.extent.ObjOffset + advance,
					Length:    entry.extent.Length - advance,
				},
			}
			m.entries[i] = newEntry
		}
	}

	// Re-locate the insertion point; the predecessor may need bisecting
	// or left-trimming.
	i = m.search(offset)
	if i > 0 {
		predIdx := i - 1
		pred := m.entries[predIdx]

		switch {
		case pred.base < offset && pred.base+int64(pred.extent.Length) > end:
			// Bisect: split into a left fragment and a right fragment.
			advance := uint32(end - pred.base)
			left := extentEntry{
				base: pred.base,
				extent: Extent{
					ObjectID:  pred.extent.ObjectID,
					ObjOffset: pred.extent.ObjOffset,
					Length:    uint32(offset - pred.base),
				},
			}
			right := extentEntry{
				base: end,
				extent: Extent{
					ObjectID:  pred.extent.ObjectID,
					ObjOffset: pred.extent.ObjOffset + advance,
					Length:    pred.extent.Length - advance,
				},
			}
			m.entries[predIdx] = left
			m.entries = append(m.entries, extentEntry{})
			copy(m.entries[i+1:], m.entries[i:])
			m.entries[i] = right

		case pred.base < offset && pred.base+int64(pred.extent.Length) > offset:
			// Left-overlap trim.
			m.entries[predIdx].extent.Length = uint32(offset - pred.base)
		}
	}

	m.insertAt(offset, e)
}

// insertAt inserts (offset, e) into the sorted entry slice, replacing
// any existing entry at exactly that offset.
func (m *ExtentMap) insertAt(offset int64, e Extent) {
	i := m.search(offset)
	if i < len(m.entries) && m.entries[i].base == offset {
		m.entries[i].extent = e
		return
	}
	m.entries = append(m.entries, extentEntry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = extentEntry{base: offset, extent: e}
}

// sortTail restores sort order after an append; used only when the
// fast-path tail-append check failed but the new key still belongs at
// the end of an otherwise-sorted slice (which is the only case reached
// via the m.entries = append(...) branch above, since search already
// found no entry with base >= offset).
func (m *ExtentMap) sortTail() {
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].base < m.entries[j].base })
}

// Erase removes the entry at exactly offset, if present.
func (m *ExtentMap) Erase(offset int64) {
	i := m.search(offset)
	if i < len(m.entries) && m.entries[i].base == offset {
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
	}
}

// Shrink reduces the length of the entry at exactly base to length,
// in place, without touching any other entry. Used by truncate, which
// only ever shortens the single extent spanning the new size.
func (m *ExtentMap) Shrink(base int64, length uint32) {
	i := m.search(base)
	if i < len(m.entries) && m.entries[i].base == base {
		m.entries[i].extent.Length = length
	}
}

// Entries returns all (base, extent) pairs in ascending base order. The
// returned slice must not be mutated by the caller.
func (m *ExtentMap) Entries() []extentEntry {
	return m.entries
}
