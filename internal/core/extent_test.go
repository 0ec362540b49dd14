// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "testing"

func TestExtentMapNonOverlapping(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})
	m.Update(100, Extent{ObjectID: 1, ObjOffset: 10, Length: 10})

	if m.Len() != 2 {
		t.Fatalf("want 2 entries, got %d", m.Len())
	}

	base, ext, ok := m.Lookup(5)
	if !ok || base != 0 || ext.ObjOffset != 0 {
		t.Fatalf("lookup(5) = (%d, %+v, %v)", base, ext, ok)
	}

	base, ext, ok = m.Lookup(105)
	if !ok || base != 100 || ext.ObjOffset != 10 {
		t.Fatalf("lookup(105) = (%d, %+v, %v)", base, ext, ok)
	}
}

func TestExtentMapTailMerge(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})
	m.Update(10, Extent{ObjectID: 1, ObjOffset: 10, Length: 10})

	if m.Len() != 1 {
		t.Fatalf("adjacent same-object writes should merge into 1 entry, got %d", m.Len())
	}
	_, ext, ok := m.Lookup(15)
	if !ok || ext.Length != 20 {
		t.Fatalf("merged extent = %+v, ok=%v", ext, ok)
	}
}

func TestExtentMapBisect(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 100})
	// A write entirely inside the existing extent, from a different
	// object, must split the original into a left and right fragment
	// plus the new middle entry: three entries total.
	m.Update(40, Extent{ObjectID: 2, ObjOffset: 0, Length: 20})

	if m.Len() != 3 {
		t.Fatalf("want 3 entries after bisect, got %d", m.Len())
	}

	base, ext, ok := m.Lookup(10)
	if !ok || base != 0 || ext.ObjectID != 1 || ext.Length != 40 {
		t.Fatalf("left fragment = base=%d ext=%+v ok=%v", base, ext, ok)
	}
	base, ext, ok = m.Lookup(50)
	if !ok || base != 40 || ext.ObjectID != 2 {
		t.Fatalf("middle fragment = base=%d ext=%+v ok=%v", base, ext, ok)
	}
	base, ext, ok = m.Lookup(70)
	if !ok || base != 60 || ext.ObjectID != 1 || ext.ObjOffset != 60 || ext.Length != 40 {
		t.Fatalf("right fragment = base=%d ext=%+v ok=%v", base, ext, ok)
	}
}

func TestExtentMapFullOverlapErase(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})
	m.Update(10, Extent{ObjectID: 2, ObjOffset: 0, Length: 10})
	m.Update(20, Extent{ObjectID: 3, ObjOffset: 0, Length: 10})

	// Overwrite the whole span; all three entries are fully
	// overlapped and erased, replaced by a single new entry.
	m.Update(0, Extent{ObjectID: 9, ObjOffset: 0, Length: 30})

	if m.Len() != 1 {
		t.Fatalf("want 1 entry after full-span overwrite, got %d", m.Len())
	}
	base, ext, ok := m.Lookup(25)
	if !ok || base != 0 || ext.ObjectID != 9 || ext.Length != 30 {
		t.Fatalf("lookup(25) = base=%d ext=%+v ok=%v", base, ext, ok)
	}
}

func TestExtentMapLookupPastEnd(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})

	if _, _, ok := m.Lookup(100); ok {
		t.Fatalf("lookup past every extent should report ok=false")
	}
}

func TestExtentMapLookupHole(t *testing.T) {
	var m ExtentMap
	m.Update(100, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})

	// offset 0 falls before the only extent; Lookup must report that
	// extent's base (the caller detects the hole by base > offset).
	base, ext, ok := m.Lookup(0)
	if !ok || base != 100 || ext.ObjOffset != 0 {
		t.Fatalf("lookup(0) = base=%d ext=%+v ok=%v", base, ext, ok)
	}
}

func TestExtentMapShrink(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 100})

	m.Shrink(0, 40)
	if m.Len() != 1 {
		t.Fatalf("shrink must not add or remove entries, got %d", m.Len())
	}
	_, ext, ok := m.Lookup(0)
	if !ok || ext.Length != 40 {
		t.Fatalf("after shrink, extent = %+v ok=%v", ext, ok)
	}

	// Shrink at a base with no entry is a no-op, not a panic.
	m.Shrink(999, 1)
	if m.Len() != 1 {
		t.Fatalf("shrink at unknown base must not mutate the map, got %d entries", m.Len())
	}
}

func TestExtentMapErase(t *testing.T) {
	var m ExtentMap
	m.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})
	m.Update(50, Extent{ObjectID: 2, ObjOffset: 0, Length: 10})

	m.Erase(0)
	if m.Len() != 1 {
		t.Fatalf("want 1 entry after erase, got %d", m.Len())
	}
	if base, _, ok := m.Lookup(5); !ok || base != 50 {
		t.Fatalf("lookup(5) after erasing base 0 = base=%d ok=%v, want the next entry at base 50", base, ok)
	}
}
