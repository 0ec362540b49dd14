// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"testing"
)

func TestParseObjectIndex(t *testing.T) {
	cases := []struct {
		key, prefix string
		wantIdx     uint32
		wantOK      bool
	}{
		{"data.00000001", "data", 1, true},
		{"data.0000002a", "data", 42, true},
		{"other.00000001", "data", 0, false},
		{"data.bad", "data", 0, false},
		{"data.", "data", 0, false},
	}
	for _, c := range cases {
		idx, ok := parseObjectIndex(c.key, c.prefix)
		if idx != c.wantIdx || ok != c.wantOK {
			t.Errorf("parseObjectIndex(%q, %q) = (%d, %v), want (%d, %v)", c.key, c.prefix, idx, ok, c.wantIdx, c.wantOK)
		}
	}
}

func TestReplaySkipsCheckpointObjects(t *testing.T) {
	store := newMemStore()
	header := EncodeObjHeader(ObjHeader{Magic: objMagic, Version: objVersion, Type: ObjTypeCheckpoint, HdrLen: objHeaderLen, ThisIndex: 0})
	if err := store.Put(context.Background(), ObjectKey("data", 0), [][]byte{header}); err != nil {
		t.Fatalf("seeding checkpoint object: %v", err)
	}

	m := New(Options{Store: store, Prefix: "data"})
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer m.Teardown()

	if m.thisIndex != 1 {
		t.Fatalf("thisIndex after replaying a lone checkpoint object = %d, want 1", m.thisIndex)
	}
}

func TestReplayRejectsIndexMismatch(t *testing.T) {
	store := newMemStore()
	// The key claims index 0 but the header says 5.
	header := EncodeObjHeader(ObjHeader{Magic: objMagic, Version: objVersion, Type: ObjTypeData, HdrLen: objHeaderLen, ThisIndex: 5})
	if err := store.Put(context.Background(), ObjectKey("data", 0), [][]byte{header}); err != nil {
		t.Fatalf("seeding object: %v", err)
	}

	m := New(Options{Store: store, Prefix: "data"})
	if err := m.Init(context.Background()); err == nil {
		t.Fatalf("expected Init to fail on an object-index/header mismatch")
	}
}

func TestReplayRejectsCorruptHeader(t *testing.T) {
	store := newMemStore()
	if err := store.Put(context.Background(), ObjectKey("data", 0), [][]byte{{0xde, 0xad, 0xbe, 0xef}}); err != nil {
		t.Fatalf("seeding object: %v", err)
	}

	m := New(Options{Store: store, Prefix: "data"})
	if err := m.Init(context.Background()); err == nil {
		t.Fatalf("expected Init to fail decoding a corrupt header")
	}
}

func TestApplyRecordRejectsDataForMissingInode(t *testing.T) {
	m := newTestMount(t, newMemStore())
	defer m.Teardown()

	rec := RawRecord{Type: RecordData, Payload: EncodeData(nil, DataRecord{Inum: 999, Len: 4})[2:]}
	if err := m.applyRecord(0, rec); err == nil {
		t.Fatalf("expected an error applying LOG_DATA against a nonexistent inode")
	}
}

func TestTruncateExtentsErasesTrailingEntries(t *testing.T) {
	n := &Inode{Header: Header{Inum: 1}, Variant: VariantFile}
	n.Extents.Update(0, Extent{ObjectID: 1, ObjOffset: 0, Length: 10})
	n.Extents.Update(20, Extent{ObjectID: 1, ObjOffset: 10, Length: 10})
	n.Size = 30

	truncateExtents(n, 5)

	if n.Size != 5 {
		t.Fatalf("Size after truncateExtents = %d, want 5", n.Size)
	}
	if n.Extents.Len() != 1 {
		t.Fatalf("want 1 surviving extent after truncating into the first one, got %d", n.Extents.Len())
	}
	_, ext, ok := n.Extents.Lookup(0)
	if !ok || ext.Length != 5 {
		t.Fatalf("surviving extent = %+v, ok=%v, want length 5", ext, ok)
	}
}
