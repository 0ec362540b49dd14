// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "testing"

func TestVariantFromMode(t *testing.T) {
	cases := []struct {
		mode uint32
		want Variant
	}{
		{ModeDir | 0o755, VariantDir},
		{ModeFile | 0o644, VariantFile},
		{ModeSymlink | 0o777, VariantSymlink},
		{0o020000 | 0o666, VariantOther}, // character device
	}
	for _, c := range cases {
		if got := variantFromMode(c.mode); got != c.want {
			t.Errorf("variantFromMode(%o) = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestInodeDirectoryEntries(t *testing.T) {
	n := &Inode{Header: Header{Inum: 1}, Variant: VariantDir}
	n.addEntry("a", 10)
	n.addEntry("b", 11)
	n.addEntry("c", 12)

	if i := n.lookupEntry("b"); i != 1 {
		t.Fatalf("lookupEntry(b) = %d, want 1", i)
	}

	n.removeEntry("b")
	if len(n.Entries) != 2 {
		t.Fatalf("want 2 entries after removal, got %d", len(n.Entries))
	}
	if n.Entries[0].Name != "a" || n.Entries[1].Name != "c" {
		t.Fatalf("removeEntry must preserve order of survivors: %+v", n.Entries)
	}
	if i := n.lookupEntry("b"); i != -1 {
		t.Fatalf("lookupEntry(b) after removal = %d, want -1", i)
	}

	// Removing an absent name is a no-op, not a panic.
	n.removeEntry("nonexistent")
	if len(n.Entries) != 2 {
		t.Fatalf("removing an absent entry must not change the count")
	}
}

func TestInodeTable(t *testing.T) {
	table := newInodeTable()

	if table.Get(1) != nil {
		t.Fatalf("empty table should return nil for any inum")
	}

	n := &Inode{Header: Header{Inum: 1}, Variant: VariantFile}
	table.Put(n)
	if table.Get(1) != n {
		t.Fatalf("Put/Get round trip failed")
	}
	if table.Len() != 1 {
		t.Fatalf("want Len()=1, got %d", table.Len())
	}

	table.Delete(1)
	if table.Get(1) != nil {
		t.Fatalf("deleted inode should no longer be retrievable")
	}
	if table.Len() != 0 {
		t.Fatalf("want Len()=0 after delete, got %d", table.Len())
	}

	table.Put(&Inode{Header: Header{Inum: 5}})
	table.reset()
	if table.Len() != 0 {
		t.Fatalf("reset must empty the table, got Len()=%d", table.Len())
	}
}
