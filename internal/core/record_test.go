// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "testing"

func TestRecordRoundTrip(t *testing.T) {
	t.Run("inode", func(t *testing.T) {
		want := InodeRecord{Inum: 7, Mode: 0o100644, UID: 1000, GID: 1000, Rdev: 0, MtimeSec: 1700000000, MtimeNsec: 123456}
		buf := EncodeInode(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		if len(recs) != 1 || recs[0].Type != RecordInode {
			t.Fatalf("unexpected scan result: %+v", recs)
		}
		got, err := DecodeInode(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeInode: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("trunc", func(t *testing.T) {
		want := TruncRecord{Inum: 3, NewSize: 4096}
		buf := EncodeTrunc(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeTrunc(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeTrunc: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		want := DeleteRecord{Parent: 1, Inum: 5, Name: "foo.txt"}
		buf := EncodeDelete(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeDelete(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeDelete: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("symlink", func(t *testing.T) {
		want := SymlinkRecord{Inum: 8, Target: "../other/path"}
		buf := EncodeSymlink(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeSymlink(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeSymlink: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("rename", func(t *testing.T) {
		want := RenameRecord{Inum: 9, Parent1: 1, Parent2: 2, Name1: "a", Name2: "b-longer-name"}
		buf := EncodeRename(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeRename(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeRename: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("data", func(t *testing.T) {
		want := DataRecord{Inum: 4, ObjOffset: 1024, FileOffset: 0, Size: 2048, Len: 1024}
		buf := EncodeData(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeData(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeData: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("create", func(t *testing.T) {
		want := CreateRecord{ParentInum: 1, Inum: 6, Name: "new-file"}
		buf := EncodeCreate(nil, want)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		got, err := DecodeCreate(recs[0].Payload)
		if err != nil {
			t.Fatalf("DecodeCreate: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("null", func(t *testing.T) {
		buf := EncodeNull(nil)
		recs, err := ScanRecords(buf)
		if err != nil {
			t.Fatalf("ScanRecords: %v", err)
		}
		if len(recs) != 1 || recs[0].Type != RecordNull || len(recs[0].Payload) != 0 {
			t.Fatalf("unexpected null record: %+v", recs)
		}
	})
}

func TestScanRecordsMultiple(t *testing.T) {
	var buf []byte
	buf = EncodeInode(buf, InodeRecord{Inum: 1, Mode: 0o40755})
	buf = EncodeCreate(buf, CreateRecord{ParentInum: 1, Inum: 2, Name: "child"})
	buf = EncodeNull(buf)

	recs, err := ScanRecords(buf)
	if err != nil {
		t.Fatalf("ScanRecords: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("want 3 records, got %d", len(recs))
	}
	if recs[0].Type != RecordInode || recs[1].Type != RecordCreate || recs[2].Type != RecordNull {
		t.Fatalf("unexpected record order: %+v", recs)
	}
}

func TestScanRecordsTruncated(t *testing.T) {
	buf := EncodeData(nil, DataRecord{Inum: 1, ObjOffset: 0, FileOffset: 0, Size: 10, Len: 10})
	buf = buf[:len(buf)-5] // truncate mid-payload

	if _, err := ScanRecords(buf); err == nil {
		t.Fatalf("expected an error scanning a truncated record")
	}
}

func TestScanRecordsUnknownType(t *testing.T) {
	buf := []byte{0x09, 0x00} // type 9 is outside the enum, zero-length payload
	if _, err := ScanRecords(buf); err == nil {
		t.Fatalf("expected an error scanning an unknown record type")
	}
}

func TestRecordTypeString(t *testing.T) {
	if RecordInode.String() != "INODE" {
		t.Fatalf("got %q", RecordInode.String())
	}
	if RecordType(99).String() == "" {
		t.Fatalf("unknown record type should still stringify to something")
	}
}
