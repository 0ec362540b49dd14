// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// objfs-inspect is a read-only diagnostic tool for the object log. It
// lists the objects under a store, decodes their headers, and walks
// their metadata records without replaying or mounting anything.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/objfs-project/objfs/internal/core"
	"github.com/objfs-project/objfs/lib/objstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var root, prefix string
	var records bool

	flagSet := pflag.NewFlagSet("objfs-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&root, "root", "", "local object store root directory (required)")
	flagSet.StringVar(&prefix, "prefix", "", "object key prefix")
	flagSet.BoolVar(&records, "records", false, "decode and print each object's metadata records")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if root == "" {
		return fmt.Errorf("--root is required")
	}

	store, err := objstore.NewLocal(objstore.LocalOptions{Root: root})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("listing objects: %w", err)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := inspectObject(ctx, store, key, records); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", key, err)
		}
	}
	return nil
}

func inspectObject(ctx context.Context, store *objstore.Local, key string, dumpRecords bool) error {
	headerBytes, err := store.Get(ctx, key, 0, 20)
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	header, err := core.DecodeObjHeader(headerBytes)
	if err != nil {
		return fmt.Errorf("decoding header: %w", err)
	}

	typeName := "DATA"
	if header.Type == core.ObjTypeCheckpoint {
		typeName = "CHECKPOINT"
	}
	fmt.Printf("%s  type=%s this_index=%d hdr_len=%d\n", key, typeName, header.ThisIndex, header.HdrLen)

	if !dumpRecords || header.Type != core.ObjTypeData {
		return nil
	}

	metaLen := int64(header.HdrLen) - 20
	if metaLen <= 0 {
		return nil
	}
	metaBuf, err := store.Get(ctx, key, 20, metaLen)
	if err != nil {
		return fmt.Errorf("reading metadata region: %w", err)
	}
	recs, err := core.ScanRecords(metaBuf)
	if err != nil {
		return fmt.Errorf("scanning records: %w", err)
	}
	for _, rec := range recs {
		fmt.Printf("  %s\n", describeRecord(rec))
	}
	return nil
}

func describeRecord(rec core.RawRecord) string {
	switch rec.Type {
	case core.RecordInode:
		r, err := core.DecodeInode(rec.Payload)
		if err != nil {
			return fmt.Sprintf("INODE <bad: %v>", err)
		}
		return fmt.Sprintf("INODE inum=%d mode=%#o uid=%d gid=%d rdev=%d mtime=%d.%09d",
			r.Inum, r.Mode, r.UID, r.GID, r.Rdev, r.MtimeSec, r.MtimeNsec)
	case core.RecordTrunc:
		r, err := core.DecodeTrunc(rec.Payload)
		if err != nil {
			return fmt.Sprintf("TRUNC <bad: %v>", err)
		}
		return fmt.Sprintf("TRUNC inum=%d new_size=%d", r.Inum, r.NewSize)
	case core.RecordDelete:
		r, err := core.DecodeDelete(rec.Payload)
		if err != nil {
			return fmt.Sprintf("DELETE <bad: %v>", err)
		}
		return fmt.Sprintf("DELETE parent=%d inum=%d name=%q", r.Parent, r.Inum, r.Name)
	case core.RecordSymlink:
		r, err := core.DecodeSymlink(rec.Payload)
		if err != nil {
			return fmt.Sprintf("SYMLNK <bad: %v>", err)
		}
		return fmt.Sprintf("SYMLNK inum=%d target=%q", r.Inum, r.Target)
	case core.RecordRename:
		r, err := core.DecodeRename(rec.Payload)
		if err != nil {
			return fmt.Sprintf("RENAME <bad: %v>", err)
		}
		return fmt.Sprintf("RENAME inum=%d parent1=%d name1=%q parent2=%d name2=%q",
			r.Inum, r.Parent1, r.Name1, r.Parent2, r.Name2)
	case core.RecordData:
		r, err := core.DecodeData(rec.Payload)
		if err != nil {
			return fmt.Sprintf("DATA <bad: %v>", err)
		}
		return fmt.Sprintf("DATA inum=%d obj_offset=%d file_offset=%d size=%d len=%d",
			r.Inum, r.ObjOffset, r.FileOffset, r.Size, r.Len)
	case core.RecordCreate:
		r, err := core.DecodeCreate(rec.Payload)
		if err != nil {
			return fmt.Sprintf("CREATE <bad: %v>", err)
		}
		return fmt.Sprintf("CREATE parent=%d inum=%d name=%q", r.ParentInum, r.Inum, r.Name)
	case core.RecordNull:
		return "NULL"
	default:
		return strings.TrimSpace(fmt.Sprintf("%s <%d bytes>", rec.Type, len(rec.Payload)))
	}
}
