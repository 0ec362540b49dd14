// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// replay lists every object under the mount's prefix, sorts them by
// numeric index ascending, and applies each one's log records in
// order, reconstructing the in-memory inode table, directories, and
// extent maps from scratch.
func (m *Mount) replay(ctx context.Context) error {
	keys, err := m.store.List(ctx, m.prefix)
	if err != nil {
		return wrapErr(KindIO, "replay-list", m.prefix, err)
	}

	indexed := make(map[uint32]string, len(keys))
	indices := make([]uint32, 0, len(keys))
	for _, key := range keys {
		idx, ok := parseObjectIndex(key, m.prefix)
		if !ok {
			continue
		}
		indexed[idx] = key
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	maxIndex := uint32(0)
	seen := false
	for _, idx := range indices {
		key := indexed[idx]
		if err := m.replayObject(ctx, idx, key); err != nil {
			return err
		}
		if !seen || idx > maxIndex {
			maxIndex = idx
			seen = true
		}
	}

	if seen {
		m.thisIndex = maxIndex + 1
	} else {
		m.thisIndex = 0
	}
	return nil
}

// parseObjectIndex extracts the numeric suffix from a key of the form
// "{prefix}.{index:08x}", as produced by ObjectKey.
func parseObjectIndex(key, prefix string) (uint32, bool) {
	want := prefix + "."
	if !strings.HasPrefix(key, want) {
		return 0, false
	}
	hex := key[len(want):]
	if len(hex) != 8 {
		return 0, false
	}
	idx, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(idx), true
}

func (m *Mount) replayObject(ctx context.Context, idx uint32, key string) error {
	headerBytes, err := m.store.Get(ctx, key, 0, objHeaderLen)
	if err != nil {
		return wrapErr(KindIO, "replay-header", key, err)
	}
	header, err := DecodeObjHeader(headerBytes)
	if err != nil {
		return wrapErr(KindIO, "replay-header", key, err)
	}
	if header.ThisIndex != idx {
		return wrapErr(KindIO, "replay-header", key, fmt.Errorf("object index mismatch: key says %d, header says %d", idx, header.ThisIndex))
	}
	if header.Type != ObjTypeData {
		// Checkpoint (type-2) objects are never consulted by replay.
		return nil
	}

	metaLen := int64(header.HdrLen) - objHeaderLen
	if metaLen < 0 {
		return wrapErr(KindIO, "replay-meta", key, fmt.Errorf("hdr_len %d smaller than header", header.HdrLen))
	}

	m.dataOffsets[idx] = header.HdrLen

	if metaLen == 0 {
		return nil
	}

	metaBytes, err := m.store.Get(ctx, key, objHeaderLen, metaLen)
	if err != nil {
		return wrapErr(KindIO, "replay-meta", key, err)
	}
	records, err := ScanRecords(metaBytes)
	if err != nil {
		return wrapErr(KindIO, "replay-meta", key, err)
	}

	for _, rec := range records {
		if err := m.applyRecord(idx, rec); err != nil {
			return wrapErr(KindIO, "replay-apply", key, err)
		}
	}
	return nil
}

// applyRecord applies one decoded record to in-memory state, as part of
// replaying the object with numeric index idx.
func (m *Mount) applyRecord(idx uint32, rec RawRecord) error {
	switch rec.Type {
	case RecordInode:
		r, err := DecodeInode(rec.Payload)
		if err != nil {
			return err
		}
		n := m.inodes.Get(r.Inum)
		if n == nil {
			n = &Inode{Variant: variantFromMode(r.Mode)}
			n.Inum = r.Inum
			m.inodes.Put(n)
		}
		n.Mode = r.Mode
		n.UID = r.UID
		n.GID = r.GID
		n.Rdev = r.Rdev
		n.MtimeSec = r.MtimeSec
		n.MtimeNsec = r.MtimeNsec

	case RecordData:
		r, err := DecodeData(rec.Payload)
		if err != nil {
			return err
		}
		n := m.inodes.Get(r.Inum)
		if n == nil || n.Variant != VariantFile {
			return fmt.Errorf("LOG_DATA: inum %d is not a live file", r.Inum)
		}
		n.Extents.Update(r.FileOffset, Extent{ObjectID: idx, ObjOffset: r.ObjOffset, Length: r.Len})
		n.Size = r.Size

	case RecordTrunc:
		r, err := DecodeTrunc(rec.Payload)
		if err != nil {
			return err
		}
		n := m.inodes.Get(r.Inum)
		if n == nil || n.Variant != VariantFile {
			return fmt.Errorf("LOG_TRUNC: inum %d is not a live file", r.Inum)
		}
		if r.NewSize > n.Size {
			return fmt.Errorf("LOG_TRUNC: new_size %d exceeds current size %d", r.NewSize, n.Size)
		}
		truncateExtents(n, r.NewSize)

	case RecordCreate:
		r, err := DecodeCreate(rec.Payload)
		if err != nil {
			return err
		}
		parent := m.inodes.Get(r.ParentInum)
		if parent == nil || parent.Variant != VariantDir {
			return fmt.Errorf("LOG_CREATE: parent inum %d is not a live directory", r.ParentInum)
		}
		parent.addEntry(r.Name, r.Inum)
		if r.Inum+1 > m.nextInode {
			m.nextInode = r.Inum + 1
		}

	case RecordDelete:
		r, err := DecodeDelete(rec.Payload)
		if err != nil {
			return err
		}
		parent := m.inodes.Get(r.Parent)
		if parent != nil && parent.Variant == VariantDir {
			parent.removeEntry(r.Name)
		}
		m.inodes.Delete(r.Inum)

	case RecordSymlink:
		r, err := DecodeSymlink(rec.Payload)
		if err != nil {
			return err
		}
		n := m.inodes.Get(r.Inum)
		if n == nil || n.Variant != VariantSymlink {
			return fmt.Errorf("LOG_SYMLNK: inum %d is not a live symlink", r.Inum)
		}
		n.Target = r.Target

	case RecordRename:
		r, err := DecodeRename(rec.Payload)
		if err != nil {
			return err
		}
		p1 := m.inodes.Get(r.Parent1)
		p2 := m.inodes.Get(r.Parent2)
		if p1 == nil || p1.Variant != VariantDir || p2 == nil || p2.Variant != VariantDir {
			return fmt.Errorf("LOG_RENAME: parent inums %d/%d not live directories", r.Parent1, r.Parent2)
		}
		i := p1.lookupEntry(r.Name1)
		if i < 0 || p1.Entries[i].Inum != r.Inum {
			return fmt.Errorf("LOG_RENAME: %q not found under parent %d with inum %d", r.Name1, r.Parent1, r.Inum)
		}
		if p2.lookupEntry(r.Name2) >= 0 {
			return fmt.Errorf("LOG_RENAME: %q already exists under parent %d", r.Name2, r.Parent2)
		}
		p1.removeEntry(r.Name1)
		p2.addEntry(r.Name2, r.Inum)

	case RecordNull:
		// Alignment padding; nothing to do.

	default:
		return fmt.Errorf("unknown record type %d", rec.Type)
	}
	return nil
}

// truncateExtents shrinks a file's extent map to newSize, matching the
// in-memory truncate algorithm used by the write path (§ POSIX op
// surface): repeatedly look up newSize; shorten or erase what is found.
func truncateExtents(n *Inode, newSize int64) {
	for {
		base, _, ok := n.Extents.Lookup(newSize)
		if !ok {
			break
		}
		if base < newSize {
			n.Extents.Shrink(base, uint32(newSize-base))
			continue
		}
		n.Extents.Erase(base)
	}
	n.Size = newSize
}
