// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// readFile reads up to len(buf) bytes from n starting at offset,
// following the extent map and mixing staging-buffer reads with ranged
// GETs against sealed objects. Holes are zero-filled explicitly so the
// result does not depend on the caller's buffer having been
// pre-zeroed.
func (m *Mount) readFile(ctx context.Context, n *Inode, buf []byte, offset int64) (int, error) {
	want := len(buf)
	read := 0

	for read < want {
		base, extent, ok := n.Extents.Lookup(offset)
		if !ok {
			break
		}

		if base > offset {
			hole := base - offset
			n := int64(want - read)
			if hole > n {
				hole = n
			}
			for i := int64(0); i < hole; i++ {
				buf[read+int(i)] = 0
			}
			read += int(hole)
			offset += hole
			continue
		}

		skip := offset - base
		take := int64(extent.Length) - skip
		remaining := int64(want - read)
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			break
		}

		data, err := m.readData(ctx, extent.ObjectID, extent.ObjOffset+uint32(skip), uint32(take))
		if err != nil {
			return read, wrapErr(KindIO, "read", "", err)
		}
		copy(buf[read:read+len(data)], data)
		read += len(data)
		offset += int64(len(data))
		if len(data) < int(take) {
			break
		}
	}

	return read, nil
}

// readData reads n bytes at objOffset from the object identified by
// objID: from the in-flight staging data buffer if objID is the
// object currently being assembled, otherwise via a ranged GET against
// the sealed object, using the cached header length to translate the
// file-data-relative offset into an object-absolute one.
func (m *Mount) readData(ctx context.Context, objID, objOffset, n uint32) ([]byte, error) {
	if objID == m.thisIndex {
		avail := uint32(len(m.dataBuf))
		if objOffset >= avail {
			return nil, nil
		}
		end := objOffset + n
		if end > avail {
			end = avail
		}
		return m.dataBuf[objOffset:end], nil
	}

	hdrLen, ok := m.dataOffsets[objID]
	if !ok {
		key := ObjectKey(m.prefix, objID)
		headerBytes, err := m.store.Get(ctx, key, 0, objHeaderLen)
		if err != nil {
			return nil, err
		}
		header, err := DecodeObjHeader(headerBytes)
		if err != nil {
			return nil, err
		}
		hdrLen = header.HdrLen
		m.dataOffsets[objID] = hdrLen
	}

	key := ObjectKey(m.prefix, objID)
	return m.store.Get(ctx, key, int64(hdrLen)+int64(objOffset), int64(n))
}
