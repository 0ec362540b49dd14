// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// appendMeta appends a single encoded log record to the meta buffer.
func (m *Mount) appendMeta(record []byte) {
	m.metaBuf = append(m.metaBuf, record...)
}

// appendData appends payload bytes to the data buffer and returns the
// object-relative offset the payload now occupies, which becomes the
// extent's ObjOffset once the in-flight object is flushed.
func (m *Mount) appendData(payload []byte) uint32 {
	offset := uint32(len(m.dataBuf))
	m.dataBuf = append(m.dataBuf, payload...)
	return offset
}

// maybeFlush flushes the staging buffers if either has grown past its
// configured cap; otherwise it is a no-op.
func (m *Mount) maybeFlush(ctx context.Context) error {
	if m.metaUsed() > m.metaCap || m.dataUsed() > m.dataCap {
		return m.flush(ctx)
	}
	return nil
}

// flush seals the current staging buffers into a new object, PUTs it,
// and on success advances thisIndex and resets both buffers. On PUT
// failure the staging buffers are left untouched: the mutations they
// describe remain live in memory and a subsequent flush can retry the
// same bytes (§ error handling design).
func (m *Mount) flush(ctx context.Context) error {
	for inum := range m.dirty {
		n := m.inodes.Get(inum)
		if n == nil {
			continue
		}
		m.appendMeta(EncodeInode(nil, InodeRecord{
			Inum:      n.Inum,
			Mode:      n.Mode,
			UID:       n.UID,
			GID:       n.GID,
			Rdev:      n.Rdev,
			MtimeSec:  n.MtimeSec,
			MtimeNsec: n.MtimeNsec,
		}))
	}
	m.dirty = make(map[uint32]struct{})

	if m.metaUsed() == 0 && m.dataUsed() == 0 {
		return nil
	}

	hdrLen := uint32(objHeaderLen + m.metaUsed())
	header := EncodeObjHeader(ObjHeader{
		Magic:     objMagic,
		Version:   objVersion,
		Type:      ObjTypeData,
		HdrLen:    hdrLen,
		ThisIndex: m.thisIndex,
	})

	key := ObjectKey(m.prefix, m.thisIndex)
	parts := [][]byte{header, m.metaBuf, m.dataBuf}

	if err := m.store.Put(ctx, key, parts); err != nil {
		m.logger.Error("flush failed", "key", key, "error", err)
		return wrapErr(KindIO, "flush", key, err)
	}

	m.logger.Info("flushed object", "key", key, "meta_bytes", m.metaUsed(), "data_bytes", m.dataUsed())

	m.dataOffsets[m.thisIndex] = hdrLen
	m.thisIndex++
	m.metaBuf = nil
	m.dataBuf = nil
	m.lastFlush = m.clock.Now()
	return nil
}

// Fsync forces a flush regardless of buffer fill.
func (m *Mount) Fsync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flush(ctx)
}
