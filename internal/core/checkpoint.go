// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "github.com/objfs-project/objfs/lib/codec"

// CheckpointHeader summarizes the state a Checkpoint captures. Nothing
// in the mount lifecycle or replay consults this type; it exists as a
// documented, CBOR-encodable extension point for a future
// checkpoint-writer/consumer that would bound replay cost by skipping
// objects older than the checkpoint.
type CheckpointHeader struct {
	RootInum   uint32 `cbor:"root_inum"`
	NextInode  uint32 `cbor:"next_inode"`
	ThisIndex  uint32 `cbor:"this_index"`
	InodeCount int    `cbor:"inode_count"`
	EntryCount int    `cbor:"entry_count"`
}

// InodeSnapshot is a flattened, CBOR-encodable projection of one
// inode's state at the moment a checkpoint was built.
type InodeSnapshot struct {
	Inum      uint32       `cbor:"inum"`
	Mode      uint32       `cbor:"mode"`
	UID       uint32       `cbor:"uid"`
	GID       uint32       `cbor:"gid"`
	Rdev      uint32       `cbor:"rdev"`
	Size      int64        `cbor:"size"`
	MtimeSec  int64        `cbor:"mtime_sec"`
	MtimeNsec int32        `cbor:"mtime_nsec"`
	Variant     Variant  `cbor:"variant"`
	Extents     []Extent `cbor:"extents,omitempty"`
	ExtentBases []int64  `cbor:"extent_bases,omitempty"`
	Target      string   `cbor:"target,omitempty"`
}

// DirectorySnapshot is a flattened projection of one directory's
// ordered entry list.
type DirectorySnapshot struct {
	Inum    uint32     `cbor:"inum"`
	Entries []DirEntry `cbor:"entries"`
}

// Checkpoint is the full payload a type-2 object would carry, were one
// ever written. Constructible and round-trippable via CBOR; never
// produced by flush and never looked for by replay.
type Checkpoint struct {
	Header      CheckpointHeader    `cbor:"header"`
	Inodes      []InodeSnapshot     `cbor:"inodes"`
	Directories []DirectorySnapshot `cbor:"directories"`
}

// BuildCheckpoint assembles a snapshot of m's current in-memory state.
// The caller holds no lock on m's behalf; Build acquires it.
func BuildCheckpoint(m *Mount) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ck := &Checkpoint{
		Header: CheckpointHeader{
			RootInum:  rootInum,
			NextInode: m.nextInode,
			ThisIndex: m.thisIndex,
		},
	}

	for inum, n := range m.inodes.byInum {
		snap := InodeSnapshot{
			Inum:      inum,
			Mode:      n.Mode,
			UID:       n.UID,
			GID:       n.GID,
			Rdev:      n.Rdev,
			Size:      n.Size,
			MtimeSec:  n.MtimeSec,
			MtimeNsec: n.MtimeNsec,
			Variant:   n.Variant,
			Target:    n.Target,
		}
		for _, e := range n.Extents.Entries() {
			snap.ExtentBases = append(snap.ExtentBases, e.base)
			snap.Extents = append(snap.Extents, e.extent)
		}
		ck.Inodes = append(ck.Inodes, snap)

		if n.Variant == VariantDir {
			ck.Directories = append(ck.Directories, DirectorySnapshot{
				Inum:    inum,
				Entries: n.Entries,
			})
			ck.Header.EntryCount += len(n.Entries)
		}
	}
	ck.Header.InodeCount = len(ck.Inodes)

	return ck, nil
}

// Marshal encodes the checkpoint to CBOR using Core Deterministic Encoding.
func (ck *Checkpoint) Marshal() ([]byte, error) {
	return codec.Marshal(ck)
}

// UnmarshalCheckpoint decodes a CBOR-encoded checkpoint.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	var ck Checkpoint
	if err := codec.Unmarshal(data, &ck); err != nil {
		return nil, err
	}
	return &ck, nil
}
