// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// Attr is the subset of POSIX stat fields the core knows how to fill.
type Attr struct {
	Inum      uint32
	Mode      uint32
	Nlink     uint32
	UID       uint32
	GID       uint32
	Rdev      uint32
	Size      int64
	Blocks    int64
	MtimeSec  int64
	MtimeNsec int32
}

func attrOf(n *Inode) Attr {
	return Attr{
		Inum:      n.Inum,
		Mode:      n.Mode,
		Nlink:     1,
		UID:       n.UID,
		GID:       n.GID,
		Rdev:      n.Rdev,
		Size:      n.Size,
		Blocks:    (n.Size + 4095) / 4096,
		MtimeSec:  n.MtimeSec,
		MtimeNsec: n.MtimeNsec,
	}
}

// GetAttr resolves path and returns its attributes.
func (m *Mount) GetAttr(ctx context.Context, path string) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return Attr{}, err
	}
	return attrOf(m.inodes.Get(inum)), nil
}

// AttrByInum returns the attributes of the inode numbered inum, if it
// is currently live. Used by the FUSE adapter's readdir to populate
// entry types without a Lookup round trip per entry.
func (m *Mount) AttrByInum(ctx context.Context, inum uint32) (Attr, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.inodes.Get(inum)
	if n == nil {
		return Attr{}, false
	}
	return attrOf(n), true
}

// ReadDir resolves path, which must be a directory, and returns its
// ordered entries.
func (m *Mount) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return nil, err
	}
	n := m.inodes.Get(inum)
	if n.Variant != VariantDir {
		return nil, wrapErr(KindNotDir, "readdir", path, nil)
	}
	out := make([]DirEntry, len(n.Entries))
	copy(out, n.Entries)
	return out, nil
}

// createChild is the shared body of create/mkdir/mknod/symlink: resolve
// the parent, check for a name collision, allocate an inum, install the
// new inode, emit LOG_INODE and LOG_CREATE, and mark the parent dirty.
func (m *Mount) createChild(path string, variant Variant, mode, rdev, uid, gid uint32) (*Inode, error) {
	parent, leaf, err := m.resolveParent(path)
	if err != nil {
		return nil, err
	}
	if parent.lookupEntry(leaf) >= 0 {
		return nil, wrapErr(KindExist, "create", path, nil)
	}

	sec, nsec := m.now()
	inum := m.nextInode
	m.nextInode++

	n := &Inode{
		Header: Header{
			Inum:      inum,
			Mode:      mode,
			UID:       uid,
			GID:       gid,
			Rdev:      rdev,
			MtimeSec:  sec,
			MtimeNsec: nsec,
		},
		Variant: variant,
	}
	m.inodes.Put(n)
	parent.addEntry(leaf, inum)

	m.appendMeta(EncodeInode(nil, InodeRecord{
		Inum: n.Inum, Mode: n.Mode, UID: n.UID, GID: n.GID, Rdev: n.Rdev,
		MtimeSec: n.MtimeSec, MtimeNsec: n.MtimeNsec,
	}))
	m.appendMeta(EncodeCreate(nil, CreateRecord{ParentInum: parent.Inum, Inum: inum, Name: leaf}))
	m.markDirty(parent.Inum)

	return n, nil
}

// Create makes a new regular file at path.
func (m *Mount) Create(ctx context.Context, path string, mode, uid, gid uint32) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.createChild(path, VariantFile, (mode&^modeTypeMask)|ModeFile, 0, uid, gid)
	if err != nil {
		return Attr{}, err
	}
	if err := m.maybeFlush(ctx); err != nil {
		return Attr{}, err
	}
	return attrOf(n), nil
}

// Mkdir makes a new, empty directory at path.
func (m *Mount) Mkdir(ctx context.Context, path string, mode, uid, gid uint32) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.createChild(path, VariantDir, (mode&^modeTypeMask)|ModeDir, 0, uid, gid)
	if err != nil {
		return Attr{}, err
	}
	if err := m.maybeFlush(ctx); err != nil {
		return Attr{}, err
	}
	return attrOf(n), nil
}

// Mknod makes a new device/FIFO/socket node at path.
func (m *Mount) Mknod(ctx context.Context, path string, mode, rdev, uid, gid uint32) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.createChild(path, VariantOther, mode, rdev, uid, gid)
	if err != nil {
		return Attr{}, err
	}
	if err := m.maybeFlush(ctx); err != nil {
		return Attr{}, err
	}
	return attrOf(n), nil
}

// Symlink makes a new symlink at path pointing at target.
func (m *Mount) Symlink(ctx context.Context, path, target string, uid, gid uint32) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.createChild(path, VariantSymlink, ModeSymlink|0o777, 0, uid, gid)
	if err != nil {
		return Attr{}, err
	}
	n.Target = target

	m.appendMeta(EncodeSymlink(nil, SymlinkRecord{Inum: n.Inum, Target: target}))

	if err := m.maybeFlush(ctx); err != nil {
		return Attr{}, err
	}
	return attrOf(n), nil
}

// Readlink returns the target of the symlink at path.
func (m *Mount) Readlink(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return "", err
	}
	n := m.inodes.Get(inum)
	if n.Variant != VariantSymlink {
		return "", wrapErr(KindInvalid, "readlink", path, nil)
	}
	return n.Target, nil
}

// Unlink removes the directory entry at path and, once its target's
// link count reaches zero (every file here has exactly one link; hard
// links are a non-goal), destroys the in-memory inode immediately so
// live and on-disk state never diverge.
func (m *Mount) Unlink(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, leaf, err := m.resolveParent(path)
	if err != nil {
		return err
	}
	i := parent.lookupEntry(leaf)
	if i < 0 {
		return wrapErr(KindNoEnt, "unlink", path, nil)
	}
	inum := parent.Entries[i].Inum
	target := m.inodes.Get(inum)
	if target == nil {
		return wrapErr(KindNoEnt, "unlink", path, nil)
	}
	if target.Variant == VariantDir {
		return wrapErr(KindIsDir, "unlink", path, nil)
	}

	if target.Variant == VariantFile && target.Size > 0 {
		truncateExtents(target, 0)
		m.appendMeta(EncodeTrunc(nil, TruncRecord{Inum: inum, NewSize: 0}))
	}

	parent.removeEntry(leaf)
	m.appendMeta(EncodeDelete(nil, DeleteRecord{Parent: parent.Inum, Inum: inum, Name: leaf}))
	m.inodes.Delete(inum)
	delete(m.dirty, inum)

	return m.maybeFlush(ctx)
}

// Rmdir removes the empty directory at path.
func (m *Mount) Rmdir(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, leaf, err := m.resolveParent(path)
	if err != nil {
		return err
	}
	i := parent.lookupEntry(leaf)
	if i < 0 {
		return wrapErr(KindNoEnt, "rmdir", path, nil)
	}
	inum := parent.Entries[i].Inum
	target := m.inodes.Get(inum)
	if target == nil || target.Variant != VariantDir {
		return wrapErr(KindNotDir, "rmdir", path, nil)
	}
	if len(target.Entries) > 0 {
		return wrapErr(KindNotEmpty, "rmdir", path, nil)
	}

	parent.removeEntry(leaf)
	m.appendMeta(EncodeDelete(nil, DeleteRecord{Parent: parent.Inum, Inum: inum, Name: leaf}))
	m.inodes.Delete(inum)
	delete(m.dirty, inum)

	return m.maybeFlush(ctx)
}

// Rename moves the entry at src to dst. dst must not already exist.
// Overwriting renames are a non-goal.
func (m *Mount) Rename(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	srcParent, srcLeaf, err := m.resolveParent(src)
	if err != nil {
		return err
	}
	i := srcParent.lookupEntry(srcLeaf)
	if i < 0 {
		return wrapErr(KindNoEnt, "rename", src, nil)
	}
	inum := srcParent.Entries[i].Inum

	dstParent, dstLeaf, err := m.resolveParent(dst)
	if err != nil {
		return err
	}
	if dstParent.lookupEntry(dstLeaf) >= 0 {
		return wrapErr(KindExist, "rename", dst, nil)
	}

	srcParent.removeEntry(srcLeaf)
	dstParent.addEntry(dstLeaf, inum)

	m.appendMeta(EncodeRename(nil, RenameRecord{
		Inum: inum, Parent1: srcParent.Inum, Parent2: dstParent.Inum,
		Name1: srcLeaf, Name2: dstLeaf,
	}))
	m.markDirty(srcParent.Inum)
	m.markDirty(dstParent.Inum)

	return m.maybeFlush(ctx)
}

// Chmod replaces path's permission bits, preserving its file-type bits.
func (m *Mount) Chmod(ctx context.Context, path string, mode uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return err
	}
	n := m.inodes.Get(inum)
	n.Mode = (n.Mode & modeTypeMask) | (mode &^ modeTypeMask)
	m.markDirty(inum)
	return m.maybeFlush(ctx)
}

// UtimeSpec mirrors the two timestamps a utimens call carries, with
// POSIX's UTIME_NOW/UTIME_OMIT sentinels represented as booleans since
// the core package does not import syscall.
type UtimeSpec struct {
	Sec  int64
	Nsec int32
	Now  bool
	Omit bool
}

// Utimens sets path's mtime from spec, honoring Now and Omit.
func (m *Mount) Utimens(ctx context.Context, path string, spec UtimeSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.Omit {
		return nil
	}

	inum, err := m.resolve(path)
	if err != nil {
		return err
	}
	n := m.inodes.Get(inum)
	if spec.Now {
		n.MtimeSec, n.MtimeNsec = m.now()
	} else {
		n.MtimeSec, n.MtimeNsec = spec.Sec, spec.Nsec
	}
	m.markDirty(inum)
	return m.maybeFlush(ctx)
}

// Truncate changes a regular file's size, shrinking or erasing extents
// beyond the new size.
func (m *Mount) Truncate(ctx context.Context, path string, newSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return err
	}
	n := m.inodes.Get(inum)
	if n.Variant != VariantFile {
		return wrapErr(KindInvalid, "truncate", path, nil)
	}

	truncateExtents(n, newSize)
	m.appendMeta(EncodeTrunc(nil, TruncRecord{Inum: inum, NewSize: newSize}))
	m.markDirty(inum)

	return m.maybeFlush(ctx)
}

// Read fills buf (up to its length) with bytes from path starting at
// offset, returning the number of bytes actually read.
func (m *Mount) Read(ctx context.Context, path string, buf []byte, offset int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return 0, err
	}
	n := m.inodes.Get(inum)
	if n.Variant != VariantFile {
		return 0, wrapErr(KindInvalid, "read", path, nil)
	}
	return m.readFile(ctx, n, buf, offset)
}

// Write appends data to the staging buffers for path at offset,
// updating the file's extent map and size. A zero-length write is a
// no-op: no record is emitted.
func (m *Mount) Write(ctx context.Context, path string, data []byte, offset int64) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inum, err := m.resolve(path)
	if err != nil {
		return 0, err
	}
	n := m.inodes.Get(inum)
	if n.Variant != VariantFile {
		return 0, wrapErr(KindInvalid, "write", path, nil)
	}

	objOffset := m.appendData(data)
	n.Extents.Update(offset, Extent{ObjectID: m.thisIndex, ObjOffset: objOffset, Length: uint32(len(data))})

	newSize := offset + int64(len(data))
	if newSize > n.Size {
		n.Size = newSize
	}
	sec, nsec := m.now()
	n.MtimeSec, n.MtimeNsec = sec, nsec

	m.appendMeta(EncodeData(nil, DataRecord{
		Inum: inum, ObjOffset: objOffset, FileOffset: offset, Size: n.Size, Len: uint32(len(data)),
	}))
	m.markDirty(inum)

	if err := m.maybeFlush(ctx); err != nil {
		return 0, err
	}
	return len(data), nil
}

// StatfsResult mirrors the handful of statfs fields the core fills in.
type StatfsResult struct {
	Bsize   uint32
	Namemax uint32
}

// Statfs returns filesystem-wide statistics. Block counts are zero: the
// backing object store is treated as unbounded.
func (m *Mount) Statfs(ctx context.Context) StatfsResult {
	return StatfsResult{Bsize: 4096, Namemax: 255}
}
