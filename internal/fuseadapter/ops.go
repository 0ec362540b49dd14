// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func (n *node) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	uid, gid := caller(ctx)
	childPath := n.child(name)

	attr, err := n.core.Create(ctx, childPath, mode, uid, gid)
	if err != nil {
		return nil, nil, 0, errno(err)
	}
	fillEntryAttr(attr, &out.Attr)

	child := &node{core: n.core, path: childPath}
	ino := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFREG, Ino: uint64(attr.Inum)})
	return ino, nil, 0, 0
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	uid, gid := caller(ctx)
	childPath := n.child(name)

	attr, err := n.core.Mkdir(ctx, childPath, mode, uid, gid)
	if err != nil {
		return nil, errno(err)
	}
	fillEntryAttr(attr, &out.Attr)

	child := &node{core: n.core, path: childPath}
	ino := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFDIR, Ino: uint64(attr.Inum)})
	return ino, 0
}

func (n *node) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	uid, gid := caller(ctx)
	childPath := n.child(name)

	attr, err := n.core.Mknod(ctx, childPath, mode, dev, uid, gid)
	if err != nil {
		return nil, errno(err)
	}
	fillEntryAttr(attr, &out.Attr)

	child := &node{core: n.core, path: childPath}
	ino := n.NewInode(ctx, child, gofuse.StableAttr{Mode: attr.Mode &^ 0o7777, Ino: uint64(attr.Inum)})
	return ino, 0
}

func (n *node) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	uid, gid := caller(ctx)
	childPath := n.child(name)

	attr, err := n.core.Symlink(ctx, childPath, target, uid, gid)
	if err != nil {
		return nil, errno(err)
	}
	fillEntryAttr(attr, &out.Attr)

	child := &node{core: n.core, path: childPath}
	ino := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFLNK, Ino: uint64(attr.Inum)})
	return ino, 0
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.core.Readlink(ctx, n.path)
	if err != nil {
		return nil, errno(err)
	}
	return []byte(target), 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	if err := n.core.Unlink(ctx, n.child(name)); err != nil {
		return errno(err)
	}
	return 0
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.core.Rmdir(ctx, n.child(name)); err != nil {
		return errno(err)
	}
	return 0
}

func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	dst, ok := newParent.(*node)
	if !ok {
		return syscall.EINVAL
	}
	if err := n.core.Rename(ctx, n.child(name), dst.child(newName)); err != nil {
		return errno(err)
	}
	return 0
}

// Open returns no file handle: every read/write call carries this
// node's path directly, so there is no per-open state to track.
func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, 0, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	nRead, err := n.core.Read(ctx, n.path, dest, off)
	if err != nil {
		return nil, errno(err)
	}
	return fuse.ReadResultData(dest[:nRead]), 0
}

func (n *node) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.core.Write(ctx, n.path, data, off)
	if err != nil {
		return 0, errno(err)
	}
	return uint32(written), 0
}

func (n *node) Fsync(ctx context.Context, f gofuse.FileHandle, flags uint32) syscall.Errno {
	if err := n.core.Fsync(ctx); err != nil {
		return errno(err)
	}
	return 0
}
