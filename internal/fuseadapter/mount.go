// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuseadapter translates kernel VFS callbacks, received via
// hanwen/go-fuse/v2, into calls against a mounted core.Mount. Every
// node is addressed by the POSIX path it resolves to; the core's own
// inum addressing stays entirely internal to internal/core.
package fuseadapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/objfs-project/objfs/internal/core"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory the filesystem is mounted at.
	Mountpoint string

	// Mount is the already-initialized core filesystem instance this
	// adapter exposes. Call core.Mount.Init before Mount.
	Mount *core.Mount

	// AllowOther permits other users, including root, to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a text handler on
	// os.Stderr at LevelError is used.
	Logger *slog.Logger
}

// Mount mounts the filesystem at the configured mountpoint. The caller
// must call Unmount on the returned *fuse.Server when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Mount == nil {
		return nil, fmt.Errorf("mount is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &node{core: options.Mount, path: "/"}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "objfs",
			Name:       "objfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("objfs mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// node is the single node type backing every entry in the mounted
// tree, keyed by the POSIX path it resolves to under the core mount.
// Unlike a node tree keyed by hash or by name, this mirrors the core's
// own path-addressed operations closely: a node's identity is its
// path, and every operation is a direct call into core.Mount.
type node struct {
	gofuse.Inode
	core *core.Mount
	path string
}

var (
	_ gofuse.InodeEmbedder = (*node)(nil)
	_ gofuse.NodeGetattrer = (*node)(nil)
	_ gofuse.NodeSetattrer = (*node)(nil)
	_ gofuse.NodeLookuper  = (*node)(nil)
	_ gofuse.NodeReaddirer = (*node)(nil)
	_ gofuse.NodeCreater   = (*node)(nil)
	_ gofuse.NodeMkdirer   = (*node)(nil)
	_ gofuse.NodeMknoder   = (*node)(nil)
	_ gofuse.NodeSymlinker = (*node)(nil)
	_ gofuse.NodeReadlinker = (*node)(nil)
	_ gofuse.NodeUnlinker  = (*node)(nil)
	_ gofuse.NodeRmdirer   = (*node)(nil)
	_ gofuse.NodeRenamer   = (*node)(nil)
	_ gofuse.NodeOpener    = (*node)(nil)
	_ gofuse.NodeReader    = (*node)(nil)
	_ gofuse.NodeWriter    = (*node)(nil)
	_ gofuse.NodeFsyncer   = (*node)(nil)
	_ gofuse.NodeStatfser  = (*node)(nil)
)

// child returns the path of the entry named name under n.
func (n *node) child(name string) string {
	if n.path == "/" {
		return "/" + name
	}
	return n.path + "/" + name
}

// caller returns the uid/gid of the process on the other end of the
// syscall, when the kernel supplied one.
func caller(ctx context.Context) (uid, gid uint32) {
	if fctx, ok := ctx.(*fuse.Context); ok {
		return fctx.Caller.Uid, fctx.Caller.Gid
	}
	return 0, 0
}

func fillEntryAttr(attr core.Attr, out *fuse.Attr) {
	out.Ino = uint64(attr.Inum)
	out.Mode = attr.Mode
	out.Nlink = attr.Nlink
	out.Uid = attr.UID
	out.Gid = attr.GID
	out.Rdev = attr.Rdev
	out.Size = uint64(attr.Size)
	out.Blocks = uint64(attr.Blocks)
	out.Atime = uint64(attr.MtimeSec)
	out.Mtime = uint64(attr.MtimeSec)
	out.Ctime = uint64(attr.MtimeSec)
	out.Atimensec = uint32(attr.MtimeNsec)
	out.Mtimensec = uint32(attr.MtimeNsec)
	out.Ctimensec = uint32(attr.MtimeNsec)
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.core.GetAttr(ctx, n.path)
	if err != nil {
		return errno(err)
	}
	fillEntryAttr(attr, &out.Attr)
	return 0
}

func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if mode, ok := in.GetMode(); ok {
		if err := n.core.Chmod(ctx, n.path, mode); err != nil {
			return errno(err)
		}
	}
	if size, ok := in.GetSize(); ok {
		if err := n.core.Truncate(ctx, n.path, int64(size)); err != nil {
			return errno(err)
		}
	}
	if mtime, ok := in.GetMTime(); ok {
		err := n.core.Utimens(ctx, n.path, core.UtimeSpec{Sec: mtime.Unix(), Nsec: int32(mtime.Nanosecond())})
		if err != nil {
			return errno(err)
		}
	}

	attr, err := n.core.GetAttr(ctx, n.path)
	if err != nil {
		return errno(err)
	}
	fillEntryAttr(attr, &out.Attr)
	return 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := n.child(name)
	attr, err := n.core.GetAttr(ctx, childPath)
	if err != nil {
		return nil, errno(err)
	}
	fillEntryAttr(attr, &out.Attr)

	child := &node{core: n.core, path: childPath}
	fileType := attr.Mode & 0o170000 >> 12
	ino := n.NewInode(ctx, child, gofuse.StableAttr{Mode: fileType << 12, Ino: uint64(attr.Inum)})
	return ino, 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.core.ReadDir(ctx, n.path)
	if err != nil {
		return nil, errno(err)
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := uint32(syscall.S_IFREG)
		if attr, ok := n.core.AttrByInum(ctx, e.Inum); ok {
			mode = attr.Mode &^ 0o7777
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: mode, Ino: uint64(e.Inum)})
	}
	return gofuse.NewListDirStream(out), 0
}

func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	res := n.core.Statfs(ctx)
	out.Bsize = res.Bsize
	out.NameLen = res.Namemax
	return 0
}
