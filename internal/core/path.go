// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "strings"

// rootInum is the inode number of the filesystem root. The inode
// allocator starts handing out numbers at rootInum+1.
const rootInum uint32 = 1

// splitPath splits path on "/", discarding empty components, so
// leading, trailing, and duplicate slashes are all tolerated.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolve walks path from the root, returning the inum of the final
// component. Every intermediate component must resolve to a directory.
func (m *Mount) resolve(path string) (uint32, error) {
	inum := rootInum
	for _, component := range splitPath(path) {
		dir := m.inodes.Get(inum)
		if dir == nil {
			return 0, wrapErr(KindNoEnt, "resolve", path, nil)
		}
		if dir.Variant != VariantDir {
			return 0, wrapErr(KindNotDir, "resolve", path, nil)
		}
		i := dir.lookupEntry(component)
		if i < 0 {
			return 0, wrapErr(KindNoEnt, "resolve", path, nil)
		}
		inum = dir.Entries[i].Inum
	}
	return inum, nil
}

// resolveParent resolves path's parent directory and returns it
// alongside the final path component (the leaf name). The leaf itself
// is not required to exist.
func (m *Mount) resolveParent(path string) (parent *Inode, leaf string, err error) {
	components := splitPath(path)
	if len(components) == 0 {
		return nil, "", wrapErr(KindInvalid, "resolve-parent", path, nil)
	}
	leaf = components[len(components)-1]

	inum := rootInum
	for _, component := range components[:len(components)-1] {
		dir := m.inodes.Get(inum)
		if dir == nil {
			return nil, "", wrapErr(KindNoEnt, "resolve-parent", path, nil)
		}
		if dir.Variant != VariantDir {
			return nil, "", wrapErr(KindNotDir, "resolve-parent", path, nil)
		}
		i := dir.lookupEntry(component)
		if i < 0 {
			return nil, "", wrapErr(KindNoEnt, "resolve-parent", path, nil)
		}
		inum = dir.Entries[i].Inum
	}

	parent = m.inodes.Get(inum)
	if parent == nil {
		return nil, "", wrapErr(KindNoEnt, "resolve-parent", path, nil)
	}
	if parent.Variant != VariantDir {
		return nil, "", wrapErr(KindNotDir, "resolve-parent", path, nil)
	}
	return parent, leaf, nil
}
