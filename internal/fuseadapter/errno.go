// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"errors"
	"syscall"

	"github.com/objfs-project/objfs/internal/core"
)

// errno maps a core.Error's Kind to the matching syscall.Errno. This is
// the only place in the codebase that translates between the two: the
// core package never imports syscall, and nothing downstream of this
// function should need to.
func errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		return syscall.EIO
	}
	switch coreErr.Kind {
	case core.KindNoEnt:
		return syscall.ENOENT
	case core.KindNotDir:
		return syscall.ENOTDIR
	case core.KindExist:
		return syscall.EEXIST
	case core.KindIsDir:
		return syscall.EISDIR
	case core.KindInvalid:
		return syscall.EINVAL
	case core.KindNotEmpty:
		return syscall.ENOTEMPTY
	case core.KindIO:
		return syscall.EIO
	default:
		return syscall.EIO
	}
}
