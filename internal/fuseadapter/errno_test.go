// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuseadapter

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/objfs-project/objfs/internal/core"
)

func TestErrnoMapsEveryKind(t *testing.T) {
	cases := []struct {
		kind core.Kind
		want syscall.Errno
	}{
		{core.KindNoEnt, syscall.ENOENT},
		{core.KindNotDir, syscall.ENOTDIR},
		{core.KindExist, syscall.EEXIST},
		{core.KindIsDir, syscall.EISDIR},
		{core.KindInvalid, syscall.EINVAL},
		{core.KindNotEmpty, syscall.ENOTEMPTY},
		{core.KindIO, syscall.EIO},
	}
	for _, c := range cases {
		err := &core.Error{Kind: c.kind, Op: "test", Path: "/x"}
		if got := errno(err); got != c.want {
			t.Errorf("errno(Kind=%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestErrnoNil(t *testing.T) {
	if got := errno(nil); got != 0 {
		t.Fatalf("errno(nil) = %v, want 0", got)
	}
}

func TestErrnoUnwrappedError(t *testing.T) {
	// An error that isn't a *core.Error at all (or wraps one several
	// layers deep without a core.Error in the chain) maps to EIO, since
	// there is no Kind to translate.
	if got := errno(fmt.Errorf("opaque failure")); got != syscall.EIO {
		t.Fatalf("errno(opaque) = %v, want EIO", got)
	}
}

func TestErrnoWrappedError(t *testing.T) {
	inner := &core.Error{Kind: core.KindNoEnt, Op: "test", Path: "/x"}
	wrapped := fmt.Errorf("context: %w", inner)
	if got := errno(wrapped); got != syscall.ENOENT {
		t.Fatalf("errno(wrapped) = %v, want ENOENT", got)
	}
}
