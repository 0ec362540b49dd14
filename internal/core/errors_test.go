// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := wrapErr(KindNoEnt, "read", "/a", nil)
	b := newErr(KindNoEnt, "unlink", "/b")

	if !errors.Is(a, ErrNoEnt) {
		t.Fatalf("a should match the KindNoEnt sentinel")
	}
	if !errors.Is(a, b) {
		t.Fatalf("two *Error values with the same Kind should match via errors.Is, regardless of Op/Path")
	}
	if errors.Is(a, ErrExist) {
		t.Fatalf("a should not match a different Kind's sentinel")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("disk exploded")
	wrapped := wrapErr(KindIO, "flush", "data.00000000", inner)

	if errors.Unwrap(wrapped) != inner {
		t.Fatalf("Unwrap should return the wrapped error")
	}
	if wrapped.Error() == "" {
		t.Fatalf("Error() should not be empty")
	}
}
