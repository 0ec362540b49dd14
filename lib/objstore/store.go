// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstore defines the object-store capability the filesystem
// core is built on: PUT, ranged GET, and LIST against opaque string
// keys. Local provides a local-disk implementation; a real S3-backed
// implementation would satisfy the same Store interface without any
// change to callers.
package objstore

import "context"

// Store is the capability the filesystem core requires of its backing
// object store. Keys are opaque strings; the core forms them as
// "{prefix}.{index:08x}".
type Store interface {
	// Put atomically writes the concatenation of parts under key. A
	// reader of key either sees the old contents or the full new
	// contents, never a partial write.
	Put(ctx context.Context, key string, parts [][]byte) error

	// Get reads length bytes starting at offset from the object named
	// key. Returns io/fs-style errors (including a wrapped
	// os.ErrNotExist) when key does not exist.
	Get(ctx context.Context, key string, offset, length int64) ([]byte, error)

	// List enumerates every key beginning with prefix, in no
	// particular order; callers that need an order (replay does, by
	// numeric index) sort the result themselves.
	List(ctx context.Context, prefix string) ([]string, error)
}
