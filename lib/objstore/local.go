// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

const tmpDirName = "tmp"

// checksumDomain separates the integrity-sidecar digest from any other
// use of BLAKE3 elsewhere in the codebase, following the keyed-hash
// domain-separation convention.
var checksumDomain = []byte("objfs.object-checksum.v1")

// LocalOptions configures a Local store.
type LocalOptions struct {
	// Root is the directory objects are stored under. Created if absent.
	Root string

	// Checksum enables a BLAKE3 integrity sidecar per object.
	Checksum bool

	// Compress enables zstd compression of object bodies at rest.
	Compress bool

	// HandleCacheSize bounds the number of open read handles kept
	// around for ranged reads. Zero disables caching (every Get opens
	// and closes its own handle).
	HandleCacheSize int
}

// Local is a Store backed by a local directory, one file per key. Puts
// are made atomic via a write-to-temp-then-rename sequence; reads use a
// bounded FIFO cache of open file handles to avoid repeated opens for
// sequential ranged reads against the same sealed object.
type Local struct {
	root            string
	checksum        bool
	compress        bool
	handleCacheSize int

	mu      sync.Mutex
	handles map[string]*os.File
	order   []string // FIFO eviction order, oldest first
}

// NewLocal creates or opens a Local store rooted at opts.Root.
func NewLocal(opts LocalOptions) (*Local, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("objstore: root is required")
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("objstore: creating root %s: %w", opts.Root, err)
	}
	if err := os.MkdirAll(filepath.Join(opts.Root, tmpDirName), 0o755); err != nil {
		return nil, fmt.Errorf("objstore: creating tmp dir: %w", err)
	}
	return &Local{
		root:            opts.Root,
		checksum:        opts.Checksum,
		compress:        opts.Compress,
		handleCacheSize: opts.HandleCacheSize,
		handles:         make(map[string]*os.File),
	}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, key)
}

func (l *Local) sidecarPath(key string) string {
	return l.path(key) + ".b3"
}

// Put writes the concatenation of parts under key via a temp file in
// the store's tmp/ subdirectory, synced and closed before an atomic
// rename into place, so a reader of key never observes a partial write.
func (l *Local) Put(ctx context.Context, key string, parts [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := joinParts(parts)
	if l.compress {
		compressed, err := compressBody(body)
		if err != nil {
			return fmt.Errorf("objstore: compressing %s: %w", key, err)
		}
		body = compressed
	}

	tmpFile, err := os.CreateTemp(filepath.Join(l.root, tmpDirName), "object-*.tmp")
	if err != nil {
		return fmt.Errorf("objstore: creating temp file for %s: %w", key, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("objstore: writing %s: %w", key, err)
	}
	if err := unix.Fsync(int(tmpFile.Fd())); err != nil {
		tmpFile.Close()
		return fmt.Errorf("objstore: fsyncing %s: %w", key, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("objstore: closing temp file for %s: %w", key, err)
	}

	finalPath := l.path(key)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("objstore: creating directory for %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("objstore: renaming %s into place: %w", key, err)
	}
	success = true

	if l.checksum {
		digest := checksumOf(body)
		if err := os.WriteFile(l.sidecarPath(key), digest, 0o644); err != nil {
			return fmt.Errorf("objstore: writing checksum sidecar for %s: %w", key, err)
		}
	}

	return nil
}

// Get reads length bytes at offset from key. If the object is
// compressed at rest, the full body is fetched and decompressed before
// slicing the requested range (ranged reads and at-rest compression are
// in tension; see the component design for the trade-off this accepts).
func (l *Local) Get(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.compress {
		return l.getCompressed(key, offset, length)
	}

	file, err := l.openHandle(key)
	if err != nil {
		return nil, err
	}

	if l.checksum && offset == 0 {
		// A full-object fetch is an opportunity to verify integrity
		// cheaply; partial ranged reads skip verification.
		if err := l.verifyChecksum(key, file); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, length)
	n, err := file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("objstore: reading %s at %d: %w", key, offset, err)
	}
	return buf[:n], nil
}

func (l *Local) getCompressed(key string, offset, length int64) ([]byte, error) {
	raw, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, fmt.Errorf("objstore: reading %s: %w", key, err)
	}
	if l.checksum {
		if err := verifyDigest(key, l.sidecarPath(key), raw); err != nil {
			return nil, err
		}
	}
	body, err := decompressBody(raw)
	if err != nil {
		return nil, fmt.Errorf("objstore: decompressing %s: %w", key, err)
	}
	if offset >= int64(len(body)) {
		return nil, nil
	}
	end := offset + length
	if end > int64(len(body)) {
		end = int64(len(body))
	}
	return body[offset:end], nil
}

func (l *Local) verifyChecksum(key string, file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("objstore: stating %s: %w", key, err)
	}
	body := make([]byte, info.Size())
	if _, err := file.ReadAt(body, 0); err != nil && err != io.EOF {
		return fmt.Errorf("objstore: reading %s for checksum: %w", key, err)
	}
	return verifyDigest(key, l.sidecarPath(key), body)
}

func verifyDigest(key, sidecarPath string, body []byte) error {
	want, err := os.ReadFile(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			// No sidecar recorded: nothing to check against.
			return nil
		}
		return fmt.Errorf("objstore: reading checksum sidecar for %s: %w", key, err)
	}
	got := checksumOf(body)
	if string(got) != string(want) {
		return fmt.Errorf("objstore: checksum mismatch for %s: object is corrupt", key)
	}
	return nil
}

func checksumOf(body []byte) []byte {
	hasher := blake3.NewDeriveKey(string(checksumDomain))
	hasher.Write(body)
	return hasher.Sum(nil)[:32]
}

// List enumerates every key under root beginning with prefix.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("objstore: listing %s: %w", l.root, err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".b3") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// openHandle returns an open *os.File for key, reusing a cached handle
// when available and recording a freshly opened one in the FIFO cache.
func (l *Local) openHandle(key string) (*os.File, error) {
	if l.handleCacheSize <= 0 {
		return os.Open(l.path(key))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if file, ok := l.handles[key]; ok {
		return file, nil
	}

	file, err := os.Open(l.path(key))
	if err != nil {
		return nil, fmt.Errorf("objstore: opening %s: %w", key, err)
	}

	l.handles[key] = file
	l.order = append(l.order, key)
	if len(l.order) > l.handleCacheSize {
		evictKey := l.order[0]
		l.order = l.order[1:]
		if evictFile, ok := l.handles[evictKey]; ok {
			evictFile.Close()
			delete(l.handles, evictKey)
		}
	}
	return file, nil
}

// Close releases every cached read handle. Call during teardown.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.handles {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.handles = make(map[string]*os.File)
	l.order = nil
	return firstErr
}

func joinParts(parts [][]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	body := make([]byte, 0, total)
	for _, p := range parts {
		body = append(body, p...)
	}
	return body
}

func compressBody(body []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(body, nil), nil
}

func decompressBody(body []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(body, nil)
}
