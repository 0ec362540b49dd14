// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package core implements the object-backed log-structured filesystem:
// the extent map, the log-record codec and replay engine, the write
// path's staging buffers and flush policy, and the read path. It knows
// nothing about FUSE or the kernel VFS; internal/fuseadapter translates
// between this package's path-addressed operations and a mounted
// filesystem.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/objfs-project/objfs/lib/clock"
	"github.com/objfs-project/objfs/lib/objstore"
)

// Options configures a Mount. Fields with no comment are required.
type Options struct {
	Store  objstore.Store
	Prefix string

	// MetaCap and DataCap bound the staging buffers. Flush is triggered
	// once either is exceeded.
	MetaCap int
	DataCap int

	// FlushInterval, if non-zero, runs a background ticker that flushes
	// whenever this much time has passed since the last flush and
	// either buffer holds unflushed bytes. Zero disables the ticker;
	// only cap-triggered and explicit (fsync) flushes occur.
	FlushInterval time.Duration

	// Clock defaults to clock.Real() when nil.
	Clock clock.Clock

	// Logger defaults to a handler that discards every record when nil.
	Logger *slog.Logger
}

// Mount is a single filesystem instance: inode table, staging buffers,
// object-id counters, and caches, scoped to one object-store prefix. Its
// lifetime runs from Init to Teardown. Every exported method takes the
// mount's single global lock for its duration (§ concurrency model);
// callers never need their own synchronization around a Mount.
type Mount struct {
	store  objstore.Store
	prefix string
	clock  clock.Clock
	logger *slog.Logger

	metaCap       int
	dataCap       int
	flushInterval time.Duration

	mu sync.Mutex

	inodes    *InodeTable
	nextInode uint32
	thisIndex uint32

	metaBuf []byte
	dataBuf []byte

	dirty       map[uint32]struct{}
	dataOffsets map[uint32]uint32

	ticker     *clock.Ticker
	tickerDone chan struct{}
	lastFlush  time.Time
}

// New constructs a Mount. Call Init before issuing any operation.
func New(opts Options) *Mount {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	metaCap := opts.MetaCap
	if metaCap <= 0 {
		metaCap = 64 * 1024
	}
	dataCap := opts.DataCap
	if dataCap <= 0 {
		dataCap = 16 * 1024 * 1024
	}
	return &Mount{
		store:         opts.Store,
		prefix:        opts.Prefix,
		clock:         clk,
		logger:        logger,
		metaCap:       metaCap,
		dataCap:       dataCap,
		flushInterval: opts.FlushInterval,
		inodes:        newInodeTable(),
		nextInode:     rootInum + 1,
		thisIndex:     0,
		dirty:         make(map[uint32]struct{}),
		dataOffsets:   make(map[uint32]uint32),
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Init lists every object under the mount's prefix, replays them in
// numeric-index order to reconstruct in-memory state, and (if
// configured) starts the background flush ticker.
func (m *Mount) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	root := m.inodes.Get(rootInum)
	if root == nil {
		now := m.clock.Now()
		root = &Inode{
			Header: Header{
				Inum:      rootInum,
				Mode:      ModeDir | 0o755,
				MtimeSec:  now.Unix(),
				MtimeNsec: int32(now.Nanosecond()),
			},
			Variant: VariantDir,
		}
		m.inodes.Put(root)
	}

	if err := m.replay(ctx); err != nil {
		return fmt.Errorf("core: replay: %w", err)
	}

	m.logger.Info("mount initialized", "prefix", m.prefix, "this_index", m.thisIndex, "inodes", m.inodes.Len())

	if m.flushInterval > 0 {
		m.startTickerLocked()
	}
	return nil
}

// startTickerLocked must be called with m.mu held.
func (m *Mount) startTickerLocked() {
	m.ticker = m.clock.NewTicker(m.flushInterval)
	m.tickerDone = make(chan struct{})
	ticker := m.ticker
	done := m.tickerDone
	go func() {
		for {
			select {
			case <-ticker.C:
				m.tickFlush()
			case <-done:
				return
			}
		}
	}()
}

// tickFlush is the background ticker's callback. It acquires the
// mount's lock like any other operation, so it never races with an
// in-flight POSIX op.
func (m *Mount) tickFlush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.metaUsed() == 0 && m.dataUsed() == 0 {
		return
	}
	if m.clock.Now().Sub(m.lastFlush) < m.flushInterval {
		return
	}
	if err := m.flush(context.Background()); err != nil {
		m.logger.Error("background flush failed", "error", err)
	}
}

// Teardown stops the flush ticker and resets the mount to its initial,
// empty state. It does not flush; callers needing durability must call
// Fsync first.
func (m *Mount) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.tickerDone)
		m.ticker = nil
		m.tickerDone = nil
	}

	m.inodes.reset()
	m.dirty = make(map[uint32]struct{})
	m.metaBuf = nil
	m.dataBuf = nil
	m.dataOffsets = make(map[uint32]uint32)
	m.nextInode = rootInum + 1
	m.thisIndex = 0

	m.logger.Info("mount torn down", "prefix", m.prefix)
}

func (m *Mount) metaUsed() int { return len(m.metaBuf) }
func (m *Mount) dataUsed() int { return len(m.dataBuf) }

func (m *Mount) now() (sec int64, nsec int32) {
	t := m.clock.Now()
	return t.Unix(), int32(t.Nanosecond())
}

func (m *Mount) markDirty(inum uint32) {
	m.dirty[inum] = struct{}{}
}
