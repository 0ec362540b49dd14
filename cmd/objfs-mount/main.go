// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// objfs-mount starts a FUSE mount whose durable state lives entirely in
// a backing object store: every write accumulates in memory until the
// staging buffers are sealed into an immutable object and flushed out.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/objfs-project/objfs/internal/core"
	"github.com/objfs-project/objfs/internal/fuseadapter"
	"github.com/objfs-project/objfs/lib/clock"
	"github.com/objfs-project/objfs/lib/config"
	"github.com/objfs-project/objfs/lib/objstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("objfs-mount", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to objfs.yaml config file (overrides OBJFS_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if showVersion {
		fmt.Println("objfs-mount (development build)")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("initializing object store: %w", err)
	}

	mount := core.New(core.Options{
		Store:         store,
		Prefix:        cfg.Store.Prefix,
		MetaCap:       cfg.Staging.MetaCap,
		DataCap:       cfg.Staging.DataCap,
		FlushInterval: cfg.Staging.FlushInterval,
		Clock:         clock.Real(),
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mount.Init(ctx); err != nil {
		return fmt.Errorf("replaying object log: %w", err)
	}
	defer mount.Teardown()

	server, err := fuseadapter.Mount(fuseadapter.Options{
		Mountpoint: cfg.Mount.Mountpoint,
		Mount:      mount,
		AllowOther: cfg.Mount.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("mounting FUSE filesystem: %w", err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received, unmounting", "mountpoint", cfg.Mount.Mountpoint)
		if err := mount.Fsync(context.Background()); err != nil {
			logger.Error("final flush failed", "error", err)
		}
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed", "error", err)
		}
	}()

	server.Wait()
	return nil
}

func loadConfig(explicitPath string) (*config.Config, error) {
	if explicitPath != "" {
		return config.LoadFile(explicitPath)
	}
	return config.Load()
}

func buildStore(cfg *config.Config) (objstore.Store, error) {
	switch cfg.Store.Backend {
	case "local":
		return objstore.NewLocal(objstore.LocalOptions{
			Root:            cfg.Store.Root,
			Checksum:        cfg.Store.Checksum,
			Compress:        cfg.Store.Compress,
			HandleCacheSize: cfg.Mount.HandleCacheSize,
		})
	default:
		return nil, fmt.Errorf("store backend %q is not wired yet", cfg.Store.Backend)
	}
}
