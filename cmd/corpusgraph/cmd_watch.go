// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	knowledge "github.com/corpusgraph/corpusgraph/services/knowledge"
	"github.com/corpusgraph/corpusgraph/services/knowledge/refresh"
	"github.com/corpusgraph/corpusgraph/services/knowledge/telemetry"
	"github.com/corpusgraph/corpusgraph/services/knowledge/walker"
)

// runWatch keeps the graph export current: every debounced batch of
// filesystem changes triggers one full rescan. Scans never overlap; a
// change arriving mid-scan waits for the next debounce window.
func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Root, err = filepath.Abs(cfg.Root); err != nil {
		return err
	}
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		return fmt.Errorf("invalid --debounce: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := setupTelemetry(ctx); err != nil {
		return err
	}

	opts := []knowledge.Option{knowledge.WithLogger(appLogger.Logger)}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, knowledge.WithStore(store))
	}

	svc, err := knowledge.NewService(cfg, opts...)
	if err != nil {
		return err
	}

	// The watcher skips the same directories the walk excludes, so a busy
	// .git or node_modules never wakes the pipeline.
	matcher, err := walker.New(walker.Config{Root: cfg.Root, Excludes: cfg.Excludes})
	if err != nil {
		return err
	}

	rescan := func(changes []refresh.Change) {
		appLogger.Info("changes settled, rescanning", "changes", len(changes))
		result, err := svc.Run(ctx)
		if err != nil {
			appLogger.Error("rescan failed", "error", err)
			return
		}
		appLogger.Info("rescan complete",
			"atoms", result.Export.Metadata.AtomCount,
			"edges", result.Export.Metadata.EdgeCount)
	}

	w, err := refresh.New(refresh.Config{
		Root:     cfg.Root,
		Debounce: debounce,
		SkipDir:  matcher.Excluded,
		Logger:   appLogger.Logger,
	}, rescan)
	if err != nil {
		return err
	}

	// Initial scan before watching so the export exists immediately.
	if _, err := svc.Run(ctx); err != nil {
		return err
	}
	appLogger.Info("watching", "root", cfg.Root, "debounce", debounce)
	return w.Run(ctx)
}

// setupTelemetry wires the optional exporters for long-running watch mode.
func setupTelemetry(ctx context.Context) error {
	if metricsAddr != "" {
		handler, shutdown, err := telemetry.SetupPrometheus()
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.Error("metrics server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
		appLogger.Info("metrics listening", "addr", metricsAddr)
	}
	if stdoutTrace {
		shutdown, err := telemetry.SetupStdout()
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}
	return nil
}
