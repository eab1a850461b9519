// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	knowledge "github.com/corpusgraph/corpusgraph/services/knowledge"
	"github.com/corpusgraph/corpusgraph/services/knowledge/aggregate"
	"github.com/corpusgraph/corpusgraph/services/knowledge/runstore"
)

// runScan executes one complete scan of the root and prints the report.
func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), aggregate.RenderReport(result.Summary, result.Export))
	}
	if cfg.Output != "" {
		appLogger.Info("graph export written", "path", cfg.Output)
	}
	if result.ReproducedPrevious != nil && *result.ReproducedPrevious {
		appLogger.Info("content digest matches previous run", "root", cfg.Root)
	}
	return nil
}

// openStore opens the run store when a path is configured. No path means
// no history, which is fine for one-shot scans.
func openStore(cfg knowledge.Config) (*runstore.Store, error) {
	if cfg.StorePath == "" {
		return nil, nil
	}
	return runstore.Open(runstore.Config{
		Path:   cfg.StorePath,
		Logger: appLogger.Logger,
	})
}
