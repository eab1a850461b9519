// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	knowledge "github.com/corpusgraph/corpusgraph/services/knowledge"
	"github.com/corpusgraph/corpusgraph/services/knowledge/aggregate"
	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// runVerify scans the root twice with a pinned clock and compares the two
// exports whole. Any diff means the pipeline leaked nondeterminism, most
// likely worker-scheduling order, and the diff shows exactly where.
func runVerify(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	// No artifact and no history: verification is a pure comparison.
	cfg.Output = ""
	cfg.StorePath = ""

	pinned := time.Now().UTC()
	clock := func() time.Time { return pinned }

	first, err := scanOnce(cmd, cfg, clock)
	if err != nil {
		return fmt.Errorf("first run: %w", err)
	}
	second, err := scanOnce(cmd, cfg, clock)
	if err != nil {
		return fmt.Errorf("second run: %w", err)
	}

	// Run ids differ by construction; everything else must not.
	ignoreRunID := cmp.FilterPath(func(p cmp.Path) bool {
		f, ok := p.Last().(cmp.StructField)
		return ok && f.Name() == "RunID"
	}, cmp.Ignore())

	if diff := cmp.Diff(first, second, ignoreRunID); diff != "" {
		return fmt.Errorf("runs diverged (-first +second):\n%s", diff)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "verified: %d atoms, %d edges, digest %s\n",
		first.Metadata.AtomCount, first.Metadata.EdgeCount,
		aggregate.ContentDigest(first)[:12])
	return nil
}

func scanOnce(cmd *cobra.Command, cfg knowledge.Config, clock func() time.Time) (*atom.Export, error) {
	svc, err := knowledge.NewService(cfg,
		knowledge.WithLogger(appLogger.Logger),
		knowledge.WithClock(clock),
	)
	if err != nil {
		return nil, err
	}
	result, err := svc.Run(cmd.Context())
	if err != nil {
		return nil, err
	}
	return result.Export, nil
}
