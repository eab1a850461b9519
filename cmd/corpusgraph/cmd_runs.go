// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// runRuns lists recorded runs, newest first.
func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	if cfg.StorePath == "" {
		return fmt.Errorf("no run store configured; set store_path or pass --store")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List()
	if err != nil {
		return err
	}
	if len(recs) > runsLimit {
		recs = recs[:runsLimit]
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tROOT\tFINISHED\tATOMS\tEDGES\tDIGEST")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID[:8], r.Root, r.FinishedAt.Format("2006-01-02 15:04:05"),
			r.AtomCount, r.EdgeCount, shortDigest(r.ContentDigest))
	}
	return tw.Flush()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
