// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	outputPath  string
	storePath   string
	workers     int
	logLevel    string
	jsonLogs    bool
	quiet       bool
	metricsAddr string
	stdoutTrace bool
	debounceStr string
	runsLimit   int

	rootCmd = &cobra.Command{
		Use:   "corpusgraph",
		Short: "Atomize a source corpus into a content-addressed knowledge graph",
		Long: `Corpusgraph walks a source tree, turns each eligible file into a
content-addressed knowledge atom with language, structure, privacy and
domain classification, then links the atoms into a relationship graph
and writes the result as a single JSON export.`,
	}

	scanCmd = &cobra.Command{
		Use:   "scan [root]",
		Short: "Run one full atomization and graph build over a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan, // Defined in cmd_scan.go
	}

	verifyCmd = &cobra.Command{
		Use:   "verify [root]",
		Short: "Run the scan twice and confirm both produce an identical graph",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVerify, // Defined in cmd_verify.go
	}

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the local run store",
		RunE:  runRuns, // Defined in cmd_runs.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [root]",
		Short: "Watch a directory and rescan after changes settle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Run store directory (enables run history)")

	scanCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Graph export path (overrides config)")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 = NumCPU)")
	scanCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the human-readable report")

	verifyCmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 = NumCPU)")

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")

	watchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Graph export path (overrides config)")
	watchCmd.Flags().StringVar(&debounceStr, "debounce", "2s", "Quiet period before a rescan")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9105)")
	watchCmd.Flags().BoolVar(&stdoutTrace, "telemetry-stdout", false, "Emit traces and metrics to stdout")

	rootCmd.AddCommand(scanCmd, verifyCmd, runsCmd, watchCmd)
}
