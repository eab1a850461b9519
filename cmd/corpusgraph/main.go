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

	"github.com/spf13/cobra"

	"github.com/corpusgraph/corpusgraph/pkg/logging"
	knowledge "github.com/corpusgraph/corpusgraph/services/knowledge"
)

var (
	appLogger *logging.Logger
)

func main() {
	defer func() {
		if appLogger != nil {
			appLogger.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command: file
// values first, then flag overrides. The root argument always wins over
// the file so `corpusgraph scan .` works with or without a config.yaml.
func loadConfig(root string) (knowledge.Config, error) {
	var cfg knowledge.Config
	var err error

	if configPath != "" {
		cfg, err = knowledge.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	} else if _, statErr := os.Stat("config.yaml"); statErr == nil {
		cfg, err = knowledge.LoadConfig("config.yaml")
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = knowledge.DefaultConfig(root)
	}

	if root != "" {
		cfg.Root = root
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	return cfg, nil
}

func init() {
	cobra.OnInitialize(func() {
		var err error
		appLogger, err = logging.New(logging.Config{
			Level:   logging.ParseLevel(logLevel),
			Service: "corpusgraph",
			JSON:    jsonLogs,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: cannot initialize logging:", err)
			os.Exit(1)
		}
	})
}
