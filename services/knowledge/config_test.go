// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/corpus")
	if cfg.Root != "/corpus" {
		t.Errorf("root = %s", cfg.Root)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("batch size = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if len(cfg.Excludes) == 0 {
		t.Error("no default excludes")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		cfg := DefaultConfig("")
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty root")
		}
	})

	t.Run("workers out of range", func(t *testing.T) {
		cfg := DefaultConfig("/corpus")
		cfg.Workers = 100000
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for absurd worker count")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `root: /corpus
output: /tmp/graph.json
workers: 8
batch_size: 25
read_timeout: 10s
excludes:
  - pattern: "**.bak"
    reason: backups
taxonomy:
  - label: payments
    path_segments: [billing]
    keywords: [invoice]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "/corpus" || cfg.Output != "/tmp/graph.json" {
		t.Errorf("paths not loaded: %+v", cfg)
	}
	if cfg.Workers != 8 || cfg.BatchSize != 25 {
		t.Errorf("numbers not loaded: workers=%d batch=%d", cfg.Workers, cfg.BatchSize)
	}
	if time.Duration(cfg.ReadTimeout) != 10*time.Second {
		t.Errorf("read timeout = %v", cfg.ReadTimeout)
	}
	// File-provided excludes replace the defaults wholesale.
	if len(cfg.Excludes) != 1 || cfg.Excludes[0].Pattern != "**.bak" {
		t.Errorf("excludes not loaded: %+v", cfg.Excludes)
	}
	if len(cfg.Taxonomy) != 1 || cfg.Taxonomy[0].Label != "payments" {
		t.Errorf("taxonomy not loaded: %+v", cfg.Taxonomy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
