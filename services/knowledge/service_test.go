// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
	"github.com/corpusgraph/corpusgraph/services/knowledge/runstore"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func atomByPath(export *atom.Export, relPath string) *atom.Atom {
	for i := range export.Atoms {
		if export.Atoms[i].SourcePath == relPath {
			return &export.Atoms[i]
		}
	}
	return nil
}

// The canonical small-corpus scenario: a public README, a source file, and
// an excluded secrets file.
func TestService_Run_SmallCorpus(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"README.md":        "# Demo project\n\nEnd-user documentation.\n",
		"src/app.py":       "import os\n\ndef handle(router):\n    return router\n",
		"auth/secrets.env": "API_KEY=sk-live-12345\n",
	})

	out := filepath.Join(dir, "artifacts", "graph.json")
	cfg := DefaultConfig(dir)
	cfg.Output = out

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	export := result.Export

	t.Run("two atoms, secrets excluded", func(t *testing.T) {
		if export.Metadata.AtomCount != 2 {
			t.Fatalf("atom count = %d, want 2", export.Metadata.AtomCount)
		}
		if atomByPath(export, "auth/secrets.env") != nil {
			t.Error("excluded secrets file was atomized")
		}
		foundSkip := false
		for _, s := range result.Summary.Skips {
			if s.Path == "auth/secrets.env" && s.Reason == atom.SkipExcluded {
				foundSkip = true
			}
		}
		if !foundSkip {
			t.Error("no skip record for auth/secrets.env")
		}
	})

	t.Run("privacy distribution", func(t *testing.T) {
		readme := atomByPath(export, "README.md")
		app := atomByPath(export, "src/app.py")
		if readme == nil || app == nil {
			t.Fatal("expected atoms missing")
		}
		if readme.Privacy != atom.PrivacyPublic {
			t.Errorf("README privacy = %s, want public", readme.Privacy)
		}
		if app.Privacy != atom.PrivacyInternal {
			t.Errorf("app.py privacy = %s, want internal", app.Privacy)
		}
		if export.PrivacyDistribution[atom.PrivacyPublic] != 1 ||
			export.PrivacyDistribution[atom.PrivacyInternal] != 1 {
			t.Errorf("privacy distribution = %v", export.PrivacyDistribution)
		}
	})

	t.Run("contextual fields", func(t *testing.T) {
		app := atomByPath(export, "src/app.py")
		if app.Language != "python" {
			t.Errorf("language = %s, want python", app.Language)
		}
		if app.Structure.Functions != 1 {
			t.Errorf("functions = %d, want 1", app.Structure.Functions)
		}
		if app.Excerpt == "" {
			t.Error("empty excerpt")
		}
	})

	t.Run("structural edges only", func(t *testing.T) {
		var structural, sharedDomain int
		for _, e := range export.Edges {
			switch e.Kind {
			case atom.EdgeStructural:
				structural++
			case atom.EdgeSharedDomain:
				sharedDomain++
			}
		}
		// README -> dir:., app.py -> dir:src, dir:src -> dir:.
		if structural != 3 {
			t.Errorf("structural edges = %d, want 3", structural)
		}
		// docs vs backend: no label overlap.
		if sharedDomain != 0 {
			t.Errorf("shared_domain edges = %d, want 0", sharedDomain)
		}
	})

	t.Run("export validates and artifact exists", func(t *testing.T) {
		if err := export.Validate(); err != nil {
			t.Errorf("export invalid: %v", err)
		}
		if _, err := os.Stat(out); err != nil {
			t.Errorf("artifact not written: %v", err)
		}
	})
}

func TestService_Run_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/one.go":   "package a\n\nfunc One() {}\n",
		"a/two.go":   "package a\n\nfunc Two() {}\n",
		"b/three.py": "def three():\n    pass\n",
		"README.md":  "# readme\n",
	})

	pinned := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return pinned }

	run := func() *atom.Export {
		cfg := DefaultConfig(dir)
		cfg.Workers = 4
		svc, err := NewService(cfg, WithClock(clock))
		if err != nil {
			t.Fatal(err)
		}
		res, err := svc.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res.Export
	}

	first := run()
	second := run()

	ignoreRunID := cmpopts.IgnoreFields(atom.Metadata{}, "RunID")
	if diff := cmp.Diff(first, second, ignoreRunID); diff != "" {
		t.Errorf("exports diverged between identical runs (-first +second):\n%s", diff)
	}
}

func TestService_Run_StoreIdempotence(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"main.go": "package main\n"})

	store, err := runstore.Open(runstore.Config{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := DefaultConfig(dir)
	svc, err := NewService(cfg, WithStore(store))
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.ReproducedPrevious != nil {
		t.Error("first run should have no previous digest")
	}

	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.ReproducedPrevious == nil || !*second.ReproducedPrevious {
		t.Error("unchanged tree should reproduce the previous digest")
	}

	// Change the tree; the digest must diverge.
	writeTree(t, dir, map[string]string{"main.go": "package main // changed\n"})
	third, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if third.ReproducedPrevious == nil || *third.ReproducedPrevious {
		t.Error("changed tree should not reproduce the previous digest")
	}
}

func TestService_Run_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a\n"})

	out := filepath.Join(dir, "out.json")
	cfg := DefaultConfig(dir)
	cfg.Output = out

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled run")
	}
	// A cancelled run publishes nothing.
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cancelled run wrote a partial artifact")
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Error("expected error for missing root")
	}
}
