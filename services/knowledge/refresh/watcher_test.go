// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refresh

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	t.Run("nil handler", func(t *testing.T) {
		if _, err := New(Config{Root: "/tmp"}, nil); err == nil {
			t.Error("expected error for nil handler")
		}
	})

	t.Run("relative root", func(t *testing.T) {
		if _, err := New(Config{Root: "rel"}, func([]Change) {}); err == nil {
			t.Error("expected error for relative root")
		}
	})
}

func TestWatcher_DebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	batches := make(chan []Change, 4)
	w, err := New(Config{
		Root:     dir,
		Debounce: 100 * time.Millisecond,
	}, func(changes []Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watch set time to establish.
	time.Sleep(200 * time.Millisecond)

	// Two writes inside one debounce window must coalesce into one batch.
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-batches:
		if len(batch) < 2 {
			// Events can arrive split across reads; accept a follow-up
			// batch carrying the rest.
			select {
			case more := <-batches:
				batch = append(batch, more...)
			case <-time.After(2 * time.Second):
			}
		}
		seen := make(map[string]bool)
		for _, c := range batch {
			seen[filepath.Base(c.Path)] = true
		}
		if !seen["a.txt"] || !seen["b.txt"] {
			t.Errorf("expected both files in batch, got %v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	cancel()
	if err := <-done; err != nil && !strings.Contains(err.Error(), "context") {
		t.Errorf("unexpected run error: %v", err)
	}
}

func TestWatcher_SkipDir(t *testing.T) {
	dir := t.TempDir()
	skipped := filepath.Join(dir, "node_modules")
	if err := os.MkdirAll(skipped, 0o755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []Change, 4)
	w, err := New(Config{
		Root:     dir,
		Debounce: 100 * time.Millisecond,
		SkipDir:  func(rel string) bool { return rel == "node_modules" },
	}, func(changes []Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	// A write inside the skipped directory must not produce a batch.
	if err := os.WriteFile(filepath.Join(skipped, "dep.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-batches:
		t.Errorf("unexpected batch for skipped directory: %v", batch)
	case <-time.After(500 * time.Millisecond):
	}
}
