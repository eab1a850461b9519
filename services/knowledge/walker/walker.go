// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package walker implements the corpus walker: deterministic, ordered
// traversal of a source tree under an exclusion policy.
//
// Directory exclusions short-circuit traversal before descent, so an
// excluded subtree is never enumerated, stat'd, or read. This is what keeps
// scan cost independent of the size of excluded trees (multi-gigabyte
// archive directories in particular).
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// Rule is one exclusion pattern with a human-readable reason.
//
// Patterns use glob syntax with '/' as the separator and support '**'.
// A pattern matches a path if it matches the full slash-separated relative
// path or the final path element.
type Rule struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Reason  string `yaml:"reason"`
}

// compiledRule pairs a Rule with its compiled matcher.
type compiledRule struct {
	Rule
	g glob.Glob
}

// Config configures a walk.
type Config struct {
	// Root is the absolute path of the tree to walk.
	Root string

	// Excludes are evaluated in order; the first match wins.
	Excludes []Rule

	// MaxFileSize is the per-file byte ceiling. Larger files are skipped
	// with reason "oversized". Zero disables the ceiling.
	MaxFileSize int64

	// MaxFiles and MaxTotalBytes are fatal corpus ceilings, distinct from
	// the per-file skip. Zero disables them.
	MaxFiles      int
	MaxTotalBytes int64
}

// Candidate is one eligible file emitted by the walk. No content has been
// read at this point.
type Candidate struct {
	// AbsPath is the absolute path on disk.
	AbsPath string

	// RelPath is the slash-separated path relative to the root.
	RelPath string

	// Size is the byte size from the directory entry.
	Size int64
}

// Result is the outcome of a walk.
type Result struct {
	// Candidates is lexicographically ordered by RelPath.
	Candidates []Candidate

	// Skips records every excluded or skipped path with its reason.
	// Excluded directories produce one record for the directory itself,
	// never one per descendant.
	Skips []atom.Skip
}

// ErrCorpusTooLarge aborts a walk that exceeds the configured corpus
// ceilings. This is fatal: a truncated candidate stream would break the
// determinism guarantees downstream.
type ErrCorpusTooLarge struct {
	Files int
	Bytes int64
}

func (e *ErrCorpusTooLarge) Error() string {
	return fmt.Sprintf("corpus exceeds configured ceilings (%d files, %d bytes seen)", e.Files, e.Bytes)
}

// Walker traverses one root with a fixed exclusion policy.
//
// # Thread Safety
//
// Safe for concurrent use; Walk holds all mutable state on its own stack.
type Walker struct {
	cfg   Config
	rules []compiledRule
}

// New compiles the exclusion rules and returns a Walker.
//
// # Inputs
//
//   - cfg: Walk configuration. Root must be absolute.
//
// # Outputs
//
//   - *Walker: Ready-to-use walker.
//   - error: Non-nil if Root is not absolute or a pattern fails to compile.
func New(cfg Config) (*Walker, error) {
	if !filepath.IsAbs(cfg.Root) {
		return nil, fmt.Errorf("root must be absolute: %q", cfg.Root)
	}
	rules := make([]compiledRule, 0, len(cfg.Excludes))
	for _, r := range cfg.Excludes {
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclusion %q: %w", r.Pattern, err)
		}
		rules = append(rules, compiledRule{Rule: r, g: g})
	}
	return &Walker{cfg: cfg, rules: rules}, nil
}

// Walk produces the ordered candidate stream for the root.
//
// # Description
//
// Traverses the tree depth-first. fs.WalkDir visits entries in lexical
// order, so the candidate sequence is deterministic for a fixed tree and
// config. Excluded directories are pruned before their entries are listed.
// Unreadable directories are recorded as skips and traversal continues.
//
// # Outputs
//
//   - *Result: Candidates plus skip records.
//   - error: Context cancellation or corpus ceiling breach. Per-path
//     problems never surface as errors.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	res := &Result{}
	var totalBytes int64

	err := filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel := w.relPath(path)
		if err != nil {
			// Unreadable entry: record and move on. WalkDir reports
			// ReadDir failures against the directory itself.
			res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipUnreadable})
			return nil
		}

		if d.IsDir() {
			if path == w.cfg.Root {
				return nil
			}
			if w.matchRule(rel) != nil {
				res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipExcluded})
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			// Sockets, devices, symlinks: outside the corpus model.
			res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipExcluded})
			return nil
		}

		if w.matchRule(rel) != nil {
			res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipExcluded})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipUnreadable})
			return nil
		}

		if w.cfg.MaxFileSize > 0 && info.Size() > w.cfg.MaxFileSize {
			res.Skips = append(res.Skips, atom.Skip{Path: rel, Reason: atom.SkipOversized})
			return nil
		}

		totalBytes += info.Size()
		if w.cfg.MaxTotalBytes > 0 && totalBytes > w.cfg.MaxTotalBytes {
			return &ErrCorpusTooLarge{Files: len(res.Candidates), Bytes: totalBytes}
		}
		if w.cfg.MaxFiles > 0 && len(res.Candidates)+1 > w.cfg.MaxFiles {
			return &ErrCorpusTooLarge{Files: len(res.Candidates) + 1, Bytes: totalBytes}
		}

		res.Candidates = append(res.Candidates, Candidate{
			AbsPath: path,
			RelPath: rel,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// matchRule returns the first rule matching the relative path, or nil.
func (w *Walker) matchRule(rel string) *Rule {
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for i := range w.rules {
		if w.rules[i].g.Match(rel) || w.rules[i].g.Match(base) {
			return &w.rules[i].Rule
		}
	}
	return nil
}

// Excluded reports whether the slash-separated relative path matches an
// exclusion rule. The file watcher uses this to skip excluded directories
// with the same rules the walk applies.
func (w *Walker) Excluded(rel string) bool {
	return w.matchRule(rel) != nil
}

// relPath converts an absolute walk path to the slash-separated form used
// throughout the engine.
func (w *Walker) relPath(path string) string {
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
