// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package knowledge runs the knowledge atomization and relationship graph
// engine: walk a corpus, atomize eligible files, build the edge set, and
// aggregate the result into one immutable graph snapshot per run.
//
// The pipeline has two phases separated by a hard barrier. Phase 1
// atomizes candidate files in parallel batches with no shared mutable
// state. Phase 2 builds relationship edges over the complete atom set,
// partitioned by group key. Aborting a run discards all partial output;
// no partial graph is ever published.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/corpusgraph/corpusgraph/services/knowledge/aggregate"
	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
	"github.com/corpusgraph/corpusgraph/services/knowledge/atomize"
	"github.com/corpusgraph/corpusgraph/services/knowledge/graph"
	"github.com/corpusgraph/corpusgraph/services/knowledge/runstore"
	"github.com/corpusgraph/corpusgraph/services/knowledge/walker"
)

// RunResult is the in-memory outcome of one run.
type RunResult struct {
	Summary atom.RunSummary
	Export  *atom.Export

	// ReproducedPrevious reports whether this run's content digest matches
	// the previous stored run for the same root. Nil when no run store is
	// configured or no previous run exists.
	ReproducedPrevious *bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithStore attaches a run history store.
func WithStore(store *runstore.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithClock pins the timestamp source. The determinism verifier uses this
// to stamp two runs identically so their exports can be compared whole.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service executes runs for one configuration.
//
// # Thread Safety
//
// Safe for concurrent use, but runs are serialized: a second Run while one
// is executing returns ErrRunInProgress rather than interleaving two scans
// of the same root.
type Service struct {
	cfg    Config
	logger *slog.Logger
	store  *runstore.Store
	now    func() time.Time

	atomizer *atomize.Atomizer
	builder  *graph.Builder

	runMu sync.Mutex
}

// NewService validates the configuration and assembles the pipeline.
//
// All rule tables (exclusions, privacy, taxonomy) compile here, once; a
// broken rule fails construction instead of surfacing mid-run.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = abs

	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.atomizer, err = atomize.New(atomize.Options{
		PrivacyRules:  cfg.Privacy,
		Taxonomy:      cfg.Taxonomy,
		ExcerptLength: cfg.ExcerptLength,
		ReadTimeout:   time.Duration(cfg.ReadTimeout),
		Now:           s.now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerPool, err)
	}

	s.builder = graph.NewBuilder(
		graph.WithSiblingFanout(cfg.SiblingFanout),
		graph.WithDomainFanout(cfg.DomainFanout),
		graph.WithWorkers(s.workers()),
		graph.WithGoModulePath(goModulePath(cfg.Root)),
	)
	return s, nil
}

// Run executes one complete scan.
//
// # Description
//
// Walks the root, atomizes candidates in parallel batches, waits at the
// barrier, builds the edge set, aggregates, and (when configured) writes
// the export artifact and persists the run record. Per-file problems are
// recorded in the summary; only artifact-write and pipeline-setup failures
// return errors.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	started := s.now().UTC()
	logger := s.logger.With("run_id", runID, "root", s.cfg.Root)
	logger.Info("run started")

	w, err := walker.New(walker.Config{
		Root:          s.cfg.Root,
		Excludes:      s.cfg.Excludes,
		MaxFileSize:   s.cfg.MaxFileSizeBytes,
		MaxFiles:      s.cfg.MaxFiles,
		MaxTotalBytes: s.cfg.MaxTotalBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerPool, err)
	}

	walked, err := w.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}
	logger.Info("walk complete",
		"candidates", len(walked.Candidates), "skipped", len(walked.Skips))

	atoms, atomSkips, fileErrors, err := s.atomizePhase(ctx, walked.Candidates)
	if err != nil {
		// Cancellation between batches: discard everything.
		return nil, err
	}

	// Barrier: the builder needs the complete atom set for directory and
	// domain membership.
	built, err := s.builder.Build(ctx, atoms)
	if err != nil {
		return nil, err
	}

	finished := s.now().UTC()
	summary := atom.RunSummary{
		RunID:                runID,
		Root:                 s.cfg.Root,
		StartedAt:            started,
		FinishedAt:           finished,
		FilesProcessed:       len(atoms),
		BytesProcessed:       totalBytes(atoms),
		DurationMillis:       finished.Sub(started).Milliseconds(),
		Errors:               fileErrors,
		EdgesByKind:          built.Stats.EdgesByKind,
		DirectoriesTruncated: built.Stats.DirectoriesTruncated,
		DomainsTruncated:     built.Stats.DomainsTruncated,
	}
	summary.Skips = append(append([]atom.Skip{}, walked.Skips...), atomSkips...)
	summary.FilesSkipped = len(summary.Skips)
	summary.SkipsByReason = make(map[atom.SkipReason]int)
	for _, sk := range summary.Skips {
		summary.SkipsByReason[sk.Reason]++
	}

	export := aggregate.BuildExport(summary, atoms, built.Edges)

	if s.cfg.Output != "" {
		if err := aggregate.WriteExport(s.cfg.Output, export); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
		}
	}

	result := &RunResult{Summary: summary, Export: export}
	s.persist(logger, summary, export, result)

	logger.Info("run complete",
		"atoms", len(atoms),
		"edges", export.Metadata.EdgeCount,
		"skipped", summary.FilesSkipped,
		"errors", len(fileErrors),
		"duration_ms", summary.DurationMillis)
	return result, nil
}

// atomizePhase fans candidate batches across the worker pool. Results land
// in per-batch slots, then merge in batch order, so the merged slices are
// independent of worker scheduling.
func (s *Service) atomizePhase(ctx context.Context, cands []walker.Candidate) ([]atom.Atom, []atom.Skip, []atom.FileError, error) {
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	type batchResult struct {
		atoms []atom.Atom
		skips []atom.Skip
		errs  []atom.FileError
	}
	numBatches := (len(cands) + batchSize - 1) / batchSize
	results := make([]batchResult, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for b := 0; b < numBatches; b++ {
		g.Go(func() error {
			// Cancellation is honored between batches, not mid-file.
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := b * batchSize
			hi := min(lo+batchSize, len(cands))
			var br batchResult
			for _, cand := range cands[lo:hi] {
				a, skip, ferr := s.atomizer.Atomize(gctx, cand)
				if ferr != nil {
					br.errs = append(br.errs, *ferr)
				}
				if skip != nil {
					br.skips = append(br.skips, *skip)
					continue
				}
				br.atoms = append(br.atoms, *a)
			}
			results[b] = br
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var atoms []atom.Atom
	var skips []atom.Skip
	var ferrs []atom.FileError
	for _, br := range results {
		atoms = append(atoms, br.atoms...)
		skips = append(skips, br.skips...)
		ferrs = append(ferrs, br.errs...)
	}
	return atoms, skips, ferrs, nil
}

// persist writes the run record and computes the idempotence verdict.
// Store failures are logged, not fatal: history is an aid, not an output.
func (s *Service) persist(logger *slog.Logger, summary atom.RunSummary, export *atom.Export, result *RunResult) {
	if s.store == nil {
		return
	}
	digest := aggregate.ContentDigest(export)

	prev, err := s.store.LastForRoot(s.cfg.Root)
	switch {
	case err == nil:
		same := prev.ContentDigest == digest
		result.ReproducedPrevious = &same
	case errors.Is(err, runstore.ErrNotFound):
		// First run for this root.
	default:
		logger.Warn("cannot read previous run", "error", err)
	}

	rec := runstore.Record{
		RunID:         summary.RunID,
		Root:          summary.Root,
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
		AtomCount:     export.Metadata.AtomCount,
		EdgeCount:     export.Metadata.EdgeCount,
		Bytes:         summary.BytesProcessed,
		ContentDigest: digest,
	}
	if err := s.store.Put(rec); err != nil {
		logger.Warn("cannot persist run record", "error", err)
	}
}

// workers resolves the configured pool size.
func (s *Service) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return runtime.NumCPU()
}

// goModulePath reads the module path from the root's go.mod, if present.
// Absence just disables module-local Go import resolution.
func goModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil || f.Module == nil {
		return ""
	}
	return f.Module.Mod.Path
}

func totalBytes(atoms []atom.Atom) int64 {
	var n int64
	for _, a := range atoms {
		n += a.SizeBytes
	}
	return n
}
