// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"path"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// Default builder configuration values.
const (
	// DefaultSiblingFanout caps same_directory pairing: each atom connects
	// to at most this many nearest siblings by filename order, keeping a
	// directory of n files at O(n) edges instead of O(n^2).
	DefaultSiblingFanout = 8

	// DefaultDomainFanout is the same cap for shared_domain membership
	// lists, ordered by atom id.
	DefaultDomainFanout = 8

	// MinDomainWeight is the minimum Jaccard similarity for a
	// shared_domain edge to be emitted.
	MinDomainWeight = 0.1

	// Constant edge weights for the locality relations.
	sameDirectoryWeight = 0.5
	structuralWeight    = 1.0
	dependencyWeight    = 1.0
)

// Options configures a Builder.
type Options struct {
	// SiblingFanout caps same_directory pairing. Zero uses the default.
	SiblingFanout int

	// DomainFanout caps shared_domain pairing. Zero uses the default.
	DomainFanout int

	// Workers is the number of parallel partition workers.
	// Zero uses runtime.NumCPU().
	Workers int

	// GoModulePath is the module path from the root's go.mod, used to
	// resolve module-local Go imports. Empty disables Go import resolution.
	GoModulePath string
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*Options)

// WithSiblingFanout sets the same_directory pairing cap.
func WithSiblingFanout(n int) BuilderOption {
	return func(o *Options) { o.SiblingFanout = n }
}

// WithDomainFanout sets the shared_domain pairing cap.
func WithDomainFanout(n int) BuilderOption {
	return func(o *Options) { o.DomainFanout = n }
}

// WithWorkers sets the number of partition workers.
func WithWorkers(n int) BuilderOption {
	return func(o *Options) { o.Workers = n }
}

// WithGoModulePath enables module-local Go import resolution.
func WithGoModulePath(mod string) BuilderOption {
	return func(o *Options) { o.GoModulePath = mod }
}

// Stats describes one build.
type Stats struct {
	// EdgesByKind counts emitted edges per relationship kind.
	EdgesByKind map[atom.EdgeKind]int

	// DirectoriesTruncated counts directories whose pairing hit the
	// sibling fan-out cap.
	DirectoriesTruncated int

	// DomainsTruncated counts labels whose pairing hit the cap.
	DomainsTruncated int

	DurationMillis int64
}

// Result is the outcome of one build.
type Result struct {
	Edges []atom.Edge
	Stats Stats
}

// Builder computes the relationship edge set for a completed atom set.
//
// # Description
//
// Four relations are built: same_directory (capped star per directory),
// shared_domain (Jaccard-weighted, capped per label), dependency (resolved
// imports only), and structural (atom to synthetic directory node, plus the
// directory parent chain).
//
// The builder requires the full atom set: shared_domain and same_directory
// need global membership knowledge, which is why atomization must finish
// before building starts.
//
// # Thread Safety
//
// A Builder is stateless and safe for concurrent use; every Build call
// carries its own state.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	o := Options{
		SiblingFanout: DefaultSiblingFanout,
		DomainFanout:  DefaultDomainFanout,
		Workers:       runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.SiblingFanout <= 0 {
		o.SiblingFanout = DefaultSiblingFanout
	}
	if o.DomainFanout <= 0 {
		o.DomainFanout = DefaultDomainFanout
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return &Builder{opts: o}
}

// partitionEdges is one worker's private output.
type partitionEdges struct {
	edges     []atom.Edge
	truncated int
}

// Build computes the edge set.
//
// # Inputs
//
//   - ctx: Cancellation. A cancelled build returns the context error and
//     no partial edge set is published.
//   - atoms: The complete, immutable atom set for the run.
//
// # Outputs
//
//   - *Result: Sorted, deduplicated edges plus build statistics.
//   - error: Context cancellation only; edge construction itself cannot fail.
func (b *Builder) Build(ctx context.Context, atoms []atom.Atom) (*Result, error) {
	ctx, span := startBuildSpan(ctx, len(atoms))
	defer span.End()
	start := time.Now()

	// Index atoms by directory and path once; all phases read it.
	idx := newAtomIndex(atoms)

	set := NewEdgeSet()
	stats := Stats{}

	// same_directory: partitioned by directory key.
	dirParts, dirTruncated, err := b.runPartitions(ctx, idx.dirKeys, func(key string) partitionEdges {
		return b.sameDirectoryEdges(idx.byDir[key])
	})
	if err != nil {
		return nil, err
	}
	for _, p := range dirParts {
		set.AddAll(p)
	}
	stats.DirectoriesTruncated = dirTruncated

	// shared_domain: partitioned by label key.
	domParts, domTruncated, err := b.runPartitions(ctx, idx.labelKeys, func(key string) partitionEdges {
		return b.sharedDomainEdges(idx, idx.byLabel[key])
	})
	if err != nil {
		return nil, err
	}
	for _, p := range domParts {
		set.AddAll(p)
	}
	stats.DomainsTruncated = domTruncated

	// dependency: each atom resolves its own imports; partitioned by path.
	depParts, _, err := b.runPartitions(ctx, idx.pathKeys, func(key string) partitionEdges {
		return partitionEdges{edges: b.dependencyEdges(idx, idx.byPath[key])}
	})
	if err != nil {
		return nil, err
	}
	for _, p := range depParts {
		set.AddAll(p)
	}

	// structural: cheap single pass, no partitioning needed.
	b.structuralEdges(set, atoms)

	stats.EdgesByKind = set.CountByKind()
	stats.DurationMillis = time.Since(start).Milliseconds()

	edges := set.Edges()
	setBuildSpanResult(span, len(edges))
	recordBuildMetrics(ctx, time.Since(start), len(atoms), len(edges))
	return &Result{Edges: edges, Stats: stats}, nil
}

// runPartitions fans the sorted group keys across workers. Each key is owned
// by exactly one worker, so per-key outputs are disjoint; results merge by
// key order to keep aggregate truncation counts deterministic.
func (b *Builder) runPartitions(ctx context.Context, keys []string, fn func(key string) partitionEdges) ([][]atom.Edge, int, error) {
	results := make([]partitionEdges, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([][]atom.Edge, len(results))
	truncated := 0
	for i, r := range results {
		out[i] = r.edges
		truncated += r.truncated
	}
	return out, truncated, nil
}

// sameDirectoryEdges connects each atom to its nearest siblings by filename
// order, up to the fan-out cap.
func (b *Builder) sameDirectoryEdges(members []atom.Atom) partitionEdges {
	var p partitionEdges
	k := b.opts.SiblingFanout
	if len(members)-1 > k {
		p.truncated = 1
	}
	for i := range members {
		for j := i + 1; j <= i+k && j < len(members); j++ {
			if e, ok := atom.NewEdge(members[i].ID, members[j].ID, atom.EdgeSameDirectory, sameDirectoryWeight); ok {
				p.edges = append(p.edges, e)
			}
		}
	}
	return p
}

// sharedDomainEdges connects atoms in one label's membership list, weighted
// by Jaccard similarity of the two full label sets.
func (b *Builder) sharedDomainEdges(idx *atomIndex, memberIDs []string) partitionEdges {
	var p partitionEdges
	k := b.opts.DomainFanout
	if len(memberIDs)-1 > k {
		p.truncated = 1
	}
	for i := range memberIDs {
		for j := i + 1; j <= i+k && j < len(memberIDs); j++ {
			w := jaccard(idx.labelSet[memberIDs[i]], idx.labelSet[memberIDs[j]])
			if w < MinDomainWeight {
				continue
			}
			if e, ok := atom.NewEdge(memberIDs[i], memberIDs[j], atom.EdgeSharedDomain, w); ok {
				p.edges = append(p.edges, e)
			}
		}
	}
	return p
}

// structuralEdges links each atom to its parent directory node and each
// directory node to its own parent, giving downstream consumers a rollup
// skeleton without file-to-file fan-out.
func (b *Builder) structuralEdges(set *EdgeSet, atoms []atom.Atom) {
	for _, a := range atoms {
		dir := parentDir(a.SourcePath)
		set.Add(a.ID, atom.DirNodeID(dir), atom.EdgeStructural, structuralWeight)
		for dir != "." {
			parent := parentDir(dir)
			set.Add(atom.DirNodeID(dir), atom.DirNodeID(parent), atom.EdgeStructural, structuralWeight)
			dir = parent
		}
	}
}

// jaccard computes |a ∩ b| / |a ∪ b| over label sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for l := range a {
		if b[l] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// atomIndex holds the read-only lookup structures shared by all build
// phases. Built once per Build call; never mutated afterwards.
type atomIndex struct {
	byDir    map[string][]atom.Atom // dir -> members sorted by SourcePath
	dirKeys  []string
	byLabel  map[string][]string // label -> member atom ids, sorted
	labelKeys []string
	byPath   map[string]atom.Atom // SourcePath -> atom
	pathKeys []string
	labelSet map[string]map[string]bool // atom id -> label set
	dirFiles map[string][]string        // dir -> member SourcePaths sorted
}

func newAtomIndex(atoms []atom.Atom) *atomIndex {
	idx := &atomIndex{
		byDir:    make(map[string][]atom.Atom),
		byLabel:  make(map[string][]string),
		byPath:   make(map[string]atom.Atom, len(atoms)),
		labelSet: make(map[string]map[string]bool, len(atoms)),
		dirFiles: make(map[string][]string),
	}
	for _, a := range atoms {
		dir := parentDir(a.SourcePath)
		idx.byDir[dir] = append(idx.byDir[dir], a)
		idx.byPath[a.SourcePath] = a
		if len(a.Domains) > 0 {
			set := make(map[string]bool, len(a.Domains))
			for _, d := range a.Domains {
				set[d.Label] = true
				idx.byLabel[d.Label] = append(idx.byLabel[d.Label], a.ID)
			}
			idx.labelSet[a.ID] = set
		}
	}
	for dir, members := range idx.byDir {
		sort.Slice(members, func(i, j int) bool { return members[i].SourcePath < members[j].SourcePath })
		paths := make([]string, len(members))
		for i, m := range members {
			paths[i] = m.SourcePath
		}
		idx.dirFiles[dir] = paths
		idx.dirKeys = append(idx.dirKeys, dir)
	}
	sort.Strings(idx.dirKeys)
	for label, ids := range idx.byLabel {
		sort.Strings(ids)
		idx.byLabel[label] = ids
		idx.labelKeys = append(idx.labelKeys, label)
	}
	sort.Strings(idx.labelKeys)
	idx.pathKeys = make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		idx.pathKeys = append(idx.pathKeys, p)
	}
	sort.Strings(idx.pathKeys)
	return idx
}

// parentDir returns the slash-separated parent, "." for root-level paths.
func parentDir(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "" || dir == "/" {
		return "."
	}
	return dir
}
