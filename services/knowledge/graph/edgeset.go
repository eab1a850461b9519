// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph builds the relationship edge set over a completed atom set.
//
// Edge construction is order independent: the same atoms yield the same
// edges no matter how work was partitioned across workers. Partitions are
// disjoint by group key, so merging is plain concatenation followed by a
// canonical sort.
package graph

import (
	"sort"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// EdgeSet accumulates edges with (A, B, Kind) deduplication.
//
// Not safe for concurrent use; workers build private slices and the merge
// happens single-threaded at the barrier.
type EdgeSet struct {
	edges map[string]atom.Edge
}

// NewEdgeSet returns an empty set.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{edges: make(map[string]atom.Edge)}
}

// Add canonicalizes and inserts an edge. Self-edges and duplicates of an
// existing (A, B, Kind) triple are dropped; returns whether the edge was
// inserted.
func (s *EdgeSet) Add(a, b string, kind atom.EdgeKind, weight float64) bool {
	e, ok := atom.NewEdge(a, b, kind, weight)
	if !ok {
		return false
	}
	key := e.Key()
	if _, exists := s.edges[key]; exists {
		return false
	}
	s.edges[key] = e
	return true
}

// AddAll inserts a slice of already-canonical edges.
func (s *EdgeSet) AddAll(edges []atom.Edge) {
	for _, e := range edges {
		key := e.Key()
		if _, exists := s.edges[key]; !exists {
			s.edges[key] = e
		}
	}
}

// Len returns the number of distinct edges.
func (s *EdgeSet) Len() int { return len(s.edges) }

// Edges returns the edges sorted by (A, B, Kind): the canonical export order.
func (s *EdgeSet) Edges() []atom.Edge {
	out := make([]atom.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		if out[i].B != out[j].B {
			return out[i].B < out[j].B
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// CountByKind tallies edges per relationship kind.
func (s *EdgeSet) CountByKind() map[atom.EdgeKind]int {
	counts := make(map[atom.EdgeKind]int, len(atom.EdgeKinds))
	for _, e := range s.edges {
		counts[e.Kind]++
	}
	return counts
}
