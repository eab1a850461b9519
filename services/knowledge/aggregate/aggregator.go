// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package aggregate reduces the finished atom and edge sets into
// distributions and the serialized graph export.
//
// No classification logic lives here: every aggregate is a pure reduction
// over immutable inputs, computed after both pipeline phases finish. No
// counter is mutated while workers run.
package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// ExportVersion is the schema version stamped into export metadata.
const ExportVersion = "1"

// BuildExport assembles the serialized graph from a run's outputs.
//
// Atoms are ordered by SourcePath and edges keep the builder's canonical
// (A, B, Kind) order, so two runs over identical content produce
// byte-identical atom and edge sections.
func BuildExport(summary atom.RunSummary, atoms []atom.Atom, edges []atom.Edge) *atom.Export {
	ordered := make([]atom.Atom, len(atoms))
	copy(ordered, atoms)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SourcePath < ordered[j].SourcePath })

	domainDist := make(map[string]atom.DomainStat)
	privacyDist := map[atom.PrivacyLevel]int{}
	for _, a := range ordered {
		privacyDist[a.Privacy]++
		for _, d := range a.Domains {
			stat := domainDist[d.Label]
			stat.Atoms++
			stat.Bytes += a.SizeBytes
			domainDist[d.Label] = stat
		}
	}

	return &atom.Export{
		Metadata: atom.Metadata{
			RunID:          summary.RunID,
			GeneratedAt:    summary.FinishedAt,
			Version:        ExportVersion,
			AtomCount:      len(ordered),
			EdgeCount:      len(edges),
			DurationMillis: summary.DurationMillis,
		},
		Atoms:               ordered,
		Edges:               edges,
		DomainDistribution:  domainDist,
		PrivacyDistribution: privacyDist,
	}
}

// WriteExport serializes the export as JSON to path, creating parent
// directories. A write failure here is the run-fatal error class: without
// the artifact the run never happened as far as consumers are concerned.
func WriteExport(path string, export *atom.Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export artifact: %w", err)
	}
	return nil
}

// ContentDigest hashes the content-determined portion of an export: atoms
// without timestamps, plus edges. Two runs over an unchanged tree produce
// the same digest, which is how the run store checks idempotence.
func ContentDigest(export *atom.Export) string {
	type stableAtom struct {
		ID         string                `json:"id"`
		SourcePath string                `json:"source_path"`
		Language   string                `json:"language"`
		SizeBytes  int64                 `json:"size_bytes"`
		LineCount  int                   `json:"line_count"`
		Structure  atom.StructureSummary `json:"structure_summary"`
		Excerpt    string                `json:"content_excerpt"`
		Domains    []atom.DomainLabel    `json:"domain_labels,omitempty"`
		Imports    []string              `json:"imports,omitempty"`
		Privacy    atom.PrivacyLevel     `json:"privacy_level"`
	}
	stable := struct {
		Atoms []stableAtom `json:"atoms"`
		Edges []atom.Edge  `json:"edges"`
	}{Edges: export.Edges}
	for _, a := range export.Atoms {
		stable.Atoms = append(stable.Atoms, stableAtom{
			ID:         a.ID,
			SourcePath: a.SourcePath,
			Language:   a.Language,
			SizeBytes:  a.SizeBytes,
			LineCount:  a.LineCount,
			Structure:  a.Structure,
			Excerpt:    a.Excerpt,
			Domains:    a.Domains,
			Imports:    a.Imports,
			Privacy:    a.Privacy,
		})
	}
	data, err := json.Marshal(stable)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
