// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package atom defines the data model for knowledge atoms, relationship
// edges, skip records, and run summaries.
//
// Atoms and edges are immutable once produced: a run emits a complete
// snapshot, never an incremental mutation of a previous one. Atom identity
// is the SHA-256 of the file's raw bytes, so byte-identical content always
// maps to the same atom id regardless of path, run time, or worker order.
package atom

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PrivacyLevel is the sensitivity classification of an atom.
//
// Levels form a total order: Public < Internal < Confidential.
// Classification always resolves ambiguity toward the more restrictive
// non-public level.
type PrivacyLevel string

const (
	PrivacyPublic       PrivacyLevel = "public"
	PrivacyInternal     PrivacyLevel = "internal"
	PrivacyConfidential PrivacyLevel = "confidential"
)

// Rank returns the position of the level in the sensitivity order.
// Unknown levels rank as Internal.
func (p PrivacyLevel) Rank() int {
	switch p {
	case PrivacyPublic:
		return 0
	case PrivacyConfidential:
		return 2
	default:
		return 1
	}
}

// EdgeKind is the type of a relationship edge.
type EdgeKind string

const (
	// EdgeSameDirectory connects atoms sharing an immediate parent directory.
	EdgeSameDirectory EdgeKind = "same_directory"

	// EdgeSharedDomain connects atoms sharing at least one domain label.
	EdgeSharedDomain EdgeKind = "shared_domain"

	// EdgeDependency connects an importing atom to a resolved import target.
	EdgeDependency EdgeKind = "dependency"

	// EdgeStructural connects an atom to its synthetic directory node, and
	// directory nodes to their parents.
	EdgeStructural EdgeKind = "structural"
)

// EdgeKinds lists all kinds in a fixed order, used for deterministic
// iteration over per-kind counters.
var EdgeKinds = []EdgeKind{EdgeSameDirectory, EdgeSharedDomain, EdgeDependency, EdgeStructural}

// SkipReason explains why a path was not atomized. Skips are expected
// outcomes, not errors.
type SkipReason string

const (
	// SkipExcluded means an exclusion rule matched the path.
	SkipExcluded SkipReason = "excluded"

	// SkipOversized means the file exceeded the configured size ceiling.
	SkipOversized SkipReason = "oversized"

	// SkipUnreadable means a directory or file could not be read.
	SkipUnreadable SkipReason = "unreadable"

	// SkipUnparseable means content could not be decoded (typically binary
	// data behind a text-looking extension).
	SkipUnparseable SkipReason = "unparseable"

	// SkipTimeout means the per-file read deadline elapsed.
	SkipTimeout SkipReason = "timeout"
)

// StructureSummary holds approximate counts of top-level constructs.
//
// The counts come from lexical scanning, not a parse. They are best-effort
// and may over- or under-count in files with unusual formatting; consumers
// must treat them as heuristics.
type StructureSummary struct {
	// Functions counts function-like declarations.
	Functions int `json:"functions"`

	// Types counts class-like declarations (classes, structs, interfaces).
	Types int `json:"types"`
}

// DomainLabel is one topical tag on an atom.
type DomainLabel struct {
	// Label is the taxonomy label, e.g. "backend".
	Label string `json:"label"`

	// Confidence is the rule match strength in (0, 1].
	Confidence float64 `json:"confidence"`
}

// Atom is the content-addressed record for one eligible file.
type Atom struct {
	// ID is the hex SHA-256 of the raw file bytes. Immutable; independent
	// of SourcePath and CreatedAt.
	ID string `json:"id"`

	// SourcePath is the path relative to the scan root at scan time.
	SourcePath string `json:"source_path"`

	// Language is the detected language, or "unknown".
	Language string `json:"language"`

	SizeBytes int64 `json:"size_bytes"`
	LineCount int   `json:"line_count"`

	Structure StructureSummary `json:"structure_summary"`

	// Excerpt is a bounded, privacy-filtered preview. Secret-shaped spans
	// are redacted regardless of the atom's own privacy level.
	Excerpt string `json:"content_excerpt"`

	// Domains holds zero or more labels, sorted by label name.
	Domains []DomainLabel `json:"domain_labels,omitempty"`

	// Imports holds raw import/include/require specifiers found by lexical
	// scanning, sorted and deduplicated. The relationship builder resolves
	// them against other atoms' SourcePath; unresolved entries produce no
	// edges.
	Imports []string `json:"imports,omitempty"`

	Privacy PrivacyLevel `json:"privacy_level"`

	// CreatedAt is the timestamp of the producing run. Not part of identity.
	CreatedAt time.Time `json:"created_at"`
}

// ContentID computes the atom id for raw file bytes.
func ContentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DirNodeID returns the synthetic node id for a directory, relative to the
// scan root. The root itself is "dir:.".
func DirNodeID(relDir string) string {
	if relDir == "" {
		relDir = "."
	}
	return "dir:" + relDir
}

// Edge is an undirected, typed, weighted connection between two node ids.
//
// Edges are stored canonically with A < B so that the unordered pair has a
// single representation; at most one edge exists per (A, B, Kind).
type Edge struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight"`
}

// NewEdge builds a canonically ordered edge. Self-edges are invalid and
// return false.
func NewEdge(a, b string, kind EdgeKind, weight float64) (Edge, bool) {
	if a == b || a == "" || b == "" {
		return Edge{}, false
	}
	if b < a {
		a, b = b, a
	}
	return Edge{A: a, B: b, Kind: kind, Weight: weight}, true
}

// Key returns the dedup key for the unordered (A, B, Kind) triple.
func (e Edge) Key() string {
	return e.A + "\x00" + e.B + "\x00" + string(e.Kind)
}

// Skip records one path that was deliberately not atomized.
type Skip struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
}

// FileError records a non-fatal per-file failure. The run continues.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// RunSummary is the observability record for one engine run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	FilesProcessed int   `json:"files_processed"`
	FilesSkipped   int   `json:"files_skipped"`
	BytesProcessed int64 `json:"bytes_processed"`
	DurationMillis int64 `json:"duration_ms"`

	// Skips holds individual skip records with reasons.
	Skips []Skip `json:"skips,omitempty"`

	// SkipsByReason aggregates Skips for quick reporting.
	SkipsByReason map[SkipReason]int `json:"skips_by_reason,omitempty"`

	// Errors holds non-fatal per-file failures.
	Errors []FileError `json:"errors,omitempty"`

	// EdgesByKind counts edges produced per relationship kind.
	EdgesByKind map[EdgeKind]int `json:"edges_by_kind,omitempty"`

	// DirectoriesTruncated counts directories whose same_directory pairing
	// hit the sibling fan-out cap.
	DirectoriesTruncated int `json:"directories_truncated"`

	// DomainsTruncated counts domain labels whose pairing hit the cap.
	DomainsTruncated int `json:"domains_truncated"`
}

// DomainStat aggregates atoms per domain label.
type DomainStat struct {
	Atoms int   `json:"atoms"`
	Bytes int64 `json:"bytes"`
}

// Metadata describes one serialized graph export.
type Metadata struct {
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Version        string    `json:"version"`
	AtomCount      int       `json:"atom_count"`
	EdgeCount      int       `json:"edge_count"`
	DurationMillis int64     `json:"duration_ms"`
}

// Export is the serialized graph: the engine's sole contract with
// downstream consumers.
type Export struct {
	Metadata            Metadata              `json:"metadata"`
	Atoms               []Atom                `json:"atoms"`
	Edges               []Edge                `json:"edges"`
	DomainDistribution  map[string]DomainStat `json:"domain_distribution"`
	PrivacyDistribution map[PrivacyLevel]int  `json:"privacy_distribution"`
}

// Validate checks the structural invariants of an export: canonical edge
// ordering, no duplicate (A, B, Kind) triples, and consistent counts.
func (x *Export) Validate() error {
	if x.Metadata.AtomCount != len(x.Atoms) {
		return fmt.Errorf("atom_count %d does not match %d atoms", x.Metadata.AtomCount, len(x.Atoms))
	}
	if x.Metadata.EdgeCount != len(x.Edges) {
		return fmt.Errorf("edge_count %d does not match %d edges", x.Metadata.EdgeCount, len(x.Edges))
	}
	seen := make(map[string]struct{}, len(x.Edges))
	for _, e := range x.Edges {
		if e.A >= e.B {
			return fmt.Errorf("edge %q/%q not in canonical order", e.A, e.B)
		}
		key := e.Key()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate edge %s %s %s", e.Kind, e.A, e.B)
		}
		seen[key] = struct{}{}
	}
	return nil
}
