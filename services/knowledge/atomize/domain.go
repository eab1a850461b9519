// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// Match confidences per rule type. A label matched both ways keeps the
// higher confidence.
const (
	pathMatchConfidence    = 0.9
	contentMatchConfidence = 0.6
)

// DomainRule matches one taxonomy label.
//
// PathSegments match whole slash-separated segments of the relative path
// (case-insensitive). Keywords match word-bounded occurrences in content.
// Extensions match the file extension including the dot.
type DomainRule struct {
	Label        string   `yaml:"label" validate:"required"`
	PathSegments []string `yaml:"path_segments"`
	Keywords     []string `yaml:"keywords"`
	Extensions   []string `yaml:"extensions"`
}

// DefaultTaxonomy returns the built-in domain rule table. The taxonomy is
// open: deployments replace or extend it through configuration, and it is
// loaded once at run start as read-only data.
func DefaultTaxonomy() []DomainRule {
	return []DomainRule{
		{
			Label:        "backend",
			PathSegments: []string{"server", "api", "backend", "services", "handlers", "controllers"},
			Keywords:     []string{"http.Handler", "router", "endpoint", "middleware", "grpc"},
		},
		{
			Label:        "frontend",
			PathSegments: []string{"frontend", "ui", "web", "components", "pages", "views"},
			Keywords:     []string{"useState", "render", "component", "stylesheet"},
			Extensions:   []string{".jsx", ".tsx", ".css", ".scss", ".html"},
		},
		{
			Label:        "data",
			PathSegments: []string{"db", "database", "models", "migrations", "schema", "store"},
			Keywords:     []string{"SELECT", "INSERT", "CREATE TABLE", "primary key", "foreign key"},
			Extensions:   []string{".sql"},
		},
		{
			Label:        "infra",
			PathSegments: []string{"deploy", "deployment", "infra", "terraform", "k8s", "helm", "docker"},
			Keywords:     []string{"apiVersion", "kubectl", "terraform", "FROM alpine", "docker-compose"},
			Extensions:   []string{".tf"},
		},
		{
			Label:        "docs",
			PathSegments: []string{"docs", "doc", "documentation", "examples"},
			Extensions:   []string{".md", ".rst", ".adoc", ".txt"},
		},
		{
			Label:        "testing",
			PathSegments: []string{"test", "tests", "testdata", "fixtures", "e2e", "integration"},
			Keywords:     []string{"assert", "expect(", "testing.T", "unittest", "pytest"},
		},
		{
			Label:        "security",
			PathSegments: []string{"auth", "security", "crypto", "identity"},
			Keywords:     []string{"authenticate", "authorize", "encrypt", "decrypt", "jwt", "oauth"},
		},
		{
			Label:        "build",
			PathSegments: []string{"build", "ci", "scripts", "tools"},
			Keywords:     []string{"pipeline", "artifact"},
			Extensions:   []string{".mk"},
		},
	}
}

// compiledDomainRule pre-lowercases segments and compiles keyword patterns.
type compiledDomainRule struct {
	label    string
	segments map[string]bool
	exts     map[string]bool
	keywords []*regexp.Regexp
}

// DomainClassifier assigns multi-label domain tags.
//
// # Thread Safety
//
// Safe for concurrent use after construction.
type DomainClassifier struct {
	rules []compiledDomainRule
}

// NewDomainClassifier compiles a taxonomy into a classifier.
func NewDomainClassifier(taxonomy []DomainRule) (*DomainClassifier, error) {
	c := &DomainClassifier{}
	for _, r := range taxonomy {
		if r.Label == "" {
			return nil, fmt.Errorf("taxonomy rule without label")
		}
		cr := compiledDomainRule{
			label:    r.Label,
			segments: make(map[string]bool, len(r.PathSegments)),
			exts:     make(map[string]bool, len(r.Extensions)),
		}
		for _, s := range r.PathSegments {
			cr.segments[strings.ToLower(s)] = true
		}
		for _, e := range r.Extensions {
			cr.exts[strings.ToLower(e)] = true
		}
		for _, kw := range r.Keywords {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw))
			if err != nil {
				return nil, fmt.Errorf("compile keyword %q for %s: %w", kw, r.Label, err)
			}
			cr.keywords = append(cr.keywords, re)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Classify returns zero or more labels with confidences in (0, 1], sorted
// by label name. An atom with no matching rule stays uncategorized.
func (c *DomainClassifier) Classify(relPath string, content []byte) []atom.DomainLabel {
	segs := pathSegments(relPath)
	ext := strings.ToLower(extOf(relPath))

	var labels []atom.DomainLabel
	for _, r := range c.rules {
		conf := 0.0
		for _, s := range segs {
			if r.segments[s] {
				conf = pathMatchConfidence
				break
			}
		}
		if conf == 0 && r.exts[ext] {
			conf = pathMatchConfidence
		}
		if conf < contentMatchConfidence {
			for _, re := range r.keywords {
				if re.Match(content) {
					if conf < contentMatchConfidence {
						conf = contentMatchConfidence
					}
					break
				}
			}
		}
		if conf > 0 {
			labels = append(labels, atom.DomainLabel{Label: r.label, Confidence: conf})
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Label < labels[j].Label })
	return labels
}

// pathSegments splits a relative path into lowercased segments, excluding
// the filename itself.
func pathSegments(relPath string) []string {
	parts := strings.Split(strings.ToLower(relPath), "/")
	if len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func extOf(relPath string) string {
	if i := strings.LastIndexByte(relPath, '.'); i >= 0 && i > strings.LastIndexByte(relPath, '/') {
		return relPath[i:]
	}
	return ""
}
