// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package atomize turns candidate files into knowledge atoms.
//
// Atomization is an ordered pipeline of pure classification steps per file:
// content hash, language detection, structure summary, privacy cascade,
// domain labels, and a redacted excerpt. An Atomizer mutates no shared
// state, so workers run it in parallel without locks.
package atomize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
	"github.com/corpusgraph/corpusgraph/services/knowledge/walker"
)

// Defaults for atomizer construction.
const (
	// DefaultExcerptLength bounds the redacted preview in bytes.
	DefaultExcerptLength = 512

	// DefaultReadTimeout guards against pathological filesystem stalls.
	// Exceeding it is a skip, never a run-fatal error.
	DefaultReadTimeout = 5 * time.Second
)

// Options configures an Atomizer.
type Options struct {
	// PrivacyRules for the classification cascade. Zero value uses defaults.
	PrivacyRules PrivacyRules

	// Taxonomy for domain labeling. Nil uses DefaultTaxonomy.
	Taxonomy []DomainRule

	// ExcerptLength bounds content_excerpt. Zero uses DefaultExcerptLength.
	ExcerptLength int

	// ReadTimeout is the per-file read deadline. Zero uses DefaultReadTimeout.
	ReadTimeout time.Duration

	// Now supplies atom timestamps. Nil uses time.Now. Tests and the
	// determinism verifier pin it so two runs stamp identically.
	Now func() time.Time
}

// Atomizer produces one atom per candidate file.
//
// # Thread Safety
//
// Safe for concurrent use. All rule tables are read-only after construction.
type Atomizer struct {
	privacy     *PrivacyClassifier
	domains     *DomainClassifier
	excerptLen  int
	readTimeout time.Duration
	now         func() time.Time
}

// New builds an Atomizer from options.
func New(opts Options) (*Atomizer, error) {
	rules := opts.PrivacyRules
	if len(rules.SecretPaths) == 0 && len(rules.SecretContent) == 0 {
		rules = DefaultPrivacyRules()
	}
	privacy, err := NewPrivacyClassifier(rules)
	if err != nil {
		return nil, err
	}
	taxonomy := opts.Taxonomy
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	domains, err := NewDomainClassifier(taxonomy)
	if err != nil {
		return nil, err
	}
	a := &Atomizer{
		privacy:     privacy,
		domains:     domains,
		excerptLen:  opts.ExcerptLength,
		readTimeout: opts.ReadTimeout,
		now:         opts.Now,
	}
	if a.excerptLen <= 0 {
		a.excerptLen = DefaultExcerptLength
	}
	if a.readTimeout <= 0 {
		a.readTimeout = DefaultReadTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Atomize reads one candidate and produces its atom, or a skip record when
// the file cannot become an atom. Exactly one of atom and skip is non-nil.
// For unreadable and timed-out files the returned FileError carries the
// diagnostic detail the skip record deliberately omits.
//
// # Description
//
// Steps run in a fixed order: read bytes under the deadline, hash, detect
// language, summarize structure, classify privacy, classify domain, build
// the redacted excerpt. The atom id depends only on the raw bytes.
func (a *Atomizer) Atomize(ctx context.Context, cand walker.Candidate) (*atom.Atom, *atom.Skip, *atom.FileError) {
	ctx, span := startAtomizeSpan(ctx, cand.RelPath)
	defer span.End()
	start := time.Now()

	content, reason, readErr := a.readBounded(ctx, cand.AbsPath)
	if reason != "" {
		recordAtomize(ctx, time.Since(start), false)
		skip := &atom.Skip{Path: cand.RelPath, Reason: reason}
		var ferr *atom.FileError
		if readErr != nil {
			ferr = &atom.FileError{Path: cand.RelPath, Err: readErr.Error()}
		}
		return nil, skip, ferr
	}

	if !looksTextual(content) {
		recordAtomize(ctx, time.Since(start), false)
		return nil, &atom.Skip{Path: cand.RelPath, Reason: atom.SkipUnparseable}, nil
	}

	language := DetectLanguage(cand.RelPath, content)
	out := &atom.Atom{
		ID:         atom.ContentID(content),
		SourcePath: cand.RelPath,
		Language:   language,
		SizeBytes:  int64(len(content)),
		LineCount:  countLines(content),
		Structure:  SummarizeStructure(language, content),
		Privacy:    a.privacy.Classify(cand.RelPath, content),
		Domains:    a.domains.Classify(cand.RelPath, content),
		Imports:    ExtractImports(language, content),
		Excerpt:    a.excerpt(content),
		CreatedAt:  a.now().UTC(),
	}
	recordAtomize(ctx, time.Since(start), true)
	return out, nil, nil
}

// readBounded reads the whole file under the read deadline. os.ReadFile
// cannot be interrupted mid-call, so the read runs in its own goroutine and
// the deadline is enforced on the receive; a stalled read's goroutine is
// abandoned to finish in the background.
func (a *Atomizer) readBounded(ctx context.Context, absPath string) ([]byte, atom.SkipReason, error) {
	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(absPath)
		ch <- readResult{data: data, err: err}
	}()

	timer := time.NewTimer(a.readTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, atom.SkipUnreadable, r.err
		}
		return r.data, "", nil
	case <-timer.C:
		return nil, atom.SkipTimeout, fmt.Errorf("read exceeded %s", a.readTimeout)
	case <-ctx.Done():
		return nil, atom.SkipTimeout, ctx.Err()
	}
}

// excerpt builds the bounded, redacted preview. Redaction runs on the full
// content before truncation so a secret straddling the boundary cannot
// survive partially.
func (a *Atomizer) excerpt(content []byte) string {
	redacted := a.privacy.Redact(content)
	if len(redacted) <= a.excerptLen {
		return string(redacted)
	}
	cut := a.excerptLen
	for cut > 0 && !utf8.RuneStart(redacted[cut]) {
		cut--
	}
	return string(redacted[:cut])
}

// looksTextual rejects content with NUL bytes or invalid UTF-8, the usual
// signature of binary data behind a text-looking extension.
func looksTextual(content []byte) bool {
	if len(content) == 0 {
		return true
	}
	probe := content
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return false
	}
	return utf8.Valid(content)
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
