// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"bufio"
	"bytes"
	"regexp"
	"sort"
	"strings"
)

// Import extraction patterns per language. Like the structure summary these
// are lexical, so an import-shaped line inside a string literal can produce
// a false reference; unresolved references are dropped downstream, which
// bounds the damage to nothing.
var (
	pyImportRe = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import\b|import\s+([\w.]+))`)
	jsImportRe = regexp.MustCompile(`(?:\bimport\b[^'"]*?\bfrom\s*|\brequire\s*\(\s*|\bimport\s*\(\s*)['"]([^'"]+)['"]`)
	cIncludeRe = regexp.MustCompile(`^\s*#include\s*"([^"]+)"`)
	goImportRe = regexp.MustCompile(`^\s*(?:import\s+)?(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"\s*$`)
)

// ExtractImports scans content for import/include/require specifiers in the
// detected language. Returns a sorted, deduplicated list of raw specifiers;
// nil when the language has no import syntax we scan.
func ExtractImports(language string, content []byte) []string {
	var refs []string
	switch language {
	case "go":
		refs = goImports(content)
	case "python":
		refs = lineImports(content, func(line string) string {
			m := pyImportRe.FindStringSubmatch(line)
			if m == nil {
				return ""
			}
			if m[1] != "" {
				return m[1]
			}
			return m[2]
		})
	case "javascript", "typescript":
		for _, m := range jsImportRe.FindAllSubmatch(content, -1) {
			refs = append(refs, string(m[1]))
		}
	case "c", "cpp":
		refs = lineImports(content, func(line string) string {
			m := cIncludeRe.FindStringSubmatch(line)
			if m == nil {
				return ""
			}
			return m[1]
		})
	default:
		return nil
	}
	return dedupeSorted(refs)
}

// goImports handles both single import lines and import blocks.
func goImports(content []byte) []string {
	var refs []string
	inBlock := false
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock:
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				refs = append(refs, m[1])
			}
		case strings.HasPrefix(trimmed, "import "):
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				refs = append(refs, m[1])
			}
		}
	}
	return refs
}

// lineImports applies a per-line extractor.
func lineImports(content []byte, extract func(line string) string) []string {
	var refs []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if ref := extract(sc.Text()); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

func dedupeSorted(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	sort.Strings(refs)
	out := refs[:1]
	for _, r := range refs[1:] {
		if r != out[len(out)-1] {
			out = append(out, r)
		}
	}
	return out
}
