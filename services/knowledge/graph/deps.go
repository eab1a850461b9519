// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"path"
	"strings"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

// jsResolveSuffixes tried when a relative JS/TS specifier has no extension.
var jsResolveSuffixes = []string{
	"", ".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs",
	"/index.js", "/index.ts", "/index.jsx", "/index.tsx",
}

// dependencyEdges resolves one atom's import specifiers to other atoms.
// Resolution is best effort: a specifier that maps to nothing in the corpus
// (standard library, third-party package, generated file) is dropped
// silently and is not an error.
func (b *Builder) dependencyEdges(idx *atomIndex, a atom.Atom) []atom.Edge {
	if len(a.Imports) == 0 {
		return nil
	}
	fromDir := parentDir(a.SourcePath)

	var edges []atom.Edge
	add := func(target atom.Atom) {
		if e, ok := atom.NewEdge(a.ID, target.ID, atom.EdgeDependency, dependencyWeight); ok {
			edges = append(edges, e)
		}
	}

	for _, ref := range a.Imports {
		switch a.Language {
		case "go":
			for _, t := range b.resolveGoImport(idx, ref) {
				add(t)
			}
		case "python":
			if t, ok := resolvePythonImport(idx, fromDir, ref); ok {
				add(t)
			}
		case "javascript", "typescript":
			if t, ok := resolveRelativeImport(idx, fromDir, ref, jsResolveSuffixes); ok {
				add(t)
			}
		case "c", "cpp":
			if t, ok := resolveRelativeImport(idx, fromDir, ref, []string{""}); ok {
				add(t)
			}
		}
	}
	return edges
}

// resolveGoImport maps a module-local import path to the Go files of the
// imported package directory. Go imports name packages rather than files,
// so the edge targets every .go atom in the directory, capped at the
// sibling fan-out to keep wide packages bounded.
func (b *Builder) resolveGoImport(idx *atomIndex, ref string) []atom.Atom {
	mod := b.opts.GoModulePath
	if mod == "" {
		return nil
	}
	var relDir string
	switch {
	case ref == mod:
		relDir = "."
	case strings.HasPrefix(ref, mod+"/"):
		relDir = ref[len(mod)+1:]
	default:
		return nil
	}

	var targets []atom.Atom
	for _, p := range idx.dirFiles[relDir] {
		t := idx.byPath[p]
		if t.Language != "go" {
			continue
		}
		targets = append(targets, t)
		if len(targets) >= b.opts.SiblingFanout {
			break
		}
	}
	return targets
}

// resolvePythonImport maps a dotted module path to a file, trying the scan
// root first and then the importing file's own directory (intra-package
// imports).
func resolvePythonImport(idx *atomIndex, fromDir, ref string) (atom.Atom, bool) {
	rel := strings.ReplaceAll(ref, ".", "/")
	for _, base := range []string{".", fromDir} {
		for _, cand := range []string{rel + ".py", rel + "/__init__.py"} {
			p := normalizeRel(path.Join(base, cand))
			if t, ok := idx.byPath[p]; ok {
				return t, true
			}
		}
	}
	return atom.Atom{}, false
}

// resolveRelativeImport resolves ./ and ../ specifiers against the
// importing file's directory, trying each suffix in order. Bare specifiers
// (package names) are external and never resolve.
func resolveRelativeImport(idx *atomIndex, fromDir, ref string, suffixes []string) (atom.Atom, bool) {
	if !strings.HasPrefix(ref, "./") && !strings.HasPrefix(ref, "../") {
		// C includes use plain relative paths without a ./ prefix.
		if !strings.HasSuffix(ref, ".h") && !strings.HasSuffix(ref, ".hpp") {
			return atom.Atom{}, false
		}
	}
	for _, suffix := range suffixes {
		p := normalizeRel(path.Join(fromDir, ref+suffix))
		if t, ok := idx.byPath[p]; ok {
			return t, true
		}
	}
	return atom.Atom{}, false
}

// normalizeRel cleans a joined path and rejects escapes above the root.
func normalizeRel(p string) string {
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}
