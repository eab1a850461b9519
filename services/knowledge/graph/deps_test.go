// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"testing"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

func depAtom(relPath, language string, imports ...string) atom.Atom {
	return atom.Atom{
		ID:         atom.ContentID([]byte(relPath)),
		SourcePath: relPath,
		Language:   language,
		Imports:    imports,
	}
}

// hasEdgeBetween reports whether any edge of the kind connects the two atoms.
func hasEdgeBetween(edges []atom.Edge, kind atom.EdgeKind, a, b atom.Atom) bool {
	want, ok := atom.NewEdge(a.ID, b.ID, kind, 0)
	if !ok {
		return false
	}
	for _, e := range edges {
		if e.Kind == kind && e.A == want.A && e.B == want.B {
			return true
		}
	}
	return false
}

func TestDependencyEdges_Go(t *testing.T) {
	b := NewBuilder(WithGoModulePath("example.com/app"))

	target := depAtom("internal/store/store.go", "go")
	importer := depAtom("cmd/app/main.go", "go", "example.com/app/internal/store", "fmt")
	atoms := []atom.Atom{importer, target, depAtom("internal/store/README.md", "markdown")}

	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}

	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, target) {
		t.Error("missing dependency edge for module-local go import")
	}
	// The stdlib import and the non-go file in the target dir produce nothing.
	if got := countKind(res.Edges, atom.EdgeDependency); got != 1 {
		t.Errorf("dependency edges = %d, want 1", got)
	}
}

func TestDependencyEdges_GoWithoutModulePath(t *testing.T) {
	b := NewBuilder()

	atoms := []atom.Atom{
		depAtom("a.go", "go", "example.com/app/pkg"),
		depAtom("pkg/b.go", "go"),
	}
	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}
	if got := countKind(res.Edges, atom.EdgeDependency); got != 0 {
		t.Errorf("dependency edges = %d, want 0 without a module path", got)
	}
}

func TestDependencyEdges_Python(t *testing.T) {
	b := NewBuilder()

	modFile := depAtom("app/models.py", "python")
	pkgInit := depAtom("lib/__init__.py", "python")
	importer := depAtom("app/views.py", "python", "app.models", "lib", "os")
	atoms := []atom.Atom{importer, modFile, pkgInit}

	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}

	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, modFile) {
		t.Error("missing edge for dotted module import")
	}
	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, pkgInit) {
		t.Error("missing edge for package __init__ import")
	}
}

func TestDependencyEdges_JavaScript(t *testing.T) {
	b := NewBuilder()

	util := depAtom("src/util.ts", "typescript")
	indexed := depAtom("src/lib/index.ts", "typescript")
	importer := depAtom("src/main.ts", "typescript", "./util", "./lib", "react")
	atoms := []atom.Atom{importer, util, indexed}

	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}

	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, util) {
		t.Error("missing edge for ./util with inferred extension")
	}
	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, indexed) {
		t.Error("missing edge for directory index resolution")
	}
	// "react" is external and must not resolve.
	if got := countKind(res.Edges, atom.EdgeDependency); got != 2 {
		t.Errorf("dependency edges = %d, want 2", got)
	}
}

func TestDependencyEdges_CInclude(t *testing.T) {
	b := NewBuilder()

	header := depAtom("src/parser.h", "c")
	importer := depAtom("src/main.c", "c", "parser.h")
	atoms := []atom.Atom{importer, header}

	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}
	if !hasEdgeBetween(res.Edges, atom.EdgeDependency, importer, header) {
		t.Error("missing edge for local #include")
	}
}

func TestDependencyEdges_EscapeRejected(t *testing.T) {
	b := NewBuilder()

	outside := depAtom("secrets.ts", "typescript")
	importer := depAtom("src/main.ts", "typescript", "../../outside")
	atoms := []atom.Atom{importer, outside}

	res, err := b.Build(context.Background(), atoms)
	if err != nil {
		t.Fatal(err)
	}
	if got := countKind(res.Edges, atom.EdgeDependency); got != 0 {
		t.Errorf("dependency edges = %d, want 0 for path escaping the root", got)
	}
}

func TestNormalizeRel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"src/../lib/a.ts", "lib/a.ts"},
		{"./a.ts", "a.ts"},
		{"../escape.ts", ""},
		{"..", ""},
		{"a/b/c", "a/b/c"},
	}
	for _, tc := range cases {
		if got := normalizeRel(tc.in); got != tc.want {
			t.Errorf("normalizeRel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
