// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atom

import (
	"testing"
)

func TestContentID(t *testing.T) {
	t.Run("depends only on bytes", func(t *testing.T) {
		a := ContentID([]byte("package main\n"))
		b := ContentID([]byte("package main\n"))
		if a != b {
			t.Errorf("same bytes produced different ids: %s vs %s", a, b)
		}
	})

	t.Run("single byte change changes id", func(t *testing.T) {
		a := ContentID([]byte("package main\n"))
		b := ContentID([]byte("package main!"))
		if a == b {
			t.Error("different bytes produced the same id")
		}
	})

	t.Run("hex sha256 shape", func(t *testing.T) {
		id := ContentID([]byte{})
		if len(id) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(id))
		}
		// sha256 of empty input is a fixed constant.
		if id != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
			t.Errorf("unexpected empty-input digest %s", id)
		}
	})
}

func TestNewEdge(t *testing.T) {
	t.Run("canonical ordering", func(t *testing.T) {
		e1, ok := NewEdge("bbb", "aaa", EdgeSameDirectory, 0.5)
		if !ok {
			t.Fatal("edge rejected")
		}
		e2, ok := NewEdge("aaa", "bbb", EdgeSameDirectory, 0.5)
		if !ok {
			t.Fatal("edge rejected")
		}
		if e1 != e2 {
			t.Errorf("reversed endpoints produced different edges: %+v vs %+v", e1, e2)
		}
		if e1.A != "aaa" || e1.B != "bbb" {
			t.Errorf("expected A=aaa B=bbb, got A=%s B=%s", e1.A, e1.B)
		}
	})

	t.Run("self edge rejected", func(t *testing.T) {
		if _, ok := NewEdge("aaa", "aaa", EdgeSharedDomain, 1.0); ok {
			t.Error("self edge accepted")
		}
	})

	t.Run("empty endpoint rejected", func(t *testing.T) {
		if _, ok := NewEdge("", "aaa", EdgeSharedDomain, 1.0); ok {
			t.Error("empty endpoint accepted")
		}
	})

	t.Run("key distinguishes kinds", func(t *testing.T) {
		e1, _ := NewEdge("a", "b", EdgeSameDirectory, 0.5)
		e2, _ := NewEdge("a", "b", EdgeSharedDomain, 0.5)
		if e1.Key() == e2.Key() {
			t.Error("different kinds share a dedup key")
		}
	})
}

func TestPrivacyRank(t *testing.T) {
	if !(PrivacyPublic.Rank() < PrivacyInternal.Rank() && PrivacyInternal.Rank() < PrivacyConfidential.Rank()) {
		t.Error("privacy levels are not totally ordered")
	}
	if PrivacyLevel("bogus").Rank() != PrivacyInternal.Rank() {
		t.Error("unknown level should rank as internal")
	}
}

func TestDirNodeID(t *testing.T) {
	if got := DirNodeID(""); got != "dir:." {
		t.Errorf("root dir id = %s, want dir:.", got)
	}
	if got := DirNodeID("src/api"); got != "dir:src/api" {
		t.Errorf("dir id = %s, want dir:src/api", got)
	}
}

func TestExportValidate(t *testing.T) {
	edge := func(a, b string, kind EdgeKind) Edge {
		e, _ := NewEdge(a, b, kind, 1.0)
		return e
	}

	t.Run("valid export", func(t *testing.T) {
		x := &Export{
			Metadata: Metadata{AtomCount: 0, EdgeCount: 2},
			Edges: []Edge{
				edge("a", "b", EdgeSameDirectory),
				edge("a", "b", EdgeSharedDomain),
			},
		}
		if err := x.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate edge", func(t *testing.T) {
		x := &Export{
			Metadata: Metadata{EdgeCount: 2},
			Edges: []Edge{
				edge("a", "b", EdgeSameDirectory),
				edge("b", "a", EdgeSameDirectory),
			},
		}
		if err := x.Validate(); err == nil {
			t.Error("expected duplicate edge error")
		}
	})

	t.Run("non canonical order", func(t *testing.T) {
		x := &Export{
			Metadata: Metadata{EdgeCount: 1},
			Edges:    []Edge{{A: "b", B: "a", Kind: EdgeSameDirectory}},
		}
		if err := x.Validate(); err == nil {
			t.Error("expected canonical order error")
		}
	})

	t.Run("count mismatch", func(t *testing.T) {
		x := &Export{Metadata: Metadata{AtomCount: 3}}
		if err := x.Validate(); err == nil {
			t.Error("expected count mismatch error")
		}
	})
}
