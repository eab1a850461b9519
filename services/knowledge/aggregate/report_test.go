// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atom"
)

func TestRenderReport(t *testing.T) {
	summary := atom.RunSummary{
		RunID:          "run-abc",
		Root:           "/corpus",
		FilesProcessed: 2,
		FilesSkipped:   1,
		SkipsByReason:  map[atom.SkipReason]int{atom.SkipExcluded: 1},
		EdgesByKind:    map[atom.EdgeKind]int{atom.EdgeStructural: 3},
		Errors:         []atom.FileError{{Path: "bad.go", Err: "permission denied"}},
	}
	export := BuildExport(summary, sampleAtoms(), nil)

	out := RenderReport(summary, export)

	assert.Contains(t, out, "run-abc")
	assert.Contains(t, out, "/corpus")
	assert.Contains(t, out, "excluded=1")
	assert.Contains(t, out, "structural=3")
	assert.Contains(t, out, "public=1")
	assert.Contains(t, out, "internal=2")
	assert.Contains(t, out, "backend=2")
	assert.Contains(t, out, "bad.go")
	assert.Contains(t, out, "permission denied")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderReport_Truncation(t *testing.T) {
	summary := atom.RunSummary{
		RunID:                "run-x",
		DirectoriesTruncated: 2,
		DomainsTruncated:     1,
	}
	export := BuildExport(summary, nil, nil)

	out := RenderReport(summary, export)
	assert.Contains(t, out, "capped pairing")
	assert.Contains(t, out, "2 directories")
}
